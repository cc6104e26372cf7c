package nft

import (
	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/MixinNetwork/nfo-collection/metadata"
	"github.com/MixinNetwork/nfo-collection/pda"
	"github.com/MixinNetwork/nfo-collection/token"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
)

const (
	InstructionMintCollection        = "mint_collection"
	InstructionMintFromCollection    = "mint_from_collection"
	InstructionSetMetadataAndEdition = "set_metadata_and_master_edition"
)

var (
	discMintCollection     = instructionDiscriminator(InstructionMintCollection)
	discMintFromCollection = instructionDiscriminator(InstructionMintFromCollection)
	discSetMetadata        = instructionDiscriminator(InstructionSetMetadataAndEdition)
)

type MintCollectionArgs struct {
	Name         string
	Symbol       string
	Uri          string
	AuthorityUri string
}

type SetMetadataArgs struct {
	Name string
	Uri  string
}

// Program is the collection program deployed at ID.
type Program struct {
	ID common.PublicKey
}

func NewProgram(id common.PublicKey) *Program {
	return &Program{ID: id}
}

func (p *Program) Process(ic *chain.Context, ix types.Instruction) error {
	if len(ix.Data) < 8 {
		return chain.NewError(chain.CodeInvalidInstruction, p.ID, "instruction data has %d bytes", len(ix.Data))
	}
	var disc [8]byte
	copy(disc[:], ix.Data[:8])
	args := ix.Data[8:]

	switch disc {
	case discMintCollection:
		var a MintCollectionArgs
		err := borsh.Deserialize(&a, args)
		if err != nil {
			return chain.NewError(chain.CodeInvalidInstruction, p.ID, "%s args: %v", InstructionMintCollection, err)
		}
		keys, err := chain.Keys(ix, 8)
		if err != nil {
			return err
		}
		return p.mintCollection(ic, MintCollectionAccounts{
			Mint:                      keys[0],
			MintAuthority:             keys[1],
			Payer:                     keys[2],
			TokenAccount:              keys[3],
			CollectionPda:             keys[4],
			Metadata:                  keys[5],
			MasterEdition:             keys[6],
			CollectionAuthorityRecord: keys[7],
		}, a)
	case discMintFromCollection:
		keys, err := chain.Keys(ix, 3)
		if err != nil {
			return err
		}
		return p.mintFromCollection(ic, MintFromCollectionAccounts{
			Mint:          keys[0],
			MintAuthority: keys[1],
			TokenAccount:  keys[2],
		})
	case discSetMetadata:
		var a SetMetadataArgs
		err := borsh.Deserialize(&a, args)
		if err != nil {
			return chain.NewError(chain.CodeInvalidInstruction, p.ID, "%s args: %v", InstructionSetMetadataAndEdition, err)
		}
		keys, err := chain.Keys(ix, 11)
		if err != nil {
			return err
		}
		return p.setMetadataAndMasterEdition(ic, SetMetadataAccounts{
			Mint:                      keys[0],
			MintAuthority:             keys[1],
			Payer:                     keys[2],
			TokenAccount:              keys[3],
			Metadata:                  keys[4],
			MasterEdition:             keys[5],
			CollectionMint:            keys[6],
			CollectionPda:             keys[7],
			CollectionMetadata:        keys[8],
			CollectionMasterEdition:   keys[9],
			CollectionAuthorityRecord: keys[10],
		}, a)
	}
	return chain.NewError(chain.CodeInvalidInstruction, p.ID, "unknown instruction %x", disc)
}

// mintOne issues a unique token held by the mint authority's associated
// account.
func mintOne(ic *chain.Context, payer, mint, authority, holding common.PublicKey) error {
	err := token.CreateMint(ic, payer, mint, authority)
	if err != nil {
		return err
	}
	err = token.CreateHoldingAccount(ic, payer, holding, authority, mint)
	if err != nil {
		return err
	}
	return token.MintOne(ic, mint, holding, authority)
}

func (p *Program) mintCollection(ic *chain.Context, accts MintCollectionAccounts, args MintCollectionArgs) error {
	logger.Verbosef("nft.mintCollection(%s, %s) %s\n", accts.Mint, accts.MintAuthority, args.Name)
	err := mintOne(ic, accts.Payer, accts.Mint, accts.MintAuthority, accts.TokenAccount)
	if err != nil {
		return err
	}
	err = metadata.CreateMetadata(ic, metadata.CreateMetadataArgs{
		Metadata:        accts.Metadata,
		Mint:            accts.Mint,
		MintAuthority:   accts.MintAuthority,
		Payer:           accts.Payer,
		UpdateAuthority: accts.MintAuthority,
		Name:            args.Name,
		Symbol:          args.Symbol,
		Uri:             args.Uri,
		IsMutable:       true,
	})
	if err != nil {
		return err
	}
	err = metadata.CreateMasterEdition(ic, metadata.CreateMasterEditionArgs{
		Edition:         accts.MasterEdition,
		Metadata:        accts.Metadata,
		Mint:            accts.Mint,
		UpdateAuthority: accts.MintAuthority,
		MintAuthority:   accts.MintAuthority,
		Payer:           accts.Payer,
	})
	if err != nil {
		return err
	}

	entry, err := pda.Expect(pda.NamespaceCollection, accts.CollectionPda, p.ID,
		pda.CollectionSeeds(accts.MintAuthority, accts.Mint)...)
	if err != nil {
		return err
	}
	err = metadata.Delegate(ic, metadata.DelegateArgs{
		Record:          accts.CollectionAuthorityRecord,
		CollectionMint:  accts.Mint,
		Delegate:        accts.CollectionPda,
		UpdateAuthority: accts.MintAuthority,
		Payer:           accts.Payer,
	})
	if err != nil {
		return err
	}
	return Register(ic, RegisterArgs{
		Entry:        accts.CollectionPda,
		Creator:      accts.MintAuthority,
		Mint:         accts.Mint,
		Bump:         entry.Bump,
		AuthorityURI: args.AuthorityUri,
		Payer:        accts.Payer,
	})
}

func (p *Program) mintFromCollection(ic *chain.Context, accts MintFromCollectionAccounts) error {
	logger.Verbosef("nft.mintFromCollection(%s, %s)\n", accts.Mint, accts.MintAuthority)
	return mintOne(ic, accts.MintAuthority, accts.Mint, accts.MintAuthority, accts.TokenAccount)
}

// setMetadataAndMasterEdition describes a freshly minted token, links it to
// the collection and verifies the link with the collection entry signing as
// delegate.
func (p *Program) setMetadataAndMasterEdition(ic *chain.Context, accts SetMetadataAccounts, args SetMetadataArgs) error {
	logger.Verbosef("nft.setMetadataAndMasterEdition(%s, %s) %s\n", accts.Mint, accts.CollectionMint, args.Name)
	seeds := pda.CollectionSeeds(accts.MintAuthority, accts.CollectionMint)
	_, err := pda.Expect(pda.NamespaceCollection, accts.CollectionPda, p.ID, seeds...)
	if err != nil {
		return err
	}
	entry, err := ReadEntry(ic.Txn, p.ID, accts.CollectionPda)
	if err != nil {
		return err
	}
	_, err = pda.Expect(pda.NamespaceMetadata, accts.CollectionMetadata, chain.MetadataProgramID,
		pda.MetadataSeeds(accts.CollectionMint)...)
	if err != nil {
		return err
	}
	acc, err := ic.Load(accts.CollectionMetadata)
	if err != nil {
		return err
	}
	if acc == nil {
		return chain.NewError(chain.CodeCollectionNotFound, accts.CollectionMetadata, "collection %s has no metadata", accts.CollectionMint.ToBase58())
	}
	collection, err := metadata.ReadMetadata(ic.Txn, accts.CollectionMetadata)
	if err != nil {
		return err
	}

	err = metadata.CreateMetadata(ic, metadata.CreateMetadataArgs{
		Metadata:        accts.Metadata,
		Mint:            accts.Mint,
		MintAuthority:   accts.MintAuthority,
		Payer:           accts.Payer,
		UpdateAuthority: accts.MintAuthority,
		Name:            args.Name,
		Symbol:          collection.Symbol,
		Uri:             args.Uri,
		IsMutable:       true,
	})
	if err != nil {
		return err
	}
	err = metadata.CreateMasterEdition(ic, metadata.CreateMasterEditionArgs{
		Edition:         accts.MasterEdition,
		Metadata:        accts.Metadata,
		Mint:            accts.Mint,
		UpdateAuthority: accts.MintAuthority,
		MintAuthority:   accts.MintAuthority,
		Payer:           accts.Payer,
	})
	if err != nil {
		return err
	}
	err = metadata.UpdateMetadataCollection(ic, accts.Mint, accts.CollectionMint, accts.MintAuthority)
	if err != nil {
		return err
	}

	sic, err := ic.InvokeSigned(chain.MetadataProgramID, append(seeds, []byte{entry.Bump}))
	if err != nil {
		return err
	}
	return metadata.Verify(sic, metadata.VerifyArgs{
		Metadata:                accts.Metadata,
		CollectionMint:          accts.CollectionMint,
		CollectionMetadata:      accts.CollectionMetadata,
		CollectionMasterEdition: accts.CollectionMasterEdition,
		Record:                  accts.CollectionAuthorityRecord,
		Delegate:                accts.CollectionPda,
		Signer:                  accts.CollectionPda,
	})
}
