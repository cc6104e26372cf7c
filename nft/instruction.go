package nft

import (
	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/MixinNetwork/nfo-collection/pda"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
)

type MintCollectionAccounts struct {
	Mint                      common.PublicKey
	MintAuthority             common.PublicKey
	Payer                     common.PublicKey
	TokenAccount              common.PublicKey
	CollectionPda             common.PublicKey
	Metadata                  common.PublicKey
	MasterEdition             common.PublicKey
	CollectionAuthorityRecord common.PublicKey
}

type MintFromCollectionAccounts struct {
	Mint          common.PublicKey
	MintAuthority common.PublicKey
	TokenAccount  common.PublicKey
}

type SetMetadataAccounts struct {
	Mint                      common.PublicKey
	MintAuthority             common.PublicKey
	Payer                     common.PublicKey
	TokenAccount              common.PublicKey
	Metadata                  common.PublicKey
	MasterEdition             common.PublicKey
	CollectionMint            common.PublicKey
	CollectionPda             common.PublicKey
	CollectionMetadata        common.PublicKey
	CollectionMasterEdition   common.PublicKey
	CollectionAuthorityRecord common.PublicKey
}

// CollectionEntryAddress is the registry entry of (creator, mint).
func (p *Program) CollectionEntryAddress(creator, mint common.PublicKey) (pda.Address, error) {
	return pda.Collection(p.ID, creator, mint)
}

func (p *Program) DeriveMintCollection(mint, authority, payer common.PublicKey) (MintCollectionAccounts, error) {
	accts := MintCollectionAccounts{Mint: mint, MintAuthority: authority, Payer: payer}
	holding, err := pda.AssociatedAccount(authority, mint)
	if err != nil {
		return accts, err
	}
	entry, err := p.CollectionEntryAddress(authority, mint)
	if err != nil {
		return accts, err
	}
	md, err := pda.Metadata(mint)
	if err != nil {
		return accts, err
	}
	ed, err := pda.MasterEdition(mint)
	if err != nil {
		return accts, err
	}
	rec, err := pda.CollectionAuthority(mint, entry.Key)
	if err != nil {
		return accts, err
	}
	accts.TokenAccount = holding.Key
	accts.CollectionPda = entry.Key
	accts.Metadata = md.Key
	accts.MasterEdition = ed.Key
	accts.CollectionAuthorityRecord = rec.Key
	return accts, nil
}

func (p *Program) DeriveMintFromCollection(mint, authority common.PublicKey) (MintFromCollectionAccounts, error) {
	holding, err := pda.AssociatedAccount(authority, mint)
	if err != nil {
		return MintFromCollectionAccounts{}, err
	}
	return MintFromCollectionAccounts{Mint: mint, MintAuthority: authority, TokenAccount: holding.Key}, nil
}

func (p *Program) DeriveSetMetadata(mint, authority, payer, collectionMint common.PublicKey) (SetMetadataAccounts, error) {
	collection, err := p.DeriveMintCollection(collectionMint, authority, payer)
	if err != nil {
		return SetMetadataAccounts{}, err
	}
	accts := SetMetadataAccounts{
		Mint:                      mint,
		MintAuthority:             authority,
		Payer:                     payer,
		CollectionMint:            collectionMint,
		CollectionPda:             collection.CollectionPda,
		CollectionMetadata:        collection.Metadata,
		CollectionMasterEdition:   collection.MasterEdition,
		CollectionAuthorityRecord: collection.CollectionAuthorityRecord,
	}
	holding, err := pda.AssociatedAccount(authority, mint)
	if err != nil {
		return accts, err
	}
	md, err := pda.Metadata(mint)
	if err != nil {
		return accts, err
	}
	ed, err := pda.MasterEdition(mint)
	if err != nil {
		return accts, err
	}
	accts.TokenAccount = holding.Key
	accts.Metadata = md.Key
	accts.MasterEdition = ed.Key
	return accts, nil
}

func encode(disc [8]byte, args any) []byte {
	data := append([]byte{}, disc[:]...)
	if args == nil {
		return data
	}
	b, err := borsh.Serialize(args)
	if err != nil {
		panic(err)
	}
	return append(data, b...)
}

// programAccounts lists the programs an instruction invokes, read-only, after
// its own accounts.
func programAccounts(ids ...common.PublicKey) []types.AccountMeta {
	metas := make([]types.AccountMeta, len(ids))
	for i, id := range ids {
		metas[i] = types.AccountMeta{PubKey: id}
	}
	return metas
}

func (p *Program) MintCollection(accts MintCollectionAccounts, args MintCollectionArgs) types.Instruction {
	metas := []types.AccountMeta{
		{PubKey: accts.Mint, IsSigner: true, IsWritable: true},
		{PubKey: accts.MintAuthority, IsSigner: true, IsWritable: true},
		{PubKey: accts.Payer, IsSigner: true, IsWritable: true},
		{PubKey: accts.TokenAccount, IsWritable: true},
		{PubKey: accts.CollectionPda, IsWritable: true},
		{PubKey: accts.Metadata, IsWritable: true},
		{PubKey: accts.MasterEdition, IsWritable: true},
		{PubKey: accts.CollectionAuthorityRecord, IsWritable: true},
	}
	return types.Instruction{
		ProgramID: p.ID,
		Accounts: append(metas, programAccounts(chain.SystemProgramID, chain.TokenProgramID,
			chain.AssociatedTokenProgramID, chain.MetadataProgramID)...),
		Data: encode(discMintCollection, args),
	}
}

func (p *Program) MintFromCollection(accts MintFromCollectionAccounts) types.Instruction {
	metas := []types.AccountMeta{
		{PubKey: accts.Mint, IsSigner: true, IsWritable: true},
		{PubKey: accts.MintAuthority, IsSigner: true, IsWritable: true},
		{PubKey: accts.TokenAccount, IsWritable: true},
	}
	return types.Instruction{
		ProgramID: p.ID,
		Accounts: append(metas, programAccounts(chain.SystemProgramID, chain.TokenProgramID,
			chain.AssociatedTokenProgramID)...),
		Data: encode(discMintFromCollection, nil),
	}
}

func (p *Program) SetMetadataAndMasterEdition(accts SetMetadataAccounts, args SetMetadataArgs) types.Instruction {
	metas := []types.AccountMeta{
		{PubKey: accts.Mint, IsWritable: true},
		{PubKey: accts.MintAuthority, IsSigner: true, IsWritable: true},
		{PubKey: accts.Payer, IsSigner: true, IsWritable: true},
		{PubKey: accts.TokenAccount, IsWritable: true},
		{PubKey: accts.Metadata, IsWritable: true},
		{PubKey: accts.MasterEdition, IsWritable: true},
		{PubKey: accts.CollectionMint},
		{PubKey: accts.CollectionPda},
		{PubKey: accts.CollectionMetadata, IsWritable: true},
		{PubKey: accts.CollectionMasterEdition},
		{PubKey: accts.CollectionAuthorityRecord},
	}
	return types.Instruction{
		ProgramID: p.ID,
		Accounts:  append(metas, programAccounts(chain.SystemProgramID, chain.TokenProgramID, chain.MetadataProgramID)...),
		Data:      encode(discSetMetadata, args),
	}
}
