package metadata

import (
	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/MixinNetwork/nfo-collection/pda"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

type CollectionAuthorityRecord struct {
	Key             uint8
	Bump            uint8
	Mint            common.PublicKey
	Delegate        common.PublicKey
	UpdateAuthority common.PublicKey
}

func ReadCollectionAuthorityRecord(r chain.Reader, addr common.PublicKey) (*CollectionAuthorityRecord, error) {
	var rec CollectionAuthorityRecord
	err := readRecord(r, addr, &rec)
	if err != nil {
		return nil, err
	}
	if rec.Key != KeyCollectionAuthorityRecord {
		return nil, chain.NewError(chain.CodeInvalidAccount, addr, "not a collection authority record")
	}
	return &rec, nil
}

type DelegateArgs struct {
	Record          common.PublicKey
	CollectionMint  common.PublicKey
	Delegate        common.PublicKey
	UpdateAuthority common.PublicKey
	Payer           common.PublicKey
}

// Delegate grants args.Delegate the right to verify membership in the
// collection on behalf of its update authority.
func Delegate(ic *chain.Context, args DelegateArgs) error {
	mic := ic.Invoke(chain.MetadataProgramID)
	md, err := collectionMetadata(mic, args.CollectionMint)
	if err != nil {
		return err
	}
	if md.UpdateAuthority != args.UpdateAuthority || !mic.IsSigner(args.UpdateAuthority) {
		return chain.NewError(chain.CodeUnauthorized, args.UpdateAuthority, "not the update authority of collection %s", args.CollectionMint.ToBase58())
	}
	addr, err := pda.Expect(pda.NamespaceMetadata, args.Record, chain.MetadataProgramID,
		pda.CollectionAuthoritySeeds(args.CollectionMint, args.Delegate)...)
	if err != nil {
		return err
	}

	data, err := borsh.Serialize(CollectionAuthorityRecord{
		Key:             KeyCollectionAuthorityRecord,
		Bump:            addr.Bump,
		Mint:            args.CollectionMint,
		Delegate:        args.Delegate,
		UpdateAuthority: args.UpdateAuthority,
	})
	if err != nil {
		return err
	}
	return mic.Create(args.Payer, args.Record, data)
}

// Revoke closes the delegation record of delegate.
func Revoke(ic *chain.Context, record, collectionMint, delegate, updateAuthority common.PublicKey) error {
	mic := ic.Invoke(chain.MetadataProgramID)
	md, err := collectionMetadata(mic, collectionMint)
	if err != nil {
		return err
	}
	if md.UpdateAuthority != updateAuthority || !mic.IsSigner(updateAuthority) {
		return chain.NewError(chain.CodeUnauthorized, updateAuthority, "not the update authority of collection %s", collectionMint.ToBase58())
	}
	_, err = pda.Expect(pda.NamespaceMetadata, record, chain.MetadataProgramID,
		pda.CollectionAuthoritySeeds(collectionMint, delegate)...)
	if err != nil {
		return err
	}
	_, err = ReadCollectionAuthorityRecord(mic.Txn, record)
	if err != nil {
		return err
	}
	return mic.Close(record)
}

type VerifyArgs struct {
	Metadata                common.PublicKey
	CollectionMint          common.PublicKey
	CollectionMetadata      common.PublicKey
	CollectionMasterEdition common.PublicKey
	Record                  common.PublicKey
	Delegate                common.PublicKey
	Signer                  common.PublicKey
}

// Verify marks the NFT metadata as a verified member of the collection.
// Verifying again for the same collection succeeds without change.
func Verify(ic *chain.Context, args VerifyArgs) error {
	mic := ic.Invoke(chain.MetadataProgramID)
	if args.Signer != args.Delegate || !mic.IsSigner(args.Signer) {
		return chain.NewError(chain.CodeUnauthorizedDelegate, args.Signer, "signer is not delegate %s", args.Delegate.ToBase58())
	}

	_, err := pda.Expect(pda.NamespaceMetadata, args.CollectionMetadata, chain.MetadataProgramID,
		pda.MetadataSeeds(args.CollectionMint)...)
	if err != nil {
		return err
	}
	_, err = pda.Expect(pda.NamespaceMetadata, args.CollectionMasterEdition, chain.MetadataProgramID,
		pda.MasterEditionSeeds(args.CollectionMint)...)
	if err != nil {
		return err
	}
	for _, addr := range []common.PublicKey{args.CollectionMetadata, args.CollectionMasterEdition} {
		ok, err := exists(mic, addr)
		if err != nil {
			return err
		}
		if !ok {
			return chain.NewError(chain.CodeCollectionNotFound, addr, "collection %s", args.CollectionMint.ToBase58())
		}
	}

	_, err = pda.Expect(pda.NamespaceMetadata, args.Record, chain.MetadataProgramID,
		pda.CollectionAuthoritySeeds(args.CollectionMint, args.Delegate)...)
	if err != nil {
		return err
	}
	ok, err := exists(mic, args.Record)
	if err != nil {
		return err
	}
	if !ok {
		return chain.NewError(chain.CodeUnauthorizedDelegate, args.Delegate, "no delegation for collection %s", args.CollectionMint.ToBase58())
	}
	rec, err := ReadCollectionAuthorityRecord(mic.Txn, args.Record)
	if err != nil {
		return err
	}
	if rec.Mint != args.CollectionMint || rec.Delegate != args.Delegate {
		return chain.NewError(chain.CodeUnauthorizedDelegate, args.Delegate, "delegation record of another collection")
	}

	md, err := ReadMetadata(mic.Txn, args.Metadata)
	if err != nil {
		return err
	}
	if c := md.Collection; c != nil && c.Verified {
		if c.Key == args.CollectionMint {
			return nil
		}
		return chain.NewError(chain.CodeAlreadyVerifiedElsewhere, args.Metadata, "verified for %s", c.Key.ToBase58())
	}
	md.Collection = &Collection{Verified: true, Key: args.CollectionMint}
	data, err := borsh.Serialize(*md)
	if err != nil {
		return err
	}
	return mic.Write(args.Metadata, data)
}

func collectionMetadata(ic *chain.Context, collectionMint common.PublicKey) (*Metadata, error) {
	addr, err := pda.Metadata(collectionMint)
	if err != nil {
		return nil, err
	}
	ok, err := exists(ic, addr.Key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, chain.NewError(chain.CodeCollectionNotFound, addr.Key, "collection %s has no metadata", collectionMint.ToBase58())
	}
	return ReadMetadata(ic.Txn, addr.Key)
}
