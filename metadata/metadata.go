package metadata

import (
	"unicode/utf8"

	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/MixinNetwork/nfo-collection/pda"
	"github.com/MixinNetwork/nfo-collection/token"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

const (
	KeyMasterEditionV2           uint8 = 6
	KeyMetadataV1                uint8 = 4
	KeyCollectionAuthorityRecord uint8 = 9
)

const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
)

type Collection struct {
	Verified bool
	Key      common.PublicKey
}

type Metadata struct {
	Key             uint8
	UpdateAuthority common.PublicKey
	Mint            common.PublicKey
	Name            string
	Symbol          string
	Uri             string
	IsMutable       bool
	Collection      *Collection
}

type MasterEdition struct {
	Key       uint8
	Supply    uint64
	MaxSupply *uint64
}

func ReadMetadata(r chain.Reader, addr common.PublicKey) (*Metadata, error) {
	var md Metadata
	err := readRecord(r, addr, &md)
	if err != nil {
		return nil, err
	}
	if md.Key != KeyMetadataV1 {
		return nil, chain.NewError(chain.CodeInvalidAccount, addr, "not a metadata record")
	}
	return &md, nil
}

func ReadMasterEdition(r chain.Reader, addr common.PublicKey) (*MasterEdition, error) {
	var ed MasterEdition
	err := readRecord(r, addr, &ed)
	if err != nil {
		return nil, err
	}
	if ed.Key != KeyMasterEditionV2 {
		return nil, chain.NewError(chain.CodeInvalidAccount, addr, "not a master edition")
	}
	return &ed, nil
}

// ReadMintMetadata loads the metadata record derived from mint.
func ReadMintMetadata(r chain.Reader, mint common.PublicKey) (*Metadata, error) {
	addr, err := pda.Metadata(mint)
	if err != nil {
		return nil, err
	}
	return ReadMetadata(r, addr.Key)
}

func readRecord(r chain.Reader, addr common.PublicKey, v any) error {
	acc, err := r.Get(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		return chain.NewError(chain.CodeInvalidAccount, addr, "record not found")
	}
	if acc.Owner != chain.MetadataProgramID {
		return chain.NewError(chain.CodeIllegalOwner, addr, "record owned by %s", acc.Owner.ToBase58())
	}
	err = borsh.Deserialize(v, acc.Data)
	if err != nil {
		return chain.NewError(chain.CodeInvalidAccount, addr, "decode: %v", err)
	}
	return nil
}

func exists(ic *chain.Context, addr common.PublicKey) (bool, error) {
	acc, err := ic.Load(addr)
	if err != nil {
		return false, err
	}
	return acc != nil && acc.Owner == chain.MetadataProgramID, nil
}

func checkField(addr common.PublicKey, name, val string, max int) error {
	if len(val) > max {
		return chain.NewError(chain.CodeInvalidField, addr, "%s has %d bytes, limit %d", name, len(val), max)
	}
	if !utf8.ValidString(val) {
		return chain.NewError(chain.CodeInvalidField, addr, "%s is not valid utf-8", name)
	}
	return nil
}

type CreateMetadataArgs struct {
	Metadata        common.PublicKey
	Mint            common.PublicKey
	MintAuthority   common.PublicKey
	Payer           common.PublicKey
	UpdateAuthority common.PublicKey
	Name            string
	Symbol          string
	Uri             string
	IsMutable       bool
}

func CreateMetadata(ic *chain.Context, args CreateMetadataArgs) error {
	mic := ic.Invoke(chain.MetadataProgramID)
	for _, f := range []struct {
		name string
		val  string
		max  int
	}{
		{"name", args.Name, MaxNameLength},
		{"symbol", args.Symbol, MaxSymbolLength},
		{"uri", args.Uri, MaxURILength},
	} {
		err := checkField(args.Metadata, f.name, f.val, f.max)
		if err != nil {
			return err
		}
	}
	_, err := pda.Expect(pda.NamespaceMetadata, args.Metadata, chain.MetadataProgramID, pda.MetadataSeeds(args.Mint)...)
	if err != nil {
		return err
	}
	m, err := token.ReadMint(mic.Txn, args.Mint)
	if err != nil {
		return err
	}
	if m.MintAuthority == nil || *m.MintAuthority != args.MintAuthority || !mic.IsSigner(args.MintAuthority) {
		return chain.NewError(chain.CodeUnauthorized, args.MintAuthority, "not the mint authority of %s", args.Mint.ToBase58())
	}

	data, err := borsh.Serialize(Metadata{
		Key:             KeyMetadataV1,
		UpdateAuthority: args.UpdateAuthority,
		Mint:            args.Mint,
		Name:            args.Name,
		Symbol:          args.Symbol,
		Uri:             args.Uri,
		IsMutable:       args.IsMutable,
	})
	if err != nil {
		return err
	}
	return mic.Create(args.Payer, args.Metadata, data)
}

type CreateMasterEditionArgs struct {
	Edition         common.PublicKey
	Metadata        common.PublicKey
	Mint            common.PublicKey
	UpdateAuthority common.PublicKey
	MintAuthority   common.PublicKey
	Payer           common.PublicKey
}

// CreateMasterEdition fixes the mint as unique. The mint authority moves to
// the edition address, which no key can sign for, so supply can never grow.
func CreateMasterEdition(ic *chain.Context, args CreateMasterEditionArgs) error {
	mic := ic.Invoke(chain.MetadataProgramID)
	_, err := pda.Expect(pda.NamespaceMetadata, args.Edition, chain.MetadataProgramID, pda.MasterEditionSeeds(args.Mint)...)
	if err != nil {
		return err
	}
	_, err = pda.Expect(pda.NamespaceMetadata, args.Metadata, chain.MetadataProgramID, pda.MetadataSeeds(args.Mint)...)
	if err != nil {
		return err
	}
	md, err := ReadMetadata(mic.Txn, args.Metadata)
	if err != nil {
		return err
	}
	if md.UpdateAuthority != args.UpdateAuthority || !mic.IsSigner(args.UpdateAuthority) {
		return chain.NewError(chain.CodeUnauthorized, args.UpdateAuthority, "not the update authority of %s", args.Mint.ToBase58())
	}
	m, err := token.ReadMint(mic.Txn, args.Mint)
	if err != nil {
		return err
	}
	if m.Supply != 1 {
		return chain.NewError(chain.CodeMintSupplyNotOne, args.Mint, "supply is %d", m.Supply)
	}

	zero := uint64(0)
	data, err := borsh.Serialize(MasterEdition{
		Key:       KeyMasterEditionV2,
		Supply:    0,
		MaxSupply: &zero,
	})
	if err != nil {
		return err
	}
	err = mic.Create(args.Payer, args.Edition, data)
	if err != nil {
		return err
	}
	return token.SetAuthority(mic, args.Mint, args.MintAuthority, args.Edition)
}

// UpdateMetadataCollection points the metadata of mint at collectionMint,
// unverified until the collection's delegate attests it.
func UpdateMetadataCollection(ic *chain.Context, mint, collectionMint, caller common.PublicKey) error {
	mic := ic.Invoke(chain.MetadataProgramID)
	addr, err := pda.Metadata(mint)
	if err != nil {
		return err
	}
	md, err := ReadMetadata(mic.Txn, addr.Key)
	if err != nil {
		return err
	}
	if md.UpdateAuthority != caller || !mic.IsSigner(caller) {
		return chain.NewError(chain.CodeUnauthorized, caller, "not the update authority of %s", mint.ToBase58())
	}
	if !md.IsMutable {
		return chain.NewError(chain.CodeUnauthorized, addr.Key, "metadata is immutable")
	}
	md.Collection = &Collection{Verified: false, Key: collectionMint}
	data, err := borsh.Serialize(*md)
	if err != nil {
		return err
	}
	return mic.Write(addr.Key, data)
}
