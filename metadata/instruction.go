package metadata

import (
	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
)

type Instruction uint8

const (
	InstructionUpdateCollection           Instruction = 15
	InstructionCreateMasterEdition        Instruction = 17
	InstructionVerifyCollection           Instruction = 18
	InstructionApproveCollectionAuthority Instruction = 23
	InstructionRevokeCollectionAuthority  Instruction = 24
	InstructionCreateMetadata             Instruction = 33
)

type createMetadataData struct {
	Name      string
	Symbol    string
	Uri       string
	IsMutable bool
}

func encode(tag Instruction, args any) []byte {
	data := []byte{byte(tag)}
	if args == nil {
		return data
	}
	b, err := borsh.Serialize(args)
	if err != nil {
		panic(err)
	}
	return append(data, b...)
}

type CreateMetadataParam struct {
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

func NewCreateMetadata(param CreateMetadataParam) types.Instruction {
	return types.Instruction{
		ProgramID: chain.MetadataProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Metadata, IsSigner: false, IsWritable: true},
			{PubKey: param.Mint, IsSigner: false, IsWritable: false},
			{PubKey: param.MintAuthority, IsSigner: true, IsWritable: false},
			{PubKey: param.Payer, IsSigner: true, IsWritable: true},
			{PubKey: param.UpdateAuthority, IsSigner: false, IsWritable: false},
		},
		Data: encode(InstructionCreateMetadata, createMetadataData{
			Name:      param.Name,
			Symbol:    param.Symbol,
			Uri:       param.Uri,
			IsMutable: param.IsMutable,
		}),
	}
}

type CreateMasterEditionParam struct {
	Edition         common.PublicKey
	Mint            common.PublicKey
	UpdateAuthority common.PublicKey
	MintAuthority   common.PublicKey
	Payer           common.PublicKey
	Metadata        common.PublicKey
}

func NewCreateMasterEdition(param CreateMasterEditionParam) types.Instruction {
	return types.Instruction{
		ProgramID: chain.MetadataProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Edition, IsSigner: false, IsWritable: true},
			{PubKey: param.Mint, IsSigner: false, IsWritable: true},
			{PubKey: param.UpdateAuthority, IsSigner: true, IsWritable: false},
			{PubKey: param.MintAuthority, IsSigner: true, IsWritable: false},
			{PubKey: param.Payer, IsSigner: true, IsWritable: true},
			{PubKey: param.Metadata, IsSigner: false, IsWritable: false},
		},
		Data: encode(InstructionCreateMasterEdition, nil),
	}
}

type UpdateCollectionParam struct {
	Mint            common.PublicKey
	CollectionMint  common.PublicKey
	UpdateAuthority common.PublicKey
}

func NewUpdateCollection(param UpdateCollectionParam) types.Instruction {
	return types.Instruction{
		ProgramID: chain.MetadataProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Mint, IsSigner: false, IsWritable: false},
			{PubKey: param.CollectionMint, IsSigner: false, IsWritable: false},
			{PubKey: param.UpdateAuthority, IsSigner: true, IsWritable: false},
		},
		Data: encode(InstructionUpdateCollection, nil),
	}
}

type ApproveCollectionAuthorityParam struct {
	Record          common.PublicKey
	Delegate        common.PublicKey
	UpdateAuthority common.PublicKey
	Payer           common.PublicKey
	CollectionMint  common.PublicKey
}

func NewApproveCollectionAuthority(param ApproveCollectionAuthorityParam) types.Instruction {
	return types.Instruction{
		ProgramID: chain.MetadataProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Record, IsSigner: false, IsWritable: true},
			{PubKey: param.Delegate, IsSigner: false, IsWritable: false},
			{PubKey: param.UpdateAuthority, IsSigner: true, IsWritable: false},
			{PubKey: param.Payer, IsSigner: true, IsWritable: true},
			{PubKey: param.CollectionMint, IsSigner: false, IsWritable: false},
		},
		Data: encode(InstructionApproveCollectionAuthority, nil),
	}
}

type RevokeCollectionAuthorityParam struct {
	Record          common.PublicKey
	Delegate        common.PublicKey
	UpdateAuthority common.PublicKey
	CollectionMint  common.PublicKey
}

func NewRevokeCollectionAuthority(param RevokeCollectionAuthorityParam) types.Instruction {
	return types.Instruction{
		ProgramID: chain.MetadataProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Record, IsSigner: false, IsWritable: true},
			{PubKey: param.Delegate, IsSigner: false, IsWritable: false},
			{PubKey: param.UpdateAuthority, IsSigner: true, IsWritable: false},
			{PubKey: param.CollectionMint, IsSigner: false, IsWritable: false},
		},
		Data: encode(InstructionRevokeCollectionAuthority, nil),
	}
}

type VerifyCollectionParam struct {
	Metadata                common.PublicKey
	Signer                  common.PublicKey
	Delegate                common.PublicKey
	CollectionMint          common.PublicKey
	CollectionMetadata      common.PublicKey
	CollectionMasterEdition common.PublicKey
	Record                  common.PublicKey
}

func NewVerifyCollection(param VerifyCollectionParam) types.Instruction {
	return types.Instruction{
		ProgramID: chain.MetadataProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Metadata, IsSigner: false, IsWritable: true},
			{PubKey: param.Signer, IsSigner: true, IsWritable: false},
			{PubKey: param.Delegate, IsSigner: false, IsWritable: false},
			{PubKey: param.CollectionMint, IsSigner: false, IsWritable: false},
			{PubKey: param.CollectionMetadata, IsSigner: false, IsWritable: false},
			{PubKey: param.CollectionMasterEdition, IsSigner: false, IsWritable: false},
			{PubKey: param.Record, IsSigner: false, IsWritable: false},
		},
		Data: encode(InstructionVerifyCollection, nil),
	}
}

// Process executes a top-level metadata program instruction.
func Process(ic *chain.Context, ix types.Instruction) error {
	if len(ix.Data) == 0 {
		return chain.NewError(chain.CodeInvalidInstruction, ix.ProgramID, "empty instruction data")
	}
	tag := Instruction(ix.Data[0])
	logger.Verbosef("metadata.Process(%d) %d accounts\n", tag, len(ix.Accounts))

	switch tag {
	case InstructionCreateMetadata:
		keys, err := chain.Keys(ix, 5)
		if err != nil {
			return err
		}
		var d createMetadataData
		err = borsh.Deserialize(&d, ix.Data[1:])
		if err != nil {
			return chain.NewError(chain.CodeInvalidInstruction, ix.ProgramID, "create metadata args: %v", err)
		}
		return CreateMetadata(ic, CreateMetadataArgs{
			Metadata:        keys[0],
			Mint:            keys[1],
			MintAuthority:   keys[2],
			Payer:           keys[3],
			UpdateAuthority: keys[4],
			Name:            d.Name,
			Symbol:          d.Symbol,
			Uri:             d.Uri,
			IsMutable:       d.IsMutable,
		})
	case InstructionCreateMasterEdition:
		keys, err := chain.Keys(ix, 6)
		if err != nil {
			return err
		}
		return CreateMasterEdition(ic, CreateMasterEditionArgs{
			Edition:         keys[0],
			Mint:            keys[1],
			UpdateAuthority: keys[2],
			MintAuthority:   keys[3],
			Payer:           keys[4],
			Metadata:        keys[5],
		})
	case InstructionUpdateCollection:
		keys, err := chain.Keys(ix, 3)
		if err != nil {
			return err
		}
		return UpdateMetadataCollection(ic, keys[0], keys[1], keys[2])
	case InstructionApproveCollectionAuthority:
		keys, err := chain.Keys(ix, 5)
		if err != nil {
			return err
		}
		return Delegate(ic, DelegateArgs{
			Record:          keys[0],
			Delegate:        keys[1],
			UpdateAuthority: keys[2],
			Payer:           keys[3],
			CollectionMint:  keys[4],
		})
	case InstructionRevokeCollectionAuthority:
		keys, err := chain.Keys(ix, 4)
		if err != nil {
			return err
		}
		return Revoke(ic, keys[0], keys[3], keys[1], keys[2])
	case InstructionVerifyCollection:
		keys, err := chain.Keys(ix, 7)
		if err != nil {
			return err
		}
		return Verify(ic, VerifyArgs{
			Metadata:                keys[0],
			Signer:                  keys[1],
			Delegate:                keys[2],
			CollectionMint:          keys[3],
			CollectionMetadata:      keys[4],
			CollectionMasterEdition: keys[5],
			Record:                  keys[6],
		})
	}
	return chain.NewError(chain.CodeInvalidInstruction, ix.ProgramID, "unknown metadata instruction %d", tag)
}
