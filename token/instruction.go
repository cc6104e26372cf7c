package token

import (
	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

type Instruction uint8

const (
	InstructionCreateMint   Instruction = 0
	InstructionSetAuthority Instruction = 6
	InstructionMintTo       Instruction = 7
)

const InstructionCreateIdempotent Instruction = 1

type CreateMintParam struct {
	Payer         common.PublicKey
	Mint          common.PublicKey
	MintAuthority common.PublicKey
}

func NewCreateMint(param CreateMintParam) types.Instruction {
	return types.Instruction{
		ProgramID: chain.TokenProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Payer, IsSigner: true, IsWritable: true},
			{PubKey: param.Mint, IsSigner: true, IsWritable: true},
			{PubKey: param.MintAuthority, IsSigner: false, IsWritable: false},
		},
		Data: []byte{byte(InstructionCreateMint)},
	}
}

type MintOneParam struct {
	Mint      common.PublicKey
	Holding   common.PublicKey
	Authority common.PublicKey
}

func NewMintOne(param MintOneParam) types.Instruction {
	return types.Instruction{
		ProgramID: chain.TokenProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Mint, IsSigner: false, IsWritable: true},
			{PubKey: param.Holding, IsSigner: false, IsWritable: true},
			{PubKey: param.Authority, IsSigner: true, IsWritable: false},
		},
		Data: []byte{byte(InstructionMintTo)},
	}
}

type SetAuthorityParam struct {
	Mint    common.PublicKey
	Current common.PublicKey
	Next    common.PublicKey
}

func NewSetAuthority(param SetAuthorityParam) types.Instruction {
	return types.Instruction{
		ProgramID: chain.TokenProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Mint, IsSigner: false, IsWritable: true},
			{PubKey: param.Current, IsSigner: true, IsWritable: false},
			{PubKey: param.Next, IsSigner: false, IsWritable: false},
		},
		Data: []byte{byte(InstructionSetAuthority)},
	}
}

type CreateHoldingParam struct {
	Payer   common.PublicKey
	Holding common.PublicKey
	Owner   common.PublicKey
	Mint    common.PublicKey
}

func NewCreateHolding(param CreateHoldingParam) types.Instruction {
	return types.Instruction{
		ProgramID: chain.AssociatedTokenProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Payer, IsSigner: true, IsWritable: true},
			{PubKey: param.Holding, IsSigner: false, IsWritable: true},
			{PubKey: param.Owner, IsSigner: false, IsWritable: false},
			{PubKey: param.Mint, IsSigner: false, IsWritable: false},
		},
		Data: []byte{byte(InstructionCreateIdempotent)},
	}
}

func decodeTag(ix types.Instruction) (Instruction, error) {
	if len(ix.Data) == 0 {
		return 0, chain.NewError(chain.CodeInvalidInstruction, ix.ProgramID, "empty instruction data")
	}
	return Instruction(ix.Data[0]), nil
}

// Process executes a top-level token program instruction.
func Process(ic *chain.Context, ix types.Instruction) error {
	tag, err := decodeTag(ix)
	if err != nil {
		return err
	}
	logger.Verbosef("token.Process(%d) %d accounts\n", tag, len(ix.Accounts))
	switch tag {
	case InstructionCreateMint:
		keys, err := chain.Keys(ix, 3)
		if err != nil {
			return err
		}
		return CreateMint(ic, keys[0], keys[1], keys[2])
	case InstructionMintTo:
		keys, err := chain.Keys(ix, 3)
		if err != nil {
			return err
		}
		return MintOne(ic, keys[0], keys[1], keys[2])
	case InstructionSetAuthority:
		keys, err := chain.Keys(ix, 3)
		if err != nil {
			return err
		}
		return SetAuthority(ic, keys[0], keys[1], keys[2])
	}
	return chain.NewError(chain.CodeInvalidInstruction, ix.ProgramID, "unknown token instruction %d", tag)
}

// ProcessAssociated executes a top-level associated-account instruction.
func ProcessAssociated(ic *chain.Context, ix types.Instruction) error {
	tag, err := decodeTag(ix)
	if err != nil {
		return err
	}
	if tag != InstructionCreateIdempotent {
		return chain.NewError(chain.CodeInvalidInstruction, ix.ProgramID, "unknown associated instruction %d", tag)
	}
	keys, err := chain.Keys(ix, 4)
	if err != nil {
		return err
	}
	return CreateHoldingAccount(ic, keys[0], keys[1], keys[2], keys[3])
}
