package token

import (
	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/MixinNetwork/nfo-collection/pda"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

const (
	KeyUninitialized uint8 = iota
	KeyMint
	KeyHolding
)

type Mint struct {
	Key             uint8
	MintAuthority   *common.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *common.PublicKey
}

type Holding struct {
	Key    uint8
	Mint   common.PublicKey
	Owner  common.PublicKey
	Amount uint64
}

func ReadMint(r chain.Reader, addr common.PublicKey) (*Mint, error) {
	acc, err := r.Get(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, chain.NewError(chain.CodeInvalidAccount, addr, "mint not found")
	}
	if acc.Owner != chain.TokenProgramID {
		return nil, chain.NewError(chain.CodeIllegalOwner, addr, "mint owned by %s", acc.Owner.ToBase58())
	}
	var m Mint
	err = borsh.Deserialize(&m, acc.Data)
	if err != nil || m.Key != KeyMint {
		return nil, chain.NewError(chain.CodeInvalidAccount, addr, "not a mint")
	}
	return &m, nil
}

func ReadHolding(r chain.Reader, addr common.PublicKey) (*Holding, error) {
	acc, err := r.Get(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, chain.NewError(chain.CodeInvalidAccount, addr, "holding account not found")
	}
	if acc.Owner != chain.TokenProgramID {
		return nil, chain.NewError(chain.CodeIllegalOwner, addr, "holding owned by %s", acc.Owner.ToBase58())
	}
	var h Holding
	err = borsh.Deserialize(&h, acc.Data)
	if err != nil || h.Key != KeyHolding {
		return nil, chain.NewError(chain.CodeInvalidAccount, addr, "not a holding account")
	}
	return &h, nil
}

// CreateMint allocates a zero-decimal mint at a keypair address. Both the
// payer and the mint keypair sign.
func CreateMint(ic *chain.Context, payer, mint, mintAuthority common.PublicKey) error {
	if !ic.IsSigner(mint) {
		return chain.NewError(chain.CodeMissingSignature, mint, "mint keypair must sign")
	}
	auth := mintAuthority
	data, err := borsh.Serialize(Mint{
		Key:             KeyMint,
		MintAuthority:   &auth,
		Decimals:        0,
		IsInitialized:   true,
		FreezeAuthority: &auth,
	})
	if err != nil {
		return err
	}
	return ic.Invoke(chain.TokenProgramID).Create(payer, mint, data)
}

// CreateHoldingAccount creates the associated holding account of owner for
// mint. An existing account for the same pair is left untouched.
func CreateHoldingAccount(ic *chain.Context, payer, holding, owner, mint common.PublicKey) error {
	_, err := pda.Expect(pda.NamespaceAssociated, holding, chain.AssociatedTokenProgramID, pda.AssociatedSeeds(owner, mint)...)
	if err != nil {
		return err
	}
	_, err = ReadMint(ic.Txn, mint)
	if err != nil {
		return err
	}

	old, err := ic.Load(holding)
	if err != nil {
		return err
	}
	if old != nil {
		h, err := ReadHolding(ic.Txn, holding)
		if err != nil {
			return err
		}
		if h.Owner != owner || h.Mint != mint {
			return chain.NewError(chain.CodeInvalidAccount, holding, "holding of another owner or mint")
		}
		return nil
	}

	data, err := borsh.Serialize(Holding{
		Key:   KeyHolding,
		Mint:  mint,
		Owner: owner,
	})
	if err != nil {
		return err
	}
	return ic.Invoke(chain.TokenProgramID).Create(payer, holding, data)
}

// MintOne issues the single unit of mint into holding.
func MintOne(ic *chain.Context, mint, holding, authority common.PublicKey) error {
	tic := ic.Invoke(chain.TokenProgramID)
	m, err := ReadMint(tic.Txn, mint)
	if err != nil {
		return err
	}
	if m.Supply >= 1 {
		return chain.NewError(chain.CodeSupplyExceeded, mint, "supply already %d", m.Supply)
	}
	if m.MintAuthority == nil || *m.MintAuthority != authority || !tic.IsSigner(authority) {
		return chain.NewError(chain.CodeUnauthorized, authority, "not the mint authority of %s", mint.ToBase58())
	}
	h, err := ReadHolding(tic.Txn, holding)
	if err != nil {
		return err
	}
	if h.Mint != mint {
		return chain.NewError(chain.CodeInvalidAccount, holding, "holding of mint %s", h.Mint.ToBase58())
	}

	m.Supply, h.Amount = 1, 1
	md, err := borsh.Serialize(*m)
	if err != nil {
		return err
	}
	hd, err := borsh.Serialize(*h)
	if err != nil {
		return err
	}
	err = tic.Write(mint, md)
	if err != nil {
		return err
	}
	return tic.Write(holding, hd)
}

// SetAuthority hands the mint and freeze authorities of mint to next. The
// current mint authority signs.
func SetAuthority(ic *chain.Context, mint, current, next common.PublicKey) error {
	tic := ic.Invoke(chain.TokenProgramID)
	m, err := ReadMint(tic.Txn, mint)
	if err != nil {
		return err
	}
	if m.MintAuthority == nil || *m.MintAuthority != current || !tic.IsSigner(current) {
		return chain.NewError(chain.CodeUnauthorized, current, "not the mint authority of %s", mint.ToBase58())
	}
	n := next
	m.MintAuthority, m.FreezeAuthority = &n, &n
	data, err := borsh.Serialize(*m)
	if err != nil {
		return err
	}
	return tic.Write(mint, data)
}
