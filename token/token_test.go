package token

import (
	"context"
	"errors"
	"testing"

	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/MixinNetwork/nfo-collection/pda"
	"github.com/MixinNetwork/nfo-collection/runtime"
	"github.com/MixinNetwork/nfo-collection/store"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

type harness struct {
	t  *testing.T
	bs *store.BadgerStore
	rt *runtime.Runtime
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	bs, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { bs.Close() })
	rt, err := runtime.New(bs)
	if err != nil {
		t.Fatalf("runtime.New: %v", err)
	}
	rt.Register(chain.TokenProgramID, runtime.ProcessorFunc(Process))
	rt.Register(chain.AssociatedTokenProgramID, runtime.ProcessorFunc(ProcessAssociated))
	return &harness{t: t, bs: bs, rt: rt}
}

func (h *harness) submit(signers []common.PublicKey, ixs ...types.Instruction) error {
	_, err := h.rt.Submit(context.Background(), &runtime.Batch{Signers: signers, Instructions: ixs})
	return err
}

func holdingOf(t *testing.T, owner, mint common.PublicKey) common.PublicKey {
	t.Helper()
	addr, err := pda.AssociatedAccount(owner, mint)
	if err != nil {
		t.Fatalf("AssociatedAccount: %v", err)
	}
	return addr.Key
}

func TestMintOneFlow(t *testing.T) {
	h := newHarness(t)
	payer := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	holding := holdingOf(t, payer, mint)

	err := h.submit([]common.PublicKey{payer, mint},
		NewCreateMint(CreateMintParam{Payer: payer, Mint: mint, MintAuthority: payer}),
		NewCreateHolding(CreateHoldingParam{Payer: payer, Holding: holding, Owner: payer, Mint: mint}),
		NewMintOne(MintOneParam{Mint: mint, Holding: holding, Authority: payer}),
	)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	m, err := ReadMint(h.bs, mint)
	if err != nil {
		t.Fatalf("ReadMint: %v", err)
	}
	if m.Supply != 1 || m.Decimals != 0 || m.MintAuthority == nil || *m.MintAuthority != payer {
		t.Fatalf("mint state: %+v", m)
	}
	hd, err := ReadHolding(h.bs, holding)
	if err != nil {
		t.Fatalf("ReadHolding: %v", err)
	}
	if hd.Amount != 1 || hd.Owner != payer || hd.Mint != mint {
		t.Fatalf("holding state: %+v", hd)
	}

	err = h.submit([]common.PublicKey{payer},
		NewMintOne(MintOneParam{Mint: mint, Holding: holding, Authority: payer}))
	if !errors.Is(err, chain.ErrSupplyExceeded) {
		t.Fatalf("second mint: got %v", err)
	}
}

func TestCreateMintTwice(t *testing.T) {
	h := newHarness(t)
	payer := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	ix := NewCreateMint(CreateMintParam{Payer: payer, Mint: mint, MintAuthority: payer})

	err := h.submit([]common.PublicKey{payer, mint}, ix)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	err = h.submit([]common.PublicKey{payer, mint}, ix)
	if !errors.Is(err, chain.ErrAlreadyInitialized) {
		t.Fatalf("second: got %v", err)
	}
	var ie *runtime.InstructionError
	if !errors.As(err, &ie) || ie.Index != 0 || ie.Program != chain.TokenProgramID {
		t.Fatalf("instruction error detail: %v", err)
	}
	var e *chain.Error
	if !errors.As(err, &e) || e.Address != mint {
		t.Fatalf("error should name the mint: %v", err)
	}
}

func TestCreateHoldingIdempotent(t *testing.T) {
	h := newHarness(t)
	payer := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	holding := holdingOf(t, payer, mint)
	create := NewCreateHolding(CreateHoldingParam{Payer: payer, Holding: holding, Owner: payer, Mint: mint})

	err := h.submit([]common.PublicKey{payer, mint},
		NewCreateMint(CreateMintParam{Payer: payer, Mint: mint, MintAuthority: payer}), create)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before, _ := h.bs.Get(holding)

	err = h.submit([]common.PublicKey{payer}, create)
	if err != nil {
		t.Fatalf("idempotent create: %v", err)
	}
	after, _ := h.bs.Get(holding)
	if string(before.Data) != string(after.Data) || before.Lamports != after.Lamports {
		t.Fatalf("holding changed by idempotent create")
	}

	wrong := types.NewAccount().PublicKey
	err = h.submit([]common.PublicKey{payer},
		NewCreateHolding(CreateHoldingParam{Payer: payer, Holding: wrong, Owner: payer, Mint: mint}))
	if !errors.Is(err, chain.ErrDerivationMismatch) {
		t.Fatalf("wrong holding address: got %v", err)
	}
}

func TestMintOneUnauthorized(t *testing.T) {
	h := newHarness(t)
	payer := types.NewAccount().PublicKey
	intruder := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	holding := holdingOf(t, payer, mint)

	err := h.submit([]common.PublicKey{payer, mint},
		NewCreateMint(CreateMintParam{Payer: payer, Mint: mint, MintAuthority: payer}),
		NewCreateHolding(CreateHoldingParam{Payer: payer, Holding: holding, Owner: payer, Mint: mint}),
	)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	err = h.submit([]common.PublicKey{intruder},
		NewMintOne(MintOneParam{Mint: mint, Holding: holding, Authority: intruder}))
	if !errors.Is(err, chain.ErrUnauthorized) {
		t.Fatalf("intruder mint: got %v", err)
	}
	m, _ := ReadMint(h.bs, mint)
	if m.Supply != 0 {
		t.Fatalf("supply changed by failed mint: %d", m.Supply)
	}
}

func TestMissingSignatures(t *testing.T) {
	h := newHarness(t)
	payer := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey

	err := h.submit([]common.PublicKey{payer},
		NewCreateMint(CreateMintParam{Payer: payer, Mint: mint, MintAuthority: payer}))
	if !errors.Is(err, chain.ErrMissingSignature) {
		t.Fatalf("unsigned mint: got %v", err)
	}
	acc, _ := h.bs.Get(mint)
	if acc != nil {
		t.Fatalf("mint created without signature")
	}
}

func TestSetAuthority(t *testing.T) {
	h := newHarness(t)
	payer := types.NewAccount().PublicKey
	next := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey

	err := h.submit([]common.PublicKey{payer, mint},
		NewCreateMint(CreateMintParam{Payer: payer, Mint: mint, MintAuthority: payer}),
		NewSetAuthority(SetAuthorityParam{Mint: mint, Current: payer, Next: next}),
	)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	m, _ := ReadMint(h.bs, mint)
	if *m.MintAuthority != next || *m.FreezeAuthority != next {
		t.Fatalf("authority not moved: %+v", m)
	}
	err = h.submit([]common.PublicKey{payer},
		NewSetAuthority(SetAuthorityParam{Mint: mint, Current: payer, Next: payer}))
	if !errors.Is(err, chain.ErrUnauthorized) {
		t.Fatalf("stale authority: got %v", err)
	}
}
