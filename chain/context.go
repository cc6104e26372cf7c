package chain

import (
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

type meter struct {
	rent    uint64
	created []common.PublicKey
}

// Context is the view one program invocation has of the batch: the shared
// transaction, the signer set and the program currently executing.
type Context struct {
	Txn     Txn
	Program common.PublicKey
	Now     time.Time

	signers map[common.PublicKey]bool
	meter   *meter
}

func NewContext(txn Txn, program common.PublicKey, signers []common.PublicKey, now time.Time) *Context {
	ic := &Context{
		Txn:     txn,
		Program: program,
		Now:     now,
		signers: make(map[common.PublicKey]bool, len(signers)),
		meter:   &meter{},
	}
	for _, s := range signers {
		ic.signers[s] = true
	}
	return ic
}

func (ic *Context) IsSigner(key common.PublicKey) bool {
	return ic.signers[key]
}

// Invoke returns the context of a cross-program call. Signer privileges of
// the caller carry over to the callee.
func (ic *Context) Invoke(program common.PublicKey) *Context {
	return &Context{
		Txn:     ic.Txn,
		Program: program,
		Now:     ic.Now,
		signers: ic.signers,
		meter:   ic.meter,
	}
}

// InvokeSigned is Invoke with extra signers: the addresses derived from each
// seed list (bump included) under the calling program.
func (ic *Context) InvokeSigned(program common.PublicKey, signerSeeds ...[][]byte) (*Context, error) {
	signers := make(map[common.PublicKey]bool, len(ic.signers)+len(signerSeeds))
	for k, v := range ic.signers {
		signers[k] = v
	}
	for _, seeds := range signerSeeds {
		addr, err := common.CreateProgramAddress(seeds, ic.Program)
		if err != nil {
			return nil, NewError(CodeDerivationMismatch, common.PublicKey{}, "signer seeds: %v", err)
		}
		signers[addr] = true
	}
	return &Context{
		Txn:     ic.Txn,
		Program: program,
		Now:     ic.Now,
		signers: signers,
		meter:   ic.meter,
	}, nil
}

// Load returns the account at addr or nil when absent.
func (ic *Context) Load(addr common.PublicKey) (*Account, error) {
	return ic.Txn.Get(addr)
}

// LoadOwned is Load for accounts that must exist and belong to owner.
func (ic *Context) LoadOwned(addr, owner common.PublicKey) (*Account, error) {
	acc, err := ic.Txn.Get(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, NewError(CodeInvalidAccount, addr, "account not found")
	}
	if acc.Owner != owner {
		return nil, NewError(CodeIllegalOwner, addr, "owned by %s not %s", acc.Owner.ToBase58(), owner.ToBase58())
	}
	return acc, nil
}

// Create allocates addr for the executing program with a rent-exempt
// balance funded by payer.
func (ic *Context) Create(payer, addr common.PublicKey, data []byte) error {
	if !ic.IsSigner(payer) {
		return NewError(CodeMissingSignature, payer, "payer must sign")
	}
	old, err := ic.Txn.Get(addr)
	if err != nil {
		return err
	}
	if old != nil {
		return NewError(CodeAlreadyInitialized, addr, "account owned by %s", old.Owner.ToBase58())
	}
	acc := &Account{
		Address:  addr,
		Owner:    ic.Program,
		Lamports: RentExemptMinimum(len(data)),
		Data:     data,
	}
	err = ic.Txn.Put(acc)
	if err != nil {
		return err
	}
	ic.meter.rent += acc.Lamports
	ic.meter.created = append(ic.meter.created, addr)
	return nil
}

// Write replaces the data of an account the executing program owns.
func (ic *Context) Write(addr common.PublicKey, data []byte) error {
	acc, err := ic.LoadOwned(addr, ic.Program)
	if err != nil {
		return err
	}
	acc.Data = data
	return ic.Txn.Put(acc)
}

// Close deletes an account the executing program owns.
func (ic *Context) Close(addr common.PublicKey) error {
	_, err := ic.LoadOwned(addr, ic.Program)
	if err != nil {
		return err
	}
	return ic.Txn.Delete(addr)
}

func (ic *Context) RentPaid() uint64 {
	return ic.meter.rent
}

func (ic *Context) Created() []common.PublicKey {
	return append([]common.PublicKey(nil), ic.meter.created...)
}

// Keys returns the first n keys of the instruction's account list.
func Keys(ix types.Instruction, n int) ([]common.PublicKey, error) {
	if len(ix.Accounts) < n {
		return nil, NewError(CodeInvalidInstruction, ix.ProgramID, "want %d accounts got %d", n, len(ix.Accounts))
	}
	keys := make([]common.PublicKey, n)
	for i := range keys {
		keys[i] = ix.Accounts[i].PubKey
	}
	return keys, nil
}
