package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/common"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/nfo-collection/chain"
	solana "github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const prefixReceipt = "RUNTIME:RECEIPT:"

type Processor interface {
	Process(ic *chain.Context, ix types.Instruction) error
}

type ProcessorFunc func(ic *chain.Context, ix types.Instruction) error

func (f ProcessorFunc) Process(ic *chain.Context, ix types.Instruction) error {
	return f(ic, ix)
}

// Batch is the unit of atomic execution. Signing happens outside the
// runtime, Signers lists the keys whose signatures the submitter verified.
type Batch struct {
	TraceId      string
	Signers      []solana.PublicKey
	Instructions []types.Instruction
	ValidBefore  time.Time
}

type Receipt struct {
	TraceId      string
	CommittedAt  time.Time
	Instructions int
	RentPaid     uint64
	Created      []string
}

func (r *Receipt) RentSOL() decimal.Decimal {
	return decimal.New(int64(r.RentPaid), -9)
}

type InstructionError struct {
	Index   int
	Program solana.PublicKey
	Err     error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction #%d %s: %v", e.Index, e.Program.ToBase58(), e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

type Runtime struct {
	ledger     chain.Ledger
	clock      *Clock
	processors map[solana.PublicKey]Processor
}

func New(ledger chain.Ledger) (*Runtime, error) {
	clock, err := NewClock(ledger)
	if err != nil {
		return nil, errors.Wrap(err, "runtime clock")
	}
	return &Runtime{
		ledger:     ledger,
		clock:      clock,
		processors: make(map[solana.PublicKey]Processor),
	}, nil
}

func (rt *Runtime) Register(program solana.PublicKey, p Processor) {
	rt.processors[program] = p
}

func (rt *Runtime) Ledger() chain.Ledger {
	return rt.ledger
}

// Submit executes every instruction of b in order inside one ledger
// transaction. Either all of them commit together with the receipt, or
// nothing does.
func (rt *Runtime) Submit(ctx context.Context, b *Batch) (*Receipt, error) {
	traceId, err := normalizeTraceId(b.TraceId)
	if err != nil {
		return nil, err
	}
	if len(b.Instructions) == 0 {
		return nil, chain.NewError(chain.CodeInvalidInstruction, solana.PublicKey{}, "empty batch %s", traceId)
	}
	err = rt.checkBatch(b)
	if err != nil {
		return nil, err
	}
	now, err := rt.clock.Now()
	if err != nil {
		return nil, errors.Wrap(err, "runtime clock")
	}
	if !b.ValidBefore.IsZero() && !now.Before(b.ValidBefore) {
		return nil, chain.NewError(chain.CodeBatchExpired, solana.PublicKey{}, "batch %s valid before %s", traceId, b.ValidBefore.Format(time.RFC3339Nano))
	}

	var receipt *Receipt
	err = rt.ledger.Atomic(ctx, func(txn chain.Txn) error {
		key := []byte(prefixReceipt + traceId)
		old, err := txn.Property(key)
		if err != nil {
			return err
		}
		if old != nil {
			return chain.NewError(chain.CodeAlreadyProcessed, solana.PublicKey{}, "batch %s", traceId)
		}

		ic := chain.NewContext(txn, chain.SystemProgramID, b.Signers, now)
		for i, ix := range b.Instructions {
			logger.Verbosef("Runtime.Submit(%s) #%d %s\n", traceId, i, ix.ProgramID.ToBase58())
			err := rt.processors[ix.ProgramID].Process(ic.Invoke(ix.ProgramID), ix)
			if err != nil {
				return &InstructionError{Index: i, Program: ix.ProgramID, Err: err}
			}
		}

		r := &Receipt{
			TraceId:      traceId,
			CommittedAt:  now,
			Instructions: len(b.Instructions),
			RentPaid:     ic.RentPaid(),
		}
		for _, addr := range ic.Created() {
			r.Created = append(r.Created, addr.ToBase58())
		}
		receipt = r
		return txn.SetProperty(key, common.MsgpackMarshalPanic(r))
	})
	if err != nil {
		logger.Verbosef("Runtime.Submit(%s) => %v\n", traceId, err)
		return nil, err
	}
	logger.Printf("Runtime.Submit(%s) committed %d instructions rent %s SOL\n", traceId, receipt.Instructions, receipt.RentSOL())
	return receipt, nil
}

func (rt *Runtime) ReadReceipt(traceId string) (*Receipt, error) {
	val, err := rt.ledger.ReadProperty([]byte(prefixReceipt + traceId))
	if err != nil || val == nil {
		return nil, err
	}
	var r Receipt
	err = common.MsgpackUnmarshal(val, &r)
	if err != nil {
		return nil, errors.Wrapf(err, "decode receipt %s", traceId)
	}
	return &r, nil
}

func (rt *Runtime) checkBatch(b *Batch) error {
	signed := make(map[solana.PublicKey]bool, len(b.Signers))
	for _, s := range b.Signers {
		signed[s] = true
	}
	for i, ix := range b.Instructions {
		if rt.processors[ix.ProgramID] == nil {
			return &InstructionError{Index: i, Program: ix.ProgramID,
				Err: chain.NewError(chain.CodeInvalidInstruction, ix.ProgramID, "unknown program")}
		}
		for _, meta := range ix.Accounts {
			if meta.IsSigner && !signed[meta.PubKey] {
				return &InstructionError{Index: i, Program: ix.ProgramID,
					Err: chain.NewError(chain.CodeMissingSignature, meta.PubKey, "signature required")}
			}
		}
	}
	return nil
}

// TraceId is unique per submission: resubmitting a committed trace id fails
// with AlreadyProcessed instead of executing again.
func normalizeTraceId(traceId string) (string, error) {
	if traceId == "" {
		return uuid.Must(uuid.NewV4()).String(), nil
	}
	id, err := uuid.FromString(traceId)
	if err != nil || id == uuid.Nil {
		return "", chain.NewError(chain.CodeInvalidInstruction, solana.PublicKey{}, "invalid trace id %q", traceId)
	}
	return id.String(), nil
}

// NewTraceId derives a stable trace id from a seed, so a caller can resubmit
// the same logical batch and be told it already committed.
func NewTraceId(seed string) string {
	return uuid.NewV5(uuid.NamespaceOID, seed).String()
}
