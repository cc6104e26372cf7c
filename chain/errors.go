package chain

import (
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
)

// Code is the stable category of a protocol failure. Callers branch on Code
// through errors.Is or CodeOf, never on the message text.
type Code int

const (
	CodeAlreadyInitialized Code = iota + 1
	CodeDerivationMismatch
	CodeDerivationExhausted
	CodeUnauthorized
	CodeUnauthorizedDelegate
	CodeInvalidField
	CodeSupplyExceeded
	CodeMintSupplyNotOne
	CodeCollectionNotFound
	CodeAlreadyVerifiedElsewhere
	CodeInvalidSeeds
	CodeInvalidAccount
	CodeIllegalOwner
	CodeInvalidInstruction
	CodeMissingSignature
	CodeBatchExpired
	CodeAlreadyProcessed
)

var codeNames = map[Code]string{
	CodeAlreadyInitialized:       "AlreadyInitialized",
	CodeDerivationMismatch:       "DerivationMismatch",
	CodeDerivationExhausted:      "DerivationExhausted",
	CodeUnauthorized:             "Unauthorized",
	CodeUnauthorizedDelegate:     "UnauthorizedDelegate",
	CodeInvalidField:             "InvalidField",
	CodeSupplyExceeded:           "SupplyExceeded",
	CodeMintSupplyNotOne:         "MintSupplyNotOne",
	CodeCollectionNotFound:       "CollectionNotFound",
	CodeAlreadyVerifiedElsewhere: "AlreadyVerifiedElsewhere",
	CodeInvalidSeeds:             "InvalidSeeds",
	CodeInvalidAccount:           "InvalidAccount",
	CodeIllegalOwner:             "IllegalOwner",
	CodeInvalidInstruction:       "InvalidInstruction",
	CodeMissingSignature:         "MissingSignature",
	CodeBatchExpired:             "BatchExpired",
	CodeAlreadyProcessed:         "AlreadyProcessed",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Sentinels for errors.Is. They match any *Error with the same Code.
var (
	ErrAlreadyInitialized       = &Error{Code: CodeAlreadyInitialized}
	ErrDerivationMismatch       = &Error{Code: CodeDerivationMismatch}
	ErrDerivationExhausted      = &Error{Code: CodeDerivationExhausted}
	ErrUnauthorized             = &Error{Code: CodeUnauthorized}
	ErrUnauthorizedDelegate     = &Error{Code: CodeUnauthorizedDelegate}
	ErrInvalidField             = &Error{Code: CodeInvalidField}
	ErrSupplyExceeded           = &Error{Code: CodeSupplyExceeded}
	ErrMintSupplyNotOne         = &Error{Code: CodeMintSupplyNotOne}
	ErrCollectionNotFound       = &Error{Code: CodeCollectionNotFound}
	ErrAlreadyVerifiedElsewhere = &Error{Code: CodeAlreadyVerifiedElsewhere}
	ErrInvalidSeeds             = &Error{Code: CodeInvalidSeeds}
	ErrInvalidAccount           = &Error{Code: CodeInvalidAccount}
	ErrIllegalOwner             = &Error{Code: CodeIllegalOwner}
	ErrInvalidInstruction       = &Error{Code: CodeInvalidInstruction}
	ErrMissingSignature         = &Error{Code: CodeMissingSignature}
	ErrBatchExpired             = &Error{Code: CodeBatchExpired}
	ErrAlreadyProcessed         = &Error{Code: CodeAlreadyProcessed}
)

// Error is a protocol failure. Address names the account the violated
// invariant is about, if any.
type Error struct {
	Code    Code
	Address common.PublicKey
	Detail  string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Code.String()
	if e.Address != (common.PublicKey{}) {
		msg = msg + " " + e.Address.ToBase58()
	}
	if e.Detail != "" {
		msg = msg + ": " + e.Detail
	}
	return msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Code == e.Code
}

func NewError(code Code, addr common.PublicKey, format string, args ...any) error {
	return &Error{Code: code, Address: addr, Detail: fmt.Sprintf(format, args...)}
}

// CodeOf returns the Code of the first *Error in err's chain, or 0.
func CodeOf(err error) Code {
	var e *Error
	if !errors.As(err, &e) {
		return 0
	}
	return e.Code
}

// IsRetrySafe reports whether err is what a resubmission of an already
// committed batch observes, so the caller may treat it as success.
func IsRetrySafe(err error) bool {
	switch CodeOf(err) {
	case CodeAlreadyInitialized, CodeAlreadyProcessed:
		return true
	}
	return false
}
