package chain

import (
	"bytes"
	"context"
	"iter"

	"github.com/blocto/solana-go-sdk/common"
)

var (
	SystemProgramID          = common.SystemProgramID
	TokenProgramID           = common.TokenProgramID
	AssociatedTokenProgramID = common.SPLAssociatedTokenAccountProgramID
	MetadataProgramID        = common.MetaplexTokenMetaProgramID
)

const (
	accountStorageOverhead = 128
	lamportsPerByteYear    = 3480
	exemptionThresholdYear = 2
)

type Account struct {
	Address  common.PublicKey
	Owner    common.PublicKey
	Lamports uint64
	Data     []byte
}

func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

// Reader returns nil, nil for an address that holds no account.
type Reader interface {
	Get(addr common.PublicKey) (*Account, error)
}

// Txn is one atomic batch against the ledger. Reads observe every write made
// earlier in the same Txn; nothing is visible to others until commit.
type Txn interface {
	Reader
	Put(acc *Account) error
	Delete(addr common.PublicKey) error
	Property(key []byte) ([]byte, error)
	SetProperty(key, val []byte) error
}

// Filter matches account data holding Bytes at Offset.
type Filter struct {
	Offset int
	Bytes  []byte
}

func (f Filter) Match(data []byte) bool {
	if f.Offset < 0 || f.Offset+len(f.Bytes) > len(data) {
		return false
	}
	return bytes.Equal(data[f.Offset:f.Offset+len(f.Bytes)], f.Bytes)
}

func MatchAll(data []byte, filters []Filter) bool {
	for _, f := range filters {
		if !f.Match(data) {
			return false
		}
	}
	return true
}

type Ledger interface {
	Reader

	// Atomic runs fn as a single all-or-nothing batch. A non-nil error from
	// fn discards every write of the batch and is returned unchanged.
	Atomic(ctx context.Context, fn func(Txn) error) error

	// Scan enumerates the accounts owned by program whose data matches all
	// filters, over a snapshot taken when the sequence is ranged.
	Scan(ctx context.Context, owner common.PublicKey, filters []Filter) iter.Seq2[*Account, error]

	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)
}

func RentExemptMinimum(size int) uint64 {
	return uint64(accountStorageOverhead+size) * lamportsPerByteYear * exemptionThresholdYear
}
