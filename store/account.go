package store

import (
	"context"
	"iter"

	"github.com/MixinNetwork/mixin/common"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/nfo-collection/chain"
	solana "github.com/blocto/solana-go-sdk/common"
	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
)

const (
	prefixAccountPayload = "LEDGER:ACCOUNT:PAYLOAD:"
	prefixAccountOwner   = "LEDGER:ACCOUNT:OWNER:"

	maxConflictReplays = 16
)

type accountPayload struct {
	Owner    []byte
	Lamports uint64
	Data     []byte
}

// Atomic commits fn as one badger transaction. A batch that loses a write
// conflict is replayed against the state its winner committed.
func (bs *BadgerStore) Atomic(ctx context.Context, fn func(chain.Txn) error) error {
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := bs.db.Update(func(txn *badger.Txn) error {
			return fn(&badgerTxn{txn: txn})
		})
		if err == badger.ErrConflict && i < maxConflictReplays {
			logger.Verbosef("BadgerStore.Atomic conflict replay %d\n", i+1)
			continue
		}
		if err == badger.ErrConflict || err == badger.ErrTxnTooBig {
			return errors.Wrap(err, "ledger commit")
		}
		return err
	}
}

func (bs *BadgerStore) Get(addr solana.PublicKey) (*chain.Account, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return readAccount(txn, addr)
}

func (bs *BadgerStore) Scan(ctx context.Context, owner solana.PublicKey, filters []chain.Filter) iter.Seq2[*chain.Account, error] {
	return func(yield func(*chain.Account, error) bool) {
		txn := bs.db.NewTransaction(false)
		defer txn.Discard()

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = ownerIndexPrefix(owner)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			key := it.Item().Key()
			addr := solana.PublicKeyFromBytes(key[len(opts.Prefix):])
			acc, err := readAccount(txn, addr)
			if err != nil {
				yield(nil, errors.Wrapf(err, "scan %s", addr.ToBase58()))
				return
			}
			if acc == nil || !chain.MatchAll(acc.Data, filters) {
				continue
			}
			if !yield(acc, nil) {
				return
			}
		}
	}
}

type badgerTxn struct {
	txn *badger.Txn
}

func (bt *badgerTxn) Get(addr solana.PublicKey) (*chain.Account, error) {
	return readAccount(bt.txn, addr)
}

func (bt *badgerTxn) Put(acc *chain.Account) error {
	old, err := readAccount(bt.txn, acc.Address)
	if err != nil {
		return err
	}
	if old != nil && old.Owner != acc.Owner {
		err = bt.txn.Delete(ownerIndexKey(old.Owner, old.Address))
		if err != nil {
			return err
		}
	}
	val := common.MsgpackMarshalPanic(&accountPayload{
		Owner:    acc.Owner.Bytes(),
		Lamports: acc.Lamports,
		Data:     acc.Data,
	})
	err = bt.txn.Set(accountKey(acc.Address), val)
	if err != nil {
		return err
	}
	return bt.txn.Set(ownerIndexKey(acc.Owner, acc.Address), []byte{1})
}

func (bt *badgerTxn) Delete(addr solana.PublicKey) error {
	old, err := readAccount(bt.txn, addr)
	if err != nil || old == nil {
		return err
	}
	err = bt.txn.Delete(ownerIndexKey(old.Owner, addr))
	if err != nil {
		return err
	}
	return bt.txn.Delete(accountKey(addr))
}

func (bt *badgerTxn) Property(key []byte) ([]byte, error) {
	return readProperty(bt.txn, key)
}

func (bt *badgerTxn) SetProperty(key, val []byte) error {
	return bt.txn.Set(propertyKey(key), val)
}

func readAccount(txn *badger.Txn, addr solana.PublicKey) (*chain.Account, error) {
	item, err := txn.Get(accountKey(addr))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var p accountPayload
	err = common.MsgpackUnmarshal(val, &p)
	if err != nil {
		return nil, errors.Wrapf(err, "decode account %s", addr.ToBase58())
	}
	return &chain.Account{
		Address:  addr,
		Owner:    solana.PublicKeyFromBytes(p.Owner),
		Lamports: p.Lamports,
		Data:     p.Data,
	}, nil
}

func accountKey(addr solana.PublicKey) []byte {
	return append([]byte(prefixAccountPayload), addr.Bytes()...)
}

func ownerIndexPrefix(owner solana.PublicKey) []byte {
	return append([]byte(prefixAccountOwner), owner.Bytes()...)
}

func ownerIndexKey(owner, addr solana.PublicKey) []byte {
	return append(ownerIndexPrefix(owner), addr.Bytes()...)
}
