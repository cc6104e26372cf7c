package nft

import (
	"crypto/sha256"

	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

var DefaultProgramID = common.PublicKeyFromString("Hs2iCnCTz9PHpBdqp5Aniah3yShMDnZz9boFEfD9hWRG")

const (
	entryAccountName = "CollectionPdaAccount"

	// creatorOffset is where the creator key starts in an encoded entry,
	// right after the discriminator.
	creatorOffset = 8
)

var entryDiscriminator = accountDiscriminator(entryAccountName)

type CollectionEntry struct {
	Discriminator [8]byte
	Creator       common.PublicKey
	Mint          common.PublicKey
	Bump          uint8
	AuthorityUri  string
}

type ListFilter struct {
	Creator *common.PublicKey
}

func accountDiscriminator(name string) [8]byte {
	return discriminator("account:" + name)
}

func instructionDiscriminator(name string) [8]byte {
	return discriminator("global:" + name)
}

func discriminator(preimage string) [8]byte {
	var d [8]byte
	sum := sha256.Sum256([]byte(preimage))
	copy(d[:], sum[:8])
	return d
}

func ReadEntry(r chain.Reader, program, addr common.PublicKey) (*CollectionEntry, error) {
	acc, err := r.Get(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, chain.NewError(chain.CodeCollectionNotFound, addr, "registry entry not found")
	}
	if acc.Owner != program {
		return nil, chain.NewError(chain.CodeIllegalOwner, addr, "entry owned by %s", acc.Owner.ToBase58())
	}
	return decodeEntry(acc)
}

func decodeEntry(acc *chain.Account) (*CollectionEntry, error) {
	var e CollectionEntry
	err := borsh.Deserialize(&e, acc.Data)
	if err != nil || e.Discriminator != entryDiscriminator {
		return nil, chain.NewError(chain.CodeInvalidAccount, acc.Address, "not a collection entry")
	}
	return &e, nil
}
