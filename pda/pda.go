// Package pda derives program addresses: hashed from a seed tuple, a bump and
// the owning program, and guaranteed off the ed25519 curve so no private key
// exists for them. Derivation is a pure function of its inputs.
package pda

import (
	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/blocto/solana-go-sdk/common"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

type Namespace string

const (
	NamespaceAssociated Namespace = "associated-account"
	NamespaceMetadata   Namespace = "metadata"
	NamespaceCollection Namespace = "collection"
)

var (
	seedMetadata            = []byte("metadata")
	seedEdition             = []byte("edition")
	seedCollectionAuthority = []byte("collection_authority")
	seedCollection          = []byte("collection")
)

type Address struct {
	Key  common.PublicKey
	Bump uint8
}

// Find returns the address for the highest bump that lands off the curve.
func Find(program common.PublicKey, seeds ...[]byte) (Address, error) {
	err := checkSeeds(seeds)
	if err != nil {
		return Address{}, err
	}
	buf := make([][]byte, len(seeds)+1)
	copy(buf, seeds)
	for bump := 255; bump >= 0; bump-- {
		buf[len(seeds)] = []byte{uint8(bump)}
		key, err := common.CreateProgramAddress(buf, program)
		if err == nil {
			return Address{Key: key, Bump: uint8(bump)}, nil
		}
	}
	return Address{}, chain.NewError(chain.CodeDerivationExhausted, program, "no off-curve bump for %d seeds", len(seeds))
}

// Create computes the address for one given bump.
func Create(program common.PublicKey, bump uint8, seeds ...[]byte) (common.PublicKey, error) {
	err := checkSeeds(seeds)
	if err != nil {
		return common.PublicKey{}, err
	}
	buf := append(append([][]byte{}, seeds...), []byte{bump})
	key, err := common.CreateProgramAddress(buf, program)
	if err != nil {
		return common.PublicKey{}, chain.NewError(chain.CodeDerivationMismatch, program, "bump %d on curve", bump)
	}
	return key, nil
}

// Verify recomputes addr from a stored bump.
func Verify(program, addr common.PublicKey, bump uint8, seeds ...[]byte) error {
	key, err := Create(program, bump, seeds...)
	if err != nil {
		return err
	}
	if key != addr {
		return chain.NewError(chain.CodeDerivationMismatch, addr, "bump %d derives %s", bump, key.ToBase58())
	}
	return nil
}

// Expect derives the address and fails unless it equals got.
func Expect(ns Namespace, got common.PublicKey, program common.PublicKey, seeds ...[]byte) (Address, error) {
	addr, err := Find(program, seeds...)
	if err != nil {
		return Address{}, err
	}
	if addr.Key != got {
		return Address{}, chain.NewError(chain.CodeDerivationMismatch, got, "%s address want %s", ns, addr.Key.ToBase58())
	}
	return addr, nil
}

func checkSeeds(seeds [][]byte) error {
	if len(seeds)+1 > MaxSeeds {
		return chain.NewError(chain.CodeInvalidSeeds, common.PublicKey{}, "%d seeds exceed %d", len(seeds), MaxSeeds-1)
	}
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return chain.NewError(chain.CodeInvalidSeeds, common.PublicKey{}, "seed #%d has %d bytes", i, len(s))
		}
	}
	return nil
}

func AssociatedSeeds(owner, mint common.PublicKey) [][]byte {
	return [][]byte{owner.Bytes(), chain.TokenProgramID.Bytes(), mint.Bytes()}
}

func MetadataSeeds(mint common.PublicKey) [][]byte {
	return [][]byte{seedMetadata, chain.MetadataProgramID.Bytes(), mint.Bytes()}
}

func MasterEditionSeeds(mint common.PublicKey) [][]byte {
	return append(MetadataSeeds(mint), seedEdition)
}

func CollectionAuthoritySeeds(mint, delegate common.PublicKey) [][]byte {
	return append(MetadataSeeds(mint), seedCollectionAuthority, delegate.Bytes())
}

func CollectionSeeds(creator, mint common.PublicKey) [][]byte {
	return [][]byte{seedCollection, creator.Bytes(), mint.Bytes()}
}

func AssociatedAccount(owner, mint common.PublicKey) (Address, error) {
	return Find(chain.AssociatedTokenProgramID, AssociatedSeeds(owner, mint)...)
}

func Metadata(mint common.PublicKey) (Address, error) {
	return Find(chain.MetadataProgramID, MetadataSeeds(mint)...)
}

func MasterEdition(mint common.PublicKey) (Address, error) {
	return Find(chain.MetadataProgramID, MasterEditionSeeds(mint)...)
}

func CollectionAuthority(mint, delegate common.PublicKey) (Address, error) {
	return Find(chain.MetadataProgramID, CollectionAuthoritySeeds(mint, delegate)...)
}

func Collection(program, creator, mint common.PublicKey) (Address, error) {
	return Find(program, CollectionSeeds(creator, mint)...)
}
