package nft

import (
	"context"
	"iter"

	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/MixinNetwork/nfo-collection/metadata"
	"github.com/MixinNetwork/nfo-collection/pda"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

type RegisterArgs struct {
	Entry        common.PublicKey
	Creator      common.PublicKey
	Mint         common.PublicKey
	Bump         uint8
	AuthorityURI string
	Payer        common.PublicKey
}

// Register records a collection under the executing program. The mint must
// already carry its metadata and master edition.
func Register(ic *chain.Context, args RegisterArgs) error {
	if len(args.AuthorityURI) > metadata.MaxURILength {
		return chain.NewError(chain.CodeInvalidField, args.Entry, "authority uri has %d bytes, limit %d", len(args.AuthorityURI), metadata.MaxURILength)
	}
	err := pda.Verify(ic.Program, args.Entry, args.Bump, pda.CollectionSeeds(args.Creator, args.Mint)...)
	if err != nil {
		return err
	}

	for _, derive := range []func(common.PublicKey) (pda.Address, error){pda.Metadata, pda.MasterEdition} {
		addr, err := derive(args.Mint)
		if err != nil {
			return err
		}
		acc, err := ic.Load(addr.Key)
		if err != nil {
			return err
		}
		if acc == nil || acc.Owner != chain.MetadataProgramID {
			return chain.NewError(chain.CodeCollectionNotFound, addr.Key, "mint %s is not a collection", args.Mint.ToBase58())
		}
	}

	data, err := borsh.Serialize(CollectionEntry{
		Discriminator: entryDiscriminator,
		Creator:       args.Creator,
		Mint:          args.Mint,
		Bump:          args.Bump,
		AuthorityUri:  args.AuthorityURI,
	})
	if err != nil {
		return err
	}
	return ic.Create(args.Payer, args.Entry, data)
}

// List enumerates the registry entries of program over one ledger snapshot
// per call. Ranging again restarts the enumeration.
func List(ctx context.Context, ledger chain.Ledger, program common.PublicKey, filter ListFilter) iter.Seq2[*CollectionEntry, error] {
	filters := []chain.Filter{{Offset: 0, Bytes: entryDiscriminator[:]}}
	if filter.Creator != nil {
		filters = append(filters, chain.Filter{Offset: creatorOffset, Bytes: filter.Creator.Bytes()})
	}
	return func(yield func(*CollectionEntry, error) bool) {
		for acc, err := range ledger.Scan(ctx, program, filters) {
			if err != nil {
				yield(nil, err)
				return
			}
			e, err := decodeEntry(acc)
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}
