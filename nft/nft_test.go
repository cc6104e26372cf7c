package nft

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/MixinNetwork/nfo-collection/metadata"
	"github.com/MixinNetwork/nfo-collection/runtime"
	"github.com/MixinNetwork/nfo-collection/store"
	"github.com/MixinNetwork/nfo-collection/token"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

const (
	collectionURI = "https://arweave.net/mF0bbubycS50wu2-WSkZoU2g5scupj0hfzk8eqFEtpA"
	authorityURI  = "https://arweave.net/l0Vjj3rZKQm-FVbCCj2OH15YMWAveUseuCLGkcPE-x0"
	nftURI        = "https://arweave.net/first-nft.json"
)

type harness struct {
	t  *testing.T
	bs *store.BadgerStore
	rt *runtime.Runtime
	p  *Program
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
	p := NewProgram(DefaultProgramID)
	Install(rt, p)
	return &harness{t: t, bs: bs, rt: rt, p: p}
}

func (h *harness) submit(signers []common.PublicKey, ixs ...types.Instruction) (*runtime.Receipt, error) {
	return h.rt.Submit(context.Background(), &runtime.Batch{Signers: signers, Instructions: ixs})
}

func (h *harness) list(filter ListFilter) []*CollectionEntry {
	h.t.Helper()
	var entries []*CollectionEntry
	for e, err := range List(context.Background(), h.bs, h.p.ID, filter) {
		if err != nil {
			h.t.Fatalf("List: %v", err)
		}
		entries = append(entries, e)
	}
	return entries
}

func (h *harness) mintCollection(wallet common.PublicKey, name, symbol string) MintCollectionAccounts {
	h.t.Helper()
	mint := types.NewAccount().PublicKey
	accts, err := h.p.DeriveMintCollection(mint, wallet, wallet)
	if err != nil {
		h.t.Fatalf("DeriveMintCollection: %v", err)
	}
	_, err = h.submit([]common.PublicKey{wallet, mint}, h.p.MintCollection(accts, MintCollectionArgs{
		Name: name, Symbol: symbol, Uri: collectionURI, AuthorityUri: authorityURI,
	}))
	if err != nil {
		h.t.Fatalf("mint collection %s: %v", name, err)
	}
	return accts
}

func (h *harness) mintNFT(wallet, collectionMint common.PublicKey, name string) (SetMetadataAccounts, error) {
	h.t.Helper()
	mint := types.NewAccount().PublicKey
	from, err := h.p.DeriveMintFromCollection(mint, wallet)
	if err != nil {
		h.t.Fatalf("DeriveMintFromCollection: %v", err)
	}
	set, err := h.p.DeriveSetMetadata(mint, wallet, wallet, collectionMint)
	if err != nil {
		h.t.Fatalf("DeriveSetMetadata: %v", err)
	}
	_, err = h.submit([]common.PublicKey{wallet, mint},
		h.p.MintFromCollection(from),
		h.p.SetMetadataAndMasterEdition(set, SetMetadataArgs{Name: name, Uri: nftURI}),
	)
	return set, err
}

func TestDiscriminators(t *testing.T) {
	if entryDiscriminator == discMintCollection || discMintCollection == discSetMetadata || discMintFromCollection == discSetMetadata {
		t.Fatalf("discriminators collide")
	}
	if accountDiscriminator(entryAccountName) != entryDiscriminator {
		t.Fatalf("discriminator not deterministic")
	}
}

func TestMintCollectionAndNFT(t *testing.T) {
	h := newHarness(t)
	wallet := types.NewAccount().PublicKey

	before := len(h.list(ListFilter{}))
	collection := h.mintCollection(wallet, "My First Collection", "MFC")
	entries := h.list(ListFilter{})
	if len(entries) != before+1 {
		t.Fatalf("registry length %d want %d", len(entries), before+1)
	}
	e := entries[0]
	if e.Mint != collection.Mint || e.Creator != wallet || e.AuthorityUri != authorityURI {
		t.Fatalf("entry: %+v", e)
	}
	addr, _ := h.p.CollectionEntryAddress(wallet, collection.Mint)
	if addr.Key != collection.CollectionPda || addr.Bump != e.Bump {
		t.Fatalf("entry address %s/%d", addr.Key, addr.Bump)
	}

	cmd, err := metadata.ReadMetadata(h.bs, collection.Metadata)
	if err != nil {
		t.Fatalf("collection metadata: %v", err)
	}
	if cmd.Name != "My First Collection" || cmd.Symbol != "MFC" || cmd.Uri != collectionURI {
		t.Fatalf("collection metadata: %+v", cmd)
	}
	rec, err := metadata.ReadCollectionAuthorityRecord(h.bs, collection.CollectionAuthorityRecord)
	if err != nil {
		t.Fatalf("authority record: %v", err)
	}
	if rec.Delegate != collection.CollectionPda || rec.UpdateAuthority != wallet {
		t.Fatalf("authority record: %+v", rec)
	}

	nft, err := h.mintNFT(wallet, collection.Mint, "First NFT")
	if err != nil {
		t.Fatalf("mint nft: %v", err)
	}
	md, err := metadata.ReadMetadata(h.bs, nft.Metadata)
	if err != nil {
		t.Fatalf("nft metadata: %v", err)
	}
	if md.Name != "First NFT" || md.Symbol != "MFC" || md.Uri != nftURI {
		t.Fatalf("nft metadata: %+v", md)
	}
	if md.Collection == nil || md.Collection.Key != collection.Mint || !md.Collection.Verified {
		t.Fatalf("nft collection: %+v", md.Collection)
	}
	m, _ := token.ReadMint(h.bs, nft.Mint)
	if m.Supply != 1 || *m.MintAuthority != nft.MasterEdition {
		t.Fatalf("nft mint: %+v", m)
	}
	if n := len(h.list(ListFilter{})); n != 1 {
		t.Fatalf("registry length after nft %d", n)
	}
}

func TestListByCreator(t *testing.T) {
	h := newHarness(t)
	alice := types.NewAccount().PublicKey
	bob := types.NewAccount().PublicKey
	h.mintCollection(alice, "A1", "A")
	h.mintCollection(alice, "A2", "A")
	h.mintCollection(bob, "B1", "B")

	if n := len(h.list(ListFilter{})); n != 3 {
		t.Fatalf("all collections: %d", n)
	}
	for _, c := range []struct {
		creator common.PublicKey
		want    int
	}{{alice, 2}, {bob, 1}, {types.NewAccount().PublicKey, 0}} {
		creator := c.creator
		entries := h.list(ListFilter{Creator: &creator})
		if len(entries) != c.want {
			t.Fatalf("creator %s: %d entries want %d", creator, len(entries), c.want)
		}
		for _, e := range entries {
			if e.Creator != creator {
				t.Fatalf("entry of %s listed for %s", e.Creator, creator)
			}
		}
	}

	seq := List(context.Background(), h.bs, h.p.ID, ListFilter{})
	for range seq {
		break
	}
	n := 0
	for _, err := range seq {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		n++
	}
	if n != 3 {
		t.Fatalf("restarted enumeration: %d", n)
	}
}

func TestMintCollectionDerivationMismatch(t *testing.T) {
	h := newHarness(t)
	wallet := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	accts, err := h.p.DeriveMintCollection(mint, wallet, wallet)
	if err != nil {
		t.Fatalf("DeriveMintCollection: %v", err)
	}
	args := MintCollectionArgs{Name: "C", Symbol: "C", Uri: collectionURI}

	for name, tamper := range map[string]func(*MintCollectionAccounts){
		"metadata":  func(a *MintCollectionAccounts) { a.Metadata = types.NewAccount().PublicKey },
		"edition":   func(a *MintCollectionAccounts) { a.MasterEdition = types.NewAccount().PublicKey },
		"entry":     func(a *MintCollectionAccounts) { a.CollectionPda = types.NewAccount().PublicKey },
		"authority": func(a *MintCollectionAccounts) { a.CollectionAuthorityRecord = types.NewAccount().PublicKey },
		"holding":   func(a *MintCollectionAccounts) { a.TokenAccount = types.NewAccount().PublicKey },
	} {
		bad := accts
		tamper(&bad)
		_, err := h.submit([]common.PublicKey{wallet, mint}, h.p.MintCollection(bad, args))
		if !errors.Is(err, chain.ErrDerivationMismatch) {
			t.Fatalf("%s: got %v", name, err)
		}
	}
	if acc, _ := h.bs.Get(mint); acc != nil {
		t.Fatalf("mint created by a failed batch")
	}
	if n := len(h.list(ListFilter{})); n != 0 {
		t.Fatalf("registry changed by failed batches: %d", n)
	}
}

func TestMintCollectionInvalidField(t *testing.T) {
	h := newHarness(t)
	wallet := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	accts, _ := h.p.DeriveMintCollection(mint, wallet, wallet)

	_, err := h.submit([]common.PublicKey{wallet, mint}, h.p.MintCollection(accts, MintCollectionArgs{
		Name: "a name that is longer than forty bytes!!", Symbol: "C", Uri: collectionURI,
	}))
	if !errors.Is(err, chain.ErrInvalidField) {
		t.Fatalf("long name: got %v", err)
	}
	for _, addr := range []common.PublicKey{accts.Mint, accts.TokenAccount, accts.Metadata, accts.CollectionPda} {
		if acc, _ := h.bs.Get(addr); acc != nil {
			t.Fatalf("account %s created by failed batch", addr)
		}
	}
}

func TestMintNFTForeignCollection(t *testing.T) {
	h := newHarness(t)
	alice := types.NewAccount().PublicKey
	mallory := types.NewAccount().PublicKey
	collection := h.mintCollection(alice, "A", "A")

	_, err := h.mintNFT(mallory, collection.Mint, "stolen")
	if !errors.Is(err, chain.ErrCollectionNotFound) {
		t.Fatalf("mint into foreign collection: got %v", err)
	}

	mint := types.NewAccount().PublicKey
	from, _ := h.p.DeriveMintFromCollection(mint, mallory)
	set, _ := h.p.DeriveSetMetadata(mint, mallory, mallory, collection.Mint)
	set.CollectionPda = collection.CollectionPda
	set.CollectionAuthorityRecord = collection.CollectionAuthorityRecord
	_, err = h.submit([]common.PublicKey{mallory, mint},
		h.p.MintFromCollection(from),
		h.p.SetMetadataAndMasterEdition(set, SetMetadataArgs{Name: "stolen", Uri: nftURI}),
	)
	if !errors.Is(err, chain.ErrDerivationMismatch) {
		t.Fatalf("borrowed collection entry: got %v", err)
	}
	if acc, _ := h.bs.Get(mint); acc != nil {
		t.Fatalf("mint created by a failed batch")
	}
}

func TestMintCollectionRace(t *testing.T) {
	h := newHarness(t)
	wallet := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	accts, err := h.p.DeriveMintCollection(mint, wallet, wallet)
	if err != nil {
		t.Fatalf("DeriveMintCollection: %v", err)
	}
	ix := h.p.MintCollection(accts, MintCollectionArgs{Name: "C", Symbol: "C", Uri: collectionURI})

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.submit([]common.PublicKey{wallet, mint}, ix)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, chain.ErrAlreadyInitialized):
			if !chain.IsRetrySafe(err) {
				t.Fatalf("AlreadyInitialized should be retry safe")
			}
		default:
			t.Fatalf("race: unexpected %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("race: %d batches succeeded", ok)
	}
	if n := len(h.list(ListFilter{})); n != 1 {
		t.Fatalf("registry length %d", n)
	}
}

func TestRegisterRequiresCollection(t *testing.T) {
	h := newHarness(t)
	wallet := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	entry, _ := h.p.CollectionEntryAddress(wallet, mint)

	err := h.bs.Atomic(context.Background(), func(txn chain.Txn) error {
		ic := chain.NewContext(txn, h.p.ID, []common.PublicKey{wallet}, time.Now())
		return Register(ic, RegisterArgs{Entry: entry.Key, Creator: wallet, Mint: mint, Bump: entry.Bump, Payer: wallet})
	})
	if !errors.Is(err, chain.ErrCollectionNotFound) {
		t.Fatalf("register bare mint: got %v", err)
	}

	err = h.bs.Atomic(context.Background(), func(txn chain.Txn) error {
		ic := chain.NewContext(txn, h.p.ID, []common.PublicKey{wallet}, time.Now())
		return Register(ic, RegisterArgs{Entry: entry.Key, Creator: wallet, Mint: mint, Bump: entry.Bump - 1, Payer: wallet})
	})
	if !errors.Is(err, chain.ErrDerivationMismatch) {
		t.Fatalf("register with wrong bump: got %v", err)
	}
}
