package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/MixinNetwork/nfo-collection/config"
	"github.com/MixinNetwork/nfo-collection/metadata"
	"github.com/MixinNetwork/nfo-collection/nft"
	"github.com/MixinNetwork/nfo-collection/token"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func (n *node) listCollections(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("collections", flag.ContinueOnError)
	creator := fs.String("creator", "", "only collections of this creator")
	err := fs.Parse(args)
	if err != nil {
		return err
	}
	var filter nft.ListFilter
	if *creator != "" {
		key, err := config.ParsePublicKey(*creator)
		if err != nil {
			return err
		}
		filter.Creator = &key
	}

	count := 0
	for e, err := range nft.List(ctx, n.store, n.program.ID, filter) {
		if err != nil {
			return err
		}
		name := ""
		md, err := metadata.ReadMintMetadata(n.store, e.Mint)
		if err == nil {
			name = md.Name
		}
		fmt.Printf("%s\t%s\t%s\t%s\n", e.Mint.ToBase58(), e.Creator.ToBase58(), name, e.AuthorityUri)
		count++
	}
	fmt.Printf("%d collections\n", count)
	return nil
}

func (n *node) show(args []string) error {
	if len(args) != 1 {
		return errors.New("show requires one address")
	}
	addr, err := config.ParsePublicKey(args[0])
	if err != nil {
		return err
	}
	acc, err := n.store.Get(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		return errors.Errorf("account %s not found", addr.ToBase58())
	}
	fmt.Printf("address %s\nowner %s\nbalance %s SOL\nsize %d\n",
		addr.ToBase58(), acc.Owner.ToBase58(), decimal.New(int64(acc.Lamports), -9), len(acc.Data))

	switch acc.Owner {
	case chain.TokenProgramID:
		return showToken(n.store, addr, acc)
	case chain.MetadataProgramID:
		return showMetadata(n.store, addr, acc)
	case n.program.ID:
		e, err := nft.ReadEntry(n.store, n.program.ID, addr)
		if err != nil {
			return err
		}
		fmt.Printf("collection entry\ncreator %s\nmint %s\nbump %d\nauthority uri %s\n",
			e.Creator.ToBase58(), e.Mint.ToBase58(), e.Bump, e.AuthorityUri)
	}
	return nil
}

func showToken(r chain.Reader, addr common.PublicKey, acc *chain.Account) error {
	if len(acc.Data) == 0 {
		return nil
	}
	switch acc.Data[0] {
	case token.KeyMint:
		m, err := token.ReadMint(r, addr)
		if err != nil {
			return err
		}
		authority := "none"
		if m.MintAuthority != nil {
			authority = m.MintAuthority.ToBase58()
		}
		fmt.Printf("mint\nsupply %d\ndecimals %d\nauthority %s\n", m.Supply, m.Decimals, authority)
	case token.KeyHolding:
		h, err := token.ReadHolding(r, addr)
		if err != nil {
			return err
		}
		fmt.Printf("holding\nmint %s\nowner %s\namount %d\n", h.Mint.ToBase58(), h.Owner.ToBase58(), h.Amount)
	}
	return nil
}

func showMetadata(r chain.Reader, addr common.PublicKey, acc *chain.Account) error {
	if len(acc.Data) == 0 {
		return nil
	}
	switch acc.Data[0] {
	case metadata.KeyMetadataV1:
		md, err := metadata.ReadMetadata(r, addr)
		if err != nil {
			return err
		}
		fmt.Printf("metadata\nmint %s\nname %s\nsymbol %s\nuri %s\nupdate authority %s\n",
			md.Mint.ToBase58(), md.Name, md.Symbol, md.Uri, md.UpdateAuthority.ToBase58())
		if c := md.Collection; c != nil {
			fmt.Printf("collection %s verified %v\n", c.Key.ToBase58(), c.Verified)
		}
	case metadata.KeyMasterEditionV2:
		ed, err := metadata.ReadMasterEdition(r, addr)
		if err != nil {
			return err
		}
		limit := "unlimited"
		if ed.MaxSupply != nil {
			limit = fmt.Sprint(*ed.MaxSupply)
		}
		fmt.Printf("master edition\nsupply %d\nmax supply %s\n", ed.Supply, limit)
	case metadata.KeyCollectionAuthorityRecord:
		rec, err := metadata.ReadCollectionAuthorityRecord(r, addr)
		if err != nil {
			return err
		}
		fmt.Printf("collection authority\nmint %s\ndelegate %s\nupdate authority %s\n",
			rec.Mint.ToBase58(), rec.Delegate.ToBase58(), rec.UpdateAuthority.ToBase58())
	}
	return nil
}
