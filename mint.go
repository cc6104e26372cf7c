package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/MixinNetwork/nfo-collection/config"
	"github.com/MixinNetwork/nfo-collection/nft"
	"github.com/MixinNetwork/nfo-collection/runtime"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/pkg/errors"
)

func (n *node) mintCollection(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mint-collection", flag.ContinueOnError)
	name := fs.String("name", "", "collection name")
	symbol := fs.String("symbol", "", "collection symbol")
	uri := fs.String("uri", "", "collection metadata uri")
	authorityURI := fs.String("authority-uri", "", "collection authority uri")
	err := fs.Parse(args)
	if err != nil {
		return err
	}
	if *name == "" || *symbol == "" || *uri == "" {
		return errors.New("mint-collection requires -name, -symbol and -uri")
	}

	wallet, err := config.LoadKeypair(n.conf.Wallet.Keypair)
	if err != nil {
		return err
	}
	mint := types.NewAccount()
	accts, err := n.program.DeriveMintCollection(mint.PublicKey, wallet.PublicKey, wallet.PublicKey)
	if err != nil {
		return err
	}
	r, err := n.runtime.Submit(ctx, &runtime.Batch{
		TraceId: runtime.NewTraceId("mint-collection:" + mint.PublicKey.ToBase58()),
		Signers: []common.PublicKey{wallet.PublicKey, mint.PublicKey},
		Instructions: []types.Instruction{
			n.program.MintCollection(accts, nft.MintCollectionArgs{
				Name:         *name,
				Symbol:       *symbol,
				Uri:          *uri,
				AuthorityUri: *authorityURI,
			}),
		},
	})
	if err != nil {
		return err
	}
	fmt.Printf("collection %s\nentry %s\nmetadata %s\nedition %s\n",
		accts.Mint.ToBase58(), accts.CollectionPda.ToBase58(), accts.Metadata.ToBase58(), accts.MasterEdition.ToBase58())
	printReceipt(r)
	return nil
}

func (n *node) mintNFT(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mint-nft", flag.ContinueOnError)
	collection := fs.String("collection", "", "collection mint address")
	name := fs.String("name", "", "nft name")
	uri := fs.String("uri", "", "nft metadata uri")
	err := fs.Parse(args)
	if err != nil {
		return err
	}
	collectionMint, err := config.ParsePublicKey(*collection)
	if err != nil {
		return err
	}
	if *name == "" || *uri == "" {
		return errors.New("mint-nft requires -name and -uri")
	}

	wallet, err := config.LoadKeypair(n.conf.Wallet.Keypair)
	if err != nil {
		return err
	}
	mint := types.NewAccount()
	from, err := n.program.DeriveMintFromCollection(mint.PublicKey, wallet.PublicKey)
	if err != nil {
		return err
	}
	set, err := n.program.DeriveSetMetadata(mint.PublicKey, wallet.PublicKey, wallet.PublicKey, collectionMint)
	if err != nil {
		return err
	}
	r, err := n.runtime.Submit(ctx, &runtime.Batch{
		TraceId: runtime.NewTraceId("mint-nft:" + mint.PublicKey.ToBase58()),
		Signers: []common.PublicKey{wallet.PublicKey, mint.PublicKey},
		Instructions: []types.Instruction{
			n.program.MintFromCollection(from),
			n.program.SetMetadataAndMasterEdition(set, nft.SetMetadataArgs{Name: *name, Uri: *uri}),
		},
	})
	if err != nil {
		return err
	}
	fmt.Printf("nft %s\ncollection %s\nmetadata %s\n", set.Mint.ToBase58(), collectionMint.ToBase58(), set.Metadata.ToBase58())
	printReceipt(r)
	return nil
}

func printReceipt(r *runtime.Receipt) {
	fmt.Printf("trace %s\nrent %s SOL for %d accounts\n", r.TraceId, r.RentSOL(), len(r.Created))
}
