package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/nfo-collection/config"
	"github.com/MixinNetwork/nfo-collection/nft"
	"github.com/MixinNetwork/nfo-collection/runtime"
	"github.com/MixinNetwork/nfo-collection/store"
	"github.com/blocto/solana-go-sdk/types"
)

type node struct {
	conf    *config.Configuration
	store   *store.BadgerStore
	runtime *runtime.Runtime
	program *nft.Program
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bp := flag.String("d", "", "database directory path, overrides the configuration")
	cp := flag.String("c", config.DefaultConfigPath, "configuration file path")
	flag.Usage = usage
	flag.Parse()

	conf, err := config.Setup(*cp)
	if err != nil {
		panic(err)
	}
	logger.SetLevel(conf.Log.Level)
	if *bp != "" {
		conf.Ledger.Store = config.ExpandPath(*bp)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	if args[0] == "keygen" {
		err = keygen(conf)
		if err != nil {
			panic(err)
		}
		return
	}

	n, err := openNode(ctx, conf)
	if err != nil {
		panic(err)
	}
	defer n.store.Close()

	switch args[0] {
	case "mint-collection":
		err = n.mintCollection(ctx, args[1:])
	case "mint-nft":
		err = n.mintNFT(ctx, args[1:])
	case "collections":
		err = n.listCollections(ctx, args[1:])
	case "show":
		err = n.show(args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: nfo [-c config] [-d dir] keygen|mint-collection|mint-nft|collections|show\n")
	flag.PrintDefaults()
}

func openNode(ctx context.Context, conf *config.Configuration) (*node, error) {
	id, err := conf.ProgramID()
	if err != nil {
		return nil, err
	}
	db, err := store.OpenBadger(ctx, conf.Ledger.Store)
	if err != nil {
		return nil, err
	}
	rt, err := runtime.New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	program := nft.NewProgram(id)
	nft.Install(rt, program)
	return &node{conf: conf, store: db, runtime: rt, program: program}, nil
}

func keygen(conf *config.Configuration) error {
	acc := types.NewAccount()
	err := config.SaveKeypair(conf.Wallet.Keypair, acc)
	if err != nil {
		return err
	}
	fmt.Printf("wallet %s\nkeypair %s\n", acc.PublicKey.ToBase58(), conf.Wallet.Keypair)
	return nil
}
