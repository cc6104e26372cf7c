package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MixinNetwork/nfo-collection/nft"
	"github.com/blocto/solana-go-sdk/types"
)

func TestSetup(t *testing.T) {
	dir := t.TempDir()

	conf, err := Setup(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("Setup missing: %v", err)
	}
	id, err := conf.ProgramID()
	if err != nil || id != nft.DefaultProgramID {
		t.Fatalf("default program %s %v", id, err)
	}

	program := types.NewAccount().PublicKey
	path := filepath.Join(dir, "config.toml")
	data := "[ledger]\nprogram-id = \"" + program.ToBase58() + "\"\nstore = \"" + dir + "/data\"\n\n[log]\nlevel = 3\n"
	err = os.WriteFile(path, []byte(data), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	conf, err = Setup(path)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	id, _ = conf.ProgramID()
	if id != program || conf.Ledger.Store != dir+"/data" || conf.Log.Level != 3 || conf.Wallet.Keypair == "" {
		t.Fatalf("configuration: %+v", conf)
	}

	enc, err := conf.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	err = os.WriteFile(path, enc, 0600)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	again, err := Setup(path)
	if err != nil || *again != *conf {
		t.Fatalf("encoded configuration %+v %v", again, err)
	}

	err = os.WriteFile(path, []byte("[ledger]\nprogram-id = \"0OIl\"\n"), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err = Setup(path)
	if err == nil {
		t.Fatalf("invalid program id accepted")
	}
}

func TestParsePublicKey(t *testing.T) {
	acc := types.NewAccount()
	key, err := ParsePublicKey(" " + acc.PublicKey.ToBase58() + "\n")
	if err != nil || key != acc.PublicKey {
		t.Fatalf("ParsePublicKey: %s %v", key, err)
	}
	for _, s := range []string{"", "abc", "0OIl", acc.PublicKey.ToBase58() + "1111"} {
		_, err := ParsePublicKey(s)
		if err == nil {
			t.Fatalf("ParsePublicKey(%q) accepted", s)
		}
	}
}

func TestKeypair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet", "id.json")
	acc := types.NewAccount()
	err := SaveKeypair(path, acc)
	if err != nil {
		t.Fatalf("SaveKeypair: %v", err)
	}
	err = SaveKeypair(path, types.NewAccount())
	if err == nil {
		t.Fatalf("keypair overwritten")
	}
	loaded, err := LoadKeypair(path)
	if err != nil {
		t.Fatalf("LoadKeypair: %v", err)
	}
	if loaded.PublicKey != acc.PublicKey {
		t.Fatalf("loaded %s want %s", loaded.PublicKey, acc.PublicKey)
	}

	for _, data := range []string{"{}", "[1,2,3]", "not json"} {
		_, err := DecodeKeypairJSON([]byte(data))
		if err == nil {
			t.Fatalf("DecodeKeypairJSON(%q) accepted", data)
		}
	}
}

func TestExpandPath(t *testing.T) {
	if p := ExpandPath("/tmp/x"); p != "/tmp/x" {
		t.Fatalf("absolute path changed: %s", p)
	}
	if p := ExpandPath("~/x"); p == "~/x" || filepath.Base(p) != "x" {
		t.Fatalf("home path not expanded: %s", p)
	}
}
