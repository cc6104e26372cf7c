package config

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/pkg/errors"
)

// LoadKeypair reads a solana-keygen style keypair file: a JSON array of the
// 64 secret key bytes.
func LoadKeypair(path string) (types.Account, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return types.Account{}, errors.Wrap(err, "read keypair")
	}
	key, err := DecodeKeypairJSON(data)
	if err != nil {
		return types.Account{}, errors.Wrapf(err, "keypair %s", path)
	}
	return types.AccountFromBytes(key)
}

func SaveKeypair(path string, acc types.Account) error {
	path = ExpandPath(path)
	err := os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return errors.Wrap(err, "keypair directory")
	}
	_, err = os.Stat(path)
	if err == nil {
		return errors.Errorf("keypair %s exists", path)
	}
	return os.WriteFile(path, EncodeKeypairJSON(acc), 0600)
}

func DecodeKeypairJSON(data []byte) ([]byte, error) {
	var ints []int
	err := json.Unmarshal(data, &ints)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal keypair json")
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}
	key := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("secret key byte #%d out of range: %d", i, v)
		}
		key[i] = byte(v)
	}
	return key, nil
}

func EncodeKeypairJSON(acc types.Account) []byte {
	ints := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		panic(err)
	}
	return data
}
