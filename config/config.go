package config

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/MixinNetwork/nfo-collection/nft"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

const (
	DefaultConfigPath  = "~/.mixin/nfo/config.toml"
	DefaultStorePath   = "~/.mixin/nfo/data"
	DefaultKeypairPath = "~/.mixin/nfo/id.json"
	DefaultLogLevel    = 2
)

type LedgerConfiguration struct {
	ProgramId string `toml:"program-id"`
	Store     string `toml:"store"`
}

type WalletConfiguration struct {
	Keypair string `toml:"keypair"`
}

type LogConfiguration struct {
	Level int `toml:"level"`
}

type Configuration struct {
	Ledger LedgerConfiguration `toml:"ledger"`
	Wallet WalletConfiguration `toml:"wallet"`
	Log    LogConfiguration    `toml:"log"`
}

func Default() *Configuration {
	return &Configuration{
		Ledger: LedgerConfiguration{
			ProgramId: nft.DefaultProgramID.ToBase58(),
			Store:     DefaultStorePath,
		},
		Wallet: WalletConfiguration{Keypair: DefaultKeypairPath},
		Log:    LogConfiguration{Level: DefaultLogLevel},
	}
}

// Setup reads the TOML file at path over the defaults. A missing file
// leaves the defaults in place.
func Setup(path string) (*Configuration, error) {
	conf := Default()
	path = ExpandPath(path)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return conf, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "read configuration")
	}
	err = toml.Unmarshal(data, conf)
	if err != nil {
		return nil, errors.Wrapf(err, "parse configuration %s", path)
	}
	_, err = conf.ProgramID()
	if err != nil {
		return nil, err
	}
	conf.Ledger.Store = ExpandPath(conf.Ledger.Store)
	conf.Wallet.Keypair = ExpandPath(conf.Wallet.Keypair)
	return conf, nil
}

func (c *Configuration) ProgramID() (common.PublicKey, error) {
	return ParsePublicKey(c.Ledger.ProgramId)
}

func (c *Configuration) Encode() ([]byte, error) {
	return toml.Marshal(*c)
}

// ParsePublicKey decodes a base58 key and rejects anything that is not
// exactly 32 bytes.
func ParsePublicKey(s string) (common.PublicKey, error) {
	b, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return common.PublicKey{}, errors.Wrapf(err, "invalid public key %q", s)
	}
	if len(b) != common.PublicKeyLength {
		return common.PublicKey{}, errors.Errorf("invalid public key %q: %d bytes", s, len(b))
	}
	return common.PublicKeyFromBytes(b), nil
}

func ExpandPath(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	usr, err := user.Current()
	if err != nil {
		return p
	}
	return filepath.Join(usr.HomeDir, p[2:])
}
