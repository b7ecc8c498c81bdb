// Package config loads the turret's process configuration.
//
// Configuration is an explicit value threaded into every component at
// construction time; nothing in this repository reads ambient environment
// state after startup.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"

	"github.com/stellar/stellar-turrets/turret"
)

// Config is the complete runtime configuration of one turret process.
type Config struct {
	// ListenAddr is the HTTP bind address for the turret API.
	ListenAddr string `toml:"listen_addr"`

	// TurretAddress is this turret's account id. Fee payments must be XLM
	// payments made to this address.
	TurretAddress string `toml:"turret_address"`

	// HorizonURL is the ledger read/submit endpoint.
	HorizonURL string `toml:"horizon_url"`

	// NetworkPassphrase selects the Stellar network. When it equals the
	// public network passphrase the turret runs in restricted mode and only
	// allow-listed TxFunction hashes may be uploaded.
	NetworkPassphrase string `toml:"network_passphrase"`

	// UploadDivisor scales upload cost: cost = payload bytes / divisor, in XLM.
	UploadDivisor int64 `toml:"upload_divisor"`

	// TrustDocument is the path of the local TOML trust list.
	TrustDocument string `toml:"trust_document"`

	// HealFeeMin/HealFeeMax bound the fee field of inbound heal requests,
	// in stroops.
	HealFeeMin int64 `toml:"heal_fee_min"`
	HealFeeMax int64 `toml:"heal_fee_max"`

	Redis RedisConfig `toml:"redis"`
}

// RedisConfig points at the key-value backend for the TxFunction store and
// the allow-list. An empty Addr selects the in-memory backend (dev and test
// use only; nothing survives a restart).
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Restricted reports whether the turret is on the public network and must
// enforce the upload allow-list.
func (c Config) Restricted() bool {
	return c.NetworkPassphrase == network.PublicNetworkPassphrase
}

// Load reads a TOML config file, applies TURRET_* environment overrides, and
// validates the result.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, turret.Wrap(turret.KindConfig, fmt.Sprintf("config load failed (%s)", path), err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, turret.Wrap(turret.KindConfig, fmt.Sprintf("config parse failed (%s)", path), err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		ListenAddr:        ":8787",
		HorizonURL:        "https://horizon-testnet.stellar.org",
		NetworkPassphrase: network.TestNetworkPassphrase,
		UploadDivisor:     1000,
		TrustDocument:     "turrets.toml",
		HealFeeMin:        100,
		HealFeeMax:        10_000_000,
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TURRET_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("TURRET_ADDRESS"); v != "" {
		cfg.TurretAddress = v
	}
	if v := os.Getenv("TURRET_HORIZON_URL"); v != "" {
		cfg.HorizonURL = v
	}
	if v := os.Getenv("TURRET_NETWORK_PASSPHRASE"); v != "" {
		cfg.NetworkPassphrase = v
	}
	if v := os.Getenv("TURRET_UPLOAD_DIVISOR"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.UploadDivisor = n
		}
	}
	if v := os.Getenv("TURRET_TRUST_DOCUMENT"); v != "" {
		cfg.TrustDocument = v
	}
	if v := os.Getenv("TURRET_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TURRET_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
}

// Validate rejects configurations that would make the turret misbehave
// rather than fail. It runs once at load; components assume a valid Config.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return turret.New(turret.KindConfig, "listen_addr is required")
	}
	if !strkey.IsValidEd25519PublicKey(c.TurretAddress) {
		return turret.New(turret.KindConfig, "turret_address is not a valid account id")
	}
	if c.HorizonURL == "" {
		return turret.New(turret.KindConfig, "horizon_url is required")
	}
	if c.NetworkPassphrase == "" {
		return turret.New(turret.KindConfig, "network_passphrase is required")
	}
	if c.UploadDivisor <= 0 {
		return turret.New(turret.KindConfig, "upload_divisor must be positive")
	}
	if c.TrustDocument == "" {
		return turret.New(turret.KindConfig, "trust_document is required")
	}
	if c.HealFeeMin < 0 || c.HealFeeMax < c.HealFeeMin {
		return turret.New(turret.KindConfig, "heal fee range is inverted")
	}
	return nil
}
