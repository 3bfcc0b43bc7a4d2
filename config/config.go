package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Storage backend identifiers accepted in Backend.
const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
)

type Config struct {
	RPCAddress     string   `toml:"RPCAddress"`
	GatewayAddress string   `toml:"GatewayAddress"`
	DataDir        string   `toml:"DataDir"`
	Backend        string   `toml:"Backend"`
	Environment    string   `toml:"Environment"`
	Collection     string   `toml:"Collection"`
	Operator       string   `toml:"Operator"`
	ListingFee     string   `toml:"ListingFee"`
	JWTSecret      string   `toml:"JWTSecret"`
	PausedModules  []string `toml:"PausedModules"`
	LogFile        string   `toml:"LogFile"`
	LogMaxSizeMB   int      `toml:"LogMaxSizeMB"`
	LogMaxBackups  int      `toml:"LogMaxBackups"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0])
	}
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.GatewayAddress) == "" {
		cfg.GatewayAddress = "127.0.0.1:8646"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
	if strings.TrimSpace(cfg.Backend) == "" {
		cfg.Backend = BackendLevelDB
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		cfg.Collection = "ideezacoin"
	}
	if strings.TrimSpace(cfg.ListingFee) == "" {
		cfg.ListingFee = "0"
	}
	if cfg.PausedModules == nil {
		cfg.PausedModules = []string{}
	}
	if cfg.LogMaxSizeMB <= 0 {
		cfg.LogMaxSizeMB = 100
	}
	if cfg.LogMaxBackups < 0 {
		cfg.LogMaxBackups = 0
	}
}

func validate(cfg *Config) error {
	switch cfg.Backend {
	case BackendMemory, BackendLevelDB, BackendBolt:
	default:
		return fmt.Errorf("config: unsupported backend %q", cfg.Backend)
	}
	if strings.TrimSpace(cfg.Operator) != "" {
		if !ethcommon.IsHexAddress(cfg.Operator) {
			return fmt.Errorf("config: operator %q is not a hex address", cfg.Operator)
		}
	}
	if _, ok := new(big.Int).SetString(cfg.ListingFee, 10); !ok {
		return fmt.Errorf("config: listing fee %q is not a base-10 integer", cfg.ListingFee)
	}
	return nil
}

// OperatorAddress parses the configured operator into its 20-byte form. The
// second return reports whether an operator was configured at all.
func (c *Config) OperatorAddress() ([20]byte, bool, error) {
	trimmed := strings.TrimSpace(c.Operator)
	if trimmed == "" {
		return [20]byte{}, false, nil
	}
	if !ethcommon.IsHexAddress(trimmed) {
		return [20]byte{}, false, fmt.Errorf("config: operator %q is not a hex address", trimmed)
	}
	return ethcommon.HexToAddress(trimmed), true, nil
}

// ListingFeeAmount parses the configured initial listing fee.
func (c *Config) ListingFeeAmount() (*big.Int, error) {
	fee, ok := new(big.Int).SetString(strings.TrimSpace(c.ListingFee), 10)
	if !ok || fee.Sign() < 0 {
		return nil, fmt.Errorf("config: listing fee %q is not a non-negative integer", c.ListingFee)
	}
	return fee, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
