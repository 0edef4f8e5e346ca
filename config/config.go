package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, loaded from TOML.
type Config struct {
	ListenAddress   string  `toml:"ListenAddress"`
	DataDir         string  `toml:"DataDir"`
	GenesisFile     string  `toml:"GenesisFile"`
	IndexerPath     string  `toml:"IndexerPath"`
	NonceStorePath  string  `toml:"NonceStorePath"`
	LogFile         string  `toml:"LogFile"`
	Environment     string  `toml:"Environment"`
	JWTSecretEnv    string  `toml:"JWTSecretEnv"`
	OTLPEndpoint    string  `toml:"OTLPEndpoint"`
	RateLimitPerMin float64 `toml:"RateLimitPerMinute"`
	RateLimitBurst  int     `toml:"RateLimitBurst"`
}

// Load reads the configuration at path, creating a default file when none
// exists yet.
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
		return nil, fmt.Errorf("config file %s contains unknown field %s", path, undecoded[0])
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = ":8546"
	}
	if c.DataDir == "" {
		c.DataDir = "./ecochain-data"
	}
	if c.GenesisFile == "" {
		c.GenesisFile = filepath.Join(c.DataDir, "genesis.yaml")
	}
	if c.IndexerPath == "" {
		c.IndexerPath = filepath.Join(c.DataDir, "indexer.db")
	}
	if c.NonceStorePath == "" {
		c.NonceStorePath = filepath.Join(c.DataDir, "nonces")
	}
	if c.JWTSecretEnv == "" {
		c.JWTSecretEnv = "ECOCHAIN_JWT_SECRET"
	}
	if c.RateLimitPerMin <= 0 {
		c.RateLimitPerMin = 600
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 50
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
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
