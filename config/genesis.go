package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Genesis describes the one-time bootstrap applied to an empty state: the
// chain owner, role grants, reward schedule and initial allocations.
// Addresses are bech32 "eco" strings; amounts are decimal strings in wei
// units.
type Genesis struct {
	Owner     string              `yaml:"owner"`
	Roles     map[string][]string `yaml:"roles"`
	SupplyCap string              `yaml:"supplyCap"`
	Rewards   GenesisRewards      `yaml:"rewards"`
	Accounts  []GenesisAccount    `yaml:"accounts"`
	Whitelist []string            `yaml:"whitelist"`
}

// GenesisRewards pins the reward schedule. Empty fields keep the engine
// defaults.
type GenesisRewards struct {
	LevelReward      string `yaml:"levelReward"`
	StreakBonus      string `yaml:"streakBonus"`
	ReferralBonus    string `yaml:"referralBonus"`
	SubmissionReward string `yaml:"submissionReward"`
}

// GenesisAccount is an initial balance allocation.
type GenesisAccount struct {
	Address string `yaml:"address"`
	Amount  string `yaml:"amount"`
}

// LoadGenesis parses the YAML genesis file at path.
func LoadGenesis(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis file: %w", err)
	}
	gen := &Genesis{}
	if err := yaml.Unmarshal(raw, gen); err != nil {
		return nil, fmt.Errorf("parse genesis file: %w", err)
	}
	if strings.TrimSpace(gen.Owner) == "" {
		return nil, fmt.Errorf("genesis: owner is required")
	}
	return gen, nil
}

// ParseAmount converts a decimal wei string into a big.Int. Empty strings
// yield nil, meaning "use the default".
func ParseAmount(s string) (*big.Int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}
