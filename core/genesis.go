package core

import (
	"fmt"

	"ecochain/config"
	"ecochain/crypto"
	nativecommon "ecochain/native/common"
	"ecochain/native/rewards"
)

var genesisAppliedKey = []byte("genesis-applied")

// ApplyGenesis bootstraps an empty state from the genesis spec: role grants,
// the reward schedule, the supply cap and initial allocations. Applying a
// genesis to an already-bootstrapped state is a no-op, so restarts are safe.
func (n *Node) ApplyGenesis(gen *config.Genesis) error {
	if gen == nil {
		return fmt.Errorf("genesis: nil spec")
	}
	return n.execute("genesis", func() error {
		applied := false
		if _, err := n.state.KVGet(genesisAppliedKey, &applied); err != nil {
			return err
		}
		if applied {
			return nil
		}

		owner, err := crypto.DecodeAddress(gen.Owner)
		if err != nil {
			return fmt.Errorf("genesis: owner: %w", err)
		}
		// The owner always carries the admin role; further grants come
		// from the role map.
		if err := n.state.SetRole(nativecommon.RoleAdmin, owner.Bytes()); err != nil {
			return err
		}
		for role, members := range gen.Roles {
			for _, member := range members {
				addr, err := crypto.DecodeAddress(member)
				if err != nil {
					return fmt.Errorf("genesis: role %s member: %w", role, err)
				}
				if err := n.state.SetRole(role, addr.Bytes()); err != nil {
					return err
				}
			}
		}

		params := rewards.DefaultParams()
		if amount, err := config.ParseAmount(gen.Rewards.LevelReward); err != nil {
			return fmt.Errorf("genesis: levelReward: %w", err)
		} else if amount != nil {
			params.LevelReward = amount
		}
		if amount, err := config.ParseAmount(gen.Rewards.StreakBonus); err != nil {
			return fmt.Errorf("genesis: streakBonus: %w", err)
		} else if amount != nil {
			params.StreakBonus = amount
		}
		if amount, err := config.ParseAmount(gen.Rewards.ReferralBonus); err != nil {
			return fmt.Errorf("genesis: referralBonus: %w", err)
		} else if amount != nil {
			params.ReferralBonus = amount
		}
		if err := n.rewards.InitParams(params); err != nil {
			return err
		}
		if amount, err := config.ParseAmount(gen.Rewards.SubmissionReward); err != nil {
			return fmt.Errorf("genesis: submissionReward: %w", err)
		} else if amount != nil {
			if err := n.submissions.UpdateDefaultReward(owner, amount); err != nil {
				return err
			}
		}

		if supplyCap, err := config.ParseAmount(gen.SupplyCap); err != nil {
			return fmt.Errorf("genesis: supplyCap: %w", err)
		} else if supplyCap != nil {
			if err := n.ledger.SetSupplyCap(owner, supplyCap); err != nil {
				return err
			}
		}

		for _, alloc := range gen.Accounts {
			addr, err := crypto.DecodeAddress(alloc.Address)
			if err != nil {
				return fmt.Errorf("genesis: account %s: %w", alloc.Address, err)
			}
			amount, err := config.ParseAmount(alloc.Amount)
			if err != nil {
				return fmt.Errorf("genesis: account %s: %w", alloc.Address, err)
			}
			if amount == nil {
				continue
			}
			if err := n.ledger.MintReward(addr, amount); err != nil {
				return err
			}
		}
		for _, entry := range gen.Whitelist {
			addr, err := crypto.DecodeAddress(entry)
			if err != nil {
				return fmt.Errorf("genesis: whitelist %s: %w", entry, err)
			}
			if err := n.ledger.AddToWhitelist(owner, addr); err != nil {
				return err
			}
		}

		return n.state.KVPut(genesisAppliedKey, true)
	})
}
