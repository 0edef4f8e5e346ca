package events

import (
	"ecochain/core/types"
	"ecochain/crypto"
)

const (
	TypeAchievementMinted = "achievement.minted"
	TypeImpactLevelSet    = "achievement.impact_level_set"
)

type AchievementMinted struct {
	TokenID uint64
	Owner   crypto.Address
}

func (AchievementMinted) EventType() string { return TypeAchievementMinted }

func (e AchievementMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeAchievementMinted,
		Attributes: map[string]string{
			"tokenId": formatUint(e.TokenID),
			"owner":   formatAddr(e.Owner),
		},
	}
}

type ImpactLevelSet struct {
	TokenID uint64
	Level   uint64
}

func (ImpactLevelSet) EventType() string { return TypeImpactLevelSet }

func (e ImpactLevelSet) Event() *types.Event {
	return &types.Event{
		Type: TypeImpactLevelSet,
		Attributes: map[string]string{
			"tokenId": formatUint(e.TokenID),
			"level":   formatUint(e.Level),
		},
	}
}
