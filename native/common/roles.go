package common

// Role identifiers persisted in the state role table. Grants and revocations
// go through governance tooling; engines only ever read membership.
const (
	// RoleAdmin may manage submissions, whitelists, supply caps, the TGE
	// flag and impact levels.
	RoleAdmin = "ROLE_ADMIN"
	// RoleVerifier may assert proof-of-impact status and attach
	// verification hashes.
	RoleVerifier = "ROLE_VERIFIER"
	// RoleRewardManager may credit claimable balances and pay level,
	// streak and referral rewards.
	RoleRewardManager = "ROLE_REWARD_MANAGER"
	// RoleMinter may mint and burn ledger tokens directly.
	RoleMinter = "ROLE_MINTER"
)

// RoleView is the read side of the role table engines authorize against.
type RoleView interface {
	HasRole(role string, addr []byte) bool
}
