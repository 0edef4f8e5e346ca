package core

import (
	"errors"
	"math/big"
	"testing"

	"ecochain/config"
	"ecochain/crypto"
	nativecommon "ecochain/native/common"
	"ecochain/native/rewards"
	"ecochain/native/submission"
	"ecochain/storage"
)

func testAddr(b byte) crypto.Address {
	var a crypto.Address
	a[19] = b
	return a
}

func newTestNode(t *testing.T) *Node {
	t.Helper()
	node, err := NewNode(storage.NewMemDB(), nil)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func tokens(n int64) *big.Int {
	wei := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return wei.Mul(wei, big.NewInt(n))
}

func TestNodeCommitsSuccessfulOps(t *testing.T) {
	node := newTestNode(t)
	minter := testAddr(1)
	if err := node.GrantRole(nativecommon.RoleMinter, minter); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := node.Mint(minter, testAddr(2), big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	balance, err := node.GetBalance(testAddr(2))
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance=%s, want 100", balance)
	}
}

func TestNodeRollsBackFailedOps(t *testing.T) {
	node := newTestNode(t)
	manager := testAddr(1)
	verifier := testAddr(2)
	user := testAddr(3)
	for _, grant := range []struct {
		role string
		addr crypto.Address
	}{
		{nativecommon.RoleRewardManager, manager},
		{nativecommon.RoleVerifier, verifier},
	} {
		if err := node.GrantRole(grant.role, grant.addr); err != nil {
			t.Fatalf("grant %s: %v", grant.role, err)
		}
	}
	if err := node.VerifyPOI(verifier, user); err != nil {
		t.Fatalf("verify poi: %v", err)
	}
	if _, err := node.MintAchievement(user); err != nil {
		t.Fatalf("mint achievement: %v", err)
	}

	// Pausing the token module makes the payout leg of a level claim fail
	// after the registry has already recorded the claim. The whole
	// transaction must roll back, leaving the level unclaimed.
	if err := node.SetPaused("token", true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	err := node.RewardImpactProductClaim(manager, user, 1)
	if !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	status, err := node.GetVerificationStatus(user)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(status.ClaimedLevels) != 0 {
		t.Fatalf("claim persisted despite rollback: %v", status.ClaimedLevels)
	}

	if err := node.SetPaused("token", false); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if err := node.RewardImpactProductClaim(manager, user, 1); err != nil {
		t.Fatalf("claim after unpause: %v", err)
	}
	balance, _ := node.GetBalance(user)
	if balance.Cmp(tokens(10)) != 0 {
		t.Fatalf("balance=%s, want %s", balance, tokens(10))
	}
}

func TestNodeEndToEndRewardFlow(t *testing.T) {
	node := newTestNode(t)
	admin := testAddr(1)
	verifier := testAddr(2)
	manager := testAddr(3)
	user := testAddr(4)
	referrer := testAddr(5)

	for _, grant := range []struct {
		role string
		addr crypto.Address
	}{
		{nativecommon.RoleAdmin, admin},
		{nativecommon.RoleVerifier, verifier},
		{nativecommon.RoleRewardManager, manager},
	} {
		if err := node.GrantRole(grant.role, grant.addr); err != nil {
			t.Fatalf("grant %s: %v", grant.role, err)
		}
	}

	// Submission with a referrer binds the referral on creation.
	id, err := node.CreateSubmission(user, submissionParams(referrer))
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}
	if err := node.ApproveSubmission(admin, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	claimable, _ := node.GetClaimableBalance(user)
	if claimable.Cmp(tokens(10)) != 0 {
		t.Fatalf("claimable=%s after approval, want %s", claimable, tokens(10))
	}

	if err := node.VerifyPOI(verifier, user); err != nil {
		t.Fatalf("verify poi: %v", err)
	}
	if _, err := node.MintAchievement(user); err != nil {
		t.Fatalf("mint achievement: %v", err)
	}
	if err := node.RewardImpactProductClaim(manager, user, 1); err != nil {
		t.Fatalf("level claim: %v", err)
	}
	balance, _ := node.GetBalance(user)
	if balance.Cmp(tokens(10)) != 0 {
		t.Fatalf("balance=%s after level claim, want %s", balance, tokens(10))
	}
	refBalance, _ := node.GetBalance(referrer)
	if refBalance.Cmp(tokens(3)) != 0 {
		t.Fatalf("referrer balance=%s, want %s", refBalance, tokens(3))
	}
	if err := node.RewardImpactProductClaim(manager, user, 1); !errors.Is(err, rewards.ErrLevelAlreadyClaimed) {
		t.Fatalf("expected ErrLevelAlreadyClaimed, got %v", err)
	}

	// Claim the submission reward into the spendable balance.
	if err := node.ClaimRewards(user, tokens(10)); err != nil {
		t.Fatalf("claim rewards: %v", err)
	}
	balance, _ = node.GetBalance(user)
	if balance.Cmp(tokens(20)) != 0 {
		t.Fatalf("balance=%s after claiming, want %s", balance, tokens(20))
	}
	claimable, _ = node.GetClaimableBalance(user)
	if claimable.Sign() != 0 {
		t.Fatalf("claimable=%s after claiming, want 0", claimable)
	}
}

func submissionParams(referrer crypto.Address) submission.CreateParams {
	return submission.CreateParams{
		DataURI:  "ipfs://bafybeigdyrcleanup",
		Lat:      "52.5200",
		Lng:      "13.4050",
		Referrer: referrer,
	}
}

func TestNodeResumesFromPersistedHead(t *testing.T) {
	db := storage.NewMemDB()
	node, err := NewNode(db, nil)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	minter := testAddr(1)
	if err := node.GrantRole(nativecommon.RoleMinter, minter); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := node.Mint(minter, testAddr(2), big.NewInt(777)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	reopened, err := NewNode(db, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	balance, err := reopened.GetBalance(testAddr(2))
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(777)) != 0 {
		t.Fatalf("balance=%s after reopen, want 777", balance)
	}
	if !reopened.HasRole(nativecommon.RoleMinter, minter) {
		t.Fatal("role lost across restart")
	}
}

func TestApplyGenesisBootstrapsState(t *testing.T) {
	node := newTestNode(t)
	owner := testAddr(1)
	verifier := testAddr(2)
	treasury := testAddr(3)

	gen := &config.Genesis{
		Owner: owner.String(),
		Roles: map[string][]string{
			nativecommon.RoleVerifier: {verifier.String()},
		},
		SupplyCap: "1000000",
		Rewards: config.GenesisRewards{
			LevelReward: "42",
		},
		Accounts: []config.GenesisAccount{
			{Address: treasury.String(), Amount: "5000"},
		},
		Whitelist: []string{treasury.String()},
	}
	if err := node.ApplyGenesis(gen); err != nil {
		t.Fatalf("apply genesis: %v", err)
	}

	if !node.HasRole(nativecommon.RoleAdmin, owner) {
		t.Fatal("owner not granted admin")
	}
	if !node.HasRole(nativecommon.RoleVerifier, verifier) {
		t.Fatal("verifier role not granted")
	}
	balance, _ := node.GetBalance(treasury)
	if balance.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("treasury balance=%s, want 5000", balance)
	}
	totals, _ := node.GetTotals()
	if !totals.CapSet || totals.Cap.Cmp(big.NewInt(1000000)) != 0 {
		t.Fatalf("cap not applied: %+v", totals)
	}
	account, _ := node.GetAccount(treasury)
	if !account.Whitelisted {
		t.Fatal("treasury not whitelisted")
	}

	// Reapplying is a no-op, allocations are not doubled.
	if err := node.ApplyGenesis(gen); err != nil {
		t.Fatalf("reapply genesis: %v", err)
	}
	balance, _ = node.GetBalance(treasury)
	if balance.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("reapply doubled allocation: %s", balance)
	}
}
