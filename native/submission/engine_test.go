package submission

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"

	"ecochain/core/types"
	"ecochain/crypto"
	nativecommon "ecochain/native/common"
	"ecochain/native/rewards"
	"ecochain/native/token"
)

// mockState backs the submission engine plus the reward engine and ledger it
// pays through. KV values round-trip through RLP like the real state manager.
type mockState struct {
	accounts map[string]*types.Account
	totals   *types.LedgerTotals
	kv       map[string][]byte
	roles    map[string]map[string]bool
}

func newMockState() *mockState {
	return &mockState{
		accounts: make(map[string]*types.Account),
		totals:   types.NewLedgerTotals(),
		kv:       make(map[string][]byte),
		roles:    make(map[string]map[string]bool),
	}
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	if acc, ok := m.accounts[string(addr)]; ok {
		return &types.Account{
			Nonce:       acc.Nonce,
			Balance:     new(big.Int).Set(acc.Balance),
			Staked:      new(big.Int).Set(acc.Staked),
			Claimable:   new(big.Int).Set(acc.Claimable),
			Locked:      append([]types.LockedEntry(nil), acc.Locked...),
			Whitelisted: acc.Whitelisted,
		}, nil
	}
	return types.NewAccount(), nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	m.accounts[string(addr)] = account
	return nil
}

func (m *mockState) Totals() (*types.LedgerTotals, error) {
	return &types.LedgerTotals{
		Minted:    new(big.Int).Set(m.totals.Minted),
		Supply:    new(big.Int).Set(m.totals.Supply),
		Deposits:  new(big.Int).Set(m.totals.Deposits),
		Claimable: new(big.Int).Set(m.totals.Claimable),
		Cap:       new(big.Int).Set(m.totals.Cap),
		CapSet:    m.totals.CapSet,
		TGE:       m.totals.TGE,
	}, nil
}

func (m *mockState) SetTotals(totals *types.LedgerTotals) error {
	m.totals = totals
	return nil
}

func (m *mockState) KVPut(key []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.kv[string(key)] = raw
	return nil
}

func (m *mockState) KVGet(key []byte, out interface{}) (bool, error) {
	raw, ok := m.kv[string(key)]
	if !ok {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *mockState) KVAppend(key []byte, value []byte) error {
	var list [][]byte
	if raw, ok := m.kv[string(key)]; ok {
		if err := rlp.DecodeBytes(raw, &list); err != nil {
			return err
		}
	}
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			return nil
		}
	}
	list = append(list, value)
	raw, err := rlp.EncodeToBytes(list)
	if err != nil {
		return err
	}
	m.kv[string(key)] = raw
	return nil
}

func (m *mockState) KVGetList(key []byte, out interface{}) error {
	raw, ok := m.kv[string(key)]
	if !ok {
		return nil
	}
	return rlp.DecodeBytes(raw, out)
}

func (m *mockState) HasRole(role string, addr []byte) bool {
	return m.roles[role][string(addr)]
}

func (m *mockState) grant(role string, addr crypto.Address) {
	if m.roles[role] == nil {
		m.roles[role] = make(map[string]bool)
	}
	m.roles[role][string(addr.Bytes())] = true
}

func addr(b byte) crypto.Address {
	var a crypto.Address
	a[19] = b
	return a
}

func newTestEngine() (*Engine, *rewards.Engine, *mockState) {
	st := newMockState()
	ledger := token.NewLedger(st)
	rewardEngine := rewards.NewEngine(st, ledger)
	engine := NewEngine(st, rewardEngine)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine, rewardEngine, st
}

func validParams() CreateParams {
	return CreateParams{
		DataURI: "ipfs://bafybeigdyrcleanup",
		Lat:     "52.5200",
		Lng:     "13.4050",
	}
}

func TestCreateValidatesInput(t *testing.T) {
	engine, _, _ := newTestEngine()
	if _, err := engine.Create(crypto.Address{}, validParams()); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("zero submitter: expected ErrInvalidAddress, got %v", err)
	}
	params := validParams()
	params.DataURI = "   "
	if _, err := engine.Create(addr(1), params); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("blank data uri: expected ErrInvalidData, got %v", err)
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	engine, _, _ := newTestEngine()
	submitter := addr(1)

	first, err := engine.Create(submitter, validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := engine.Create(submitter, validParams())
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first != 1 || second != 2 {
		t.Fatalf("ids %d, %d; want 1, 2", first, second)
	}

	ids, err := engine.BySubmitter(submitter)
	if err != nil {
		t.Fatalf("by submitter: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("submitter index %v", ids)
	}
	pending, err := engine.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending %v", pending)
	}

	record, err := engine.Get(first)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != StatusPending || record.CreatedAt == 0 {
		t.Fatalf("record %+v", record)
	}
}

func TestCreateBindsReferrer(t *testing.T) {
	engine, rewardEngine, _ := newTestEngine()
	submitter := addr(1)
	referrer := addr(2)

	params := validParams()
	params.Referrer = referrer
	if _, err := engine.Create(submitter, params); err != nil {
		t.Fatalf("create: %v", err)
	}
	referral, found, err := rewardEngine.GetReferral(submitter)
	if err != nil || !found {
		t.Fatalf("referral: found=%v err=%v", found, err)
	}
	if crypto.BytesToAddress(referral.Referrer) != referrer {
		t.Fatalf("bound referrer %x", referral.Referrer)
	}

	// A self-referral is treated as absent, not an error.
	other := addr(3)
	params.Referrer = other
	if _, err := engine.Create(other, params); err != nil {
		t.Fatalf("self-referred create: %v", err)
	}
	if _, found, _ := rewardEngine.GetReferral(other); found {
		t.Fatal("self-referral must not bind")
	}
}

func TestApproveCreditsDefaultReward(t *testing.T) {
	engine, _, st := newTestEngine()
	admin := addr(9)
	st.grant(nativecommon.RoleAdmin, admin)
	submitter := addr(1)

	id, err := engine.Create(submitter, validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := engine.Approve(addr(5), id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := engine.Approve(admin, id); err != nil {
		t.Fatalf("approve: %v", err)
	}

	reward, _ := engine.DefaultReward()
	claimable := st.accounts[string(submitter.Bytes())].Claimable
	if claimable.Cmp(reward) != 0 {
		t.Fatalf("claimable=%s, want default reward %s", claimable, reward)
	}
	pending, _ := engine.Pending()
	if len(pending) != 0 {
		t.Fatalf("pending not cleared: %v", pending)
	}
	if err := engine.Approve(admin, id); !errors.Is(err, ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved, got %v", err)
	}
	if err := engine.Reject(admin, id); !errors.Is(err, ErrAlreadyApproved) {
		t.Fatalf("reject after approve: expected ErrAlreadyApproved, got %v", err)
	}
}

func TestRejectLeavesBalancesUntouched(t *testing.T) {
	engine, _, st := newTestEngine()
	admin := addr(9)
	st.grant(nativecommon.RoleAdmin, admin)
	submitter := addr(1)

	id, err := engine.Create(submitter, validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := engine.Reject(admin, id); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if st.totals.Deposits.Sign() != 0 || st.totals.Claimable.Sign() != 0 {
		t.Fatalf("rejection moved balances: %+v", st.totals)
	}
	if err := engine.Approve(admin, id); !errors.Is(err, ErrAlreadyRejected) {
		t.Fatalf("approve after reject: expected ErrAlreadyRejected, got %v", err)
	}
	record, _ := engine.Get(id)
	if record.Status != StatusRejected {
		t.Fatalf("status %v", record.Status)
	}
}

func TestDecisionOnMissingSubmission(t *testing.T) {
	engine, _, st := newTestEngine()
	admin := addr(9)
	st.grant(nativecommon.RoleAdmin, admin)
	if err := engine.Approve(admin, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateDefaultReward(t *testing.T) {
	engine, _, st := newTestEngine()
	admin := addr(9)
	st.grant(nativecommon.RoleAdmin, admin)

	if err := engine.UpdateDefaultReward(addr(1), big.NewInt(5)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := engine.UpdateDefaultReward(admin, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := engine.UpdateDefaultReward(admin, big.NewInt(77)); err != nil {
		t.Fatalf("update: %v", err)
	}
	reward, err := engine.DefaultReward()
	if err != nil {
		t.Fatalf("default reward: %v", err)
	}
	if reward.Cmp(big.NewInt(77)) != 0 {
		t.Fatalf("reward=%s, want 77", reward)
	}
}

func TestStoreVerificationHash(t *testing.T) {
	engine, _, st := newTestEngine()
	admin := addr(9)
	verifier := addr(8)
	st.grant(nativecommon.RoleAdmin, admin)
	st.grant(nativecommon.RoleVerifier, verifier)
	submitter := addr(1)

	var hash [32]byte
	hash[0] = 0xab

	if err := engine.StoreVerificationHash(verifier, 42, hash); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	id, err := engine.Create(submitter, validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := engine.StoreVerificationHash(addr(5), id, hash); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := engine.StoreVerificationHash(verifier, id, hash); err != nil {
		t.Fatalf("store: %v", err)
	}

	// The hash may still be attached after the decision.
	if err := engine.Approve(admin, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	var second [32]byte
	second[0] = 0xcd
	if err := engine.StoreVerificationHash(verifier, id, second); err != nil {
		t.Fatalf("store after approval: %v", err)
	}
	record, _ := engine.Get(id)
	if !record.VerificationSet || record.Verification != second {
		t.Fatalf("verification %x set=%v", record.Verification, record.VerificationSet)
	}
}
