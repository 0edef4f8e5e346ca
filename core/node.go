package core

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"ecochain/core/events"
	"ecochain/core/state"
	"ecochain/core/types"
	"ecochain/crypto"
	"ecochain/native/achievement"
	"ecochain/native/rewards"
	"ecochain/native/submission"
	"ecochain/native/token"
	"ecochain/observability/metrics"
	"ecochain/storage"
	"ecochain/storage/trie"
)

var (
	headRootKey    = []byte("ecochain-head-root")
	headVersionKey = []byte("ecochain-head-version")
)

// Node owns the singleton ledger state and serializes every external call
// into an atomic transaction: either the whole call commits, or the trie is
// rolled back to the last committed root and buffered events are dropped.
type Node struct {
	mu      sync.Mutex
	db      storage.Database
	trie    *trie.Trie
	state   *state.Manager
	version uint64

	ledger       *token.Ledger
	rewards      *rewards.Engine
	submissions  *submission.Engine
	achievements *achievement.Engine

	buffer  events.Buffer
	emitter events.Emitter
	logger  *slog.Logger
}

// NewNode opens the ledger state stored in db, resuming from the persisted
// head root when one exists.
func NewNode(db storage.Database, logger *slog.Logger) (*Node, error) {
	if logger == nil {
		logger = slog.Default()
	}
	root, _ := db.Get(headRootKey)
	tr, err := trie.New(db, root)
	if err != nil {
		return nil, fmt.Errorf("open state trie: %w", err)
	}
	var version uint64
	if raw, err := db.Get(headVersionKey); err == nil && len(raw) == 8 {
		version = binary.BigEndian.Uint64(raw)
	}

	n := &Node{
		db:      db,
		trie:    tr,
		state:   state.NewManager(tr),
		version: version,
		emitter: events.NoopEmitter{},
		logger:  logger,
	}
	n.ledger = token.NewLedger(n.state)
	n.rewards = rewards.NewEngine(n.state, n.ledger)
	n.submissions = submission.NewEngine(n.state, n.rewards)
	n.achievements = achievement.NewEngine(n.state, n.rewards)
	n.ledger.SetEmitter(&n.buffer)
	n.ledger.SetPauses(n.state)
	n.rewards.SetEmitter(&n.buffer)
	n.rewards.SetPauses(n.state)
	n.submissions.SetEmitter(&n.buffer)
	n.submissions.SetPauses(n.state)
	n.achievements.SetEmitter(&n.buffer)
	n.achievements.SetPauses(n.state)
	return n, nil
}

// SetEmitter configures the sink committed events are flushed to (gateway
// streams, the audit indexer). Passing nil resets to a no-op.
func (n *Node) SetEmitter(emitter events.Emitter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if emitter == nil {
		n.emitter = events.NoopEmitter{}
		return
	}
	n.emitter = emitter
}

// SetNowFunc overrides the time source of every engine. Intended for tests.
func (n *Node) SetNowFunc(now func() int64) {
	n.ledger.SetNowFunc(now)
	n.rewards.SetNowFunc(now)
	n.submissions.SetNowFunc(now)
}

// execute runs fn as one all-or-nothing transaction.
func (n *Node) execute(op string, fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	committed := n.trie.Root()
	if err := fn(); err != nil {
		n.buffer.Discard()
		metrics.Node().ObserveOpFailure(op)
		if resetErr := n.trie.Reset(committed); resetErr != nil {
			n.logger.Error("state rollback failed", "op", op, "error", resetErr)
			return fmt.Errorf("rollback after %s: %w", op, resetErr)
		}
		return err
	}
	n.version++
	root, err := n.trie.Commit(n.version)
	if err != nil {
		n.buffer.Discard()
		n.version--
		metrics.Node().ObserveOpFailure(op)
		if resetErr := n.trie.Reset(committed); resetErr != nil {
			n.logger.Error("state rollback failed", "op", op, "error", resetErr)
		}
		return fmt.Errorf("commit %s: %w", op, err)
	}
	n.persistHead(root)
	n.buffer.Flush(n.emitter)
	metrics.Node().ObserveOp(op)
	metrics.Node().SetStateVersion(n.version)
	return nil
}

func (n *Node) persistHead(root common.Hash) {
	if err := n.db.Put(headRootKey, root.Bytes()); err != nil {
		n.logger.Error("persist head root", "error", err)
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n.version)
	if err := n.db.Put(headVersionKey, buf); err != nil {
		n.logger.Error("persist head version", "error", err)
	}
}

// view runs fn under the node lock without committing anything.
func (n *Node) view(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fn()
}

// --- token ledger operations ---

func (n *Node) Mint(caller, to crypto.Address, amount *big.Int) error {
	return n.execute("token.mint", func() error { return n.ledger.Mint(caller, to, amount) })
}

func (n *Node) Burn(caller, from crypto.Address, amount *big.Int) error {
	return n.execute("token.burn", func() error { return n.ledger.Burn(caller, from, amount) })
}

func (n *Node) Transfer(from, to crypto.Address, amount *big.Int) error {
	return n.execute("token.transfer", func() error { return n.ledger.Transfer(from, to, amount) })
}

func (n *Node) Deposit(user crypto.Address, amount *big.Int) error {
	return n.execute("token.deposit", func() error { return n.ledger.Deposit(user, amount) })
}

func (n *Node) DepositFor(caller, user crypto.Address, amount *big.Int) error {
	return n.execute("token.deposit_for", func() error { return n.ledger.DepositFor(caller, user, amount) })
}

func (n *Node) Withdraw(user crypto.Address, amount *big.Int) error {
	return n.execute("token.withdraw", func() error { return n.ledger.Withdraw(user, amount) })
}

func (n *Node) WithdrawFor(caller, user crypto.Address, amount *big.Int) error {
	return n.execute("token.withdraw_for", func() error { return n.ledger.WithdrawFor(caller, user, amount) })
}

func (n *Node) AddClaimableBalance(caller, user crypto.Address, amount *big.Int) error {
	return n.execute("token.add_claimable", func() error { return n.ledger.AddClaimableBalance(caller, user, amount) })
}

func (n *Node) ClaimTokens(user crypto.Address, amount *big.Int) error {
	return n.execute("token.claim", func() error { return n.ledger.ClaimTokens(user, amount) })
}

func (n *Node) Stake(user crypto.Address, amount *big.Int) error {
	return n.execute("token.stake", func() error { return n.ledger.Stake(user, amount) })
}

func (n *Node) Unstake(user crypto.Address, amount *big.Int) error {
	return n.execute("token.unstake", func() error { return n.ledger.Unstake(user, amount) })
}

func (n *Node) LockTokens(user crypto.Address, amount *big.Int, duration uint64) error {
	return n.execute("token.lock", func() error { return n.ledger.LockTokens(user, amount, duration) })
}

func (n *Node) UnlockTokens(user crypto.Address) (*big.Int, error) {
	var released *big.Int
	err := n.execute("token.unlock", func() error {
		var innerErr error
		released, innerErr = n.ledger.UnlockTokens(user)
		return innerErr
	})
	return released, err
}

func (n *Node) SetTGEStatus(caller crypto.Address, completed bool) error {
	return n.execute("token.set_tge", func() error { return n.ledger.SetTGEStatus(caller, completed) })
}

func (n *Node) AddToWhitelist(caller, user crypto.Address) error {
	return n.execute("token.whitelist_add", func() error { return n.ledger.AddToWhitelist(caller, user) })
}

func (n *Node) RemoveFromWhitelist(caller, user crypto.Address) error {
	return n.execute("token.whitelist_remove", func() error { return n.ledger.RemoveFromWhitelist(caller, user) })
}

func (n *Node) SetSupplyCap(caller crypto.Address, cap *big.Int) error {
	return n.execute("token.set_cap", func() error { return n.ledger.SetSupplyCap(caller, cap) })
}

func (n *Node) RemoveSupplyCap(caller crypto.Address) error {
	return n.execute("token.remove_cap", func() error { return n.ledger.RemoveSupplyCap(caller) })
}

// --- verification + rewards operations ---

func (n *Node) SetPoiVerificationStatus(caller, user crypto.Address, verified bool) error {
	return n.execute("rewards.set_poi", func() error {
		return n.rewards.SetPoiVerificationStatus(caller, user, verified)
	})
}

func (n *Node) RegisterReferral(caller, invitee, referrer crypto.Address) error {
	return n.execute("rewards.register_referral", func() error {
		return n.rewards.RegisterReferral(caller, invitee, referrer)
	})
}

func (n *Node) RewardImpactProductClaim(caller, user crypto.Address, level uint64) error {
	return n.execute("rewards.level_claim", func() error {
		return n.rewards.RewardImpactProductClaim(caller, user, level)
	})
}

func (n *Node) ClaimRewards(user crypto.Address, amount *big.Int) error {
	return n.execute("rewards.claim", func() error { return n.rewards.ClaimRewards(user, amount) })
}

func (n *Node) SetRewardParams(caller crypto.Address, params rewards.Params) error {
	return n.execute("rewards.set_params", func() error { return n.rewards.SetParams(caller, params) })
}

// --- submission operations ---

func (n *Node) CreateSubmission(submitter crypto.Address, params submission.CreateParams) (uint64, error) {
	var id uint64
	err := n.execute("submission.create", func() error {
		var innerErr error
		id, innerErr = n.submissions.Create(submitter, params)
		return innerErr
	})
	if err == nil {
		n.trackPendingSubmissions()
	}
	return id, err
}

func (n *Node) ApproveSubmission(caller crypto.Address, id uint64) error {
	err := n.execute("submission.approve", func() error { return n.submissions.Approve(caller, id) })
	if err == nil {
		n.trackPendingSubmissions()
	}
	return err
}

func (n *Node) RejectSubmission(caller crypto.Address, id uint64) error {
	err := n.execute("submission.reject", func() error { return n.submissions.Reject(caller, id) })
	if err == nil {
		n.trackPendingSubmissions()
	}
	return err
}

// trackPendingSubmissions refreshes the backlog gauge after a decision or a
// new filing. Best effort, a read failure leaves the gauge stale.
func (n *Node) trackPendingSubmissions() {
	if ids, err := n.PendingSubmissions(); err == nil {
		metrics.Node().SetPendingSubmissions(len(ids))
	}
}

func (n *Node) StoreVerificationHash(caller crypto.Address, id uint64, hash [32]byte) error {
	return n.execute("submission.store_hash", func() error {
		return n.submissions.StoreVerificationHash(caller, id, hash)
	})
}

func (n *Node) UpdateDefaultReward(caller crypto.Address, amount *big.Int) error {
	return n.execute("submission.update_reward", func() error {
		return n.submissions.UpdateDefaultReward(caller, amount)
	})
}

// --- achievement operations ---

func (n *Node) VerifyPOI(caller, user crypto.Address) error {
	return n.execute("achievement.verify_poi", func() error { return n.achievements.VerifyPOI(caller, user) })
}

func (n *Node) MintAchievement(user crypto.Address) (uint64, error) {
	var id uint64
	err := n.execute("achievement.mint", func() error {
		var innerErr error
		id, innerErr = n.achievements.Mint(user)
		return innerErr
	})
	return id, err
}

func (n *Node) UpdateImpactLevel(caller crypto.Address, tokenID, level uint64) error {
	return n.execute("achievement.update_level", func() error {
		return n.achievements.UpdateImpactLevel(caller, tokenID, level)
	})
}

// --- governance operations ---

func (n *Node) GrantRole(role string, addr crypto.Address) error {
	return n.execute("roles.grant", func() error { return n.state.SetRole(role, addr.Bytes()) })
}

func (n *Node) RevokeRole(role string, addr crypto.Address) error {
	return n.execute("roles.revoke", func() error { return n.state.RevokeRole(role, addr.Bytes()) })
}

func (n *Node) SetPaused(module string, paused bool) error {
	return n.execute("pause.set", func() error { return n.state.SetPaused(module, paused) })
}

// --- views ---

func (n *Node) GetAccount(user crypto.Address) (*types.Account, error) {
	var account *types.Account
	err := n.view(func() error {
		var innerErr error
		account, innerErr = n.ledger.GetAccount(user)
		return innerErr
	})
	return account, err
}

func (n *Node) GetBalance(user crypto.Address) (*big.Int, error) {
	var balance *big.Int
	err := n.view(func() error {
		var innerErr error
		balance, innerErr = n.ledger.GetBalance(user)
		return innerErr
	})
	return balance, err
}

func (n *Node) GetClaimableBalance(user crypto.Address) (*big.Int, error) {
	var claimable *big.Int
	err := n.view(func() error {
		var innerErr error
		claimable, innerErr = n.ledger.GetClaimableBalance(user)
		return innerErr
	})
	return claimable, err
}

func (n *Node) GetTotals() (*types.LedgerTotals, error) {
	var totals *types.LedgerTotals
	err := n.view(func() error {
		var innerErr error
		totals, innerErr = n.ledger.GetTotals()
		return innerErr
	})
	return totals, err
}

func (n *Node) GetVerificationStatus(user crypto.Address) (*rewards.VerificationStatus, error) {
	var status *rewards.VerificationStatus
	err := n.view(func() error {
		var innerErr error
		status, innerErr = n.rewards.GetVerificationStatus(user)
		return innerErr
	})
	return status, err
}

func (n *Node) GetSubmission(id uint64) (*submission.Submission, error) {
	var record *submission.Submission
	err := n.view(func() error {
		var innerErr error
		record, innerErr = n.submissions.Get(id)
		return innerErr
	})
	return record, err
}

func (n *Node) SubmissionsBySubmitter(addr crypto.Address) ([]uint64, error) {
	var ids []uint64
	err := n.view(func() error {
		var innerErr error
		ids, innerErr = n.submissions.BySubmitter(addr)
		return innerErr
	})
	return ids, err
}

func (n *Node) PendingSubmissions() ([]uint64, error) {
	var ids []uint64
	err := n.view(func() error {
		var innerErr error
		ids, innerErr = n.submissions.Pending()
		return innerErr
	})
	return ids, err
}

func (n *Node) GetAchievementToken(tokenID uint64) (*achievement.Token, error) {
	var tok *achievement.Token
	err := n.view(func() error {
		var innerErr error
		tok, innerErr = n.achievements.GetToken(tokenID)
		return innerErr
	})
	return tok, err
}

func (n *Node) AchievementTokenOf(addr crypto.Address) (*achievement.Token, bool, error) {
	var (
		tok   *achievement.Token
		found bool
	)
	err := n.view(func() error {
		var innerErr error
		tok, found, innerErr = n.achievements.TokenOf(addr)
		return innerErr
	})
	return tok, found, err
}

func (n *Node) HasRole(role string, addr crypto.Address) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.HasRole(role, addr.Bytes())
}
