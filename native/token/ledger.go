package token

import (
	"fmt"
	"math/big"
	"time"

	"ecochain/core/events"
	"ecochain/core/types"
	"ecochain/crypto"
	nativecommon "ecochain/native/common"
)

// ModuleName is the pause-switch identifier for the token ledger.
const ModuleName = "token"

// State is the slice of the state manager the ledger needs.
type State interface {
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
	Totals() (*types.LedgerTotals, error)
	SetTotals(totals *types.LedgerTotals) error
	HasRole(role string, addr []byte) bool
}

// Ledger owns per-account balances and the conservation totals. Every
// balance-changing method updates the totals in lock-step with the account
// record so totalDeposits always equals the sum over all accounts.
type Ledger struct {
	state   State
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() int64
}

// NewLedger creates a ledger over the provided state backend.
func NewLedger(st State) *Ledger {
	return &Ledger{
		state:   st,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetPauses configures the module pause view.
func (l *Ledger) SetPauses(p nativecommon.PauseView) {
	l.pauses = p
}

// SetNowFunc overrides the time source. Intended for tests.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

func (l *Ledger) now() int64 {
	return l.nowFn()
}

func (l *Ledger) guard() error {
	return nativecommon.Guard(l.pauses, ModuleName)
}

func (l *Ledger) requireRole(role string, caller crypto.Address) error {
	if !l.state.HasRole(role, caller.Bytes()) {
		return fmt.Errorf("%w: caller %s lacks %s", ErrUnauthorized, caller, role)
	}
	return nil
}

func requirePositive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// transferUnlocked reports whether the account may move tokens out of the
// ledger: either the TGE has completed or the account is whitelisted.
func transferUnlocked(totals *types.LedgerTotals, account *types.Account) bool {
	return totals.TGE || account.Whitelisted
}

// Mint credits freshly minted tokens to an account. Privileged: requires the
// minter role.
func (l *Ledger) Mint(caller, to crypto.Address, amount *big.Int) error {
	if err := l.requireRole(nativecommon.RoleMinter, caller); err != nil {
		return err
	}
	return l.mint(to, amount)
}

// MintReward is the internal mint path used by the reward engine, which
// performs its own authorization before paying out.
func (l *Ledger) MintReward(to crypto.Address, amount *big.Int) error {
	return l.mint(to, amount)
}

func (l *Ledger) mint(to crypto.Address, amount *big.Int) error {
	if err := l.guard(); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrInvalidAddress
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	totals, err := l.state.Totals()
	if err != nil {
		return err
	}
	if totals.CapSet {
		next := new(big.Int).Add(totals.Supply, amount)
		if next.Cmp(totals.Cap) > 0 {
			return fmt.Errorf("%w: supply %s + %s exceeds cap %s",
				ErrSupplyCapExceeded, totals.Supply, amount, totals.Cap)
		}
	}
	account, err := l.state.GetAccount(to.Bytes())
	if err != nil {
		return err
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	totals.Minted = new(big.Int).Add(totals.Minted, amount)
	totals.Supply = new(big.Int).Add(totals.Supply, amount)
	totals.Deposits = new(big.Int).Add(totals.Deposits, amount)
	if err := l.state.PutAccount(to.Bytes(), account); err != nil {
		return err
	}
	if err := l.state.SetTotals(totals); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenMinted{To: to, Amount: amount})
	return nil
}

// Burn destroys tokens from an account's available balance. Privileged:
// requires the minter role. Total minted is monotonic and unaffected.
func (l *Ledger) Burn(caller, from crypto.Address, amount *big.Int) error {
	if err := l.requireRole(nativecommon.RoleMinter, caller); err != nil {
		return err
	}
	if err := l.guard(); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	account, err := l.state.GetAccount(from.Bytes())
	if err != nil {
		return err
	}
	if account.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: available %s < %s", ErrInsufficientBalance, account.Balance, amount)
	}
	totals, err := l.state.Totals()
	if err != nil {
		return err
	}
	account.Balance = new(big.Int).Sub(account.Balance, amount)
	totals.Supply = new(big.Int).Sub(totals.Supply, amount)
	totals.Deposits = new(big.Int).Sub(totals.Deposits, amount)
	if err := l.state.PutAccount(from.Bytes(), account); err != nil {
		return err
	}
	if err := l.state.SetTotals(totals); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenBurned{From: from, Amount: amount})
	return nil
}

// Transfer moves available balance between two accounts. Pre-TGE only
// whitelisted senders may transfer.
func (l *Ledger) Transfer(from, to crypto.Address, amount *big.Int) error {
	if err := l.guard(); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrInvalidAddress
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	totals, err := l.state.Totals()
	if err != nil {
		return err
	}
	sender, err := l.state.GetAccount(from.Bytes())
	if err != nil {
		return err
	}
	if !transferUnlocked(totals, sender) {
		return ErrTransfersLocked
	}
	if sender.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: available %s < %s", ErrInsufficientBalance, sender.Balance, amount)
	}
	sender.Balance = new(big.Int).Sub(sender.Balance, amount)
	if err := l.state.PutAccount(from.Bytes(), sender); err != nil {
		return err
	}
	recipient, err := l.state.GetAccount(to.Bytes())
	if err != nil {
		return err
	}
	recipient.Balance = new(big.Int).Add(recipient.Balance, amount)
	if err := l.state.PutAccount(to.Bytes(), recipient); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenTransferred{From: from, To: to, Amount: amount})
	return nil
}

// Deposit credits externally held tokens into the caller's ledger account.
// The ERC20 pull happens in the outer collaborator; the ledger only accounts
// for the amount that arrived.
func (l *Ledger) Deposit(user crypto.Address, amount *big.Int) error {
	return l.deposit(user, amount)
}

// DepositFor is the privileged variant crediting a deposit on behalf of a
// user. Requires the admin role.
func (l *Ledger) DepositFor(caller, user crypto.Address, amount *big.Int) error {
	if err := l.requireRole(nativecommon.RoleAdmin, caller); err != nil {
		return err
	}
	return l.deposit(user, amount)
}

func (l *Ledger) deposit(user crypto.Address, amount *big.Int) error {
	if err := l.guard(); err != nil {
		return err
	}
	if user.IsZero() {
		return ErrInvalidAddress
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	account, err := l.state.GetAccount(user.Bytes())
	if err != nil {
		return err
	}
	totals, err := l.state.Totals()
	if err != nil {
		return err
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	totals.Deposits = new(big.Int).Add(totals.Deposits, amount)
	if err := l.state.PutAccount(user.Bytes(), account); err != nil {
		return err
	}
	if err := l.state.SetTotals(totals); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenDeposited{Account: user, Amount: amount})
	return nil
}

// Withdraw releases available balance back out of the ledger. Pre-TGE only
// whitelisted accounts may withdraw.
func (l *Ledger) Withdraw(user crypto.Address, amount *big.Int) error {
	return l.withdraw(user, amount)
}

// WithdrawFor is the privileged variant withdrawing on behalf of a user.
// Requires the admin role.
func (l *Ledger) WithdrawFor(caller, user crypto.Address, amount *big.Int) error {
	if err := l.requireRole(nativecommon.RoleAdmin, caller); err != nil {
		return err
	}
	return l.withdraw(user, amount)
}

func (l *Ledger) withdraw(user crypto.Address, amount *big.Int) error {
	if err := l.guard(); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	totals, err := l.state.Totals()
	if err != nil {
		return err
	}
	account, err := l.state.GetAccount(user.Bytes())
	if err != nil {
		return err
	}
	if !transferUnlocked(totals, account) {
		return ErrTransfersLocked
	}
	if account.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: available %s < %s", ErrInsufficientBalance, account.Balance, amount)
	}
	account.Balance = new(big.Int).Sub(account.Balance, amount)
	totals.Deposits = new(big.Int).Sub(totals.Deposits, amount)
	if err := l.state.PutAccount(user.Bytes(), account); err != nil {
		return err
	}
	if err := l.state.SetTotals(totals); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenWithdrawn{Account: user, Amount: amount})
	return nil
}

// AddClaimableBalance credits a vested-but-unclaimed reward balance.
// Privileged: requires the reward manager role.
func (l *Ledger) AddClaimableBalance(caller, user crypto.Address, amount *big.Int) error {
	if err := l.requireRole(nativecommon.RoleRewardManager, caller); err != nil {
		return err
	}
	return l.CreditClaimable(user, amount, "manual")
}

// CreditClaimable is the internal credit path used by the reward and
// submission engines after they have authorized their own callers.
func (l *Ledger) CreditClaimable(user crypto.Address, amount *big.Int, reason string) error {
	if err := l.guard(); err != nil {
		return err
	}
	if user.IsZero() {
		return ErrInvalidAddress
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	account, err := l.state.GetAccount(user.Bytes())
	if err != nil {
		return err
	}
	totals, err := l.state.Totals()
	if err != nil {
		return err
	}
	account.Claimable = new(big.Int).Add(account.Claimable, amount)
	totals.Deposits = new(big.Int).Add(totals.Deposits, amount)
	totals.Claimable = new(big.Int).Add(totals.Claimable, amount)
	if err := l.state.PutAccount(user.Bytes(), account); err != nil {
		return err
	}
	if err := l.state.SetTotals(totals); err != nil {
		return err
	}
	l.emitter.Emit(events.ClaimableCredited{Account: user, Amount: amount, Reason: reason})
	return nil
}

// ClaimTokens moves vested claimable balance into the spendable balance.
// Pre-TGE only whitelisted accounts may claim.
func (l *Ledger) ClaimTokens(user crypto.Address, amount *big.Int) error {
	if err := l.guard(); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	totals, err := l.state.Totals()
	if err != nil {
		return err
	}
	account, err := l.state.GetAccount(user.Bytes())
	if err != nil {
		return err
	}
	if !transferUnlocked(totals, account) {
		return ErrTransfersLocked
	}
	if err := l.releaseClaimable(user, account, totals, amount); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenClaimed{Account: user, Amount: amount})
	return nil
}

// ReleaseClaimable moves claimable balance into the spendable balance without
// the TGE gate. Used by the reward engine's claimRewards path.
func (l *Ledger) ReleaseClaimable(user crypto.Address, amount *big.Int) error {
	if err := l.guard(); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	totals, err := l.state.Totals()
	if err != nil {
		return err
	}
	account, err := l.state.GetAccount(user.Bytes())
	if err != nil {
		return err
	}
	return l.releaseClaimable(user, account, totals, amount)
}

func (l *Ledger) releaseClaimable(user crypto.Address, account *types.Account, totals *types.LedgerTotals, amount *big.Int) error {
	if account.Claimable.Cmp(amount) < 0 {
		return fmt.Errorf("%w: claimable %s < %s", ErrInsufficientBalance, account.Claimable, amount)
	}
	account.Claimable = new(big.Int).Sub(account.Claimable, amount)
	account.Balance = new(big.Int).Add(account.Balance, amount)
	totals.Claimable = new(big.Int).Sub(totals.Claimable, amount)
	if err := l.state.PutAccount(user.Bytes(), account); err != nil {
		return err
	}
	return l.state.SetTotals(totals)
}

// Stake moves available balance into the staked sub-ledger.
func (l *Ledger) Stake(user crypto.Address, amount *big.Int) error {
	if err := l.guard(); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	account, err := l.state.GetAccount(user.Bytes())
	if err != nil {
		return err
	}
	if account.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: available %s < %s", ErrInsufficientBalance, account.Balance, amount)
	}
	account.Balance = new(big.Int).Sub(account.Balance, amount)
	account.Staked = new(big.Int).Add(account.Staked, amount)
	if err := l.state.PutAccount(user.Bytes(), account); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenStaked{Account: user, Amount: amount})
	return nil
}

// Unstake moves staked balance back into the available balance.
func (l *Ledger) Unstake(user crypto.Address, amount *big.Int) error {
	if err := l.guard(); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	account, err := l.state.GetAccount(user.Bytes())
	if err != nil {
		return err
	}
	if account.Staked.Cmp(amount) < 0 {
		return fmt.Errorf("%w: staked %s < %s", ErrInsufficientBalance, account.Staked, amount)
	}
	account.Staked = new(big.Int).Sub(account.Staked, amount)
	account.Balance = new(big.Int).Add(account.Balance, amount)
	if err := l.state.PutAccount(user.Bytes(), account); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenUnstaked{Account: user, Amount: amount})
	return nil
}

// LockTokens moves available balance into a time-locked tranche that matures
// after the provided duration in seconds.
func (l *Ledger) LockTokens(user crypto.Address, amount *big.Int, duration uint64) error {
	if err := l.guard(); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	account, err := l.state.GetAccount(user.Bytes())
	if err != nil {
		return err
	}
	if account.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: available %s < %s", ErrInsufficientBalance, account.Balance, amount)
	}
	unlockTime := uint64(l.now()) + duration
	account.Balance = new(big.Int).Sub(account.Balance, amount)
	account.Locked = append(account.Locked, types.LockedEntry{
		Amount:     new(big.Int).Set(amount),
		UnlockTime: unlockTime,
	})
	if err := l.state.PutAccount(user.Bytes(), account); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenLocked{Account: user, Amount: amount, UnlockTime: unlockTime})
	return nil
}

// UnlockTokens releases every matured tranche back into the available
// balance. Tranches that have not reached their unlock time stay locked; when
// nothing has matured the call fails.
func (l *Ledger) UnlockTokens(user crypto.Address) (*big.Int, error) {
	if err := l.guard(); err != nil {
		return nil, err
	}
	account, err := l.state.GetAccount(user.Bytes())
	if err != nil {
		return nil, err
	}
	if len(account.Locked) == 0 {
		return nil, ErrNothingLocked
	}
	now := uint64(l.now())
	released := big.NewInt(0)
	remaining := account.Locked[:0]
	for _, entry := range account.Locked {
		if entry.UnlockTime <= now {
			released.Add(released, entry.Amount)
			continue
		}
		remaining = append(remaining, entry)
	}
	if released.Sign() == 0 {
		return nil, ErrTokensStillLocked
	}
	account.Locked = remaining
	account.Balance = new(big.Int).Add(account.Balance, released)
	if err := l.state.PutAccount(user.Bytes(), account); err != nil {
		return nil, err
	}
	l.emitter.Emit(events.TokenUnlocked{Account: user, Amount: released})
	return released, nil
}

// SetTGEStatus completes the token generation event. The flag is one-way:
// attempting to clear it after completion is a caller error.
func (l *Ledger) SetTGEStatus(caller crypto.Address, completed bool) error {
	if err := l.requireRole(nativecommon.RoleAdmin, caller); err != nil {
		return err
	}
	totals, err := l.state.Totals()
	if err != nil {
		return err
	}
	if !completed {
		if totals.TGE {
			return ErrTGECompleted
		}
		return nil
	}
	if totals.TGE {
		return nil
	}
	totals.TGE = true
	if err := l.state.SetTotals(totals); err != nil {
		return err
	}
	l.emitter.Emit(events.TGECompleted{})
	return nil
}

// AddToWhitelist exempts an account from the pre-TGE transfer lock.
// Privileged: requires the admin role.
func (l *Ledger) AddToWhitelist(caller, user crypto.Address) error {
	return l.setWhitelisted(caller, user, true)
}

// RemoveFromWhitelist clears the pre-TGE transfer exemption.
func (l *Ledger) RemoveFromWhitelist(caller, user crypto.Address) error {
	return l.setWhitelisted(caller, user, false)
}

func (l *Ledger) setWhitelisted(caller, user crypto.Address, whitelisted bool) error {
	if err := l.requireRole(nativecommon.RoleAdmin, caller); err != nil {
		return err
	}
	if user.IsZero() {
		return ErrInvalidAddress
	}
	account, err := l.state.GetAccount(user.Bytes())
	if err != nil {
		return err
	}
	if account.Whitelisted == whitelisted {
		return nil
	}
	account.Whitelisted = whitelisted
	if err := l.state.PutAccount(user.Bytes(), account); err != nil {
		return err
	}
	l.emitter.Emit(events.WhitelistUpdated{Account: user, Whitelisted: whitelisted})
	return nil
}

// SetSupplyCap activates a ceiling on total supply. The cap may not be set
// below what is already in circulation.
func (l *Ledger) SetSupplyCap(caller crypto.Address, cap *big.Int) error {
	if err := l.requireRole(nativecommon.RoleAdmin, caller); err != nil {
		return err
	}
	if err := requirePositive(cap); err != nil {
		return err
	}
	totals, err := l.state.Totals()
	if err != nil {
		return err
	}
	if cap.Cmp(totals.Supply) < 0 {
		return fmt.Errorf("%w: cap %s < supply %s", ErrCapBelowSupply, cap, totals.Supply)
	}
	totals.Cap = new(big.Int).Set(cap)
	totals.CapSet = true
	if err := l.state.SetTotals(totals); err != nil {
		return err
	}
	l.emitter.Emit(events.SupplyCapUpdated{Cap: cap, Active: true})
	return nil
}

// RemoveSupplyCap deactivates the supply ceiling.
func (l *Ledger) RemoveSupplyCap(caller crypto.Address) error {
	if err := l.requireRole(nativecommon.RoleAdmin, caller); err != nil {
		return err
	}
	totals, err := l.state.Totals()
	if err != nil {
		return err
	}
	if !totals.CapSet {
		return nil
	}
	totals.Cap = big.NewInt(0)
	totals.CapSet = false
	if err := l.state.SetTotals(totals); err != nil {
		return err
	}
	l.emitter.Emit(events.SupplyCapUpdated{Cap: nil, Active: false})
	return nil
}

// GetAccount returns a copy of the account record for user.
func (l *Ledger) GetAccount(user crypto.Address) (*types.Account, error) {
	return l.state.GetAccount(user.Bytes())
}

// GetBalance returns the spendable balance for user.
func (l *Ledger) GetBalance(user crypto.Address) (*big.Int, error) {
	account, err := l.state.GetAccount(user.Bytes())
	if err != nil {
		return nil, err
	}
	return account.Balance, nil
}

// GetClaimableBalance returns the vested-but-unclaimed balance for user.
func (l *Ledger) GetClaimableBalance(user crypto.Address) (*big.Int, error) {
	account, err := l.state.GetAccount(user.Bytes())
	if err != nil {
		return nil, err
	}
	return account.Claimable, nil
}

// GetTotals returns the ledger conservation counters.
func (l *Ledger) GetTotals() (*types.LedgerTotals, error) {
	return l.state.Totals()
}
