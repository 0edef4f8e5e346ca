package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ecochain/core"
)

type handlers struct {
	node *core.Node
}

func (h *handlers) mountToken(r chi.Router) {
	r.Post("/mint", h.mint)
	r.Post("/burn", h.burn)
	r.Post("/transfer", h.transfer)
	r.Post("/deposit", h.deposit)
	r.Post("/withdraw", h.withdraw)
	r.Post("/claim", h.claimTokens)
	r.Post("/stake", h.stake)
	r.Post("/unstake", h.unstake)
	r.Post("/lock", h.lockTokens)
	r.Post("/unlock", h.unlockTokens)
}

type amountRequest struct {
	Caller string `json:"caller,omitempty"`
	User   string `json:"user"`
	Amount string `json:"amount"`
}

func (h *handlers) mint(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	to, ok := parseAddress(w, "user", req.User)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	if err := h.node.Mint(caller, to, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "minted"})
}

func (h *handlers) burn(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	from, ok := parseAddress(w, "user", req.User)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	if err := h.node.Burn(caller, from, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "burned"})
}

type transferRequest struct {
	Caller string `json:"caller,omitempty"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (h *handlers) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	from, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	to, ok := parseAddress(w, "to", req.To)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	if err := h.node.Transfer(from, to, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

type selfAmountRequest struct {
	Caller string `json:"caller,omitempty"`
	User   string `json:"user,omitempty"`
	Amount string `json:"amount"`
}

// deposit handles both the self-service path and the admin deposit-for path:
// a populated user field routes through the role-checked variant.
func (h *handlers) deposit(w http.ResponseWriter, r *http.Request) {
	var req selfAmountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	var err error
	if req.User != "" {
		target, addrOK := parseAddress(w, "user", req.User)
		if !addrOK {
			return
		}
		err = h.node.DepositFor(caller, target, amount)
	} else {
		err = h.node.Deposit(caller, amount)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deposited"})
}

func (h *handlers) withdraw(w http.ResponseWriter, r *http.Request) {
	var req selfAmountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	var err error
	if req.User != "" {
		target, addrOK := parseAddress(w, "user", req.User)
		if !addrOK {
			return
		}
		err = h.node.WithdrawFor(caller, target, amount)
	} else {
		err = h.node.Withdraw(caller, amount)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

func (h *handlers) claimTokens(w http.ResponseWriter, r *http.Request) {
	var req selfAmountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	if err := h.node.ClaimTokens(caller, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "claimed"})
}

func (h *handlers) stake(w http.ResponseWriter, r *http.Request) {
	var req selfAmountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	if err := h.node.Stake(caller, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "staked"})
}

func (h *handlers) unstake(w http.ResponseWriter, r *http.Request) {
	var req selfAmountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	if err := h.node.Unstake(caller, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unstaked"})
}

type lockRequest struct {
	Caller   string `json:"caller,omitempty"`
	Amount   string `json:"amount"`
	Duration uint64 `json:"duration_seconds"`
}

func (h *handlers) lockTokens(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	if err := h.node.LockTokens(caller, amount, req.Duration); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "locked"})
}

type callerRequest struct {
	Caller string `json:"caller,omitempty"`
}

func (h *handlers) unlockTokens(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	released, err := h.node.UnlockTokens(caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unlocked", "released": released.String()})
}
