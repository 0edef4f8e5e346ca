package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ecochain/core/types"
	"ecochain/crypto"
)

func (h *handlers) mountQueries(r chi.Router) {
	r.Get("/accounts/{address}", h.getAccount)
	r.Get("/accounts/{address}/balance", h.getBalance)
	r.Get("/accounts/{address}/claimable", h.getClaimable)
	r.Get("/accounts/{address}/verification", h.getVerification)
	r.Get("/accounts/{address}/submissions", h.getSubmissionsBySubmitter)
	r.Get("/accounts/{address}/achievement", h.getAchievementOf)
	r.Get("/accounts/{address}/roles/{role}", h.getRole)
	r.Get("/totals", h.getTotals)
	r.Get("/submissions/{id}", h.getSubmission)
	r.Get("/submissions/pending", h.getPendingSubmissions)
	r.Get("/achievements/{id}", h.getAchievement)
}

func pathAddress(w http.ResponseWriter, r *http.Request) (crypto.Address, bool) {
	return parseAddress(w, "address", chi.URLParam(r, "address"))
}

type accountResponse struct {
	Address   string        `json:"address"`
	Nonce     uint64        `json:"nonce"`
	Balance   string        `json:"balance"`
	Staked    string        `json:"staked"`
	Claimable string        `json:"claimable"`
	Locked    []lockedEntry `json:"locked,omitempty"`
}

type lockedEntry struct {
	Amount     string `json:"amount"`
	UnlockTime uint64 `json:"unlockTime"`
}

func (h *handlers) getAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	account, err := h.node.GetAccount(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := accountResponse{
		Address:   addr.String(),
		Nonce:     account.Nonce,
		Balance:   account.Balance.String(),
		Staked:    account.Staked.String(),
		Claimable: account.Claimable.String(),
	}
	for _, lock := range account.Locked {
		resp.Locked = append(resp.Locked, lockedEntry{
			Amount:     lock.Amount.String(),
			UnlockTime: lock.UnlockTime,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) getBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	balance, err := h.node.GetBalance(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (h *handlers) getClaimable(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	claimable, err := h.node.GetClaimableBalance(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"claimable": claimable.String()})
}

func (h *handlers) getVerification(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	status, err := h.node.GetVerificationStatus(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verificationStatusView(status))
}

func (h *handlers) getSubmissionsBySubmitter(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	ids, err := h.node.SubmissionsBySubmitter(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeJSON(w, http.StatusOK, map[string][]uint64{"ids": ids})
}

func (h *handlers) getAchievementOf(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	tok, found, err := h.node.AchievementTokenOf(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no achievement token"})
		return
	}
	writeJSON(w, http.StatusOK, achievementView(tok))
}

func (h *handlers) getRole(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	role := chi.URLParam(r, "role")
	writeJSON(w, http.StatusOK, map[string]bool{"hasRole": h.node.HasRole(role, addr)})
}

type totalsResponse struct {
	Minted    string `json:"minted"`
	Supply    string `json:"supply"`
	Deposits  string `json:"deposits"`
	Claimable string `json:"claimable"`
	Cap       string `json:"cap,omitempty"`
	TGE       bool   `json:"tgeCompleted"`
}

func totalsView(totals *types.LedgerTotals) totalsResponse {
	resp := totalsResponse{
		Minted:    totals.Minted.String(),
		Supply:    totals.Supply.String(),
		Deposits:  totals.Deposits.String(),
		Claimable: totals.Claimable.String(),
		TGE:       totals.TGE,
	}
	if totals.CapSet {
		resp.Cap = totals.Cap.String()
	}
	return resp
}

func (h *handlers) getTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.node.GetTotals()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totalsView(totals))
}

func (h *handlers) getSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := submissionID(w, r)
	if !ok {
		return
	}
	record, err := h.node.GetSubmission(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionView(record))
}

func (h *handlers) getPendingSubmissions(w http.ResponseWriter, r *http.Request) {
	ids, err := h.node.PendingSubmissions()
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeJSON(w, http.StatusOK, map[string][]uint64{"ids": ids})
}

func (h *handlers) getAchievement(w http.ResponseWriter, r *http.Request) {
	id, ok := submissionID(w, r)
	if !ok {
		return
	}
	tok, err := h.node.GetAchievementToken(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, achievementView(tok))
}
