package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ecochain/native/rewards"
)

func (h *handlers) mountAdmin(r chi.Router) {
	r.Post("/tge/complete", h.completeTGE)
	r.Post("/whitelist", h.updateWhitelist)
	r.Post("/supply-cap", h.setSupplyCap)
	r.Delete("/supply-cap", h.removeSupplyCap)
	r.Post("/claimable", h.addClaimable)
	r.Post("/reward-params", h.setRewardParams)
	r.Post("/submission-reward", h.updateDefaultReward)
	r.Post("/roles/grant", h.grantRole)
	r.Post("/roles/revoke", h.revokeRole)
	r.Post("/pause", h.setPaused)
}

func (h *handlers) completeTGE(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	if err := h.node.SetTGEStatus(caller, true); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "tge completed"})
}

type whitelistRequest struct {
	Caller string `json:"caller,omitempty"`
	User   string `json:"user"`
	Listed bool   `json:"listed"`
}

func (h *handlers) updateWhitelist(w http.ResponseWriter, r *http.Request) {
	var req whitelistRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	user, ok := parseAddress(w, "user", req.User)
	if !ok {
		return
	}
	var err error
	if req.Listed {
		err = h.node.AddToWhitelist(caller, user)
	} else {
		err = h.node.RemoveFromWhitelist(caller, user)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "whitelist updated"})
}

type supplyCapRequest struct {
	Caller string `json:"caller,omitempty"`
	Cap    string `json:"cap"`
}

func (h *handlers) setSupplyCap(w http.ResponseWriter, r *http.Request) {
	var req supplyCapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	cap, ok := parseAmount(w, "cap", req.Cap)
	if !ok {
		return
	}
	if err := h.node.SetSupplyCap(caller, cap); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cap set"})
}

func (h *handlers) removeSupplyCap(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	if err := h.node.RemoveSupplyCap(caller); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cap removed"})
}

func (h *handlers) addClaimable(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	user, ok := parseAddress(w, "user", req.User)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	if err := h.node.AddClaimableBalance(caller, user, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "credited"})
}

type rewardParamsRequest struct {
	Caller        string `json:"caller,omitempty"`
	LevelReward   string `json:"levelReward"`
	StreakBonus   string `json:"streakBonus"`
	ReferralBonus string `json:"referralBonus"`
}

func (h *handlers) setRewardParams(w http.ResponseWriter, r *http.Request) {
	var req rewardParamsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	level, ok := parseAmount(w, "levelReward", req.LevelReward)
	if !ok {
		return
	}
	streak, ok := parseAmount(w, "streakBonus", req.StreakBonus)
	if !ok {
		return
	}
	referral, ok := parseAmount(w, "referralBonus", req.ReferralBonus)
	if !ok {
		return
	}
	params := rewards.Params{LevelReward: level, StreakBonus: streak, ReferralBonus: referral}
	if err := h.node.SetRewardParams(caller, params); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "params updated"})
}

type defaultRewardRequest struct {
	Caller string `json:"caller,omitempty"`
	Amount string `json:"amount"`
}

func (h *handlers) updateDefaultReward(w http.ResponseWriter, r *http.Request) {
	var req defaultRewardRequest
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
	if err := h.node.UpdateDefaultReward(caller, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reward updated"})
}

type roleRequest struct {
	Role string `json:"role"`
	User string `json:"user"`
}

func (h *handlers) grantRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, ok := parseAddress(w, "user", req.User)
	if !ok {
		return
	}
	if req.Role == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "role required"})
		return
	}
	if err := h.node.GrantRole(req.Role, user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "granted"})
}

func (h *handlers) revokeRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, ok := parseAddress(w, "user", req.User)
	if !ok {
		return
	}
	if req.Role == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "role required"})
		return
	}
	if err := h.node.RevokeRole(req.Role, user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

type pauseRequest struct {
	Module string `json:"module"`
	Paused bool   `json:"paused"`
}

func (h *handlers) setPaused(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Module == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "module required"})
		return
	}
	if err := h.node.SetPaused(req.Module, req.Paused); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pause updated"})
}
