package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ecochain/crypto"
	"ecochain/native/achievement"
)

func (h *handlers) mountAchievements(r chi.Router) {
	r.Post("/verify-poi", h.verifyPOI)
	r.Post("/mint", h.mintAchievement)
	r.Post("/impact-level", h.updateImpactLevel)
}

type verifyPOIRequest struct {
	Caller string `json:"caller,omitempty"`
	User   string `json:"user"`
}

func (h *handlers) verifyPOI(w http.ResponseWriter, r *http.Request) {
	var req verifyPOIRequest
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
	if err := h.node.VerifyPOI(caller, user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (h *handlers) mintAchievement(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	id, err := h.node.MintAchievement(caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"tokenId": id})
}

type impactLevelRequest struct {
	Caller  string `json:"caller,omitempty"`
	TokenID uint64 `json:"tokenId"`
	Level   uint64 `json:"level"`
}

func (h *handlers) updateImpactLevel(w http.ResponseWriter, r *http.Request) {
	var req impactLevelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	if err := h.node.UpdateImpactLevel(caller, req.TokenID, req.Level); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type achievementResponse struct {
	TokenID uint64 `json:"tokenId"`
	Owner   string `json:"owner"`
	Level   uint64 `json:"level"`
}

func achievementView(tok *achievement.Token) achievementResponse {
	return achievementResponse{
		TokenID: tok.ID,
		Owner:   crypto.BytesToAddress(tok.Owner).String(),
		Level:   tok.Level,
	}
}
