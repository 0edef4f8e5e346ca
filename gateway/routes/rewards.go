package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ecochain/native/rewards"
)

func (h *handlers) mountRewards(r chi.Router) {
	r.Post("/verify-poi", h.setPoiStatus)
	r.Post("/referrals", h.registerReferral)
	r.Post("/level-claims", h.rewardLevelClaim)
	r.Post("/claim", h.claimRewards)
}

type poiRequest struct {
	Caller   string `json:"caller,omitempty"`
	User     string `json:"user"`
	Verified bool   `json:"verified"`
}

func (h *handlers) setPoiStatus(w http.ResponseWriter, r *http.Request) {
	var req poiRequest
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
	if err := h.node.SetPoiVerificationStatus(caller, user, req.Verified); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type referralRequest struct {
	Caller   string `json:"caller,omitempty"`
	Invitee  string `json:"invitee"`
	Referrer string `json:"referrer"`
}

func (h *handlers) registerReferral(w http.ResponseWriter, r *http.Request) {
	var req referralRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	invitee, ok := parseAddress(w, "invitee", req.Invitee)
	if !ok {
		return
	}
	referrer, ok := parseAddress(w, "referrer", req.Referrer)
	if !ok {
		return
	}
	if err := h.node.RegisterReferral(caller, invitee, referrer); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

type levelClaimRequest struct {
	Caller string `json:"caller,omitempty"`
	User   string `json:"user"`
	Level  uint64 `json:"level"`
}

func (h *handlers) rewardLevelClaim(w http.ResponseWriter, r *http.Request) {
	var req levelClaimRequest
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
	if err := h.node.RewardImpactProductClaim(caller, user, req.Level); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rewarded"})
}

func (h *handlers) claimRewards(w http.ResponseWriter, r *http.Request) {
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
	if err := h.node.ClaimRewards(caller, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "claimed"})
}

type verificationStatusResponse struct {
	PoiVerified   bool     `json:"poiVerified"`
	NftMinted     bool     `json:"nftMinted"`
	LastVerified  uint64   `json:"lastVerified"`
	StreakCount   uint64   `json:"streakCount"`
	ClaimedLevels []uint64 `json:"claimedLevels"`
}

func verificationStatusView(status *rewards.VerificationStatus) verificationStatusResponse {
	return verificationStatusResponse{
		PoiVerified:   status.PoiVerified,
		NftMinted:     status.NftMinted,
		LastVerified:  status.LastVerified,
		StreakCount:   status.StreakCount,
		ClaimedLevels: status.ClaimedLevels,
	}
}
