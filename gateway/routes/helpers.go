package routes

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"

	"ecochain/crypto"
	"ecochain/gateway/middleware"
	"ecochain/native/achievement"
	nativecommon "ecochain/native/common"
	"ecochain/native/rewards"
	"ecochain/native/submission"
	"ecochain/native/token"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

// statusFor maps engine sentinels onto HTTP statuses. Unknown errors are
// treated as server faults.
func statusFor(err error) int {
	switch {
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, token.ErrUnauthorized),
		errors.Is(err, rewards.ErrUnauthorized),
		errors.Is(err, submission.ErrUnauthorized),
		errors.Is(err, achievement.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, submission.ErrNotFound),
		errors.Is(err, achievement.ErrTokenNotFound):
		return http.StatusNotFound
	case errors.Is(err, token.ErrTGECompleted),
		errors.Is(err, submission.ErrAlreadyApproved),
		errors.Is(err, submission.ErrAlreadyRejected),
		errors.Is(err, achievement.ErrAlreadyMinted),
		errors.Is(err, rewards.ErrAlreadyRegistered),
		errors.Is(err, rewards.ErrLevelAlreadyClaimed):
		return http.StatusConflict
	case errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, token.ErrInvalidAddress),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrTransfersLocked),
		errors.Is(err, token.ErrSupplyCapExceeded),
		errors.Is(err, token.ErrCapBelowSupply),
		errors.Is(err, token.ErrTokensStillLocked),
		errors.Is(err, token.ErrNothingLocked),
		errors.Is(err, rewards.ErrInvalidAddress),
		errors.Is(err, rewards.ErrNotEligible),
		errors.Is(err, rewards.ErrInvalidLevel),
		errors.Is(err, rewards.ErrSelfReferral),
		errors.Is(err, submission.ErrInvalidData),
		errors.Is(err, submission.ErrInvalidAddress),
		errors.Is(err, submission.ErrInvalidAmount),
		errors.Is(err, achievement.ErrInvalidAddress),
		errors.Is(err, achievement.ErrNotVerifiedPOI),
		errors.Is(err, achievement.ErrInvalidLevelRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return false
	}
	return true
}

func parseAddress(w http.ResponseWriter, field, value string) (crypto.Address, bool) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: field + ": " + err.Error()})
		return crypto.Address{}, false
	}
	return addr, true
}

func parseAmount(w http.ResponseWriter, field, value string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: field + ": malformed decimal amount"})
		return nil, false
	}
	return amount, true
}

func parseHash(w http.ResponseWriter, field, value string) ([32]byte, bool) {
	var out [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil || len(raw) != 32 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: field + ": expected 32-byte hex"})
		return out, false
	}
	copy(out[:], raw)
	return out, true
}

// resolveCaller prefers the authenticated subject; a body-supplied caller is
// only honored when the gateway runs with auth disabled.
func resolveCaller(w http.ResponseWriter, r *http.Request, bodyCaller string) (crypto.Address, bool) {
	if caller, ok := middleware.Caller(r.Context()); ok {
		return caller, true
	}
	if strings.TrimSpace(bodyCaller) == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "caller identity required"})
		return crypto.Address{}, false
	}
	return parseAddress(w, "caller", bodyCaller)
}

func encodeHash(hash [32]byte) string {
	return "0x" + hex.EncodeToString(hash[:])
}
