package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ecochain/crypto"
	"ecochain/native/submission"
)

func (h *handlers) mountSubmissions(r chi.Router) {
	r.Post("/", h.createSubmission)
	r.Post("/{id}/approve", h.approveSubmission)
	r.Post("/{id}/reject", h.rejectSubmission)
	r.Post("/{id}/verification-hash", h.storeVerificationHash)
}

type createSubmissionRequest struct {
	Caller         string `json:"caller,omitempty"`
	DataURI        string `json:"dataUri"`
	BeforeHash     string `json:"beforeHash"`
	AfterHash      string `json:"afterHash"`
	ImpactFormHash string `json:"impactFormHash"`
	Lat            string `json:"lat"`
	Lng            string `json:"lng"`
	Referrer       string `json:"referrer,omitempty"`
}

func (h *handlers) createSubmission(w http.ResponseWriter, r *http.Request) {
	var req createSubmissionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	submitter, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	params := submission.CreateParams{
		DataURI: req.DataURI,
		Lat:     req.Lat,
		Lng:     req.Lng,
	}
	if req.BeforeHash != "" {
		hash, hashOK := parseHash(w, "beforeHash", req.BeforeHash)
		if !hashOK {
			return
		}
		params.BeforeHash = hash
	}
	if req.AfterHash != "" {
		hash, hashOK := parseHash(w, "afterHash", req.AfterHash)
		if !hashOK {
			return
		}
		params.AfterHash = hash
	}
	if req.ImpactFormHash != "" {
		hash, hashOK := parseHash(w, "impactFormHash", req.ImpactFormHash)
		if !hashOK {
			return
		}
		params.ImpactFormHash = hash
	}
	if req.Referrer != "" {
		referrer, addrOK := parseAddress(w, "referrer", req.Referrer)
		if !addrOK {
			return
		}
		params.Referrer = referrer
	}
	id, err := h.node.CreateSubmission(submitter, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func submissionID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed submission id"})
		return 0, false
	}
	return id, true
}

func (h *handlers) approveSubmission(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	id, ok := submissionID(w, r)
	if !ok {
		return
	}
	if err := h.node.ApproveSubmission(caller, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *handlers) rejectSubmission(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	id, ok := submissionID(w, r)
	if !ok {
		return
	}
	if err := h.node.RejectSubmission(caller, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

type verificationHashRequest struct {
	Caller string `json:"caller,omitempty"`
	Hash   string `json:"hash"`
}

func (h *handlers) storeVerificationHash(w http.ResponseWriter, r *http.Request) {
	var req verificationHashRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := resolveCaller(w, r, req.Caller)
	if !ok {
		return
	}
	id, ok := submissionID(w, r)
	if !ok {
		return
	}
	hash, ok := parseHash(w, "hash", req.Hash)
	if !ok {
		return
	}
	if err := h.node.StoreVerificationHash(caller, id, hash); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

type submissionResponse struct {
	ID               uint64 `json:"id"`
	Submitter        string `json:"submitter"`
	DataURI          string `json:"dataUri"`
	BeforeHash       string `json:"beforeHash"`
	AfterHash        string `json:"afterHash"`
	ImpactFormHash   string `json:"impactFormHash"`
	Lat              string `json:"lat"`
	Lng              string `json:"lng"`
	Referrer         string `json:"referrer,omitempty"`
	Status           string `json:"status"`
	VerificationHash string `json:"verificationHash,omitempty"`
	CreatedAt        uint64 `json:"createdAt"`
}

func submissionView(record *submission.Submission) submissionResponse {
	resp := submissionResponse{
		ID:             record.ID,
		Submitter:      crypto.BytesToAddress(record.Submitter).String(),
		DataURI:        record.DataURI,
		BeforeHash:     encodeHash(record.BeforeHash),
		AfterHash:      encodeHash(record.AfterHash),
		ImpactFormHash: encodeHash(record.ImpactFormHash),
		Lat:            record.Lat,
		Lng:            record.Lng,
		Status:         record.Status.String(),
		CreatedAt:      record.CreatedAt,
	}
	if len(record.Referrer) > 0 {
		resp.Referrer = crypto.BytesToAddress(record.Referrer).String()
	}
	if record.VerificationSet {
		resp.VerificationHash = encodeHash(record.Verification)
	}
	return resp
}
