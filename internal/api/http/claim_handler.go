package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/service"
)

type ClaimHandler struct {
	claimSvc service.ClaimService
}

func NewClaimHandler(claimSvc service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimSvc: claimSvc}
}

func (h *ClaimHandler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.CustomerID = caller(r).UserID
	c, err := h.claimSvc.SubmitClaim(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type incidentClaimBody struct {
	Type        domain.ClaimType `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description"`
}

func (h *ClaimHandler) ClaimFromIncident(w http.ResponseWriter, r *http.Request) {
	incidentID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var body incidentClaimBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := h.claimSvc.CreateClaimFromIncident(r.Context(), caller(r).UserID, incidentID, body.Type, body.Amount, body.Description)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ClaimHandler) GetClaim(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	c := caller(r)
	claim, err := h.claimSvc.GetClaim(r.Context(), c.UserID, c.IsWorker(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (h *ClaimHandler) StartReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	claim, err := h.claimSvc.StartReview(r.Context(), caller(r).UserID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (h *ClaimHandler) ReviewClaim(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req domain.ReviewClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.ClaimID = id
	req.ReviewerID = caller(r).UserID
	claim, err := h.claimSvc.ReviewClaim(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

type payClaimBody struct {
	Reference string `json:"reference"`
}

func (h *ClaimHandler) PayClaim(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var body payClaimBody
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			respondError(w, r, err)
			return
		}
	}
	claim, err := h.claimSvc.ProcessClaimPayment(r.Context(), id, body.Reference)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (h *ClaimHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.claimSvc.GetClaimStats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *ClaimHandler) Pending(w http.ResponseWriter, r *http.Request) {
	claims, err := h.claimSvc.ListPendingClaims(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if claims == nil {
		claims = []domain.Claim{}
	}
	writeJSON(w, http.StatusOK, claims)
}

type escalateBody struct {
	OlderThanDays int `json:"older_than_days"`
}

func (h *ClaimHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	var body escalateBody
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			respondError(w, r, err)
			return
		}
	}
	res, err := h.claimSvc.EscalatePendingClaims(r.Context(), body.OlderThanDays)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
