package http

import (
	"net/http"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/service"
)

// CatalogHandler serves capacity and pricing queries plus the admin settings that drive them.
type CatalogHandler struct {
	capacitySvc   service.CapacityService
	pricingSvc    service.PricingService
	membershipSvc service.MembershipService
	settings      service.SettingsResolver
}

func NewCatalogHandler(capacitySvc service.CapacityService, pricingSvc service.PricingService, membershipSvc service.MembershipService, settings service.SettingsResolver) *CatalogHandler {
	return &CatalogHandler{
		capacitySvc:   capacitySvc,
		pricingSvc:    pricingSvc,
		membershipSvc: membershipSvc,
		settings:      settings,
	}
}

func (h *CatalogHandler) CheckCapacity(w http.ResponseWriter, r *http.Request) {
	var q domain.CapacityQuery
	if err := decodeJSON(r, &q); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.capacitySvc.CheckCapacity(r.Context(), q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// QuotePricing prices for the caller; staff may quote for another customer_id.
func (h *CatalogHandler) QuotePricing(w http.ResponseWriter, r *http.Request) {
	var in domain.PricingInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	c := caller(r)
	if !c.IsWorker() || in.CustomerID == 0 {
		in.CustomerID = c.UserID
	}
	res, err := h.pricingSvc.QuotePricing(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CatalogHandler) MembershipTier(w http.ResponseWriter, r *http.Request) {
	info, err := h.membershipSvc.GetCustomerTier(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *CatalogHandler) UpdatePricingRule(w http.ResponseWriter, r *http.Request) {
	var rule domain.PricingRule
	if err := decodeJSON(r, &rule); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.settings.UpdatePricingRule(r.Context(), &rule); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *CatalogHandler) UpdateMembershipTiers(w http.ResponseWriter, r *http.Request) {
	var tiers []domain.MembershipTierSetting
	if err := decodeJSON(r, &tiers); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.settings.UpdateMembershipTiers(r.Context(), tiers); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tiers)
}
