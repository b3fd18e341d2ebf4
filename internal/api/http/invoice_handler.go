package http

import (
	"net/http"
	"time"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/service"
)

type InvoiceHandler struct {
	invoiceSvc service.InvoiceService
}

func NewInvoiceHandler(invoiceSvc service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceSvc: invoiceSvc}
}

func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	c := caller(r)
	inv, err := h.invoiceSvc.GetInvoice(r.Context(), c.UserID, c.IsWorker(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.invoiceSvc.ListCustomerInvoices(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if invoices == nil {
		invoices = []domain.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) GenerateBookingInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	inv, err := h.invoiceSvc.GenerateBookingInvoice(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) GenerateAnnualInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	inv, err := h.invoiceSvc.GenerateAnnualRentalInvoice(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) GenerateServiceOrderInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	inv, err := h.invoiceSvc.GenerateServiceOrderInvoice(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

type asOfBody struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}

func (b asOfBody) at() time.Time {
	if b.AsOf == nil {
		return time.Now().UTC()
	}
	return b.AsOf.UTC()
}

type monthlyInvoiceResponse struct {
	Invoice *domain.Invoice `json:"invoice"`
	Created bool            `json:"created"`
}

// GenerateMonthlyInvoice is idempotent per calendar month; 200 means an existing invoice was returned.
func (h *InvoiceHandler) GenerateMonthlyInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var body asOfBody
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			respondError(w, r, err)
			return
		}
	}
	inv, created, err := h.invoiceSvc.GenerateMonthlyStorageInvoice(r.Context(), id, body.at())
	if err != nil {
		respondError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, monthlyInvoiceResponse{Invoice: inv, Created: created})
}

func (h *InvoiceHandler) GenerateMonthlyBatch(w http.ResponseWriter, r *http.Request) {
	var body asOfBody
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			respondError(w, r, err)
			return
		}
	}
	res, err := h.invoiceSvc.GenerateMonthlyInvoicesForActiveBookings(r.Context(), body.at())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
