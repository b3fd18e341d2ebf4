package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/service"
)

type PaymentHandler struct {
	paymentSvc service.PaymentService
}

func NewPaymentHandler(paymentSvc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.CustomerID = caller(r).UserID
	res, err := h.paymentSvc.ProcessInvoicePayment(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.paymentSvc.ConfirmPayment(r.Context(), caller(r).UserID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req domain.RefundRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}
	}
	req.PaymentID = id
	refund, err := h.paymentSvc.ProcessRefund(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, refund)
}

func (h *PaymentHandler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	payments, err := h.paymentSvc.GetPaymentHistory(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

type creditResponse struct {
	Balance      decimal.Decimal                        `json:"balance"`
	Transactions pageResponse[domain.CreditTransaction] `json:"transactions"`
}

func (h *PaymentHandler) CreditBalance(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt32(r, "page", 1)
	if err != nil {
		respondError(w, r, err)
		return
	}
	pageSize, err := queryInt32(r, "page_size", 20)
	if err != nil {
		respondError(w, r, err)
		return
	}
	customerID := caller(r).UserID
	balance, err := h.paymentSvc.GetCreditBalance(r.Context(), customerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	txs, total, err := h.paymentSvc.GetCreditTransactions(r.Context(), customerID, page, pageSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if txs == nil {
		txs = []domain.CreditTransaction{}
	}
	writeJSON(w, http.StatusOK, creditResponse{
		Balance:      balance,
		Transactions: pageResponse[domain.CreditTransaction]{Items: txs, Total: total, Page: page, PageSize: pageSize},
	})
}
