package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusProcessing        PaymentStatus = "processing"
	PaymentStatusSucceeded         PaymentStatus = "succeeded"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

type PaymentMethod string

const (
	PaymentMethodCard          PaymentMethod = "card"
	PaymentMethodCreditBalance PaymentMethod = "credit_balance"
)

type Payment struct {
	ID                int32           `json:"id"`
	InvoiceID         int32           `json:"invoice_id"`
	CustomerID        int32           `json:"customer_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            PaymentStatus   `json:"status"`
	Method            PaymentMethod   `json:"payment_method"`
	CreditBalanceUsed decimal.Decimal `json:"credit_balance_used"`
	RefundedAmount    decimal.Decimal `json:"refunded_amount"`
	GatewayCustomerID string          `json:"gateway_customer_id,omitempty"`
	GatewayIntentID   string          `json:"gateway_intent_id,omitempty"`
	ClientSecret      string          `json:"client_secret,omitempty"`
	GatewayChargeID   string          `json:"gateway_charge_id,omitempty"`
	FailureReason     string          `json:"failure_reason,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// CardAmount is the part of the payment charged through the gateway.
func (p *Payment) CardAmount() decimal.Decimal {
	return p.Amount.Sub(p.CreditBalanceUsed)
}

type RefundDestination string

const (
	RefundDestinationCard          RefundDestination = "card"
	RefundDestinationCreditBalance RefundDestination = "credit_balance"
)

type Refund struct {
	ID              int32             `json:"id"`
	PaymentID       int32             `json:"payment_id"`
	Amount          decimal.Decimal   `json:"amount"`
	Destination     RefundDestination `json:"destination"`
	GatewayRefundID string            `json:"gateway_refund_id,omitempty"`
	Reason          string            `json:"reason"`
	CreatedAt       time.Time         `json:"created_at"`
}

type PaymentRequest struct {
	CustomerID       int32            `json:"customer_id" validate:"required"`
	InvoiceID        int32            `json:"invoice_id" validate:"required"`
	UseCreditBalance bool             `json:"use_credit_balance"`
	CreditAmount     *decimal.Decimal `json:"credit_amount,omitempty"`
}

type PaymentResult struct {
	Payment        *Payment `json:"payment"`
	ClientSecret   string   `json:"client_secret,omitempty"`
	RequiresAction bool     `json:"requires_action"`
}

type RefundRequest struct {
	PaymentID       int32            `json:"payment_id" validate:"required"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Reason          string           `json:"reason"`
	ToCreditBalance bool             `json:"to_credit_balance"`
}
