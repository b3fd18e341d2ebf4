package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreditTransactionType string

const (
	CreditTransactionPaymentDebit CreditTransactionType = "payment_debit"
	CreditTransactionRefundCredit CreditTransactionType = "refund_credit"
	CreditTransactionClaimPayout  CreditTransactionType = "claim_payout"
	CreditTransactionAdjustment   CreditTransactionType = "adjustment"
)

type CreditTransaction struct {
	ID          int32                 `json:"id"`
	CustomerID  int32                 `json:"customer_id"`
	Amount      decimal.Decimal       `json:"amount"` // positive for credit, negative for debit
	Type        CreditTransactionType `json:"type"`
	PaymentID   *int32                `json:"payment_id,omitempty"`
	ClaimID     *int32                `json:"claim_id,omitempty"`
	Description string                `json:"description"`
	CreatedAt   time.Time             `json:"created_at"`
}
