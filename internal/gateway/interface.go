package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

type IntentStatus string

const (
	IntentStatusRequiresConfirmation IntentStatus = "requires_confirmation"
	IntentStatusRequiresAction       IntentStatus = "requires_action"
	IntentStatusSucceeded            IntentStatus = "succeeded"
	IntentStatusFailed               IntentStatus = "failed"
)

type IntentRequest struct {
	Amount      decimal.Decimal
	Currency    string
	CustomerRef string
	Metadata    map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
}

type IntentResult struct {
	Status        IntentStatus
	ChargeID      string
	FailureReason string
}

type RefundResult struct {
	ID     string
	Status string
}

// PaymentGateway executes charges and refunds with an external processor.
// All references it returns are opaque to the caller.
type PaymentGateway interface {
	GetOrCreateCustomer(ctx context.Context, customerID int32, email string) (string, error)
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	ConfirmPaymentIntent(ctx context.Context, intentID string) (*IntentResult, error)
	CreateRefund(ctx context.Context, chargeID string, amount decimal.Decimal) (*RefundResult, error)
}
