package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"warehub-backend/internal/logger"
)

type timeoutGateway struct {
	next    PaymentGateway
	timeout time.Duration
}

// WithTimeout bounds every gateway call by d. A zero duration returns gw unchanged.
func WithTimeout(gw PaymentGateway, d time.Duration) PaymentGateway {
	if d <= 0 {
		return gw
	}
	return &timeoutGateway{next: gw, timeout: d}
}

func (g *timeoutGateway) GetOrCreateCustomer(ctx context.Context, customerID int32, email string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	logger.ExternalServiceCall("payment_gateway", "GetOrCreateCustomer", "customer_id", customerID)
	ref, err := g.next.GetOrCreateCustomer(ctx, customerID, email)
	logger.ExternalServiceResult("payment_gateway", "GetOrCreateCustomer", err)
	return ref, err
}

func (g *timeoutGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	logger.ExternalServiceCall("payment_gateway", "CreatePaymentIntent", "amount", req.Amount.String())
	intent, err := g.next.CreatePaymentIntent(ctx, req)
	logger.ExternalServiceResult("payment_gateway", "CreatePaymentIntent", err)
	return intent, err
}

func (g *timeoutGateway) ConfirmPaymentIntent(ctx context.Context, intentID string) (*IntentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	logger.ExternalServiceCall("payment_gateway", "ConfirmPaymentIntent", "intent_id", intentID)
	res, err := g.next.ConfirmPaymentIntent(ctx, intentID)
	logger.ExternalServiceResult("payment_gateway", "ConfirmPaymentIntent", err)
	return res, err
}

func (g *timeoutGateway) CreateRefund(ctx context.Context, chargeID string, amount decimal.Decimal) (*RefundResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	logger.ExternalServiceCall("payment_gateway", "CreateRefund", "charge_id", chargeID, "amount", amount.String())
	res, err := g.next.CreateRefund(ctx, chargeID, amount)
	logger.ExternalServiceResult("payment_gateway", "CreateRefund", err)
	return res, err
}
