package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownIntent  = errors.New("unknown payment intent")
	ErrUnknownCharge  = errors.New("unknown charge")
	ErrRefundTooLarge = errors.New("refund exceeds charge")
)

type mockIntent struct {
	intent   Intent
	amount   decimal.Decimal
	chargeID string
}

type mockCharge struct {
	amount   decimal.Decimal
	refunded decimal.Decimal
}

// MockGateway is an in-memory sandbox processor for development and tests.
// Intents whose amount equals DeclineAmount fail on confirmation.
type MockGateway struct {
	mu            sync.Mutex
	customers     map[int32]string
	intents       map[string]*mockIntent
	charges       map[string]*mockCharge
	DeclineAmount *decimal.Decimal
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		customers: make(map[int32]string),
		intents:   make(map[string]*mockIntent),
		charges:   make(map[string]*mockCharge),
	}
}

func (m *MockGateway) GetOrCreateCustomer(ctx context.Context, customerID int32, email string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ref, ok := m.customers[customerID]; ok {
		return ref, nil
	}
	ref := "cus_" + uuid.New().String()
	m.customers[customerID] = ref
	return ref, nil
}

func (m *MockGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("intent amount must be positive, got %s", req.Amount)
	}
	id := "pi_" + uuid.New().String()
	intent := Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.New().String()[:8],
		Status:       IntentStatusRequiresConfirmation,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[id] = &mockIntent{intent: intent, amount: req.Amount}
	return &intent, nil
}

func (m *MockGateway) ConfirmPaymentIntent(ctx context.Context, intentID string) (*IntentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	mi, ok := m.intents[intentID]
	if !ok {
		return nil, ErrUnknownIntent
	}
	switch mi.intent.Status {
	case IntentStatusSucceeded:
		return &IntentResult{Status: IntentStatusSucceeded, ChargeID: mi.chargeID}, nil
	case IntentStatusFailed:
		return &IntentResult{Status: IntentStatusFailed, FailureReason: "card_declined"}, nil
	}

	if m.DeclineAmount != nil && m.DeclineAmount.Equal(mi.amount) {
		mi.intent.Status = IntentStatusFailed
		return &IntentResult{Status: IntentStatusFailed, FailureReason: "card_declined"}, nil
	}

	mi.intent.Status = IntentStatusSucceeded
	mi.chargeID = "ch_" + uuid.New().String()
	m.charges[mi.chargeID] = &mockCharge{amount: mi.amount}
	return &IntentResult{Status: IntentStatusSucceeded, ChargeID: mi.chargeID}, nil
}

func (m *MockGateway) CreateRefund(ctx context.Context, chargeID string, amount decimal.Decimal) (*RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.charges[chargeID]
	if !ok {
		return nil, ErrUnknownCharge
	}
	if ch.refunded.Add(amount).GreaterThan(ch.amount) {
		return nil, ErrRefundTooLarge
	}
	ch.refunded = ch.refunded.Add(amount)
	return &RefundResult{ID: "re_" + uuid.New().String(), Status: "succeeded"}, nil
}
