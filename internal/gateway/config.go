package gateway

import (
	"fmt"
	"time"
)

// Config holds gateway configuration
type Config struct {
	Type    string        // "mock"
	Timeout time.Duration // Applied to every call
}

// New builds the configured gateway wrapped with the call timeout
func New(cfg Config) (PaymentGateway, error) {
	var gw PaymentGateway
	switch cfg.Type {
	case "", "mock":
		gw = NewMockGateway()
	default:
		return nil, fmt.Errorf("unsupported payment gateway: %s", cfg.Type)
	}
	return WithTimeout(gw, cfg.Timeout), nil
}
