package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, invoice_id, customer_id, amount, currency, status, payment_method, credit_balance_used, refunded_amount,
	COALESCE(gateway_customer_id, ''), COALESCE(gateway_intent_id, ''), COALESCE(client_secret, ''), COALESCE(gateway_charge_id, ''),
	COALESCE(failure_reason, ''), created_at, updated_at`

func scanPayment(s rowScanner) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := s.Scan(&p.ID, &p.InvoiceID, &p.CustomerID, &p.Amount, &p.Currency, &p.Status, &p.Method, &p.CreditBalanceUsed, &p.RefundedAmount,
		&p.GatewayCustomerID, &p.GatewayIntentID, &p.ClientSecret, &p.GatewayChargeID, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (invoice_id, customer_id, amount, currency, status, payment_method, credit_balance_used, refunded_amount, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	logger.DatabaseCall("INSERT", "payments", "invoiceID", p.InvoiceID, "amount", p.Amount.String())
	err := r.db.QueryRowContext(ctx, query, p.InvoiceID, p.CustomerID, p.Amount, p.Currency, p.Status, p.Method,
		p.CreditBalanceUsed, p.RefundedAmount, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	logger.DatabaseResult("INSERT", 1, err, "paymentID", p.ID)
	if err != nil {
		return translate(err, "open payment for invoice", p.InvoiceID)
	}
	return nil
}

func (r *paymentRepository) HasOpenPayment(ctx context.Context, invoiceID int32) (bool, error) {
	var open bool
	query := `SELECT EXISTS (SELECT 1 FROM payments WHERE invoice_id = $1 AND status IN ('pending', 'processing'))`
	err := r.db.QueryRowContext(ctx, query, invoiceID).Scan(&open)
	return open, err
}

func (r *paymentRepository) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "payment", id)
	}
	return p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	query := `UPDATE payments SET status = $1, payment_method = $2, credit_balance_used = $3, refunded_amount = $4,
	              gateway_customer_id = $5, gateway_intent_id = $6, client_secret = $7, gateway_charge_id = $8, failure_reason = $9, updated_at = $10
	          WHERE id = $11`
	p.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query, p.Status, p.Method, p.CreditBalanceUsed, p.RefundedAmount,
		p.GatewayCustomerID, p.GatewayIntentID, p.ClientSecret, p.GatewayChargeID, p.FailureReason, p.UpdatedAt, p.ID)
	return err
}

// AddRefund moves refunded_amount by delta and derives the status from the result. The
// predicate keeps refunded_amount within [0, amount]; a negative delta undoes a reservation.
func (r *paymentRepository) AddRefund(ctx context.Context, id int32, delta decimal.Decimal) (*domain.Payment, error) {
	query := `UPDATE payments SET refunded_amount = refunded_amount + $2,
	              status = CASE
	                  WHEN refunded_amount + $2 = 0 THEN 'succeeded'
	                  WHEN refunded_amount + $2 = amount THEN 'refunded'
	                  ELSE 'partially_refunded'
	              END,
	              updated_at = $3
	          WHERE id = $1 AND status IN ('succeeded', 'partially_refunded', 'refunded')
	            AND refunded_amount + $2 >= 0 AND refunded_amount + $2 <= amount
	          RETURNING ` + paymentColumns
	logger.DatabaseCall("UPDATE", "payments", "paymentID", id, "refundDelta", delta.String())
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id, delta, time.Now()))
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: payment %d cannot take a refund change of %s", domain.ErrConflict, id, delta.StringFixed(2))
	}
	logger.DatabaseResult("UPDATE", 1, err, "paymentID", id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) ListByCustomer(ctx context.Context, customerID int32) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE customer_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *paymentRepository) SumSucceededByCustomer(ctx context.Context, customerID int32) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount - refunded_amount), 0) FROM payments
	          WHERE customer_id = $1 AND status IN ('succeeded', 'partially_refunded')`
	err := r.db.QueryRowContext(ctx, query, customerID).Scan(&total)
	return total, err
}

func (r *paymentRepository) CreateRefund(ctx context.Context, rf *domain.Refund) error {
	query := `INSERT INTO refunds (payment_id, amount, destination, gateway_refund_id, reason, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	rf.CreatedAt = time.Now()
	return r.db.QueryRowContext(ctx, query, rf.PaymentID, rf.Amount, rf.Destination, rf.GatewayRefundID, rf.Reason, rf.CreatedAt).Scan(&rf.ID)
}

func (r *paymentRepository) ListRefunds(ctx context.Context, paymentID int32) ([]domain.Refund, error) {
	query := `SELECT id, payment_id, amount, destination, COALESCE(gateway_refund_id, ''), COALESCE(reason, ''), created_at
	          FROM refunds WHERE payment_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []domain.Refund
	for rows.Next() {
		var rf domain.Refund
		if err := rows.Scan(&rf.ID, &rf.PaymentID, &rf.Amount, &rf.Destination, &rf.GatewayRefundID, &rf.Reason, &rf.CreatedAt); err != nil {
			return nil, err
		}
		refunds = append(refunds, rf)
	}
	return refunds, rows.Err()
}
