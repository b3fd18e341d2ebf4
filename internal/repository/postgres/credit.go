package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

type creditRepository struct {
	db *sql.DB
}

func NewCreditRepository(db *sql.DB) repository.CreditRepository {
	return &creditRepository{db: db}
}

func (r *creditRepository) GetBalance(ctx context.Context, customerID int32) (decimal.Decimal, error) {
	var balance decimal.Decimal
	query := `SELECT COALESCE((SELECT balance FROM customer_credits WHERE customer_id = $1), 0)`
	err := r.db.QueryRowContext(ctx, query, customerID).Scan(&balance)
	return balance, err
}

func (r *creditRepository) insertTransaction(ctx context.Context, tx *sql.Tx, ct *domain.CreditTransaction) error {
	query := `INSERT INTO credit_transactions (customer_id, amount, type, payment_id, claim_id, description, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	ct.CreatedAt = time.Now()
	return tx.QueryRowContext(ctx, query, ct.CustomerID, ct.Amount, ct.Type, ct.PaymentID, ct.ClaimID, ct.Description, ct.CreatedAt).Scan(&ct.ID)
}

// Debit records ct.Amount as a negative transaction. The balance never goes below zero.
func (r *creditRepository) Debit(ctx context.Context, ct *domain.CreditTransaction) error {
	logger.EnterMethod("creditRepository.Debit", "customerID", ct.CustomerID, "amount", ct.Amount.String())
	amount := ct.Amount.Abs()
	if !amount.IsPositive() {
		return domain.ValidationError("debit amount must be positive")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var balance decimal.Decimal
	logger.DatabaseCall("UPDATE", "customer_credits", "customerID", ct.CustomerID)
	err = tx.QueryRowContext(ctx, `UPDATE customer_credits SET balance = balance - $2, updated_at = NOW()
	                               WHERE customer_id = $1 AND balance >= $2 RETURNING balance`, ct.CustomerID, amount).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethod("creditRepository.Debit", "debited", false)
		return domain.ValidationError("credit balance of customer %d does not cover %s", ct.CustomerID, amount.StringFixed(2))
	}
	if err != nil {
		logger.ExitMethodWithError("creditRepository.Debit", err)
		return err
	}

	ct.Amount = amount.Neg()
	if err := r.insertTransaction(ctx, tx, ct); err != nil {
		logger.ExitMethodWithError("creditRepository.Debit", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.ExitMethod("creditRepository.Debit", "transactionID", ct.ID, "balance", balance.String())
	return nil
}

func (r *creditRepository) Credit(ctx context.Context, ct *domain.CreditTransaction) error {
	logger.EnterMethod("creditRepository.Credit", "customerID", ct.CustomerID, "amount", ct.Amount.String())
	amount := ct.Amount.Abs()
	if !amount.IsPositive() {
		return domain.ValidationError("credit amount must be positive")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	logger.DatabaseCall("UPSERT", "customer_credits", "customerID", ct.CustomerID)
	_, err = tx.ExecContext(ctx, `INSERT INTO customer_credits (customer_id, balance, updated_at) VALUES ($1, $2, NOW())
	                              ON CONFLICT (customer_id) DO UPDATE SET balance = customer_credits.balance + EXCLUDED.balance, updated_at = NOW()`,
		ct.CustomerID, amount)
	if err != nil {
		logger.ExitMethodWithError("creditRepository.Credit", err)
		return err
	}

	ct.Amount = amount
	if err := r.insertTransaction(ctx, tx, ct); err != nil {
		logger.ExitMethodWithError("creditRepository.Credit", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.ExitMethod("creditRepository.Credit", "transactionID", ct.ID)
	return nil
}

func (r *creditRepository) ListTransactions(ctx context.Context, customerID int32, page, pageSize int32) ([]domain.CreditTransaction, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT id, customer_id, amount, type, payment_id, claim_id, COALESCE(description, ''), created_at
	          FROM credit_transactions WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, customerID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var count int32
	countQuery := `SELECT count(*) FROM credit_transactions WHERE customer_id = $1`
	err = r.db.QueryRowContext(ctx, countQuery, customerID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	var txs []domain.CreditTransaction
	for rows.Next() {
		var ct domain.CreditTransaction
		if err := rows.Scan(&ct.ID, &ct.CustomerID, &ct.Amount, &ct.Type, &ct.PaymentID, &ct.ClaimID, &ct.Description, &ct.CreatedAt); err != nil {
			return nil, 0, err
		}
		txs = append(txs, ct)
	}
	return txs, count, nil
}
