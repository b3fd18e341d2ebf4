package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/repository/postgres"
)

func TestCreditRepository_Debit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewCreditRepository(db)
	ctx := context.Background()
	paymentID := int32(5)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE customer_credits SET balance = balance - \\$2").
			WithArgs(int32(10), decimal.NewFromInt(30)).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("70.00"))
		mock.ExpectQuery("INSERT INTO credit_transactions").
			WithArgs(int32(10), decimal.NewFromInt(-30), domain.CreditTransactionPaymentDebit, &paymentID, nil, "invoice payment", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		tx := &domain.CreditTransaction{
			CustomerID:  10,
			Amount:      decimal.NewFromInt(30),
			Type:        domain.CreditTransactionPaymentDebit,
			PaymentID:   &paymentID,
			Description: "invoice payment",
		}
		err := repo.Debit(ctx, tx)
		assert.NoError(t, err)
		assert.Equal(t, int32(1), tx.ID)
		assert.True(t, tx.Amount.IsNegative())
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE customer_credits SET balance = balance - \\$2").
			WithArgs(int32(10), decimal.NewFromInt(500)).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}))
		mock.ExpectRollback()

		err := repo.Debit(ctx, &domain.CreditTransaction{CustomerID: 10, Amount: decimal.NewFromInt(500), Type: domain.CreditTransactionPaymentDebit})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepository_Credit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewCreditRepository(db)
	claimID := int32(9)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO customer_credits").
		WithArgs(int32(10), decimal.NewFromInt(250)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO credit_transactions").
		WithArgs(int32(10), decimal.NewFromInt(250), domain.CreditTransactionClaimPayout, nil, &claimID, "claim payout", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	err = repo.Credit(context.Background(), &domain.CreditTransaction{
		CustomerID:  10,
		Amount:      decimal.NewFromInt(250),
		Type:        domain.CreditTransactionClaimPayout,
		ClaimID:     &claimID,
		Description: "claim payout",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepository_GetBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewCreditRepository(db)

	mock.ExpectQuery("SELECT COALESCE\\(\\(SELECT balance FROM customer_credits").
		WithArgs(int32(10)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("125.50"))

	balance, err := repo.GetBalance(context.Background(), 10)
	assert.NoError(t, err)
	assert.Equal(t, "125.50", balance.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}
