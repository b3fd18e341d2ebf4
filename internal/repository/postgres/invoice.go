package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

type invoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceColumns = `id, invoice_number, invoice_type, customer_id, booking_id, service_order_id, items,
	subtotal, tax, total, currency, due_date, status, paid_at, created_at`

func scanInvoice(s rowScanner) (*domain.Invoice, error) {
	inv := &domain.Invoice{}
	var items []byte
	err := s.Scan(&inv.ID, &inv.InvoiceNumber, &inv.Type, &inv.CustomerID, &inv.BookingID, &inv.ServiceOrderID, &items,
		&inv.Subtotal, &inv.Tax, &inv.Total, &inv.Currency, &inv.DueDate, &inv.Status, &inv.PaidAt, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &inv.Items); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

func (r *invoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}
	query := `INSERT INTO invoices (invoice_number, invoice_type, customer_id, booking_id, service_order_id, items,
	              subtotal, tax, total, currency, due_date, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	logger.DatabaseCall("INSERT", "invoices", "customerID", inv.CustomerID, "type", inv.Type)
	err = r.db.QueryRowContext(ctx, query, inv.InvoiceNumber, inv.Type, inv.CustomerID, inv.BookingID, inv.ServiceOrderID, items,
		inv.Subtotal, inv.Tax, inv.Total, inv.Currency, inv.DueDate, inv.Status, inv.CreatedAt).Scan(&inv.ID)
	logger.DatabaseResult("INSERT", 1, err, "invoiceID", inv.ID)
	return translate(err, "invoice", inv.InvoiceNumber)
}

func (r *invoiceRepository) GetByID(ctx context.Context, id int32) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "invoice", id)
	}
	return inv, nil
}

func (r *invoiceRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (r *invoiceRepository) ListByCustomer(ctx context.Context, customerID int32) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE customer_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, customerID)
}

func (r *invoiceRepository) ListByBookingBetween(ctx context.Context, bookingID int32, from, to time.Time) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
	          WHERE booking_id = $1 AND created_at >= $2 AND created_at <= $3 ORDER BY created_at`
	return r.list(ctx, query, bookingID, from, to)
}

func (r *invoiceRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE status = 'pending' AND due_date < $1 ORDER BY due_date`
	return r.list(ctx, query, asOf)
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, id int32, status domain.InvoiceStatus, paidAt *time.Time) error {
	query := `UPDATE invoices SET status = $1, paid_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, paidAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError("invoice", id)
	}
	return nil
}
