package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/repository"
)

type claimRepository struct {
	db *sql.DB
}

func NewClaimRepository(db *sql.DB) repository.ClaimRepository {
	return &claimRepository{db: db}
}

const claimColumns = `id, customer_id, booking_id, incident_id, claim_type, amount, approved_amount, status, COALESCE(description, ''),
	reviewer_id, COALESCE(review_notes, ''), COALESCE(payment_reference, ''), submitted_at, reviewed_at, paid_at`

func scanClaim(s rowScanner) (*domain.Claim, error) {
	c := &domain.Claim{}
	err := s.Scan(&c.ID, &c.CustomerID, &c.BookingID, &c.IncidentID, &c.Type, &c.Amount, &c.ApprovedAmount, &c.Status, &c.Description,
		&c.ReviewerID, &c.ReviewNotes, &c.PaymentReference, &c.SubmittedAt, &c.ReviewedAt, &c.PaidAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *claimRepository) Create(ctx context.Context, c *domain.Claim) error {
	query := `INSERT INTO claims (customer_id, booking_id, incident_id, claim_type, amount, status, description, submitted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if c.SubmittedAt.IsZero() {
		c.SubmittedAt = time.Now()
	}
	return r.db.QueryRowContext(ctx, query, c.CustomerID, c.BookingID, c.IncidentID, c.Type, c.Amount, c.Status, c.Description, c.SubmittedAt).Scan(&c.ID)
}

func (r *claimRepository) GetByID(ctx context.Context, id int32) (*domain.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`
	c, err := scanClaim(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "claim", id)
	}
	return c, nil
}

// Update writes the mutable review and payout fields, guarded by the expected prior status.
func (r *claimRepository) Update(ctx context.Context, c *domain.Claim, from domain.ClaimStatus) error {
	query := `UPDATE claims SET status = $3, approved_amount = $4, reviewer_id = $5, review_notes = $6,
	              payment_reference = $7, reviewed_at = $8, paid_at = $9
	          WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, c.ID, from, c.Status, c.ApprovedAmount, c.ReviewerID, c.ReviewNotes,
		c.PaymentReference, c.ReviewedAt, c.PaidAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: claim %d is no longer %s", domain.ErrConflict, c.ID, from)
	}
	return nil
}

func (r *claimRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Claim, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []domain.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

func (r *claimRepository) ListByStatus(ctx context.Context, statuses []domain.ClaimStatus) ([]domain.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims`
	var args []interface{}
	if len(statuses) > 0 {
		query += ` WHERE status = ANY($1)`
		args = append(args, pq.Array(statusStrings(statuses)))
	}
	query += ` ORDER BY submitted_at`
	return r.list(ctx, query, args...)
}

func (r *claimRepository) ListSubmittedBefore(ctx context.Context, cutoff time.Time) ([]domain.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims
	          WHERE status IN ('submitted', 'under-review') AND submitted_at < $1 ORDER BY submitted_at`
	return r.list(ctx, query, cutoff)
}

func (r *claimRepository) GetIncident(ctx context.Context, id int32) (*domain.Incident, error) {
	i := &domain.Incident{}
	query := `SELECT id, booking_id, warehouse_id, incident_type, severity, status, COALESCE(description, ''), reported_by, created_at
	          FROM incidents WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&i.ID, &i.BookingID, &i.WarehouseID, &i.Type, &i.Severity, &i.Status, &i.Description, &i.ReportedBy, &i.CreatedAt)
	if err != nil {
		return nil, translate(err, "incident", id)
	}
	return i, nil
}

func (r *claimRepository) UpdateIncidentStatus(ctx context.Context, id int32, status domain.IncidentStatus) error {
	query := `UPDATE incidents SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError("incident", id)
	}
	return nil
}
