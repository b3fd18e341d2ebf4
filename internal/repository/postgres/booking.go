package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `id, customer_id, warehouse_id, booking_type, pallet_count, area_sq_ft, floor_id, hall_id, reserved_zone_id,
	start_date, end_date, months, total_amount, status, booked_on_behalf, booked_by, requires_approval, approval_status, approved_at,
	is_pre_order, scheduled_dropoff_at, time_slot_set_by, time_slot_confirmed_at, COALESCE(notes, ''), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(s rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := s.Scan(&b.ID, &b.CustomerID, &b.WarehouseID, &b.Type, &b.PalletCount, &b.AreaSqFt, &b.FloorID, &b.HallID, &b.ReservedZoneID,
		&b.StartDate, &b.EndDate, &b.Months, &b.TotalAmount, &b.Status, &b.BookedOnBehalf, &b.BookedBy, &b.RequiresApproval, &b.ApprovalStatus, &b.ApprovedAt,
		&b.IsPreOrder, &b.ScheduledDropoffAt, &b.TimeSlotSetBy, &b.TimeSlotConfirmedAt, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `INSERT INTO bookings (customer_id, warehouse_id, booking_type, pallet_count, area_sq_ft, floor_id, hall_id,
	              start_date, end_date, months, total_amount, status, booked_on_behalf, booked_by, requires_approval, approval_status,
	              is_pre_order, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20) RETURNING id`
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	logger.DatabaseCall("INSERT", "bookings", "customerID", b.CustomerID, "warehouseID", b.WarehouseID)
	err := r.db.QueryRowContext(ctx, query, b.CustomerID, b.WarehouseID, b.Type, b.PalletCount, b.AreaSqFt, b.FloorID, b.HallID,
		b.StartDate, b.EndDate, b.Months, b.TotalAmount, b.Status, b.BookedOnBehalf, b.BookedBy, b.RequiresApproval, b.ApprovalStatus,
		b.IsPreOrder, b.Notes, b.CreatedAt, b.UpdatedAt).Scan(&b.ID)
	logger.DatabaseResult("INSERT", 1, err, "bookingID", b.ID)
	return err
}

func (r *bookingRepository) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "booking", id)
	}
	return b, nil
}

func (r *bookingRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func statusStrings[T ~string](statuses []T) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *bookingRepository) ListByCustomer(ctx context.Context, customerID int32, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id = $1`
	args := []interface{}{customerID}
	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(statusStrings(statuses)))
	}
	query += ` ORDER BY created_at DESC`
	return r.list(ctx, query, args...)
}

func (r *bookingRepository) ListByStatus(ctx context.Context, bookingType domain.BookingType, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_type = $1 AND status = ANY($2) ORDER BY id`
	return r.list(ctx, query, bookingType, pq.Array(statusStrings(statuses)))
}

func (r *bookingRepository) SumActivePallets(ctx context.Context, customerID, warehouseID int32) (int32, error) {
	var total int32
	query := `SELECT COALESCE(SUM(pallet_count), 0) FROM bookings
	          WHERE customer_id = $1 AND warehouse_id = $2 AND booking_type = 'pallet' AND status IN ('confirmed', 'active')`
	err := r.db.QueryRowContext(ctx, query, customerID, warehouseID).Scan(&total)
	return total, err
}

// TransitionStatus leaves a column untouched when the matching update field is nil.
func (r *bookingRepository) TransitionStatus(ctx context.Context, id int32, from, to domain.BookingStatus, update domain.BookingUpdate) (*domain.Booking, error) {
	logger.EnterMethod("bookingRepository.TransitionStatus", "bookingID", id, "from", from, "to", to)
	query := `UPDATE bookings SET status = $3,
	              reserved_zone_id = COALESCE($4, reserved_zone_id),
	              hall_id = COALESCE($5, hall_id),
	              approval_status = COALESCE($6, approval_status),
	              approved_at = COALESCE($7, approved_at),
	              scheduled_dropoff_at = COALESCE($8, scheduled_dropoff_at),
	              time_slot_set_by = COALESCE($9, time_slot_set_by),
	              time_slot_confirmed_at = COALESCE($10, time_slot_confirmed_at),
	              updated_at = $11
	          WHERE id = $1 AND status = $2
	          RETURNING ` + bookingColumns
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", id, "from", from, "to", to)

	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id, from, to,
		update.ReservedZoneID, update.HallID, update.ApprovalStatus, update.ApprovedAt,
		update.ScheduledDropoffAt, update.TimeSlotSetBy, update.TimeSlotConfirmedAt, time.Now()))
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("UPDATE", 0, nil)
		err = fmt.Errorf("%w: booking %d is no longer %s", domain.ErrConflict, id, from)
		logger.ExitMethodWithError("bookingRepository.TransitionStatus", err)
		return nil, err
	}
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		logger.ExitMethodWithError("bookingRepository.TransitionStatus", err)
		return nil, err
	}
	logger.DatabaseResult("UPDATE", 1, nil)
	logger.ExitMethod("bookingRepository.TransitionStatus", "bookingID", id, "status", b.Status)
	return b, nil
}

func (r *bookingRepository) CreateApproval(ctx context.Context, a *domain.BookingApproval) error {
	query := `INSERT INTO booking_approvals (booking_id, booker_id, customer_id, status, created_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	a.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query, a.BookingID, a.BookerID, a.CustomerID, a.Status, a.CreatedAt).Scan(&a.ID)
	return translate(err, "booking approval", a.BookingID)
}

func (r *bookingRepository) GetPendingApproval(ctx context.Context, bookingID int32) (*domain.BookingApproval, error) {
	a := &domain.BookingApproval{}
	query := `SELECT id, booking_id, booker_id, customer_id, status, COALESCE(response_note, ''), responded_at, created_at
	          FROM booking_approvals WHERE booking_id = $1 AND status = 'pending' ORDER BY created_at DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, bookingID).Scan(&a.ID, &a.BookingID, &a.BookerID, &a.CustomerID, &a.Status, &a.ResponseNote, &a.RespondedAt, &a.CreatedAt)
	if err != nil {
		return nil, translate(err, "pending approval for booking", bookingID)
	}
	return a, nil
}

func (r *bookingRepository) UpdateApproval(ctx context.Context, a *domain.BookingApproval) error {
	query := `UPDATE booking_approvals SET status = $1, response_note = $2, responded_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, a.Status, a.ResponseNote, a.RespondedAt, a.ID)
	return err
}
