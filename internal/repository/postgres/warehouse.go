package postgres

import (
	"context"
	"database/sql"
	"errors"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

type warehouseRepository struct {
	db *sql.DB
}

func NewWarehouseRepository(db *sql.DB) repository.WarehouseRepository {
	return &warehouseRepository{db: db}
}

const zoneColumns = `id, warehouse_id, name, total_slots, available_slots`
const hallColumns = `id, warehouse_id, floor_id, name, total_sq_ft, available_sq_ft, occupied_sq_ft`

func (r *warehouseRepository) GetByID(ctx context.Context, id int32) (*domain.Warehouse, error) {
	w := &domain.Warehouse{}
	query := `SELECT id, owner_id, name, COALESCE(city, ''), status, created_at FROM warehouses WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&w.ID, &w.OwnerID, &w.Name, &w.City, &w.Status, &w.CreatedAt)
	if err != nil {
		return nil, translate(err, "warehouse", id)
	}
	return w, nil
}

func (r *warehouseRepository) ListZones(ctx context.Context, warehouseID int32) ([]domain.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE warehouse_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []domain.Zone
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.ID, &z.WarehouseID, &z.Name, &z.TotalSlots, &z.AvailableSlots); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (r *warehouseRepository) ListHalls(ctx context.Context, warehouseID int32, floorID *int32) ([]domain.Hall, error) {
	query := `SELECT ` + hallColumns + ` FROM halls WHERE warehouse_id = $1`
	args := []interface{}{warehouseID}
	if floorID != nil {
		query += ` AND floor_id = $2`
		args = append(args, *floorID)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var halls []domain.Hall
	for rows.Next() {
		var h domain.Hall
		if err := rows.Scan(&h.ID, &h.WarehouseID, &h.FloorID, &h.Name, &h.TotalSqFt, &h.AvailableSqFt, &h.OccupiedSqFt); err != nil {
			return nil, err
		}
		halls = append(halls, h)
	}
	return halls, rows.Err()
}

func (r *warehouseRepository) GetHall(ctx context.Context, id int32) (*domain.Hall, error) {
	h := &domain.Hall{}
	query := `SELECT ` + hallColumns + ` FROM halls WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&h.ID, &h.WarehouseID, &h.FloorID, &h.Name, &h.TotalSqFt, &h.AvailableSqFt, &h.OccupiedSqFt)
	if err != nil {
		return nil, translate(err, "hall", id)
	}
	return h, nil
}

// zoneReserveAttempts bounds retries after losing the picked zone to a concurrent reservation.
const zoneReserveAttempts = 2

// ReserveZoneSlots picks and decrements the zone in one statement. The row lock taken by the
// subquery plus the repeated predicate in the outer WHERE keeps concurrent reservations from
// overdrawing a zone. A statement that loses its zone to a concurrent reservation returns no
// row, so the pick is retried once against the committed state.
func (r *warehouseRepository) ReserveZoneSlots(ctx context.Context, warehouseID, amount int32) (*domain.Zone, error) {
	logger.EnterMethod("warehouseRepository.ReserveZoneSlots", "warehouseID", warehouseID, "amount", amount)
	for attempt := 1; ; attempt++ {
		z, err := r.reserveZoneSlots(ctx, warehouseID, amount)
		if errors.Is(err, sql.ErrNoRows) {
			logger.DatabaseResult("UPDATE", 0, nil, "attempt", attempt)
			if attempt < zoneReserveAttempts {
				continue
			}
			logger.ExitMethod("warehouseRepository.ReserveZoneSlots", "reserved", false)
			return nil, domain.CapacityError("no single zone in warehouse %d has %d free pallet slots", warehouseID, amount)
		}
		if err != nil {
			logger.DatabaseResult("UPDATE", 0, err)
			logger.ExitMethodWithError("warehouseRepository.ReserveZoneSlots", err)
			return nil, err
		}
		logger.DatabaseResult("UPDATE", 1, nil, "zoneID", z.ID)
		logger.ExitMethod("warehouseRepository.ReserveZoneSlots", "zoneID", z.ID, "availableSlots", z.AvailableSlots)
		return z, nil
	}
}

func (r *warehouseRepository) reserveZoneSlots(ctx context.Context, warehouseID, amount int32) (*domain.Zone, error) {
	query := `UPDATE zones SET available_slots = available_slots - $2, updated_at = NOW()
	          WHERE id = (
	              SELECT id FROM zones
	              WHERE warehouse_id = $1 AND available_slots >= $2
	              ORDER BY available_slots DESC, id ASC
	              LIMIT 1 FOR UPDATE
	          ) AND available_slots >= $2
	          RETURNING ` + zoneColumns
	logger.DatabaseCall("UPDATE", "zones", "warehouseID", warehouseID, "amount", amount)

	z := &domain.Zone{}
	if err := r.db.QueryRowContext(ctx, query, warehouseID, amount).Scan(&z.ID, &z.WarehouseID, &z.Name, &z.TotalSlots, &z.AvailableSlots); err != nil {
		return nil, err
	}
	return z, nil
}

func (r *warehouseRepository) ReleaseZoneSlots(ctx context.Context, zoneID, amount int32) (*domain.Zone, error) {
	query := `UPDATE zones SET available_slots = LEAST(total_slots, available_slots + $2), updated_at = NOW()
	          WHERE id = $1 RETURNING ` + zoneColumns
	logger.DatabaseCall("UPDATE", "zones", "zoneID", zoneID, "amount", amount)

	z := &domain.Zone{}
	err := r.db.QueryRowContext(ctx, query, zoneID, amount).Scan(&z.ID, &z.WarehouseID, &z.Name, &z.TotalSlots, &z.AvailableSlots)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return nil, translate(err, "zone", zoneID)
	}
	logger.DatabaseResult("UPDATE", 1, nil, "zoneID", z.ID)
	return z, nil
}

func (r *warehouseRepository) ReserveHallArea(ctx context.Context, hallID, amount int32) (*domain.Hall, error) {
	query := `UPDATE halls SET available_sq_ft = available_sq_ft - $2, occupied_sq_ft = occupied_sq_ft + $2, updated_at = NOW()
	          WHERE id = $1 AND available_sq_ft >= $2
	          RETURNING ` + hallColumns
	logger.DatabaseCall("UPDATE", "halls", "hallID", hallID, "amount", amount)

	h := &domain.Hall{}
	err := r.db.QueryRowContext(ctx, query, hallID, amount).Scan(&h.ID, &h.WarehouseID, &h.FloorID, &h.Name, &h.TotalSqFt, &h.AvailableSqFt, &h.OccupiedSqFt)
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("UPDATE", 0, nil)
		// Distinguish a missing hall from a full one.
		current, getErr := r.GetHall(ctx, hallID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, domain.CapacityError("hall %d has %d sq ft available, %d required", hallID, current.AvailableSqFt, amount)
	}
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return nil, err
	}
	logger.DatabaseResult("UPDATE", 1, nil, "hallID", h.ID)
	return h, nil
}

func (r *warehouseRepository) ReleaseHallArea(ctx context.Context, hallID, amount int32) (*domain.Hall, error) {
	query := `UPDATE halls SET available_sq_ft = LEAST(total_sq_ft, available_sq_ft + $2),
	                           occupied_sq_ft = GREATEST(0, occupied_sq_ft - $2), updated_at = NOW()
	          WHERE id = $1 RETURNING ` + hallColumns
	logger.DatabaseCall("UPDATE", "halls", "hallID", hallID, "amount", amount)

	h := &domain.Hall{}
	err := r.db.QueryRowContext(ctx, query, hallID, amount).Scan(&h.ID, &h.WarehouseID, &h.FloorID, &h.Name, &h.TotalSqFt, &h.AvailableSqFt, &h.OccupiedSqFt)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return nil, translate(err, "hall", hallID)
	}
	logger.DatabaseResult("UPDATE", 1, nil, "hallID", h.ID)
	return h, nil
}
