package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/repository"
)

type serviceOrderRepository struct {
	db *sql.DB
}

func NewServiceOrderRepository(db *sql.DB) repository.ServiceOrderRepository {
	return &serviceOrderRepository{db: db}
}

func (r *serviceOrderRepository) GetByID(ctx context.Context, id int32) (*domain.ServiceOrder, error) {
	o := &domain.ServiceOrder{}
	var items []byte
	query := `SELECT id, customer_id, warehouse_id, booking_id, status, items, created_at FROM service_orders WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.CustomerID, &o.WarehouseID, &o.BookingID, &o.Status, &items, &o.CreatedAt)
	if err != nil {
		return nil, translate(err, "service order", id)
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, err
		}
	}
	return o, nil
}
