package postgres

import (
	"database/sql"

	_ "github.com/lib/pq"

	"warehub-backend/internal/repository"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.WarehouseRepository
	repository.BookingRepository
	repository.SettingsRepository
	repository.InvoiceRepository
	repository.ServiceOrderRepository
	repository.PaymentRepository
	repository.CreditRepository
	repository.TaskRepository
	repository.ClaimRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		UserRepository:         NewUserRepository(db),
		WarehouseRepository:    NewWarehouseRepository(db),
		BookingRepository:      NewBookingRepository(db),
		SettingsRepository:     NewSettingsRepository(db),
		InvoiceRepository:      NewInvoiceRepository(db),
		ServiceOrderRepository: NewServiceOrderRepository(db),
		PaymentRepository:      NewPaymentRepository(db),
		CreditRepository:       NewCreditRepository(db),
		TaskRepository:         NewTaskRepository(db),
		ClaimRepository:        NewClaimRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}

// DB exposes the handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}
