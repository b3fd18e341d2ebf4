package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"warehub-backend/internal/domain"
)

type UserRepository interface {
	GetProfile(ctx context.Context, id int32) (*domain.Profile, error)
	UpdateLastKnownTier(ctx context.Context, id int32, tier domain.MembershipTier) error
	ListAdmins(ctx context.Context) ([]domain.Profile, error)

	// Team membership
	ListTeamMemberships(ctx context.Context, userID int32) ([]domain.TeamMember, error)
}

type WarehouseRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Warehouse, error)
	ListZones(ctx context.Context, warehouseID int32) ([]domain.Zone, error)
	ListHalls(ctx context.Context, warehouseID int32, floorID *int32) ([]domain.Hall, error)
	GetHall(ctx context.Context, id int32) (*domain.Hall, error)

	// ReserveZoneSlots atomically takes amount slots from the zone with the most
	// available slots that can cover the whole amount. Returns domain.ErrInsufficientCapacity
	// when no single zone can.
	ReserveZoneSlots(ctx context.Context, warehouseID, amount int32) (*domain.Zone, error)
	ReleaseZoneSlots(ctx context.Context, zoneID, amount int32) (*domain.Zone, error)
	ReserveHallArea(ctx context.Context, hallID, amount int32) (*domain.Hall, error)
	ReleaseHallArea(ctx context.Context, hallID, amount int32) (*domain.Hall, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int32) (*domain.Booking, error)
	ListByCustomer(ctx context.Context, customerID int32, statuses []domain.BookingStatus) ([]domain.Booking, error)
	ListByStatus(ctx context.Context, bookingType domain.BookingType, statuses []domain.BookingStatus) ([]domain.Booking, error)
	// SumActivePallets sums pallet counts of the customer's confirmed and active bookings.
	SumActivePallets(ctx context.Context, customerID, warehouseID int32) (int32, error)
	// TransitionStatus moves a booking from one status to another only if it is still in
	// the expected status. Returns domain.ErrConflict when the predicate matched no row.
	TransitionStatus(ctx context.Context, id int32, from, to domain.BookingStatus, update domain.BookingUpdate) (*domain.Booking, error)

	CreateApproval(ctx context.Context, approval *domain.BookingApproval) error
	GetPendingApproval(ctx context.Context, bookingID int32) (*domain.BookingApproval, error)
	UpdateApproval(ctx context.Context, approval *domain.BookingApproval) error
}

type SettingsRepository interface {
	GetPricingRule(ctx context.Context, warehouseID int32, bookingType domain.BookingType) (*domain.PricingRule, error)
	UpsertPricingRule(ctx context.Context, rule *domain.PricingRule) error
	ListMembershipTiers(ctx context.Context) ([]domain.MembershipTierSetting, error)
	ReplaceMembershipTiers(ctx context.Context, tiers []domain.MembershipTierSetting) error
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, id int32) (*domain.Invoice, error)
	ListByCustomer(ctx context.Context, customerID int32) ([]domain.Invoice, error)
	ListByBookingBetween(ctx context.Context, bookingID int32, from, to time.Time) ([]domain.Invoice, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Invoice, error)
	UpdateStatus(ctx context.Context, id int32, status domain.InvoiceStatus, paidAt *time.Time) error
}

type ServiceOrderRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.ServiceOrder, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id int32) (*domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
	// HasOpenPayment reports whether the invoice has a pending or processing payment.
	HasOpenPayment(ctx context.Context, invoiceID int32) (bool, error)
	// AddRefund atomically adds delta to refunded_amount, never leaving [0, amount].
	// Returns domain.ErrConflict when the guard rejects the change.
	AddRefund(ctx context.Context, id int32, delta decimal.Decimal) (*domain.Payment, error)
	ListByCustomer(ctx context.Context, customerID int32) ([]domain.Payment, error)
	// SumSucceededByCustomer returns paid spend net of refunds.
	SumSucceededByCustomer(ctx context.Context, customerID int32) (decimal.Decimal, error)

	CreateRefund(ctx context.Context, refund *domain.Refund) error
	ListRefunds(ctx context.Context, paymentID int32) ([]domain.Refund, error)
}

type CreditRepository interface {
	GetBalance(ctx context.Context, customerID int32) (decimal.Decimal, error)
	// Debit atomically subtracts amount only if the balance covers it.
	Debit(ctx context.Context, tx *domain.CreditTransaction) error
	Credit(ctx context.Context, tx *domain.CreditTransaction) error
	ListTransactions(ctx context.Context, customerID int32, page, pageSize int32) ([]domain.CreditTransaction, int32, error)
}

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id int32) (*domain.Task, error)
	ListPending(ctx context.Context, warehouseID int32) ([]domain.Task, error)
	ListActiveByWorker(ctx context.Context, workerID int32) ([]domain.Task, error)
	// Assign sets the assignee only if the task is still in the expected status.
	Assign(ctx context.Context, id int32, from domain.TaskStatus, workerID int32) error
	UpdateStatus(ctx context.Context, id int32, from, to domain.TaskStatus) error
	ListWarehouseIDsWithPending(ctx context.Context) ([]int32, error)

	ListWorkers(ctx context.Context, warehouseID int32) ([]domain.Worker, error)
	// CountActiveByWorker returns assigned + in-progress task counts keyed by worker.
	CountActiveByWorker(ctx context.Context, warehouseID int32) (map[int32]int, error)
	ListWarehouseIDs(ctx context.Context) ([]int32, error)
}

type ClaimRepository interface {
	Create(ctx context.Context, claim *domain.Claim) error
	GetByID(ctx context.Context, id int32) (*domain.Claim, error)
	Update(ctx context.Context, claim *domain.Claim, from domain.ClaimStatus) error
	ListByStatus(ctx context.Context, statuses []domain.ClaimStatus) ([]domain.Claim, error)
	ListSubmittedBefore(ctx context.Context, cutoff time.Time) ([]domain.Claim, error)

	GetIncident(ctx context.Context, id int32) (*domain.Incident, error)
	UpdateIncidentStatus(ctx context.Context, id int32, status domain.IncidentStatus) error
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}
