package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"warehub-backend/internal/domain"
)

// Notifier delivers a notification request. Callers treat it as best effort.
type Notifier interface {
	Send(ctx context.Context, req domain.NotificationRequest) error
}

type EmailSender interface {
	Send(ctx context.Context, to, toName, subject, body string) error
}

type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// TeamAuthorizer decides whether a booker may act for a customer. isTeamAdmin is true when
// the booker administers a team the customer belongs to.
type TeamAuthorizer interface {
	CanBookOnBehalf(ctx context.Context, bookerID, customerID int32) (allowed bool, isTeamAdmin bool, err error)
}

type SettingsResolver interface {
	PricingRule(ctx context.Context, warehouseID int32, bookingType domain.BookingType) (*domain.PricingRule, domain.SettingSource, error)
	MembershipTiers(ctx context.Context) ([]domain.MembershipTierSetting, domain.SettingSource, error)
	UpdatePricingRule(ctx context.Context, rule *domain.PricingRule) error
	UpdateMembershipTiers(ctx context.Context, tiers []domain.MembershipTierSetting) error
}

type MembershipService interface {
	ResolveTier(ctx context.Context, totalSpend decimal.Decimal) (domain.MembershipTier, error)
	GetTierInfo(ctx context.Context, totalSpend decimal.Decimal) (*domain.TierInfo, error)
	DiscountForTier(ctx context.Context, tier domain.MembershipTier) (decimal.Decimal, error)
	GetCustomerTier(ctx context.Context, customerID int32) (*domain.TierInfo, error)
	// RefreshCustomerTier recomputes the tier from paid spend and records it. upgraded is
	// true only when the new tier ranks strictly above the last known one.
	RefreshCustomerTier(ctx context.Context, customerID int32) (tier domain.MembershipTier, upgraded bool, err error)
}

type PricingService interface {
	CalculatePalletPricing(ctx context.Context, in domain.PricingInput) (*domain.PricingResult, error)
	CalculateAreaRentalPricing(ctx context.Context, in domain.PricingInput) (*domain.PricingResult, error)
	// QuotePricing fills the customer's existing pallets and tier before pricing.
	QuotePricing(ctx context.Context, in domain.PricingInput) (*domain.PricingResult, error)
	// ValidateQuantity applies the rule's quantity bounds without pricing anything.
	ValidateQuantity(ctx context.Context, warehouseID int32, bookingType domain.BookingType, quantity int32) error
}

type CapacityService interface {
	CheckCapacity(ctx context.Context, q domain.CapacityQuery) (*domain.CapacityCheck, error)
	ReserveCapacity(ctx context.Context, warehouseID int32, bookingType domain.BookingType, amount int32, hallID *int32) (*domain.Reservation, error)
	ReleaseCapacity(ctx context.Context, r domain.Reservation) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, req domain.CreateBookingRequest) (*domain.Booking, error)
	CreateBookingOnBehalf(ctx context.Context, bookerID int32, req domain.CreateBookingRequest) (*domain.Booking, error)
	GetBooking(ctx context.Context, callerID int32, isStaff bool, bookingID int32) (*domain.Booking, error)
	ListCustomerBookings(ctx context.Context, customerID int32, statuses []domain.BookingStatus) ([]domain.Booking, error)

	SetTimeSlot(ctx context.Context, workerID, bookingID int32, dropoffAt time.Time) (*domain.Booking, error)
	ConfirmTimeSlot(ctx context.Context, customerID, bookingID int32) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, adminID, bookingID int32) (*domain.Booking, error)
	// ConfirmPaidBooking confirms a booking whose invoice was just paid.
	ConfirmPaidBooking(ctx context.Context, bookingID int32) (*domain.Booking, error)
	ActivateBooking(ctx context.Context, bookingID int32) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, bookingID int32) (*domain.Booking, error)
	CancelBooking(ctx context.Context, callerID int32, isAdmin bool, bookingID int32, reason string) (*domain.Booking, error)
	RespondToApproval(ctx context.Context, customerID, bookingID int32, approve bool, note string) (*domain.Booking, error)
}

type InvoiceService interface {
	GenerateBookingInvoice(ctx context.Context, bookingID int32) (*domain.Invoice, error)
	GenerateMonthlyStorageInvoice(ctx context.Context, bookingID int32, asOf time.Time) (*domain.Invoice, bool, error)
	GenerateAnnualRentalInvoice(ctx context.Context, bookingID int32) (*domain.Invoice, error)
	GenerateServiceOrderInvoice(ctx context.Context, orderID int32) (*domain.Invoice, error)
	GenerateMonthlyInvoicesForActiveBookings(ctx context.Context, asOf time.Time) (*domain.MonthlyInvoiceBatchResult, error)
	GetInvoice(ctx context.Context, callerID int32, isStaff bool, invoiceID int32) (*domain.Invoice, error)
	ListCustomerInvoices(ctx context.Context, customerID int32) ([]domain.Invoice, error)
	SendOverdueReminders(ctx context.Context, asOf time.Time) (int, error)
}

type PaymentService interface {
	ProcessInvoicePayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error)
	ConfirmPayment(ctx context.Context, customerID, paymentID int32) (*domain.Payment, error)
	ProcessRefund(ctx context.Context, req domain.RefundRequest) (*domain.Refund, error)
	GetPaymentHistory(ctx context.Context, customerID int32) ([]domain.Payment, error)
	GetCreditBalance(ctx context.Context, customerID int32) (decimal.Decimal, error)
	GetCreditTransactions(ctx context.Context, customerID int32, page, pageSize int32) ([]domain.CreditTransaction, int32, error)
}

type TaskService interface {
	SelectBestWorker(ctx context.Context, warehouseID int32, taskType domain.TaskType) (*domain.Worker, error)
	CreateAndAssignTask(ctx context.Context, req domain.CreateTaskRequest) (*domain.Task, error)
	ReassignTask(ctx context.Context, taskID, workerID int32) (*domain.Task, error)
	StartTask(ctx context.Context, workerID, taskID int32) (*domain.Task, error)
	CompleteTask(ctx context.Context, workerID, taskID int32) (*domain.Task, error)
	AutoAssignPendingTasks(ctx context.Context, warehouseID int32) (*domain.TaskBatchResult, error)
	BalanceWorkload(ctx context.Context, warehouseID int32) (*domain.TaskBatchResult, error)
	GetWorkerLoads(ctx context.Context, warehouseID int32) ([]domain.WorkerLoad, error)
}

type ClaimService interface {
	SubmitClaim(ctx context.Context, req domain.SubmitClaimRequest) (*domain.Claim, error)
	CreateClaimFromIncident(ctx context.Context, customerID, incidentID int32, claimType domain.ClaimType, amount decimal.Decimal, description string) (*domain.Claim, error)
	GetClaim(ctx context.Context, callerID int32, isStaff bool, claimID int32) (*domain.Claim, error)
	StartReview(ctx context.Context, reviewerID, claimID int32) (*domain.Claim, error)
	ReviewClaim(ctx context.Context, req domain.ReviewClaimRequest) (*domain.Claim, error)
	ProcessClaimPayment(ctx context.Context, claimID int32, reference string) (*domain.Claim, error)
	GetClaimStats(ctx context.Context) (*domain.ClaimStats, error)
	ListPendingClaims(ctx context.Context) ([]domain.Claim, error)
	EscalatePendingClaims(ctx context.Context, olderThanDays int) (*domain.EscalationResult, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
}
