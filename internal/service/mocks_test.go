package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"warehub-backend/internal/domain"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetProfile(ctx context.Context, id int32) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}
func (m *MockUserRepo) UpdateLastKnownTier(ctx context.Context, id int32, tier domain.MembershipTier) error {
	args := m.Called(ctx, id, tier)
	return args.Error(0)
}
func (m *MockUserRepo) ListAdmins(ctx context.Context) ([]domain.Profile, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]domain.Profile)
	return v, args.Error(1)
}
func (m *MockUserRepo) ListTeamMemberships(ctx context.Context, userID int32) ([]domain.TeamMember, error) {
	args := m.Called(ctx, userID)
	v, _ := args.Get(0).([]domain.TeamMember)
	return v, args.Error(1)
}

// MockWarehouseRepo
type MockWarehouseRepo struct {
	mock.Mock
}

func (m *MockWarehouseRepo) GetByID(ctx context.Context, id int32) (*domain.Warehouse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Warehouse), args.Error(1)
}
func (m *MockWarehouseRepo) ListZones(ctx context.Context, warehouseID int32) ([]domain.Zone, error) {
	args := m.Called(ctx, warehouseID)
	v, _ := args.Get(0).([]domain.Zone)
	return v, args.Error(1)
}
func (m *MockWarehouseRepo) ListHalls(ctx context.Context, warehouseID int32, floorID *int32) ([]domain.Hall, error) {
	args := m.Called(ctx, warehouseID, floorID)
	v, _ := args.Get(0).([]domain.Hall)
	return v, args.Error(1)
}
func (m *MockWarehouseRepo) GetHall(ctx context.Context, id int32) (*domain.Hall, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Hall), args.Error(1)
}
func (m *MockWarehouseRepo) ReserveZoneSlots(ctx context.Context, warehouseID, amount int32) (*domain.Zone, error) {
	args := m.Called(ctx, warehouseID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Zone), args.Error(1)
}
func (m *MockWarehouseRepo) ReleaseZoneSlots(ctx context.Context, zoneID, amount int32) (*domain.Zone, error) {
	args := m.Called(ctx, zoneID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Zone), args.Error(1)
}
func (m *MockWarehouseRepo) ReserveHallArea(ctx context.Context, hallID, amount int32) (*domain.Hall, error) {
	args := m.Called(ctx, hallID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Hall), args.Error(1)
}
func (m *MockWarehouseRepo) ReleaseHallArea(ctx context.Context, hallID, amount int32) (*domain.Hall, error) {
	args := m.Called(ctx, hallID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Hall), args.Error(1)
}

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}
func (m *MockBookingRepo) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListByCustomer(ctx context.Context, customerID int32, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	args := m.Called(ctx, customerID, statuses)
	v, _ := args.Get(0).([]domain.Booking)
	return v, args.Error(1)
}
func (m *MockBookingRepo) ListByStatus(ctx context.Context, bookingType domain.BookingType, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	args := m.Called(ctx, bookingType, statuses)
	v, _ := args.Get(0).([]domain.Booking)
	return v, args.Error(1)
}
func (m *MockBookingRepo) SumActivePallets(ctx context.Context, customerID, warehouseID int32) (int32, error) {
	args := m.Called(ctx, customerID, warehouseID)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockBookingRepo) TransitionStatus(ctx context.Context, id int32, from, to domain.BookingStatus, update domain.BookingUpdate) (*domain.Booking, error) {
	args := m.Called(ctx, id, from, to, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) CreateApproval(ctx context.Context, a *domain.BookingApproval) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockBookingRepo) GetPendingApproval(ctx context.Context, bookingID int32) (*domain.BookingApproval, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingApproval), args.Error(1)
}
func (m *MockBookingRepo) UpdateApproval(ctx context.Context, a *domain.BookingApproval) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// MockSettingsRepo
type MockSettingsRepo struct {
	mock.Mock
}

func (m *MockSettingsRepo) GetPricingRule(ctx context.Context, warehouseID int32, bookingType domain.BookingType) (*domain.PricingRule, error) {
	args := m.Called(ctx, warehouseID, bookingType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricingRule), args.Error(1)
}
func (m *MockSettingsRepo) UpsertPricingRule(ctx context.Context, rule *domain.PricingRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}
func (m *MockSettingsRepo) ListMembershipTiers(ctx context.Context) ([]domain.MembershipTierSetting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MembershipTierSetting), args.Error(1)
}
func (m *MockSettingsRepo) ReplaceMembershipTiers(ctx context.Context, tiers []domain.MembershipTierSetting) error {
	args := m.Called(ctx, tiers)
	return args.Error(0)
}

// MockSettingsCache
type MockSettingsCache struct {
	mock.Mock
}

func (m *MockSettingsCache) GetPricingRule(ctx context.Context, warehouseID int32, bookingType domain.BookingType) (*domain.PricingRule, bool, error) {
	args := m.Called(ctx, warehouseID, bookingType)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.PricingRule), args.Bool(1), args.Error(2)
}
func (m *MockSettingsCache) SetPricingRule(ctx context.Context, rule *domain.PricingRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}
func (m *MockSettingsCache) GetMembershipTiers(ctx context.Context) ([]domain.MembershipTierSetting, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]domain.MembershipTierSetting), args.Bool(1), args.Error(2)
}
func (m *MockSettingsCache) SetMembershipTiers(ctx context.Context, tiers []domain.MembershipTierSetting) error {
	args := m.Called(ctx, tiers)
	return args.Error(0)
}
func (m *MockSettingsCache) Bump(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockInvoiceRepo
type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}
func (m *MockInvoiceRepo) GetByID(ctx context.Context, id int32) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceRepo) ListByCustomer(ctx context.Context, customerID int32) ([]domain.Invoice, error) {
	args := m.Called(ctx, customerID)
	v, _ := args.Get(0).([]domain.Invoice)
	return v, args.Error(1)
}
func (m *MockInvoiceRepo) ListByBookingBetween(ctx context.Context, bookingID int32, from, to time.Time) ([]domain.Invoice, error) {
	args := m.Called(ctx, bookingID, from, to)
	v, _ := args.Get(0).([]domain.Invoice)
	return v, args.Error(1)
}
func (m *MockInvoiceRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Invoice, error) {
	args := m.Called(ctx, asOf)
	v, _ := args.Get(0).([]domain.Invoice)
	return v, args.Error(1)
}
func (m *MockInvoiceRepo) UpdateStatus(ctx context.Context, id int32, status domain.InvoiceStatus, paidAt *time.Time) error {
	args := m.Called(ctx, id, status, paidAt)
	return args.Error(0)
}

// MockServiceOrderRepo
type MockServiceOrderRepo struct {
	mock.Mock
}

func (m *MockServiceOrderRepo) GetByID(ctx context.Context, id int32) (*domain.ServiceOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServiceOrder), args.Error(1)
}

// MockPaymentRepo
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPaymentRepo) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) Update(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPaymentRepo) HasOpenPayment(ctx context.Context, invoiceID int32) (bool, error) {
	args := m.Called(ctx, invoiceID)
	return args.Bool(0), args.Error(1)
}
func (m *MockPaymentRepo) AddRefund(ctx context.Context, id int32, delta decimal.Decimal) (*domain.Payment, error) {
	args := m.Called(ctx, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) ListByCustomer(ctx context.Context, customerID int32) ([]domain.Payment, error) {
	args := m.Called(ctx, customerID)
	v, _ := args.Get(0).([]domain.Payment)
	return v, args.Error(1)
}
func (m *MockPaymentRepo) SumSucceededByCustomer(ctx context.Context, customerID int32) (decimal.Decimal, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockPaymentRepo) CreateRefund(ctx context.Context, r *domain.Refund) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockPaymentRepo) ListRefunds(ctx context.Context, paymentID int32) ([]domain.Refund, error) {
	args := m.Called(ctx, paymentID)
	v, _ := args.Get(0).([]domain.Refund)
	return v, args.Error(1)
}

// MockCreditRepo
type MockCreditRepo struct {
	mock.Mock
}

func (m *MockCreditRepo) GetBalance(ctx context.Context, customerID int32) (decimal.Decimal, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockCreditRepo) Debit(ctx context.Context, tx *domain.CreditTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockCreditRepo) Credit(ctx context.Context, tx *domain.CreditTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockCreditRepo) ListTransactions(ctx context.Context, customerID int32, page, pageSize int32) ([]domain.CreditTransaction, int32, error) {
	args := m.Called(ctx, customerID, page, pageSize)
	v, _ := args.Get(0).([]domain.CreditTransaction)
	return v, args.Get(1).(int32), args.Error(2)
}

// MockTaskRepo
type MockTaskRepo struct {
	mock.Mock
}

func (m *MockTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
func (m *MockTaskRepo) GetByID(ctx context.Context, id int32) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}
func (m *MockTaskRepo) ListPending(ctx context.Context, warehouseID int32) ([]domain.Task, error) {
	args := m.Called(ctx, warehouseID)
	v, _ := args.Get(0).([]domain.Task)
	return v, args.Error(1)
}
func (m *MockTaskRepo) ListActiveByWorker(ctx context.Context, workerID int32) ([]domain.Task, error) {
	args := m.Called(ctx, workerID)
	v, _ := args.Get(0).([]domain.Task)
	return v, args.Error(1)
}
func (m *MockTaskRepo) Assign(ctx context.Context, id int32, from domain.TaskStatus, workerID int32) error {
	args := m.Called(ctx, id, from, workerID)
	return args.Error(0)
}
func (m *MockTaskRepo) UpdateStatus(ctx context.Context, id int32, from, to domain.TaskStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}
func (m *MockTaskRepo) ListWarehouseIDsWithPending(ctx context.Context) ([]int32, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]int32)
	return v, args.Error(1)
}
func (m *MockTaskRepo) ListWorkers(ctx context.Context, warehouseID int32) ([]domain.Worker, error) {
	args := m.Called(ctx, warehouseID)
	v, _ := args.Get(0).([]domain.Worker)
	return v, args.Error(1)
}
func (m *MockTaskRepo) CountActiveByWorker(ctx context.Context, warehouseID int32) (map[int32]int, error) {
	args := m.Called(ctx, warehouseID)
	v, _ := args.Get(0).(map[int32]int)
	return v, args.Error(1)
}
func (m *MockTaskRepo) ListWarehouseIDs(ctx context.Context) ([]int32, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]int32)
	return v, args.Error(1)
}

// MockClaimRepo
type MockClaimRepo struct {
	mock.Mock
}

func (m *MockClaimRepo) Create(ctx context.Context, c *domain.Claim) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockClaimRepo) GetByID(ctx context.Context, id int32) (*domain.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Claim), args.Error(1)
}
func (m *MockClaimRepo) Update(ctx context.Context, c *domain.Claim, from domain.ClaimStatus) error {
	args := m.Called(ctx, c, from)
	return args.Error(0)
}
func (m *MockClaimRepo) ListByStatus(ctx context.Context, statuses []domain.ClaimStatus) ([]domain.Claim, error) {
	args := m.Called(ctx, statuses)
	v, _ := args.Get(0).([]domain.Claim)
	return v, args.Error(1)
}
func (m *MockClaimRepo) ListSubmittedBefore(ctx context.Context, cutoff time.Time) ([]domain.Claim, error) {
	args := m.Called(ctx, cutoff)
	v, _ := args.Get(0).([]domain.Claim)
	return v, args.Error(1)
}
func (m *MockClaimRepo) GetIncident(ctx context.Context, id int32) (*domain.Incident, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Incident), args.Error(1)
}
func (m *MockClaimRepo) UpdateIncidentStatus(ctx context.Context, id int32, status domain.IncidentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, limit, offset)
	v, _ := args.Get(0).([]domain.Notification)
	return v, args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int32) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockEmailSender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to, toName, subject, body string) error {
	args := m.Called(ctx, to, toName, subject, body)
	return args.Error(0)
}

// MockPushSender
type MockPushSender struct {
	mock.Mock
}

func (m *MockPushSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	args := m.Called(ctx, token, title, body, data)
	return args.Error(0)
}

// MockTeamAuthorizer
type MockTeamAuthorizer struct {
	mock.Mock
}

func (m *MockTeamAuthorizer) CanBookOnBehalf(ctx context.Context, bookerID, customerID int32) (bool, bool, error) {
	args := m.Called(ctx, bookerID, customerID)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

// MockBookingService only implements what payments call.
type MockBookingService struct {
	BookingService
	mock.Mock
}

func (m *MockBookingService) ConfirmPaidBooking(ctx context.Context, bookingID int32) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

// recordingNotifier captures requests instead of delivering them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.NotificationRequest
	err  error
}

func (n *recordingNotifier) Send(ctx context.Context, req domain.NotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, req)
	return n.err
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, r := range n.sent {
		out = append(out, r.Type)
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func i32(v int32) *int32 {
	return &v
}

// Defaults matching the configuration defaults.
func testStaticSettings() StaticSettings {
	return StaticSettings{
		PalletRule: domain.PricingRule{
			BookingType: domain.BookingTypePallet,
			BasePrice:   dec("17.50"),
			Unit:        domain.PriceUnitMonth,
			VolumeDiscounts: []domain.VolumeDiscount{
				{MinQuantity: 100, DiscountPercent: dec("5")},
				{MinQuantity: 500, DiscountPercent: dec("10")},
			},
		},
		AreaRule: domain.PricingRule{
			BookingType: domain.BookingTypeAreaRental,
			BasePrice:   dec("9.00"),
			Unit:        domain.PriceUnitYear,
			MinQuantity: i32(40000),
		},
		Tiers: []domain.MembershipTierSetting{
			{Tier: domain.MembershipTierBronze, MinSpend: dec("0"), DiscountPercent: dec("0")},
			{Tier: domain.MembershipTierSilver, MinSpend: dec("10000"), DiscountPercent: dec("5")},
			{Tier: domain.MembershipTierGold, MinSpend: dec("50000"), DiscountPercent: dec("10")},
			{Tier: domain.MembershipTierPlatinum, MinSpend: dec("100000"), DiscountPercent: dec("15")},
		},
	}
}

// newStaticResolver resolves everything from static settings.
func newStaticResolver() (SettingsResolver, *MockSettingsRepo) {
	repo := new(MockSettingsRepo)
	repo.On("GetPricingRule", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.NotFoundError("pricing rule", 0))
	repo.On("ListMembershipTiers", mock.Anything).Return(nil, nil)
	return NewSettingsResolver(repo, nil, testStaticSettings()), repo
}

// MockMembershipService
type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) ResolveTier(ctx context.Context, totalSpend decimal.Decimal) (domain.MembershipTier, error) {
	args := m.Called(ctx, totalSpend)
	return args.Get(0).(domain.MembershipTier), args.Error(1)
}
func (m *MockMembershipService) GetTierInfo(ctx context.Context, totalSpend decimal.Decimal) (*domain.TierInfo, error) {
	args := m.Called(ctx, totalSpend)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TierInfo), args.Error(1)
}
func (m *MockMembershipService) DiscountForTier(ctx context.Context, tier domain.MembershipTier) (decimal.Decimal, error) {
	args := m.Called(ctx, tier)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockMembershipService) GetCustomerTier(ctx context.Context, customerID int32) (*domain.TierInfo, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TierInfo), args.Error(1)
}
func (m *MockMembershipService) RefreshCustomerTier(ctx context.Context, customerID int32) (domain.MembershipTier, bool, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(domain.MembershipTier), args.Bool(1), args.Error(2)
}
