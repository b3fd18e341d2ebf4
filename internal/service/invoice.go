package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
	"warehub-backend/internal/utils"
)

// InvoiceOptions carries the billing settings from configuration.
type InvoiceOptions struct {
	TaxRatePercent   decimal.Decimal
	DueDays          int
	Currency         string
	BatchConcurrency int
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	bookingRepo repository.BookingRepository
	orderRepo   repository.ServiceOrderRepository
	settings    SettingsResolver
	pricing     PricingService
	membership  MembershipService
	notifier    Notifier
	opts        InvoiceOptions
	now         func() time.Time
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	bookingRepo repository.BookingRepository,
	orderRepo repository.ServiceOrderRepository,
	settings SettingsResolver,
	pricing PricingService,
	membership MembershipService,
	notifier Notifier,
	opts InvoiceOptions,
) InvoiceService {
	if opts.TaxRatePercent.IsZero() {
		opts.TaxRatePercent = decimal.NewFromInt(8)
	}
	if opts.DueDays <= 0 {
		opts.DueDays = 30
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 4
	}
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		bookingRepo: bookingRepo,
		orderRepo:   orderRepo,
		settings:    settings,
		pricing:     pricing,
		membership:  membership,
		notifier:    notifier,
		opts:        opts,
		now:         time.Now,
	}
}

// NewInvoiceNumber formats INV-YYYYMM-XXXXXXXX with a random hex suffix.
func NewInvoiceNumber(issued time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", issued.Format("200601"), suffix)
}

// build totals the items, applies tax and stamps the invoice number and due date.
func (s *invoiceService) build(invType domain.InvoiceType, customerID int32, items []domain.InvoiceItem, issued time.Time) *domain.Invoice {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total)
	}
	subtotal = utils.RoundMoney(subtotal)
	tax := utils.PercentOf(subtotal, s.opts.TaxRatePercent)

	return &domain.Invoice{
		InvoiceNumber: NewInvoiceNumber(issued),
		Type:          invType,
		CustomerID:    customerID,
		Items:         items,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         subtotal.Add(tax),
		Currency:      s.opts.Currency,
		DueDate:       issued.AddDate(0, 0, s.opts.DueDays),
		Status:        domain.InvoiceStatusPending,
		CreatedAt:     issued,
	}
}

func itemsFromBreakdown(lines []domain.BreakdownLine) []domain.InvoiceItem {
	items := make([]domain.InvoiceItem, 0, len(lines)+1)
	for _, l := range lines {
		items = append(items, domain.InvoiceItem{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Total:       l.Amount,
		})
	}
	return items
}

// withAdjustment keeps the invoice on the amount agreed at booking time when a re-quote
// has drifted from it.
func withAdjustment(items []domain.InvoiceItem, quoted, agreed decimal.Decimal) []domain.InvoiceItem {
	diff := agreed.Sub(quoted)
	if diff.IsZero() {
		return items
	}
	return append(items, domain.InvoiceItem{
		Description: "Price adjustment",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   diff,
		Total:       diff,
	})
}

func (s *invoiceService) customerTier(ctx context.Context, customerID int32) *domain.MembershipTier {
	info, err := s.membership.GetCustomerTier(ctx, customerID)
	if err != nil {
		logger.Warn("Customer tier lookup failed, invoicing at base tier", "customerID", customerID, "error", err)
		return nil
	}
	return &info.Tier
}

func (s *invoiceService) persist(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}
	notifyBestEffort(ctx, s.notifier, domain.NotificationRequest{
		UserID:   inv.CustomerID,
		Type:     "invoice_created",
		Channels: []domain.NotificationChannel{domain.NotificationChannelInApp, domain.NotificationChannelEmail},
		Title:    "New invoice " + inv.InvoiceNumber,
		Message: fmt.Sprintf("Invoice %s for %s %s is due on %s.",
			inv.InvoiceNumber, inv.Total.StringFixed(2), inv.Currency, inv.DueDate.Format("2006-01-02")),
		TemplateData: map[string]string{
			"invoice_id":     strconv.Itoa(int(inv.ID)),
			"invoice_number": inv.InvoiceNumber,
			"total":          inv.Total.StringFixed(2),
		},
	})
	return inv, nil
}

func (s *invoiceService) GenerateBookingInvoice(ctx context.Context, bookingID int32) (*domain.Invoice, error) {
	logger.EnterMethod("invoiceService.GenerateBookingInvoice", "bookingID", bookingID)

	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateBookingInvoice", err)
		return nil, err
	}
	if b.Type != domain.BookingTypePallet {
		err = domain.ValidationError("booking %d is an area rental; use the annual rental invoice", bookingID)
		logger.ExitMethodWithError("invoiceService.GenerateBookingInvoice", err)
		return nil, err
	}

	existing, err := s.bookingRepo.SumActivePallets(ctx, b.CustomerID, b.WarehouseID)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateBookingInvoice", err)
		return nil, err
	}
	if b.Status.HoldsCapacity() {
		existing -= b.Quantity()
	}
	if existing < 0 {
		existing = 0
	}

	quote, err := s.pricing.CalculatePalletPricing(ctx, domain.PricingInput{
		WarehouseID:      b.WarehouseID,
		CustomerID:       b.CustomerID,
		Type:             b.Type,
		Quantity:         b.Quantity(),
		Months:           b.Months,
		ExistingQuantity: existing,
		MembershipTier:   s.customerTier(ctx, b.CustomerID),
	})
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateBookingInvoice", err)
		return nil, err
	}

	items := withAdjustment(itemsFromBreakdown(quote.Breakdown), quote.FinalAmount, b.TotalAmount)
	inv := s.build(domain.InvoiceTypeBooking, b.CustomerID, items, s.now())
	inv.BookingID = &b.ID

	inv, err = s.persist(ctx, inv)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateBookingInvoice", err)
		return nil, err
	}
	logger.ExitMethod("invoiceService.GenerateBookingInvoice", "invoiceID", inv.ID, "total", inv.Total.String())
	return inv, nil
}

func (s *invoiceService) GenerateAnnualRentalInvoice(ctx context.Context, bookingID int32) (*domain.Invoice, error) {
	logger.EnterMethod("invoiceService.GenerateAnnualRentalInvoice", "bookingID", bookingID)

	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateAnnualRentalInvoice", err)
		return nil, err
	}
	if b.Type != domain.BookingTypeAreaRental {
		err = domain.ValidationError("booking %d is a pallet booking; annual rental invoices are for area rentals", bookingID)
		logger.ExitMethodWithError("invoiceService.GenerateAnnualRentalInvoice", err)
		return nil, err
	}

	quote, err := s.pricing.CalculateAreaRentalPricing(ctx, domain.PricingInput{
		WarehouseID:    b.WarehouseID,
		CustomerID:     b.CustomerID,
		Type:           b.Type,
		Quantity:       b.Quantity(),
		Months:         b.Months,
		MembershipTier: s.customerTier(ctx, b.CustomerID),
	})
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateAnnualRentalInvoice", err)
		return nil, err
	}

	items := withAdjustment(itemsFromBreakdown(quote.Breakdown), quote.FinalAmount, b.TotalAmount)
	inv := s.build(domain.InvoiceTypeAnnualRental, b.CustomerID, items, s.now())
	inv.BookingID = &b.ID

	inv, err = s.persist(ctx, inv)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateAnnualRentalInvoice", err)
		return nil, err
	}
	logger.ExitMethod("invoiceService.GenerateAnnualRentalInvoice", "invoiceID", inv.ID, "total", inv.Total.String())
	return inv, nil
}

// GenerateMonthlyStorageInvoice bills one month of an active pallet booking. created is
// false when the month was already invoiced; the existing invoice is returned.
func (s *invoiceService) GenerateMonthlyStorageInvoice(ctx context.Context, bookingID int32, asOf time.Time) (*domain.Invoice, bool, error) {
	logger.EnterMethod("invoiceService.GenerateMonthlyStorageInvoice", "bookingID", bookingID, "asOf", asOf)

	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateMonthlyStorageInvoice", err)
		return nil, false, err
	}
	if b.Type != domain.BookingTypePallet {
		err = domain.ValidationError("booking %d is not a pallet booking", bookingID)
		logger.ExitMethodWithError("invoiceService.GenerateMonthlyStorageInvoice", err)
		return nil, false, err
	}
	if b.Status != domain.BookingStatusActive {
		err = domain.StateError("booking %d is %s; monthly storage is billed only for active bookings", bookingID, b.Status)
		logger.ExitMethodWithError("invoiceService.GenerateMonthlyStorageInvoice", err)
		return nil, false, err
	}

	from, to := utils.MonthBounds(asOf)
	invoices, err := s.invoiceRepo.ListByBookingBetween(ctx, bookingID, from, to)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateMonthlyStorageInvoice", err)
		return nil, false, err
	}
	for i := range invoices {
		for _, it := range invoices[i].Items {
			if strings.HasPrefix(it.Description, domain.MonthlyStorageDescription) {
				logger.ExitMethod("invoiceService.GenerateMonthlyStorageInvoice", "existingInvoiceID", invoices[i].ID)
				return &invoices[i], false, nil
			}
		}
	}

	rule, _, err := s.settings.PricingRule(ctx, b.WarehouseID, domain.BookingTypePallet)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateMonthlyStorageInvoice", err)
		return nil, false, err
	}
	perMonth, err := utils.PeriodsPerMonth(rule.Unit)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateMonthlyStorageInvoice", err)
		return nil, false, domain.ValidationError("%v", err)
	}

	unitPrice := utils.RoundMoney(rule.BasePrice.Mul(perMonth))
	quantity := decimal.NewFromInt32(b.Quantity())
	base := utils.RoundMoney(unitPrice.Mul(quantity))
	items := []domain.InvoiceItem{{
		Description: fmt.Sprintf("%s - %s", domain.MonthlyStorageDescription, from.Format("January 2006")),
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Total:       base,
	}}

	tier := domain.MembershipTierBronze
	if t := s.customerTier(ctx, b.CustomerID); t != nil {
		tier = *t
	}
	pct, err := s.membership.DiscountForTier(ctx, tier)
	if err != nil {
		logger.Warn("Membership discount unavailable for monthly invoice", "bookingID", bookingID, "error", err)
		pct = decimal.Zero
	}
	if discount := utils.PercentOf(base, utils.ClampPercent(pct)); discount.IsPositive() {
		items = append(items, domain.InvoiceItem{
			Description: fmt.Sprintf("Membership discount (%s, %s%%)", tier, pct.String()),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   discount.Neg(),
			Total:       discount.Neg(),
		})
	}

	issued := s.now()
	if issued.Before(from) || issued.After(to) {
		issued = asOf
	}
	inv := s.build(domain.InvoiceTypeMonthlyStorage, b.CustomerID, items, issued)
	inv.BookingID = &b.ID

	inv, err = s.persist(ctx, inv)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateMonthlyStorageInvoice", err)
		return nil, false, err
	}
	logger.ExitMethod("invoiceService.GenerateMonthlyStorageInvoice", "invoiceID", inv.ID, "total", inv.Total.String())
	return inv, true, nil
}

func (s *invoiceService) GenerateServiceOrderInvoice(ctx context.Context, orderID int32) (*domain.Invoice, error) {
	logger.EnterMethod("invoiceService.GenerateServiceOrderInvoice", "orderID", orderID)

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateServiceOrderInvoice", err)
		return nil, err
	}
	if order.Status != domain.ServiceOrderStatusCompleted {
		err = domain.StateError("service order %d is %s; only completed orders are invoiced", orderID, order.Status)
		logger.ExitMethodWithError("invoiceService.GenerateServiceOrderInvoice", err)
		return nil, err
	}
	if len(order.Items) == 0 {
		err = domain.ValidationError("service order %d has no items", orderID)
		logger.ExitMethodWithError("invoiceService.GenerateServiceOrderInvoice", err)
		return nil, err
	}

	items := make([]domain.InvoiceItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, domain.InvoiceItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       utils.RoundMoney(it.Quantity.Mul(it.UnitPrice)),
		})
	}
	inv := s.build(domain.InvoiceTypeServiceOrder, order.CustomerID, items, s.now())
	inv.ServiceOrderID = &order.ID
	inv.BookingID = order.BookingID

	inv, err = s.persist(ctx, inv)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateServiceOrderInvoice", err)
		return nil, err
	}
	logger.ExitMethod("invoiceService.GenerateServiceOrderInvoice", "invoiceID", inv.ID, "total", inv.Total.String())
	return inv, nil
}

// GenerateMonthlyInvoicesForActiveBookings bills every active pallet booking for the month
// of asOf. A failing booking is recorded and does not stop the batch.
func (s *invoiceService) GenerateMonthlyInvoicesForActiveBookings(ctx context.Context, asOf time.Time) (*domain.MonthlyInvoiceBatchResult, error) {
	logger.EnterMethod("invoiceService.GenerateMonthlyInvoicesForActiveBookings", "asOf", asOf)

	bookings, err := s.bookingRepo.ListByStatus(ctx, domain.BookingTypePallet, []domain.BookingStatus{domain.BookingStatusActive})
	if err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateMonthlyInvoicesForActiveBookings", err)
		return nil, err
	}

	result := &domain.MonthlyInvoiceBatchResult{
		Generated: []int32{},
		Skipped:   []int32{},
		Errors:    []domain.BatchItemError{},
	}
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(s.opts.BatchConcurrency)
	for _, b := range bookings {
		g.Go(func() error {
			_, created, err := s.GenerateMonthlyStorageInvoice(ctx, b.ID, asOf)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				logger.Error("Monthly invoice failed", "bookingID", b.ID, "error", err)
				result.Errors = append(result.Errors, domain.BatchItemError{ID: b.ID, Error: err.Error()})
			case created:
				result.Generated = append(result.Generated, b.ID)
			default:
				result.Skipped = append(result.Skipped, b.ID)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Generated, func(i, j int) bool { return result.Generated[i] < result.Generated[j] })
	sort.Slice(result.Skipped, func(i, j int) bool { return result.Skipped[i] < result.Skipped[j] })
	sort.Slice(result.Errors, func(i, j int) bool { return result.Errors[i].ID < result.Errors[j].ID })

	logger.ExitMethod("invoiceService.GenerateMonthlyInvoicesForActiveBookings",
		"generated", len(result.Generated), "skipped", len(result.Skipped), "errors", len(result.Errors))
	return result, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, callerID int32, isStaff bool, invoiceID int32) (*domain.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !isStaff && inv.CustomerID != callerID {
		return nil, domain.UnauthorizedError("invoice %d does not belong to user %d", invoiceID, callerID)
	}
	return inv, nil
}

func (s *invoiceService) ListCustomerInvoices(ctx context.Context, customerID int32) ([]domain.Invoice, error) {
	return s.invoiceRepo.ListByCustomer(ctx, customerID)
}

// SendOverdueReminders notifies customers of pending invoices past their due date.
func (s *invoiceService) SendOverdueReminders(ctx context.Context, asOf time.Time) (int, error) {
	invoices, err := s.invoiceRepo.ListOverdue(ctx, asOf)
	if err != nil {
		return 0, err
	}
	for _, inv := range invoices {
		notifyBestEffort(ctx, s.notifier, domain.NotificationRequest{
			UserID:   inv.CustomerID,
			Type:     "invoice_overdue",
			Channels: []domain.NotificationChannel{domain.NotificationChannelInApp, domain.NotificationChannelEmail},
			Title:    "Invoice " + inv.InvoiceNumber + " is overdue",
			Message: fmt.Sprintf("Invoice %s for %s %s was due on %s.",
				inv.InvoiceNumber, inv.Total.StringFixed(2), inv.Currency, inv.DueDate.Format("2006-01-02")),
			TemplateData: map[string]string{"invoice_id": strconv.Itoa(int(inv.ID))},
		})
	}
	logger.Info("Overdue invoice reminders sent", "count", len(invoices))
	return len(invoices), nil
}
