package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/gateway"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

type paymentService struct {
	paymentRepo repository.PaymentRepository
	invoiceRepo repository.InvoiceRepository
	bookingRepo repository.BookingRepository
	creditRepo  repository.CreditRepository
	userRepo    repository.UserRepository
	gateway     gateway.PaymentGateway
	bookings    BookingService
	membership  MembershipService
	notifier    Notifier
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	invoiceRepo repository.InvoiceRepository,
	bookingRepo repository.BookingRepository,
	creditRepo repository.CreditRepository,
	userRepo repository.UserRepository,
	gw gateway.PaymentGateway,
	bookings BookingService,
	membership MembershipService,
	notifier Notifier,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		bookingRepo: bookingRepo,
		creditRepo:  creditRepo,
		userRepo:    userRepo,
		gateway:     gw,
		bookings:    bookings,
		membership:  membership,
		notifier:    notifier,
	}
}

// ProcessInvoicePayment takes credit balance first and charges the rest through the
// gateway. A payment fully covered by credit succeeds immediately.
func (s *paymentService) ProcessInvoicePayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	logger.EnterMethod("paymentService.ProcessInvoicePayment", "customerID", req.CustomerID, "invoiceID", req.InvoiceID)

	if err := validateStruct(req); err != nil {
		logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
		return nil, err
	}
	if req.CreditAmount != nil && req.CreditAmount.IsNegative() {
		return nil, domain.ValidationError("credit amount cannot be negative")
	}

	inv, err := s.invoiceRepo.GetByID(ctx, req.InvoiceID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
		return nil, err
	}
	if inv.CustomerID != req.CustomerID {
		err = domain.UnauthorizedError("invoice %d does not belong to customer %d", req.InvoiceID, req.CustomerID)
		logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
		return nil, err
	}
	if inv.Status == domain.InvoiceStatusPaid {
		err = domain.StateError("invoice %d is already paid", req.InvoiceID)
		logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
		return nil, err
	}
	open, err := s.paymentRepo.HasOpenPayment(ctx, inv.ID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
		return nil, err
	}
	if open {
		err = domain.StateError("invoice %d already has a payment in progress", inv.ID)
		logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
		return nil, err
	}
	if inv.BookingID != nil {
		b, err := s.bookingRepo.GetByID(ctx, *inv.BookingID)
		if err != nil {
			logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
			return nil, err
		}
		if b.IsPreOrder && b.TimeSlotConfirmedAt == nil {
			err = domain.StateError("booking %d needs a confirmed drop-off time slot before payment", b.ID)
			logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
			return nil, err
		}
	}

	creditUse := decimal.Zero
	if req.UseCreditBalance {
		balance, err := s.creditRepo.GetBalance(ctx, req.CustomerID)
		if err != nil {
			logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
			return nil, err
		}
		creditUse = decimal.Min(balance, inv.Total)
		if req.CreditAmount != nil {
			creditUse = decimal.Min(creditUse, *req.CreditAmount)
		}
	}

	p := &domain.Payment{
		InvoiceID:         inv.ID,
		CustomerID:        req.CustomerID,
		Amount:            inv.Total,
		Currency:          inv.Currency,
		Status:            domain.PaymentStatusProcessing,
		Method:            domain.PaymentMethodCard,
		CreditBalanceUsed: creditUse,
		RefundedAmount:    decimal.Zero,
	}
	remaining := inv.Total.Sub(creditUse)
	if !remaining.IsPositive() {
		p.Method = domain.PaymentMethodCreditBalance
	}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			err = domain.StateError("invoice %d already has a payment in progress", inv.ID)
		}
		logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
		return nil, err
	}

	if creditUse.IsPositive() {
		if err := s.creditRepo.Debit(ctx, &domain.CreditTransaction{
			CustomerID:  req.CustomerID,
			Amount:      creditUse,
			Type:        domain.CreditTransactionPaymentDebit,
			PaymentID:   &p.ID,
			Description: "Payment of invoice " + inv.InvoiceNumber,
		}); err != nil {
			s.failPayment(ctx, p, false, err.Error())
			logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
			return nil, err
		}
	}

	if !remaining.IsPositive() {
		p.Status = domain.PaymentStatusSucceeded
		if err := s.paymentRepo.Update(ctx, p); err != nil {
			logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
			return nil, err
		}
		if err := s.settle(ctx, p, inv); err != nil {
			logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
			return nil, err
		}
		logger.ExitMethod("paymentService.ProcessInvoicePayment", "paymentID", p.ID, "status", p.Status)
		return &domain.PaymentResult{Payment: p}, nil
	}

	email := ""
	if profile, err := s.userRepo.GetProfile(ctx, req.CustomerID); err == nil {
		email = profile.Email
	} else {
		logger.Warn("Customer profile unavailable for gateway customer", "customerID", req.CustomerID, "error", err)
	}
	customerRef, err := s.gateway.GetOrCreateCustomer(ctx, req.CustomerID, email)
	if err != nil {
		s.failPayment(ctx, p, true, err.Error())
		err = domain.ExternalError("payment gateway", err)
		logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
		return nil, err
	}
	intent, err := s.gateway.CreatePaymentIntent(ctx, gateway.IntentRequest{
		Amount:      remaining,
		Currency:    inv.Currency,
		CustomerRef: customerRef,
		Metadata: map[string]string{
			"invoice_id": strconv.Itoa(int(inv.ID)),
			"payment_id": strconv.Itoa(int(p.ID)),
		},
	})
	if err != nil {
		p.GatewayCustomerID = customerRef
		s.failPayment(ctx, p, true, err.Error())
		err = domain.ExternalError("payment gateway", err)
		logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
		return nil, err
	}

	p.Status = domain.PaymentStatusPending
	p.GatewayCustomerID = customerRef
	p.GatewayIntentID = intent.ID
	p.ClientSecret = intent.ClientSecret
	if err := s.paymentRepo.Update(ctx, p); err != nil {
		logger.ExitMethodWithError("paymentService.ProcessInvoicePayment", err)
		return nil, err
	}

	logger.ExitMethod("paymentService.ProcessInvoicePayment", "paymentID", p.ID, "intentID", intent.ID)
	return &domain.PaymentResult{Payment: p, ClientSecret: intent.ClientSecret, RequiresAction: true}, nil
}

func (s *paymentService) ConfirmPayment(ctx context.Context, customerID, paymentID int32) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.ConfirmPayment", "customerID", customerID, "paymentID", paymentID)

	p, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.ConfirmPayment", err)
		return nil, err
	}
	if p.CustomerID != customerID {
		err = domain.UnauthorizedError("payment %d does not belong to customer %d", paymentID, customerID)
		logger.ExitMethodWithError("paymentService.ConfirmPayment", err)
		return nil, err
	}
	if p.Status != domain.PaymentStatusPending || p.GatewayIntentID == "" {
		err = domain.StateError("payment %d is %s and cannot be confirmed", paymentID, p.Status)
		logger.ExitMethodWithError("paymentService.ConfirmPayment", err)
		return nil, err
	}
	inv, err := s.invoiceRepo.GetByID(ctx, p.InvoiceID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.ConfirmPayment", err)
		return nil, err
	}
	if inv.Status == domain.InvoiceStatusPaid {
		s.failPayment(ctx, p, true, "invoice already paid")
		err = domain.StateError("invoice %d is already paid", inv.ID)
		logger.ExitMethodWithError("paymentService.ConfirmPayment", err)
		return nil, err
	}

	res, err := s.gateway.ConfirmPaymentIntent(ctx, p.GatewayIntentID)
	if err != nil {
		s.failPayment(ctx, p, true, err.Error())
		err = domain.ExternalError("payment gateway", err)
		logger.ExitMethodWithError("paymentService.ConfirmPayment", err)
		return nil, err
	}

	switch res.Status {
	case gateway.IntentStatusSucceeded:
		p.Status = domain.PaymentStatusSucceeded
		p.GatewayChargeID = res.ChargeID
		if err := s.paymentRepo.Update(ctx, p); err != nil {
			logger.ExitMethodWithError("paymentService.ConfirmPayment", err)
			return nil, err
		}
		if err := s.settle(ctx, p, inv); err != nil {
			logger.ExitMethodWithError("paymentService.ConfirmPayment", err)
			return nil, err
		}
	case gateway.IntentStatusFailed:
		s.failPayment(ctx, p, true, res.FailureReason)
		err = domain.ExternalError("payment gateway", errors.New(res.FailureReason))
		logger.ExitMethodWithError("paymentService.ConfirmPayment", err)
		return nil, err
	default:
		logger.Info("Payment still awaiting customer action", "paymentID", paymentID, "intentStatus", res.Status)
	}

	logger.ExitMethod("paymentService.ConfirmPayment", "paymentID", paymentID, "status", p.Status)
	return p, nil
}

// failPayment marks p failed and, when restoreCredit is set, returns any credit balance
// that was debited for it. Errors are logged; the caller is already failing.
func (s *paymentService) failPayment(ctx context.Context, p *domain.Payment, restoreCredit bool, reason string) {
	p.Status = domain.PaymentStatusFailed
	p.FailureReason = reason
	if err := s.paymentRepo.Update(ctx, p); err != nil {
		logger.Error("Failed to mark payment failed", "paymentID", p.ID, "error", err)
	}
	if restoreCredit && p.CreditBalanceUsed.IsPositive() {
		if err := s.creditRepo.Credit(ctx, &domain.CreditTransaction{
			CustomerID:  p.CustomerID,
			Amount:      p.CreditBalanceUsed,
			Type:        domain.CreditTransactionAdjustment,
			PaymentID:   &p.ID,
			Description: "Credit restored after failed payment",
		}); err != nil {
			logger.Error("Failed to restore credit balance", "paymentID", p.ID, "amount", p.CreditBalanceUsed.String(), "error", err)
		}
	}
	logger.Warn("Payment failed", "paymentID", p.ID, "reason", reason)
}

// settle marks the invoice paid and runs the follow-ups of a successful payment. Only the
// invoice update can fail the call.
func (s *paymentService) settle(ctx context.Context, p *domain.Payment, inv *domain.Invoice) error {
	now := time.Now()
	if err := s.invoiceRepo.UpdateStatus(ctx, inv.ID, domain.InvoiceStatusPaid, &now); err != nil {
		return err
	}
	inv.Status = domain.InvoiceStatusPaid
	inv.PaidAt = &now

	if inv.BookingID != nil {
		b, err := s.bookingRepo.GetByID(ctx, *inv.BookingID)
		if err != nil {
			logger.Error("Booking lookup after payment failed", "bookingID", *inv.BookingID, "error", err)
		} else if slices.Contains(confirmableStatuses, b.Status) {
			if _, err := s.bookings.ConfirmPaidBooking(ctx, b.ID); err != nil {
				logger.Error("Paid booking could not be confirmed", "bookingID", b.ID, "paymentID", p.ID, "error", err)
			}
		}
	}

	tier, upgraded, err := s.membership.RefreshCustomerTier(ctx, p.CustomerID)
	if err != nil {
		logger.Warn("Membership tier refresh failed", "customerID", p.CustomerID, "error", err)
	} else if upgraded {
		notifyBestEffort(ctx, s.notifier, domain.NotificationRequest{
			UserID:       p.CustomerID,
			Type:         "membership_upgraded",
			Channels:     []domain.NotificationChannel{domain.NotificationChannelInApp, domain.NotificationChannelEmail},
			Title:        "Membership upgraded",
			Message:      fmt.Sprintf("Congratulations, you are now a %s member.", tier),
			TemplateData: map[string]string{"tier": string(tier)},
		})
	}

	notifyBestEffort(ctx, s.notifier, domain.NotificationRequest{
		UserID:   p.CustomerID,
		Type:     "payment_succeeded",
		Channels: []domain.NotificationChannel{domain.NotificationChannelInApp},
		Title:    "Payment received",
		Message:  fmt.Sprintf("We received %s %s for invoice %s.", p.Amount.StringFixed(2), p.Currency, inv.InvoiceNumber),
		TemplateData: map[string]string{
			"payment_id": strconv.Itoa(int(p.ID)),
			"invoice_id": strconv.Itoa(int(inv.ID)),
		},
	})
	return nil
}

// ProcessRefund validates the whole request before touching the gateway or any balance.
func (s *paymentService) ProcessRefund(ctx context.Context, req domain.RefundRequest) (*domain.Refund, error) {
	logger.EnterMethod("paymentService.ProcessRefund", "paymentID", req.PaymentID)

	if err := validateStruct(req); err != nil {
		logger.ExitMethodWithError("paymentService.ProcessRefund", err)
		return nil, err
	}
	p, err := s.paymentRepo.GetByID(ctx, req.PaymentID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.ProcessRefund", err)
		return nil, err
	}
	if p.Status != domain.PaymentStatusSucceeded && p.Status != domain.PaymentStatusPartiallyRefunded {
		err = domain.StateError("payment %d is %s and cannot be refunded", p.ID, p.Status)
		logger.ExitMethodWithError("paymentService.ProcessRefund", err)
		return nil, err
	}

	refundable := p.Amount.Sub(p.RefundedAmount)
	amount := refundable
	if req.Amount != nil {
		amount = *req.Amount
	}
	switch {
	case !amount.IsPositive():
		err = domain.ValidationError("refund amount must be positive")
	case amount.GreaterThan(p.Amount):
		err = domain.ValidationError("refund of %s exceeds the original payment of %s", amount.StringFixed(2), p.Amount.StringFixed(2))
	case amount.GreaterThan(refundable):
		err = domain.ValidationError("refund of %s exceeds the remaining refundable %s", amount.StringFixed(2), refundable.StringFixed(2))
	}
	if err != nil {
		logger.ExitMethodWithError("paymentService.ProcessRefund", err)
		return nil, err
	}

	previous, err := s.paymentRepo.ListRefunds(ctx, p.ID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.ProcessRefund", err)
		return nil, err
	}
	cardRefunded := decimal.Zero
	for _, r := range previous {
		if r.Destination == domain.RefundDestinationCard {
			cardRefunded = cardRefunded.Add(r.Amount)
		}
	}
	cardRefundable := p.CardAmount().Sub(cardRefunded)

	// Reserve the amount on the payment first so concurrent refunds cannot exceed it.
	updated, err := s.paymentRepo.AddRefund(ctx, p.ID, amount)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			err = domain.StateError("payment %d no longer has %s refundable", p.ID, amount.StringFixed(2))
		}
		logger.ExitMethodWithError("paymentService.ProcessRefund", err)
		return nil, err
	}

	refund := &domain.Refund{PaymentID: p.ID, Amount: amount, Reason: req.Reason}
	if req.ToCreditBalance || p.GatewayChargeID == "" || amount.GreaterThan(cardRefundable) {
		refund.Destination = domain.RefundDestinationCreditBalance
		if err := s.creditRepo.Credit(ctx, &domain.CreditTransaction{
			CustomerID:  p.CustomerID,
			Amount:      amount,
			Type:        domain.CreditTransactionRefundCredit,
			PaymentID:   &p.ID,
			Description: "Refund: " + req.Reason,
		}); err != nil {
			s.releaseRefund(ctx, p.ID, amount)
			logger.ExitMethodWithError("paymentService.ProcessRefund", err)
			return nil, err
		}
	} else {
		refund.Destination = domain.RefundDestinationCard
		res, err := s.gateway.CreateRefund(ctx, p.GatewayChargeID, amount)
		if err != nil {
			s.releaseRefund(ctx, p.ID, amount)
			err = domain.ExternalError("payment gateway", err)
			logger.ExitMethodWithError("paymentService.ProcessRefund", err)
			return nil, err
		}
		refund.GatewayRefundID = res.ID
	}

	if err := s.paymentRepo.CreateRefund(ctx, refund); err != nil {
		logger.ExitMethodWithError("paymentService.ProcessRefund", err)
		return nil, err
	}

	p = updated
	fullRefund := p.Status == domain.PaymentStatusRefunded
	if fullRefund {
		if err := s.invoiceRepo.UpdateStatus(ctx, p.InvoiceID, domain.InvoiceStatusPending, nil); err != nil {
			logger.ExitMethodWithError("paymentService.ProcessRefund", err)
			return nil, err
		}
	}

	notifyBestEffort(ctx, s.notifier, domain.NotificationRequest{
		UserID:   p.CustomerID,
		Type:     "payment_refunded",
		Channels: []domain.NotificationChannel{domain.NotificationChannelInApp, domain.NotificationChannelEmail},
		Title:    "Refund issued",
		Message:  fmt.Sprintf("A refund of %s %s was issued to your %s.", amount.StringFixed(2), p.Currency, refund.Destination),
		TemplateData: map[string]string{
			"payment_id": strconv.Itoa(int(p.ID)),
			"refund_id":  strconv.Itoa(int(refund.ID)),
		},
	})

	logger.ExitMethod("paymentService.ProcessRefund", "refundID", refund.ID, "destination", refund.Destination, "status", p.Status)
	return refund, nil
}

// releaseRefund undoes an AddRefund reservation whose money never moved.
func (s *paymentService) releaseRefund(ctx context.Context, paymentID int32, amount decimal.Decimal) {
	if _, err := s.paymentRepo.AddRefund(ctx, paymentID, amount.Neg()); err != nil {
		logger.Error("Failed to release refund reservation", "paymentID", paymentID, "amount", amount.String(), "error", err)
	}
}

func (s *paymentService) GetPaymentHistory(ctx context.Context, customerID int32) ([]domain.Payment, error) {
	return s.paymentRepo.ListByCustomer(ctx, customerID)
}

func (s *paymentService) GetCreditBalance(ctx context.Context, customerID int32) (decimal.Decimal, error) {
	return s.creditRepo.GetBalance(ctx, customerID)
}

func (s *paymentService) GetCreditTransactions(ctx context.Context, customerID int32, page, pageSize int32) ([]domain.CreditTransaction, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.creditRepo.ListTransactions(ctx, customerID, page, pageSize)
}
