package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
	"warehub-backend/internal/utils"
)

type bookingService struct {
	bookingRepo repository.BookingRepository
	capacity    CapacityService
	pricing     PricingService
	teams       TeamAuthorizer
	notifier    Notifier
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	capacity CapacityService,
	pricing PricingService,
	teams TeamAuthorizer,
	notifier Notifier,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		capacity:    capacity,
		pricing:     pricing,
		teams:       teams,
		notifier:    notifier,
	}
}

// prepare validates a request, checks capacity and prices it. The returned booking is not
// persisted and holds no capacity.
func (s *bookingService) prepare(ctx context.Context, req domain.CreateBookingRequest) (*domain.Booking, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var quantity int32
	switch req.Type {
	case domain.BookingTypePallet:
		if req.PalletCount == nil || req.AreaSqFt != nil {
			return nil, domain.ValidationError("pallet bookings require pallet_count and no area_sq_ft")
		}
		quantity = *req.PalletCount
	case domain.BookingTypeAreaRental:
		if req.AreaSqFt == nil || req.PalletCount != nil {
			return nil, domain.ValidationError("area rental bookings require area_sq_ft and no pallet_count")
		}
		if req.HallID == nil {
			return nil, domain.ValidationError("area rental bookings require a hall")
		}
		quantity = *req.AreaSqFt
		// Minimum area is enforced before capacity is looked at
		if err := s.pricing.ValidateQuantity(ctx, req.WarehouseID, req.Type, quantity); err != nil {
			return nil, err
		}
	}

	months := req.Months
	if req.EndDate != nil {
		if !req.EndDate.After(req.StartDate) {
			return nil, domain.ValidationError("end_date must be after start_date")
		}
		if months == nil {
			m, err := utils.BillableMonths(req.StartDate, *req.EndDate)
			if err != nil {
				return nil, domain.ValidationError("%v", err)
			}
			months = &m
		}
	}

	check, err := s.capacity.CheckCapacity(ctx, domain.CapacityQuery{
		WarehouseID: req.WarehouseID,
		Type:        req.Type,
		Amount:      quantity,
		FloorID:     req.FloorID,
		HallID:      req.HallID,
	})
	if err != nil {
		return nil, err
	}
	if !check.Available {
		return nil, domain.CapacityError("%s", check.Message)
	}

	quote, err := s.pricing.QuotePricing(ctx, domain.PricingInput{
		WarehouseID: req.WarehouseID,
		CustomerID:  req.CustomerID,
		Type:        req.Type,
		Quantity:    quantity,
		Months:      months,
	})
	if err != nil {
		return nil, err
	}

	b := &domain.Booking{
		CustomerID:  req.CustomerID,
		WarehouseID: req.WarehouseID,
		Type:        req.Type,
		PalletCount: req.PalletCount,
		AreaSqFt:    req.AreaSqFt,
		FloorID:     req.FloorID,
		HallID:      req.HallID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Months:      months,
		TotalAmount: quote.FinalAmount,
		Status:      domain.BookingStatusPending,
		Notes:       req.Notes,
	}
	if req.Type == domain.BookingTypePallet && !req.SkipPreOrder {
		b.Status = domain.BookingStatusPreOrder
		b.IsPreOrder = true
	}
	return b, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, req domain.CreateBookingRequest) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBooking", "customerID", req.CustomerID, "warehouseID", req.WarehouseID, "type", req.Type)

	b, err := s.prepare(ctx, req)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err)
		return nil, err
	}
	if err := s.bookingRepo.Create(ctx, b); err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err)
		return nil, err
	}

	logger.ExitMethod("bookingService.CreateBooking", "bookingID", b.ID, "status", b.Status, "total", b.TotalAmount.String())
	return b, nil
}

func (s *bookingService) CreateBookingOnBehalf(ctx context.Context, bookerID int32, req domain.CreateBookingRequest) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBookingOnBehalf", "bookerID", bookerID, "customerID", req.CustomerID)

	allowed, isTeamAdmin, err := s.teams.CanBookOnBehalf(ctx, bookerID, req.CustomerID)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBookingOnBehalf", err)
		return nil, err
	}
	if !allowed {
		err = domain.UnauthorizedError("user %d may not book on behalf of customer %d", bookerID, req.CustomerID)
		logger.ExitMethodWithError("bookingService.CreateBookingOnBehalf", err)
		return nil, err
	}

	b, err := s.prepare(ctx, req)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBookingOnBehalf", err)
		return nil, err
	}
	b.BookedOnBehalf = true
	b.BookedBy = &bookerID
	b.RequiresApproval = !isTeamAdmin
	approval := domain.ApprovalStatusApproved
	if b.RequiresApproval {
		approval = domain.ApprovalStatusPending
	}
	b.ApprovalStatus = &approval

	if err := s.bookingRepo.Create(ctx, b); err != nil {
		logger.ExitMethodWithError("bookingService.CreateBookingOnBehalf", err)
		return nil, err
	}

	if b.RequiresApproval {
		if err := s.bookingRepo.CreateApproval(ctx, &domain.BookingApproval{
			BookingID:  b.ID,
			BookerID:   bookerID,
			CustomerID: b.CustomerID,
			Status:     domain.ApprovalStatusPending,
		}); err != nil {
			logger.ExitMethodWithError("bookingService.CreateBookingOnBehalf", err)
			return nil, err
		}
		notifyBestEffort(ctx, s.notifier, bookingNotification(b, b.CustomerID, "booking_approval_required",
			"Booking awaiting your approval",
			fmt.Sprintf("A teammate booked %d %s on your behalf. Please approve or reject it.", b.Quantity(), unitLabel(b.Type))))
	} else {
		notifyBestEffort(ctx, s.notifier, bookingNotification(b, b.CustomerID, "booking_created_on_behalf",
			"Booking created for you",
			fmt.Sprintf("Your team admin booked %d %s on your behalf.", b.Quantity(), unitLabel(b.Type))))
	}

	logger.ExitMethod("bookingService.CreateBookingOnBehalf", "bookingID", b.ID, "requiresApproval", b.RequiresApproval)
	return b, nil
}

func (s *bookingService) GetBooking(ctx context.Context, callerID int32, isStaff bool, bookingID int32) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isStaff && b.CustomerID != callerID && (b.BookedBy == nil || *b.BookedBy != callerID) {
		return nil, domain.UnauthorizedError("booking %d does not belong to user %d", bookingID, callerID)
	}
	return b, nil
}

func (s *bookingService) ListCustomerBookings(ctx context.Context, customerID int32, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	return s.bookingRepo.ListByCustomer(ctx, customerID, statuses)
}

func (s *bookingService) SetTimeSlot(ctx context.Context, workerID, bookingID int32, dropoffAt time.Time) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.SetTimeSlot", "workerID", workerID, "bookingID", bookingID)
	if dropoffAt.IsZero() {
		return nil, domain.ValidationError("drop-off time is required")
	}

	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("bookingService.SetTimeSlot", err)
		return nil, err
	}
	if b.Status != domain.BookingStatusPreOrder {
		err = domain.StateError("time slots can only be set on pre-order bookings, booking %d is %s", bookingID, b.Status)
		logger.ExitMethodWithError("bookingService.SetTimeSlot", err)
		return nil, err
	}

	updated, err := s.transition(ctx, b, domain.BookingStatusPreOrder, domain.BookingUpdate{
		ScheduledDropoffAt: &dropoffAt,
		TimeSlotSetBy:      &workerID,
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.SetTimeSlot", err)
		return nil, err
	}

	notifyBestEffort(ctx, s.notifier, bookingNotification(updated, updated.CustomerID, "booking_time_slot_set",
		"Drop-off time scheduled",
		fmt.Sprintf("Your drop-off is scheduled for %s. Please confirm the time slot.", dropoffAt.Format(time.RFC1123))))

	logger.ExitMethod("bookingService.SetTimeSlot", "bookingID", bookingID)
	return updated, nil
}

func (s *bookingService) ConfirmTimeSlot(ctx context.Context, customerID, bookingID int32) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.ConfirmTimeSlot", "customerID", customerID, "bookingID", bookingID)

	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("bookingService.ConfirmTimeSlot", err)
		return nil, err
	}
	if b.CustomerID != customerID {
		err = domain.UnauthorizedError("booking %d does not belong to customer %d", bookingID, customerID)
		logger.ExitMethodWithError("bookingService.ConfirmTimeSlot", err)
		return nil, err
	}
	if b.Status != domain.BookingStatusPreOrder {
		err = domain.StateError("booking %d is %s, not awaiting time slot confirmation", bookingID, b.Status)
		logger.ExitMethodWithError("bookingService.ConfirmTimeSlot", err)
		return nil, err
	}
	if b.ScheduledDropoffAt == nil {
		err = domain.StateError("no time slot has been set for booking %d", bookingID)
		logger.ExitMethodWithError("bookingService.ConfirmTimeSlot", err)
		return nil, err
	}

	now := time.Now()
	updated, err := s.transition(ctx, b, domain.BookingStatusPaymentPending, domain.BookingUpdate{TimeSlotConfirmedAt: &now})
	if err != nil {
		logger.ExitMethodWithError("bookingService.ConfirmTimeSlot", err)
		return nil, err
	}

	logger.ExitMethod("bookingService.ConfirmTimeSlot", "bookingID", bookingID, "status", updated.Status)
	return updated, nil
}

// ConfirmBooking is the admin path and only accepts pending bookings; pre-orders reach
// confirmed through payment.
func (s *bookingService) ConfirmBooking(ctx context.Context, adminID, bookingID int32) (*domain.Booking, error) {
	logger.Info("Admin confirming booking", "adminID", adminID, "bookingID", bookingID)
	return s.confirm(ctx, bookingID, adminConfirmableStatuses)
}

func (s *bookingService) ConfirmPaidBooking(ctx context.Context, bookingID int32) (*domain.Booking, error) {
	return s.confirm(ctx, bookingID, confirmableStatuses)
}

var (
	adminConfirmableStatuses = []domain.BookingStatus{domain.BookingStatusPending}
	confirmableStatuses      = []domain.BookingStatus{domain.BookingStatusPending, domain.BookingStatusPaymentPending}
)

// confirm reserves capacity and moves the booking to confirmed. If the guarded transition
// loses a race the reservation is handed back.
func (s *bookingService) confirm(ctx context.Context, bookingID int32, allowed []domain.BookingStatus) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.confirm", "bookingID", bookingID)

	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("bookingService.confirm", err)
		return nil, err
	}
	if !slices.Contains(allowed, b.Status) {
		err = domain.StateError("booking %d cannot be confirmed from status %s", bookingID, b.Status)
		logger.ExitMethodWithError("bookingService.confirm", err)
		return nil, err
	}
	if b.RequiresApproval && (b.ApprovalStatus == nil || *b.ApprovalStatus != domain.ApprovalStatusApproved) {
		err = domain.StateError("booking %d is awaiting customer approval", bookingID)
		logger.ExitMethodWithError("bookingService.confirm", err)
		return nil, err
	}

	res, err := s.capacity.ReserveCapacity(ctx, b.WarehouseID, b.Type, b.Quantity(), b.HallID)
	if err != nil {
		logger.ExitMethodWithError("bookingService.confirm", err)
		return nil, err
	}

	updated, err := s.transition(ctx, b, domain.BookingStatusConfirmed, domain.BookingUpdate{ReservedZoneID: res.ZoneID})
	if err != nil {
		if relErr := s.capacity.ReleaseCapacity(ctx, *res); relErr != nil {
			logger.Error("Failed to release capacity after lost confirmation", "bookingID", bookingID, "error", relErr)
		}
		logger.ExitMethodWithError("bookingService.confirm", err)
		return nil, err
	}

	notifyBestEffort(ctx, s.notifier, bookingNotification(updated, updated.CustomerID, "booking_confirmed",
		"Booking confirmed",
		fmt.Sprintf("Your booking #%d is confirmed.", updated.ID)))

	logger.ExitMethod("bookingService.confirm", "bookingID", bookingID, "zoneID", res.ZoneID, "hallID", res.HallID)
	return updated, nil
}

func (s *bookingService) ActivateBooking(ctx context.Context, bookingID int32) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingStatusConfirmed {
		return nil, domain.StateError("booking %d cannot be activated from status %s", bookingID, b.Status)
	}
	return s.transition(ctx, b, domain.BookingStatusActive, domain.BookingUpdate{})
}

func (s *bookingService) CompleteBooking(ctx context.Context, bookingID int32) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CompleteBooking", "bookingID", bookingID)

	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CompleteBooking", err)
		return nil, err
	}
	if b.Status != domain.BookingStatusActive {
		err = domain.StateError("booking %d cannot be completed from status %s", bookingID, b.Status)
		logger.ExitMethodWithError("bookingService.CompleteBooking", err)
		return nil, err
	}

	updated, err := s.transition(ctx, b, domain.BookingStatusCompleted, domain.BookingUpdate{})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CompleteBooking", err)
		return nil, err
	}
	if err := s.capacity.ReleaseCapacity(ctx, updated.Reservation()); err != nil {
		err = fmt.Errorf("booking %d completed but capacity release failed: %w", bookingID, err)
		logger.ExitMethodWithError("bookingService.CompleteBooking", err)
		return updated, err
	}

	notifyBestEffort(ctx, s.notifier, bookingNotification(updated, updated.CustomerID, "booking_completed",
		"Booking completed",
		fmt.Sprintf("Your booking #%d has been completed.", updated.ID)))

	logger.ExitMethod("bookingService.CompleteBooking", "bookingID", bookingID)
	return updated, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, callerID int32, isAdmin bool, bookingID int32, reason string) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CancelBooking", "callerID", callerID, "bookingID", bookingID)

	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CancelBooking", err)
		return nil, err
	}
	if !isAdmin && b.CustomerID != callerID && (b.BookedBy == nil || *b.BookedBy != callerID) {
		err = domain.UnauthorizedError("user %d may not cancel booking %d", callerID, bookingID)
		logger.ExitMethodWithError("bookingService.CancelBooking", err)
		return nil, err
	}
	if b.Status.Terminal() {
		err = domain.StateError("booking %d is already %s", bookingID, b.Status)
		logger.ExitMethodWithError("bookingService.CancelBooking", err)
		return nil, err
	}

	update := domain.BookingUpdate{}
	approvalPending := b.ApprovalStatus != nil && *b.ApprovalStatus == domain.ApprovalStatusPending
	if approvalPending {
		rejected := domain.ApprovalStatusRejected
		update.ApprovalStatus = &rejected
	}

	updated, err := s.transition(ctx, b, domain.BookingStatusCancelled, update)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CancelBooking", err)
		return nil, err
	}

	if approvalPending {
		s.closeApproval(ctx, bookingID, domain.ApprovalStatusRejected, "cancelled")
	}

	if b.Status.HoldsCapacity() {
		if err := s.capacity.ReleaseCapacity(ctx, updated.Reservation()); err != nil {
			err = fmt.Errorf("booking %d cancelled but capacity release failed: %w", bookingID, err)
			logger.ExitMethodWithError("bookingService.CancelBooking", err)
			return updated, err
		}
	}

	message := fmt.Sprintf("Booking #%d was cancelled.", updated.ID)
	if reason != "" {
		message = fmt.Sprintf("Booking #%d was cancelled: %s", updated.ID, reason)
	}
	notifyBestEffort(ctx, s.notifier, bookingNotification(updated, updated.CustomerID, "booking_cancelled", "Booking cancelled", message))
	if updated.BookedBy != nil && *updated.BookedBy != updated.CustomerID {
		notifyBestEffort(ctx, s.notifier, bookingNotification(updated, *updated.BookedBy, "booking_cancelled", "Booking cancelled", message))
	}

	logger.ExitMethod("bookingService.CancelBooking", "bookingID", bookingID, "previous", b.Status)
	return updated, nil
}

func (s *bookingService) RespondToApproval(ctx context.Context, customerID, bookingID int32, approve bool, note string) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.RespondToApproval", "customerID", customerID, "bookingID", bookingID, "approve", approve)

	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("bookingService.RespondToApproval", err)
		return nil, err
	}
	if b.CustomerID != customerID {
		err = domain.UnauthorizedError("booking %d does not belong to customer %d", bookingID, customerID)
		logger.ExitMethodWithError("bookingService.RespondToApproval", err)
		return nil, err
	}
	if !b.RequiresApproval || b.ApprovalStatus == nil || *b.ApprovalStatus != domain.ApprovalStatusPending {
		err = domain.StateError("booking %d has no pending approval", bookingID)
		logger.ExitMethodWithError("bookingService.RespondToApproval", err)
		return nil, err
	}

	var (
		updated *domain.Booking
		status  domain.ApprovalStatus
	)
	if approve {
		status = domain.ApprovalStatusApproved
		now := time.Now()
		updated, err = s.transition(ctx, b, b.Status, domain.BookingUpdate{ApprovalStatus: &status, ApprovedAt: &now})
	} else {
		status = domain.ApprovalStatusRejected
		updated, err = s.transition(ctx, b, domain.BookingStatusCancelled, domain.BookingUpdate{ApprovalStatus: &status})
	}
	if err != nil {
		logger.ExitMethodWithError("bookingService.RespondToApproval", err)
		return nil, err
	}

	s.closeApproval(ctx, bookingID, status, note)

	if updated.BookedBy != nil {
		verb := "approved"
		if !approve {
			verb = "rejected"
		}
		req := bookingNotification(updated, *updated.BookedBy, "booking_approval_"+verb,
			"Booking "+verb,
			fmt.Sprintf("Your on-behalf booking #%d was %s by the customer.", updated.ID, verb))
		if note != "" {
			req.TemplateData["note"] = note
		}
		notifyBestEffort(ctx, s.notifier, req)
	}

	logger.ExitMethod("bookingService.RespondToApproval", "bookingID", bookingID, "approval", status)
	return updated, nil
}

// closeApproval records the outcome on the pending approval row. The booking already
// carries the authoritative approval status, so failures here are only logged.
func (s *bookingService) closeApproval(ctx context.Context, bookingID int32, status domain.ApprovalStatus, note string) {
	approval, err := s.bookingRepo.GetPendingApproval(ctx, bookingID)
	if err != nil {
		logger.Warn("Pending approval not found", "bookingID", bookingID, "error", err)
		return
	}
	now := time.Now()
	approval.Status = status
	approval.ResponseNote = note
	approval.RespondedAt = &now
	if err := s.bookingRepo.UpdateApproval(ctx, approval); err != nil {
		logger.Error("Failed to update booking approval", "bookingID", bookingID, "approvalID", approval.ID, "error", err)
	}
}

// transition applies a guarded status change from the booking's current status. A lost
// race surfaces as a state error.
func (s *bookingService) transition(ctx context.Context, b *domain.Booking, to domain.BookingStatus, update domain.BookingUpdate) (*domain.Booking, error) {
	updated, err := s.bookingRepo.TransitionStatus(ctx, b.ID, b.Status, to, update)
	if errors.Is(err, domain.ErrConflict) {
		return nil, domain.StateError("booking %d changed concurrently: %v", b.ID, err)
	}
	return updated, err
}

func bookingNotification(b *domain.Booking, userID int32, kind, title, message string) domain.NotificationRequest {
	return domain.NotificationRequest{
		UserID:   userID,
		Type:     kind,
		Channels: []domain.NotificationChannel{domain.NotificationChannelInApp, domain.NotificationChannelEmail},
		Title:    title,
		Message:  message,
		TemplateData: map[string]string{
			"booking_id":   strconv.Itoa(int(b.ID)),
			"warehouse_id": strconv.Itoa(int(b.WarehouseID)),
			"status":       string(b.Status),
		},
	}
}
