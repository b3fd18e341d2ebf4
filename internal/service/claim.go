package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

const defaultEscalationDays = 7

type claimService struct {
	claimRepo      repository.ClaimRepository
	bookingRepo    repository.BookingRepository
	creditRepo     repository.CreditRepository
	userRepo       repository.UserRepository
	notifier       Notifier
	escalationDays int
	now            func() time.Time
}

func NewClaimService(
	claimRepo repository.ClaimRepository,
	bookingRepo repository.BookingRepository,
	creditRepo repository.CreditRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	escalationDays int,
) ClaimService {
	if escalationDays <= 0 {
		escalationDays = defaultEscalationDays
	}
	return &claimService{
		claimRepo:      claimRepo,
		bookingRepo:    bookingRepo,
		creditRepo:     creditRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		escalationDays: escalationDays,
		now:            time.Now,
	}
}

func (s *claimService) SubmitClaim(ctx context.Context, req domain.SubmitClaimRequest) (*domain.Claim, error) {
	logger.EnterMethod("claimService.SubmitClaim", "customerID", req.CustomerID, "bookingID", req.BookingID)

	if err := validateStruct(req); err != nil {
		logger.ExitMethodWithError("claimService.SubmitClaim", err)
		return nil, err
	}
	if !req.Amount.IsPositive() {
		err := domain.ValidationError("claim amount must be positive")
		logger.ExitMethodWithError("claimService.SubmitClaim", err)
		return nil, err
	}

	b, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		logger.ExitMethodWithError("claimService.SubmitClaim", err)
		return nil, err
	}
	if b.CustomerID != req.CustomerID {
		err = domain.UnauthorizedError("booking %d does not belong to customer %d", req.BookingID, req.CustomerID)
		logger.ExitMethodWithError("claimService.SubmitClaim", err)
		return nil, err
	}
	if req.IncidentID != nil {
		incident, err := s.claimRepo.GetIncident(ctx, *req.IncidentID)
		if err != nil {
			logger.ExitMethodWithError("claimService.SubmitClaim", err)
			return nil, err
		}
		if incident.BookingID == nil || *incident.BookingID != req.BookingID {
			err = domain.ValidationError("incident %d is not linked to booking %d", incident.ID, req.BookingID)
			logger.ExitMethodWithError("claimService.SubmitClaim", err)
			return nil, err
		}
	}

	c := &domain.Claim{
		CustomerID:  req.CustomerID,
		BookingID:   req.BookingID,
		IncidentID:  req.IncidentID,
		Type:        req.Type,
		Amount:      req.Amount.Round(2),
		Status:      domain.ClaimStatusSubmitted,
		Description: strings.TrimSpace(req.Description),
		SubmittedAt: s.now(),
	}
	if err := s.claimRepo.Create(ctx, c); err != nil {
		logger.ExitMethodWithError("claimService.SubmitClaim", err)
		return nil, err
	}

	notifyBestEffort(ctx, s.notifier, claimNotification(c, c.CustomerID, "claim_submitted", "Claim received",
		fmt.Sprintf("We received your %s claim for %s.", c.Type, c.Amount.StringFixed(2))))

	logger.ExitMethod("claimService.SubmitClaim", "claimID", c.ID)
	return c, nil
}

func (s *claimService) CreateClaimFromIncident(ctx context.Context, customerID, incidentID int32, claimType domain.ClaimType, amount decimal.Decimal, description string) (*domain.Claim, error) {
	incident, err := s.claimRepo.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if incident.BookingID == nil {
		return nil, domain.ValidationError("incident %d is not linked to a booking", incidentID)
	}
	if description == "" {
		description = incident.Description
	}
	return s.SubmitClaim(ctx, domain.SubmitClaimRequest{
		CustomerID:  customerID,
		BookingID:   *incident.BookingID,
		IncidentID:  &incidentID,
		Type:        claimType,
		Amount:      amount,
		Description: description,
	})
}

func (s *claimService) GetClaim(ctx context.Context, callerID int32, isStaff bool, claimID int32) (*domain.Claim, error) {
	c, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !isStaff && c.CustomerID != callerID {
		return nil, domain.UnauthorizedError("claim %d does not belong to user %d", claimID, callerID)
	}
	return c, nil
}

func (s *claimService) update(ctx context.Context, c *domain.Claim, from domain.ClaimStatus) error {
	err := s.claimRepo.Update(ctx, c, from)
	if errors.Is(err, domain.ErrConflict) {
		return domain.StateError("claim %d changed concurrently: %v", c.ID, err)
	}
	return err
}

func (s *claimService) StartReview(ctx context.Context, reviewerID, claimID int32) (*domain.Claim, error) {
	logger.EnterMethod("claimService.StartReview", "reviewerID", reviewerID, "claimID", claimID)

	c, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		logger.ExitMethodWithError("claimService.StartReview", err)
		return nil, err
	}
	if c.Status != domain.ClaimStatusSubmitted {
		err = domain.StateError("claim %d is %s; only submitted claims can enter review", claimID, c.Status)
		logger.ExitMethodWithError("claimService.StartReview", err)
		return nil, err
	}

	c.Status = domain.ClaimStatusUnderReview
	c.ReviewerID = &reviewerID
	if err := s.update(ctx, c, domain.ClaimStatusSubmitted); err != nil {
		logger.ExitMethodWithError("claimService.StartReview", err)
		return nil, err
	}

	if c.IncidentID != nil {
		incident, err := s.claimRepo.GetIncident(ctx, *c.IncidentID)
		if err == nil && incident.Status == domain.IncidentStatusOpen {
			err = s.claimRepo.UpdateIncidentStatus(ctx, incident.ID, domain.IncidentStatusInvestigating)
		}
		if err != nil {
			logger.Warn("Incident status not updated for review", "claimID", claimID, "incidentID", *c.IncidentID, "error", err)
		}
	}

	logger.ExitMethod("claimService.StartReview", "claimID", claimID)
	return c, nil
}

func (s *claimService) ReviewClaim(ctx context.Context, req domain.ReviewClaimRequest) (*domain.Claim, error) {
	logger.EnterMethod("claimService.ReviewClaim", "claimID", req.ClaimID, "decision", req.Decision)

	if err := validateStruct(req); err != nil {
		logger.ExitMethodWithError("claimService.ReviewClaim", err)
		return nil, err
	}
	c, err := s.claimRepo.GetByID(ctx, req.ClaimID)
	if err != nil {
		logger.ExitMethodWithError("claimService.ReviewClaim", err)
		return nil, err
	}
	if !c.Status.Reviewable() {
		err = domain.StateError("claim %d is already %s", c.ID, c.Status)
		logger.ExitMethodWithError("claimService.ReviewClaim", err)
		return nil, err
	}

	from := c.Status
	now := s.now()
	incidentStatus := domain.IncidentStatusClosed
	if req.Decision == domain.ClaimDecisionApprove {
		approved := c.Amount
		if req.ApprovedAmount != nil {
			approved = req.ApprovedAmount.Round(2)
		}
		if !approved.IsPositive() || approved.GreaterThan(c.Amount) {
			err = domain.ValidationError("approved amount must be greater than 0 and at most %s", c.Amount.StringFixed(2))
			logger.ExitMethodWithError("claimService.ReviewClaim", err)
			return nil, err
		}
		c.Status = domain.ClaimStatusApproved
		c.ApprovedAmount = &approved
		incidentStatus = domain.IncidentStatusResolved
	} else {
		c.Status = domain.ClaimStatusRejected
		c.ApprovedAmount = nil
	}
	c.ReviewerID = &req.ReviewerID
	c.ReviewNotes = req.Notes
	c.ReviewedAt = &now

	if err := s.update(ctx, c, from); err != nil {
		logger.ExitMethodWithError("claimService.ReviewClaim", err)
		return nil, err
	}

	if c.IncidentID != nil {
		if err := s.claimRepo.UpdateIncidentStatus(ctx, *c.IncidentID, incidentStatus); err != nil {
			logger.Error("Failed to update incident after claim review", "claimID", c.ID, "incidentID", *c.IncidentID, "error", err)
		}
	}

	message := fmt.Sprintf("Your claim #%d was rejected.", c.ID)
	if c.Status == domain.ClaimStatusApproved {
		message = fmt.Sprintf("Your claim #%d was approved for %s.", c.ID, c.ApprovedAmount.StringFixed(2))
	}
	notifyBestEffort(ctx, s.notifier, claimNotification(c, c.CustomerID, "claim_"+string(c.Status), "Claim "+string(c.Status), message))

	logger.ExitMethod("claimService.ReviewClaim", "claimID", c.ID, "status", c.Status)
	return c, nil
}

// ProcessClaimPayment marks an approved claim paid and credits the payout to the customer.
// The status is reverted if the credit cannot be recorded.
func (s *claimService) ProcessClaimPayment(ctx context.Context, claimID int32, reference string) (*domain.Claim, error) {
	logger.EnterMethod("claimService.ProcessClaimPayment", "claimID", claimID)

	c, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		logger.ExitMethodWithError("claimService.ProcessClaimPayment", err)
		return nil, err
	}
	if c.Status != domain.ClaimStatusApproved {
		err = domain.StateError("claim %d is %s; only approved claims can be paid", claimID, c.Status)
		logger.ExitMethodWithError("claimService.ProcessClaimPayment", err)
		return nil, err
	}
	payout := c.Amount
	if c.ApprovedAmount != nil {
		payout = *c.ApprovedAmount
	}
	if reference == "" {
		reference = "CLM-" + strings.ToUpper(uuid.NewString()[:8])
	}

	now := s.now()
	c.Status = domain.ClaimStatusPaid
	c.PaidAt = &now
	c.PaymentReference = reference
	if err := s.update(ctx, c, domain.ClaimStatusApproved); err != nil {
		logger.ExitMethodWithError("claimService.ProcessClaimPayment", err)
		return nil, err
	}

	if err := s.creditRepo.Credit(ctx, &domain.CreditTransaction{
		CustomerID:  c.CustomerID,
		Amount:      payout,
		Type:        domain.CreditTransactionClaimPayout,
		ClaimID:     &c.ID,
		Description: "Claim payout " + reference,
	}); err != nil {
		c.Status = domain.ClaimStatusApproved
		c.PaidAt = nil
		c.PaymentReference = ""
		if revertErr := s.claimRepo.Update(ctx, c, domain.ClaimStatusPaid); revertErr != nil {
			logger.Error("Failed to revert claim after payout failure", "claimID", claimID, "error", revertErr)
		}
		logger.ExitMethodWithError("claimService.ProcessClaimPayment", err)
		return nil, err
	}

	notifyBestEffort(ctx, s.notifier, claimNotification(c, c.CustomerID, "claim_paid", "Claim paid",
		fmt.Sprintf("%s was added to your credit balance for claim #%d.", payout.StringFixed(2), c.ID)))

	logger.ExitMethod("claimService.ProcessClaimPayment", "claimID", claimID, "payout", payout.String())
	return c, nil
}

func (s *claimService) GetClaimStats(ctx context.Context) (*domain.ClaimStats, error) {
	claims, err := s.claimRepo.ListByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	stats := &domain.ClaimStats{
		ByStatus:      map[domain.ClaimStatus]int32{},
		TotalClaimed:  decimal.Zero,
		TotalApproved: decimal.Zero,
		TotalPaid:     decimal.Zero,
	}
	for _, c := range claims {
		stats.Total++
		stats.ByStatus[c.Status]++
		stats.TotalClaimed = stats.TotalClaimed.Add(c.Amount)
		if c.ApprovedAmount == nil {
			continue
		}
		switch c.Status {
		case domain.ClaimStatusApproved:
			stats.TotalApproved = stats.TotalApproved.Add(*c.ApprovedAmount)
		case domain.ClaimStatusPaid:
			stats.TotalApproved = stats.TotalApproved.Add(*c.ApprovedAmount)
			stats.TotalPaid = stats.TotalPaid.Add(*c.ApprovedAmount)
		}
	}
	return stats, nil
}

func (s *claimService) ListPendingClaims(ctx context.Context) ([]domain.Claim, error) {
	return s.claimRepo.ListByStatus(ctx, []domain.ClaimStatus{domain.ClaimStatusSubmitted, domain.ClaimStatusUnderReview})
}

// EscalatePendingClaims reports claims still awaiting a decision after olderThanDays and
// alerts admins about them.
func (s *claimService) EscalatePendingClaims(ctx context.Context, olderThanDays int) (*domain.EscalationResult, error) {
	if olderThanDays <= 0 {
		olderThanDays = s.escalationDays
	}
	cutoff := s.now().AddDate(0, 0, -olderThanDays)
	claims, err := s.claimRepo.ListSubmittedBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	result := &domain.EscalationResult{ClaimIDs: []int32{}}
	for _, c := range claims {
		if c.Status.Reviewable() {
			result.ClaimIDs = append(result.ClaimIDs, c.ID)
		}
	}
	result.Count = len(result.ClaimIDs)
	if result.Count == 0 {
		return result, nil
	}

	logger.Warn("Claims pending beyond escalation threshold", "count", result.Count, "days", olderThanDays, "claimIDs", result.ClaimIDs)

	admins, err := s.userRepo.ListAdmins(ctx)
	if err != nil {
		logger.Warn("Could not load admins for claim escalation", "error", err)
		return result, nil
	}
	ids := make([]string, len(result.ClaimIDs))
	for i, id := range result.ClaimIDs {
		ids[i] = strconv.Itoa(int(id))
	}
	for _, a := range admins {
		notifyBestEffort(ctx, s.notifier, domain.NotificationRequest{
			UserID:       a.ID,
			Type:         "claims_escalated",
			Channels:     []domain.NotificationChannel{domain.NotificationChannelInApp, domain.NotificationChannelEmail},
			Title:        fmt.Sprintf("%d claims need review", result.Count),
			Message:      fmt.Sprintf("Claims pending for more than %d days: %s", olderThanDays, strings.Join(ids, ", ")),
			TemplateData: map[string]string{"claim_ids": strings.Join(ids, ",")},
		})
	}
	return result, nil
}

func claimNotification(c *domain.Claim, userID int32, kind, title, message string) domain.NotificationRequest {
	return domain.NotificationRequest{
		UserID:   userID,
		Type:     kind,
		Channels: []domain.NotificationChannel{domain.NotificationChannelInApp, domain.NotificationChannelEmail},
		Title:    title,
		Message:  message,
		TemplateData: map[string]string{
			"claim_id":   strconv.Itoa(int(c.ID)),
			"booking_id": strconv.Itoa(int(c.BookingID)),
		},
	}
}
