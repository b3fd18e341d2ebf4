package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"warehub-backend/internal/domain"
)

type claimFixture struct {
	svc         ClaimService
	claimRepo   *MockClaimRepo
	bookingRepo *MockBookingRepo
	creditRepo  *MockCreditRepo
	userRepo    *MockUserRepo
	notifier    *recordingNotifier
	clock       time.Time
}

func newClaimFixture() *claimFixture {
	f := &claimFixture{
		claimRepo:   new(MockClaimRepo),
		bookingRepo: new(MockBookingRepo),
		creditRepo:  new(MockCreditRepo),
		userRepo:    new(MockUserRepo),
		notifier:    &recordingNotifier{},
		clock:       time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC),
	}
	svc := NewClaimService(f.claimRepo, f.bookingRepo, f.creditRepo, f.userRepo, f.notifier, 0)
	svc.(*claimService).now = func() time.Time { return f.clock }
	f.svc = svc
	return f
}

func amount(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestClaimService_SubmitClaim(t *testing.T) {
	ctx := context.Background()
	req := func() domain.SubmitClaimRequest {
		return domain.SubmitClaimRequest{CustomerID: 7, BookingID: 5, Type: domain.ClaimTypeDamage, Amount: dec("250.456"), Description: "  crushed pallet  "}
	}

	t.Run("Creates a submitted claim", func(t *testing.T) {
		f := newClaimFixture()
		f.bookingRepo.On("GetByID", mock.Anything, int32(5)).Return(&domain.Booking{ID: 5, CustomerID: 7}, nil)
		f.claimRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Claim")).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Claim).ID = 40
		}).Return(nil)

		c, err := f.svc.SubmitClaim(ctx, req())
		require.NoError(t, err)
		assert.Equal(t, domain.ClaimStatusSubmitted, c.Status)
		assert.Equal(t, "250.46", c.Amount.StringFixed(2))
		assert.Equal(t, "crushed pallet", c.Description)
		assert.Equal(t, f.clock, c.SubmittedAt)
		assert.Equal(t, []string{"claim_submitted"}, f.notifier.types())
	})

	t.Run("Booking of another customer", func(t *testing.T) {
		f := newClaimFixture()
		f.bookingRepo.On("GetByID", mock.Anything, int32(5)).Return(&domain.Booking{ID: 5, CustomerID: 8}, nil)

		_, err := f.svc.SubmitClaim(ctx, req())
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		f.claimRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Incident linked to another booking", func(t *testing.T) {
		f := newClaimFixture()
		f.bookingRepo.On("GetByID", mock.Anything, int32(5)).Return(&domain.Booking{ID: 5, CustomerID: 7}, nil)
		f.claimRepo.On("GetIncident", mock.Anything, int32(3)).Return(&domain.Incident{ID: 3, BookingID: i32(6)}, nil)

		r := req()
		r.IncidentID = i32(3)
		_, err := f.svc.SubmitClaim(ctx, r)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Non-positive amount", func(t *testing.T) {
		f := newClaimFixture()
		r := req()
		r.Amount = decimal.Zero
		_, err := f.svc.SubmitClaim(ctx, r)
		assert.ErrorIs(t, err, domain.ErrValidation)
		f.bookingRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("From incident uses its booking and description", func(t *testing.T) {
		f := newClaimFixture()
		f.claimRepo.On("GetIncident", mock.Anything, int32(3)).Return(&domain.Incident{ID: 3, BookingID: i32(5), Description: "forklift collision"}, nil)
		f.bookingRepo.On("GetByID", mock.Anything, int32(5)).Return(&domain.Booking{ID: 5, CustomerID: 7}, nil)
		f.claimRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		c, err := f.svc.CreateClaimFromIncident(ctx, 7, 3, domain.ClaimTypeDamage, dec("100"), "")
		require.NoError(t, err)
		assert.Equal(t, int32(5), c.BookingID)
		assert.Equal(t, int32(3), *c.IncidentID)
		assert.Equal(t, "forklift collision", c.Description)
	})
}

func TestClaimService_ReviewClaim(t *testing.T) {
	ctx := context.Background()
	submitted := func() *domain.Claim {
		return &domain.Claim{ID: 40, CustomerID: 7, BookingID: 5, IncidentID: i32(3), Amount: dec("250"), Status: domain.ClaimStatusUnderReview}
	}

	t.Run("Approve partial amount resolves the incident", func(t *testing.T) {
		f := newClaimFixture()
		f.claimRepo.On("GetByID", mock.Anything, int32(40)).Return(submitted(), nil)
		f.claimRepo.On("Update", mock.Anything, mock.Anything, domain.ClaimStatusUnderReview).Return(nil)
		f.claimRepo.On("UpdateIncidentStatus", mock.Anything, int32(3), domain.IncidentStatusResolved).Return(nil)

		c, err := f.svc.ReviewClaim(ctx, domain.ReviewClaimRequest{ClaimID: 40, ReviewerID: 1, Decision: domain.ClaimDecisionApprove, ApprovedAmount: amount("200")})
		require.NoError(t, err)
		assert.Equal(t, domain.ClaimStatusApproved, c.Status)
		assert.Equal(t, "200.00", c.ApprovedAmount.StringFixed(2))
		assert.Equal(t, f.clock, *c.ReviewedAt)
		f.claimRepo.AssertExpectations(t)
		assert.Equal(t, []string{"claim_approved"}, f.notifier.types())
	})

	t.Run("Approved amount bounds", func(t *testing.T) {
		for _, a := range []string{"0", "-5", "250.01"} {
			f := newClaimFixture()
			f.claimRepo.On("GetByID", mock.Anything, int32(40)).Return(submitted(), nil)

			_, err := f.svc.ReviewClaim(ctx, domain.ReviewClaimRequest{ClaimID: 40, ReviewerID: 1, Decision: domain.ClaimDecisionApprove, ApprovedAmount: amount(a)})
			assert.ErrorIs(t, err, domain.ErrValidation, "approved %s", a)
			f.claimRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("Reject closes the incident", func(t *testing.T) {
		f := newClaimFixture()
		f.claimRepo.On("GetByID", mock.Anything, int32(40)).Return(submitted(), nil)
		f.claimRepo.On("Update", mock.Anything, mock.Anything, domain.ClaimStatusUnderReview).Return(nil)
		f.claimRepo.On("UpdateIncidentStatus", mock.Anything, int32(3), domain.IncidentStatusClosed).Return(nil)

		c, err := f.svc.ReviewClaim(ctx, domain.ReviewClaimRequest{ClaimID: 40, ReviewerID: 1, Decision: domain.ClaimDecisionReject, Notes: "no evidence"})
		require.NoError(t, err)
		assert.Equal(t, domain.ClaimStatusRejected, c.Status)
		assert.Nil(t, c.ApprovedAmount)
		f.claimRepo.AssertExpectations(t)
	})

	t.Run("Already decided", func(t *testing.T) {
		f := newClaimFixture()
		c := submitted()
		c.Status = domain.ClaimStatusPaid
		f.claimRepo.On("GetByID", mock.Anything, int32(40)).Return(c, nil)

		_, err := f.svc.ReviewClaim(ctx, domain.ReviewClaimRequest{ClaimID: 40, ReviewerID: 1, Decision: domain.ClaimDecisionReject})
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestClaimService_StartReview(t *testing.T) {
	f := newClaimFixture()
	f.claimRepo.On("GetByID", mock.Anything, int32(40)).Return(&domain.Claim{ID: 40, IncidentID: i32(3), Status: domain.ClaimStatusSubmitted}, nil)
	f.claimRepo.On("Update", mock.Anything, mock.Anything, domain.ClaimStatusSubmitted).Return(nil)
	f.claimRepo.On("GetIncident", mock.Anything, int32(3)).Return(&domain.Incident{ID: 3, Status: domain.IncidentStatusOpen}, nil)
	f.claimRepo.On("UpdateIncidentStatus", mock.Anything, int32(3), domain.IncidentStatusInvestigating).Return(nil)

	c, err := f.svc.StartReview(context.Background(), 1, 40)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusUnderReview, c.Status)
	assert.Equal(t, int32(1), *c.ReviewerID)
	f.claimRepo.AssertExpectations(t)
}

func TestClaimService_ProcessClaimPayment(t *testing.T) {
	ctx := context.Background()
	approved := func() *domain.Claim {
		return &domain.Claim{ID: 40, CustomerID: 7, BookingID: 5, Amount: dec("250"), ApprovedAmount: amount("200"), Status: domain.ClaimStatusApproved}
	}

	t.Run("Credits the approved amount", func(t *testing.T) {
		f := newClaimFixture()
		f.claimRepo.On("GetByID", mock.Anything, int32(40)).Return(approved(), nil)
		f.claimRepo.On("Update", mock.Anything, mock.Anything, domain.ClaimStatusApproved).Return(nil)
		f.creditRepo.On("Credit", mock.Anything, mock.MatchedBy(func(tx *domain.CreditTransaction) bool {
			return tx.Amount.Equal(dec("200")) && tx.Type == domain.CreditTransactionClaimPayout && *tx.ClaimID == 40
		})).Return(nil)

		c, err := f.svc.ProcessClaimPayment(ctx, 40, "")
		require.NoError(t, err)
		assert.Equal(t, domain.ClaimStatusPaid, c.Status)
		assert.Regexp(t, regexp.MustCompile(`^CLM-[0-9A-F]{8}$`), c.PaymentReference)
		assert.Equal(t, f.clock, *c.PaidAt)
		assert.Equal(t, []string{"claim_paid"}, f.notifier.types())
	})

	t.Run("Credit failure reverts the claim", func(t *testing.T) {
		f := newClaimFixture()
		f.claimRepo.On("GetByID", mock.Anything, int32(40)).Return(approved(), nil)
		f.claimRepo.On("Update", mock.Anything, mock.Anything, domain.ClaimStatusApproved).Return(nil)
		f.creditRepo.On("Credit", mock.Anything, mock.Anything).Return(errors.New("db down"))
		f.claimRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *domain.Claim) bool {
			return c.Status == domain.ClaimStatusApproved && c.PaidAt == nil
		}), domain.ClaimStatusPaid).Return(nil)

		c, err := f.svc.ProcessClaimPayment(ctx, 40, "WIRE-1")
		assert.Nil(t, c)
		assert.Error(t, err)
		f.claimRepo.AssertExpectations(t)
		assert.Empty(t, f.notifier.types())
	})

	t.Run("Not approved", func(t *testing.T) {
		f := newClaimFixture()
		c := approved()
		c.Status = domain.ClaimStatusPaid
		f.claimRepo.On("GetByID", mock.Anything, int32(40)).Return(c, nil)

		_, err := f.svc.ProcessClaimPayment(ctx, 40, "")
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		f.creditRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything)
	})

	t.Run("Double payment loses the race", func(t *testing.T) {
		f := newClaimFixture()
		f.claimRepo.On("GetByID", mock.Anything, int32(40)).Return(approved(), nil)
		f.claimRepo.On("Update", mock.Anything, mock.Anything, domain.ClaimStatusApproved).Return(domain.ErrConflict)

		_, err := f.svc.ProcessClaimPayment(ctx, 40, "")
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		f.creditRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything)
	})
}

func TestClaimService_GetClaimStats(t *testing.T) {
	f := newClaimFixture()
	f.claimRepo.On("ListByStatus", mock.Anything, []domain.ClaimStatus(nil)).Return([]domain.Claim{
		{ID: 1, Amount: dec("100"), Status: domain.ClaimStatusSubmitted},
		{ID: 2, Amount: dec("200"), ApprovedAmount: amount("150"), Status: domain.ClaimStatusApproved},
		{ID: 3, Amount: dec("300"), ApprovedAmount: amount("300"), Status: domain.ClaimStatusPaid},
		{ID: 4, Amount: dec("50"), Status: domain.ClaimStatusRejected},
	}, nil)

	stats, err := f.svc.GetClaimStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(4), stats.Total)
	assert.Equal(t, int32(1), stats.ByStatus[domain.ClaimStatusPaid])
	assert.Equal(t, "650", stats.TotalClaimed.String())
	assert.Equal(t, "450", stats.TotalApproved.String())
	assert.Equal(t, "300", stats.TotalPaid.String())
}

func TestClaimService_EscalatePendingClaims(t *testing.T) {
	f := newClaimFixture()
	cutoff := f.clock.AddDate(0, 0, -7)
	f.claimRepo.On("ListSubmittedBefore", mock.Anything, cutoff).Return([]domain.Claim{
		{ID: 1, Status: domain.ClaimStatusSubmitted},
		{ID: 2, Status: domain.ClaimStatusUnderReview},
		{ID: 3, Status: domain.ClaimStatusApproved},
	}, nil)
	f.userRepo.On("ListAdmins", mock.Anything).Return([]domain.Profile{{ID: 100}, {ID: 101}}, nil)

	res, err := f.svc.EscalatePendingClaims(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []int32{1, 2}, res.ClaimIDs)
	assert.Equal(t, []string{"claims_escalated", "claims_escalated"}, f.notifier.types())
	assert.Equal(t, "1,2", f.notifier.sent[0].TemplateData["claim_ids"])
}
