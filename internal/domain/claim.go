package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClaimStatus string

const (
	ClaimStatusSubmitted   ClaimStatus = "submitted"
	ClaimStatusUnderReview ClaimStatus = "under-review"
	ClaimStatusApproved    ClaimStatus = "approved"
	ClaimStatusRejected    ClaimStatus = "rejected"
	ClaimStatusPaid        ClaimStatus = "paid"
)

// Reviewable reports whether a review decision may still be taken.
func (s ClaimStatus) Reviewable() bool {
	return s == ClaimStatusSubmitted || s == ClaimStatusUnderReview
}

type ClaimType string

const (
	ClaimTypeDamage ClaimType = "damage"
	ClaimTypeLoss   ClaimType = "loss"
	ClaimTypeDelay  ClaimType = "delay"
	ClaimTypeOther  ClaimType = "other"
)

type Claim struct {
	ID               int32            `json:"id"`
	CustomerID       int32            `json:"customer_id"`
	BookingID        int32            `json:"booking_id"`
	IncidentID       *int32           `json:"incident_id,omitempty"`
	Type             ClaimType        `json:"type"`
	Amount           decimal.Decimal  `json:"amount"`
	ApprovedAmount   *decimal.Decimal `json:"approved_amount,omitempty"`
	Status           ClaimStatus      `json:"status"`
	Description      string           `json:"description"`
	ReviewerID       *int32           `json:"reviewer_id,omitempty"`
	ReviewNotes      string           `json:"review_notes"`
	PaymentReference string           `json:"payment_reference,omitempty"`
	SubmittedAt      time.Time        `json:"submitted_at"`
	ReviewedAt       *time.Time       `json:"reviewed_at,omitempty"`
	PaidAt           *time.Time       `json:"paid_at,omitempty"`
}

type ClaimDecision string

const (
	ClaimDecisionApprove ClaimDecision = "approve"
	ClaimDecisionReject  ClaimDecision = "reject"
)

type IncidentStatus string

const (
	IncidentStatusOpen          IncidentStatus = "open"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusResolved      IncidentStatus = "resolved"
	IncidentStatusClosed        IncidentStatus = "closed"
)

type Incident struct {
	ID          int32          `json:"id"`
	BookingID   *int32         `json:"booking_id,omitempty"`
	WarehouseID int32          `json:"warehouse_id"`
	Type        string         `json:"type"`
	Severity    string         `json:"severity"`
	Status      IncidentStatus `json:"status"`
	Description string         `json:"description"`
	ReportedBy  int32          `json:"reported_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

type ClaimStats struct {
	Total         int32                 `json:"total"`
	ByStatus      map[ClaimStatus]int32 `json:"by_status"`
	TotalClaimed  decimal.Decimal       `json:"total_claimed"`
	TotalApproved decimal.Decimal       `json:"total_approved"`
	TotalPaid     decimal.Decimal       `json:"total_paid"`
}

type EscalationResult struct {
	Count    int     `json:"count"`
	ClaimIDs []int32 `json:"claim_ids"`
}

type SubmitClaimRequest struct {
	CustomerID  int32           `json:"customer_id" validate:"required"`
	BookingID   int32           `json:"booking_id" validate:"required"`
	IncidentID  *int32          `json:"incident_id,omitempty"`
	Type        ClaimType       `json:"type" validate:"required,oneof=damage loss delay other"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"required,max=4000"`
}

type ReviewClaimRequest struct {
	ClaimID        int32            `json:"claim_id" validate:"required"`
	ReviewerID     int32            `json:"reviewer_id" validate:"required"`
	Decision       ClaimDecision    `json:"decision" validate:"required,oneof=approve reject"`
	ApprovedAmount *decimal.Decimal `json:"approved_amount,omitempty"`
	Notes          string           `json:"notes" validate:"max=4000"`
}
