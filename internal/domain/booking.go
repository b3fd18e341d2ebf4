package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingType string

const (
	BookingTypePallet     BookingType = "pallet"
	BookingTypeAreaRental BookingType = "area-rental"
)

func (t BookingType) Valid() bool {
	return t == BookingTypePallet || t == BookingTypeAreaRental
}

type BookingStatus string

const (
	BookingStatusPending        BookingStatus = "pending"
	BookingStatusPreOrder       BookingStatus = "pre_order"
	BookingStatusPaymentPending BookingStatus = "payment_pending"
	BookingStatusConfirmed      BookingStatus = "confirmed"
	BookingStatusActive         BookingStatus = "active"
	BookingStatusCompleted      BookingStatus = "completed"
	BookingStatusCancelled      BookingStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// HoldsCapacity reports whether a booking in this status has reserved capacity.
func (s BookingStatus) HoldsCapacity() bool {
	return s == BookingStatusConfirmed || s == BookingStatusActive
}

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

type Booking struct {
	ID          int32       `json:"id"`
	CustomerID  int32       `json:"customer_id"`
	WarehouseID int32       `json:"warehouse_id"`
	Type        BookingType `json:"type"`
	PalletCount *int32      `json:"pallet_count,omitempty"`
	AreaSqFt    *int32      `json:"area_sq_ft,omitempty"`
	FloorID     *int32      `json:"floor_id,omitempty"`
	HallID      *int32      `json:"hall_id,omitempty"`
	// Zone the pallets were placed in at confirmation; needed to release them.
	ReservedZoneID *int32          `json:"reserved_zone_id,omitempty"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	Months         *int32          `json:"months,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Status         BookingStatus   `json:"status"`

	BookedOnBehalf   bool            `json:"booked_on_behalf"`
	BookedBy         *int32          `json:"booked_by,omitempty"`
	RequiresApproval bool            `json:"requires_approval"`
	ApprovalStatus   *ApprovalStatus `json:"approval_status,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`

	IsPreOrder          bool       `json:"is_pre_order"`
	ScheduledDropoffAt  *time.Time `json:"scheduled_dropoff_at,omitempty"`
	TimeSlotSetBy       *int32     `json:"time_slot_set_by,omitempty"`
	TimeSlotConfirmedAt *time.Time `json:"time_slot_confirmed_at,omitempty"`

	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Quantity returns the pallet count or square footage, whichever matches Type.
func (b *Booking) Quantity() int32 {
	switch b.Type {
	case BookingTypePallet:
		if b.PalletCount != nil {
			return *b.PalletCount
		}
	case BookingTypeAreaRental:
		if b.AreaSqFt != nil {
			return *b.AreaSqFt
		}
	}
	return 0
}

// Reservation describes the capacity held by a confirmed or active booking.
func (b *Booking) Reservation() Reservation {
	return Reservation{
		WarehouseID: b.WarehouseID,
		Type:        b.Type,
		Amount:      b.Quantity(),
		ZoneID:      b.ReservedZoneID,
		HallID:      b.HallID,
	}
}

type BookingApproval struct {
	ID           int32          `json:"id"`
	BookingID    int32          `json:"booking_id"`
	BookerID     int32          `json:"booker_id"`
	CustomerID   int32          `json:"customer_id"`
	Status       ApprovalStatus `json:"status"`
	ResponseNote string         `json:"response_note"`
	RespondedAt  *time.Time     `json:"responded_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// BookingUpdate carries the optional fields persisted with a guarded status transition.
type BookingUpdate struct {
	ReservedZoneID      *int32
	HallID              *int32
	ApprovalStatus      *ApprovalStatus
	ApprovedAt          *time.Time
	ScheduledDropoffAt  *time.Time
	TimeSlotSetBy       *int32
	TimeSlotConfirmedAt *time.Time
}

// CreateBookingRequest is the input for direct and on-behalf booking creation.
type CreateBookingRequest struct {
	CustomerID  int32       `json:"customer_id" validate:"required"`
	WarehouseID int32       `json:"warehouse_id" validate:"required"`
	Type        BookingType `json:"type" validate:"required,oneof=pallet area-rental"`
	PalletCount *int32      `json:"pallet_count,omitempty" validate:"omitempty,gt=0"`
	AreaSqFt    *int32      `json:"area_sq_ft,omitempty" validate:"omitempty,gt=0"`
	FloorID     *int32      `json:"floor_id,omitempty"`
	HallID      *int32      `json:"hall_id,omitempty"`
	StartDate   time.Time   `json:"start_date" validate:"required"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	Months      *int32      `json:"months,omitempty" validate:"omitempty,gt=0"`
	// SkipPreOrder creates a pallet booking in pending instead of pre_order.
	SkipPreOrder bool   `json:"skip_pre_order"`
	Notes        string `json:"notes" validate:"max=2000"`
}
