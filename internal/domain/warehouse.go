package domain

import "time"

type WarehouseStatus string

const (
	WarehouseStatusActive   WarehouseStatus = "active"
	WarehouseStatusInactive WarehouseStatus = "inactive"
)

type Warehouse struct {
	ID        int32           `json:"id"`
	OwnerID   int32           `json:"owner_id"`
	Name      string          `json:"name"`
	City      string          `json:"city"`
	Status    WarehouseStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Zone holds pallet slots. Occupied slots are TotalSlots - AvailableSlots.
type Zone struct {
	ID             int32  `json:"id"`
	WarehouseID    int32  `json:"warehouse_id"`
	Name           string `json:"name"`
	TotalSlots     int32  `json:"total_slots"`
	AvailableSlots int32  `json:"available_slots"`
}

func (z Zone) OccupiedSlots() int32 {
	return z.TotalSlots - z.AvailableSlots
}

// Hall is a rentable area on a warehouse floor, measured in square feet.
type Hall struct {
	ID            int32  `json:"id"`
	WarehouseID   int32  `json:"warehouse_id"`
	FloorID       int32  `json:"floor_id"`
	Name          string `json:"name"`
	TotalSqFt     int32  `json:"total_sq_ft"`
	AvailableSqFt int32  `json:"available_sq_ft"`
	OccupiedSqFt  int32  `json:"occupied_sq_ft"`
}

// CapacityCheck is the result of a read-only availability check.
type CapacityCheck struct {
	Available       bool   `json:"available"`
	AvailableAmount int32  `json:"available_amount"`
	RequiredAmount  int32  `json:"required_amount"`
	Message         string `json:"message"`
}

// Reservation records where capacity was taken from so it can be released later.
type Reservation struct {
	WarehouseID int32       `json:"warehouse_id"`
	Type        BookingType `json:"type"`
	Amount      int32       `json:"amount"`
	ZoneID      *int32      `json:"zone_id,omitempty"`
	HallID      *int32      `json:"hall_id,omitempty"`
}

// CapacityQuery narrows a capacity check. ZoneID applies to pallets; HallID, or failing
// that FloorID, applies to area rentals.
type CapacityQuery struct {
	WarehouseID int32       `json:"warehouse_id" validate:"required"`
	Type        BookingType `json:"type" validate:"required,oneof=pallet area-rental"`
	Amount      int32       `json:"amount" validate:"gt=0"`
	ZoneID      *int32      `json:"zone_id,omitempty"`
	FloorID     *int32      `json:"floor_id,omitempty"`
	HallID      *int32      `json:"hall_id,omitempty"`
}
