package service

import (
	"context"
	"fmt"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

type capacityService struct {
	warehouseRepo repository.WarehouseRepository
}

func NewCapacityService(warehouseRepo repository.WarehouseRepository) CapacityService {
	return &capacityService{warehouseRepo: warehouseRepo}
}

func unitLabel(t domain.BookingType) string {
	if t == domain.BookingTypeAreaRental {
		return "sq ft"
	}
	return "pallet slots"
}

// CheckCapacity sums available units across the matching zones or halls. Insufficient
// capacity is reported in the result, not as an error.
func (s *capacityService) CheckCapacity(ctx context.Context, q domain.CapacityQuery) (*domain.CapacityCheck, error) {
	if err := validateStruct(q); err != nil {
		return nil, err
	}

	wh, err := s.warehouseRepo.GetByID(ctx, q.WarehouseID)
	if err != nil {
		return nil, err
	}
	check := &domain.CapacityCheck{RequiredAmount: q.Amount}
	if wh.Status != domain.WarehouseStatusActive {
		check.Message = fmt.Sprintf("Warehouse %d is not accepting bookings", wh.ID)
		return check, nil
	}

	var available int32
	switch q.Type {
	case domain.BookingTypePallet:
		zones, err := s.warehouseRepo.ListZones(ctx, q.WarehouseID)
		if err != nil {
			return nil, err
		}
		for _, z := range zones {
			if q.ZoneID != nil && z.ID != *q.ZoneID {
				continue
			}
			available += z.AvailableSlots
		}
	case domain.BookingTypeAreaRental:
		if q.HallID != nil {
			hall, err := s.warehouseRepo.GetHall(ctx, *q.HallID)
			if err != nil {
				return nil, err
			}
			if hall.WarehouseID != q.WarehouseID {
				return nil, domain.ValidationError("hall %d does not belong to warehouse %d", hall.ID, q.WarehouseID)
			}
			available = hall.AvailableSqFt
		} else {
			halls, err := s.warehouseRepo.ListHalls(ctx, q.WarehouseID, q.FloorID)
			if err != nil {
				return nil, err
			}
			for _, h := range halls {
				available += h.AvailableSqFt
			}
		}
	}

	check.AvailableAmount = available
	check.Available = available >= q.Amount
	if check.Available {
		check.Message = fmt.Sprintf("%d %s available", available, unitLabel(q.Type))
	} else {
		check.Message = fmt.Sprintf("Insufficient capacity: requested %d %s, only %d available", q.Amount, unitLabel(q.Type), available)
	}
	return check, nil
}

// ReserveCapacity takes the whole amount from a single zone or hall in one conditional update.
func (s *capacityService) ReserveCapacity(ctx context.Context, warehouseID int32, bookingType domain.BookingType, amount int32, hallID *int32) (*domain.Reservation, error) {
	logger.EnterMethod("capacityService.ReserveCapacity", "warehouseID", warehouseID, "type", bookingType, "amount", amount)
	if amount <= 0 {
		return nil, domain.ValidationError("reservation amount must be positive")
	}

	res := &domain.Reservation{WarehouseID: warehouseID, Type: bookingType, Amount: amount}
	switch bookingType {
	case domain.BookingTypePallet:
		zone, err := s.warehouseRepo.ReserveZoneSlots(ctx, warehouseID, amount)
		if err != nil {
			logger.ExitMethodWithError("capacityService.ReserveCapacity", err)
			return nil, err
		}
		res.ZoneID = &zone.ID
	case domain.BookingTypeAreaRental:
		if hallID == nil {
			return nil, domain.ValidationError("area rental reservation requires a hall")
		}
		hall, err := s.warehouseRepo.GetHall(ctx, *hallID)
		if err != nil {
			logger.ExitMethodWithError("capacityService.ReserveCapacity", err)
			return nil, err
		}
		if hall.WarehouseID != warehouseID {
			return nil, domain.ValidationError("hall %d does not belong to warehouse %d", hall.ID, warehouseID)
		}
		if _, err := s.warehouseRepo.ReserveHallArea(ctx, *hallID, amount); err != nil {
			logger.ExitMethodWithError("capacityService.ReserveCapacity", err)
			return nil, err
		}
		id := *hallID
		res.HallID = &id
	default:
		return nil, domain.ValidationError("unknown booking type %q", bookingType)
	}

	logger.ExitMethod("capacityService.ReserveCapacity", "zoneID", res.ZoneID, "hallID", res.HallID)
	return res, nil
}

func (s *capacityService) ReleaseCapacity(ctx context.Context, r domain.Reservation) error {
	if r.Amount <= 0 {
		return nil
	}
	switch r.Type {
	case domain.BookingTypePallet:
		if r.ZoneID == nil {
			return domain.StateError("no zone recorded for pallet reservation")
		}
		_, err := s.warehouseRepo.ReleaseZoneSlots(ctx, *r.ZoneID, r.Amount)
		return err
	case domain.BookingTypeAreaRental:
		if r.HallID == nil {
			return domain.StateError("no hall recorded for area reservation")
		}
		_, err := s.warehouseRepo.ReleaseHallArea(ctx, *r.HallID, r.Amount)
		return err
	default:
		return domain.ValidationError("unknown booking type %q", r.Type)
	}
}
