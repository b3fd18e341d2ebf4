package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"warehub-backend/internal/domain"
)

func activeWarehouse(id int32) *domain.Warehouse {
	return &domain.Warehouse{ID: id, Status: domain.WarehouseStatusActive}
}

func TestCapacityService_CheckCapacity(t *testing.T) {
	repo := new(MockWarehouseRepo)
	svc := NewCapacityService(repo)
	ctx := context.Background()

	t.Run("Insufficient pallets reports shortfall", func(t *testing.T) {
		repo.On("GetByID", mock.Anything, int32(1)).Return(activeWarehouse(1), nil).Once()
		repo.On("ListZones", mock.Anything, int32(1)).Return([]domain.Zone{
			{ID: 10, WarehouseID: 1, TotalSlots: 800, AvailableSlots: 600},
			{ID: 11, WarehouseID: 1, TotalSlots: 400, AvailableSlots: 400},
		}, nil).Once()

		check, err := svc.CheckCapacity(ctx, domain.CapacityQuery{WarehouseID: 1, Type: domain.BookingTypePallet, Amount: 1200})
		require.NoError(t, err)
		assert.False(t, check.Available)
		assert.Equal(t, int32(1000), check.AvailableAmount)
		assert.Contains(t, check.Message, "1200")
		assert.Contains(t, check.Message, "1000")
	})

	t.Run("Zone filter", func(t *testing.T) {
		repo.On("GetByID", mock.Anything, int32(1)).Return(activeWarehouse(1), nil).Once()
		repo.On("ListZones", mock.Anything, int32(1)).Return([]domain.Zone{
			{ID: 10, WarehouseID: 1, AvailableSlots: 600},
			{ID: 11, WarehouseID: 1, AvailableSlots: 400},
		}, nil).Once()

		check, err := svc.CheckCapacity(ctx, domain.CapacityQuery{WarehouseID: 1, Type: domain.BookingTypePallet, Amount: 500, ZoneID: i32(11)})
		require.NoError(t, err)
		assert.False(t, check.Available)
		assert.Equal(t, int32(400), check.AvailableAmount)
	})

	t.Run("Area by floor", func(t *testing.T) {
		floor := int32(2)
		repo.On("GetByID", mock.Anything, int32(1)).Return(activeWarehouse(1), nil).Once()
		repo.On("ListHalls", mock.Anything, int32(1), &floor).Return([]domain.Hall{
			{ID: 20, WarehouseID: 1, FloorID: 2, AvailableSqFt: 30000},
			{ID: 21, WarehouseID: 1, FloorID: 2, AvailableSqFt: 25000},
		}, nil).Once()

		check, err := svc.CheckCapacity(ctx, domain.CapacityQuery{WarehouseID: 1, Type: domain.BookingTypeAreaRental, Amount: 50000, FloorID: &floor})
		require.NoError(t, err)
		assert.True(t, check.Available)
		assert.Equal(t, int32(55000), check.AvailableAmount)
	})

	t.Run("Hall from another warehouse", func(t *testing.T) {
		repo.On("GetByID", mock.Anything, int32(1)).Return(activeWarehouse(1), nil).Once()
		repo.On("GetHall", mock.Anything, int32(99)).Return(&domain.Hall{ID: 99, WarehouseID: 2, AvailableSqFt: 90000}, nil).Once()

		_, err := svc.CheckCapacity(ctx, domain.CapacityQuery{WarehouseID: 1, Type: domain.BookingTypeAreaRental, Amount: 40000, HallID: i32(99)})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Inactive warehouse", func(t *testing.T) {
		repo.On("GetByID", mock.Anything, int32(3)).Return(&domain.Warehouse{ID: 3, Status: domain.WarehouseStatusInactive}, nil).Once()

		check, err := svc.CheckCapacity(ctx, domain.CapacityQuery{WarehouseID: 3, Type: domain.BookingTypePallet, Amount: 1})
		require.NoError(t, err)
		assert.False(t, check.Available)
		assert.Contains(t, check.Message, "not accepting bookings")
	})

	t.Run("Invalid query", func(t *testing.T) {
		_, err := svc.CheckCapacity(ctx, domain.CapacityQuery{WarehouseID: 1, Type: domain.BookingTypePallet, Amount: 0})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	repo.AssertExpectations(t)
}

func TestCapacityService_ReserveAndRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("Pallet reservation records zone", func(t *testing.T) {
		repo := new(MockWarehouseRepo)
		svc := NewCapacityService(repo)
		repo.On("ReserveZoneSlots", mock.Anything, int32(1), int32(50)).Return(&domain.Zone{ID: 10, WarehouseID: 1, AvailableSlots: 550}, nil)

		res, err := svc.ReserveCapacity(ctx, 1, domain.BookingTypePallet, 50, nil)
		require.NoError(t, err)
		require.NotNil(t, res.ZoneID)
		assert.Equal(t, int32(10), *res.ZoneID)
		assert.Equal(t, int32(50), res.Amount)
	})

	t.Run("No zone can hold the amount", func(t *testing.T) {
		repo := new(MockWarehouseRepo)
		svc := NewCapacityService(repo)
		repo.On("ReserveZoneSlots", mock.Anything, int32(1), int32(5000)).Return(nil, domain.CapacityError("no zone with 5000 free slots"))

		res, err := svc.ReserveCapacity(ctx, 1, domain.BookingTypePallet, 5000, nil)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)
	})

	t.Run("Area reservation checks hall warehouse", func(t *testing.T) {
		repo := new(MockWarehouseRepo)
		svc := NewCapacityService(repo)
		repo.On("GetHall", mock.Anything, int32(20)).Return(&domain.Hall{ID: 20, WarehouseID: 2}, nil)

		_, err := svc.ReserveCapacity(ctx, 1, domain.BookingTypeAreaRental, 40000, i32(20))
		assert.ErrorIs(t, err, domain.ErrValidation)
		repo.AssertNotCalled(t, "ReserveHallArea", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Area reservation", func(t *testing.T) {
		repo := new(MockWarehouseRepo)
		svc := NewCapacityService(repo)
		repo.On("GetHall", mock.Anything, int32(20)).Return(&domain.Hall{ID: 20, WarehouseID: 1}, nil)
		repo.On("ReserveHallArea", mock.Anything, int32(20), int32(40000)).Return(&domain.Hall{ID: 20}, nil)

		res, err := svc.ReserveCapacity(ctx, 1, domain.BookingTypeAreaRental, 40000, i32(20))
		require.NoError(t, err)
		assert.Equal(t, int32(20), *res.HallID)
		assert.Nil(t, res.ZoneID)
	})

	t.Run("Release needs a zone", func(t *testing.T) {
		repo := new(MockWarehouseRepo)
		svc := NewCapacityService(repo)

		err := svc.ReleaseCapacity(ctx, domain.Reservation{WarehouseID: 1, Type: domain.BookingTypePallet, Amount: 10})
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("Release returns slots to the zone", func(t *testing.T) {
		repo := new(MockWarehouseRepo)
		svc := NewCapacityService(repo)
		repo.On("ReleaseZoneSlots", mock.Anything, int32(10), int32(10)).Return(&domain.Zone{ID: 10}, nil)

		err := svc.ReleaseCapacity(ctx, domain.Reservation{WarehouseID: 1, Type: domain.BookingTypePallet, Amount: 10, ZoneID: i32(10)})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}
