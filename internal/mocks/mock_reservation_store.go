package mocks

import (
	"context"

	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockReservationStore struct {
	mock.Mock
}

func (m *MockReservationStore) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *MockReservationStore) CommitReservation(ctx context.Context, rec domain.ReservationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
