package mocks

import (
	"context"

	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Pay(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.PaymentResult), args.Error(1)
}

// MockRefundingGateway also implements domain.Refunder.
type MockRefundingGateway struct {
	MockPaymentGateway
}

func (m *MockRefundingGateway) Refund(ctx context.Context, reference string) error {
	args := m.Called(ctx, reference)
	return args.Error(0)
}
