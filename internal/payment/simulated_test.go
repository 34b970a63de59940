package payment

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedGatewayPay(t *testing.T) {
	tests := []struct {
		name         string
		successRate  float64
		wantApproved bool
	}{
		{name: "always approves", successRate: 1, wantApproved: true},
		{name: "always declines", successRate: 0, wantApproved: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewSimulatedGateway(tt.successRate, rand.New(rand.NewPCG(1, 2)))

			for range 10 {
				res, err := g.Pay(context.Background(), domain.PaymentRequest{ReservationID: 4, Amount: decimal.NewFromInt(10)})
				require.NoError(t, err)
				assert.Equal(t, tt.wantApproved, res.Approved)

				if tt.wantApproved {
					assert.Regexp(t, `^sim-4-[0-9a-f]{8}$`, res.Reference)
				} else {
					assert.Empty(t, res.Reference)
				}
			}
		})
	}
}

func TestSimulatedGatewayHonoursContext(t *testing.T) {
	g := NewSimulatedGateway(1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Pay(ctx, domain.PaymentRequest{ReservationID: 1, Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulatedGatewayRefund(t *testing.T) {
	g := NewSimulatedGateway(1, nil)

	require.NoError(t, g.Refund(context.Background(), "sim-1-abc"))
	assert.True(t, g.Refunded("sim-1-abc"))
	assert.False(t, g.Refunded("sim-2-abc"))

	assert.Error(t, g.Refund(context.Background(), "sim-1-abc"))
}
