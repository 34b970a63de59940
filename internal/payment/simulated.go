package payment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
)

// SimulatedGateway approves a charge with a fixed probability. It stands in
// for an accounting system in development.
type SimulatedGateway struct {
	successRate float64

	mu       sync.Mutex
	rnd      *rand.Rand
	refunded map[string]bool
}

func NewSimulatedGateway(successRate float64, rnd *rand.Rand) *SimulatedGateway {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &SimulatedGateway{
		successRate: successRate,
		rnd:         rnd,
		refunded:    make(map[string]bool),
	}
}

func (g *SimulatedGateway) Pay(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentResult{}, err
	}

	g.mu.Lock()
	roll := g.rnd.Float64()
	g.mu.Unlock()

	if roll >= g.successRate {
		return domain.PaymentResult{Approved: false}, nil
	}

	return domain.PaymentResult{
		Approved:  true,
		Reference: fmt.Sprintf("sim-%d-%s", req.ReservationID, uuid.NewString()[:8]),
	}, nil
}

func (g *SimulatedGateway) Refund(_ context.Context, reference string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.refunded[reference] {
		return fmt.Errorf("payment %s already refunded", reference)
	}

	g.refunded[reference] = true

	return nil
}

func (g *SimulatedGateway) Refunded(reference string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.refunded[reference]
}
