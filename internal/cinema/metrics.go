package cinema

import (
	"context"
	"errors"

	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/metinatakli/cinema-booking-engine/internal/cinema"

type metrics struct {
	commits  metric.Int64Counter
	failures metric.Int64Counter
	revenue  metric.Float64Counter
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter(meterName)

	commits, err := meter.Int64Counter(
		"reservation.commits",
		metric.WithDescription("Reservations paid and stored"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"reservation.commit_failures",
		metric.WithDescription("Reservation commits that did not complete, by reason"),
	)
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Float64Counter(
		"reservation.revenue",
		metric.WithDescription("Total charged for paid reservations"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{commits: commits, failures: failures, revenue: revenue}, nil
}

func (m *metrics) committed(ctx context.Context, total decimal.Decimal) {
	m.commits.Add(ctx, 1)
	m.revenue.Add(ctx, total.InexactFloat64())
}

func (m *metrics) commitFailed(ctx context.Context, err error) {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", failureReason(err))))
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrPayment):
		return "payment"
	case errors.Is(err, domain.ErrStorage):
		return "storage"
	case errors.Is(err, domain.ErrCouponAlreadyUsed), errors.Is(err, domain.ErrCouponNotFound):
		return "coupon"
	case errors.Is(err, domain.ErrSeatUnavailable):
		return "seat"
	default:
		return "validation"
	}
}
