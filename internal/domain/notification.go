package domain

import "context"

// ReportGenerator renders the receipt of a paid reservation and returns
// where it was stored.
type ReportGenerator interface {
	Generate(ctx context.Context, summary ReservationSummary) (string, error)
}

type EventPublisher interface {
	PublishReservationConfirmed(ctx context.Context, summary ReservationSummary) error
}
