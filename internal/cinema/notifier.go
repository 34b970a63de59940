package cinema

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/metinatakli/cinema-booking-engine/internal/mailer"
)

const confirmationTemplate = "reservation_confirmed.tmpl"

// Notifier produces the receipt, emails it and publishes the confirmation
// event after a reservation is paid. It runs off the request path and its
// failures are only logged; a paid reservation stays paid.
type Notifier struct {
	reports domain.ReportGenerator
	mailer  mailer.Mailer
	events  domain.EventPublisher
	logger  *slog.Logger
	timeout time.Duration

	wg sync.WaitGroup
}

// NewNotifier accepts nil for any collaborator that is not configured.
func NewNotifier(
	reports domain.ReportGenerator,
	m mailer.Mailer,
	events domain.EventPublisher,
	logger *slog.Logger) *Notifier {

	return &Notifier{
		reports: reports,
		mailer:  m,
		events:  events,
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

func (n *Notifier) ReservationPaid(summary domain.ReservationSummary) {
	n.wg.Add(1)

	go func() {
		defer n.wg.Done()

		logger := n.logger.With("reservation_id", summary.ID)

		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic occurred while notifying paid reservation", "panic", err)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		n.notify(ctx, logger, summary)
	}()
}

func (n *Notifier) notify(ctx context.Context, logger *slog.Logger, summary domain.ReservationSummary) {
	var attachments []string

	if n.reports != nil {
		location, err := n.reports.Generate(ctx, summary)
		if err != nil {
			logger.Error("failed to generate receipt", "error", err)
		} else {
			attachments = append(attachments, location)
		}
	}

	if n.mailer != nil {
		err := n.mailer.Send(ctx, summary.Purchaser.Email, confirmationTemplate, summary, attachments...)
		if err != nil {
			logger.Error("failed to send confirmation email", "error", err)
		} else {
			logger.Info("confirmation email sent")
		}
	}

	if n.events != nil {
		err := n.events.PublishReservationConfirmed(ctx, summary)
		if err != nil {
			logger.Error("failed to publish reservation event", "error", err)
		}
	}
}

// Wait blocks until every notification started so far has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
