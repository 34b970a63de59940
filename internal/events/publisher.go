package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

const ReservationConfirmedQueue = "reservation.confirmed"

type ReservationConfirmedEvent struct {
	EventID       string    `json:"eventId"`
	ReservationID int64     `json:"reservationId"`
	ProjectionID  int       `json:"projectionId"`
	Movie         string    `json:"movie"`
	Screening     time.Time `json:"screening"`
	SeatLabels    []string  `json:"seatLabels"`
	TotalCents    int64     `json:"totalCents"`
	CouponCode    string    `json:"couponCode,omitempty"`
	Email         string    `json:"email"`
	ConfirmedAt   time.Time `json:"confirmedAt"`
}

func NewReservationConfirmedEvent(s domain.ReservationSummary) ReservationConfirmedEvent {
	return ReservationConfirmedEvent{
		EventID:       uuid.NewString(),
		ReservationID: s.ID,
		ProjectionID:  s.ProjectionID,
		Movie:         s.Movie,
		Screening:     s.Screening,
		SeatLabels:    s.SeatLabels,
		TotalCents:    s.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		CouponCode:    s.CouponCode,
		Email:         s.Purchaser.Email,
		ConfirmedAt:   s.PurchaseDate,
	}
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes persistent JSON messages to a durable queue over
// one long-lived connection.
type AMQPPublisher struct {
	conn  *amqp.Connection
	queue string

	mu sync.Mutex
	ch channel
}

func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &AMQPPublisher{conn: conn, queue: queue, ch: ch}, nil
}

func (p *AMQPPublisher) PublishReservationConfirmed(ctx context.Context, summary domain.ReservationSummary) error {
	event := NewReservationConfirmedEvent(summary)

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Timestamp:    event.ConfirmedAt,
		Type:         ReservationConfirmedQueue,
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}

	return err
}
