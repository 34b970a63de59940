package domain

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

const (
	cardNumberLength = 16
	cvvLength        = 3
)

type PaymentCard struct {
	Number      string
	Owner       string
	CVV         string
	ExpiryYear  int
	ExpiryMonth time.Month
}

// NewPaymentCard validates the card against now. Spaces and dashes in the
// number are ignored.
func NewPaymentCard(number, owner, cvv string, expiryYear int, expiryMonth time.Month, now time.Time) (PaymentCard, error) {
	number = strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, number)

	card := PaymentCard{
		Number:      number,
		Owner:       strings.TrimSpace(owner),
		CVV:         cvv,
		ExpiryYear:  expiryYear,
		ExpiryMonth: expiryMonth,
	}

	if !allDigits(card.Number, cardNumberLength) || !allDigits(card.CVV, cvvLength) || card.Owner == "" {
		return PaymentCard{}, ErrInvalidCard
	}

	if expiryMonth < time.January || expiryMonth > time.December {
		return PaymentCard{}, ErrInvalidCard
	}

	if card.Expired(now) {
		return PaymentCard{}, ErrCardExpired
	}

	return card, nil
}

// Expired reports whether the last valid month of the card is before now.
func (c PaymentCard) Expired(now time.Time) bool {
	y, m, _ := now.Date()
	return c.ExpiryYear < y || (c.ExpiryYear == y && c.ExpiryMonth < m)
}

func (c PaymentCard) Masked() string {
	if len(c.Number) < 4 {
		return ""
	}

	return "**** **** **** " + c.Number[len(c.Number)-4:]
}

func allDigits(s string, length int) bool {
	if len(s) != length {
		return false
	}

	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

type PaymentRequest struct {
	ReservationID int64
	Amount        decimal.Decimal
	Card          PaymentCard
	Email         string
	Description   string
}

// PaymentResult.Approved is false when the issuer declined the charge.
type PaymentResult struct {
	Approved  bool
	Reference string
}

type PaymentGateway interface {
	Pay(ctx context.Context, req PaymentRequest) (PaymentResult, error)
}

// Refunder is implemented by gateways able to reverse a charge.
type Refunder interface {
	Refund(ctx context.Context, reference string) error
}
