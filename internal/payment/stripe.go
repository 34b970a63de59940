package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
)

const freeReferencePrefix = "free-"

// StripeGateway charges reservations with a confirmed PaymentIntent. Card
// details never leave the process; the intent is confirmed with the
// configured payment method (a saved method, or a test token such as
// pm_card_visa).
type StripeGateway struct {
	currency      string
	paymentMethod string
}

func NewStripeGateway(currency, paymentMethod string) *StripeGateway {
	return &StripeGateway{
		currency:      currency,
		paymentMethod: paymentMethod,
	}
}

func (s *StripeGateway) Pay(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	// Stripe refuses zero-amount intents; a fully discounted reservation is free.
	if !req.Amount.IsPositive() {
		return domain.PaymentResult{Approved: true, Reference: fmt.Sprintf("%s%d", freeReferencePrefix, req.ReservationID)}, nil
	}

	amountCents := req.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(s.currency),
		PaymentMethod: stripe.String(s.paymentMethod),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(req.Description),
		ReceiptEmail:  stripe.String(req.Email),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	params.AddMetadata("reservation_id", strconv.FormatInt(req.ReservationID, 10))
	params.AddMetadata("card", req.Card.Masked())
	params.AddMetadata("card_owner", req.Card.Owner)

	intent, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return domain.PaymentResult{Approved: false}, nil
		}

		return domain.PaymentResult{}, err
	}

	return domain.PaymentResult{
		Approved:  intent.Status == stripe.PaymentIntentStatusSucceeded,
		Reference: intent.ID,
	}, nil
}

// Refund reverses the intent behind reference. Free reservations never
// reached Stripe and have nothing to refund.
func (s *StripeGateway) Refund(ctx context.Context, reference string) error {
	if strings.HasPrefix(reference, freeReferencePrefix) {
		return nil
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(reference),
	}
	params.Context = ctx

	_, err := refund.New(params)

	return err
}
