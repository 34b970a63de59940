package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileGeneratorWritesReceipt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "receipts")
	g := NewFileGenerator(dir)

	summary := domain.ReservationSummary{
		ReservationRecord: domain.ReservationRecord{
			ID:               7,
			PurchaseDate:     time.Date(2030, time.January, 2, 10, 0, 0, 0, time.UTC),
			Purchaser:        domain.Purchaser{Name: "Ada", Surname: "Lovelace", Email: "ada@example.com"},
			MaskedCard:       "**** **** **** 4242",
			CouponCode:       "WELCOME2030",
			UnderMinAge:      1,
			DiscountType:     domain.DiscountTypeAge,
			Total:            decimal.RequireFromString("19.63"),
			PaymentReference: "sim-7",
		},
		Movie:      "Metropolis",
		RoomID:     1,
		Screening:  time.Date(2030, time.January, 3, 21, 0, 0, 0, time.UTC),
		SeatLabels: []string{"A1", "A2"},
	}

	path, err := g.Generate(context.Background(), summary)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "Reservation:  #7")
	assert.Contains(t, text, "Seats:        A1 A2")
	assert.Contains(t, text, "Reduced:      1 child, 0 senior")
	assert.Contains(t, text, "Coupon:       WELCOME2030")
	assert.Contains(t, text, "Total:        19.63")
	assert.NotContains(t, text, "4242 4242")
}

func TestFileGeneratorHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileGenerator(t.TempDir()).Generate(ctx, domain.ReservationSummary{})
	assert.ErrorIs(t, err, context.Canceled)
}
