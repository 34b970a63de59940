package domain

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/metinatakli/cinema-booking-engine/internal/clock"
	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationStatusBuilding ReservationStatus = "building"
	ReservationStatusPriced   ReservationStatus = "priced"
	ReservationStatusPaid     ReservationStatus = "paid"
	ReservationStatusFailed   ReservationStatus = "failed"
)

// Locker serializes work on a shared key across reservations.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ReservationStore is the part of the persistence gateway a commit needs.
type ReservationStore interface {
	GetCoupon(ctx context.Context, code string) (*Coupon, error)
	CommitReservation(ctx context.Context, rec ReservationRecord) error
}

// ReservationEnv carries the collaborators shared by every reservation of a
// cinema. It is built once at startup.
type ReservationEnv struct {
	Pricing  DiscountStrategy
	Payments PaymentGateway
	Store    ReservationStore
	Locker   Locker
	Clock    clock.Clock
}

// ReservationRecord is the durable form of a paid reservation.
type ReservationRecord struct {
	ID               int64
	ProjectionID     int
	PurchaseDate     time.Time
	Purchaser        Purchaser
	Seats            []SeatCoord
	MaskedCard       string
	CouponCode       string
	UnderMinAge      int
	OverMaxAge       int
	DiscountType     DiscountType
	Total            decimal.Decimal
	PaymentReference string
	PaymentStatus    PaymentStatus
}

// ReservationSummary is what receipts, emails and events are built from.
type ReservationSummary struct {
	ReservationRecord
	Movie      string
	RoomID     int
	Screening  time.Time
	SeatLabels []string
}

type ReservationRepository interface {
	NextReservationID(ctx context.Context) (int64, error)
	CommitReservation(ctx context.Context, rec ReservationRecord) error
	DeleteReservation(ctx context.Context, id int64) error
	GetReservation(ctx context.Context, id int64) (*ReservationRecord, error)
	GetOccupiedSeats(ctx context.Context, projectionID int) ([]SeatCoord, error)
	GetSeatOccupationStatus(ctx context.Context, projectionID, row, col int) (bool, error)
}

// PersistenceGateway is everything the cinema needs from durable storage.
type PersistenceGateway interface {
	RoomRepository
	MovieRepository
	ProjectionRepository
	ReservationRepository
	CouponRepository
	DiscountRepository
}

// Reservation is a purchase in progress against one projection. Mutators are
// rejected with ErrReservationClosed once it is paid and leave it unchanged
// on any error. The reservation lock is always taken before the projection
// lock.
type Reservation struct {
	ID         int64
	Projection *Projection

	env ReservationEnv

	mu           sync.Mutex
	status       ReservationStatus
	seats        []SeatCoord
	purchaser    *Purchaser
	card         *PaymentCard
	couponCode   string
	underMinAge  int
	overMaxAge   int
	purchaseDate time.Time
	total        decimal.Decimal
	discountType DiscountType
	paymentRef   string
}

func NewReservation(id int64, projection *Projection, env ReservationEnv) *Reservation {
	return &Reservation{
		ID:         id,
		Projection: projection,
		env:        env,
		status:     ReservationStatusBuilding,
	}
}

func (r *Reservation) AddSeat(row, col int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOpen(); err != nil {
		return err
	}

	if !r.Projection.Room.Contains(row, col) {
		return ErrInvalidCoordinates
	}

	coord := SeatCoord{Row: row, Col: col}
	if slices.Contains(r.seats, coord) {
		return ErrDuplicateSeat
	}

	if err := r.Projection.TakeSeat(row, col, r.ID); err != nil {
		return err
	}

	r.seats = append(r.seats, coord)

	return nil
}

func (r *Reservation) RemoveSeat(row, col int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOpen(); err != nil {
		return err
	}

	idx := slices.Index(r.seats, SeatCoord{Row: row, Col: col})
	if idx < 0 {
		return ErrNotSeatOwner
	}

	// Discounted spectators must still fit in the remaining seats.
	if r.underMinAge+r.overMaxAge > len(r.seats)-1 {
		return ErrInvalidCount
	}

	if err := r.Projection.FreeSeat(row, col, r.ID); err != nil {
		return err
	}

	r.seats = slices.Delete(r.seats, idx, idx+1)

	return nil
}

func (r *Reservation) SetPurchaser(p Purchaser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOpen(); err != nil {
		return err
	}

	valid, err := NewPurchaser(p.Name, p.Surname, p.Email)
	if err != nil {
		return err
	}

	r.purchaser = &valid

	return nil
}

func (r *Reservation) SetPaymentCard(c PaymentCard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOpen(); err != nil {
		return err
	}

	valid, err := NewPaymentCard(c.Number, c.Owner, c.CVV, c.ExpiryYear, c.ExpiryMonth, r.env.Clock.Now())
	if err != nil {
		return err
	}

	r.card = &valid

	return nil
}

func (r *Reservation) SetDiscountInputs(underMinAge, overMaxAge int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOpen(); err != nil {
		return err
	}

	if underMinAge < 0 || overMaxAge < 0 || underMinAge+overMaxAge > len(r.seats) {
		return ErrInvalidCount
	}

	r.underMinAge = underMinAge
	r.overMaxAge = overMaxAge

	return nil
}

// SetCoupon attaches a coupon after checking it exists and is unused. The
// check is repeated under the coupon lock at commit. An empty code detaches
// the current coupon.
func (r *Reservation) SetCoupon(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOpen(); err != nil {
		return err
	}

	if code == "" {
		r.couponCode = ""
		return nil
	}

	coupon, err := r.env.Store.GetCoupon(ctx, code)
	if err != nil {
		return err
	}

	if coupon.Used {
		return ErrCouponAlreadyUsed
	}

	r.couponCode = coupon.Code

	return nil
}

// Abandon releases every seat this reservation holds.
func (r *Reservation) Abandon() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOpen(); err != nil {
		return err
	}

	var errs []error
	for _, s := range r.seats {
		if err := r.Projection.FreeSeat(s.Row, s.Col, r.ID); err != nil {
			errs = append(errs, fmt.Errorf("seat %d,%d: %w", s.Row, s.Col, err))
		}
	}

	r.seats = nil
	r.underMinAge, r.overMaxAge = 0, 0

	return errors.Join(errs...)
}

// FullPrice is the undiscounted price of the current selection.
func (r *Reservation) FullPrice() decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.Projection.BasePrice.Mul(decimal.NewFromInt(int64(len(r.seats))))
}

// Quote prices the reservation the way Commit would, without paying.
func (r *Reservation) Quote(ctx context.Context) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == ReservationStatusPaid {
		return r.total, nil
	}

	return r.price(ctx)
}

// Commit prices the reservation, charges the card and durably records it.
// A declined or failed payment leaves the reservation Failed and editable
// with its seats still held; nothing is written to storage.
func (r *Reservation) Commit(ctx context.Context) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOpen(); err != nil {
		return decimal.Zero, err
	}

	switch {
	case len(r.seats) == 0:
		return decimal.Zero, ErrNoSeat
	case r.purchaser == nil:
		return decimal.Zero, ErrNoPurchaser
	case r.card == nil:
		return decimal.Zero, ErrNoPayment
	}

	if r.couponCode != "" {
		unlock, err := r.env.Locker.Lock(ctx, CouponLockKey(r.couponCode))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: lock coupon: %w", ErrStorage, err)
		}
		defer unlock()
	}

	total, err := r.price(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	r.status = ReservationStatusPriced

	result, err := r.env.Payments.Pay(ctx, PaymentRequest{
		ReservationID: r.ID,
		Amount:        total,
		Card:          *r.card,
		Email:         r.purchaser.Email,
		Description:   fmt.Sprintf("%s, %d seat(s), reservation %d", r.Projection.Movie.Title, len(r.seats), r.ID),
	})
	if err != nil {
		r.status = ReservationStatusFailed
		return decimal.Zero, fmt.Errorf("%w: %w", ErrPayment, err)
	}

	if !result.Approved {
		r.status = ReservationStatusFailed
		return decimal.Zero, ErrPayment
	}

	rec := ReservationRecord{
		ID:               r.ID,
		ProjectionID:     r.Projection.ID,
		PurchaseDate:     r.env.Clock.Now(),
		Purchaser:        *r.purchaser,
		Seats:            slices.Clone(r.seats),
		MaskedCard:       r.card.Masked(),
		CouponCode:       r.couponCode,
		UnderMinAge:      r.underMinAge,
		OverMaxAge:       r.overMaxAge,
		DiscountType:     r.env.Pricing.Type(),
		Total:            total,
		PaymentReference: result.Reference,
		PaymentStatus:    PaymentStatusCompleted,
	}

	err = r.env.Store.CommitReservation(ctx, rec)
	if err != nil {
		r.status = ReservationStatusFailed
		return decimal.Zero, r.refund(ctx, result.Reference, storageError(err))
	}

	// Held cells can only be released by this reservation, under r.mu.
	_ = r.Projection.BookSeats(r.seats, r.ID)

	r.status = ReservationStatusPaid
	r.purchaseDate = rec.PurchaseDate
	r.total = total
	r.discountType = rec.DiscountType
	r.paymentRef = result.Reference

	return total, nil
}

func (r *Reservation) price(ctx context.Context) (decimal.Decimal, error) {
	total, err := r.env.Pricing.Total(PriceInput{
		BasePrice:   r.Projection.BasePrice,
		Seats:       len(r.seats),
		UnderMinAge: r.underMinAge,
		OverMaxAge:  r.overMaxAge,
		Date:        r.Projection.DateTime,
	})
	if err != nil {
		return decimal.Zero, err
	}

	if r.couponCode == "" {
		return total, nil
	}

	coupon, err := r.env.Store.GetCoupon(ctx, r.couponCode)
	if err != nil {
		return decimal.Zero, err
	}

	if coupon.Used {
		return decimal.Zero, ErrCouponAlreadyUsed
	}

	return coupon.Apply(total), nil
}

func (r *Reservation) refund(ctx context.Context, reference string, cause error) error {
	refunder, ok := r.env.Payments.(Refunder)
	if !ok || reference == "" {
		return cause
	}

	if err := refunder.Refund(ctx, reference); err != nil {
		return errors.Join(cause, fmt.Errorf("refund %s: %w", reference, err))
	}

	return cause
}

func storageError(err error) error {
	if errors.Is(err, ErrStorage) || errors.Is(err, ErrSeatUnavailable) || errors.Is(err, ErrCouponAlreadyUsed) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func (r *Reservation) checkOpen() error {
	if r.status == ReservationStatusPaid {
		return ErrReservationClosed
	}

	return nil
}

func CouponLockKey(code string) string {
	return "coupon:" + code
}

func (r *Reservation) Status() ReservationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status
}

func (r *Reservation) Seats() []SeatCoord {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.seats)
}

func (r *Reservation) Purchaser() (Purchaser, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.purchaser == nil {
		return Purchaser{}, false
	}

	return *r.purchaser, true
}

func (r *Reservation) HasPaymentCard() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.card != nil
}

func (r *Reservation) CouponCode() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.couponCode
}

func (r *Reservation) DiscountInputs() (underMinAge, overMaxAge int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.underMinAge, r.overMaxAge
}

// Summary describes a paid reservation. ok is false before payment.
func (r *Reservation) Summary() (summary ReservationSummary, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != ReservationStatusPaid {
		return ReservationSummary{}, false
	}

	labels := make([]string, 0, len(r.seats))
	for _, s := range r.seats {
		label, err := r.Projection.SeatLabelAt(s.Row, s.Col)
		if err == nil {
			labels = append(labels, label)
		}
	}

	return ReservationSummary{
		ReservationRecord: ReservationRecord{
			ID:               r.ID,
			ProjectionID:     r.Projection.ID,
			PurchaseDate:     r.purchaseDate,
			Purchaser:        *r.purchaser,
			Seats:            slices.Clone(r.seats),
			MaskedCard:       r.card.Masked(),
			CouponCode:       r.couponCode,
			UnderMinAge:      r.underMinAge,
			OverMaxAge:       r.overMaxAge,
			DiscountType:     r.discountType,
			Total:            r.total,
			PaymentReference: r.paymentRef,
			PaymentStatus:    PaymentStatusCompleted,
		},
		Movie:      r.Projection.Movie.Title,
		RoomID:     r.Projection.Room.ID,
		Screening:  r.Projection.DateTime,
		SeatLabels: labels,
	}, true
}
