package cinema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/metinatakli/cinema-booking-engine/internal/clock"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/metinatakli/cinema-booking-engine/internal/lock"
	"github.com/shopspring/decimal"
)

// Config wires a Cinema. Locker, Clock and Logger default to an in-process
// lock, the system clock and slog.Default.
type Config struct {
	Store    domain.PersistenceGateway
	Payments domain.PaymentGateway
	Locker   domain.Locker
	Clock    clock.Clock
	Logger   *slog.Logger

	// Notifier is optional. When set it receives every paid reservation.
	Notifier *Notifier
}

// Cinema owns the live seat state of every loaded projection and the
// reservations being built against them. There is one per process.
type Cinema struct {
	store    domain.PersistenceGateway
	payments domain.PaymentGateway
	clock    clock.Clock
	logger   *slog.Logger
	notifier *Notifier
	pricing  *domain.CinemaPricing
	env      domain.ReservationEnv
	metrics  *metrics

	mu           sync.RWMutex
	projections  map[int]*domain.Projection
	reservations map[int64]*domain.Reservation
}

func New(cfg Config) (*Cinema, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSystem()
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Locker == nil {
		cfg.Locker = lock.NewKeyedMutex()
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	// AGE with its defaults until Load restores the stored choice.
	age, err := domain.DefaultDiscount(domain.DiscountTypeAge)
	if err != nil {
		return nil, err
	}

	pricing := domain.NewCinemaPricing(age)

	c := &Cinema{
		store:    cfg.Store,
		payments: cfg.Payments,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		notifier: cfg.Notifier,
		pricing:  pricing,
		metrics:  m,
		env: domain.ReservationEnv{
			Pricing:  pricing,
			Payments: cfg.Payments,
			Store:    cfg.Store,
			Locker:   cfg.Locker,
			Clock:    cfg.Clock,
		},
		projections:  make(map[int]*domain.Projection),
		reservations: make(map[int64]*domain.Reservation),
	}

	return c, nil
}

// Load restores the active pricing strategy and the seat state of every
// stored projection.
func (c *Cinema) Load(ctx context.Context) error {
	t, err := c.store.GetActiveDiscountType(ctx)
	if err != nil {
		return fmt.Errorf("load active discount: %w", err)
	}

	discount, err := c.store.GetDiscountConfig(ctx, t)
	if err != nil {
		return fmt.Errorf("load discount %s: %w", t, err)
	}

	c.pricing.SetActive(discount)

	projections, err := c.store.ListProjections(ctx)
	if err != nil {
		return fmt.Errorf("load projections: %w", err)
	}

	for _, p := range projections {
		if _, err := c.register(ctx, p); err != nil {
			return err
		}
	}

	c.logger.Info("cinema loaded", "projections", len(projections), "discount", t)

	return nil
}

// Projection returns the live projection, loading it from storage on first use.
func (c *Cinema) Projection(ctx context.Context, id int) (*domain.Projection, error) {
	c.mu.RLock()
	p, ok := c.projections[id]
	c.mu.RUnlock()

	if ok {
		return p, nil
	}

	p, err := c.store.GetProjection(ctx, id)
	if err != nil {
		return nil, err
	}

	return c.register(ctx, p)
}

// register seeds p with its durable occupancy and adds it to the registry
// unless another caller got there first.
func (c *Cinema) register(ctx context.Context, p *domain.Projection) (*domain.Projection, error) {
	occupied, err := c.store.GetOccupiedSeats(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load occupied seats of projection %d: %w", p.ID, err)
	}

	if err := p.MarkBooked(occupied); err != nil {
		return nil, fmt.Errorf("seed projection %d: %w", p.ID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.projections[p.ID]; ok {
		return existing, nil
	}

	c.projections[p.ID] = p

	return p, nil
}

// Schedule lists upcoming projections grouped by day.
func (c *Cinema) Schedule(ctx context.Context) ([]domain.DaySchedule, error) {
	stored, err := c.store.ListProjections(ctx)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	upcoming := make([]*domain.Projection, 0, len(stored))

	for _, s := range stored {
		if !s.DateTime.After(now) {
			continue
		}

		p, err := c.Projection(ctx, s.ID)
		if err != nil {
			return nil, err
		}

		upcoming = append(upcoming, p)
	}

	return domain.Schedule(upcoming), nil
}

func (c *Cinema) AddRoom(ctx context.Context, id, rows, cols int, premiumRows ...int) (*domain.Room, error) {
	room, err := domain.NewRoom(id, rows, cols, premiumRows...)
	if err != nil {
		return nil, err
	}

	if err := c.store.PutRoom(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

func (c *Cinema) Room(ctx context.Context, id int) (*domain.Room, error) {
	return c.store.GetRoom(ctx, id)
}

func (c *Cinema) AddMovie(ctx context.Context, id int, title string, duration, minAge int) (*domain.Movie, error) {
	movie, err := domain.NewMovie(id, title, duration, minAge)
	if err != nil {
		return nil, err
	}

	if err := c.store.PutMovie(ctx, movie); err != nil {
		return nil, err
	}

	return movie, nil
}

func (c *Cinema) Movie(ctx context.Context, id int) (*domain.Movie, error) {
	return c.store.GetMovie(ctx, id)
}

func (c *Cinema) Movies(ctx context.Context, filters domain.MovieFilters) ([]*domain.Movie, *domain.Metadata, error) {
	return c.store.ListMovies(ctx, filters)
}

// MovieProjections lists the upcoming projections of a movie in date order.
// A known movie with nothing scheduled ahead yields ErrNoMovieProjections.
func (c *Cinema) MovieProjections(ctx context.Context, movieID int) ([]*domain.Projection, error) {
	if _, err := c.store.GetMovie(ctx, movieID); err != nil {
		return nil, err
	}

	days, err := c.Schedule(ctx)
	if err != nil {
		return nil, err
	}

	var upcoming []*domain.Projection
	for _, day := range days {
		upcoming = append(upcoming, domain.ForMovie(day.Projections, movieID)...)
	}

	if len(upcoming) == 0 {
		return nil, domain.ErrNoMovieProjections
	}

	return upcoming, nil
}

type ProjectionInput struct {
	ID        int
	MovieID   int
	RoomID    int
	DateTime  time.Time
	BasePrice decimal.Decimal
}

func (c *Cinema) ScheduleProjection(ctx context.Context, in ProjectionInput) (*domain.Projection, error) {
	room, err := c.store.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}

	movie, err := c.store.GetMovie(ctx, in.MovieID)
	if err != nil {
		return nil, err
	}

	p, err := domain.NewProjection(in.ID, movie, room, in.DateTime, in.BasePrice)
	if err != nil {
		return nil, err
	}

	if err := c.store.PutProjection(ctx, p); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.projections[p.ID] = p
	c.mu.Unlock()

	c.logger.Info("projection scheduled", "projection_id", p.ID, "movie_id", movie.ID, "room_id", room.ID)

	return p, nil
}

// RemoveProjection deletes the projection and drops reservations in progress
// against it.
func (c *Cinema) RemoveProjection(ctx context.Context, id int) error {
	if err := c.store.RemoveProjection(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.projections, id)

	for rid, r := range c.reservations {
		if r.Projection.ID == id {
			delete(c.reservations, rid)
		}
	}

	c.logger.Info("projection removed", "projection_id", id)

	return nil
}

// CreateReservation opens a reservation with an id from the storage sequence.
func (c *Cinema) CreateReservation(ctx context.Context, projectionID int) (*domain.Reservation, error) {
	p, err := c.Projection(ctx, projectionID)
	if err != nil {
		return nil, err
	}

	if !p.DateTime.After(c.clock.Now()) {
		return nil, domain.ErrProjectionNotAvailable
	}

	id, err := c.store.NextReservationID(ctx)
	if err != nil {
		return nil, err
	}

	r := domain.NewReservation(id, p, c.env)

	c.mu.Lock()
	c.reservations[id] = r
	c.mu.Unlock()

	return r, nil
}

func (c *Cinema) Reservation(id int64) (*domain.Reservation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}

	return r, nil
}

// CommitReservation commits the reservation and, once it is paid, hands it
// to the notifier in the background.
func (c *Cinema) CommitReservation(ctx context.Context, id int64) (decimal.Decimal, error) {
	r, err := c.Reservation(id)
	if err != nil {
		return decimal.Zero, err
	}

	total, err := r.Commit(ctx)
	if err != nil {
		c.metrics.commitFailed(ctx, err)
		c.logger.Warn("reservation commit failed", "reservation_id", id, "error", err)
		return decimal.Zero, err
	}

	c.metrics.committed(ctx, total)
	c.logger.Info("reservation paid", "reservation_id", id, "projection_id", r.Projection.ID, "total", total.StringFixed(2))

	if summary, ok := r.Summary(); ok && c.notifier != nil {
		c.notifier.ReservationPaid(summary)
	}

	return total, nil
}

// AbandonReservation frees the seats held by an unpaid reservation and
// forgets it.
func (c *Cinema) AbandonReservation(id int64) error {
	r, err := c.Reservation(id)
	if err != nil {
		return err
	}

	err = r.Abandon()
	if errors.Is(err, domain.ErrReservationClosed) {
		return err
	}

	c.mu.Lock()
	delete(c.reservations, id)
	c.mu.Unlock()

	return err
}

// CancelReservation reverses a paid reservation: the charge is refunded when
// the gateway supports it, the record is deleted and its seats become free.
func (c *Cinema) CancelReservation(ctx context.Context, id int64) error {
	rec, err := c.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}

	if refunder, ok := c.payments.(domain.Refunder); ok && rec.Total.IsPositive() {
		if err := refunder.Refund(ctx, rec.PaymentReference); err != nil {
			return fmt.Errorf("%w: refund %s: %w", domain.ErrPayment, rec.PaymentReference, err)
		}
	}

	if err := c.store.DeleteReservation(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	p, loaded := c.projections[rec.ProjectionID]
	delete(c.reservations, id)
	c.mu.Unlock()

	if loaded {
		if err := p.ReleaseBooked(rec.Seats); err != nil {
			c.logger.Error("failed to release cancelled seats", "reservation_id", id, "error", err)
		}
	}

	c.logger.Info("reservation cancelled", "reservation_id", id, "projection_id", rec.ProjectionID)

	return nil
}

// ReservationRecord reads a paid reservation back from storage.
func (c *Cinema) ReservationRecord(ctx context.Context, id int64) (*domain.ReservationRecord, error) {
	return c.store.GetReservation(ctx, id)
}

func (c *Cinema) SeatOccupied(ctx context.Context, projectionID, row, col int) (bool, error) {
	return c.store.GetSeatOccupationStatus(ctx, projectionID, row, col)
}

// SetDiscountStrategy makes t the strategy every reservation is priced with.
func (c *Cinema) SetDiscountStrategy(ctx context.Context, t domain.DiscountType) error {
	if !t.Valid() {
		return domain.ErrDiscountNotFound
	}

	discount, err := c.store.GetDiscountConfig(ctx, t)
	if err != nil {
		return err
	}

	if err := c.store.SetActiveDiscountType(ctx, t); err != nil {
		return err
	}

	c.pricing.SetActive(discount)
	c.logger.Info("discount strategy changed", "discount", t)

	return nil
}

// ConfigureDiscount stores new parameters for a strategy; they apply at once
// if it is the active one.
func (c *Cinema) ConfigureDiscount(ctx context.Context, d *domain.Discount) error {
	if !d.Kind.Valid() {
		return domain.ErrDiscountNotFound
	}

	if err := c.store.PutDiscountConfig(ctx, d); err != nil {
		return err
	}

	if c.pricing.Type() == d.Kind {
		c.pricing.SetActive(d)
	}

	return nil
}

func (c *Cinema) ActiveDiscount() domain.DiscountStrategy {
	return c.pricing.Active()
}

func (c *Cinema) CreateCoupon(ctx context.Context, code string, discount decimal.Decimal) (*domain.Coupon, error) {
	coupon, err := domain.NewCoupon(code, discount)
	if err != nil {
		return nil, err
	}

	if err := c.store.PutCoupon(ctx, coupon); err != nil {
		return nil, err
	}

	return coupon, nil
}

func (c *Cinema) Coupon(ctx context.Context, code string) (*domain.Coupon, error) {
	return c.store.GetCoupon(ctx, code)
}

// Close waits for background notifications to finish.
func (c *Cinema) Close() {
	if c.notifier != nil {
		c.notifier.Wait()
	}
}
