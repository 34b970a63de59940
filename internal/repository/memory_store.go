package repository

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/shopspring/decimal"
)

type projectionRow struct {
	id        int
	movieID   int
	roomID    int
	dateTime  time.Time
	basePrice decimal.Decimal
}

// MemoryStore is an in-process domain.PersistenceGateway with the same
// atomicity guarantees as PostgresStore. It backs the dev profile and tests.
type MemoryStore struct {
	mu sync.Mutex

	rooms        map[int]*domain.Room
	movies       map[int]domain.Movie
	projections  map[int]projectionRow
	reservations map[int64]domain.ReservationRecord
	occupied     map[int]map[domain.SeatCoord]int64
	coupons      map[string]domain.Coupon
	discounts    map[domain.DiscountType]domain.Discount
	active       domain.DiscountType
	lastID       int64
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		rooms:        make(map[int]*domain.Room),
		movies:       make(map[int]domain.Movie),
		projections:  make(map[int]projectionRow),
		reservations: make(map[int64]domain.ReservationRecord),
		occupied:     make(map[int]map[domain.SeatCoord]int64),
		coupons:      make(map[string]domain.Coupon),
		discounts:    make(map[domain.DiscountType]domain.Discount),
		active:       domain.DiscountTypeAge,
	}

	for _, t := range []domain.DiscountType{domain.DiscountTypeAge, domain.DiscountTypeDay, domain.DiscountTypeNumber} {
		d, _ := domain.DefaultDiscount(t)
		s.discounts[t] = *d
	}

	return s
}

func (s *MemoryStore) GetRoom(_ context.Context, id int) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return room, nil
}

func (s *MemoryStore) PutRoom(_ context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms[room.ID] = room

	return nil
}

func (s *MemoryStore) GetProjection(_ context.Context, id int) (*domain.Projection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.projections[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return s.buildProjection(row)
}

func (s *MemoryStore) ListProjections(_ context.Context) ([]*domain.Projection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projections := make([]*domain.Projection, 0, len(s.projections))
	for _, id := range slices.Sorted(maps.Keys(s.projections)) {
		p, err := s.buildProjection(s.projections[id])
		if err != nil {
			return nil, err
		}

		projections = append(projections, p)
	}

	slices.SortStableFunc(projections, (*domain.Projection).Compare)

	return projections, nil
}

func (s *MemoryStore) PutProjection(_ context.Context, p *domain.Projection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projections[p.ID]; ok {
		return domain.ErrProjectionExists
	}

	if _, ok := s.rooms[p.Room.ID]; !ok {
		return domain.ErrRecordNotFound
	}

	if _, ok := s.movies[p.Movie.ID]; !ok {
		return domain.ErrRecordNotFound
	}

	s.projections[p.ID] = projectionRow{
		id:        p.ID,
		movieID:   p.Movie.ID,
		roomID:    p.Room.ID,
		dateTime:  p.DateTime,
		basePrice: p.BasePrice,
	}

	return nil
}

func (s *MemoryStore) RemoveProjection(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projections[id]; !ok {
		return domain.ErrRecordNotFound
	}

	delete(s.projections, id)
	delete(s.occupied, id)

	for rid, rec := range s.reservations {
		if rec.ProjectionID == id {
			delete(s.reservations, rid)
		}
	}

	return nil
}

func (s *MemoryStore) buildProjection(row projectionRow) (*domain.Projection, error) {
	room, ok := s.rooms[row.roomID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	movie, ok := s.movies[row.movieID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return domain.NewProjection(row.id, &movie, room, row.dateTime, row.basePrice)
}

func (s *MemoryStore) GetMovie(_ context.Context, id int) (*domain.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	movie, ok := s.movies[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return &movie, nil
}

func (s *MemoryStore) PutMovie(_ context.Context, movie *domain.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.movies[movie.ID] = *movie

	return nil
}

// ListMovies matches Term case-insensitively against titles, like the
// postgres store.
func (s *MemoryStore) ListMovies(_ context.Context, filters domain.MovieFilters) ([]*domain.Movie, *domain.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	term := strings.ToLower(filters.Term)

	var matched []*domain.Movie
	for _, m := range s.movies {
		if strings.Contains(strings.ToLower(m.Title), term) {
			matched = append(matched, &m)
		}
	}

	slices.SortFunc(matched, func(a, b *domain.Movie) int {
		var c int
		switch filters.SortColumn() {
		case "title":
			c = cmp.Compare(a.Title, b.Title)
		case "duration":
			c = cmp.Compare(a.Duration, b.Duration)
		}

		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}

		if filters.SortDirection() == "DESC" {
			return -c
		}

		return c
	})

	total := len(matched)
	start := min(filters.Offset(), total)
	end := min(start+filters.Limit(), total)

	return matched[start:end], domain.NewMetadata(total, filters.Page, filters.PageSize), nil
}

func (s *MemoryStore) NextReservationID(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++

	return s.lastID, nil
}

// CommitReservation validates every write before applying any of them.
func (s *MemoryStore) CommitReservation(_ context.Context, rec domain.ReservationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projections[rec.ProjectionID]; !ok {
		return storageErr("commit reservation", domain.ErrRecordNotFound)
	}

	if _, ok := s.reservations[rec.ID]; ok {
		return domain.ErrSeatUnavailable
	}

	var coupon domain.Coupon
	if rec.CouponCode != "" {
		c, ok := s.coupons[rec.CouponCode]
		if !ok {
			return domain.ErrCouponNotFound
		}

		if c.Used {
			return domain.ErrCouponAlreadyUsed
		}

		coupon = c
	}

	occupied := s.occupied[rec.ProjectionID]
	for _, seat := range rec.Seats {
		if _, taken := occupied[seat]; taken {
			return domain.ErrSeatUnavailable
		}
	}

	if occupied == nil {
		occupied = make(map[domain.SeatCoord]int64)
		s.occupied[rec.ProjectionID] = occupied
	}

	for _, seat := range rec.Seats {
		occupied[seat] = rec.ID
	}

	if rec.CouponCode != "" {
		coupon.Used = true
		s.coupons[coupon.Code] = coupon
	}

	rec.Seats = slices.Clone(rec.Seats)
	s.reservations[rec.ID] = rec

	return nil
}

func (s *MemoryStore) DeleteReservation(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.reservations[id]
	if !ok {
		return domain.ErrReservationNotFound
	}

	occupied := s.occupied[rec.ProjectionID]
	for _, seat := range rec.Seats {
		delete(occupied, seat)
	}

	delete(s.reservations, id)

	return nil
}

func (s *MemoryStore) GetReservation(_ context.Context, id int64) (*domain.ReservationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}

	rec.Seats = slices.Clone(rec.Seats)

	return &rec, nil
}

func (s *MemoryStore) GetOccupiedSeats(_ context.Context, projectionID int) ([]domain.SeatCoord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seats := slices.Collect(maps.Keys(s.occupied[projectionID]))
	slices.SortFunc(seats, func(a, b domain.SeatCoord) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})

	return seats, nil
}

func (s *MemoryStore) GetSeatOccupationStatus(_ context.Context, projectionID, row, col int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, taken := s.occupied[projectionID][domain.SeatCoord{Row: row, Col: col}]

	return taken, nil
}

func (s *MemoryStore) GetCoupon(_ context.Context, code string) (*domain.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coupon, ok := s.coupons[code]
	if !ok {
		return nil, domain.ErrCouponNotFound
	}

	return &coupon, nil
}

func (s *MemoryStore) PutCoupon(_ context.Context, coupon *domain.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.coupons[coupon.Code]; ok {
		return domain.ErrCouponExists
	}

	s.coupons[coupon.Code] = *coupon

	return nil
}

func (s *MemoryStore) MarkCouponUsed(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coupon, ok := s.coupons[code]
	switch {
	case !ok:
		return domain.ErrCouponNotFound
	case coupon.Used:
		return domain.ErrCouponAlreadyUsed
	}

	coupon.Used = true
	s.coupons[code] = coupon

	return nil
}

func (s *MemoryStore) GetDiscountConfig(_ context.Context, t domain.DiscountType) (*domain.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.discounts[t]
	if !ok {
		return nil, domain.ErrDiscountNotFound
	}

	d.Days = maps.Clone(d.Days)

	return &d, nil
}

func (s *MemoryStore) PutDiscountConfig(_ context.Context, d *domain.Discount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *d
	stored.Days = maps.Clone(d.Days)
	s.discounts[d.Kind] = stored

	return nil
}

func (s *MemoryStore) GetActiveDiscountType(_ context.Context) (domain.DiscountType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active, nil
}

func (s *MemoryStore) SetActiveDiscountType(_ context.Context, t domain.DiscountType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.discounts[t]; !ok {
		return domain.ErrDiscountNotFound
	}

	s.active = t

	return nil
}
