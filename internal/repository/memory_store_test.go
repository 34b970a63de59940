package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/metinatakli/cinema-booking-engine/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var (
	screening = time.Date(2030, time.March, 12, 20, 0, 0, 0, time.UTC)
	dune      = &domain.Movie{ID: 1, Title: "Dune", Duration: 155, MinAge: 13}
	alien     = &domain.Movie{ID: 2, Title: "Alien", Duration: 117, MinAge: 16}
)

type MemoryStoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *repository.MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreTestSuite))
}

func (s *MemoryStoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = repository.NewMemoryStore()

	room, err := domain.NewRoom(1, 3, 4, 2)
	s.Require().NoError(err)
	s.Require().NoError(s.store.PutRoom(s.ctx, room))

	s.Require().NoError(s.store.PutMovie(s.ctx, dune))

	p, err := domain.NewProjection(7, dune, room, screening, decimal.RequireFromString("12.50"))
	s.Require().NoError(err)
	s.Require().NoError(s.store.PutProjection(s.ctx, p))

	s.Require().NoError(s.store.PutCoupon(s.ctx, &domain.Coupon{Code: "SPRING2030", Discount: decimal.NewFromInt(5)}))
}

func (s *MemoryStoreTestSuite) record(id int64, coupon string, seats ...domain.SeatCoord) domain.ReservationRecord {
	return domain.ReservationRecord{
		ID:               id,
		ProjectionID:     7,
		PurchaseDate:     screening.Add(-24 * time.Hour),
		Purchaser:        domain.Purchaser{Name: "Ada", Surname: "Lovelace", Email: "ada@example.com"},
		Seats:            seats,
		MaskedCard:       "**** **** **** 4242",
		CouponCode:       coupon,
		DiscountType:     domain.DiscountTypeAge,
		Total:            decimal.RequireFromString("20.00"),
		PaymentReference: "sim-1",
		PaymentStatus:    domain.PaymentStatusCompleted,
	}
}

func (s *MemoryStoreTestSuite) TestProjections() {
	p, err := s.store.GetProjection(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(*dune, *p.Movie)
	s.Equal(12, p.Room.SeatCount())
	s.Equal(12, p.AvailableSeatCount())

	_, err = s.store.GetProjection(s.ctx, 99)
	s.ErrorIs(err, domain.ErrRecordNotFound)

	s.ErrorIs(s.store.PutProjection(s.ctx, p), domain.ErrProjectionExists)

	orphanRoom, err := domain.NewRoom(5, 1, 1)
	s.Require().NoError(err)
	orphan, err := domain.NewProjection(8, dune, orphanRoom, screening, decimal.NewFromInt(9))
	s.Require().NoError(err)
	s.ErrorIs(s.store.PutProjection(s.ctx, orphan), domain.ErrRecordNotFound)

	// Alien is not in the catalogue yet.
	unlisted, err := domain.NewProjection(9, alien, p.Room, screening, decimal.NewFromInt(9))
	s.Require().NoError(err)
	s.ErrorIs(s.store.PutProjection(s.ctx, unlisted), domain.ErrRecordNotFound)

	list, err := s.store.ListProjections(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *MemoryStoreTestSuite) TestMovies() {
	s.Require().NoError(s.store.PutMovie(s.ctx, alien))
	s.Require().NoError(s.store.PutMovie(s.ctx, &domain.Movie{ID: 3, Title: "Dune: Part Two", Duration: 166, MinAge: 13}))

	got, err := s.store.GetMovie(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(*alien, *got)

	_, err = s.store.GetMovie(s.ctx, 404)
	s.ErrorIs(err, domain.ErrRecordNotFound)

	tests := []struct {
		name      string
		filters   domain.MovieFilters
		wantIDs   []int
		wantTotal int
	}{
		{name: "by id", filters: domain.MovieFilters{Page: 1, PageSize: 10, Sort: "id"}, wantIDs: []int{1, 2, 3}, wantTotal: 3},
		{name: "by duration descending", filters: domain.MovieFilters{Page: 1, PageSize: 10, Sort: "-duration"}, wantIDs: []int{3, 1, 2}, wantTotal: 3},
		{name: "term", filters: domain.MovieFilters{Page: 1, PageSize: 10, Term: "DUNE", Sort: "title"}, wantIDs: []int{1, 3}, wantTotal: 2},
		{name: "second page", filters: domain.MovieFilters{Page: 2, PageSize: 2, Sort: "id"}, wantIDs: []int{3}, wantTotal: 3},
		{name: "past the end", filters: domain.MovieFilters{Page: 5, PageSize: 2, Sort: "id"}, wantIDs: []int{}, wantTotal: 3},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			movies, meta, err := s.store.ListMovies(s.ctx, tt.filters)
			s.Require().NoError(err)

			ids := []int{}
			for _, m := range movies {
				ids = append(ids, m.ID)
			}

			s.Equal(tt.wantIDs, ids)
			s.Equal(tt.wantTotal, meta.TotalRecords)
		})
	}
}

func (s *MemoryStoreTestSuite) TestCommitReservation() {
	id, err := s.store.NextReservationID(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), id)

	seats := []domain.SeatCoord{{Row: 1, Col: 3}, {Row: 0, Col: 2}}
	s.Require().NoError(s.store.CommitReservation(s.ctx, s.record(id, "", seats...)))

	occupied, err := s.store.GetOccupiedSeats(s.ctx, 7)
	s.Require().NoError(err)
	s.Empty(cmp.Diff([]domain.SeatCoord{{Row: 0, Col: 2}, {Row: 1, Col: 3}}, occupied))

	taken, err := s.store.GetSeatOccupationStatus(s.ctx, 7, 1, 3)
	s.Require().NoError(err)
	s.True(taken)

	taken, err = s.store.GetSeatOccupationStatus(s.ctx, 7, 2, 2)
	s.Require().NoError(err)
	s.False(taken)

	rec, err := s.store.GetReservation(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Lovelace", rec.Purchaser.Surname)
	s.True(decimal.RequireFromString("20").Equal(rec.Total))
}

func (s *MemoryStoreTestSuite) TestCommitIsAllOrNothing() {
	s.Require().NoError(s.store.CommitReservation(s.ctx, s.record(1, "", domain.SeatCoord{Row: 0, Col: 0})))

	tests := []struct {
		name    string
		record  domain.ReservationRecord
		wantErr error
	}{
		{
			name:    "seat already booked",
			record:  s.record(2, "SPRING2030", domain.SeatCoord{Row: 0, Col: 1}, domain.SeatCoord{Row: 0, Col: 0}),
			wantErr: domain.ErrSeatUnavailable,
		},
		{
			name:    "duplicate id",
			record:  s.record(1, "", domain.SeatCoord{Row: 2, Col: 2}),
			wantErr: domain.ErrSeatUnavailable,
		},
		{
			name:    "unknown coupon",
			record:  s.record(3, "NOPE-NOPE", domain.SeatCoord{Row: 0, Col: 1}),
			wantErr: domain.ErrCouponNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.store.CommitReservation(s.ctx, tt.record)
			s.ErrorIs(err, tt.wantErr)

			taken, err := s.store.GetSeatOccupationStatus(s.ctx, 7, 0, 1)
			s.Require().NoError(err)
			s.False(taken)

			coupon, err := s.store.GetCoupon(s.ctx, "SPRING2030")
			s.Require().NoError(err)
			s.False(coupon.Used)
		})
	}
}

func (s *MemoryStoreTestSuite) TestCouponIsSingleUse() {
	s.Require().NoError(s.store.CommitReservation(s.ctx, s.record(1, "SPRING2030", domain.SeatCoord{Row: 0, Col: 0})))

	coupon, err := s.store.GetCoupon(s.ctx, "SPRING2030")
	s.Require().NoError(err)
	s.True(coupon.Used)

	err = s.store.CommitReservation(s.ctx, s.record(2, "SPRING2030", domain.SeatCoord{Row: 0, Col: 1}))
	s.ErrorIs(err, domain.ErrCouponAlreadyUsed)

	s.ErrorIs(s.store.MarkCouponUsed(s.ctx, "SPRING2030"), domain.ErrCouponAlreadyUsed)
	s.ErrorIs(s.store.MarkCouponUsed(s.ctx, "UNKNOWN-CODE"), domain.ErrCouponNotFound)
	s.ErrorIs(s.store.PutCoupon(s.ctx, &domain.Coupon{Code: "SPRING2030"}), domain.ErrCouponExists)
}

func (s *MemoryStoreTestSuite) TestDeleteReservationFreesSeats() {
	s.Require().NoError(s.store.CommitReservation(s.ctx, s.record(1, "", domain.SeatCoord{Row: 2, Col: 0})))
	s.Require().NoError(s.store.DeleteReservation(s.ctx, 1))

	occupied, err := s.store.GetOccupiedSeats(s.ctx, 7)
	s.Require().NoError(err)
	s.Empty(occupied)

	_, err = s.store.GetReservation(s.ctx, 1)
	s.ErrorIs(err, domain.ErrReservationNotFound)
	s.ErrorIs(s.store.DeleteReservation(s.ctx, 1), domain.ErrReservationNotFound)
}

func (s *MemoryStoreTestSuite) TestRemoveProjectionDropsReservations() {
	s.Require().NoError(s.store.CommitReservation(s.ctx, s.record(1, "", domain.SeatCoord{Row: 2, Col: 0})))
	s.Require().NoError(s.store.RemoveProjection(s.ctx, 7))

	_, err := s.store.GetReservation(s.ctx, 1)
	s.ErrorIs(err, domain.ErrReservationNotFound)
	s.ErrorIs(s.store.RemoveProjection(s.ctx, 7), domain.ErrRecordNotFound)
}

func TestMemoryStoreDiscounts(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	active, err := store.GetActiveDiscountType(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DiscountTypeAge, active)

	day := domain.NewDayDiscount(map[string]decimal.Decimal{"2030-03-12": decimal.RequireFromString("0.2")})
	require.NoError(t, store.PutDiscountConfig(ctx, day))

	// The stored copy must not alias the caller's map.
	day.Days["2030-03-13"] = decimal.NewFromInt(1)

	got, err := store.GetDiscountConfig(ctx, domain.DiscountTypeDay)
	require.NoError(t, err)
	assert.Len(t, got.Days, 1)

	require.NoError(t, store.SetActiveDiscountType(ctx, domain.DiscountTypeDay))
	active, err = store.GetActiveDiscountType(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DiscountTypeDay, active)

	assert.ErrorIs(t, store.SetActiveDiscountType(ctx, "RANDOM"), domain.ErrDiscountNotFound)
}
