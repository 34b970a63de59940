package domain

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type SeatState int

const (
	SeatFree SeatState = iota
	SeatHeld
	SeatBooked
)

func (s SeatState) String() string {
	switch s {
	case SeatHeld:
		return "held"
	case SeatBooked:
		return "booked"
	default:
		return "free"
	}
}

type cell struct {
	state  SeatState
	holder int64
}

// Projection is one scheduled showing of a movie in a room. Its seat arena is
// sized from the room once and only changes through the methods below, all of
// which hold mu for the whole check-and-set.
type Projection struct {
	ID        int
	Movie     *Movie
	Room      *Room
	DateTime  time.Time
	BasePrice decimal.Decimal

	mu    sync.Mutex
	cells []cell
}

// NewProjection schedules movie in room. basePrice must be positive and in
// whole cents.
func NewProjection(id int, movie *Movie, room *Room, dateTime time.Time, basePrice decimal.Decimal) (*Projection, error) {
	if room == nil || movie == nil {
		return nil, ErrRecordNotFound
	}

	if !basePrice.IsPositive() || !basePrice.Equal(basePrice.Truncate(2)) {
		return nil, ErrInvalidPrice
	}

	return &Projection{
		ID:        id,
		Movie:     movie,
		Room:      room,
		DateTime:  dateTime,
		BasePrice: basePrice,
		cells:     make([]cell, room.SeatCount()),
	}, nil
}

func (p *Projection) IsAvailable(row, col int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.cell(row, col)
	if err != nil {
		return false, err
	}

	return c.state == SeatFree, nil
}

// TakeSeat holds a free seat for the given reservation.
func (p *Projection) TakeSeat(row, col int, holder int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.cell(row, col)
	if err != nil {
		return err
	}

	if c.state != SeatFree {
		return ErrSeatUnavailable
	}

	c.state = SeatHeld
	c.holder = holder

	return nil
}

// FreeSeat releases a seat held by the given reservation.
func (p *Projection) FreeSeat(row, col int, holder int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.cell(row, col)
	if err != nil {
		return err
	}

	switch {
	case c.state == SeatFree:
		return ErrSeatAlreadyFree
	case c.state == SeatBooked || c.holder != holder:
		return ErrNotSeatOwner
	}

	*c = cell{}

	return nil
}

// BookSeats turns seats held by holder into booked seats. Either every seat
// is booked or none is.
func (p *Projection) BookSeats(seats []SeatCoord, holder int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range seats {
		c, err := p.cell(s.Row, s.Col)
		if err != nil {
			return err
		}

		if c.state != SeatHeld || c.holder != holder {
			return ErrNotSeatOwner
		}
	}

	for _, s := range seats {
		c, _ := p.cell(s.Row, s.Col)
		c.state = SeatBooked
	}

	return nil
}

// MarkBooked records seats that are already durably occupied.
func (p *Projection) MarkBooked(seats []SeatCoord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range seats {
		c, err := p.cell(s.Row, s.Col)
		if err != nil {
			return err
		}

		if c.state == SeatHeld {
			return ErrSeatUnavailable
		}
	}

	for _, s := range seats {
		c, _ := p.cell(s.Row, s.Col)
		*c = cell{state: SeatBooked}
	}

	return nil
}

// ReleaseBooked frees booked seats after a paid reservation is cancelled.
func (p *Projection) ReleaseBooked(seats []SeatCoord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range seats {
		c, err := p.cell(s.Row, s.Col)
		if err != nil {
			return err
		}

		if c.state != SeatBooked {
			return ErrSeatAlreadyFree
		}
	}

	for _, s := range seats {
		c, _ := p.cell(s.Row, s.Col)
		*c = cell{}
	}

	return nil
}

func (p *Projection) AvailableSeatCount() int {
	return p.count(SeatFree)
}

func (p *Projection) HeldSeatCount() int {
	return p.count(SeatHeld)
}

func (p *Projection) BookedSeatCount() int {
	return p.count(SeatBooked)
}

func (p *Projection) count(state SeatState) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, c := range p.cells {
		if c.state == state {
			n++
		}
	}

	return n
}

// SeatLabel returns the human label ("A1") of a seat of this projection's room.
func (p *Projection) SeatLabel(seat Seat) (string, error) {
	for _, s := range p.Room.seats {
		if s == seat {
			return fmt.Sprintf("%s%d", s.RowLetter, s.Col+1), nil
		}
	}

	return "", ErrSeatNotFound
}

// SeatLabelAt is SeatLabel for a coordinate.
func (p *Projection) SeatLabelAt(row, col int) (string, error) {
	seat, err := p.Room.Seat(row, col)
	if err != nil {
		return "", err
	}

	return p.SeatLabel(seat)
}

type SeatStatus struct {
	Seat
	State  SeatState
	Holder int64
}

// SeatMap is a point-in-time copy of the arena.
func (p *Projection) SeatMap() []SeatStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SeatStatus, len(p.cells))
	for i, c := range p.cells {
		statuses[i] = SeatStatus{
			Seat:   p.Room.seats[i],
			State:  c.state,
			Holder: c.holder,
		}
	}

	return statuses
}

// ForMovie keeps the projections of one movie, in order.
func ForMovie(projections []*Projection, movieID int) []*Projection {
	var out []*Projection
	for _, p := range projections {
		if p.Movie.ID == movieID {
			out = append(out, p)
		}
	}

	return out
}

// Compare orders projections by date and time.
func (p *Projection) Compare(other *Projection) int {
	return p.DateTime.Compare(other.DateTime)
}

func (p *Projection) cell(row, col int) (*cell, error) {
	if !p.Room.Contains(row, col) {
		return nil, ErrInvalidCoordinates
	}

	return &p.cells[p.Room.index(row, col)], nil
}

type DaySchedule struct {
	Date        time.Time
	Projections []*Projection
}

// Schedule sorts projections chronologically and groups them by calendar day.
func Schedule(projections []*Projection) []DaySchedule {
	sorted := slices.Clone(projections)
	slices.SortStableFunc(sorted, (*Projection).Compare)

	var days []DaySchedule
	for _, p := range sorted {
		y, m, d := p.DateTime.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, p.DateTime.Location())

		if n := len(days); n > 0 && days[n-1].Date.Equal(day) {
			days[n-1].Projections = append(days[n-1].Projections, p)
			continue
		}

		days = append(days, DaySchedule{Date: day, Projections: []*Projection{p}})
	}

	return days
}

type ProjectionRepository interface {
	GetProjection(ctx context.Context, id int) (*Projection, error)
	ListProjections(ctx context.Context) ([]*Projection, error)
	PutProjection(ctx context.Context, p *Projection) error
	RemoveProjection(ctx context.Context, id int) error
}
