package domain

import (
	"context"
	"fmt"
	"slices"
)

const maxRoomRows = 26

type SeatType string

const (
	SeatTypeNormal  SeatType = "NORMAL"
	SeatTypePremium SeatType = "PREMIUM"
)

// SeatCoord addresses a cell of a room grid, zero based.
type SeatCoord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type Seat struct {
	Row       int
	Col       int
	RowLetter string
	Number    int
	Type      SeatType
}

func (s Seat) Label() string {
	return fmt.Sprintf("%s%d", s.RowLetter, s.Number)
}

// Room is an immutable auditorium grid.
type Room struct {
	ID          int
	rows        int
	cols        int
	premiumRows []int
	seats       []Seat
}

// NewRoom builds a rows x cols grid. Rows listed in premiumRows hold PREMIUM
// seats, every other seat is NORMAL.
func NewRoom(id, rows, cols int, premiumRows ...int) (*Room, error) {
	if rows <= 0 || cols <= 0 || rows > maxRoomRows {
		return nil, ErrInvalidRoomDimensions
	}

	for _, row := range premiumRows {
		if row < 0 || row >= rows {
			return nil, ErrInvalidCoordinates
		}
	}

	room := &Room{
		ID:          id,
		rows:        rows,
		cols:        cols,
		premiumRows: slices.Clone(premiumRows),
		seats:       make([]Seat, 0, rows*cols),
	}

	for row := range rows {
		letter, _ := RowIndexToLetter(row)

		seatType := SeatTypeNormal
		if slices.Contains(premiumRows, row) {
			seatType = SeatTypePremium
		}

		for col := range cols {
			room.seats = append(room.seats, Seat{
				Row:       row,
				Col:       col,
				RowLetter: letter,
				Number:    col + 1,
				Type:      seatType,
			})
		}
	}

	return room, nil
}

func (r *Room) Rows() int {
	return r.rows
}

func (r *Room) Cols() int {
	return r.cols
}

func (r *Room) SeatCount() int {
	return r.rows * r.cols
}

func (r *Room) PremiumRows() []int {
	return slices.Clone(r.premiumRows)
}

func (r *Room) Contains(row, col int) bool {
	return row >= 0 && row < r.rows && col >= 0 && col < r.cols
}

func (r *Room) Seat(row, col int) (Seat, error) {
	if !r.Contains(row, col) {
		return Seat{}, ErrInvalidCoordinates
	}

	return r.seats[r.index(row, col)], nil
}

// Seats returns the grid in row-major order.
func (r *Room) Seats() []Seat {
	return slices.Clone(r.seats)
}

func (r *Room) index(row, col int) int {
	return row*r.cols + col
}

// RowIndexToLetter maps 0..25 to A..Z.
func RowIndexToLetter(index int) (string, error) {
	if index < 0 || index >= maxRoomRows {
		return "", ErrInvalidCoordinates
	}

	return string(rune('A' + index)), nil
}

func RowLetterToIndex(letter string) (int, error) {
	if len(letter) != 1 {
		return 0, ErrInvalidCoordinates
	}

	ch := letter[0]
	if ch >= 'a' && ch <= 'z' {
		ch -= 'a' - 'A'
	}

	if ch < 'A' || ch > 'Z' {
		return 0, ErrInvalidCoordinates
	}

	return int(ch - 'A'), nil
}

type RoomRepository interface {
	GetRoom(ctx context.Context, id int) (*Room, error)
	PutRoom(ctx context.Context, room *Room) error
}
