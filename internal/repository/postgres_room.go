package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
)

type PostgresRoomRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRoomRepository(db *pgxpool.Pool) *PostgresRoomRepository {
	return &PostgresRoomRepository{
		db: db,
	}
}

func (p *PostgresRoomRepository) GetRoom(ctx context.Context, id int) (*domain.Room, error) {
	query := `
		SELECT seat_rows, seat_cols, premium_rows
		FROM rooms
		WHERE id = $1
	`

	var (
		rows, cols  int
		premiumRows []int32
	)

	err := p.db.QueryRow(ctx, query, id).Scan(&rows, &cols, &premiumRows)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, storageErr("get room", err)
	}

	return domain.NewRoom(id, rows, cols, toInts(premiumRows)...)
}

func (p *PostgresRoomRepository) PutRoom(ctx context.Context, room *domain.Room) error {
	query := `
		INSERT INTO rooms (id, seat_rows, seat_cols, premium_rows)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET seat_rows = EXCLUDED.seat_rows,
			seat_cols = EXCLUDED.seat_cols,
			premium_rows = EXCLUDED.premium_rows
	`

	_, err := p.db.Exec(ctx, query, room.ID, room.Rows(), room.Cols(), toInt32s(room.PremiumRows()))
	if err != nil {
		return storageErr("put room", err)
	}

	return nil
}

func toInts(in []int32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

func toInt32s(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}
