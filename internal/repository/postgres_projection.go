package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/shopspring/decimal"
)

type PostgresProjectionRepository struct {
	db *pgxpool.Pool
}

func NewPostgresProjectionRepository(db *pgxpool.Pool) *PostgresProjectionRepository {
	return &PostgresProjectionRepository{
		db: db,
	}
}

const selectProjection = `
	SELECT
		p.id,
		m.id,
		m.title,
		m.duration,
		m.min_age,
		p.start_time,
		p.base_price,
		r.id,
		r.seat_rows,
		r.seat_cols,
		r.premium_rows
	FROM projections p
	JOIN movies m ON m.id = p.movie_id
	JOIN rooms r ON r.id = p.room_id
`

// GetProjection returns the projection with every seat free; occupancy is
// read separately through GetOccupiedSeats.
func (p *PostgresProjectionRepository) GetProjection(ctx context.Context, id int) (*domain.Projection, error) {
	query := selectProjection + ` WHERE p.id = $1`

	projection, err := scanProjection(p.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, storageErr("get projection", err)
	}

	return projection, nil
}

func (p *PostgresProjectionRepository) ListProjections(ctx context.Context) ([]*domain.Projection, error) {
	query := selectProjection + ` ORDER BY p.start_time, p.id`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, storageErr("list projections", err)
	}
	defer rows.Close()

	projections := make([]*domain.Projection, 0)

	for rows.Next() {
		projection, err := scanProjection(rows)
		if err != nil {
			return nil, storageErr("list projections", err)
		}

		projections = append(projections, projection)
	}

	if err = rows.Err(); err != nil {
		return nil, storageErr("list projections", err)
	}

	return projections, nil
}

func (p *PostgresProjectionRepository) PutProjection(ctx context.Context, projection *domain.Projection) error {
	query := `
		INSERT INTO projections (id, movie_id, room_id, start_time, base_price)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := p.db.Exec(
		ctx,
		query,
		projection.ID,
		projection.Movie.ID,
		projection.Room.ID,
		projection.DateTime,
		projection.BasePrice,
	)

	switch {
	case err == nil:
		return nil
	case hasErrCode(err, pgerrcode.UniqueViolation):
		return domain.ErrProjectionExists
	case hasErrCode(err, pgerrcode.ForeignKeyViolation):
		return domain.ErrRecordNotFound
	default:
		return storageErr("put projection", err)
	}
}

func (p *PostgresProjectionRepository) RemoveProjection(ctx context.Context, id int) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM projections WHERE id = $1`, id)
	if err != nil {
		return storageErr("remove projection", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func scanProjection(row pgx.Row) (*domain.Projection, error) {
	var (
		id, roomID, rows, cols int
		movie                  domain.Movie
		startTime              time.Time
		basePrice              decimal.Decimal
		premiumRows            []int32
	)

	err := row.Scan(
		&id,
		&movie.ID,
		&movie.Title,
		&movie.Duration,
		&movie.MinAge,
		&startTime,
		&basePrice,
		&roomID,
		&rows,
		&cols,
		&premiumRows,
	)
	if err != nil {
		return nil, err
	}

	room, err := domain.NewRoom(roomID, rows, cols, toInts(premiumRows)...)
	if err != nil {
		return nil, err
	}

	return domain.NewProjection(id, &movie, room, startTime, basePrice)
}
