package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
)

type PostgresMovieRepository struct {
	db *pgxpool.Pool
}

func NewPostgresMovieRepository(db *pgxpool.Pool) *PostgresMovieRepository {
	return &PostgresMovieRepository{
		db: db,
	}
}

func (p *PostgresMovieRepository) GetMovie(ctx context.Context, id int) (*domain.Movie, error) {
	query := `
		SELECT id, title, duration, min_age
		FROM movies
		WHERE id = $1
	`

	var movie domain.Movie

	err := p.db.QueryRow(ctx, query, id).Scan(&movie.ID, &movie.Title, &movie.Duration, &movie.MinAge)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, storageErr("get movie", err)
	}

	return &movie, nil
}

func (p *PostgresMovieRepository) PutMovie(ctx context.Context, movie *domain.Movie) error {
	query := `
		INSERT INTO movies (id, title, duration, min_age)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
			duration = EXCLUDED.duration,
			min_age = EXCLUDED.min_age
	`

	_, err := p.db.Exec(ctx, query, movie.ID, movie.Title, movie.Duration, movie.MinAge)
	if err != nil {
		return storageErr("put movie", err)
	}

	return nil
}

// ListMovies matches Term case-insensitively against titles. The sort column
// is interpolated, so anything outside MovieSortValues falls back to id.
func (p *PostgresMovieRepository) ListMovies(ctx context.Context, filters domain.MovieFilters) ([]*domain.Movie, *domain.Metadata, error) {
	if !slices.Contains(domain.MovieSortValues, filters.Sort) {
		filters.Sort = "id"
	}

	query := fmt.Sprintf(`SELECT count(*) OVER(), id, title, duration, min_age
		FROM movies
		WHERE title ILIKE '%%' || $1 || '%%'
		ORDER BY %s %s, id
		LIMIT $2 OFFSET $3`, filters.SortColumn(), filters.SortDirection())

	rows, err := p.db.Query(ctx, query, filters.Term, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, nil, storageErr("list movies", err)
	}
	defer rows.Close()

	totalRecords := 0
	movies := []*domain.Movie{}

	for rows.Next() {
		var movie domain.Movie

		err := rows.Scan(
			&totalRecords,
			&movie.ID,
			&movie.Title,
			&movie.Duration,
			&movie.MinAge,
		)
		if err != nil {
			return nil, nil, storageErr("list movies", err)
		}

		movies = append(movies, &movie)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, storageErr("list movies", err)
	}

	metadata := domain.NewMetadata(totalRecords, filters.Page, filters.PageSize)

	return movies, metadata, nil
}
