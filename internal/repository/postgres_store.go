package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements domain.PersistenceGateway on one connection pool.
type PostgresStore struct {
	*PostgresRoomRepository
	*PostgresMovieRepository
	*PostgresProjectionRepository
	*PostgresReservationRepository
	*PostgresCouponRepository
	*PostgresDiscountRepository
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		PostgresRoomRepository:        NewPostgresRoomRepository(db),
		PostgresMovieRepository:       NewPostgresMovieRepository(db),
		PostgresProjectionRepository:  NewPostgresProjectionRepository(db),
		PostgresReservationRepository: NewPostgresReservationRepository(db),
		PostgresCouponRepository:      NewPostgresCouponRepository(db),
		PostgresDiscountRepository:    NewPostgresDiscountRepository(db),
	}
}
