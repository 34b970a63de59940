package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
)

type PostgresReservationRepository struct {
	db *pgxpool.Pool
}

func NewPostgresReservationRepository(db *pgxpool.Pool) *PostgresReservationRepository {
	return &PostgresReservationRepository{
		db: db,
	}
}

func (p *PostgresReservationRepository) NextReservationID(ctx context.Context) (int64, error) {
	var id int64

	err := p.db.QueryRow(ctx, `SELECT nextval('reservation_id_seq')`).Scan(&id)
	if err != nil {
		return 0, storageErr("next reservation id", err)
	}

	return id, nil
}

// CommitReservation spends the coupon, inserts the reservation and copies its
// seats in one transaction. The unique (projection, row, col) constraint
// rejects a seat that another process booked first.
func (p *PostgresReservationRepository) CommitReservation(ctx context.Context, rec domain.ReservationRecord) error {
	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		if rec.CouponCode != "" {
			err := markCouponUsed(ctx, tx, rec.CouponCode)
			if err != nil {
				return err
			}
		}

		query := `
			INSERT INTO reservations (
				id,
				projection_id,
				purchase_date,
				purchaser_name,
				purchaser_surname,
				purchaser_email,
				masked_card,
				coupon_code,
				under_min_age,
				over_max_age,
				discount_type,
				total,
				payment_reference,
				payment_status
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12, $13, $14)
		`

		_, err := tx.Exec(
			ctx,
			query,
			rec.ID,
			rec.ProjectionID,
			rec.PurchaseDate,
			rec.Purchaser.Name,
			rec.Purchaser.Surname,
			rec.Purchaser.Email,
			rec.MaskedCard,
			rec.CouponCode,
			rec.UnderMinAge,
			rec.OverMaxAge,
			rec.DiscountType,
			rec.Total,
			rec.PaymentReference,
			rec.PaymentStatus,
		)
		if err != nil {
			return err
		}

		rows := make([][]any, 0, len(rec.Seats))
		for _, seat := range rec.Seats {
			rows = append(rows, []any{
				rec.ID,
				rec.ProjectionID,
				seat.Row,
				seat.Col,
			})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"reservation_seats"},
			[]string{"reservation_id", "projection_id", "seat_row", "seat_col"},
			pgx.CopyFromRows(rows),
		)

		return err
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrCouponAlreadyUsed), errors.Is(err, domain.ErrCouponNotFound):
		return err
	case hasErrCode(err, pgerrcode.UniqueViolation):
		return domain.ErrSeatUnavailable
	default:
		return storageErr("commit reservation", err)
	}
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}

func (p *PostgresReservationRepository) DeleteReservation(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete reservation", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}

	return nil
}

func (p *PostgresReservationRepository) GetReservation(ctx context.Context, id int64) (*domain.ReservationRecord, error) {
	query := `
		SELECT
			id,
			projection_id,
			purchase_date,
			purchaser_name,
			purchaser_surname,
			purchaser_email,
			masked_card,
			COALESCE(coupon_code, ''),
			under_min_age,
			over_max_age,
			discount_type,
			total,
			payment_reference,
			payment_status
		FROM reservations
		WHERE id = $1
	`

	var rec domain.ReservationRecord

	err := p.db.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.ProjectionID,
		&rec.PurchaseDate,
		&rec.Purchaser.Name,
		&rec.Purchaser.Surname,
		&rec.Purchaser.Email,
		&rec.MaskedCard,
		&rec.CouponCode,
		&rec.UnderMinAge,
		&rec.OverMaxAge,
		&rec.DiscountType,
		&rec.Total,
		&rec.PaymentReference,
		&rec.PaymentStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}

		return nil, storageErr("get reservation", err)
	}

	seats, err := p.querySeats(ctx, `
		SELECT seat_row, seat_col
		FROM reservation_seats
		WHERE reservation_id = $1
		ORDER BY seat_row, seat_col
	`, id)
	if err != nil {
		return nil, storageErr("get reservation seats", err)
	}

	rec.Seats = seats

	return &rec, nil
}

func (p *PostgresReservationRepository) GetOccupiedSeats(ctx context.Context, projectionID int) ([]domain.SeatCoord, error) {
	seats, err := p.querySeats(ctx, `
		SELECT seat_row, seat_col
		FROM reservation_seats
		WHERE projection_id = $1
		ORDER BY seat_row, seat_col
	`, projectionID)
	if err != nil {
		return nil, storageErr("get occupied seats", err)
	}

	return seats, nil
}

func (p *PostgresReservationRepository) GetSeatOccupationStatus(
	ctx context.Context,
	projectionID, row, col int) (bool, error) {

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM reservation_seats
			WHERE projection_id = $1 AND seat_row = $2 AND seat_col = $3
		)
	`

	var occupied bool

	err := p.db.QueryRow(ctx, query, projectionID, row, col).Scan(&occupied)
	if err != nil {
		return false, storageErr("get seat occupation", err)
	}

	return occupied, nil
}

func (p *PostgresReservationRepository) querySeats(ctx context.Context, query string, arg any) ([]domain.SeatCoord, error) {
	rows, err := p.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.SeatCoord, 0)

	for rows.Next() {
		var seat domain.SeatCoord

		err := rows.Scan(&seat.Row, &seat.Col)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}
