package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/shopspring/decimal"
)

type PostgresDiscountRepository struct {
	db *pgxpool.Pool
}

func NewPostgresDiscountRepository(db *pgxpool.Pool) *PostgresDiscountRepository {
	return &PostgresDiscountRepository{
		db: db,
	}
}

func (p *PostgresDiscountRepository) GetDiscountConfig(ctx context.Context, t domain.DiscountType) (*domain.Discount, error) {
	query := `
		SELECT percentage, min_age, max_age, threshold
		FROM discounts
		WHERE discount_type = $1
	`

	discount := domain.Discount{Kind: t}

	err := p.db.QueryRow(ctx, query, t).Scan(
		&discount.Percentage,
		&discount.MinAge,
		&discount.MaxAge,
		&discount.Threshold,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDiscountNotFound
		}

		return nil, storageErr("get discount", err)
	}

	if t != domain.DiscountTypeDay {
		return &discount, nil
	}

	rows, err := p.db.Query(ctx, `SELECT day, percentage FROM discount_days ORDER BY day`)
	if err != nil {
		return nil, storageErr("get discount days", err)
	}
	defer rows.Close()

	discount.Days = make(map[string]decimal.Decimal)

	for rows.Next() {
		var (
			day time.Time
			pct decimal.Decimal
		)

		err := rows.Scan(&day, &pct)
		if err != nil {
			return nil, storageErr("get discount days", err)
		}

		discount.Days[domain.DateKey(day)] = pct
	}

	if err = rows.Err(); err != nil {
		return nil, storageErr("get discount days", err)
	}

	return &discount, nil
}

// PutDiscountConfig replaces the stored configuration of d.Kind. For DAY the
// whole calendar of discounted dates is replaced.
func (p *PostgresDiscountRepository) PutDiscountConfig(ctx context.Context, d *domain.Discount) error {
	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO discounts (discount_type, percentage, min_age, max_age, threshold)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (discount_type) DO UPDATE
			SET percentage = EXCLUDED.percentage,
				min_age = EXCLUDED.min_age,
				max_age = EXCLUDED.max_age,
				threshold = EXCLUDED.threshold
		`

		_, err := tx.Exec(ctx, query, d.Kind, d.Percentage, d.MinAge, d.MaxAge, d.Threshold)
		if err != nil {
			return err
		}

		if d.Kind != domain.DiscountTypeDay {
			return nil
		}

		_, err = tx.Exec(ctx, `DELETE FROM discount_days`)
		if err != nil {
			return err
		}

		rows := make([][]any, 0, len(d.Days))
		for key, pct := range d.Days {
			day, err := time.Parse(time.DateOnly, key)
			if err != nil {
				return err
			}

			rows = append(rows, []any{day, pct})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"discount_days"},
			[]string{"day", "percentage"},
			pgx.CopyFromRows(rows),
		)

		return err
	})
	if err != nil {
		return storageErr("put discount", err)
	}

	return nil
}

func (p *PostgresDiscountRepository) GetActiveDiscountType(ctx context.Context) (domain.DiscountType, error) {
	var t domain.DiscountType

	err := p.db.QueryRow(ctx, `SELECT active_discount FROM cinema_settings`).Scan(&t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrDiscountNotFound
		}

		return "", storageErr("get active discount", err)
	}

	return t, nil
}

func (p *PostgresDiscountRepository) SetActiveDiscountType(ctx context.Context, t domain.DiscountType) error {
	query := `
		INSERT INTO cinema_settings (id, active_discount)
		VALUES (true, $1)
		ON CONFLICT (id) DO UPDATE SET active_discount = EXCLUDED.active_discount
	`

	_, err := p.db.Exec(ctx, query, t)
	if err != nil {
		return storageErr("set active discount", err)
	}

	return nil
}
