package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresCouponRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCouponRepository(db *pgxpool.Pool) *PostgresCouponRepository {
	return &PostgresCouponRepository{
		db: db,
	}
}

func (p *PostgresCouponRepository) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	coupon, err := getCoupon(ctx, p.db, code)
	if err != nil && !errors.Is(err, domain.ErrCouponNotFound) {
		return nil, storageErr("get coupon", err)
	}

	return coupon, err
}

func (p *PostgresCouponRepository) PutCoupon(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		INSERT INTO coupons (code, discount, used)
		VALUES ($1, $2, $3)
	`

	_, err := p.db.Exec(ctx, query, coupon.Code, coupon.Discount, coupon.Used)
	if err != nil {
		if hasErrCode(err, pgerrcode.UniqueViolation) {
			return domain.ErrCouponExists
		}

		return storageErr("put coupon", err)
	}

	return nil
}

func (p *PostgresCouponRepository) MarkCouponUsed(ctx context.Context, code string) error {
	err := markCouponUsed(ctx, p.db, code)
	if err != nil && !errors.Is(err, domain.ErrCouponAlreadyUsed) && !errors.Is(err, domain.ErrCouponNotFound) {
		return storageErr("mark coupon used", err)
	}

	return err
}

func getCoupon(ctx context.Context, q querier, code string) (*domain.Coupon, error) {
	query := `
		SELECT code, discount, used
		FROM coupons
		WHERE code = $1
	`

	var coupon domain.Coupon

	err := q.QueryRow(ctx, query, code).Scan(&coupon.Code, &coupon.Discount, &coupon.Used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCouponNotFound
		}

		return nil, err
	}

	return &coupon, nil
}

// markCouponUsed flips used only if it is still false, so two transactions
// racing on the same code cannot both succeed.
func markCouponUsed(ctx context.Context, q querier, code string) error {
	query := `
		UPDATE coupons
		SET used = true, used_at = NOW()
		WHERE code = $1 AND used = false
	`

	tag, err := q.Exec(ctx, query, code)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	_, err = getCoupon(ctx, q, code)
	if err != nil {
		return err
	}

	return domain.ErrCouponAlreadyUsed
}
