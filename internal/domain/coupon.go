package domain

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

const MinCouponCodeLength = 8

// Coupon is a single-use flat discount. Used only ever goes from false to true.
type Coupon struct {
	Code     string
	Discount decimal.Decimal
	Used     bool
}

func NewCoupon(code string, discount decimal.Decimal) (*Coupon, error) {
	code = strings.TrimSpace(code)
	if len(code) < MinCouponCodeLength || discount.IsNegative() {
		return nil, ErrInvalidCoupon
	}

	return &Coupon{
		Code:     code,
		Discount: discount.Round(2),
	}, nil
}

// Apply subtracts the coupon from total, flooring the result at zero.
func (c *Coupon) Apply(total decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, total.Sub(c.Discount))
}

type CouponRepository interface {
	GetCoupon(ctx context.Context, code string) (*Coupon, error)
	PutCoupon(ctx context.Context, coupon *Coupon) error
	MarkCouponUsed(ctx context.Context, code string) error
}
