package domain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypeAge    DiscountType = "AGE"
	DiscountTypeDay    DiscountType = "DAY"
	DiscountTypeNumber DiscountType = "NUMBER"
)

func (t DiscountType) Valid() bool {
	return t == DiscountTypeAge || t == DiscountTypeDay || t == DiscountTypeNumber
}

const dateLayout = "2006-01-02"

var (
	DefaultAgePercentage    = decimal.RequireFromString("0.15")
	DefaultNumberPercentage = decimal.RequireFromString("0.15")
	DefaultDayPercentage    = decimal.RequireFromString("0.10")
)

const (
	DefaultMinAge          = 5
	DefaultMaxAge          = 80
	DefaultNumberThreshold = 10
)

// PriceInput is everything a strategy may look at.
type PriceInput struct {
	BasePrice   decimal.Decimal
	Seats       int
	UnderMinAge int
	OverMaxAge  int
	Date        time.Time
}

type DiscountStrategy interface {
	Total(in PriceInput) (decimal.Decimal, error)
	Type() DiscountType
}

// Discount is the configuration of one strategy; Kind selects which fields
// are read.
type Discount struct {
	Kind       DiscountType
	Percentage decimal.Decimal

	// AGE
	MinAge int
	MaxAge int

	// NUMBER
	Threshold int

	// DAY, keyed by calendar date (YYYY-MM-DD)
	Days map[string]decimal.Decimal
}

func NewAgeDiscount(pct decimal.Decimal, minAge, maxAge int) *Discount {
	return &Discount{Kind: DiscountTypeAge, Percentage: pct, MinAge: minAge, MaxAge: maxAge}
}

func NewNumberDiscount(pct decimal.Decimal, threshold int) *Discount {
	return &Discount{Kind: DiscountTypeNumber, Percentage: pct, Threshold: threshold}
}

func NewDayDiscount(days map[string]decimal.Decimal) *Discount {
	return &Discount{Kind: DiscountTypeDay, Days: days}
}

// DefaultDiscount returns the factory configuration of a strategy.
func DefaultDiscount(t DiscountType) (*Discount, error) {
	switch t {
	case DiscountTypeAge:
		return NewAgeDiscount(DefaultAgePercentage, DefaultMinAge, DefaultMaxAge), nil
	case DiscountTypeNumber:
		return NewNumberDiscount(DefaultNumberPercentage, DefaultNumberThreshold), nil
	case DiscountTypeDay:
		return NewDayDiscount(map[string]decimal.Decimal{}), nil
	default:
		return nil, ErrDiscountNotFound
	}
}

func DateKey(t time.Time) string {
	return t.Format(dateLayout)
}

func (d *Discount) Type() DiscountType {
	return d.Kind
}

func (d *Discount) Total(in PriceInput) (decimal.Decimal, error) {
	if in.Seats < 0 {
		return decimal.Zero, ErrInvalidCount
	}

	full := in.BasePrice.Mul(decimal.NewFromInt(int64(in.Seats)))

	switch d.Kind {
	case DiscountTypeAge:
		return d.ageTotal(in, full)
	case DiscountTypeDay:
		pct, ok := d.Days[DateKey(in.Date)]
		if !ok {
			return full, nil
		}
		return full.Mul(decimal.NewFromInt(1).Sub(pct)), nil
	case DiscountTypeNumber:
		if in.Seats < d.Threshold {
			return full, nil
		}
		return full.Mul(decimal.NewFromInt(1).Sub(d.Percentage)), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrDiscountNotFound, d.Kind)
	}
}

func (d *Discount) ageTotal(in PriceInput, full decimal.Decimal) (decimal.Decimal, error) {
	if in.UnderMinAge < 0 || in.OverMaxAge < 0 {
		return decimal.Zero, ErrInvalidCount
	}

	rest := in.Seats - in.UnderMinAge - in.OverMaxAge
	if rest < 0 {
		return decimal.Zero, ErrInvalidCount
	}

	if in.UnderMinAge == 0 && in.OverMaxAge == 0 {
		return full, nil
	}

	discounted := decimal.NewFromInt(int64(in.UnderMinAge + in.OverMaxAge)).
		Mul(decimal.NewFromInt(1).Sub(d.Percentage))

	return in.BasePrice.Mul(discounted.Add(decimal.NewFromInt(int64(rest)))), nil
}

// CinemaPricing delegates to the single strategy the operator selected and
// rounds the result to cents.
type CinemaPricing struct {
	mu     sync.RWMutex
	active DiscountStrategy
}

func NewCinemaPricing(active DiscountStrategy) *CinemaPricing {
	return &CinemaPricing{active: active}
}

func (c *CinemaPricing) SetActive(s DiscountStrategy) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = s
}

func (c *CinemaPricing) Active() DiscountStrategy {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.active
}

func (c *CinemaPricing) Type() DiscountType {
	if active := c.Active(); active != nil {
		return active.Type()
	}

	return ""
}

func (c *CinemaPricing) Total(in PriceInput) (decimal.Decimal, error) {
	active := c.Active()
	if active == nil {
		return decimal.Zero, ErrDiscountNotFound
	}

	total, err := active.Total(in)
	if err != nil {
		return decimal.Zero, err
	}

	return total.Round(2), nil
}

type DiscountRepository interface {
	GetDiscountConfig(ctx context.Context, t DiscountType) (*Discount, error)
	PutDiscountConfig(ctx context.Context, d *Discount) error
	GetActiveDiscountType(ctx context.Context) (DiscountType, error)
	SetActiveDiscountType(ctx context.Context, t DiscountType) error
}
