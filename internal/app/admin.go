package app

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/cinema-booking-engine/api"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/shopspring/decimal"
)

func (app *Application) GetActiveDiscount(w http.ResponseWriter, r *http.Request) {
	active := app.cinema.ActiveDiscount()
	if active == nil {
		app.domainErrorResponse(w, r, domain.ErrDiscountNotFound)
		return
	}

	err := app.writeJSON(w, http.StatusOK, toDiscountResponse(active), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) SetDiscountStrategy(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.DiscountStrategyRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	err = app.cinema.SetDiscountStrategy(r.Context(), domain.DiscountType(input.Type))
	if err != nil {
		logger.Error("failed to switch discount strategy", "type", input.Type, "error", err)
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toDiscountResponse(app.cinema.ActiveDiscount()), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ConfigureDiscount(w http.ResponseWriter, r *http.Request) {
	t := domain.DiscountType(strings.ToUpper(chi.URLParam(r, "type")))
	if !t.Valid() {
		app.domainErrorResponse(w, r, domain.ErrDiscountNotFound)
		return
	}

	var input api.DiscountConfigRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	d, err := discountFromRequest(t, input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.cinema.ConfigureDiscount(r.Context(), d)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toDiscountResponse(d), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var input api.CreateCouponRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	coupon, err := app.cinema.CreateCoupon(r.Context(), input.Code, input.Discount)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toCouponResponse(coupon), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetCoupon(w http.ResponseWriter, r *http.Request) {
	coupon, err := app.cinema.Coupon(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toCouponResponse(coupon), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

var errInvalidPercentage = errors.New("percentages must be between 0 and 1")

func discountFromRequest(t domain.DiscountType, in api.DiscountConfigRequest) (*domain.Discount, error) {
	validPct := func(p decimal.Decimal) bool {
		return !p.IsNegative() && p.LessThanOrEqual(decimal.NewFromInt(1))
	}

	switch t {
	case domain.DiscountTypeAge:
		if !validPct(in.Percentage) {
			return nil, errInvalidPercentage
		}
		if in.MinAge >= in.MaxAge {
			return nil, errors.New("minAge must be lower than maxAge")
		}
		return domain.NewAgeDiscount(in.Percentage, in.MinAge, in.MaxAge), nil

	case domain.DiscountTypeNumber:
		if !validPct(in.Percentage) {
			return nil, errInvalidPercentage
		}
		if in.Threshold <= 0 {
			return nil, errors.New("threshold must be greater than zero")
		}
		return domain.NewNumberDiscount(in.Percentage, in.Threshold), nil

	default:
		days := make(map[string]decimal.Decimal, len(in.Days))
		for day, pct := range in.Days {
			date, err := time.Parse(time.DateOnly, day)
			if err != nil {
				return nil, errors.New("days must be keyed by YYYY-MM-DD dates")
			}
			if !validPct(pct) {
				return nil, errInvalidPercentage
			}
			days[domain.DateKey(date)] = pct
		}
		return domain.NewDayDiscount(days), nil
	}
}

func toDiscountResponse(s domain.DiscountStrategy) api.DiscountResponse {
	resp := api.DiscountResponse{Type: string(s.Type())}

	d, ok := s.(*domain.Discount)
	if !ok {
		return resp
	}

	switch d.Kind {
	case domain.DiscountTypeAge:
		resp.Percentage = d.Percentage.String()
		resp.MinAge = d.MinAge
		resp.MaxAge = d.MaxAge
	case domain.DiscountTypeNumber:
		resp.Percentage = d.Percentage.String()
		resp.Threshold = d.Threshold
	case domain.DiscountTypeDay:
		resp.Days = make(map[string]string, len(d.Days))
		for day, pct := range d.Days {
			resp.Days[day] = pct.String()
		}
	}

	return resp
}

func toCouponResponse(c *domain.Coupon) api.CouponResponse {
	return api.CouponResponse{
		Code:     c.Code,
		Discount: c.Discount.StringFixed(2),
		Used:     c.Used,
	}
}
