package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/metinatakli/cinema-booking-engine/api"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AdminTestSuite struct {
	suite.Suite
	app *Application
	env *testEnv
}

func (s *AdminTestSuite) SetupTest() {
	s.app, s.env = newTestApplication(s.T())
}

func TestAdminSuite(t *testing.T) {
	suite.Run(t, new(AdminTestSuite))
}

func (s *AdminTestSuite) TestSetDiscountStrategy() {
	tests := []struct {
		name           string
		body           api.DiscountStrategyRequest
		wantStatus     int
		wantType       string
		wantErrMessage string
	}{
		{
			name:       "should switch to the number strategy",
			body:       api.DiscountStrategyRequest{Type: "NUMBER"},
			wantStatus: http.StatusOK,
			wantType:   "NUMBER",
		},
		{
			name:           "should fail for an unknown strategy",
			body:           api.DiscountStrategyRequest{Type: "LOYALTY"},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must be one of AGE, DAY, NUMBER",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w, r := executeRequest(s.T(), http.MethodPut, "/v1/discounts/active", tt.body)
			serve(s.app, w, r)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantType != "" {
				var resp api.DiscountResponse
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
				s.Equal(tt.wantType, resp.Type)

				t, err := s.env.store.GetActiveDiscountType(s.T().Context())
				s.Require().NoError(err)
				s.Equal(domain.DiscountType(tt.wantType), t)
			}

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

func (s *AdminTestSuite) TestConfigureDayDiscountAppliesToActiveStrategy() {
	w, r := executeRequest(s.T(), http.MethodPut, "/v1/discounts/day", api.DiscountConfigRequest{
		Days: map[string]decimal.Decimal{"2030-03-12": decimal.RequireFromString("0.20")},
	})
	serve(s.app, w, r)
	s.Require().Equal(http.StatusOK, w.Code)

	w, r = executeRequest(s.T(), http.MethodPut, "/v1/discounts/active", api.DiscountStrategyRequest{Type: "DAY"})
	serve(s.app, w, r)
	s.Require().Equal(http.StatusOK, w.Code)

	res, err := s.env.cinema.CreateReservation(s.T().Context(), testProjectionID)
	s.Require().NoError(err)
	s.Require().NoError(res.AddSeat(0, 0))

	total, err := res.Quote(s.T().Context())
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("10.00").Equal(total), "got %s", total)
}

func (s *AdminTestSuite) TestConfigureDiscountRejectsBadInput() {
	tests := []struct {
		name string
		url  string
		body api.DiscountConfigRequest
		want int
	}{
		{
			name: "should fail when percentage exceeds one",
			url:  "/v1/discounts/number",
			body: api.DiscountConfigRequest{Percentage: decimal.RequireFromString("1.5"), Threshold: 3},
			want: http.StatusBadRequest,
		},
		{
			name: "should fail when age bounds are inverted",
			url:  "/v1/discounts/age",
			body: api.DiscountConfigRequest{Percentage: decimal.RequireFromString("0.1"), MinAge: 70, MaxAge: 10},
			want: http.StatusBadRequest,
		},
		{
			name: "should fail for an unknown strategy",
			url:  "/v1/discounts/loyalty",
			body: api.DiscountConfigRequest{},
			want: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w, r := executeRequest(s.T(), http.MethodPut, tt.url, tt.body)
			serve(s.app, w, r)

			s.Equal(tt.want, w.Code)
		})
	}
}

func (s *AdminTestSuite) TestCoupons() {
	tests := []struct {
		name           string
		body           api.CreateCouponRequest
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:       "should create a coupon",
			body:       api.CreateCouponRequest{Code: "SPRING2030", Discount: decimal.RequireFromString("5")},
			wantStatus: http.StatusCreated,
		},
		{
			name:           "should fail when coupon already exists",
			body:           api.CreateCouponRequest{Code: "SPRING2030", Discount: decimal.RequireFromString("3")},
			wantStatus:     http.StatusConflict,
			wantErrMessage: domain.ErrCouponExists.Error(),
		},
		{
			name:           "should fail when code is too short",
			body:           api.CreateCouponRequest{Code: "SHORT", Discount: decimal.RequireFromString("3")},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: fmt.Sprintf("must be at least %d characters of letters, digits, '-' or '_'", domain.MinCouponCodeLength),
		},
		{
			name:           "should fail when discount is negative",
			body:           api.CreateCouponRequest{Code: "NEGATIVE01", Discount: decimal.RequireFromString("-1")},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: domain.ErrInvalidCoupon.Error(),
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w, r := executeRequest(s.T(), http.MethodPost, "/v1/coupons", tt.body)
			serve(s.app, w, r)

			s.Equal(tt.wantStatus, w.Code)

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

func (s *AdminTestSuite) TestCouponIsSingleUse() {
	_, err := s.env.cinema.CreateCoupon(s.T().Context(), "ONCEONLY", decimal.RequireFromString("5"))
	s.Require().NoError(err)

	s.env.payments.On("Pay", mock.Anything, mock.MatchedBy(func(req domain.PaymentRequest) bool {
		return req.Amount.Equal(decimal.RequireFromString("7.50"))
	})).Return(domain.PaymentResult{Approved: true, Reference: "pi_c"}, nil).Once()

	commit := func(row int) int {
		res, err := s.env.cinema.CreateReservation(s.T().Context(), testProjectionID)
		s.Require().NoError(err)
		s.Require().NoError(res.AddSeat(row, 0))
		s.Require().NoError(res.SetPurchaser(domain.Purchaser{Name: "Ada", Surname: "Lovelace", Email: "ada@example.com"}))
		s.Require().NoError(res.SetPaymentCard(domain.PaymentCard{Number: "4242424242424242", Owner: "Ada", CVV: "123", ExpiryYear: 2031, ExpiryMonth: 1}))

		w, r := executeRequest(s.T(), http.MethodPut, fmt.Sprintf("/v1/reservations/%d/coupon", res.ID), api.CouponRequest{Code: "ONCEONLY"})
		serve(s.app, w, r)
		if w.Code != http.StatusOK {
			return w.Code
		}

		w, r = executeRequest(s.T(), http.MethodPost, fmt.Sprintf("/v1/reservations/%d/commit", res.ID), nil)
		serve(s.app, w, r)
		return w.Code
	}

	s.Equal(http.StatusOK, commit(0))
	s.Equal(http.StatusConflict, commit(1))

	w, r := executeRequest(s.T(), http.MethodGet, "/v1/coupons/ONCEONLY", nil)
	serve(s.app, w, r)

	var resp api.CouponResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.Equal(api.CouponResponse{Code: "ONCEONLY", Discount: "5.00", Used: true}, resp)

	s.env.payments.AssertExpectations(s.T())
}
