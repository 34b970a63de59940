// Package api holds the JSON request and response bodies of the HTTP API.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type CreateRoomRequest struct {
	ID          int   `json:"id" validate:"gt=0"`
	Rows        int   `json:"rows" validate:"gt=0,max=26"`
	Cols        int   `json:"cols" validate:"gt=0"`
	PremiumRows []int `json:"premiumRows" validate:"dive,gte=0"`
}

type RoomResponse struct {
	ID          int   `json:"id"`
	Rows        int   `json:"rows"`
	Cols        int   `json:"cols"`
	SeatCount   int   `json:"seatCount"`
	PremiumRows []int `json:"premiumRows"`
}

type CreateMovieRequest struct {
	ID       int    `json:"id" validate:"gt=0"`
	Title    string `json:"title" validate:"required,max=200"`
	Duration int    `json:"duration" validate:"gt=0"`
	MinAge   int    `json:"minAge" validate:"gte=0"`
}

type MovieResponse struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
	MinAge   int    `json:"minAge"`
}

// GetMoviesParams are the query parameters of the catalogue listing.
type GetMoviesParams struct {
	Page     int    `validate:"gte=1"`
	PageSize int    `validate:"gte=1,lte=100"`
	Term     string `validate:"max=200"`
	Sort     string `validate:"movie_sort"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

type MovieListResponse struct {
	Movies   []MovieResponse `json:"movies"`
	Metadata *Metadata       `json:"metadata"`
}

type MovieProjectionsResponse struct {
	Movie       MovieResponse       `json:"movie"`
	Projections []ProjectionSummary `json:"projections"`
}

type CreateProjectionRequest struct {
	ID        int             `json:"id" validate:"gt=0"`
	MovieID   int             `json:"movieId" validate:"gt=0"`
	RoomID    int             `json:"roomId" validate:"gt=0"`
	DateTime  time.Time       `json:"dateTime" validate:"required"`
	BasePrice decimal.Decimal `json:"basePrice"`
}

type ProjectionSummary struct {
	ID             int       `json:"id"`
	MovieID        int       `json:"movieId"`
	Movie          string    `json:"movie"`
	RoomID         int       `json:"roomId"`
	DateTime       time.Time `json:"dateTime"`
	BasePrice      string    `json:"basePrice"`
	AvailableSeats int       `json:"availableSeats"`
}

type DaySchedule struct {
	Date        string              `json:"date"`
	Projections []ProjectionSummary `json:"projections"`
}

type ScheduleResponse struct {
	Days []DaySchedule `json:"days"`
}

type SeatStatus struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Label string `json:"label"`
	Type  string `json:"type"`
	State string `json:"state"`
}

type SeatMapResponse struct {
	Projection ProjectionSummary `json:"projection"`
	Rows       int               `json:"rows"`
	Cols       int               `json:"cols"`
	Held       int               `json:"held"`
	Booked     int               `json:"booked"`
	Seats      []SeatStatus      `json:"seats"`
}

type SeatOccupationResponse struct {
	Row      int  `json:"row"`
	Col      int  `json:"col"`
	Occupied bool `json:"occupied"`
}

type CreateReservationRequest struct {
	ProjectionID int `json:"projectionId" validate:"gt=0"`
}

type SeatRequest struct {
	Row int `json:"row" validate:"gte=0"`
	Col int `json:"col" validate:"gte=0"`
}

type PurchaserRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Surname string `json:"surname" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
}

type PaymentCardRequest struct {
	Number      string `json:"number" validate:"required,card_number"`
	Owner       string `json:"owner" validate:"required,max=100"`
	CVV         string `json:"cvv" validate:"required,cvv"`
	ExpiryYear  int    `json:"expiryYear" validate:"gte=2000"`
	ExpiryMonth int    `json:"expiryMonth" validate:"min=1,max=12"`
}

type DiscountInputsRequest struct {
	UnderMinAge int `json:"underMinAge" validate:"gte=0"`
	OverMaxAge  int `json:"overMaxAge" validate:"gte=0"`
}

type CouponRequest struct {
	Code string `json:"code" validate:"omitempty,coupon_code"`
}

type SeatResponse struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Label string `json:"label"`
}

type PurchaserResponse struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

type ReservationResponse struct {
	ID             int64              `json:"id"`
	ProjectionID   int                `json:"projectionId"`
	Status         string             `json:"status"`
	Seats          []SeatResponse     `json:"seats"`
	Purchaser      *PurchaserResponse `json:"purchaser,omitempty"`
	HasPaymentCard bool               `json:"hasPaymentCard"`
	CouponCode     string             `json:"couponCode,omitempty"`
	UnderMinAge    int                `json:"underMinAge"`
	OverMaxAge     int                `json:"overMaxAge"`
	FullPrice      string             `json:"fullPrice"`
	Total          *string            `json:"total,omitempty"`
}

type CommitReservationResponse struct {
	ID    int64  `json:"id"`
	Total string `json:"total"`
}

type ReservationRecordResponse struct {
	ID               int64             `json:"id"`
	ProjectionID     int               `json:"projectionId"`
	PurchaseDate     time.Time         `json:"purchaseDate"`
	Purchaser        PurchaserResponse `json:"purchaser"`
	Seats            []SeatResponse    `json:"seats"`
	Card             string            `json:"card"`
	CouponCode       string            `json:"couponCode,omitempty"`
	DiscountType     string            `json:"discountType"`
	Total            string            `json:"total"`
	PaymentReference string            `json:"paymentReference"`
	PaymentStatus    string            `json:"paymentStatus"`
}

type DiscountStrategyRequest struct {
	Type string `json:"type" validate:"required,discount_type"`
}

type DiscountConfigRequest struct {
	Percentage decimal.Decimal            `json:"percentage"`
	MinAge     int                        `json:"minAge" validate:"gte=0"`
	MaxAge     int                        `json:"maxAge" validate:"gte=0"`
	Threshold  int                        `json:"threshold" validate:"gte=0"`
	Days       map[string]decimal.Decimal `json:"days"`
}

type DiscountResponse struct {
	Type       string            `json:"type"`
	Percentage string            `json:"percentage,omitempty"`
	MinAge     int               `json:"minAge,omitempty"`
	MaxAge     int               `json:"maxAge,omitempty"`
	Threshold  int               `json:"threshold,omitempty"`
	Days       map[string]string `json:"days,omitempty"`
}

type CreateCouponRequest struct {
	Code     string          `json:"code" validate:"required,coupon_code"`
	Discount decimal.Decimal `json:"discount"`
}

type CouponResponse struct {
	Code     string `json:"code"`
	Discount string `json:"discount"`
	Used     bool   `json:"used"`
}
