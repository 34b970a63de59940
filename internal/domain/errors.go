package domain

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrStorage        = errors.New("storage failure")

	ErrInvalidRoomDimensions = errors.New("room must have between 1 and 26 rows and at least 1 column")
	ErrInvalidCoordinates    = errors.New("seat coordinates are outside the room")
	ErrSeatNotFound          = errors.New("seat does not belong to this room")
	ErrInvalidPrice          = errors.New("base price must be greater than zero and given in whole cents")
	ErrInvalidMovie          = errors.New("movie needs an id, a title and a duration, and its minimum age cannot be negative")

	ErrSeatUnavailable  = errors.New("seat is already taken")
	ErrSeatAlreadyFree  = errors.New("seat is already free")
	ErrDuplicateSeat    = errors.New("seat is already selected in this reservation")
	ErrNotSeatOwner     = errors.New("seat was not taken by this reservation")
	ErrInvalidCount     = errors.New("invalid number of discounted spectators")
	ErrNoSeat           = errors.New("reservation has no selected seats")
	ErrNoPurchaser      = errors.New("reservation has no purchaser")
	ErrNoPayment        = errors.New("reservation has no payment card")
	ErrInvalidPurchaser = errors.New("purchaser name, surname and email are required")
	ErrInvalidCard      = errors.New("payment card is invalid")
	ErrCardExpired      = errors.New("payment card has expired")

	ErrReservationClosed   = errors.New("reservation is already paid and cannot be modified")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrPayment             = errors.New("payment was not completed")

	ErrInvalidCoupon     = errors.New("coupon code must be at least 8 characters and the discount cannot be negative")
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponAlreadyUsed = errors.New("coupon has already been used")
	ErrCouponExists      = errors.New("coupon already exists")

	ErrDiscountNotFound       = errors.New("discount strategy is not configured")
	ErrProjectionExists       = errors.New("projection already exists")
	ErrProjectionNotAvailable = errors.New("projection is no longer open for reservations")
	ErrNoMovieProjections     = errors.New("movie has no upcoming projections")
)
