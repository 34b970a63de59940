package integration_test

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// Room related constants
	TestRoomID          = 1
	TestRoomRows        = 3
	TestRoomCols        = 4
	TestRoomPremiumRow  = 2
	TestRoomSeatCount   = TestRoomRows * TestRoomCols
	TestProjectionID    = 1

	// Movie related constants
	TestMovieID       = 1
	TestMovieTitle    = "Dune"
	TestMovieDuration = 155
	TestMovieMinAge   = 13

	// Purchaser related constants
	TestPurchaserName    = "Ada"
	TestPurchaserSurname = "Lovelace"
	TestPurchaserEmail   = "ada@example.com"

	// Card related constants
	TestCardNumber = "4242424242424242"
	TestCardOwner  = "Ada Lovelace"
	TestCardCVV    = "123"

	// Coupon related constants
	TestCouponCode = "SPRING2030"
)

var (
	TestBasePrice = decimal.RequireFromString("12.50")

	// Far enough ahead that the projection is always reservable.
	TestProjectionTime = time.Now().UTC().Add(72 * time.Hour).Truncate(time.Minute)
	TestCardExpiryYear = time.Now().Year() + 2
)
