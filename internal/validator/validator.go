package validator

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
)

var (
	cardNumberRgx = regexp.MustCompile(`^[0-9]{16}$`)
	cvvRgx        = regexp.MustCompile(`^[0-9]{3}$`)
	couponCodeRgx = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("card_number", validateCardNumber)
	validator.RegisterValidation("cvv", validateCVV)
	validator.RegisterValidation("coupon_code", validateCouponCode)
	validator.RegisterValidation("discount_type", validateDiscountType)
	validator.RegisterValidation("movie_sort", validateMovieSort)

	return validator
}

func validateCardNumber(fl validator.FieldLevel) bool {
	number := strings.NewReplacer(" ", "", "-", "").Replace(fl.Field().String())
	return cardNumberRgx.MatchString(number)
}

func validateCVV(fl validator.FieldLevel) bool {
	return cvvRgx.MatchString(fl.Field().String())
}

func validateCouponCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	return len(code) >= domain.MinCouponCodeLength && couponCodeRgx.MatchString(code)
}

func validateDiscountType(fl validator.FieldLevel) bool {
	return domain.DiscountType(fl.Field().String()).Valid()
}

func validateMovieSort(fl validator.FieldLevel) bool {
	return slices.Contains(domain.MovieSortValues, fl.Field().String())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", err.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", err.Param())
	case "card_number":
		return "must contain exactly 16 digits"
	case "cvv":
		return "must contain exactly 3 digits"
	case "coupon_code":
		return fmt.Sprintf("must be at least %d characters of letters, digits, '-' or '_'", domain.MinCouponCodeLength)
	case "discount_type":
		return "must be one of AGE, DAY, NUMBER"
	case "movie_sort":
		return "must be one of " + strings.Join(domain.MovieSortValues, ", ")
	default:
		return "is invalid"
	}
}
