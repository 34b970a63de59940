package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinema-booking-engine/api"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	appvalidator "github.com/metinatakli/cinema-booking-engine/internal/validator"
)

const ErrInternalServer = "The server encountered a problem and could not process your request"

// domainErrors maps the domain's sentinel errors to a status code. The
// sentinel's own message is sent to the client, never the wrapped detail.
var domainErrors = []struct {
	err    error
	status int
}{
	{domain.ErrReservationNotFound, http.StatusNotFound},
	{domain.ErrCouponNotFound, http.StatusNotFound},
	{domain.ErrDiscountNotFound, http.StatusNotFound},
	{domain.ErrRecordNotFound, http.StatusNotFound},
	{domain.ErrNoMovieProjections, http.StatusNotFound},

	{domain.ErrSeatUnavailable, http.StatusConflict},
	{domain.ErrSeatAlreadyFree, http.StatusConflict},
	{domain.ErrDuplicateSeat, http.StatusConflict},
	{domain.ErrNotSeatOwner, http.StatusConflict},
	{domain.ErrCouponAlreadyUsed, http.StatusConflict},
	{domain.ErrCouponExists, http.StatusConflict},
	{domain.ErrProjectionExists, http.StatusConflict},
	{domain.ErrReservationClosed, http.StatusConflict},

	{domain.ErrPayment, http.StatusPaymentRequired},

	{domain.ErrInvalidRoomDimensions, http.StatusUnprocessableEntity},
	{domain.ErrInvalidCoordinates, http.StatusUnprocessableEntity},
	{domain.ErrInvalidPrice, http.StatusUnprocessableEntity},
	{domain.ErrInvalidMovie, http.StatusUnprocessableEntity},
	{domain.ErrInvalidCount, http.StatusUnprocessableEntity},
	{domain.ErrInvalidPurchaser, http.StatusUnprocessableEntity},
	{domain.ErrInvalidCard, http.StatusUnprocessableEntity},
	{domain.ErrCardExpired, http.StatusUnprocessableEntity},
	{domain.ErrInvalidCoupon, http.StatusUnprocessableEntity},
	{domain.ErrNoSeat, http.StatusUnprocessableEntity},
	{domain.ErrNoPurchaser, http.StatusUnprocessableEntity},
	{domain.ErrNoPayment, http.StatusUnprocessableEntity},
	{domain.ErrProjectionNotAvailable, http.StatusUnprocessableEntity},
}

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.contextGetLogger(r).Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		app.badRequestResponse(w, r, err)
		return
	}

	resp := api.ValidationErrorResponse{
		Message:          "One or more fields have invalid values",
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
		ValidationErrors: make([]api.ValidationError, 0, len(validationErrors)),
	}

	for _, fieldErr := range validationErrors {
		resp.ValidationErrors = append(resp.ValidationErrors, api.ValidationError{
			Field: fieldErr.Field(),
			Issue: appvalidator.ValidationMessage(fieldErr),
		})
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// domainErrorResponse answers with the status of the first known domain error
// err wraps and falls back to a 500.
func (app *Application) domainErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			if de.status == http.StatusPaymentRequired {
				app.contextGetLogger(r).Warn("payment failed", "error", err)
			}

			app.errorResponse(w, r, de.status, de.err.Error())
			return
		}
	}

	app.serverErrorResponse(w, r, err)
}

func (app *Application) invalidParamResponse(w http.ResponseWriter, r *http.Request, name string) {
	app.badRequestResponse(w, r, fmt.Errorf("%s must be a positive integer", name))
}
