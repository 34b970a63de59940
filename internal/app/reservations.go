package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/metinatakli/cinema-booking-engine/api"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
)

func (app *Application) CreateReservation(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CreateReservationRequest

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

	res, err := app.cinema.CreateReservation(r.Context(), input.ProjectionID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	logger.Info("reservation created", "reservation_id", res.ID, "projection_id", input.ProjectionID)

	err = app.writeJSON(w, http.StatusCreated, toReservationResponse(res), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, ok := app.reservationFromPath(w, r)
	if !ok {
		return
	}

	err := app.writeJSON(w, http.StatusOK, toReservationResponse(res), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) AbandonReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := readReservationID(r)
	if !ok {
		app.invalidParamResponse(w, r, "reservation ID")
		return
	}

	err := app.cinema.AbandonReservation(id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) AddSeat(w http.ResponseWriter, r *http.Request) {
	res, ok := app.reservationFromPath(w, r)
	if !ok {
		return
	}

	var input api.SeatRequest

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

	err = res.AddSeat(input.Row, input.Col)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.respondReservation(w, r, res)
}

func (app *Application) RemoveSeat(w http.ResponseWriter, r *http.Request) {
	res, ok := app.reservationFromPath(w, r)
	if !ok {
		return
	}

	row, okRow := readCoordParam(r, "row")
	col, okCol := readCoordParam(r, "col")
	if !okRow || !okCol {
		app.badRequestResponse(w, r, domain.ErrInvalidCoordinates)
		return
	}

	err := res.RemoveSeat(row, col)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.respondReservation(w, r, res)
}

func (app *Application) SetPurchaser(w http.ResponseWriter, r *http.Request) {
	res, ok := app.reservationFromPath(w, r)
	if !ok {
		return
	}

	var input api.PurchaserRequest

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

	err = res.SetPurchaser(domain.Purchaser{Name: input.Name, Surname: input.Surname, Email: input.Email})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.respondReservation(w, r, res)
}

func (app *Application) SetPaymentCard(w http.ResponseWriter, r *http.Request) {
	res, ok := app.reservationFromPath(w, r)
	if !ok {
		return
	}

	var input api.PaymentCardRequest

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

	err = res.SetPaymentCard(domain.PaymentCard{
		Number:      input.Number,
		Owner:       input.Owner,
		CVV:         input.CVV,
		ExpiryYear:  input.ExpiryYear,
		ExpiryMonth: time.Month(input.ExpiryMonth),
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.respondReservation(w, r, res)
}

func (app *Application) SetDiscountInputs(w http.ResponseWriter, r *http.Request) {
	res, ok := app.reservationFromPath(w, r)
	if !ok {
		return
	}

	var input api.DiscountInputsRequest

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

	err = res.SetDiscountInputs(input.UnderMinAge, input.OverMaxAge)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.respondReservation(w, r, res)
}

// SetCoupon attaches a coupon; an empty code detaches it.
func (app *Application) SetCoupon(w http.ResponseWriter, r *http.Request) {
	res, ok := app.reservationFromPath(w, r)
	if !ok {
		return
	}

	var input api.CouponRequest

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

	err = res.SetCoupon(r.Context(), input.Code)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.respondReservation(w, r, res)
}

func (app *Application) GetQuote(w http.ResponseWriter, r *http.Request) {
	res, ok := app.reservationFromPath(w, r)
	if !ok {
		return
	}

	total, err := res.Quote(r.Context())
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.CommitReservationResponse{ID: res.ID, Total: total.StringFixed(2)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CommitReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := readReservationID(r)
	if !ok {
		app.invalidParamResponse(w, r, "reservation ID")
		return
	}

	total, err := app.cinema.CommitReservation(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.CommitReservationResponse{ID: id, Total: total.StringFixed(2)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetReservationRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := readReservationID(r)
	if !ok {
		app.invalidParamResponse(w, r, "reservation ID")
		return
	}

	rec, err := app.cinema.ReservationRecord(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := api.ReservationRecordResponse{
		ID:           rec.ID,
		ProjectionID: rec.ProjectionID,
		PurchaseDate: rec.PurchaseDate,
		Purchaser: api.PurchaserResponse{
			Name:    rec.Purchaser.Name,
			Surname: rec.Purchaser.Surname,
			Email:   rec.Purchaser.Email,
		},
		Seats:            make([]api.SeatResponse, 0, len(rec.Seats)),
		Card:             rec.MaskedCard,
		CouponCode:       rec.CouponCode,
		DiscountType:     string(rec.DiscountType),
		Total:            rec.Total.StringFixed(2),
		PaymentReference: rec.PaymentReference,
		PaymentStatus:    string(rec.PaymentStatus),
	}

	for _, s := range rec.Seats {
		resp.Seats = append(resp.Seats, api.SeatResponse{
			Row:   s.Row,
			Col:   s.Col,
			Label: recordSeatLabel(s),
		})
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelReservation(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	id, ok := readReservationID(r)
	if !ok {
		app.invalidParamResponse(w, r, "reservation ID")
		return
	}

	err := app.cinema.CancelReservation(r.Context(), id)
	if err != nil {
		logger.Warn("failed to cancel reservation", "reservation_id", id, "error", err)
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) reservationFromPath(w http.ResponseWriter, r *http.Request) (*domain.Reservation, bool) {
	id, ok := readReservationID(r)
	if !ok {
		app.invalidParamResponse(w, r, "reservation ID")
		return nil, false
	}

	res, err := app.cinema.Reservation(id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return nil, false
	}

	return res, true
}

func (app *Application) respondReservation(w http.ResponseWriter, r *http.Request, res *domain.Reservation) {
	err := app.writeJSON(w, http.StatusOK, toReservationResponse(res), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toReservationResponse(res *domain.Reservation) api.ReservationResponse {
	seats := res.Seats()
	under, over := res.DiscountInputs()

	resp := api.ReservationResponse{
		ID:             res.ID,
		ProjectionID:   res.Projection.ID,
		Status:         string(res.Status()),
		Seats:          make([]api.SeatResponse, 0, len(seats)),
		HasPaymentCard: res.HasPaymentCard(),
		CouponCode:     res.CouponCode(),
		UnderMinAge:    under,
		OverMaxAge:     over,
		FullPrice:      res.FullPrice().StringFixed(2),
	}

	for _, s := range seats {
		label, _ := res.Projection.SeatLabelAt(s.Row, s.Col)
		resp.Seats = append(resp.Seats, api.SeatResponse{Row: s.Row, Col: s.Col, Label: label})
	}

	if p, ok := res.Purchaser(); ok {
		resp.Purchaser = &api.PurchaserResponse{Name: p.Name, Surname: p.Surname, Email: p.Email}
	}

	if summary, ok := res.Summary(); ok {
		total := summary.Total.StringFixed(2)
		resp.Total = &total
	}

	return resp
}

// recordSeatLabel labels a stored seat without needing its projection loaded.
func recordSeatLabel(s domain.SeatCoord) string {
	letter, err := domain.RowIndexToLetter(s.Row)
	if err != nil {
		return ""
	}

	return letter + strconv.Itoa(s.Col+1)
}
