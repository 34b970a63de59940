package app

import (
	"net/http"

	"github.com/metinatakli/cinema-booking-engine/api"
	"github.com/metinatakli/cinema-booking-engine/internal/cinema"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
)

func (app *Application) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var input api.CreateRoomRequest

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

	room, err := app.cinema.AddRoom(r.Context(), input.ID, input.Rows, input.Cols, input.PremiumRows...)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toRoomResponse(room), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := readIntParam(r, "id")
	if !ok {
		app.invalidParamResponse(w, r, "room ID")
		return
	}

	room, err := app.cinema.Room(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toRoomResponse(room), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetSchedule lists upcoming projections grouped by day.
func (app *Application) GetSchedule(w http.ResponseWriter, r *http.Request) {
	days, err := app.cinema.Schedule(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.ScheduleResponse{Days: make([]api.DaySchedule, 0, len(days))}
	for _, day := range days {
		d := api.DaySchedule{
			Date:        domain.DateKey(day.Date),
			Projections: make([]api.ProjectionSummary, 0, len(day.Projections)),
		}

		for _, p := range day.Projections {
			d.Projections = append(d.Projections, toProjectionSummary(p))
		}

		resp.Days = append(resp.Days, d)
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CreateProjection(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CreateProjectionRequest

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

	p, err := app.cinema.ScheduleProjection(r.Context(), cinema.ProjectionInput{
		ID:        input.ID,
		MovieID:   input.MovieID,
		RoomID:    input.RoomID,
		DateTime:  input.DateTime,
		BasePrice: input.BasePrice,
	})
	if err != nil {
		logger.Info("failed to schedule projection", "projection_id", input.ID, "error", err)
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toProjectionSummary(p), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteProjection(w http.ResponseWriter, r *http.Request) {
	id, ok := readIntParam(r, "id")
	if !ok {
		app.invalidParamResponse(w, r, "projection ID")
		return
	}

	err := app.cinema.RemoveProjection(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	id, ok := readIntParam(r, "id")
	if !ok {
		app.invalidParamResponse(w, r, "projection ID")
		return
	}

	p, err := app.cinema.Projection(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	seatMap := p.SeatMap()

	resp := api.SeatMapResponse{
		Projection: toProjectionSummary(p),
		Rows:       p.Room.Rows(),
		Cols:       p.Room.Cols(),
		Held:       p.HeldSeatCount(),
		Booked:     p.BookedSeatCount(),
		Seats:      make([]api.SeatStatus, 0, len(seatMap)),
	}

	for _, s := range seatMap {
		resp.Seats = append(resp.Seats, api.SeatStatus{
			Row:   s.Row,
			Col:   s.Col,
			Label: s.Label(),
			Type:  string(s.Type),
			State: s.State.String(),
		})
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetSeatOccupation reports whether a seat is durably booked, regardless of
// what live reservations currently hold.
func (app *Application) GetSeatOccupation(w http.ResponseWriter, r *http.Request) {
	id, ok := readIntParam(r, "id")
	if !ok {
		app.invalidParamResponse(w, r, "projection ID")
		return
	}

	row, okRow := readCoordParam(r, "row")
	col, okCol := readCoordParam(r, "col")
	if !okRow || !okCol {
		app.badRequestResponse(w, r, domain.ErrInvalidCoordinates)
		return
	}

	occupied, err := app.cinema.SeatOccupied(r.Context(), id, row, col)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.SeatOccupationResponse{Row: row, Col: col, Occupied: occupied}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toRoomResponse(room *domain.Room) api.RoomResponse {
	premium := room.PremiumRows()
	if premium == nil {
		premium = []int{}
	}

	return api.RoomResponse{
		ID:          room.ID,
		Rows:        room.Rows(),
		Cols:        room.Cols(),
		SeatCount:   room.SeatCount(),
		PremiumRows: premium,
	}
}

func toProjectionSummary(p *domain.Projection) api.ProjectionSummary {
	return api.ProjectionSummary{
		ID:             p.ID,
		MovieID:        p.Movie.ID,
		Movie:          p.Movie.Title,
		RoomID:         p.Room.ID,
		DateTime:       p.DateTime,
		BasePrice:      p.BasePrice.StringFixed(2),
		AvailableSeats: p.AvailableSeatCount(),
	}
}
