package app

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/metinatakli/cinema-booking-engine/api"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	DefaultSort     = "id"
)

func (app *Application) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var input api.CreateMovieRequest

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

	movie, err := app.cinema.AddMovie(r.Context(), input.ID, input.Title, input.Duration, input.MinAge)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toMovieResponse(movie), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetMovies(w http.ResponseWriter, r *http.Request) {
	params, err := readMoviesParams(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(params)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	movies, metadata, err := app.cinema.Movies(r.Context(), toMovieFilters(params))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.MovieListResponse{
		Movies:   make([]api.MovieResponse, 0, len(movies)),
		Metadata: toApiMetadata(metadata),
	}

	for _, m := range movies {
		resp.Movies = append(resp.Movies, toMovieResponse(m))
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := readIntParam(r, "id")
	if !ok {
		app.invalidParamResponse(w, r, "movie ID")
		return
	}

	movie, err := app.cinema.Movie(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toMovieResponse(movie), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetMovieProjections lists the upcoming projections of one movie.
func (app *Application) GetMovieProjections(w http.ResponseWriter, r *http.Request) {
	id, ok := readIntParam(r, "id")
	if !ok {
		app.invalidParamResponse(w, r, "movie ID")
		return
	}

	projections, err := app.cinema.MovieProjections(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := api.MovieProjectionsResponse{
		Movie:       toMovieResponse(projections[0].Movie),
		Projections: make([]api.ProjectionSummary, 0, len(projections)),
	}

	for _, p := range projections {
		resp.Projections = append(resp.Projections, toProjectionSummary(p))
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// readMoviesParams fills in the defaults for missing query parameters.
func readMoviesParams(r *http.Request) (api.GetMoviesParams, error) {
	q := r.URL.Query()

	params := api.GetMoviesParams{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
		Term:     q.Get("term"),
		Sort:     DefaultSort,
	}

	if v := q.Get("sort"); v != "" {
		params.Sort = v
	}

	for name, dst := range map[string]*int{"page": &params.Page, "pageSize": &params.PageSize} {
		v := q.Get(name)
		if v == "" {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return api.GetMoviesParams{}, fmt.Errorf("%s must be an integer", name)
		}

		*dst = n
	}

	return params, nil
}

func toMovieFilters(params api.GetMoviesParams) domain.MovieFilters {
	return domain.MovieFilters{
		Page:     params.Page,
		PageSize: params.PageSize,
		Term:     params.Term,
		Sort:     params.Sort,
	}
}

func toMovieResponse(movie *domain.Movie) api.MovieResponse {
	if movie == nil {
		return api.MovieResponse{}
	}

	return api.MovieResponse{
		ID:       movie.ID,
		Title:    movie.Title,
		Duration: movie.Duration,
		MinAge:   movie.MinAge,
	}
}

func toApiMetadata(metadata *domain.Metadata) *api.Metadata {
	if metadata == nil {
		return nil
	}

	return &api.Metadata{
		CurrentPage:  metadata.CurrentPage,
		FirstPage:    metadata.FirstPage,
		LastPage:     metadata.LastPage,
		PageSize:     metadata.PageSize,
		TotalRecords: metadata.TotalRecords,
	}
}
