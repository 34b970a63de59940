package domain

import (
	"context"
	"strings"
)

// Movie is an entry of the catalogue projections are scheduled for. Duration
// is in minutes.
type Movie struct {
	ID       int
	Title    string
	Duration int
	MinAge   int
}

func NewMovie(id int, title string, duration, minAge int) (*Movie, error) {
	title = strings.TrimSpace(title)

	if id <= 0 || title == "" || duration <= 0 || minAge < 0 {
		return nil, ErrInvalidMovie
	}

	return &Movie{
		ID:       id,
		Title:    title,
		Duration: duration,
		MinAge:   minAge,
	}, nil
}

type Metadata struct {
	CurrentPage  int
	FirstPage    int
	LastPage     int
	PageSize     int
	TotalRecords int
}

func NewMetadata(totalRecords, page, pageSize int) *Metadata {
	return &Metadata{
		CurrentPage:  page,
		FirstPage:    1,
		LastPage:     (totalRecords + pageSize - 1) / pageSize,
		PageSize:     pageSize,
		TotalRecords: totalRecords,
	}
}

// MovieFilters pages through the catalogue. Sort is one of MovieSortValues;
// a leading "-" sorts descending.
type MovieFilters struct {
	Page     int
	PageSize int
	Term     string
	Sort     string
}

var MovieSortValues = []string{"id", "title", "duration", "-id", "-title", "-duration"}

func (f MovieFilters) SortColumn() string {
	return strings.TrimPrefix(f.Sort, "-")
}

func (f MovieFilters) SortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return "DESC"
	}

	return "ASC"
}

func (f MovieFilters) Limit() int {
	return f.PageSize
}

func (f MovieFilters) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type MovieRepository interface {
	GetMovie(ctx context.Context, id int) (*Movie, error)
	PutMovie(ctx context.Context, movie *Movie) error
	ListMovies(ctx context.Context, filters MovieFilters) ([]*Movie, *Metadata, error)
}
