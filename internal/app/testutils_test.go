package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/metinatakli/cinema-booking-engine/api"
	"github.com/metinatakli/cinema-booking-engine/internal/cinema"
	"github.com/metinatakli/cinema-booking-engine/internal/clock"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/metinatakli/cinema-booking-engine/internal/lock"
	"github.com/metinatakli/cinema-booking-engine/internal/mocks"
	"github.com/metinatakli/cinema-booking-engine/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	testNow       = time.Date(2030, time.March, 10, 12, 0, 0, 0, time.UTC)
	testScreening = testNow.Add(48 * time.Hour)
)

const (
	testRoomID       = 1
	testMovieID      = 1
	testOtherMovieID = 2
	testProjectionID = 1
)

type testEnv struct {
	store    *repository.MemoryStore
	payments *mocks.MockRefundingGateway
	cinema   *cinema.Cinema
}

// newTestApplication serves a cinema backed by the in-memory store with one
// 3x4 room, two movies and one projection of the first at 12.50 two days
// ahead.
func newTestApplication(t *testing.T) (*Application, *testEnv) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		store:    repository.NewMemoryStore(),
		payments: new(mocks.MockRefundingGateway),
	}

	ctx := context.Background()

	room, err := domain.NewRoom(testRoomID, 3, 4, 2)
	require.NoError(t, err)
	require.NoError(t, env.store.PutRoom(ctx, room))

	dune, err := domain.NewMovie(testMovieID, "Dune", 155, 13)
	require.NoError(t, err)
	require.NoError(t, env.store.PutMovie(ctx, dune))

	arrival, err := domain.NewMovie(testOtherMovieID, "Arrival", 116, 12)
	require.NoError(t, err)
	require.NoError(t, env.store.PutMovie(ctx, arrival))

	p, err := domain.NewProjection(testProjectionID, dune, room, testScreening, decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	require.NoError(t, env.store.PutProjection(ctx, p))

	env.cinema, err = cinema.New(cinema.Config{
		Store:    env.store,
		Payments: env.payments,
		Locker:   lock.NewKeyedMutex(),
		Clock:    clock.NewFixed(testNow),
		Logger:   logger,
	})
	require.NoError(t, err)
	require.NoError(t, env.cinema.Load(ctx))

	var cfg Config
	cfg.Env = "test"

	return NewApp(cfg, logger, env.cinema), env
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	var reader io.Reader = http.NoBody

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

func serve(app *Application, w *httptest.ResponseRecorder, r *http.Request) {
	app.Routes().ServeHTTP(w, r)
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	switch tt.wantStatus {
	case http.StatusUnprocessableEntity:
		body := w.Body.Bytes()

		var validationResp api.ValidationErrorResponse
		if err := json.Unmarshal(body, &validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		// Domain rule violations answer 422 with a plain message.
		if len(validationResp.ValidationErrors) == 0 {
			if tt.wantErrMessage != "" && validationResp.Message != tt.wantErrMessage {
				t.Errorf("Error message = %v, want %v", validationResp.Message, tt.wantErrMessage)
			}
			return
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[tt.wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response", tt.wantErrMessage)
		}

	default:
		var errorResp api.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if tt.wantErrMessage != "" && errorResp.Message != tt.wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, tt.wantErrMessage)
		}
	}
}

func validCard() api.PaymentCardRequest {
	return api.PaymentCardRequest{
		Number:      "4242 4242 4242 4242",
		Owner:       "Ada Lovelace",
		CVV:         "123",
		ExpiryYear:  2031,
		ExpiryMonth: 12,
	}
}

func validPurchaser() api.PurchaserRequest {
	return api.PurchaserRequest{Name: "Ada", Surname: "Lovelace", Email: "ada@example.com"}
}
