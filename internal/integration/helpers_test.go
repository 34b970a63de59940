package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var keysToIgnore = map[string]struct{}{
	"timestamp": {},
	"requestId": {},
	"purchaseDate": {},
	"paymentReference": {},
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func compareResponse(t *testing.T, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indetermistic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}
		if nested, ok := m[k].(map[string]any); ok {
			cleanMap(nested)
		}
	}
}

// seedProjection stores the test room, movie and projection directly through
// the store.
func seedProjection(t testing.TB, app *TestApp) {
	t.Helper()

	ctx := context.Background()

	room, err := domain.NewRoom(TestRoomID, TestRoomRows, TestRoomCols, TestRoomPremiumRow)
	require.NoError(t, err)
	require.NoError(t, app.Store.PutRoom(ctx, room))

	movie, err := domain.NewMovie(TestMovieID, TestMovieTitle, TestMovieDuration, TestMovieMinAge)
	require.NoError(t, err)
	require.NoError(t, app.Store.PutMovie(ctx, movie))

	p, err := domain.NewProjection(TestProjectionID, movie, room, TestProjectionTime, TestBasePrice)
	require.NoError(t, err)
	require.NoError(t, app.Store.PutProjection(ctx, p))
}

func seedCoupon(t testing.TB, app *TestApp, discount string) {
	t.Helper()

	err := app.Store.PutCoupon(context.Background(), &domain.Coupon{
		Code:     TestCouponCode,
		Discount: decimal.RequireFromString(discount),
	})
	require.NoError(t, err)
}

// do sends a JSON request through the router and decodes the response into dst
// when dst is not nil.
func do(t testing.TB, app *TestApp, method, path, body string, dst any) int {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := prepareRequest(method, path, reader, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)

	if dst != nil {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(dst), rec.Body.String())
	}

	return rec.Code
}

func purchaserBody() string {
	return fmt.Sprintf(`{"name": %q, "surname": %q, "email": %q}`, TestPurchaserName, TestPurchaserSurname, TestPurchaserEmail)
}

func cardBody() string {
	return fmt.Sprintf(`{"number": %q, "owner": %q, "cvv": %q, "expiryYear": %d, "expiryMonth": 6}`,
		TestCardNumber, TestCardOwner, TestCardCVV, TestCardExpiryYear)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
