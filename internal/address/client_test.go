package address

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/woozymasta/geocode/internal/config"
)

const reverseBody = `{"data":[{
	"latitude": 41.921, "longitude": -87.695,
	"name": "2040 N Milwaukee Ave", "locality": "Chicago",
	"region_code": "IL", "county": "Cook County", "postal_code": "60647",
	"country_code": "USA", "label": "2040 N Milwaukee Ave, Chicago, IL, USA",
	"distance": 0.012
}]}`

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*config.PositionStack)) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default().PositionStack
	cfg.URL = srv.URL + "/v1"
	cfg.Key = "test-key"
	cfg.Rate = 0
	cfg.Backoff = time.Millisecond
	for _, m := range mutate {
		m(&cfg)
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestReverse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/v1/reverse" {
			t.Errorf("path = %q, want /v1/reverse", r.URL.Path)
		}
		if q.Get("access_key") != "test-key" || q.Get("query") != "41.9215927,-87.6953278" ||
			q.Get("output") != "json" || q.Get("limit") != "1" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(reverseBody))
	})

	got, err := c.Reverse(context.Background(), 41.9215927, -87.6953278)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Street) != 1 || got.Street[0] != "2040 N Milwaukee Ave" {
		t.Fatalf("street = %v", got.Street)
	}
	if got.City != "Chicago" || got.State != "IL" || got.County != "Cook County" ||
		got.PostalCode != "60647" || got.Country != "USA" {
		t.Fatalf("address = %+v", got)
	}
	if got.Text != "2040 N Milwaukee Ave, Chicago, IL, USA" {
		t.Fatalf("text = %q", got.Text)
	}
	if got.Location == nil || got.Location.Lat != 41.9215927 || got.Location.Accuracy != 0.012 {
		t.Fatalf("location = %+v", got.Location)
	}
}

func TestReversePrefersFullNames(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"region":"Illinois","region_code":"IL","country":"United States","country_code":"USA"}]}`))
	})

	got, err := c.Reverse(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.State != "Illinois" || got.Country != "United States" {
		t.Fatalf("address = %+v", got)
	}
}

func TestForward(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forward" {
			t.Errorf("path = %q, want /v1/forward", r.URL.Path)
		}
		if q := r.URL.Query().Get("query"); q != "565 5 Ave, Manhattan, New York, NY, USA" {
			t.Errorf("query = %q", q)
		}
		_, _ = w.Write([]byte(`{"data":[{"latitude":40.755884,"longitude":-73.978504,"distance":1.5}]}`))
	})

	got, err := c.Forward(context.Background(), " 565 5 Ave, Manhattan, New York, NY, USA ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Lat != 40.755884 || got.Lng != -73.978504 || got.Accuracy != 1.5 {
		t.Fatalf("coordinate = %+v", got)
	}
}

func TestForwardNonNumericCoordinates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"latitude":null,"longitude":"x"}]}`))
	})

	got, err := c.Forward(context.Background(), "somewhere")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Lat != 0 || got.Lng != 0 {
		t.Fatalf("coordinate = %+v, want zero", got)
	}
}

func TestResponseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"not json", `<html>`, ErrDecode},
		{"no data", `{"error":{"code":"invalid_access_key"}}`, ErrNoData},
		{"data not array", `{"data":{"latitude":1}}`, ErrInvalidData},
		{"empty data", `{"data":[]}`, ErrEmptyData},
		{"non object entry", `{"data":[[]]}`, ErrNonObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			if _, err := c.Reverse(context.Background(), 1, 2); !errors.Is(err, tt.want) {
				t.Fatalf("Reverse err = %v, want %v", err, tt.want)
			}
			if _, err := c.Forward(context.Background(), "x"); !errors.Is(err, tt.want) {
				t.Fatalf("Forward err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestForwardWithoutCoordinates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"label":"nowhere"}]}`))
	})

	if _, err := c.Forward(context.Background(), "nowhere"); !errors.Is(err, ErrNoCoordinates) {
		t.Fatalf("err = %v, want ErrNoCoordinates", err)
	}
}

func TestInputErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, func(cfg *config.PositionStack) { cfg.Key = "" })

	if _, err := c.Reverse(context.Background(), 1, 2); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("err = %v, want ErrMissingKey", err)
	}
	if _, err := c.Forward(context.Background(), "   "); !errors.Is(err, ErrEmptyAddress) {
		t.Fatalf("err = %v, want ErrEmptyAddress", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("server called %d times", calls.Load())
	}
}

func TestStatusError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid key"}`))
	})

	_, err := c.Reverse(context.Background(), 1, 2)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Code != http.StatusUnauthorized || se.Body != `{"error":"invalid key"}` {
		t.Fatalf("status error = %+v", se)
	}
	if calls.Load() != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", calls.Load())
	}
}

func TestRetryTransient(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(reverseBody))
	})

	if _, err := c.Reverse(context.Background(), 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestRetryGivesUp(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, func(cfg *config.PositionStack) { cfg.Retries = 2 })

	_, err := c.Reverse(context.Background(), 1, 2)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusTooManyRequests {
		t.Fatalf("err = %v, want 429 status error", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestCache(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(reverseBody))
	})

	for range 3 {
		if _, err := c.Reverse(context.Background(), 41.9215927, -87.6953278); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}

	if _, err := c.Reverse(context.Background(), 41, -87); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2 after a new query", calls.Load())
	}
}

func TestFailedResponsesNotCached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	for range 2 {
		if _, err := c.Forward(context.Background(), "nowhere"); !errors.Is(err, ErrEmptyData) {
			t.Fatalf("err = %v, want ErrEmptyData", err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(reverseBody))
	}, func(cfg *config.PositionStack) { cfg.CacheMB = 0 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Reverse(ctx, 1, 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
