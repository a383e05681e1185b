package geocoder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	perr "cleanse/internal/platform/errors"
	"cleanse/internal/platform/retry"
)

func testCfg(baseURL string) Config {
	return Config{
		Enabled: true,
		BaseURL: baseURL,
		Timeout: time.Second,
		Retry:   retry.Config{MaxAttempts: 2, Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2},
	}
}

const nycJSON = `[{
	"lat":"40.7128","lon":"-74.0060","importance":0.92,
	"address":{
		"house_number":"350","road":"5th Ave","city":"New York",
		"state":"New York","postcode":"10118","country_code":"us"
	}
}]`

func TestForward_MapsFields(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "350 5th Ave, New York" {
			t.Errorf("query param q = %q", q.Get("q"))
		}
		if q.Get("countrycodes") != "us" {
			t.Errorf("countrycodes = %q, want us", q.Get("countrycodes"))
		}
		if q.Get("viewbox") == "" || q.Get("bounded") != "1" {
			t.Errorf("US bounding box not applied: %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(nycJSON))
	}))
	defer srv.Close()

	c := New(testCfg(srv.URL), srv.Client())
	p, err := c.Forward(context.Background(), "350 5th Ave, New York", "US")
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if p.City != "New York" || p.State != "New York" || p.PostalCode != "10118" {
		t.Fatalf("fields not mapped: %+v", p)
	}
	if p.CountryCode != "US" {
		t.Fatalf("CountryCode = %q, want US", p.CountryCode)
	}
	if p.Match != 0.92 {
		t.Fatalf("Match = %g, want 0.92", p.Match)
	}
	if p.Latitude == 0 || p.Longitude == 0 {
		t.Fatalf("coordinates not parsed: %+v", p)
	}
}

func TestForward_NoBoundingBoxForUnknownCountry(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("viewbox") != "" {
			t.Errorf("unexpected viewbox for unknown country")
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(testCfg(srv.URL), srv.Client())
	_, err := c.Forward(context.Background(), "somewhere", "ZZ")
	if perr.CodeOf(err) != perr.ErrorCodeNotFound {
		t.Fatalf("empty result should be not found, got %v", err)
	}
}

func TestPostalLookup(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("postalcode") != "10118" {
			t.Errorf("postalcode = %q", r.URL.Query().Get("postalcode"))
		}
		_, _ = w.Write([]byte(nycJSON))
	}))
	defer srv.Close()

	c := New(testCfg(srv.URL), srv.Client())
	p, err := c.PostalLookup(context.Background(), "10118", "US")
	if err != nil {
		t.Fatalf("PostalLookup: %v", err)
	}
	if p.City != "New York" || p.State != "New York" {
		t.Fatalf("postal lookup fields: %+v", p)
	}
}

func TestSearch_TownFallbackForCity(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"1","lon":"2","importance":0.5,"address":{"town":"Smallville","state":"Kansas","country_code":"us"}}]`))
	}))
	defer srv.Close()

	c := New(testCfg(srv.URL), srv.Client())
	p, err := c.Forward(context.Background(), "smallville", "US")
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if p.City != "Smallville" {
		t.Fatalf("City = %q, want town fallback Smallville", p.City)
	}
}

func TestSearch_RetriesThenProviderError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(testCfg(srv.URL), srv.Client())
	_, err := c.Forward(context.Background(), "x", "")
	if perr.CodeOf(err) != perr.ErrorCodeProvider {
		t.Fatalf("error code = %d, want provider", perr.CodeOf(err))
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2 (retry then give up)", calls.Load())
	}
}

func TestSearch_Disabled(t *testing.T) {
	t.Parallel()

	c := New(Config{Enabled: false}, nil)
	if c.Available() {
		t.Fatalf("disabled geocoder should report unavailable")
	}
	if _, err := c.Forward(context.Background(), "x", ""); err == nil {
		t.Fatalf("expected error from disabled geocoder")
	}
}

func TestSearch_MatchClamped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"1","lon":"2","importance":3.4,"address":{"city":"X","country_code":"us"}}]`))
	}))
	defer srv.Close()

	c := New(testCfg(srv.URL), srv.Client())
	p, err := c.Forward(context.Background(), "x", "")
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if p.Match != 1 {
		t.Fatalf("Match = %g, want clamp to 1", p.Match)
	}
}
