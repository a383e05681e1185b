package verifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cleanse/internal/platform/circuit"
	perr "cleanse/internal/platform/errors"
	"cleanse/internal/platform/retry"
)

func testCfg(baseURL string) Config {
	return Config{
		Enabled: true,
		BaseURL: baseURL,
		APIKey:  "k",
		Timeout: time.Second,
		Retry:   retry.Config{MaxAttempts: 2, Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2},
	}
}

func TestVerify_ValidResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("email") != "bob@gmail.com" {
			t.Errorf("missing email param, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("api_key") != "k" {
			t.Errorf("missing api_key param")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address":"bob@gmail.com","status":"Valid","sub_status":"","domain":"gmail.com","free_email":true}`))
	}))
	defer srv.Close()

	c := New(testCfg(srv.URL), srv.Client())
	got, err := c.Verify(context.Background(), "bob@gmail.com")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Status != StatusValid {
		t.Fatalf("Status = %s, want valid", got.Status)
	}
	if !got.FreeEmail || got.Domain != "gmail.com" {
		t.Fatalf("fields not mapped: %+v", got)
	}
}

func TestVerify_DidYouMean(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"address":"bob@gmial.co","status":"invalid","sub_status":"possible_typo","did_you_mean":"bob@gmail.com"}`))
	}))
	defer srv.Close()

	c := New(testCfg(srv.URL), srv.Client())
	got, err := c.Verify(context.Background(), "bob@gmial.co")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Status != StatusInvalid || got.DidYouMean != "bob@gmail.com" {
		t.Fatalf("want invalid + suggestion, got %+v", got)
	}
}

func TestVerify_RetriesOn5xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"status":"valid"}`))
	}))
	defer srv.Close()

	c := New(testCfg(srv.URL), srv.Client())
	got, err := c.Verify(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("Verify should succeed on retry: %v", err)
	}
	if got.Status != StatusValid {
		t.Fatalf("Status = %s", got.Status)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestVerify_CredentialsFailFast(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(testCfg(srv.URL), srv.Client())
	_, err := c.Verify(context.Background(), "a@b.com")
	if err == nil {
		t.Fatalf("expected error")
	}
	if perr.CodeOf(err) != perr.ErrorCodeProvider {
		t.Fatalf("error code = %d, want provider", perr.CodeOf(err))
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on credentials)", calls.Load())
	}
}

func TestVerify_Disabled(t *testing.T) {
	t.Parallel()

	c := New(Config{Enabled: false}, nil)
	if c.Available() {
		t.Fatalf("disabled client should not be available")
	}
	if _, err := c.Verify(context.Background(), "a@b.com"); err == nil {
		t.Fatalf("expected error from disabled client")
	}
}

func TestVerify_BreakerTripsAndReports(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testCfg(srv.URL)
	cfg.Retry.MaxAttempts = 1
	c := New(cfg, srv.Client())
	c.breaker = circuit.New("email-verifier",
		circuit.WithMinSamples(2), circuit.WithFailureRate(1.0), circuit.WithCooldown(time.Hour))

	for i := 0; i < 2; i++ {
		if _, err := c.Verify(context.Background(), "a@b.com"); err == nil {
			t.Fatalf("expected provider error")
		}
	}
	if c.BreakerState() != circuit.StateOpen {
		t.Fatalf("breaker state = %s, want open", c.BreakerState())
	}
	if c.Available() {
		t.Fatalf("tripped client must report unavailable")
	}

	// while open, no HTTP call is made and the error is still provider coded
	_, err := c.Verify(context.Background(), "a@b.com")
	if perr.CodeOf(err) != perr.ErrorCodeProvider {
		t.Fatalf("open-breaker error code = %d, want provider", perr.CodeOf(err))
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Status
	}{
		{"valid", StatusValid},
		{"Valid", StatusValid},
		{"invalid", StatusInvalid},
		{"catch-all", StatusCatchAll},
		{"spamtrap", StatusSpamtrap},
		{"abuse", StatusAbuse},
		{"do_not_mail", StatusDoNotMail},
		{"unknown", StatusUnknown},
		{"whatever", StatusUnknown},
		{"", StatusUnknown},
	}
	for _, tc := range tests {
		if got := parseStatus(tc.in); got != tc.want {
			t.Fatalf("parseStatus(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
