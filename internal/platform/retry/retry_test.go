package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "cleanse/internal/platform/errors"
)

func fastCfg(attempts int) Config {
	return Config{
		MaxAttempts: attempts,
		Initial:     time.Millisecond,
		Max:         2 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), fastCfg(3), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), fastCfg(5), func(context.Context) error {
		calls++
		if calls < 3 {
			return perr.Unavailablef("provider 503")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	boom := perr.Unavailablef("still down")
	err := Do(context.Background(), fastCfg(3), func(context.Context) error {
		calls++
		return boom
	})
	if err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3 (MaxAttempts)", calls)
	}
}

func TestDo_FailsFastOnNonTransient(t *testing.T) {
	t.Parallel()

	calls := 0
	bad := perr.Unauthorizedf("bad api key")
	err := Do(context.Background(), fastCfg(5), func(context.Context) error {
		calls++
		return bad
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, bad) && perr.CodeOf(err) != perr.ErrorCodeUnauthorized {
		t.Fatalf("expected the original error back, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (fail fast)", calls)
	}
}

func TestDo_ContextCancelStops(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastCfg(50), func(context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return perr.Unavailablef("down")
	})
	if err == nil {
		t.Fatalf("expected error after cancel")
	}
	if calls > 3 {
		t.Fatalf("retry loop did not stop on cancel, calls = %d", calls)
	}
}

func TestTransient_Classification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"unavailable", perr.Unavailablef("x"), true},
		{"rate limited", perr.Newf(perr.ErrorCodeTooManyRequests, "x"), true},
		{"unauthorized", perr.Unauthorizedf("x"), false},
		{"invalid arg", perr.InvalidArgf("x"), false},
		{"format", perr.Formatf("x"), false},
		{"plain", errors.New("x"), false},
	}
	for _, tc := range tests {
		if got := Transient(tc.err); got != tc.want {
			t.Fatalf("Transient(%s) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
