package refdata

import (
	"context"
	"testing"

	perr "cleanse/internal/platform/errors"
)

func TestDefaults_ParsesAndPopulates(t *testing.T) {
	t.Parallel()

	s, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults(): %v", err)
	}

	if _, ok := s.DomainTypos["gmial.com"]; !ok {
		t.Fatalf("domain typo map missing gmial.com")
	}
	if s.DomainTypos["gmial.com"] != "gmail.com" {
		t.Fatalf("gmial.com -> %q, want gmail.com", s.DomainTypos["gmial.com"])
	}
	if _, ok := s.InvalidDomains["mailinator.com"]; !ok {
		t.Fatalf("invalid domain set missing mailinator.com")
	}
	if _, ok := s.ValidDomains["gmail.com"]; !ok {
		t.Fatalf("valid domain set missing gmail.com")
	}
	if _, ok := s.Particles["van"]; !ok {
		t.Fatalf("particle set missing van")
	}
	if s.Suffixes["jr"] != "Jr." {
		t.Fatalf("suffix jr -> %q, want Jr.", s.Suffixes["jr"])
	}
	if s.CityTypos["nyc"] != "New York" {
		t.Fatalf("city typo nyc -> %q, want New York", s.CityTypos["nyc"])
	}
	if s.CityToState["new york"] != "NY" {
		t.Fatalf("city_to_state new york -> %q, want NY", s.CityToState["new york"])
	}
}

func TestDefaults_PostalRegexes(t *testing.T) {
	t.Parallel()

	s := MustDefaults()

	tests := []struct {
		cc   string
		code string
		want bool
	}{
		{"US", "10001", true},
		{"US", "10001-1234", true},
		{"US", "1000", false},
		{"CA", "K1A 0B1", true},
		{"CA", "K1A0B1", true},
		{"CA", "99999", false},
		{"GB", "SW1A 1AA", true},
		{"AU", "2000", true},
		{"AU", "200", false},
		{"NL", "1234 AB", true},
	}
	for _, tc := range tests {
		re, ok := s.PostalCodes[tc.cc]
		if !ok {
			t.Fatalf("no postal regex for %s", tc.cc)
		}
		if got := re.MatchString(tc.code); got != tc.want {
			t.Fatalf("postal %s %q match = %v, want %v", tc.cc, tc.code, got, tc.want)
		}
	}
}

func TestStore_SwapAndCurrent(t *testing.T) {
	t.Parallel()

	a := MustDefaults()
	st := NewStore(a)
	if st.Current() != a {
		t.Fatalf("Current should return the seeded snapshot")
	}

	b := MustDefaults()
	if err := st.Reload(context.Background(), loaderFunc(func(context.Context) (*Snapshot, error) {
		return b, nil
	})); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if st.Current() != b {
		t.Fatalf("Reload should swap the snapshot")
	}
}

func TestStore_ReloadKeepsCurrentOnFailure(t *testing.T) {
	t.Parallel()

	a := MustDefaults()
	st := NewStore(a)

	err := st.Reload(context.Background(), loaderFunc(func(context.Context) (*Snapshot, error) {
		return nil, perr.Unavailablef("store down")
	}))
	if err == nil {
		t.Fatalf("expected reload error")
	}
	if st.Current() != a {
		t.Fatalf("failed reload must keep the current snapshot")
	}

	err = st.Reload(context.Background(), loaderFunc(func(context.Context) (*Snapshot, error) {
		return nil, nil
	}))
	if err == nil {
		t.Fatalf("expected error for empty store")
	}
	if st.Current() != a {
		t.Fatalf("empty reload must keep the current snapshot")
	}
}

func TestOpen_FallsBackToDefaults(t *testing.T) {
	t.Parallel()

	st := Open(context.Background(), loaderFunc(func(context.Context) (*Snapshot, error) {
		return nil, perr.Unavailablef("connection refused")
	}))
	if st.Current() == nil {
		t.Fatalf("Open must fall back to embedded defaults")
	}
	if _, ok := st.Current().DomainTypos["gmial.com"]; !ok {
		t.Fatalf("fallback snapshot should be the defaults")
	}

	st = Open(context.Background(), nil)
	if st.Current() == nil {
		t.Fatalf("nil loader should yield defaults")
	}
}

func TestFromRaw_BadPostalRegex(t *testing.T) {
	t.Parallel()

	_, err := FromRaw([]byte(`{"postal_codes":{"XX":"["}}`))
	if err == nil {
		t.Fatalf("expected error for invalid postal regex")
	}
}

type loaderFunc func(ctx context.Context) (*Snapshot, error)

func (f loaderFunc) Load(ctx context.Context) (*Snapshot, error) { return f(ctx) }
