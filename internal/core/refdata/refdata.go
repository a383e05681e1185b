// Package refdata loads the read-only reference tables the field validators
// share: domain lists, typo maps, abbreviation tables, locale sets
//
// A Snapshot is immutable after construction; the Store swaps whole snapshots
// atomically on reload so request handlers never observe a partial table.
// When the backing store is empty or unreachable the embedded defaults apply
package refdata

import (
	_ "embed"
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync/atomic"

	perr "cleanse/internal/platform/errors"
	"cleanse/internal/platform/logger"
)

//go:embed defaults.json
var embedded []byte

// raw mirrors defaults.json and the reference data store's row shapes
type raw struct {
	ValidDomains     []string          `json:"valid_domains"`
	InvalidDomains   []string          `json:"invalid_domains"`
	DomainTypos      map[string]string `json:"domain_typos"`
	TLDTypos         map[string]string `json:"tld_typos"`
	KnownTLDs        []string          `json:"known_tlds"`
	PlusAliasDomains []string          `json:"plus_alias_domains"`

	StreetTypes map[string]string `json:"street_types"`
	Directions  map[string]string `json:"directions"`
	UnitTypes   map[string]string `json:"unit_types"`
	StateAbbrev map[string]string `json:"state_abbrev"`
	CityToState map[string]string `json:"city_to_state"`
	CityTypos   map[string]string `json:"city_typos"`
	PostalCodes map[string]string `json:"postal_codes"`

	Honorifics       map[string]string `json:"honorifics"`
	Suffixes         map[string]string `json:"suffixes"`
	Particles        []string          `json:"particles"`
	SurnameOverrides map[string]string `json:"surname_overrides"`
	SecurityPatterns []string          `json:"security_patterns"`
	PlaceholderNames []string          `json:"placeholder_names"`
}

// Snapshot holds every reference table, keys lowercased, safe for concurrent reads
type Snapshot struct {
	// email
	ValidDomains     map[string]struct{}
	InvalidDomains   map[string]struct{}
	DomainTypos      map[string]string
	TLDTypos         map[string]string
	KnownTLDs        []string
	PlusAliasDomains map[string]struct{}

	// address
	StreetTypes map[string]string
	Directions  map[string]string
	UnitTypes   map[string]string
	StateAbbrev map[string]string
	CityToState map[string]string
	CityTypos   map[string]string
	PostalCodes map[string]*regexp.Regexp

	// name
	Honorifics       map[string]string
	Suffixes         map[string]string
	Particles        map[string]struct{}
	SurnameOverrides map[string]string
	SecurityPatterns []string
	PlaceholderNames map[string]struct{}
}

// LoaderPort reads reference tables from the backing store
// A nil snapshot with nil error means the store is empty
type LoaderPort interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Store hands out the current snapshot and swaps it atomically on reload
type Store struct {
	cur atomic.Pointer[Snapshot]
}

// NewStore returns a Store seeded with snap
func NewStore(snap *Snapshot) *Store {
	s := &Store{}
	s.cur.Store(snap)
	return s
}

// Current returns the active snapshot
func (s *Store) Current() *Snapshot { return s.cur.Load() }

// Reload replaces the snapshot from loader, keeping the current one on failure
func (s *Store) Reload(ctx context.Context, loader LoaderPort) error {
	snap, err := loader.Load(ctx)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "refdata reload")
	}
	if snap == nil {
		return perr.New(perr.ErrorCodeNotFound, "refdata reload: store empty")
	}
	s.cur.Store(snap)
	return nil
}

// Open builds a Store from loader, falling back to embedded defaults when the
// store is empty or unreachable. loader may be nil (defaults only)
func Open(ctx context.Context, loader LoaderPort) *Store {
	log := logger.Named("refdata")
	if loader != nil {
		snap, err := loader.Load(ctx)
		if err == nil && snap != nil {
			return NewStore(snap)
		}
		if err != nil {
			log.Warn().Err(err).Msg("reference data store unreachable, using embedded defaults")
		} else {
			log.Warn().Msg("reference data store empty, using embedded defaults")
		}
	}
	return NewStore(MustDefaults())
}

// Defaults parses the embedded default tables
func Defaults() (*Snapshot, error) {
	var r raw
	if err := json.Unmarshal(embedded, &r); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "refdata: parse defaults.json")
	}
	return r.snapshot()
}

// MustDefaults panics if the embedded tables fail to parse
// The embed is part of the build; failure here is a programming error
func MustDefaults() *Snapshot {
	s, err := Defaults()
	if err != nil {
		panic(err)
	}
	return s
}

// FromRaw builds a Snapshot from loader-shaped raw tables
// Repos use this so the key normalization lives in one place
func FromRaw(data []byte) (*Snapshot, error) {
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "refdata: parse tables")
	}
	return r.snapshot()
}

func (r raw) snapshot() (*Snapshot, error) {
	s := &Snapshot{
		ValidDomains:     lowerSet(r.ValidDomains),
		InvalidDomains:   lowerSet(r.InvalidDomains),
		DomainTypos:      lowerKeys(r.DomainTypos),
		TLDTypos:         lowerKeys(r.TLDTypos),
		KnownTLDs:        lowerAll(r.KnownTLDs),
		PlusAliasDomains: lowerSet(r.PlusAliasDomains),
		StreetTypes:      lowerKeys(r.StreetTypes),
		Directions:       lowerKeys(r.Directions),
		UnitTypes:        lowerKeys(r.UnitTypes),
		StateAbbrev:      lowerKeys(r.StateAbbrev),
		CityToState:      lowerKeys(r.CityToState),
		CityTypos:        lowerKeys(r.CityTypos),
		PostalCodes:      make(map[string]*regexp.Regexp, len(r.PostalCodes)),
		Honorifics:       lowerKeys(r.Honorifics),
		Suffixes:         lowerKeys(r.Suffixes),
		Particles:        lowerSet(r.Particles),
		SurnameOverrides: lowerKeys(r.SurnameOverrides),
		SecurityPatterns: lowerAll(r.SecurityPatterns),
		PlaceholderNames: lowerSet(r.PlaceholderNames),
	}
	for cc, pat := range r.PostalCodes {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "refdata: postal regex for %s", cc)
		}
		s.PostalCodes[strings.ToUpper(cc)] = re
	}
	return s, nil
}

func lowerSet(xs []string) map[string]struct{} {
	m := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		m[strings.ToLower(strings.TrimSpace(x))] = struct{}{}
	}
	return m
}

func lowerKeys(in map[string]string) map[string]string {
	m := make(map[string]string, len(in))
	for k, v := range in {
		m[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return m
}

func lowerAll(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		out = append(out, strings.ToLower(strings.TrimSpace(x)))
	}
	return out
}
