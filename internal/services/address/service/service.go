// Package service implements the hierarchical address validator
//
// Parsing accepts free text or a structured component set; validation walks
// descending levels of informativeness: geocode completion, postal-code,
// city/state, fuzzy matching, basic structure. Each level raises confidence
// only when it beats the current best, and a geocode match at or above the
// short-circuit bar skips the rest. Enrichment only fills fields the caller
// left empty, never overwrites them
package service

import (
	"context"
	"strings"

	"cleanse/internal/adapters/geocoder"
	"cleanse/internal/core/confidence"
	"cleanse/internal/core/normalize"
	"cleanse/internal/core/refdata"
	"cleanse/internal/core/verdict"
	perr "cleanse/internal/platform/errors"
	"cleanse/internal/platform/logger"
	"cleanse/internal/services/address/domain"
)

// confidence constants, tuned upstream; change tests when changing these
const (
	geocodeCap       = 95
	shortCircuit     = 85
	completionBonus  = 2
	postalWithLookup = 75
	postalFormatOnly = 55
	cityStateLookup  = 70
	cityStateStatic  = 60
	fuzzyStep        = 15
	fuzzyCap         = 45
	malformedPenalty = 15
	validThreshold   = 50
)

// Config for the address service
type Config struct {
	DefaultCountry string
	CacheEnabled   bool
}

// Service implements domain.ValidatorPort
type Service struct {
	ref   *refdata.Store
	cache domain.CacheRepo // optional
	geo   geocoder.Port    // optional
	norm  *normalize.Normalizer
	cfg   Config
}

// New constructs an address service; cache and geo may be nil
func New(ref *refdata.Store, cache domain.CacheRepo, geo geocoder.Port, cfg Config) *Service {
	if cfg.DefaultCountry == "" {
		cfg.DefaultCountry = "US"
	}
	return &Service{ref: ref, cache: cache, geo: geo, norm: normalize.New(), cfg: cfg}
}

// Validate runs the address hierarchy
func (s *Service) Validate(ctx context.Context, in domain.Input) (*verdict.Result, error) {
	snap := s.ref.Current()
	r := &verdict.Result{OriginalInput: strings.TrimSpace(in.Address)}

	var comps domain.Components
	switch {
	case in.Components != nil:
		comps = *in.Components
		if r.OriginalInput == "" {
			r.OriginalInput = assemble(comps)
		}
	default:
		text := s.norm.Normalize(in.Address)
		if strings.TrimSpace(text) == "" {
			r.Status = verdict.StatusInvalid
			r.SubStatus = verdict.SubBadFormat
			r.AddStep("parse", false, "empty input")
			r.Finalize(in.ClientID)
			return r, nil
		}
		comps = parseFreeText(text, snap)
	}

	if comps.Empty() {
		r.NormalizedValue = r.OriginalInput
		r.Status = verdict.StatusInvalid
		r.SubStatus = verdict.SubUnparseable
		r.AddStep("parse", false, "no components recognized")
		r.Finalize(in.ClientID)
		return r, nil
	}
	r.AddStep("parse", true, "")
	r.FormatValid = true

	corrected := standardize(&comps, snap)
	r.AddStep("standardize", true, "")

	if hit := s.cacheGet(ctx, comps.CacheKey()); hit != nil {
		return hit, nil
	}
	r.AddStep("cache_lookup", true, "miss")

	var (
		best     int
		methods  []string
		warnings []string
	)

	// level 1: geocode completion
	if s.geoReady() && hasSignal(comps) {
		p, err := s.geo.Forward(ctx, buildQuery(comps), comps.CountryCode)
		switch {
		case err != nil:
			r.AddStep("geocode", false, "no usable match")
		default:
			filled := fillFromPlace(&comps, p, snap)
			conf := min(int(p.Match*100)+filled*completionBonus, geocodeCap)
			methods = append(methods, "geocode")
			r.AddStep("geocode", true, "")
			best = max(best, conf)
		}
	}

	malformedPostal := false
	if best < shortCircuit {
		// level 2: postal-code format check, corroborated when possible
		if comps.PostalCode != "" {
			cc := comps.CountryCode
			if cc == "" {
				cc = s.cfg.DefaultCountry
			}
			re := snap.PostalCodes[cc]
			if re != nil && !re.MatchString(comps.PostalCode) {
				malformedPostal = true
				warnings = append(warnings, "postal code does not match the "+cc+" format")
				r.AddStep("postal_code", false, "format mismatch")
			} else {
				conf := postalFormatOnly
				if s.geoReady() {
					if p, err := s.geo.PostalLookup(ctx, comps.PostalCode, cc); err == nil {
						fillFromPlace(&comps, p, snap)
						conf = postalWithLookup
					}
				}
				methods = append(methods, "postal_code")
				r.AddStep("postal_code", true, "")
				best = max(best, conf)
			}
		}

		// level 3: city/state pairing
		if comps.City != "" && comps.State != "" {
			conf := 0
			if s.geoReady() {
				if p, err := s.geo.Forward(ctx, comps.City+", "+comps.State, comps.CountryCode); err == nil {
					fillFromPlace(&comps, p, snap)
					conf = cityStateLookup
				}
			}
			if conf == 0 {
				if st, ok := snap.CityToState[strings.ToLower(comps.City)]; ok && st == comps.State {
					conf = cityStateStatic
				}
			}
			if conf > 0 {
				methods = append(methods, "city_state")
				r.AddStep("city_state", true, "")
				best = max(best, conf)
			} else {
				r.AddStep("city_state", false, "pairing not confirmed")
			}
		}

		// level 4: fuzzy corrections, each a bounded increment
		fz := 0
		if fixed, ok := snap.CityTypos[strings.ToLower(comps.City)]; ok {
			comps.City = fixed
			corrected = true
			fz += fuzzyStep
			warnings = append(warnings, "city corrected from a known misspelling")
		}
		if comps.State == "" {
			if st, ok := snap.CityToState[strings.ToLower(comps.City)]; ok {
				comps.State = st
				corrected = true
				fz += fuzzyStep
				warnings = append(warnings, "state inferred from city name")
			}
		}
		if comps.CountryCode == "" && comps.PostalCode != "" {
			if cc := matchPostal(comps.PostalCode, snap); cc != "" && cc != "US" {
				comps.CountryCode = cc
				corrected = true
				fz += fuzzyStep
				warnings = append(warnings, "country inferred from postal code format")
			}
		}
		if fz > 0 {
			fz = min(fz, fuzzyCap)
			methods = append(methods, "fuzzy_match")
			r.AddStep("fuzzy_match", true, strings.Join(warnings, "; "))
			best = max(best, fz)
		}

		// level 5: basic structure
		b := 0
		if comps.StreetName != "" && comps.HouseNumber != "" {
			b += 25
		} else if comps.StreetName != "" {
			b += 15
		}
		if comps.City != "" {
			b += 10
		}
		if comps.State != "" {
			b += 10
		}
		if comps.PostalCode != "" {
			if malformedPostal {
				b -= malformedPenalty
			} else {
				b += 10
			}
		}
		b = max(b, 0)
		if b > best {
			best = b
			methods = append(methods, "basic")
		}
		r.AddStep("basic", b > 0, "")
	}

	r.NormalizedValue = assemble(comps)
	r.WasCorrected = corrected
	r.Components = domain.Validated{Components: comps, Methods: methods, Warnings: warnings}
	r.SetScore(confidence.Clamp(best))

	switch {
	case best >= validThreshold:
		r.Status = verdict.StatusValid
		r.Valid = true
	case best > 0:
		r.Status = verdict.StatusUnknown
	default:
		r.Status = verdict.StatusInvalid
	}
	r.Finalize(in.ClientID)

	if r.Valid && best >= shortCircuit {
		s.cacheWrite(ctx, comps.CacheKey(), r)
	}
	return r, nil
}

func (s *Service) geoReady() bool { return s.geo != nil && s.geo.Available() }

// hasSignal reports whether the input is specific enough to geocode
func hasSignal(c domain.Components) bool {
	return c.PostalCode != "" || (c.City != "" && c.State != "") || c.StreetLine() != ""
}

// buildQuery assembles the most specific geocode query available
func buildQuery(c domain.Components) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.StreetLine(), c.City, c.State, c.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// fillFromPlace fills only empty components from a geocoded place and
// returns how many fields it completed
func fillFromPlace(c *domain.Components, p *geocoder.Place, snap *refdata.Snapshot) int {
	filled := 0
	fill := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
			filled++
		}
	}

	fill(&c.HouseNumber, p.HouseNumber)
	if c.StreetName == "" && p.Street != "" {
		name, typ := splitStreet(p.Street, snap)
		c.StreetName = name
		if c.StreetType == "" {
			c.StreetType = typ
		}
		filled++
	}
	fill(&c.City, titleWords(p.City))
	fill(&c.State, stateAbbrevOf(p.State, snap))
	fill(&c.PostalCode, strings.ToUpper(p.PostalCode))
	fill(&c.CountryCode, strings.ToUpper(p.CountryCode))
	return filled
}

// splitStreet separates a trailing street-type word from a street string
func splitStreet(street string, snap *refdata.Snapshot) (name, typ string) {
	toks := strings.Fields(street)
	if n := len(toks); n > 1 {
		if st, ok := snap.StreetTypes[strings.ToLower(toks[n-1])]; ok {
			return titleWords(strings.Join(toks[:n-1], " ")), st
		}
	}
	return titleWords(street), ""
}

func stateAbbrevOf(state string, snap *refdata.Snapshot) string {
	if ab, ok := snap.StateAbbrev[strings.ToLower(state)]; ok {
		return ab
	}
	if len(state) <= 3 {
		return strings.ToUpper(state)
	}
	return titleWords(state)
}

// assemble renders the canonical single-line form
func assemble(c domain.Components) string {
	street := c.StreetLine()
	if c.UnitType != "" && c.UnitNumber != "" {
		street = strings.TrimSpace(street + " " + c.UnitType + " " + c.UnitNumber)
	}

	statePostal := strings.TrimSpace(c.State + " " + c.PostalCode)
	parts := make([]string, 0, 4)
	for _, p := range []string{street, c.City, statePostal, c.CountryCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func (s *Service) cacheGet(ctx context.Context, key string) *verdict.Result {
	if s.cache == nil || !s.cfg.CacheEnabled {
		return nil
	}
	hit, err := s.cache.Get(ctx, key)
	if err != nil {
		if !perr.IsCode(err, perr.ErrorCodeNotFound) {
			logger.C(ctx).Warn().Err(err).Msg("address cache read failed, treating as miss")
		}
		return nil
	}
	return hit
}

func (s *Service) cacheWrite(ctx context.Context, key string, r *verdict.Result) {
	if s.cache == nil || !s.cfg.CacheEnabled {
		return
	}
	if err := s.cache.Put(ctx, key, r); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("address cache write failed")
	}
}
