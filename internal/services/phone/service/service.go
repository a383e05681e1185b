// Package service implements the phone validator
//
// Multi-strategy country resolution over libphonenumber: international
// format, caller-supplied country, prefix heuristics, then an ordered
// fallback country list. The verdict carries a weighted confidence score
// with its factor trace instead of a bare boolean
package service

import (
	"context"
	"strings"

	"cleanse/internal/core/confidence"
	"cleanse/internal/core/verdict"
	perr "cleanse/internal/platform/errors"
	"cleanse/internal/platform/logger"
	"cleanse/internal/services/phone/domain"

	"github.com/nyaruka/phonenumbers"
)

// scoring weights: 40 method, 30 validity, 20 line type, 10 efficiency
const (
	ptsMethodInternational = 40
	ptsMethodExplicit      = 32
	ptsMethodFallback      = 24
	ptsMethodHeuristic     = 16

	ptsValid    = 30
	ptsPossible = 15

	ptsTypeKnown     = 20
	ptsTypeDefaulted = 12
	ptsTypeUnknown   = 5

	ptsEfficiencyMax = 10
	ptsPerFailed     = 3
	penaltyAmbiguous = 10 // per extra country that parsed valid, capped
	penaltyAmbMax    = 20
	penaltyGuessedCC = 5
	minDigitsToParse = 5
)

// mobileDominant lists countries where an ambiguous fixed-or-mobile type
// defaults to mobile
var mobileDominant = map[string]struct{}{
	"US": {}, "CA": {}, "AU": {}, "GB": {}, "NZ": {}, "IN": {}, "MX": {}, "BR": {},
}

// Config for the phone service
type Config struct {
	DefaultCountry    string
	FallbackCountries []string
	CacheEnabled      bool
	CacheMinLevel     confidence.Level
}

// Service implements domain.ValidatorPort
type Service struct {
	cache domain.CacheRepo // optional
	cfg   Config
}

// New constructs a phone service; cache may be nil
func New(cache domain.CacheRepo, cfg Config) *Service {
	if len(cfg.FallbackCountries) == 0 {
		cfg.FallbackCountries = []string{"US", "GB", "AU", "CA"}
	}
	if cfg.CacheMinLevel == "" {
		cfg.CacheMinLevel = confidence.LevelHigh
	}
	return &Service{cache: cache, cfg: cfg}
}

type parsed struct {
	num    *phonenumbers.PhoneNumber
	method string
	valid  bool
	note   string
}

// Validate cleans, parses and scores a phone number
func (s *Service) Validate(ctx context.Context, in domain.Input) (*verdict.Result, error) {
	raw := in.Phone
	cleaned, ext := Clean(raw)

	r := &verdict.Result{OriginalInput: raw}

	if len(strings.TrimPrefix(cleaned, "+")) < minDigitsToParse {
		r.NormalizedValue = raw
		r.Status = verdict.StatusInvalid
		r.SubStatus = verdict.SubBadFormat
		r.AddStep("clean", false, "too few digits")
		r.Finalize(in.ClientID)
		return r, nil
	}
	r.AddStep("clean", true, cleaned)

	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = strings.ToUpper(s.cfg.DefaultCountry)
	}

	best, failed, terminal := s.resolve(r, cleaned, country, in.Strict)
	if terminal != nil {
		terminal.Finalize(in.ClientID)
		return terminal, nil
	}
	if best == nil {
		r.NormalizedValue = cleaned
		r.Status = verdict.StatusInvalid
		r.SubStatus = verdict.SubUnparseable
		r.FormatValid = false
		r.AddStep("parse", false, "no strategy produced a usable number")
		r.Finalize(in.ClientID)
		return r, nil
	}

	e164 := phonenumbers.Format(best.num, phonenumbers.E164)

	// trust-forever cache: a hit is returned verbatim
	if s.cache != nil && s.cfg.CacheEnabled {
		if hit, err := s.cache.Get(ctx, e164); err == nil && hit != nil {
			return hit, nil
		} else if err != nil && !perr.IsCode(err, perr.ErrorCodeNotFound) {
			logger.C(ctx).Warn().Err(err).Msg("phone cache read failed, treating as miss")
		}
	}

	region := phonenumbers.GetRegionCodeForNumber(best.num)
	lineType, defaulted := classifyLine(best.num, region)

	comps := domain.Components{
		E164:          e164,
		International: phonenumbers.Format(best.num, phonenumbers.INTERNATIONAL),
		National:      phonenumbers.Format(best.num, phonenumbers.NATIONAL),
		CountryCode:   region,
		CallingCode:   int(best.num.GetCountryCode()),
		LineType:      lineType,
		Extension:     ext,
		ParseMethod:   best.method,
	}

	var tl confidence.Tally
	tl.Add("parse_method", methodPoints(best.method), best.method)
	if best.valid {
		tl.Add("validity", ptsValid, "valid for "+region)
	} else {
		tl.Add("validity", ptsPossible, "possible but not confirmed valid")
	}
	switch {
	case defaulted:
		tl.Add("line_type", ptsTypeDefaulted, "fixed-or-mobile defaulted to mobile")
	case lineType == domain.LineUnknown || lineType == domain.LineFixedOrMobile:
		tl.Add("line_type", ptsTypeUnknown, lineType)
	default:
		tl.Add("line_type", ptsTypeKnown, lineType)
	}
	eff := ptsEfficiencyMax - ptsPerFailed*failed
	if eff < 0 {
		eff = 0
	}
	tl.Add("attempt_efficiency", eff, "")

	if best.method == domain.MethodHeuristic || best.method == domain.MethodFallback {
		tl.Add("guessed_country", -penaltyGuessedCC, "country code inferred, not observed")
	}
	if extra := s.countAmbiguous(cleaned, region); extra > 0 {
		p := extra * penaltyAmbiguous
		if p > penaltyAmbMax {
			p = penaltyAmbMax
		}
		tl.Add("ambiguity", -p, "other countries also parse this number as valid")
	}

	r.NormalizedValue = e164
	r.Components = comps
	r.FormatValid = true
	r.Valid = best.valid
	if best.valid {
		r.Status = verdict.StatusValid
	} else {
		r.Status = verdict.StatusUnknown
	}
	r.WasCorrected = e164 != strings.TrimSpace(raw)
	r.SetConfidence(&tl)
	r.Finalize(in.ClientID)

	if s.cache != nil && s.cfg.CacheEnabled && r.Valid &&
		confidence.AtLeast(r.ConfidenceLevel, s.cfg.CacheMinLevel) {
		if err := s.cache.Put(ctx, e164, r); err != nil {
			logger.C(ctx).Warn().Err(err).Msg("phone cache write failed")
		}
	}
	return r, nil
}

// resolve tries parse strategies in trust order, recording each attempt
// Returns the winning parse, the failed attempt count, and an optional
// terminal result (strict mode)
func (s *Service) resolve(r *verdict.Result, cleaned, country string, strict bool) (*parsed, int, *verdict.Result) {
	failed := 0
	var possible *parsed // best possible-but-not-valid candidate

	keep := func(num *phonenumbers.PhoneNumber, method string) *parsed {
		if phonenumbers.IsValidNumber(num) {
			return &parsed{num: num, method: method, valid: true}
		}
		if possible == nil && phonenumbers.IsPossibleNumber(num) {
			possible = &parsed{num: num, method: method, valid: false}
		}
		return nil
	}

	// 1: international format carries its own country
	if strings.HasPrefix(cleaned, "+") {
		if num, err := phonenumbers.Parse(cleaned, ""); err == nil {
			if p := keep(num, domain.MethodInternational); p != nil {
				r.AddStep("parse", true, "international format")
				return p, failed, nil
			}
		}
		failed++
		r.AddStep("parse_attempt", false, "international format")
	}

	// 2: caller-supplied country
	if country != "" {
		if num, err := phonenumbers.Parse(cleaned, country); err == nil {
			if p := keep(num, domain.MethodExplicit); p != nil {
				r.AddStep("parse", true, "explicit country "+country)
				return p, failed, nil
			}
		}
		if strict {
			t := &verdict.Result{OriginalInput: r.OriginalInput, NormalizedValue: cleaned}
			t.Steps = append(t.Steps, r.Steps...)
			t.Status = verdict.StatusInvalid
			t.SubStatus = verdict.SubUnparseable
			t.AddStep("parse", false, "not valid for "+country+" (strict)")
			return nil, failed, t
		}
		failed++
		r.AddStep("parse_attempt", false, "explicit country "+country)
	}

	// 3: prefix heuristic
	if guess, note := guessCountry(cleaned); guess != "" && guess != country {
		if num, err := phonenumbers.Parse(cleaned, guess); err == nil {
			if p := keep(num, domain.MethodHeuristic); p != nil {
				r.AddStep("parse", true, "heuristic "+guess+": "+note)
				return p, failed, nil
			}
		}
		failed++
		r.AddStep("parse_attempt", false, "heuristic "+guess)
	}

	// 4: ordered fallback countries
	for _, cc := range s.cfg.FallbackCountries {
		cc = strings.ToUpper(cc)
		if cc == country {
			continue
		}
		if num, err := phonenumbers.Parse(cleaned, cc); err == nil {
			if p := keep(num, domain.MethodFallback); p != nil {
				r.AddStep("parse", true, "fallback country "+cc)
				return p, failed, nil
			}
		}
		failed++
		r.AddStep("parse_attempt", false, "fallback country "+cc)
	}

	if possible != nil {
		r.AddStep("parse", true, "accepted as possible only")
		return possible, failed, nil
	}
	return nil, failed, nil
}

// countAmbiguous counts other fallback countries whose parse is also valid
// Only meaningful for nationally formatted input
func (s *Service) countAmbiguous(cleaned, winner string) int {
	if strings.HasPrefix(cleaned, "+") {
		return 0
	}
	extra := 0
	for _, cc := range s.cfg.FallbackCountries {
		cc = strings.ToUpper(cc)
		if cc == winner {
			continue
		}
		if num, err := phonenumbers.Parse(cleaned, cc); err == nil && phonenumbers.IsValidNumber(num) {
			extra++
		}
	}
	return extra
}

// classifyLine maps the library's number type to ours, defaulting ambiguous
// types to mobile in mobile-dominant countries
func classifyLine(num *phonenumbers.PhoneNumber, region string) (string, bool) {
	switch phonenumbers.GetNumberType(num) {
	case phonenumbers.MOBILE:
		return domain.LineMobile, false
	case phonenumbers.FIXED_LINE:
		return domain.LineFixed, false
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		if _, ok := mobileDominant[region]; ok {
			return domain.LineMobile, true
		}
		return domain.LineFixedOrMobile, false
	default:
		return domain.LineUnknown, false
	}
}

func methodPoints(m string) int {
	switch m {
	case domain.MethodInternational:
		return ptsMethodInternational
	case domain.MethodExplicit:
		return ptsMethodExplicit
	case domain.MethodFallback:
		return ptsMethodFallback
	default:
		return ptsMethodHeuristic
	}
}
