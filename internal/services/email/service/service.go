// Package service implements the email validator state machine
//
// Order matters and each step can be terminal: cache lookup, format check
// (with a bounded did-you-mean hop), typo correction, known-bad domain,
// MX gate, then external verification with a basic local fallback. Only
// valid, unlikely-to-bounce verdicts are ever cached
package service

import (
	"context"
	"strings"

	"cleanse/internal/adapters/verifier"
	"cleanse/internal/core/normalize"
	"cleanse/internal/core/refdata"
	"cleanse/internal/core/verdict"
	perr "cleanse/internal/platform/errors"
	"cleanse/internal/platform/logger"
	"cleanse/internal/services/email/domain"

	validatorv10 "github.com/go-playground/validator/v10"
)

// confidence constants, tuned upstream; change tests when changing these
const (
	scoreVerified  = 95
	scoreBasicGood = 70
	scoreUnknown   = 40
)

// maxSuggestHops bounds did-you-mean re-validation
const maxSuggestHops = 1

// Config for the email service
type Config struct {
	MXCheck      bool
	DidYouMean   bool
	PlusAliases  bool // collapse +tagged aliases for configured providers
	CacheEnabled bool
}

// Service implements domain.ValidatorPort
type Service struct {
	ref      *refdata.Store
	cache    domain.CacheRepo // optional
	provider verifier.Port    // optional
	mx       domain.MXPort    // optional
	val      *validatorv10.Validate
	cfg      Config
}

// New constructs an email service; cache, provider and mx may be nil
func New(ref *refdata.Store, cache domain.CacheRepo, provider verifier.Port, mx domain.MXPort, cfg Config) *Service {
	return &Service{
		ref:      ref,
		cache:    cache,
		provider: provider,
		mx:       mx,
		val:      validatorv10.New(),
		cfg:      cfg,
	}
}

// Validate runs the email state machine
func (s *Service) Validate(ctx context.Context, in domain.Input) (*verdict.Result, error) {
	r := s.run(ctx, in.Email, in.ClientID, 0)
	return r, nil
}

// run is the recursive core; hop counts did-you-mean re-validations
func (s *Service) run(ctx context.Context, email string, clientID int64, hop int) *verdict.Result {
	snap := s.ref.Current()
	raw := email
	r := &verdict.Result{OriginalInput: raw}

	key := canonical(raw)
	if key == "" {
		r.NormalizedValue = raw
		r.Status = verdict.StatusInvalid
		r.SubStatus = verdict.SubBadFormat
		r.AddStep("format_check", false, "empty input")
		r.Finalize(clientID)
		return r
	}

	// 1: trust-forever cache, returned verbatim on hit
	if hit := s.cacheGet(ctx, key); hit != nil {
		return hit
	}
	r.AddStep("cache_lookup", true, "miss")

	// 2: format check, with one optional did-you-mean hop
	if err := s.val.Var(key, "required,email"); err != nil {
		if sug := s.suggest(ctx, key, hop); sug != "" {
			fixed := s.run(ctx, sug, clientID, hop+1)
			fixed.OriginalInput = raw
			fixed.WasCorrected = true
			fixed.ChangeStatus = verdict.Changed
			fixed.Steps = append([]verdict.Step{{
				Name: "did_you_mean", Passed: true, Detail: key + " -> " + sug,
			}}, fixed.Steps...)
			return fixed
		}
		r.NormalizedValue = key
		r.Status = verdict.StatusInvalid
		r.SubStatus = verdict.SubBadFormat
		r.AddStep("format_check", false, "does not match email grammar")
		r.Finalize(clientID)
		return r
	}
	r.AddStep("format_check", true, "")
	r.FormatValid = true

	// 3: typo and TLD correction
	corrected, notes := s.correct(key, snap)
	if corrected != key {
		r.AddStep("typo_correction", true, strings.Join(notes, "; "))
		// corrected address may already be cached
		if hit := s.cacheGet(ctx, corrected); hit != nil {
			return hit
		}
	}
	local, dom := splitAddress(corrected)
	_, free := snap.ValidDomains[dom]

	comps := domain.Components{Local: local, Domain: dom, FreeProvider: free}
	r.NormalizedValue = corrected
	r.WasCorrected = corrected != key || !normalize.EqualFold(strings.TrimSpace(raw), key)

	// 4: known-bad domains are terminal and never escalated
	if _, bad := snap.InvalidDomains[dom]; bad {
		comps.BounceStatus = domain.BounceLikely
		comps.Method = domain.MethodLocal
		r.Components = comps
		r.Status = verdict.StatusInvalid
		r.SubStatus = verdict.SubInvalidDomain
		r.AddStep("invalid_domain_check", false, dom)
		r.Finalize(clientID)
		return r
	}
	r.AddStep("invalid_domain_check", true, "")

	// 5: MX gate avoids spending a provider call on dead domains
	mxFound := false
	mxKnown := false
	if s.cfg.MXCheck && s.mx != nil {
		has, err := s.mx.HasMX(ctx, dom)
		switch {
		case err != nil:
			r.AddStep("mx_check", false, "lookup failed, skipping gate")
		case !has:
			comps.BounceStatus = domain.BounceLikely
			comps.Method = domain.MethodLocal
			r.Components = comps
			r.Status = verdict.StatusInvalid
			r.SubStatus = verdict.SubNoMXRecords
			r.AddStep("mx_check", false, "no mx records")
			r.Finalize(clientID)
			return r
		default:
			mxFound = true
			mxKnown = true
			r.AddStep("mx_check", true, "")
		}
	}

	// 6: external verification, degrading to the basic local fallback
	if s.provider != nil && s.provider.Available() {
		vr, err := s.provider.Verify(ctx, corrected)
		if err == nil {
			if vr.DidYouMean != "" && hop < maxSuggestHops && canonical(vr.DidYouMean) != corrected {
				// the corrected address is re-verified and that result wins
				fixed := s.run(ctx, vr.DidYouMean, clientID, hop+1)
				fixed.OriginalInput = raw
				fixed.WasCorrected = true
				fixed.ChangeStatus = verdict.Changed
				fixed.Steps = append([]verdict.Step{{
					Name: "provider_correction", Passed: true, Detail: corrected + " -> " + vr.DidYouMean,
				}}, fixed.Steps...)
				return fixed
			}

			st, bounce := mapProviderStatus(vr.Status)
			comps.BounceStatus = bounce
			comps.Method = domain.MethodProvider
			comps.FreeProvider = comps.FreeProvider || vr.FreeEmail
			r.Components = comps
			r.Status = st
			r.Valid = st == verdict.StatusValid
			if vr.SubStatus != "" {
				r.SubStatus = verdict.SubStatus(vr.SubStatus)
			}
			r.AddStep("external_verification", st == verdict.StatusValid, string(vr.Status))
			switch st {
			case verdict.StatusValid:
				r.SetScore(scoreVerified)
			case verdict.StatusUnknown:
				r.SetScore(scoreUnknown)
			}
			r.Finalize(clientID)
			s.cacheWrite(ctx, corrected, r, bounce)
			return r
		}
		r.AddStep("external_verification", false, "provider unavailable, using basic fallback")
	}

	// 7: basic fallback: known-good domain with MX present is valid,
	// anything else is unknown
	if !mxKnown && s.mx != nil {
		if has, err := s.mx.HasMX(ctx, dom); err == nil {
			mxFound = has
			mxKnown = true
		}
	}
	comps.Method = domain.MethodFallback
	if free && mxKnown && mxFound {
		comps.BounceStatus = domain.BounceUnlikely
		r.Components = comps
		r.Status = verdict.StatusValid
		r.Valid = true
		r.AddStep("basic_validation", true, "known domain with mx records")
		r.SetScore(scoreBasicGood)
		r.Finalize(clientID)
		s.cacheWrite(ctx, corrected, r, domain.BounceUnlikely)
		return r
	}
	comps.BounceStatus = domain.BounceUnknown
	r.Components = comps
	r.Status = verdict.StatusUnknown
	r.AddStep("basic_validation", false, "insufficient local signal")
	r.SetScore(scoreUnknown)
	r.Finalize(clientID)
	return r
}

// suggest asks the provider for a did-you-mean on a format failure
func (s *Service) suggest(ctx context.Context, email string, hop int) string {
	if !s.cfg.DidYouMean || hop >= maxSuggestHops || s.provider == nil || !s.provider.Available() {
		return ""
	}
	vr, err := s.provider.Verify(ctx, email)
	if err != nil || vr.DidYouMean == "" {
		return ""
	}
	return vr.DidYouMean
}

// correct applies the typo maps: domain typos, plus aliases, TLD fixes
func (s *Service) correct(key string, snap *refdata.Snapshot) (string, []string) {
	local, dom := splitAddress(key)
	if dom == "" {
		return key, nil
	}
	var notes []string

	if fixed, ok := snap.DomainTypos[dom]; ok {
		notes = append(notes, dom+" -> "+fixed)
		dom = fixed
	}

	if s.cfg.PlusAliases {
		if _, ok := snap.PlusAliasDomains[dom]; ok {
			if i := strings.IndexByte(local, '+'); i > 0 {
				notes = append(notes, "plus alias stripped")
				local = local[:i]
			}
		}
	}

	if fixed, note := correctTLD(dom, snap); fixed != dom {
		notes = append(notes, note)
		dom = fixed
	}

	return local + "@" + dom, notes
}

// correctTLD fixes malformed TLDs via the typo map, then catches missing-dot
// concatenations like gmailcom by suffix-matching known TLDs
func correctTLD(dom string, snap *refdata.Snapshot) (string, string) {
	for typo, fixed := range snap.TLDTypos {
		if strings.HasSuffix(dom, typo) {
			return dom[:len(dom)-len(typo)] + fixed, "tld " + typo + " -> " + fixed
		}
	}

	if !strings.Contains(dom, ".") {
		// longest TLD first so .com.au beats .au
		best := ""
		for _, tld := range snap.KnownTLDs {
			bare := strings.ReplaceAll(tld, ".", "")
			if strings.HasSuffix(dom, bare) && len(dom) > len(bare) && len(tld) > len(best) {
				best = tld
			}
		}
		if best != "" {
			bare := strings.ReplaceAll(best, ".", "")
			return dom[:len(dom)-len(bare)] + best, "missing dot before " + best
		}
	}
	return dom, ""
}

// mapProviderStatus folds the provider vocabulary into ours
// Only "valid" earns unlikely-to-bounce
func mapProviderStatus(st verifier.Status) (verdict.Status, domain.BounceStatus) {
	switch st {
	case verifier.StatusValid:
		return verdict.StatusValid, domain.BounceUnlikely
	case verifier.StatusInvalid, verifier.StatusSpamtrap, verifier.StatusAbuse, verifier.StatusDoNotMail:
		return verdict.StatusInvalid, domain.BounceLikely
	default: // catch-all, unknown
		return verdict.StatusUnknown, domain.BounceLikely
	}
}

func (s *Service) cacheGet(ctx context.Context, key string) *verdict.Result {
	if s.cache == nil || !s.cfg.CacheEnabled {
		return nil
	}
	hit, err := s.cache.Get(ctx, key)
	if err != nil {
		if !perr.IsCode(err, perr.ErrorCodeNotFound) {
			logger.C(ctx).Warn().Err(err).Msg("email cache read failed, treating as miss")
		}
		return nil
	}
	return hit
}

// cacheWrite persists only valid, unlikely-to-bounce verdicts
func (s *Service) cacheWrite(ctx context.Context, key string, r *verdict.Result, bounce domain.BounceStatus) {
	if s.cache == nil || !s.cfg.CacheEnabled {
		return
	}
	if r.Status != verdict.StatusValid || bounce != domain.BounceUnlikely {
		return
	}
	if err := s.cache.Put(ctx, key, r); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("email cache write failed")
	}
}

// canonical lowercases and strips all whitespace
func canonical(email string) string {
	return strings.ToLower(strings.Join(strings.Fields(email), ""))
}

func splitAddress(email string) (local, dom string) {
	i := strings.LastIndexByte(email, '@')
	if i < 0 {
		return email, ""
	}
	return email[:i], email[i+1:]
}
