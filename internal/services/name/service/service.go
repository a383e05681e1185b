// Package service implements the name validator
//
// Deterministic, no external calls: grammar and security screening, honorific
// and suffix extraction, particle-aware surname detection, script-aware
// recasing. Reference tables supply the honorific/suffix/particle sets
package service

import (
	"context"
	"strings"
	"unicode"

	"cleanse/internal/core/normalize"
	"cleanse/internal/core/refdata"
	"cleanse/internal/core/verdict"
	"cleanse/internal/services/name/domain"
)

// confidence constants, tuned upstream; change tests when changing these
const (
	scoreFull   = 90 // first and last present
	scoreSingle = 60 // single given name only
)

// Config for the name service
type Config struct {
	SecurityCheck    bool
	PlaceholderCheck bool
}

// Service implements domain.ValidatorPort
type Service struct {
	ref  *refdata.Store
	norm *normalize.Normalizer
	cfg  Config
}

// New constructs a name service
func New(ref *refdata.Store, cfg Config) *Service {
	return &Service{ref: ref, norm: normalize.New(), cfg: cfg}
}

// Validate parses and recases a personal name
func (s *Service) Validate(ctx context.Context, in domain.Input) (*verdict.Result, error) {
	snap := s.ref.Current()
	raw := in.Name
	text := s.norm.Normalize(raw)

	if text == "" {
		r := verdict.Terminal(raw, verdict.SubBadFormat, "empty name")
		r.Finalize(in.ClientID)
		return r, nil
	}

	r := &verdict.Result{OriginalInput: raw}

	low := strings.ToLower(text)
	if s.cfg.SecurityCheck {
		for _, pat := range snap.SecurityPatterns {
			if strings.Contains(low, pat) {
				r.NormalizedValue = raw
				r.Status = verdict.StatusInvalid
				r.SubStatus = verdict.SubSecurityPattern
				r.AddStep("security_check", false, "input matches blocked pattern")
				r.Finalize(in.ClientID)
				return r, nil
			}
		}
		r.AddStep("security_check", true, "")
	}

	if bad := firstDisallowedRune(text); bad != 0 {
		r.NormalizedValue = raw
		r.Status = verdict.StatusInvalid
		r.SubStatus = verdict.SubBadFormat
		r.AddStep("format_check", false, "disallowed character "+string(bad))
		r.Finalize(in.ClientID)
		return r, nil
	}
	r.AddStep("format_check", true, "")
	r.FormatValid = true

	comps, commaForm := s.parse(text, snap)
	if comps.First == "" && comps.Last == "" {
		r.NormalizedValue = raw
		r.Status = verdict.StatusInvalid
		r.SubStatus = verdict.SubUnparseable
		r.AddStep("parse", false, "no name components")
		r.Finalize(in.ClientID)
		return r, nil
	}
	if commaForm {
		r.AddStep("parse", true, "comma form reordered")
	} else {
		r.AddStep("parse", true, "")
	}

	if s.cfg.PlaceholderCheck {
		pair := strings.ToLower(strings.TrimSpace(comps.First + " " + comps.Last))
		if _, ok := snap.PlaceholderNames[pair]; ok {
			r.NormalizedValue = text
			r.Status = verdict.StatusInvalid
			r.SubStatus = verdict.SubPlaceholderName
			r.Components = comps
			r.AddStep("placeholder_check", false, pair)
			r.Finalize(in.ClientID)
			return r, nil
		}
		r.AddStep("placeholder_check", true, "")
	}

	wholeRecase := uniformCase(raw)
	comps = s.recase(comps, snap, wholeRecase)
	value := assemble(comps)

	r.NormalizedValue = value
	r.Components = comps
	r.Valid = true
	r.Status = verdict.StatusValid
	r.WasCorrected = wholeRecase || value != strings.TrimSpace(raw)
	if comps.Last != "" {
		r.SetScore(scoreFull)
	} else {
		r.SetScore(scoreSingle)
		r.AddStep("capitalization", true, "single name component")
	}
	if r.WasCorrected {
		r.AddStep("capitalization", true, "recased")
	}
	r.Finalize(in.ClientID)
	return r, nil
}

// firstDisallowedRune enforces the name grammar:
// letters, marks, apostrophes, hyphens, periods, commas, spaces
func firstDisallowedRune(s string) rune {
	for _, c := range s {
		if unicode.IsLetter(c) || unicode.IsMark(c) || c == ' ' {
			continue
		}
		switch c {
		case '\'', '-', '.', ',', '’':
			continue
		}
		return c
	}
	return 0
}

// parse splits text into components, handling both
// "First [Middle...] Last [Suffix]" and "Last, First [Middle...]" forms
func (s *Service) parse(text string, snap *refdata.Snapshot) (domain.Components, bool) {
	var c domain.Components
	commaForm := false

	var tokens []string
	if i := strings.IndexByte(text, ','); i >= 0 {
		left := strings.Fields(text[:i])
		right := strings.Fields(strings.ReplaceAll(text[i+1:], ",", " "))

		if len(right) > 0 && allSuffixes(right, snap) {
			// "John Smith, Jr." is a suffix comma, not a reorder
			c.Suffix = snap.Suffixes[suffixKey(right[len(right)-1])]
			tokens = left
		} else if len(right) == 0 {
			tokens = left
		} else {
			// "Smith, John Middle" reorders to given-first
			commaForm = true
			tokens = append(append([]string{}, right...), left...)
			// remember where the surname starts after the reorder
			c.Last = strings.Join(left, " ")
		}
	} else {
		tokens = strings.Fields(text)
	}

	// honorific leads, suffix trails
	if len(tokens) > 0 {
		if h, ok := snap.Honorifics[strings.ToLower(tokens[0])]; ok {
			c.Honorific = h
			tokens = tokens[1:]
		}
	}
	if c.Suffix == "" && len(tokens) > 1 {
		if sf, ok := snap.Suffixes[suffixKey(tokens[len(tokens)-1])]; ok {
			c.Suffix = sf
			tokens = tokens[:len(tokens)-1]
		}
	}

	if commaForm {
		// surname fixed by the comma; strip it off the token tail
		lastN := len(strings.Fields(c.Last))
		if lastN > 0 && lastN <= len(tokens) {
			tokens = tokens[:len(tokens)-lastN]
		}
		if c.Suffix == "" && len(tokens) > 1 {
			if sf, ok := snap.Suffixes[suffixKey(tokens[len(tokens)-1])]; ok {
				c.Suffix = sf
				tokens = tokens[:len(tokens)-1]
			}
		}
		if len(tokens) > 0 {
			c.First = tokens[0]
			c.Middle = append([]string{}, tokens[1:]...)
		}
		return c, commaForm
	}

	switch len(tokens) {
	case 0:
		return c, commaForm
	case 1:
		c.First = tokens[0]
		return c, commaForm
	}

	// the first particle marks the start of a multi-word surname
	lastStart := len(tokens) - 1
	for i := 1; i < len(tokens)-1; i++ {
		if _, ok := snap.Particles[strings.ToLower(tokens[i])]; ok {
			lastStart = i
			break
		}
	}
	c.First = tokens[0]
	c.Middle = append([]string{}, tokens[1:lastStart]...)
	c.Last = strings.Join(tokens[lastStart:], " ")
	return c, commaForm
}

func allSuffixes(tokens []string, snap *refdata.Snapshot) bool {
	for _, t := range tokens {
		if _, ok := snap.Suffixes[suffixKey(t)]; !ok {
			return false
		}
	}
	return true
}

func suffixKey(t string) string {
	return strings.ToLower(strings.Trim(t, ","))
}

// recase applies proper capitalization to Latin-script tokens
// wholeRecase forces recasing when the input was fully upper or lower case;
// otherwise mixed-case tokens and as-given particles pass through
func (s *Service) recase(c domain.Components, snap *refdata.Snapshot, wholeRecase bool) domain.Components {
	c.First = caseToken(c.First, snap, wholeRecase, false)
	for i, m := range c.Middle {
		c.Middle[i] = caseToken(m, snap, wholeRecase, false)
	}
	if c.Last != "" {
		parts := strings.Fields(c.Last)
		for i, p := range parts {
			_, particle := snap.Particles[strings.ToLower(p)]
			parts[i] = caseToken(p, snap, wholeRecase, particle)
		}
		c.Last = strings.Join(parts, " ")
	}
	return c
}

// caseToken recases one token, honoring override and prefix rules
func caseToken(tok string, snap *refdata.Snapshot, wholeRecase, particle bool) string {
	if tok == "" || !normalize.LatinOnly(tok) {
		return tok
	}
	if !wholeRecase {
		// mixed-case input: leave particles and already-mixed tokens alone
		if particle || !uniformCase(tok) {
			return tok
		}
	}

	key := strings.ToLower(strings.ReplaceAll(tok, "'", ""))
	if over, ok := snap.SurnameOverrides[key]; ok {
		return over
	}

	low := strings.ToLower(tok)
	switch {
	case strings.HasPrefix(low, "o'") && len(low) > 2:
		return "O'" + titleWord(low[2:])
	case strings.HasPrefix(low, "o’") && len([]rune(low)) > 2:
		rest := string([]rune(low)[2:])
		return "O'" + titleWord(rest)
	case strings.HasPrefix(low, "mc") && len(low) > 2:
		return "Mc" + titleWord(low[2:])
	}

	// hyphenated names case each side
	if strings.Contains(low, "-") {
		parts := strings.Split(low, "-")
		for i, p := range parts {
			parts[i] = titleWord(p)
		}
		return strings.Join(parts, "-")
	}
	return titleWord(low)
}

// titleWord upcases the first rune of an already-lowercased word
func titleWord(w string) string {
	if w == "" {
		return w
	}
	rs := []rune(w)
	rs[0] = unicode.ToUpper(rs[0])
	return string(rs)
}

// uniformCase reports whether every letter shares one case
func uniformCase(s string) bool {
	hasUpper, hasLower := false, false
	for _, c := range s {
		if unicode.IsUpper(c) {
			hasUpper = true
		} else if unicode.IsLower(c) {
			hasLower = true
		}
	}
	return hasUpper != hasLower // all one case, and at least one letter
}

func assemble(c domain.Components) string {
	parts := make([]string, 0, 4+len(c.Middle))
	if c.Honorific != "" {
		parts = append(parts, c.Honorific)
	}
	if c.First != "" {
		parts = append(parts, c.First)
	}
	parts = append(parts, c.Middle...)
	if c.Last != "" {
		parts = append(parts, c.Last)
	}
	if c.Suffix != "" {
		parts = append(parts, c.Suffix)
	}
	return strings.Join(parts, " ")
}
