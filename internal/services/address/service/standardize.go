package service

import (
	"strings"
	"unicode"

	"cleanse/internal/core/refdata"
	"cleanse/internal/services/address/domain"
)

// standardize canonicalizes abbreviations and casing in place and reports
// whether anything changed
func standardize(c *domain.Components, snap *refdata.Snapshot) bool {
	changed := false
	set := func(dst *string, v string) {
		if v != "" && v != *dst {
			*dst = v
			changed = true
		}
	}

	if ab, ok := snap.Directions[strings.ToLower(c.Direction)]; ok {
		set(&c.Direction, ab)
	}
	if ab, ok := snap.StreetTypes[strings.ToLower(c.StreetType)]; ok {
		set(&c.StreetType, ab)
	}
	if ab, ok := snap.UnitTypes[strings.ToLower(c.UnitType)]; ok {
		set(&c.UnitType, ab)
	}

	set(&c.StreetName, titleWords(c.StreetName))
	set(&c.City, titleWords(c.City))

	if ab, ok := snap.StateAbbrev[strings.ToLower(c.State)]; ok {
		set(&c.State, ab)
	} else if len(c.State) <= 3 {
		set(&c.State, strings.ToUpper(c.State))
	}

	set(&c.PostalCode, strings.ToUpper(c.PostalCode))

	if c.CountryCode == "" && c.Country != "" {
		if cc, ok := countryNames[strings.ToLower(c.Country)]; ok {
			set(&c.CountryCode, cc)
		}
	}
	set(&c.CountryCode, strings.ToUpper(c.CountryCode))
	set(&c.Country, titleWords(c.Country))

	return changed
}

// titleWords upper-cases the first letter of each word, leaving digits and
// already-mixed tokens intact
func titleWords(s string) string {
	if s == "" {
		return s
	}
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	r := []rune(w)
	if !unicode.IsLetter(r[0]) {
		return w
	}
	if hasMixedCase(w) {
		return w
	}
	out := []rune(strings.ToLower(w))
	out[0] = unicode.ToUpper(out[0])
	return string(out)
}

func hasMixedCase(w string) bool {
	upper, lower := false, false
	for _, r := range w {
		if unicode.IsUpper(r) {
			upper = true
		}
		if unicode.IsLower(r) {
			lower = true
		}
	}
	return upper && lower
}
