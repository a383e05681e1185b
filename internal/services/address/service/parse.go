package service

import (
	"strings"
	"unicode"

	"cleanse/internal/core/refdata"
	"cleanse/internal/services/address/domain"
)

// countryNames maps free-text country spellings to ISO codes
var countryNames = map[string]string{
	"united states":            "US",
	"united states of america": "US",
	"usa":                      "US",
	"us":                       "US",
	"america":                  "US",
	"canada":                   "CA",
	"australia":                "AU",
	"united kingdom":           "GB",
	"uk":                       "GB",
	"gb":                       "GB",
	"great britain":            "GB",
	"england":                  "GB",
	"new zealand":              "NZ",
	"nz":                       "NZ",
	"germany":                  "DE",
	"france":                   "FR",
	"ireland":                  "IE",
	"netherlands":              "NL",
	"india":                    "IN",
	"mexico":                   "MX",
	"brazil":                   "BR",
}

// postalShapes are used for country inference and free-text disambiguation
// when no country was declared; order matters, most distinctive first
var postalShapes = []string{"CA", "GB", "AU", "US"}

// parseFreeText splits a single-line address on commas and assigns segments
// right to left: country, then postal/state, then city, with the first
// segment treated as the street line when it looks like one
func parseFreeText(text string, snap *refdata.Snapshot) domain.Components {
	var c domain.Components

	segs := strings.Split(text, ",")
	for i := range segs {
		segs[i] = strings.TrimSpace(segs[i])
	}

	// trailing country segment
	if n := len(segs); n > 1 {
		if cc, ok := countryNames[strings.ToLower(segs[n-1])]; ok {
			c.CountryCode = cc
			c.Country = segs[n-1]
			segs = segs[:n-1]
		}
	}

	start := 0
	if len(segs) > 0 && looksLikeStreetLine(segs[0], snap) {
		parseStreetLine(segs[0], &c, snap)
		start = 1
	}

	// remaining locality segments, right to left so "NY 10001" claims the
	// state before "New York" is considered for it
	for i := len(segs) - 1; i >= start; i-- {
		parseLocality(segs[i], &c, snap)
	}
	return c
}

// looksLikeStreetLine reports whether a segment starts with a house number
// or mentions a street type
func looksLikeStreetLine(seg string, snap *refdata.Snapshot) bool {
	toks := strings.Fields(seg)
	if len(toks) == 0 {
		return false
	}
	if startsWithDigit(toks[0]) {
		return true
	}
	for _, t := range toks {
		if _, ok := snap.StreetTypes[strings.ToLower(t)]; ok {
			return true
		}
	}
	return false
}

// parseStreetLine extracts house number, direction, street name/type and
// unit from one segment
func parseStreetLine(seg string, c *domain.Components, snap *refdata.Snapshot) {
	toks := strings.Fields(seg)
	toks = extractUnit(toks, c, snap)
	if len(toks) == 0 {
		return
	}

	if startsWithDigit(toks[0]) {
		c.HouseNumber = toks[0]
		toks = toks[1:]
	}
	if len(toks) > 0 {
		if d, ok := snap.Directions[strings.ToLower(toks[0])]; ok && len(toks) > 1 {
			c.Direction = d
			toks = toks[1:]
		}
	}
	if n := len(toks); n > 0 {
		if st, ok := snap.StreetTypes[strings.ToLower(toks[n-1])]; ok {
			c.StreetType = st
			toks = toks[:n-1]
		}
	}
	c.StreetName = strings.Join(toks, " ")
}

// extractUnit strips a unit marker and its number from the token list
// A bare "#4b" also counts
func extractUnit(toks []string, c *domain.Components, snap *refdata.Snapshot) []string {
	for i, t := range toks {
		lt := strings.ToLower(t)
		if ut, ok := snap.UnitTypes[lt]; ok && i+1 < len(toks) {
			c.UnitType = ut
			c.UnitNumber = strings.ToUpper(toks[i+1])
			return append(toks[:i:i], toks[i+2:]...)
		}
		if strings.HasPrefix(t, "#") && len(t) > 1 {
			c.UnitType = "Unit"
			c.UnitNumber = strings.ToUpper(t[1:])
			return append(toks[:i:i], toks[i+1:]...)
		}
	}
	return toks
}

// parseLocality assigns a segment's tokens to postal code, state and city,
// scanning from the end of the segment
func parseLocality(seg string, c *domain.Components, snap *refdata.Snapshot) {
	toks := strings.Fields(seg)

	for len(toks) > 0 {
		n := len(toks)

		// two-token postal codes first (GB "SW1A 1AA", CA "M5V 3L9")
		if c.PostalCode == "" && n >= 2 {
			if cc := matchPostal(toks[n-2]+" "+toks[n-1], snap); cc != "" {
				c.PostalCode = strings.ToUpper(toks[n-2] + " " + toks[n-1])
				inferCountry(c, cc)
				toks = toks[:n-2]
				continue
			}
		}
		if c.PostalCode == "" {
			if cc := matchPostal(toks[n-1], snap); cc != "" {
				c.PostalCode = strings.ToUpper(toks[n-1])
				inferCountry(c, cc)
				toks = toks[:n-1]
				continue
			}
		}
		if c.State == "" {
			if ab, ok := stateOf(toks[n-1], snap); ok {
				c.State = ab
				toks = toks[:n-1]
				continue
			}
			// multi-word state names like "new south wales"
			if ab, ok := snap.StateAbbrev[strings.ToLower(strings.Join(toks, " "))]; ok {
				c.State = ab
				toks = nil
				continue
			}
		}
		break
	}

	if c.City == "" && len(toks) > 0 {
		c.City = strings.Join(toks, " ")
	}
}

// matchPostal returns the first country whose postal shape matches s
func matchPostal(s string, snap *refdata.Snapshot) string {
	for _, cc := range postalShapes {
		if re, ok := snap.PostalCodes[cc]; ok && re.MatchString(strings.ToUpper(s)) {
			return cc
		}
	}
	return ""
}

// inferCountry records a postal-shape country only when none is known yet
// US five-digit shapes are too common to pin a country on during parsing
func inferCountry(c *domain.Components, cc string) {
	if c.CountryCode == "" && cc != "US" {
		c.CountryCode = cc
	}
}

func stateOf(tok string, snap *refdata.Snapshot) (string, bool) {
	if ab, ok := snap.StateAbbrev[strings.ToLower(tok)]; ok {
		return ab, true
	}
	up := strings.ToUpper(tok)
	if len(up) <= 3 {
		for _, ab := range snap.StateAbbrev {
			if ab == up {
				return ab, true
			}
		}
	}
	return "", false
}

func startsWithDigit(s string) bool {
	return s != "" && unicode.IsDigit(rune(s[0]))
}
