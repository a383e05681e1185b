package service

import (
	"regexp"
	"strings"
)

// extRe strips a trailing extension marker and captures its digits
var extRe = regexp.MustCompile(`(?i)(?:ext(?:ension)?\.?|x)\s*\.?\s*(\d{1,6})\s*$`)

// iddPrefixes collapse to a leading +, longest first
var iddPrefixes = []string{"0011", "011", "00"}

// Clean strips formatting, translates keypad letters, extracts the extension
// and rewrites international dialing prefixes to a leading +
func Clean(raw string) (num, ext string) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ""
	}

	if m := extRe.FindStringSubmatch(s); m != nil {
		ext = m[1]
		s = strings.TrimSpace(s[:len(s)-len(m[0])])
	}

	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		default:
			if d := keypadDigit(r); d != 0 {
				b.WriteByte(d)
			}
			// punctuation and spacing drop
		}
	}
	s = b.String()

	if !strings.HasPrefix(s, "+") {
		for _, idd := range iddPrefixes {
			// require enough digits after the prefix for a country code + number
			if strings.HasPrefix(s, idd) && len(s) >= len(idd)+8 {
				s = "+" + s[len(idd):]
				break
			}
		}
	}
	return s, ext
}

// keypadDigit maps a letter to its phone keypad digit, 0 when not a letter
func keypadDigit(r rune) byte {
	switch {
	case r >= 'a' && r <= 'z':
		r -= 'a' - 'A'
	case r >= 'A' && r <= 'Z':
	default:
		return 0
	}
	switch {
	case r <= 'C':
		return '2'
	case r <= 'F':
		return '3'
	case r <= 'I':
		return '4'
	case r <= 'L':
		return '5'
	case r <= 'O':
		return '6'
	case r <= 'S':
		return '7'
	case r <= 'V':
		return '8'
	default:
		return '9'
	}
}

// countryHeuristics guess a country from digit length and prefix shape
// Ordered: first match wins. These are tuned patterns, not a grammar
var countryHeuristics = []struct {
	re   *regexp.Regexp
	cc   string
	note string
}{
	{regexp.MustCompile(`^04\d{8}$`), "AU", "10 digits starting 04 (AU mobile)"},
	{regexp.MustCompile(`^0[2378]\d{8}$`), "AU", "10 digits starting 02/03/07/08 (AU geographic)"},
	{regexp.MustCompile(`^07\d{9}$`), "GB", "11 digits starting 07 (GB mobile)"},
	{regexp.MustCompile(`^0[12]\d{9}$`), "GB", "11 digits starting 01/02 (GB geographic)"},
	{regexp.MustCompile(`^1[2-9]\d{2}[2-9]\d{6}$`), "US", "11 digits with NANP country code"},
	{regexp.MustCompile(`^[2-9]\d{2}[2-9]\d{6}$`), "US", "10-digit NANP"},
	{regexp.MustCompile(`^0[67]\d{8}$`), "FR", "10 digits starting 06/07 (FR mobile)"},
	{regexp.MustCompile(`^01[5-7]\d{8,9}$`), "DE", "mobile prefix 015x-017x"},
	{regexp.MustCompile(`^02[12479]\d{6,8}$`), "NZ", "NZ mobile prefix"},
}

// guessCountry returns a heuristic country for a cleaned national number
func guessCountry(digits string) (cc, note string) {
	for _, h := range countryHeuristics {
		if h.re.MatchString(digits) {
			return h.cc, h.note
		}
	}
	return "", ""
}
