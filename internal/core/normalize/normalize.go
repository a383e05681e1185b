// Package normalize provides a deterministic input normalizer for identity fields
// Pipeline order
// 1 Control/zero-width sanitation, drop invalid bytes
// 2 Unicode NFC normalization
// 3 Width fold fullwidth to ASCII
// 4 Collapse whitespace to single spaces and trim
// Case is preserved so callers can tell corrections from the original input
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalizer is concurrency safe when used with the pool below
type Normalizer struct{}

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		// order matters and mirrors the documented pipeline
		return transform.Chain(
			norm.NFC,
			runes.Remove(runes.In(unicode.Cf)), // strip format chars ZWJ ZWNJ FEFF etc
			width.Fold,                         // map fullwidth forms to ASCII
		)
	},
}

// foldPool is a separate chain for case-insensitive comparison keys
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// New constructs a Normalizer
func New() *Normalizer { return &Normalizer{} }

// Normalize returns the normalized form of s following the pipeline described above
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = Sanitize(s)
	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)

	return collapseSpaces(ns)
}

// Fold returns a case-insensitive comparison key for s
// used to decide whether a correction changed more than letter case
func Fold(s string) string {
	if s == "" {
		return ""
	}
	tr := foldPool.Get().(transform.Transformer)
	fs, _, _ := transform.String(tr, s)
	tr.Reset()
	foldPool.Put(tr)
	return fs
}

// EqualFold reports whether a and b are equal under Fold
func EqualFold(a, b string) bool { return Fold(a) == Fold(b) }

// LatinOnly reports whether every letter in s belongs to the Latin script
// strings with no letters at all report true
func LatinOnly(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}

// collapseSpaces converts whitespace runs to a single ASCII space and trims the edges
// identity fields are single line so newlines collapse like any other whitespace
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			continue
		}
		if inWS && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inWS = false
		b.WriteRune(r)
	}
	return b.String()
}
