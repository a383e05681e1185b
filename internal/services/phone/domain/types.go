// Package domain defines the core types and interfaces for the phone service
package domain

// Components is the structured output of a parsed phone number
type Components struct {
	E164          string `json:"e164,omitempty"`
	International string `json:"international,omitempty"`
	National      string `json:"national,omitempty"`
	CountryCode   string `json:"countryCode,omitempty"` // ISO 3166-1 alpha-2
	CallingCode   int    `json:"callingCode,omitempty"`
	LineType      string `json:"lineType,omitempty"` // mobile | fixed | fixed_or_mobile | unknown
	Extension     string `json:"extension,omitempty"`
	ParseMethod   string `json:"parseMethod,omitempty"`
}

// Line types
const (
	LineMobile        = "mobile"
	LineFixed         = "fixed"
	LineFixedOrMobile = "fixed_or_mobile"
	LineUnknown       = "unknown"
)

// Parse methods in descending order of trust
const (
	MethodInternational = "international_format"
	MethodExplicit      = "explicit_country"
	MethodFallback      = "fallback_country"
	MethodHeuristic     = "prefix_heuristic"
)

// Input carries one validation request
type Input struct {
	Phone    string
	Country  string // optional caller-supplied ISO country
	Strict   bool   // a failed explicit-country parse is terminal
	ClientID int64
}
