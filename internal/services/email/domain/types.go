// Package domain defines the core types and interfaces for the email service
package domain

// BounceStatus is the deliverability taxonomy surfaced to consumers
// Only the provider's "valid" status earns the unlikely value
type BounceStatus string

// Bounce statuses
const (
	BounceUnlikely BounceStatus = "Unlikely to bounce"
	BounceLikely   BounceStatus = "Likely to bounce"
	BounceUnknown  BounceStatus = ""
)

// Components is the structured output of a validated email
type Components struct {
	Local        string       `json:"local,omitempty"`
	Domain       string       `json:"domain,omitempty"`
	BounceStatus BounceStatus `json:"um_bounce_status,omitempty"`
	FreeProvider bool         `json:"freeProvider,omitempty"`
	Method       string       `json:"method,omitempty"` // deciding step
}

// Deciding methods recorded in Components.Method
const (
	MethodCache    = "cache"
	MethodLocal    = "local_checks"
	MethodProvider = "provider"
	MethodFallback = "basic_fallback"
)

// Input carries one validation request
type Input struct {
	Email    string
	ClientID int64
}
