package domain

import (
	"context"

	"cleanse/internal/adapters/verifier"
	"cleanse/internal/core/refdata"
	"cleanse/internal/core/verdict"
)

// ValidatorPort is the external port for email validation
type ValidatorPort interface {
	Validate(ctx context.Context, in Input) (*verdict.Result, error)
}

// CacheRepo is the trust-forever result cache keyed by lowercased email
// Get returns a NotFound-coded error on miss
type CacheRepo interface {
	Get(ctx context.Context, key string) (*verdict.Result, error)
	Put(ctx context.Context, key string, res *verdict.Result) error
}

// MXPort answers whether a domain publishes MX records
type MXPort interface {
	HasMX(ctx context.Context, domain string) (bool, error)
}

// Ports are dependencies injected into the email module
type Ports struct {
	Ref      *refdata.Store // required
	Verifier verifier.Port  // optional external provider
	MX       MXPort         // optional, required when MX checking is enabled
}
