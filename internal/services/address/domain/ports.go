package domain

import (
	"context"

	"cleanse/internal/adapters/geocoder"
	"cleanse/internal/core/refdata"
	"cleanse/internal/core/verdict"
)

// ValidatorPort is the external port for address validation
type ValidatorPort interface {
	Validate(ctx context.Context, in Input) (*verdict.Result, error)
}

// CacheRepo is the trust-forever result cache keyed by composite components
// Get returns a NotFound-coded error on miss
type CacheRepo interface {
	Get(ctx context.Context, key string) (*verdict.Result, error)
	Put(ctx context.Context, key string, res *verdict.Result) error
}

// Ports are dependencies injected into the address module
type Ports struct {
	Ref *refdata.Store // required
	Geo geocoder.Port  // optional enrichment provider
}
