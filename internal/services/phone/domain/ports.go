package domain

import (
	"context"

	"cleanse/internal/core/verdict"
)

// ValidatorPort is the external port for phone validation
type ValidatorPort interface {
	Validate(ctx context.Context, in Input) (*verdict.Result, error)
}

// CacheRepo is the trust-forever result cache keyed by E.164
// Get returns a NotFound-coded error on miss
type CacheRepo interface {
	Get(ctx context.Context, key string) (*verdict.Result, error)
	Put(ctx context.Context, key string, res *verdict.Result) error
}

// Ports are dependencies injected into the phone module
type Ports struct{}
