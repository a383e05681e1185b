package domain

import (
	"context"

	"cleanse/internal/core/refdata"
	"cleanse/internal/core/verdict"
)

// ValidatorPort is the external port for name validation
type ValidatorPort interface {
	Validate(ctx context.Context, in Input) (*verdict.Result, error)
}

// Ports are dependencies injected into the name module
type Ports struct {
	Ref *refdata.Store // required
}
