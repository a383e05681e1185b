// Package module wires the email validator
package module

import (
	"cleanse/internal/modkit"
	"cleanse/internal/services/email/domain"
	"cleanse/internal/services/email/service"
)

// Ports exposed by the email module
type Ports struct {
	Validator domain.ValidatorPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the email module
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("email"),
	}, opts...)...)

	in, ok := b.Ports.(domain.Ports)
	if !ok {
		panic("email module: expected WithPorts(email/domain.Ports)")
	}
	if in.Ref == nil {
		panic("email module: Ports missing Ref")
	}

	cfg := FromConfig(deps.Cfg)
	if overrides.set {
		cfg = overrides
	}

	var cache domain.CacheRepo
	if cfg.Cache && deps.PG != nil {
		cache = newTxCache(deps.PG)
	}

	svc := service.New(in.Ref, cache, in.Verifier, in.MX, service.Config{
		MXCheck:      cfg.MXCheck,
		DidYouMean:   cfg.DidYouMean,
		PlusAliases:  cfg.PlusAliases,
		CacheEnabled: cfg.Cache,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Validator: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "email" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }
