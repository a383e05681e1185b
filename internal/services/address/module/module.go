// Package module wires the address validator
package module

import (
	"cleanse/internal/modkit"
	"cleanse/internal/services/address/domain"
	"cleanse/internal/services/address/service"
)

// Ports exposed by the address module
type Ports struct {
	Validator domain.ValidatorPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the address module
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("address"),
	}, opts...)...)

	in, ok := b.Ports.(domain.Ports)
	if !ok {
		panic("address module: expected WithPorts(address/domain.Ports)")
	}
	if in.Ref == nil {
		panic("address module: Ports missing Ref")
	}

	cfg := FromConfig(deps.Cfg)
	if overrides.set {
		cfg = overrides
	}

	var cache domain.CacheRepo
	if cfg.Cache && deps.PG != nil {
		cache = newTxCache(deps.PG)
	}

	svc := service.New(in.Ref, cache, in.Geo, service.Config{
		DefaultCountry: cfg.DefaultCountry,
		CacheEnabled:   cfg.Cache,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Validator: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "address" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }
