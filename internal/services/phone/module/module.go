// Package module wires the phone validator
package module

import (
	"cleanse/internal/core/confidence"
	"cleanse/internal/modkit"
	"cleanse/internal/services/phone/domain"
	"cleanse/internal/services/phone/service"
)

// Ports exposed by the phone module
type Ports struct {
	Validator domain.ValidatorPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the phone module
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	modkit.Build(append([]modkit.Option{
		modkit.WithName("phone"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)
	if overrides.set {
		cfg = overrides
	}

	var cache domain.CacheRepo
	if cfg.CacheEnabled && deps.PG != nil {
		cache = newTxCache(deps.PG)
	}

	svc := service.New(cache, service.Config{
		DefaultCountry:    cfg.DefaultCountry,
		FallbackCountries: cfg.FallbackCountries,
		CacheEnabled:      cfg.CacheEnabled,
		CacheMinLevel:     confidence.Level(cfg.CacheMinLevel),
	})

	m := &Module{deps: deps}
	m.ports = Ports{Validator: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "phone" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }
