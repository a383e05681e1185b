// Package module wires the name validator
package module

import (
	"cleanse/internal/modkit"
	"cleanse/internal/services/name/domain"
	"cleanse/internal/services/name/service"
)

// Ports exposed by the name module
type Ports struct {
	Validator domain.ValidatorPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the name module
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("name"),
	}, opts...)...)

	ports, ok := b.Ports.(domain.Ports)
	if !ok {
		panic("name module: expected WithPorts(name/domain.Ports)")
	}
	if ports.Ref == nil {
		panic("name module: Ports missing Ref")
	}

	cfg := FromConfig(deps.Cfg)
	if overrides.set {
		cfg = overrides
	}

	svc := service.New(ports.Ref, service.Config{
		SecurityCheck:    cfg.SecurityCheck,
		PlaceholderCheck: cfg.PlaceholderCheck,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Validator: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "name" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }
