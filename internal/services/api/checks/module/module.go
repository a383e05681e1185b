// Package module wires the checks HTTP surface
package module

import (
	"cleanse/internal/modkit"
	"cleanse/internal/modkit/httpkit"
	checkshttp "cleanse/internal/services/api/checks/http"
)

// Module implements modkit.Module
type Module struct {
	deps modkit.Deps
	h    *checkshttp.Handlers
}

// New constructs the checks module around a prepared handler set
func New(deps modkit.Deps, h *checkshttp.Handlers, opts ...modkit.Option) *Module {
	modkit.Build(append([]modkit.Option{
		modkit.WithName("checks"),
	}, opts...)...)

	if h == nil {
		panic("checks module: nil handlers")
	}
	return &Module{deps: deps, h: h}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "checks" }

// Ports satisfies modkit.Module; checks exposes routes, not ports
func (m *Module) Ports() any { return nil }

// MountRoutes registers the validation endpoints
func (m *Module) MountRoutes(r httpkit.Router) { m.h.MountRoutes(r) }
