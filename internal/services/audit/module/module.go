// Package module wires the audit sink
package module

import (
	"context"
	"encoding/json"
	"time"

	"cleanse/internal/core/verdict"
	"cleanse/internal/modkit"
	"cleanse/internal/platform/logger"
	pnet "cleanse/internal/platform/net"
	"cleanse/internal/services/audit/domain"
	"cleanse/internal/services/audit/repo"
)

// Ports exposed by the audit module
type Ports struct {
	Sink domain.SinkPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the audit module; without a ClickHouse seam the sink is a no-op
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	modkit.Build(append([]modkit.Option{
		modkit.WithName("audit"),
	}, opts...)...)

	var sink domain.SinkPort = nopSink{}
	if deps.CH != nil {
		sink = repo.NewCH(deps.CH)
	}

	m := &Module{deps: deps}
	m.ports = Ports{Sink: sink}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "audit" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Record flattens a verdict and hands it to the sink, absorbing failures
// so an audit outage never blocks a validation response
func Record(ctx context.Context, sink domain.SinkPort, field string, res *verdict.Result) {
	if sink == nil || res == nil {
		return
	}
	steps, err := json.Marshal(res.Steps)
	if err != nil {
		steps = []byte("[]")
	}
	e := domain.Entry{
		CheckID:    res.CheckID,
		RequestID:  pnet.RequestID(ctx),
		Field:      field,
		Status:     string(res.Status),
		SubStatus:  string(res.SubStatus),
		Confidence: int32(res.Confidence),
		Corrected:  res.WasCorrected,
		Steps:      string(steps),
		CreatedAt:  time.Now().UTC(),
	}
	if err := sink.Record(ctx, e); err != nil {
		logger.C(ctx).Warn().Err(err).Int64("check_id", e.CheckID).Msg("audit record failed")
	}
}

// nopSink drops entries when no ClickHouse backend is configured
type nopSink struct{}

func (nopSink) Record(context.Context, domain.Entry) error { return nil }
