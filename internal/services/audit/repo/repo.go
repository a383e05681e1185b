// Package repo provides the ClickHouse audit sink
package repo

import (
	"context"

	perr "cleanse/internal/platform/errors"
	"cleanse/internal/platform/store"
	"cleanse/internal/services/audit/domain"
)

// CH writes audit entries to the check_audit table
type CH struct {
	ch store.Clickhouse
}

// NewCH returns a ClickHouse-backed sink
func NewCH(ch store.Clickhouse) *CH { return &CH{ch: ch} }

// Record appends one entry
// Column order matches the check_audit table definition
func (r *CH) Record(ctx context.Context, e domain.Entry) error {
	rows := [][]any{{
		e.CheckID,
		e.RequestID,
		e.Field,
		e.Status,
		e.SubStatus,
		e.Confidence,
		e.Corrected,
		e.Steps,
		e.CreatedAt,
	}}
	if err := r.ch.Insert(ctx, "check_audit", rows); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "audit insert")
	}
	return nil
}
