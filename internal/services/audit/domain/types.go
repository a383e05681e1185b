// Package domain defines the check-audit sink types
package domain

import (
	"context"
	"time"
)

// Entry is one validation verdict flattened for the audit log
type Entry struct {
	CheckID    int64
	RequestID  string
	Field      string // email, phone, address, name
	Status     string
	SubStatus  string
	Confidence int32
	Corrected  bool
	Steps      string // trace serialized as JSON
	CreatedAt  time.Time
}

// SinkPort records audit entries; failures must never block a verdict
type SinkPort interface {
	Record(ctx context.Context, e Entry) error
}
