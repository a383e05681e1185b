// Package net provides request-context helpers shared by the HTTP layer
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const keyClientID ctxKey = "client_id"

// WithRequest annotates context with request scoped ids
func WithRequest(ctx context.Context, reqID string, clientID int64) context.Context {
	if reqID != "" {
		// set chi's request id so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if clientID != 0 {
		ctx = context.WithValue(ctx, keyClientID, clientID)
	}
	return ctx
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// ClientID returns the caller's client id on the context, zero when absent
func ClientID(ctx context.Context) int64 {
	if v, ok := ctx.Value(keyClientID).(int64); ok {
		return v
	}
	return 0
}
