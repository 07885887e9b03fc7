// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	identityKey  contextKey = "ctxutil.identity"
	storeIDKey   contextKey = "ctxutil.storeID"
	channelKey   contextKey = "ctxutil.channel"
	requestIDKey contextKey = "ctxutil.requestID"
)

// WithIdentity adds the conversation identity (e.g. "wa-972500000000") to the context.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity retrieves the conversation identity from the context.
// Returns the identity if found, empty string otherwise.
func GetIdentity(ctx context.Context) string {
	if v, ok := ctx.Value(identityKey).(string); ok {
		return v
	}
	return ""
}

// MustGetIdentity retrieves the conversation identity from the context.
// Panics if the identity is not found. Use this only after the channel
// adapter has resolved the sender.
func MustGetIdentity(ctx context.Context) string {
	identity, ok := ctx.Value(identityKey).(string)
	if !ok || identity == "" {
		panic("ctxutil: identity not found")
	}
	return identity
}

// WithStoreID adds the operator's store ID to the context.
func WithStoreID(ctx context.Context, storeID int64) context.Context {
	return context.WithValue(ctx, storeIDKey, storeID)
}

// GetStoreID retrieves the store ID from the context, 0 when absent.
func GetStoreID(ctx context.Context) int64 {
	if v, ok := ctx.Value(storeIDKey).(int64); ok {
		return v
	}
	return 0
}

// WithChannel adds the inbound channel name ("whatsapp", "line", "simulator").
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey, channel)
}

// GetChannel retrieves the inbound channel name from the context.
func GetChannel(ctx context.Context) string {
	if v, ok := ctx.Value(channelKey).(string); ok {
		return v
	}
	return ""
}

// WithRequestID adds a request ID to the context for tracing.
// Request ID is typically generated per webhook request for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// PreserveTracing creates a detached context that preserves tracing values.
// The new context is independent of the parent's cancellation and deadlines.
//
// Only tracing values are copied onto a fresh context.Background() so the
// parent context is not retained (Go issue #64478).
//
// Use for async work that must outlive the HTTP request, such as webhook
// processing after the 200 response has been written.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if identity := GetIdentity(ctx); identity != "" {
		newCtx = WithIdentity(newCtx, identity)
	}
	if storeID := GetStoreID(ctx); storeID != 0 {
		newCtx = WithStoreID(newCtx, storeID)
	}
	if channel := GetChannel(ctx); channel != "" {
		newCtx = WithChannel(newCtx, channel)
	}
	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		newCtx = WithRequestID(newCtx, requestID)
	}

	return newCtx
}
