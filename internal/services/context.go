package services

import "context"

type contextKey string

const (
	mediaKeyKey  contextKey = "media_key"
	requestIDKey contextKey = "request_id"
)

// WithMediaKey annotates context with the media item the work belongs to.
func WithMediaKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, mediaKeyKey, key)
}

// MediaKeyFromContext returns the media key if present.
func MediaKeyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(mediaKeyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
