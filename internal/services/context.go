package services

import "context"

type contextKey string

const (
	movieKeyKey  contextKey = "movie_key"
	updateIDKey  contextKey = "update_id"
	requestIDKey contextKey = "request_id"
)

// WithMovieKey annotates context with the movie key being handled.
func WithMovieKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, movieKeyKey, key)
}

// MovieKeyFromContext returns the movie key if present.
func MovieKeyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(movieKeyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithUpdateID annotates context with the transport update identifier.
func WithUpdateID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, updateIDKey, id)
}

// UpdateIDFromContext extracts the transport update identifier if present.
func UpdateIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(updateIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
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
