package voicegate

import "context"

type clientKeyContextKey struct{}

// defaultClientKey is used when no client key is supplied explicitly or via
// context. A single-station deployment then shares one lockout counter.
const defaultClientKey = "local"

// WithClientKey attaches the caller's client key to ctx. The Engine uses it
// to scope failed-attempt lockout tracking; typical keys are a device id or
// a station name.
func WithClientKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, clientKeyContextKey{}, key)
}

func clientKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	key, _ := ctx.Value(clientKeyContextKey{}).(string)
	return key
}

// resolveClientKey prefers the explicit argument, then the context value,
// then the shared default.
func resolveClientKey(ctx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if key := clientKeyFromContext(ctx); key != "" {
		return key
	}
	return defaultClientKey
}
