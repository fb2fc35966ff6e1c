package domain

import "context"

type requestMetaKey struct{}

// RequestMeta carries request attributes recorded on every audit entry.
type RequestMeta struct {
	CorrelationID string
	IPAddress     string
	UserAgent     string
}

// WithRequestMeta stores meta in ctx.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// GetRequestMeta retrieves the request attributes stored in ctx.
func GetRequestMeta(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok
}
