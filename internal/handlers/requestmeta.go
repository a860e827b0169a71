package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

type requestMetaKey struct{}

// RequestMeta identifies the HTTP client behind a request.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}

// ClientKey hashes the client IP and User-Agent into an opaque window key.
func (m RequestMeta) ClientKey() string {
	hash := sha256.Sum256([]byte(m.ClientIP + "|" + m.UserAgent))

	return hex.EncodeToString(hash[:])
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}
