package middleware

import (
	"context"

	"github.com/farmersheaven/backend/permissions"
	"github.com/farmersheaven/backend/services/tokens"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for access token claims
	ClaimsKey contextKey = "claims"

	// PrincipalKey is the context key for the acting principal
	PrincipalKey contextKey = "principal"
)

// GetRequestIDFromContext retrieves the request ID from context, falling
// back to the id set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimw.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext retrieves access token claims from context
func GetClaimsFromContext(ctx context.Context) *tokens.Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*tokens.Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds access token claims to the context
func WithClaims(ctx context.Context, claims *tokens.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetPrincipalFromContext retrieves the principal from context.
// Requests that never went through Authenticate are anonymous.
func GetPrincipalFromContext(ctx context.Context) permissions.Principal {
	if val := ctx.Value(PrincipalKey); val != nil {
		if p, ok := val.(permissions.Principal); ok {
			return p
		}
	}
	return permissions.Anonymous()
}

// WithPrincipal adds the principal to the context
func WithPrincipal(ctx context.Context, p permissions.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}
