package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/farmersheaven/backend/permissions"
	"github.com/farmersheaven/backend/services/tokens"
	"github.com/farmersheaven/backend/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenParser validates access tokens
type TokenParser interface {
	ParseAccess(token string) (*tokens.Claims, error)
}

// PrincipalResolver turns a user id into the principal evaluated by policies
type PrincipalResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (permissions.Principal, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	parser   TokenParser
	resolver PrincipalResolver
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(parser TokenParser, resolver PrincipalResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		parser:   parser,
		resolver: resolver,
		logger:   logger,
	}
}

// authTokenCookieName is the cookie carrying the access token when no
// Authorization header is sent
const authTokenCookieName = "auth_token"

// Authenticate resolves the access token into a principal. Requests without
// a token continue as anonymous; a token that fails validation is rejected.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, permissions.Anonymous())))
			return
		}

		claims, err := m.parser.ParseAccess(token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			m.logger.Warn("token subject is not a user id",
				zap.String("request_id", requestID),
				zap.String("sub", claims.Subject))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		principal, err := m.resolver.Resolve(ctx, userID)
		if err != nil {
			m.logger.Warn("principal resolution failed",
				zap.String("request_id", requestID),
				zap.String("user_id", userID.String()),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		ctx = WithClaims(ctx, claims)
		ctx = WithPrincipal(ctx, principal)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", principal.ID),
			zap.Bool("superuser", principal.SuperUser))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects anonymous requests. Must run after Authenticate.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetPrincipalFromContext(r.Context()).Authenticated {
			m.logger.Warn("missing token",
				zap.String("request_id", GetRequestIDFromContext(r.Context())))
			_ = utils.WriteUnauthorized(w, "Authentication credentials were not provided.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperUser rejects requests whose principal is not a superuser
func (m *AuthMiddleware) RequireSuperUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipalFromContext(r.Context())
		switch {
		case !principal.Authenticated:
			_ = utils.WriteUnauthorized(w, "Authentication credentials were not provided.")
		case !principal.SuperUser:
			m.logger.Warn("insufficient permissions",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("user_id", principal.ID))
			_ = utils.WriteForbidden(w, "You do not have permission to perform this action.")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// extractToken extracts the token from the Authorization header ("Bearer TOKEN")
// or the auth_token cookie. The header takes precedence.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(authTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
