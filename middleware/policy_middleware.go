package middleware

import (
	"net/http"

	"github.com/farmersheaven/backend/permissions"
	"github.com/farmersheaven/backend/services/audit"
	"github.com/farmersheaven/backend/utils"
	"go.uber.org/zap"
)

const (
	notAuthenticatedMessage = "Authentication credentials were not provided."
	permissionDeniedMessage = "You do not have permission to perform this action."
)

// PolicyEnforcementMiddleware evaluates resource policies for each request
type PolicyEnforcementMiddleware struct {
	registry *permissions.Registry
	activity *audit.Service
	logger   *zap.Logger
}

// NewPolicyEnforcementMiddleware creates a new PolicyEnforcementMiddleware.
// activity may be nil.
func NewPolicyEnforcementMiddleware(registry *permissions.Registry, activity *audit.Service, logger *zap.Logger) *PolicyEnforcementMiddleware {
	return &PolicyEnforcementMiddleware{
		registry: registry,
		activity: activity,
		logger:   logger,
	}
}

// Registry returns the policies being enforced
func (m *PolicyEnforcementMiddleware) Registry() *permissions.Registry {
	return m.registry
}

// Authorize is a middleware that runs the action-level check of resource.action.
// It must be mounted after Authenticate.
func (m *PolicyEnforcementMiddleware) Authorize(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.enforce(w, r, resource, action, nil) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CheckObject runs the object-level check of resource.action against target.
// When it returns false the response has already been written.
func (m *PolicyEnforcementMiddleware) CheckObject(w http.ResponseWriter, r *http.Request, resource, action string, target any) bool {
	return m.enforce(w, r, resource, action, target)
}

func (m *PolicyEnforcementMiddleware) enforce(w http.ResponseWriter, r *http.Request, resource, action string, target any) bool {
	ctx := r.Context()
	requestID := GetRequestIDFromContext(ctx)
	principal := GetPrincipalFromContext(ctx)

	allowed, err := m.registry.Evaluate(resource, action, permissions.NewRequest(r, principal), target)
	if err != nil {
		m.logger.Error("permission policy misconfigured",
			zap.String("request_id", requestID),
			zap.String("resource", resource),
			zap.String("action", action),
			zap.Error(err))
		m.activity.Misconfigured(audit.MetaFromRequest(r), resource, action, err)
		_ = utils.WriteInternalServerError(w, "Failed to evaluate permissions")
		return false
	}

	if !allowed {
		m.logger.Warn("request blocked by policy",
			zap.String("request_id", requestID),
			zap.String("resource", resource),
			zap.String("action", action),
			zap.String("user_id", principal.ID),
			zap.Bool("object_level", target != nil))
		m.activity.Denied(audit.MetaFromRequest(r), principal.ID, resource, action)

		if !principal.Authenticated {
			_ = utils.WriteUnauthorized(w, notAuthenticatedMessage)
		} else {
			_ = utils.WriteForbidden(w, permissionDeniedMessage)
		}
		return false
	}

	m.logger.Debug("policy enforcement passed",
		zap.String("request_id", requestID),
		zap.String("resource", resource),
		zap.String("action", action))
	return true
}
