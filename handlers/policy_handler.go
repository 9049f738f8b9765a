package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/farmersheaven/backend/middleware"
	"github.com/farmersheaven/backend/permissions"
	"github.com/farmersheaven/backend/services"
	"github.com/farmersheaven/backend/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// syntheticPrincipalID identifies the principal of a dry-run evaluation
const syntheticPrincipalID = "policy-check"

// PolicyResponse describes one resource policy
type PolicyResponse struct {
	Resource string            `json:"resource"`
	Global   string            `json:"global,omitempty"`
	Enough   string            `json:"enough,omitempty"`
	Actions  map[string]string `json:"actions"`
}

// CheckPolicyRequest describes a hypothetical request to evaluate
type CheckPolicyRequest struct {
	Resource      string            `json:"resource" validate:"required"`
	Action        string            `json:"action" validate:"required"`
	Method        string            `json:"method"`
	Query         map[string]string `json:"query"`
	Authenticated bool              `json:"authenticated"`
	SuperUser     bool              `json:"superuser"`
}

// CheckPolicyResponse is the outcome of an evaluation
type CheckPolicyResponse struct {
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Expression string `json:"expression"`
	Allowed    bool   `json:"allowed"`
}

// PolicyHandler exposes the loaded permission registry read-only
type PolicyHandler struct {
	registry *permissions.Registry
	logger   *zap.Logger
}

// NewPolicyHandler creates a new PolicyHandler
func NewPolicyHandler(registry *permissions.Registry, logger *zap.Logger) *PolicyHandler {
	return &PolicyHandler{
		registry: registry,
		logger:   logger,
	}
}

func describePolicy(p *permissions.Policy) PolicyResponse {
	resp := PolicyResponse{
		Resource: p.Name(),
		Actions:  make(map[string]string),
	}
	if p.Global() != nil {
		resp.Global = permissions.Render(p.Global())
	}
	if p.Enough() != nil {
		resp.Enough = permissions.Render(p.Enough())
	}
	for _, action := range p.Actions() {
		expr, err := p.Expression(action)
		if err != nil {
			continue
		}
		resp.Actions[action] = permissions.Render(expr)
	}
	return resp
}

// HandleListPolicies handles GET /permissions
func (h *PolicyHandler) HandleListPolicies(w http.ResponseWriter, r *http.Request) {
	names := h.registry.Names()
	policies := make([]PolicyResponse, 0, len(names))
	for _, name := range names {
		p, err := h.registry.Lookup(name)
		if err != nil {
			continue
		}
		policies = append(policies, describePolicy(p))
	}

	h.logger.Debug("listed policies",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.Int("count", len(policies)))
	_ = utils.WriteOK(w, policies)
}

// HandleGetPolicy handles GET /permissions/{resource}
func (h *PolicyHandler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := h.registry.Lookup(chi.URLParam(r, "resource"))
	if err != nil {
		_ = utils.WriteNotFound(w, "policy not found")
		return
	}
	_ = utils.WriteOK(w, describePolicy(p))
}

// HandleCheckPolicy handles POST /permissions/check. It evaluates the
// action-level rule for a synthetic principal without side effects.
func (h *PolicyHandler) HandleCheckPolicy(w http.ResponseWriter, r *http.Request) {
	var req CheckPolicyRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	p, err := h.registry.Lookup(req.Resource)
	if err != nil {
		_ = utils.WriteNotFound(w, "policy not found")
		return
	}
	expr, err := p.Expression(req.Action)
	if err != nil {
		HandleServiceError(w, services.Validation("action is not declared by the policy"), h.logger)
		return
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	query := url.Values{}
	for k, v := range req.Query {
		query.Set(k, v)
	}
	principal := permissions.Anonymous()
	if req.Authenticated || req.SuperUser {
		principal = permissions.Principal{ID: syntheticPrincipalID, Authenticated: true, SuperUser: req.SuperUser}
	}

	allowed := expr.HasPermission(&permissions.Request{
		Principal: principal,
		Method:    method,
		Query:     query,
	})
	_ = utils.WriteOK(w, CheckPolicyResponse{
		Resource:   req.Resource,
		Action:     req.Action,
		Expression: permissions.Render(expr),
		Allowed:    allowed,
	})
}
