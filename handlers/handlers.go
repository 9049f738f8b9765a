package handlers

import (
	"context"
	"net/http"

	"github.com/farmersheaven/backend/middleware"
	"github.com/farmersheaven/backend/permissions"
	"github.com/farmersheaven/backend/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// decodeAndValidate decodes the JSON body into dst and validates it.
// On failure the response has been written and false is returned.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	if err := utils.DecodeJSON(r, dst); err != nil {
		logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return false
	}

	if err := utils.ValidateStruct(dst); err != nil {
		logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

// pathID parses the chi URL parameter name as a UUID
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(chi.URLParam(r, name), name)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return uuid.Nil, false
	}
	return id, true
}

// currentUserID returns the authenticated user id, or false for anonymous requests
func currentUserID(r *http.Request) (uuid.UUID, bool) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if !principal.Authenticated {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(principal.ID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ObjectChecker evaluates object-level permissions and writes the denial
type ObjectChecker interface {
	CheckObject(w http.ResponseWriter, r *http.Request, resource, action string, target any) bool
}

// loadObject fetches the record behind id and runs the object-level check of
// resource.action against it. objects may be nil. On failure the response has
// been written and false is returned.
func loadObject[T any](w http.ResponseWriter, r *http.Request, objects ObjectChecker, logger *zap.Logger,
	resource, action string, id uuid.UUID, get func(context.Context, uuid.UUID) (T, error)) (T, bool) {
	var zero T
	obj, err := get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, logger)
		return zero, false
	}
	if objects != nil && !objects.CheckObject(w, r, resource, action, obj) {
		return zero, false
	}
	return obj, true
}

// updateAction names the action of a PUT or PATCH request
func updateAction(r *http.Request) string {
	if r.Method == http.MethodPatch {
		return permissions.ActionPartialUpdate
	}
	return permissions.ActionUpdate
}
