package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/permissions"
	"github.com/farmersheaven/backend/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityService reads the activity log
type ActivityService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.ActivityLog, error)
	List(ctx context.Context, filter models.ActivityFilter) ([]*models.ActivityLog, error)
}

// ActivityHandler serves the activity log to superusers
type ActivityHandler struct {
	activity ActivityService
	objects  ObjectChecker
	logger   *zap.Logger
}

// NewActivityHandler creates a new ActivityHandler. objects may be nil.
func NewActivityHandler(activity ActivityService, objects ObjectChecker, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		activity: activity,
		objects:  objects,
		logger:   logger,
	}
}

// HandleList handles GET /activity_logs?category=&action_type=&user_id=&since=
func (h *ActivityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := utils.ParsePage(r)

	userID, err := utils.ParseOptionalUUID(q.Get("user_id"), "user_id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	filter := models.ActivityFilter{
		Category:   q.Get("category"),
		ActionType: models.ActivityAction(q.Get("action_type")),
		UserID:     userID,
		Limit:      page.Limit(),
		Offset:     page.Offset(),
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			_ = utils.WriteBadRequest(w, "since must be an RFC 3339 timestamp", nil)
			return
		}
		filter.Since = &since
	}

	logs, err := h.activity.List(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, logs)
}

// HandleGet handles GET /activity_logs/{id}
func (h *ActivityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	log, ok := loadObject(w, r, h.objects, h.logger, permissions.ResourceActivityLogs, permissions.ActionRetrieve, id, h.activity.Get)
	if !ok {
		return
	}
	_ = utils.WriteOK(w, log)
}
