package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/permissions"
	"github.com/farmersheaven/backend/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockActivityService is a mock implementation of ActivityService
type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) Get(ctx context.Context, id uuid.UUID) (*models.ActivityLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActivityLog), args.Error(1)
}

func (m *MockActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]*models.ActivityLog, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ActivityLog), args.Error(1)
}

func TestActivityHandleList(t *testing.T) {
	logger := zap.NewNop()

	t.Run("applies filters", func(t *testing.T) {
		svc := new(MockActivityService)
		handler := NewActivityHandler(svc, nil, logger)

		userID := uuid.New()
		since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		svc.On("List", mock.Anything, mock.MatchedBy(func(f models.ActivityFilter) bool {
			return f.Category == models.CategorySecurity &&
				f.ActionType == models.ActivityAccessDenied &&
				f.UserID != nil && *f.UserID == userID &&
				f.Since != nil && f.Since.Equal(since) &&
				f.Limit == 10 && f.Offset == 0
		})).Return([]*models.ActivityLog{
			models.NewActivityLog(models.CategorySecurity, models.ActivityAccessDenied, "users.list"),
		}, nil)

		url := "/fh-api/v1/activity_logs?category=security&action_type=" + string(models.ActivityAccessDenied) +
			"&user_id=" + userID.String() + "&since=2026-01-02T03:04:05Z"
		req := httptest.NewRequest(http.MethodGet, url, nil)
		w := httptest.NewRecorder()

		handler.HandleList(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeSuccess(t, w).Data, 1)
		svc.AssertExpectations(t)
	})

	t.Run("rejects a malformed since", func(t *testing.T) {
		svc := new(MockActivityService)
		handler := NewActivityHandler(svc, nil, logger)

		req := httptest.NewRequest(http.MethodGet, "/fh-api/v1/activity_logs?since=yesterday", nil)
		w := httptest.NewRecorder()

		handler.HandleList(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "List")
	})
}

func TestActivityHandleGet(t *testing.T) {
	svc := new(MockActivityService)
	handler := NewActivityHandler(svc, nil, zap.NewNop())

	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(nil, services.ErrActivityNotFound)

	req := httptest.NewRequest(http.MethodGet, "/fh-api/v1/activity_logs/"+id.String(), nil)
	w := httptest.NewRecorder()

	handler.HandleGet(w, withURLParam(req, "id", id.String()))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "activity log not found", decodeError(t, w).Message)
}

func TestActivityObjectPermissions(t *testing.T) {
	policy := policyFromYAML(t, `
policies:
  activity_logs:
    enough: IsSuperUser
    actions:
      metadata: null
      list: null
      retrieve: IsObjectOwner
`)

	subject := uuid.New()
	entry := models.NewActivityLog(models.CategoryAccounts, models.ActivityUpdate, "profile").WithUser(subject)

	tests := []struct {
		name           string
		caller         permissions.Principal
		expectedStatus int
	}{
		{"subject reads the entry", permissions.Principal{ID: subject.String(), Authenticated: true}, http.StatusOK},
		{"another member", permissions.Principal{ID: uuid.NewString(), Authenticated: true}, http.StatusForbidden},
		{"superuser", permissions.Principal{ID: uuid.NewString(), Authenticated: true, SuperUser: true}, http.StatusOK},
		{"anonymous caller", permissions.Anonymous(), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockActivityService)
			handler := NewActivityHandler(svc, policy, zap.NewNop())
			svc.On("Get", mock.Anything, entry.ID).Return(entry, nil)

			req := httptest.NewRequest(http.MethodGet, "/fh-api/v1/activity_logs/"+entry.ID.String(), nil)
			w := httptest.NewRecorder()

			handler.HandleGet(w, withURLParam(withPrincipal(req, tt.caller), "id", entry.ID.String()))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
