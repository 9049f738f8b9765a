package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	t.Run("json logger at debug", func(t *testing.T) {
		logger, err := NewLogger("debug", "json")
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("text logger respects level", func(t *testing.T) {
		logger, err := NewLogger("WARN", "text")
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := NewLogger("loud", "json")
		assert.Error(t, err)
	})
}

func TestWithRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	WithRequest(ctx, logger, zap.String("resource", "users")).Info("evaluated")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "users", fields["resource"])

	assert.Same(t, logger, WithRequest(context.Background(), logger))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := middleware.RequestID(RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fh-api/v1/users/me", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/boom", nil))

	require.Equal(t, 2, logs.Len())

	first := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, first.Level)
	assert.Equal(t, "/fh-api/v1/users/me", first.ContextMap()["path"])
	assert.EqualValues(t, http.StatusOK, first.ContextMap()["status"])
	assert.EqualValues(t, 2, first.ContextMap()["bytes"])
	assert.NotEmpty(t, first.ContextMap()["request_id"])

	second := logs.All()[1]
	assert.Equal(t, zapcore.ErrorLevel, second.Level)
	assert.EqualValues(t, http.StatusInternalServerError, second.ContextMap()["status"])
}
