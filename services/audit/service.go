package audit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/farmersheaven/backend/services"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned when recording before Start or after Stop
	ErrNotStarted = errors.New("activity service not running")

	// ErrBufferFull is returned when the event buffer cannot take more entries
	ErrBufferFull = errors.New("activity buffer full")
)

// RequestMeta is the request context copied onto every entry
type RequestMeta struct {
	RequestID string
	IPAddress string
	UserAgent string
}

// MetaFromRequest extracts RequestMeta from an inbound request
func MetaFromRequest(r *http.Request) RequestMeta {
	if r == nil {
		return RequestMeta{}
	}
	return RequestMeta{
		RequestID: middleware.GetReqID(r.Context()),
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
}

// Service writes activity logs asynchronously through a pool of workers
type Service struct {
	repo        repositories.ActivityRepository
	logger      *zap.Logger
	events      chan *models.ActivityLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	mu          sync.RWMutex
	started     bool
	stopped     bool
}

// Config holds configuration for the Service
type Config struct {
	BufferSize  int
	WorkerCount int
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  4096,
		WorkerCount: 4,
	}
}

// NewService creates a new Service instance
func NewService(repo repositories.ActivityRepository, logger *zap.Logger, config Config) *Service {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.BufferSize < 0 {
		config.BufferSize = 0
	}
	return &Service{
		repo:        repo,
		logger:      logger,
		events:      make(chan *models.ActivityLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("activity service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started activity service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))
	return nil
}

// Stop stops accepting entries and waits for queued ones to be written
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.stopped = true
	pending := len(s.events)
	close(s.events)
	s.mu.Unlock()

	s.logger.Info("stopping activity service", zap.Int("pending_events", pending))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("activity service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("activity service stop timeout after %v", timeout)
	}
}

// Record queues an entry without blocking
func (s *Service) Record(log *models.ActivityLog) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || s.stopped {
		return ErrNotStarted
	}

	select {
	case s.events <- log:
		return nil
	default:
		s.logger.Warn("activity buffer full, dropping entry",
			zap.String("category", log.Category),
			zap.String("action", string(log.ActionType)))
		return ErrBufferFull
	}
}

// RecordBlocking queues an entry, waiting for buffer space until ctx is done
func (s *Service) RecordBlocking(ctx context.Context, log *models.ActivityLog) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || s.stopped {
		return ErrNotStarted
	}

	select {
	case s.events <- log:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) worker(id int) {
	defer s.wg.Done()

	for log := range s.events {
		if err := s.write(log); err != nil {
			s.logger.Error("failed to write activity log",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("category", log.Category),
				zap.String("action", string(log.ActionType)))
		}
	}
}

func (s *Service) write(log *models.ActivityLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.repo.Insert(ctx, log)
}

// Stats represents activity service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}

// GetStats returns statistics about the service
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.events),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
	}
}

// Get returns a stored entry
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.ActivityLog, error) {
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrActivityNotFound
		}
		return nil, services.WrapInternal("failed to load activity log", err)
	}
	return log, nil
}

// List returns stored entries, newest first
func (s *Service) List(ctx context.Context, filter models.ActivityFilter) ([]*models.ActivityLog, error) {
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, services.WrapInternal("failed to list activity logs", err)
	}
	return logs, nil
}

// Convenience recorders. Failures to queue are logged, never returned to
// the request path. A nil Service records nothing.

func (s *Service) enqueue(log *models.ActivityLog) {
	if s == nil {
		return
	}
	if err := s.Record(log); err != nil {
		s.logger.Warn("activity not recorded",
			zap.Error(err),
			zap.String("category", log.Category),
			zap.String("action", string(log.ActionType)),
			zap.String("request_id", log.RequestID))
	}
}

func parseActor(id string) (uuid.UUID, bool) {
	if id == "" {
		return uuid.Nil, false
	}
	parsed, err := uuid.Parse(id)
	return parsed, err == nil
}

// Changed records a create, update or delete of a stored row
func (s *Service) Changed(meta RequestMeta, actorID string, action models.ActivityAction, table, subCategory, rowID string, previous, next interface{}, fields ...string) {
	log := models.NewActivityLog(categoryOf(table), action, rowID).
		WithTable(table, subCategory).
		WithChange(previous, next, fields...).
		WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)
	if actor, ok := parseActor(actorID); ok {
		log.WithRecorder(actor)
	}
	if table == "users" {
		if user, ok := parseActor(rowID); ok {
			log.WithUser(user)
		}
	}
	s.enqueue(log)
}

// Login records a sign in attempt. userID is empty when no account matched.
func (s *Service) Login(meta RequestMeta, userID, identifier string, success bool) {
	action := models.ActivityLogin
	if !success {
		action = models.ActivityLoginFailed
	}
	log := models.NewActivityLog(models.CategoryAccounts, action, identifier).
		WithTable("users", "login").
		WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)
	if user, ok := parseActor(userID); ok {
		log.WithUser(user).WithRecorder(user)
	}
	s.enqueue(log)
}

// PasswordReset records a completed password reset or change
func (s *Service) PasswordReset(meta RequestMeta, userID string) {
	log := models.NewActivityLog(models.CategoryAccounts, models.ActivityPasswordReset, userID).
		WithTable("users", "password").
		WithChange(nil, nil, "password").
		WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)
	if user, ok := parseActor(userID); ok {
		log.WithUser(user).WithRecorder(user)
	}
	s.enqueue(log)
}

// Denied records a refused permission check
func (s *Service) Denied(meta RequestMeta, principalID, resource, action string) {
	log := models.NewActivityLog(models.CategorySecurity, models.ActivityAccessDenied, resource+"."+action).
		WithTable("", resource).
		WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)
	if actor, ok := parseActor(principalID); ok {
		log.WithRecorder(actor)
	}
	s.enqueue(log)
}

// Misconfigured records a permission check that failed on policy configuration
func (s *Service) Misconfigured(meta RequestMeta, resource, action string, cause error) {
	log := models.NewActivityLog(models.CategorySecurity, models.ActivityMisconfigured, resource+"."+action).
		WithTable("", resource).
		WithChange(nil, map[string]string{"error": cause.Error()}).
		WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)
	s.enqueue(log)
}

func categoryOf(table string) string {
	switch table {
	case "users", "otp_logins":
		return models.CategoryAccounts
	case "uploaded_documents":
		return models.CategoryDocuments
	default:
		return models.CategorySettings
	}
}
