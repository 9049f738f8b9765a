package documents

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/farmersheaven/backend/config"
	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/farmersheaven/backend/services"
	"github.com/farmersheaven/backend/services/audit"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actor identifies who performs a change
type Actor struct {
	ID   string
	Meta audit.RequestMeta
}

func (a Actor) createdBy() *uuid.UUID {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return nil
	}
	return &id
}

// Base64Input is a single data URL upload
type Base64Input struct {
	Name  string `json:"name" validate:"max=255"`
	Model string `json:"model" validate:"max=100"`
	Image string `json:"image" validate:"required"`
}

// UpdateInput holds the writable metadata of a document
type UpdateInput struct {
	Name  *string `json:"name" validate:"omitempty,max=255"`
	Model *string `json:"model" validate:"omitempty,max=100"`
}

// multipleItem is one entry of a batch upload
type multipleItem struct {
	Data string `json:"data"`
	Path string `json:"path"`
}

// Service stores documents and their metadata
type Service struct {
	repo     repositories.DocumentRepository
	store    Store
	activity *audit.Service
	cfg      config.StorageConfig
	logger   *zap.Logger

	now   func() time.Time
	token func() string
}

// NewService creates a new Service
func NewService(repo repositories.DocumentRepository, store Store, activity *audit.Service, cfg config.StorageConfig, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		store:    store,
		activity: activity,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		token:    randomToken,
	}
}

// Upload stores r under a fresh key and records its metadata
func (s *Service) Upload(ctx context.Context, actor Actor, name, model, filename string, r io.Reader) (*models.UploadedDocument, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, services.Validation("file name is required")
	}
	if name = strings.TrimSpace(name); name == "" {
		name = path.Base(strings.ReplaceAll(filename, "\\", "/"))
	}

	// sniff the first bytes, then replay them ahead of the rest
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, services.WrapInternal("failed to read upload", err)
	}
	head = head[:n]
	contentType := detectContentType(filename, head)

	key := models.UploadPath(s.cfg.UploadPrefix, model, filename, s.token())
	size, err := s.store.Put(ctx, key, io.MultiReader(bytes.NewReader(head), r), s.cfg.MaxFileSize)
	if errors.Is(err, ErrTooLarge) {
		return nil, services.Validation(fmt.Sprintf("file exceeds the maximum size of %d bytes", s.cfg.MaxFileSize))
	}
	if err != nil {
		return nil, services.WrapInternal("failed to store document", err)
	}

	doc := models.NewUploadedDocument(name, model, key, contentType, size)
	doc.CreatedBy = actor.createdBy()
	if err := s.repo.Create(ctx, doc); err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("path", key), zap.Error(derr))
		}
		return nil, translate(err, "create document")
	}

	s.logger.Info("document stored",
		zap.String("document_id", doc.ID.String()),
		zap.String("path", key),
		zap.Int64("size", size))
	s.activity.Changed(actor.Meta, actor.ID, models.ActivityCreate, "uploaded_documents", "document", doc.ID.String(), nil, doc)
	return doc, nil
}

// CreateWithBase64 stores a data URL payload such as data:image/png;base64,....
// A bare base64 string is accepted as well and stored with a .bin extension.
func (s *Service) CreateWithBase64(ctx context.Context, actor Actor, in Base64Input) (*models.UploadedDocument, error) {
	ext, raw, err := splitDataURL(in.Image)
	if err != nil {
		return nil, err
	}
	data, err := decodeBase64(raw)
	if err != nil {
		return nil, services.ErrInvalidDocument
	}
	return s.Upload(ctx, actor, in.Name, in.Model, "temp."+ext, bytes.NewReader(data))
}

// Multiple stores a batch encoded as base64 of a JSON list of {data, path}.
// Entries missing either field are skipped.
func (s *Service) Multiple(ctx context.Context, actor Actor, model, images string) ([]*models.UploadedDocument, error) {
	payload, err := decodeBase64(images)
	if err != nil {
		return nil, services.ErrInvalidDocument
	}
	var items []multipleItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, services.ErrInvalidDocument
	}

	result := make([]*models.UploadedDocument, 0, len(items))
	for _, item := range items {
		if item.Data == "" || item.Path == "" {
			continue
		}
		data, err := decodeBase64(item.Data)
		if err != nil {
			return result, services.ErrInvalidDocument
		}
		name := path.Base(item.Path)
		doc, err := s.Upload(ctx, actor, name, model, name, bytes.NewReader(data))
		if err != nil {
			return result, err
		}
		result = append(result, doc)
	}
	return result, nil
}

// Get returns document metadata by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.UploadedDocument, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "get document")
	}
	return doc, nil
}

// List returns a page of documents, newest first, optionally for one model
func (s *Service) List(ctx context.Context, model string, limit, offset int) ([]*models.UploadedDocument, int, error) {
	items, total, err := s.repo.List(ctx, strings.TrimSpace(model), limit, offset)
	if err != nil {
		return nil, 0, services.WrapInternal("failed to list documents", err)
	}
	return items, total, nil
}

// Update changes the metadata of a document. The stored file is untouched.
func (s *Service) Update(ctx context.Context, actor Actor, id uuid.UUID, in UpdateInput) (*models.UploadedDocument, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *doc

	var changed []string
	if in.Name != nil && strings.TrimSpace(*in.Name) != doc.Name {
		doc.Name = strings.TrimSpace(*in.Name)
		changed = append(changed, "name")
	}
	if in.Model != nil && *in.Model != doc.Model {
		doc.Model = *in.Model
		changed = append(changed, "model")
	}
	if len(changed) == 0 {
		return doc, nil
	}
	doc.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, translate(err, "update document")
	}
	s.activity.Changed(actor.Meta, actor.ID, models.ActivityUpdate, "uploaded_documents", "document", doc.ID.String(), &previous, doc, changed...)
	return doc, nil
}

// Delete removes the metadata and then the stored file
func (s *Service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return translate(err, "delete document")
	}
	if err := s.store.Delete(ctx, doc.Path); err != nil {
		s.logger.Warn("failed to remove stored file",
			zap.String("document_id", id.String()),
			zap.String("path", doc.Path),
			zap.Error(err))
	}
	s.activity.Changed(actor.Meta, actor.ID, models.ActivityDelete, "uploaded_documents", "document", id.String(), doc, nil)
	return nil
}

// Download opens the file stored at storedPath. The caller closes the reader.
func (s *Service) Download(ctx context.Context, storedPath string) (*models.UploadedDocument, io.ReadCloser, error) {
	storedPath = strings.TrimSpace(storedPath)
	if storedPath == "" {
		return nil, nil, services.Validation("Please provide the path of the file!")
	}
	doc, err := s.repo.GetByPath(ctx, storedPath)
	if err != nil {
		return nil, nil, translate(err, "get document")
	}
	rc, err := s.store.Open(ctx, doc.Path)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, nil, services.ErrDocumentNotFound
	}
	if err != nil {
		return nil, nil, services.WrapInternal("failed to open document", err)
	}
	return doc, rc, nil
}

// PresignedURL would hand out a direct upload URL for object storage
func (s *Service) PresignedURL(ctx context.Context, file, fileType string) (string, error) {
	if strings.TrimSpace(file) == "" || strings.TrimSpace(fileType) == "" {
		return "", services.Validation("Please provide name of the file")
	}
	return "", services.ErrNotImplemented
}

func translate(err error, action string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return services.ErrDocumentNotFound
	case errors.Is(err, repositories.ErrDuplicate):
		return services.ErrDuplicateRecord
	default:
		return services.WrapInternal("failed to "+action, err)
	}
}

// splitDataURL returns the file extension and base64 part of a data URL
func splitDataURL(value string) (string, string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", "", services.ErrInvalidDocument
	}
	header, data, ok := strings.Cut(value, ";base64,")
	if !ok {
		return "bin", value, nil
	}
	mediaType := strings.TrimPrefix(header, "data:")
	ext := mediaType[strings.LastIndex(mediaType, "/")+1:]
	if ext == "" || strings.ContainsAny(ext, "/\\. ") {
		return "", "", services.ErrInvalidDocument
	}
	return ext, data, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func detectContentType(filename string, head []byte) string {
	if ct := mime.TypeByExtension(path.Ext(filename)); ct != "" {
		return ct
	}
	return http.DetectContentType(head)
}

// randomToken returns six random digits
func randomToken() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}
