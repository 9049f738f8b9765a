package handlers

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/farmersheaven/backend/middleware"
	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/permissions"
	"github.com/farmersheaven/backend/services/audit"
	"github.com/farmersheaven/backend/services/documents"
	"github.com/farmersheaven/backend/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// multipartMemory bounds the in-memory part of a multipart upload
const multipartMemory = 8 << 20

// DocumentService defines the document operations exposed over HTTP
type DocumentService interface {
	Upload(ctx context.Context, actor documents.Actor, name, model, filename string, r io.Reader) (*models.UploadedDocument, error)
	CreateWithBase64(ctx context.Context, actor documents.Actor, in documents.Base64Input) (*models.UploadedDocument, error)
	Multiple(ctx context.Context, actor documents.Actor, model, images string) ([]*models.UploadedDocument, error)
	Get(ctx context.Context, id uuid.UUID) (*models.UploadedDocument, error)
	List(ctx context.Context, model string, limit, offset int) ([]*models.UploadedDocument, int, error)
	Update(ctx context.Context, actor documents.Actor, id uuid.UUID, in documents.UpdateInput) (*models.UploadedDocument, error)
	Delete(ctx context.Context, actor documents.Actor, id uuid.UUID) error
	Download(ctx context.Context, storedPath string) (*models.UploadedDocument, io.ReadCloser, error)
	PresignedURL(ctx context.Context, file, fileType string) (string, error)
}

// MultipleRequest is the body of POST /uploads/multiple
type MultipleRequest struct {
	Model  string `json:"model" validate:"max=100"`
	Images string `json:"images" validate:"required"`
}

// PresignedURLRequest is the body of the presigned URL endpoints
type PresignedURLRequest struct {
	File     string `json:"file"`
	FileType string `json:"file_type"`
}

// DocumentHandler handles the uploads endpoints
type DocumentHandler struct {
	documents DocumentService
	objects   ObjectChecker
	logger    *zap.Logger
}

// NewDocumentHandler creates a new DocumentHandler. objects may be nil.
func NewDocumentHandler(documents DocumentService, objects ObjectChecker, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		objects:   objects,
		logger:    logger,
	}
}

func documentActor(r *http.Request) documents.Actor {
	return documents.Actor{
		ID:   middleware.GetPrincipalFromContext(r.Context()).ID,
		Meta: audit.MetaFromRequest(r),
	}
}

func (h *DocumentHandler) load(w http.ResponseWriter, r *http.Request, action string, id uuid.UUID) (*models.UploadedDocument, bool) {
	return loadObject(w, r, h.objects, h.logger, permissions.ResourceDocuments, action, id, h.documents.Get)
}

// HandleList handles GET /uploads?model=
func (h *DocumentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r)
	items, total, err := h.documents.List(r.Context(), r.URL.Query().Get("model"), page.Limit(), page.Offset())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WritePage(w, page, total, items)
}

// HandleGet handles GET /uploads/{id}
func (h *DocumentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	doc, ok := h.load(w, r, permissions.ActionRetrieve, id)
	if !ok {
		return
	}
	_ = utils.WriteOK(w, doc)
}

// HandleCreate handles POST /uploads as multipart/form-data with a file part
// and optional name and model fields
func (h *DocumentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		_ = utils.WriteBadRequest(w, "Expected a multipart form with a file", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		_ = utils.WriteBadRequest(w, "Please provide the file!", nil)
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	doc, err := h.documents.Upload(r.Context(), documentActor(r), name, r.FormValue("model"), header.Filename, file)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("document uploaded",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("document_id", doc.ID.String()),
		zap.Int64("size", doc.Size))
	_ = utils.WriteCreated(w, doc)
}

// HandleCreateWithBase64 handles POST /uploads/create_with_base64
func (h *DocumentHandler) HandleCreateWithBase64(w http.ResponseWriter, r *http.Request) {
	var req documents.Base64Input
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	doc, err := h.documents.CreateWithBase64(r.Context(), documentActor(r), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, doc)
}

// HandleMultiple handles POST /uploads/multiple
func (h *DocumentHandler) HandleMultiple(w http.ResponseWriter, r *http.Request) {
	var req MultipleRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	docs, err := h.documents.Multiple(r.Context(), documentActor(r), req.Model, req.Images)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, docs)
}

// HandlePresignedURL handles POST /uploads/presigned_url and /uploads/onboard_presigned_url
func (h *DocumentHandler) HandlePresignedURL(w http.ResponseWriter, r *http.Request) {
	var req PresignedURLRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	url, err := h.documents.PresignedURL(r.Context(), req.File, req.FileType)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, map[string]string{"url": url})
}

// HandleDownload handles GET /uploads/download_file?path=
func (h *DocumentHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	doc, rc, err := h.documents.Download(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	defer rc.Close()

	if doc.ContentType != "" {
		w.Header().Set("Content-Type", doc.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if doc.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": path.Base(doc.Path),
	}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream document",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("path", doc.Path),
			zap.Error(err))
	}
}

// HandleUpdate handles PUT and PATCH /uploads/{id}
func (h *DocumentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req documents.UpdateInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	if _, ok := h.load(w, r, updateAction(r), id); !ok {
		return
	}

	doc, err := h.documents.Update(r.Context(), documentActor(r), id, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, doc)
}

// HandleDelete handles DELETE /uploads/{id}
func (h *DocumentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if _, ok := h.load(w, r, permissions.ActionDestroy, id); !ok {
		return
	}

	if err := h.documents.Delete(r.Context(), documentActor(r), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
