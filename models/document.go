package models

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UploadedDocument is the metadata of a stored file
type UploadedDocument struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Model       string     `json:"model" db:"model"`
	Path        string     `json:"path" db:"path"`
	ContentType string     `json:"content_type" db:"content_type"`
	Size        int64      `json:"size" db:"size"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the UploadedDocument model
func (UploadedDocument) TableName() string {
	return "uploaded_documents"
}

// NewUploadedDocument creates document metadata for a stored file
func NewUploadedDocument(name, model, storedPath, contentType string, size int64) *UploadedDocument {
	now := time.Now()
	return &UploadedDocument{
		ID:          uuid.New(),
		Name:        name,
		Model:       model,
		Path:        storedPath,
		ContentType: contentType,
		Size:        size,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// OwnerID returns the uploader of the document
func (d *UploadedDocument) OwnerID() string {
	if d == nil || d.CreatedBy == nil {
		return ""
	}
	return d.CreatedBy.String()
}

// UploadPath builds the storage key <prefix>/<model>/<token>_<filename>.
// Directory components of filename are dropped.
func UploadPath(prefix, model, filename, token string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "file"
	}
	model = strings.Trim(strings.ToLower(model), "/")
	if model == "" {
		model = "general"
	}
	return path.Join(prefix, model, token+"_"+name)
}
