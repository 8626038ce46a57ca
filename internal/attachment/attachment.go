// Package attachment holds the upload rules shared by the client and the server.
package attachment

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/theyashgrover/gpt-clone/internal/domain"
)

// MaxFileSize is the largest accepted upload in bytes.
const MaxFileSize int64 = 10 * 1024 * 1024

var (
	ErrNoFile         = errors.New("No file provided")
	ErrTypeNotAllowed = errors.New("File type not allowed")
	ErrTooLarge       = errors.New("File size too large. Maximum size is 10MB")
	ErrUploadFailed   = errors.New("Failed to upload file")
)

// ImageTypes are the accepted image MIME types.
var ImageTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
}

// DocumentTypes are the accepted document MIME types.
var DocumentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
	"text/csv",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// AllowedTypes returns every accepted MIME type.
func AllowedTypes() []string {
	return append(append([]string(nil), ImageTypes...), DocumentTypes...)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// IsAllowed reports whether the MIME type is on the allow-list.
func IsAllowed(mimeType string) bool {
	return contains(ImageTypes, mimeType) || contains(DocumentTypes, mimeType)
}

// Validate checks type first, then size.
func Validate(mimeType string, size int64) error {
	if !IsAllowed(mimeType) {
		return ErrTypeNotAllowed
	}
	if size > MaxFileSize {
		return ErrTooLarge
	}
	return nil
}

// ResourceKindFor maps a MIME type to the media host's resource kind.
func ResourceKindFor(mimeType string) domain.ResourceKind {
	switch {
	case contains(ImageTypes, mimeType):
		return domain.ResourceKindImage
	case strings.HasPrefix(mimeType, "video/"):
		return domain.ResourceKindVideo
	default:
		return domain.ResourceKindRaw
	}
}

// Stored is what the media host reports after a successful upload.
type Stored struct {
	URL          string
	PublicID     string
	ResourceType domain.ResourceKind
}

// New builds the attachment record for a stored file.
func New(name, mimeType string, size int64, stored Stored) domain.FileAttachment {
	return domain.FileAttachment{
		ID:           uuid.New().String(),
		Name:         name,
		Type:         mimeType,
		Size:         size,
		URL:          stored.URL,
		PublicID:     stored.PublicID,
		ResourceType: stored.ResourceType,
	}
}
