// Package media uploads attachment bytes to the third-party media host.
package media

import (
	"context"
	"errors"
	"io"

	"github.com/theyashgrover/gpt-clone/internal/attachment"
	"github.com/theyashgrover/gpt-clone/internal/domain"
)

// ErrNotConfigured is returned when no media host credentials are set.
var ErrNotConfigured = errors.New("media host not configured")

// UploadParams describes one upload.
type UploadParams struct {
	Filename string
	Kind     domain.ResourceKind
}

// Host stores a file and reports where it lives.
type Host interface {
	Upload(ctx context.Context, file io.Reader, params UploadParams) (attachment.Stored, error)
}

// Unconfigured rejects every upload.
type Unconfigured struct{}

func (Unconfigured) Upload(context.Context, io.Reader, UploadParams) (attachment.Stored, error) {
	return attachment.Stored{}, ErrNotConfigured
}
