package service

import (
	"context"
	"fmt"
	"io"

	"github.com/theyashgrover/gpt-clone/internal/adapter/media"
	"github.com/theyashgrover/gpt-clone/internal/attachment"
	"github.com/theyashgrover/gpt-clone/internal/domain"
	"github.com/theyashgrover/gpt-clone/policy"
)

// UploadFile describes an incoming upload.
type UploadFile struct {
	Name     string
	MimeType string
	Size     int64
	Content  io.Reader
}

// Upload validates the file against the upload policy and stores it with the
// media host. Policy rejections return attachment.ErrTypeNotAllowed or
// attachment.ErrTooLarge; host failures wrap attachment.ErrUploadFailed.
func (s *Service) Upload(ctx context.Context, f UploadFile) (domain.FileAttachment, error) {
	if err := s.policyEngine.CheckUpload(ctx, policy.UploadInput{
		MimeType: f.MimeType,
		Size:     f.Size,
		Name:     f.Name,
	}); err != nil {
		return domain.FileAttachment{}, err
	}

	kind := attachment.ResourceKindFor(f.MimeType)
	stored, err := s.host.Upload(ctx, f.Content, media.UploadParams{Filename: f.Name, Kind: kind})
	if err != nil {
		s.logger.Error().Err(err).Str("name", f.Name).Str("type", f.MimeType).Msg("upload failed")
		return domain.FileAttachment{}, fmt.Errorf("%w: %w", attachment.ErrUploadFailed, err)
	}
	if stored.ResourceType == "" {
		stored.ResourceType = kind
	}

	s.logger.Info().Str("name", f.Name).Str("public_id", stored.PublicID).Int64("size", f.Size).Msg("file uploaded")
	return attachment.New(f.Name, f.MimeType, f.Size, stored), nil
}
