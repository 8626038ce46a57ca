package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/theyashgrover/gpt-clone/internal/attachment"
	"github.com/theyashgrover/gpt-clone/internal/domain"
)

// Cloudinary uploads files through the Cloudinary SDK.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary creates a Cloudinary host. All three credentials are required.
func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, ErrNotConfigured
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Cloudinary{cld: cld, folder: folder}, nil
}

// SetUploadPrefix points uploads at another API host.
func (c *Cloudinary) SetUploadPrefix(prefix string) {
	c.cld.Config.API.UploadPrefix = strings.TrimSuffix(prefix, "/")
}

// Upload stores file under the configured folder, keeping a unique variant of its filename.
func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, params UploadParams) (attachment.Stored, error) {
	kind := params.Kind
	if kind == "" {
		kind = domain.ResourceKindAuto
	}
	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:           c.folder,
		ResourceType:     string(kind),
		FilenameOverride: params.Filename,
		UseFilename:      api.Bool(true),
		UniqueFilename:   api.Bool(true),
	})
	if err != nil {
		return attachment.Stored{}, fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if resp.Error.Message != "" {
		return attachment.Stored{}, fmt.Errorf("cloudinary upload failed: %s", resp.Error.Message)
	}
	return attachment.Stored{
		URL:          resp.SecureURL,
		PublicID:     resp.PublicID,
		ResourceType: domain.ResourceKind(resp.ResourceType),
	}, nil
}
