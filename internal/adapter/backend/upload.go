package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/theyashgrover/gpt-clone/internal/attachment"
	"github.com/theyashgrover/gpt-clone/internal/domain"
)

// DetectType returns the media type of the file at path without parameters.
func DetectType(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	mediaType, _, err := mime.ParseMediaType(mt.String())
	if err != nil {
		return "", err
	}
	return mediaType, nil
}

// Upload sends the file at path to /api/upload. The file is checked against
// the attachment rules first, so disallowed files never reach the network.
func (c *Client) Upload(ctx context.Context, path string) (domain.FileAttachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.FileAttachment{}, err
	}
	if info.IsDir() {
		return domain.FileAttachment{}, fmt.Errorf("%s is a directory", path)
	}
	mediaType, err := DetectType(path)
	if err != nil {
		return domain.FileAttachment{}, fmt.Errorf("failed to detect file type: %w", err)
	}
	if err := attachment.Validate(mediaType, info.Size()); err != nil {
		return domain.FileAttachment{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.FileAttachment{}, err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
		hdr.Set("Content-Type", mediaType)
		part, err := mw.CreatePart(hdr)
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		pr.Close()
		return domain.FileAttachment{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.FileAttachment{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.FileAttachment{}, readStatusError(resp)
	}
	var out domain.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.FileAttachment{}, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return out.Attachment, nil
}
