// Package backend talks to the chat server from the terminal client.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/theyashgrover/gpt-clone/internal/domain"
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error! status: %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Code)
}

// Client calls the chat server over plain HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL. The timeout bounds
// a whole request, including a streamed response.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// StreamChat posts req to /api/chat and calls onChunk with each decoded piece
// of the plain-text reply. Multi-byte characters split across reads are held
// back until complete. Cancelling ctx aborts the read.
func (c *Client) StreamChat(ctx context.Context, req *domain.CompletionRequest, onChunk func(string) error) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp)
	}

	var dec utf8Decoder
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if text := dec.decode(buf[:n]); text != "" {
				if err := onChunk(text); err != nil {
					return err
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read stream: %w", readErr)
		}
	}
	if rest := dec.flush(); rest != "" {
		return onChunk(rest)
	}
	return nil
}

func readStatusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body domain.ErrorResponse
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	return &StatusError{Code: resp.StatusCode, Message: body.Error}
}

// utf8Decoder turns a byte stream into strings without splitting characters.
type utf8Decoder struct {
	pending []byte
}

func (d *utf8Decoder) decode(p []byte) string {
	buf := append(d.pending, p...)
	cut := len(buf)
	for i := 1; i <= utf8.UTFMax && i <= len(buf); i++ {
		if utf8.RuneStart(buf[len(buf)-i]) {
			if !utf8.FullRune(buf[len(buf)-i:]) {
				cut = len(buf) - i
			}
			break
		}
	}
	d.pending = append([]byte(nil), buf[cut:]...)
	return string(buf[:cut])
}

// flush returns whatever is still held back, even if incomplete.
func (d *utf8Decoder) flush() string {
	rest := string(d.pending)
	d.pending = nil
	return rest
}
