package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// apiError is the error body shared by the OpenAI and Anthropic APIs.
type apiError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// eventHandler receives the payload of each "data:" line. Returning done
// ends the stream without error.
type eventHandler func(data []byte) (done bool, err error)

// doSSE sends req and feeds each server-sent event payload to handle until
// the body ends, handle reports done, or ctx is cancelled.
func doSSE(ctx context.Context, client *http.Client, req *http.Request, provider string, handle eventHandler) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != nil {
			return fmt.Errorf("%s API error [%d]: %s (type: %s)", provider, resp.StatusCode, apiErr.Error.Message, apiErr.Error.Type)
		}
		return fmt.Errorf("%s API error [%d]: %s", provider, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	reader := bufio.NewReader(resp.Body)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := reader.ReadString('\n')
		if err == io.EOF && line == "" {
			return nil
		}
		if err != nil && err != io.EOF {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read stream: %w", err)
		}

		// Event names and comments carry nothing the payload doesn't.
		data, ok := strings.CutPrefix(strings.TrimSpace(line), "data:")
		if ok {
			done, herr := handle([]byte(strings.TrimSpace(data)))
			if herr != nil || done {
				return herr
			}
		}
		if err == io.EOF {
			return nil
		}
	}
}
