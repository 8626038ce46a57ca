package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theyashgrover/gpt-clone/internal/attachment"
	"github.com/theyashgrover/gpt-clone/internal/domain"
)

func chatRequest(content string) *domain.CompletionRequest {
	return &domain.CompletionRequest{Messages: []domain.CompletionMessage{{Role: domain.RoleUser, Content: content}}}
}

func TestStreamChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req domain.CompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hi", req.Messages[0].Content)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		flusher := w.(http.Flusher)
		// "é" is split across two writes.
		for _, part := range [][]byte{[]byte("Hel"), []byte("lo \xc3"), []byte("\xa9!")} {
			w.Write(part)
			flusher.Flush()
			time.Sleep(10 * time.Millisecond)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	var chunks []string
	err := client.StreamChat(context.Background(), chatRequest("hi"), func(s string) error {
		chunks = append(chunks, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello é!", strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %q split a character", c)
	}
}

func TestStreamChatStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to process request"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	called := false
	err := client.StreamChat(context.Background(), chatRequest("hi"), func(string) error {
		called = true
		return nil
	})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "Failed to process request", statusErr.Message)
	assert.False(t, called)
}

func TestStreamChatCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(server.URL, 5*time.Second)
	var got strings.Builder
	err := client.StreamChat(ctx, chatRequest("hi"), func(s string) error {
		got.WriteString(s)
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "partial", got.String())
}

func TestUTF8Decoder(t *testing.T) {
	var d utf8Decoder
	emoji := []byte("😀")

	assert.Equal(t, "a", d.decode([]byte{'a', emoji[0]}))
	assert.Equal(t, "", d.decode(emoji[1:3]))
	assert.Equal(t, "😀b", d.decode(append([]byte{emoji[3]}, 'b')))
	assert.Equal(t, "", d.flush())

	d.decode([]byte{0xe2, 0x82})
	assert.Equal(t, "\xe2\x82", d.flush())
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestUploadRejectsBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()
	client := NewClient(server.URL, 5*time.Second)

	zip := writeFile(t, "archive.zip", []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00"))
	_, err := client.Upload(context.Background(), zip)
	assert.ErrorIs(t, err, attachment.ErrTypeNotAllowed)

	big := make([]byte, 15*1024*1024)
	copy(big, pngHeader)
	_, err = client.Upload(context.Background(), writeFile(t, "big.png", big))
	assert.ErrorIs(t, err, attachment.ErrTooLarge)

	assert.Zero(t, hits.Load())
}

func TestUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)

		assert.Equal(t, "cat.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.UploadResponse{Attachment: domain.FileAttachment{
			ID:           "att-1",
			Name:         header.Filename,
			Type:         header.Header.Get("Content-Type"),
			Size:         int64(len(data)),
			URL:          "https://res.example/cat.png",
			PublicID:     "chatgpt-clone/cat",
			ResourceType: domain.ResourceKindImage,
		}})
	}))
	defer server.Close()

	path := writeFile(t, "cat.png", append(append([]byte(nil), pngHeader...), make([]byte, 64)...))
	att, err := NewClient(server.URL, 5*time.Second).Upload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "att-1", att.ID)
	assert.Equal(t, "cat.png", att.Name)
	assert.Equal(t, int64(len(pngHeader)+64), att.Size)
	assert.Equal(t, domain.ResourceKindImage, att.ResourceType)
}

func TestUploadServerRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"File type not allowed"}`))
	}))
	defer server.Close()

	path := writeFile(t, "notes.txt", []byte("plain notes\n"))
	_, err := NewClient(server.URL, 5*time.Second).Upload(context.Background(), path)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Equal(t, "File type not allowed", statusErr.Message)
}

func TestDetectType(t *testing.T) {
	mt, err := DetectType(writeFile(t, "notes.txt", []byte("plain notes\n")))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mt)

	mt, err = DetectType(writeFile(t, "img.png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)
}

func wsServer(t *testing.T, handle func(conn *websocket.Conn, req *domain.CompletionRequest)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/ws", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var f domain.Frame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		assert.Equal(t, domain.FrameChat, f.Type)
		handle(conn, f.Request)
	}))
}

func TestWSStreamChat(t *testing.T) {
	server := wsServer(t, func(conn *websocket.Conn, req *domain.CompletionRequest) {
		assert.Equal(t, "hi", req.Messages[0].Content)
		conn.WriteJSON(domain.Frame{Type: domain.FrameDelta, Content: "Hel"})
		conn.WriteJSON(domain.Frame{Type: domain.FrameDelta, Content: "lo"})
		conn.WriteJSON(domain.Frame{Type: domain.FrameDone})
	})
	defer server.Close()

	var got strings.Builder
	err := NewWSClient(server.URL, time.Second).StreamChat(context.Background(), chatRequest("hi"), func(s string) error {
		got.WriteString(s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.String())
}

func TestWSStreamChatErrorFrame(t *testing.T) {
	server := wsServer(t, func(conn *websocket.Conn, _ *domain.CompletionRequest) {
		conn.WriteJSON(domain.Frame{Type: domain.FrameError, Message: "Failed to process request"})
	})
	defer server.Close()

	err := NewWSClient(server.URL, time.Second).StreamChat(context.Background(), chatRequest("hi"), func(string) error { return nil })
	assert.ErrorIs(t, err, ErrServer)
	assert.Contains(t, err.Error(), "Failed to process request")
}

func TestWSStreamChatCancel(t *testing.T) {
	server := wsServer(t, func(conn *websocket.Conn, _ *domain.CompletionRequest) {
		conn.WriteJSON(domain.Frame{Type: domain.FrameDelta, Content: "partial"})
		var f domain.Frame
		_ = conn.ReadJSON(&f)
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := NewWSClient(server.URL, time.Second).StreamChat(ctx, chatRequest("hi"), func(string) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewWSClientURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/api/chat/ws", NewWSClient("http://localhost:8080/", time.Second).url)
	assert.Equal(t, "wss://chat.example.com/api/chat/ws", NewWSClient("https://chat.example.com", time.Second).url)
}
