package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theyashgrover/gpt-clone/internal/attachment"
	"github.com/theyashgrover/gpt-clone/internal/conversation"
	"github.com/theyashgrover/gpt-clone/internal/domain"
	"github.com/theyashgrover/gpt-clone/internal/history"
	"github.com/theyashgrover/gpt-clone/internal/repository"
)

type echoStreamer struct {
	last *domain.CompletionRequest
}

func (s *echoStreamer) StreamChat(_ context.Context, req *domain.CompletionRequest, onChunk func(string) error) error {
	s.last = req
	if err := onChunk("echo: "); err != nil {
		return err
	}
	return onChunk(req.Messages[len(req.Messages)-1].Content)
}

type stubUploader struct {
	err error
}

func (u stubUploader) Upload(_ context.Context, path string) (domain.FileAttachment, error) {
	if u.err != nil {
		return domain.FileAttachment{}, u.err
	}
	return domain.FileAttachment{ID: "a1", Name: path, Type: "image/png", Size: 3, URL: "https://res.example/" + path}, nil
}

func newTestApp(t *testing.T, up uploader) (*app, *echoStreamer, *bytes.Buffer) {
	t.Helper()
	store, err := history.Open(context.Background(), repository.NewMemoryRecord(), zerolog.Nop(), history.WithSyncInterval(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	streamer := &echoStreamer{}
	out := &bytes.Buffer{}
	return newApp(store, conversation.New(store, streamer, zerolog.Nop()), up, out), streamer, out
}

func run(a *app, lines ...string) bool {
	interrupt := make(chan os.Signal)
	for _, line := range lines {
		if a.handle(context.Background(), line, interrupt) {
			return true
		}
	}
	return false
}

func TestSendPrintsReply(t *testing.T) {
	a, _, out := newTestApp(t, stubUploader{})

	assert.False(t, run(a, "hello there"))
	assert.Contains(t, out.String(), "echo: hello there")

	msgs := a.store.CurrentMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "echo: hello there", msgs[1].Content)
}

func TestChatCommands(t *testing.T) {
	a, _, out := newTestApp(t, stubUploader{})

	run(a, "first chat", "/new", "second chat")
	chats := a.store.Chats()
	require.Len(t, chats, 2)
	assert.Equal(t, "second chat", chats[0].Title)

	out.Reset()
	run(a, "/list")
	assert.Contains(t, out.String(), "*  1. second chat (2 messages)")
	assert.Contains(t, out.String(), "   2. first chat (2 messages)")

	run(a, "/switch 2")
	assert.Equal(t, chats[1].ID, a.store.CurrentChatID())

	run(a, "/rename 2 Renamed chat")
	assert.Equal(t, "Renamed chat", a.store.Chats()[1].Title)

	run(a, "/delete 2")
	require.Len(t, a.store.Chats(), 1)
	assert.Equal(t, chats[0].ID, a.store.CurrentChatID())

	out.Reset()
	run(a, "/switch 9")
	assert.Contains(t, out.String(), `No such chat: "9"`)

	run(a, "/clear")
	assert.Empty(t, a.store.Chats())
}

func TestAttachGoesWithNextMessage(t *testing.T) {
	a, streamer, out := newTestApp(t, stubUploader{})

	run(a, "/attach cat.png")
	assert.Contains(t, out.String(), "Attached cat.png")

	run(a, "look at this")
	msgs := a.store.CurrentMessages()
	require.Len(t, msgs[0].Attachments, 1)
	assert.Equal(t, "cat.png", msgs[0].Attachments[0].Name)
	assert.Equal(t, []domain.CompletionMessage{{Role: domain.RoleUser, Content: "look at this"}}, streamer.last.Messages)

	run(a, "and again")
	assert.Empty(t, a.store.CurrentMessages()[2].Attachments)
}

func TestAttachRejected(t *testing.T) {
	a, _, out := newTestApp(t, stubUploader{err: attachment.ErrTypeNotAllowed})

	run(a, "/attach archive.zip")
	assert.Contains(t, out.String(), "Upload failed: File type not allowed")
	assert.Empty(t, a.pending)
}

func TestQuit(t *testing.T) {
	a, _, _ := newTestApp(t, stubUploader{})
	assert.True(t, run(a, "/quit"))
	assert.False(t, run(a, "/unknown"))
}

func TestSendFailurePrintsErrorReply(t *testing.T) {
	store, err := history.Open(context.Background(), repository.NewMemoryRecord(), zerolog.Nop(), history.WithSyncInterval(0))
	require.NoError(t, err)
	defer store.Close(context.Background())

	out := &bytes.Buffer{}
	a := newApp(store, conversation.New(store, failingStreamer{}, zerolog.Nop()), stubUploader{}, out)
	run(a, "hi")
	assert.Contains(t, out.String(), conversation.ErrorReply+" (connection refused)")
}

type failingStreamer struct{}

func (failingStreamer) StreamChat(context.Context, *domain.CompletionRequest, func(string) error) error {
	return errors.New("connection refused")
}

// burstStreamer emits many one-byte chunks faster than a terminal prints them.
type burstStreamer struct {
	chunks int
}

func (s burstStreamer) StreamChat(_ context.Context, _ *domain.CompletionRequest, onChunk func(string) error) error {
	for i := 0; i < s.chunks; i++ {
		if err := onChunk(string(rune('a' + i%26))); err != nil {
			return err
		}
	}
	return nil
}

// slowWriter stalls every write so the subscriber falls behind the turn.
type slowWriter struct {
	bytes.Buffer
}

func (w *slowWriter) Write(p []byte) (int, error) {
	time.Sleep(50 * time.Microsecond)
	return w.Buffer.Write(p)
}

func TestSendPrintsWholeReplyWhenOutputLags(t *testing.T) {
	store, err := history.Open(context.Background(), repository.NewMemoryRecord(), zerolog.Nop(), history.WithSyncInterval(0), history.WithStreamThrottle(time.Hour))
	require.NoError(t, err)
	defer store.Close(context.Background())

	out := &slowWriter{}
	a := newApp(store, conversation.New(store, burstStreamer{chunks: 2000}, zerolog.Nop()), stubUploader{}, out)
	run(a, "go")

	msgs := store.CurrentMessages()
	require.Len(t, msgs, 2)
	require.Len(t, msgs[1].Content, 2000)
	assert.Equal(t, msgs[1].Content+"\n", out.String())
}

type blockingStreamer struct{}

func (blockingStreamer) StreamChat(ctx context.Context, _ *domain.CompletionRequest, _ func(string) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestInterruptBeforeTurnStartsStops(t *testing.T) {
	store, err := history.Open(context.Background(), repository.NewMemoryRecord(), zerolog.Nop(), history.WithSyncInterval(0))
	require.NoError(t, err)
	defer store.Close(context.Background())

	out := &bytes.Buffer{}
	a := newApp(store, conversation.New(store, blockingStreamer{}, zerolog.Nop()), stubUploader{}, out)

	interrupt := make(chan os.Signal, 1)
	interrupt <- os.Interrupt
	assert.False(t, a.handle(context.Background(), "never answered", interrupt))
	assert.Contains(t, out.String(), "[stopped]")

	msgs := store.CurrentMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "", msgs[1].Content)
}

func TestSearchCommand(t *testing.T) {
	a, _, out := newTestApp(t, stubUploader{})
	run(a, "Go generics", "/new", "dinner plans", "/new", "go routines")

	out.Reset()
	run(a, "/search GO")
	assert.Contains(t, out.String(), " 1. go routines (2 messages)")
	assert.Contains(t, out.String(), " 3. Go generics (2 messages)")
	assert.NotContains(t, out.String(), "dinner plans")

	out.Reset()
	run(a, "/search weather")
	assert.Contains(t, out.String(), `No chats match "weather".`)

	run(a, "/switch 3")
	assert.Equal(t, "Go generics", a.store.Chats()[2].Title)
	assert.Equal(t, a.store.Chats()[2].ID, a.store.CurrentChatID())
}

func TestDetachCommand(t *testing.T) {
	a, streamer, out := newTestApp(t, stubUploader{})
	run(a, "/attach one.png", "/attach two.png", "/attach three.png")

	out.Reset()
	run(a, "/detach 2")
	assert.Contains(t, out.String(), "Removed two.png.")
	assert.Contains(t, out.String(), "  1. one.png")
	assert.Contains(t, out.String(), "  2. three.png")

	out.Reset()
	run(a, "/detach 5")
	assert.Contains(t, out.String(), `No such attachment: "5"`)
	require.Len(t, a.pending, 2)

	run(a, "with two files")
	msgs := a.store.CurrentMessages()
	require.Len(t, msgs[0].Attachments, 2)
	assert.Equal(t, "one.png", msgs[0].Attachments[0].Name)
	assert.Equal(t, "three.png", msgs[0].Attachments[1].Name)
	assert.Equal(t, "with two files", streamer.last.Messages[0].Content)
	assert.Equal(t, "echo: with two files", msgs[1].Content)
	assert.Empty(t, a.pending)
}
