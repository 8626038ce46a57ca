// Package history owns the chat history and mirrors it into a durable record.
//
// The in-memory copy is authoritative. Every mutation schedules a write of a
// full snapshot; content updates made while a response streams in are
// throttled, and a periodic job rewrites the snapshot regardless of activity.
// Write failures are logged and never surface to callers of mutations.
package history

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/theyashgrover/gpt-clone/internal/domain"
	"github.com/theyashgrover/gpt-clone/internal/repository"
)

// ErrNoCurrentChat is returned by AppendMessage when no chat is current.
var ErrNoCurrentChat = errors.New("no current chat")

const (
	DefaultMaxChats       = 20
	DefaultSyncInterval   = 20 * time.Second
	DefaultStreamThrottle = 700 * time.Millisecond
)

// Option configures a Store.
type Option func(*Store)

// WithKey sets the record key the history is stored under.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithMaxChats bounds the number of retained chats.
func WithMaxChats(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxChats = n
		}
	}
}

// MinSyncInterval is the shortest periodic rewrite interval the scheduler
// can honour; shorter positive intervals are raised to it.
const MinSyncInterval = time.Second

// WithSyncInterval sets the periodic rewrite interval. Zero disables it.
func WithSyncInterval(d time.Duration) Option {
	return func(s *Store) { s.syncInterval = d }
}

// WithStreamThrottle sets the delay before a content update is written.
func WithStreamThrottle(d time.Duration) Option {
	return func(s *Store) { s.throttle = d }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides chat id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Store is the persistence layer for chat history.
type Store struct {
	record       repository.Record
	key          string
	maxChats     int
	syncInterval time.Duration
	throttle     time.Duration
	now          func() time.Time
	newID        func() string
	logger       zerolog.Logger

	mu      sync.Mutex
	history domain.ChatHistory
	timer   *time.Timer
	saveDue time.Time
	closed  bool

	// writeMu orders durable writes by snapshot time.
	writeMu sync.Mutex
	cron    *cron.Cron
}

// Open creates a Store over rec and loads any persisted history.
func Open(ctx context.Context, rec repository.Record, logger zerolog.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		record:       rec,
		key:          repository.DefaultKey,
		maxChats:     DefaultMaxChats,
		syncInterval: DefaultSyncInterval,
		throttle:     DefaultStreamThrottle,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
		logger:       logger.With().Str("component", "history").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.load(ctx)

	if s.syncInterval > 0 && s.syncInterval < MinSyncInterval {
		s.logger.Warn().Dur("requested", s.syncInterval).Dur("effective", MinSyncInterval).Msg("sync interval raised to minimum")
		s.syncInterval = MinSyncInterval
	}
	if s.syncInterval > 0 {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc("@every "+s.syncInterval.String(), s.saveScheduled); err != nil {
			return nil, err
		}
		s.cron.Start()
	}
	return s, nil
}

// load reads the record. Missing or malformed data yields an empty history.
func (s *Store) load(ctx context.Context) {
	h := domain.ChatHistory{Chats: []domain.Chat{}}
	data, err := s.record.Load(ctx, s.key)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		s.logger.Warn().Err(err).Msg("failed to read chat history, starting empty")
	default:
		decoded, err := Decode(data)
		if err != nil {
			s.logger.Warn().Err(err).Msg("discarding malformed chat history")
		} else {
			h = decoded
		}
	}

	s.mu.Lock()
	s.history = normalize(h, s.maxChats)
	s.mu.Unlock()
	s.logger.Debug().Int("chats", len(h.Chats)).Msg("chat history loaded")
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// CreateChat prepends a new empty chat, evicting the oldest beyond the bound,
// and makes it current.
func (s *Store) CreateChat() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.createChatLocked()
	s.scheduleSaveLocked(0)
	return id
}

func (s *Store) createChatLocked() string {
	ts := s.nowMillis()
	chat := domain.Chat{
		ID:        s.newID(),
		Title:     domain.DefaultChatTitle,
		Messages:  []domain.Message{},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	chats := append([]domain.Chat{chat}, s.history.Chats...)
	if len(chats) > s.maxChats {
		chats = chats[:s.maxChats]
	}
	s.history.Chats = chats
	s.history.CurrentChatID = chat.ID
	return chat.ID
}

// SwitchTo makes chatID current. It reports false and changes nothing when
// no such chat exists.
func (s *Store) SwitchTo(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.history.FindChat(chatID) < 0 {
		return false
	}
	s.history.CurrentChatID = chatID
	s.scheduleSaveLocked(0)
	return true
}

// AppendMessage appends msgs to the current chat in one step. A user message
// appended while the chat still has the default title also sets the title.
func (s *Store) AppendMessage(msgs ...domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.history.FindChat(s.history.CurrentChatID)
	if idx < 0 {
		return ErrNoCurrentChat
	}
	chat := &s.history.Chats[idx]
	for _, msg := range msgs {
		chat.Messages = append(chat.Messages, msg.Clone())
		if chat.Title == domain.DefaultChatTitle && msg.Role == domain.RoleUser {
			chat.Title = deriveTitle(msg.Content)
		}
	}
	chat.UpdatedAt = s.nowMillis()
	s.scheduleSaveLocked(0)
	return nil
}

// UpdateMessageContent replaces the content of a message in the current chat.
// The write is throttled so a streaming response does not write per chunk.
func (s *Store) UpdateMessageContent(messageID, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.history.FindChat(s.history.CurrentChatID)
	if idx < 0 {
		return false
	}
	chat := &s.history.Chats[idx]
	for i := range chat.Messages {
		if chat.Messages[i].ID == messageID {
			chat.Messages[i].Content = content
			chat.UpdatedAt = s.nowMillis()
			s.scheduleSaveLocked(s.throttle)
			return true
		}
	}
	return false
}

// RenameChat sets a chat's title. Blank titles become "Untitled Chat".
func (s *Store) RenameChat(chatID, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.history.FindChat(chatID)
	if idx < 0 {
		return false
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.UntitledChatTitle
	}
	s.history.Chats[idx].Title = title
	s.history.Chats[idx].UpdatedAt = s.nowMillis()
	s.scheduleSaveLocked(0)
	return true
}

// DeleteChat removes a chat. Deleting the current chat moves the current
// reference to the most recent remaining chat, or clears it.
func (s *Store) DeleteChat(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.history.FindChat(chatID)
	if idx < 0 {
		return false
	}
	s.history.Chats = append(s.history.Chats[:idx:idx], s.history.Chats[idx+1:]...)
	if s.history.CurrentChatID == chatID {
		s.history.CurrentChatID = ""
		if len(s.history.Chats) > 0 {
			s.history.CurrentChatID = s.history.Chats[0].ID
		}
	}
	s.scheduleSaveLocked(0)
	return true
}

// EnsureCurrentChat returns the current chat id, creating a chat if none is current.
func (s *Store) EnsureCurrentChat() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.history.FindChat(s.history.CurrentChatID) >= 0 {
		return s.history.CurrentChatID
	}
	id := s.createChatLocked()
	s.scheduleSaveLocked(0)
	return id
}

// CurrentChatID returns the current chat id or "".
func (s *Store) CurrentChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CurrentChatID
}

// Current returns a copy of the current chat.
func (s *Store) Current() (domain.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.history.FindChat(s.history.CurrentChatID)
	if idx < 0 {
		return domain.Chat{}, false
	}
	return s.history.Chats[idx].Clone(), true
}

// CurrentMessages returns a copy of the current chat's messages.
func (s *Store) CurrentMessages() []domain.Message {
	chat, ok := s.Current()
	if !ok {
		return nil
	}
	return chat.Messages
}

// Chats returns a copy of all chats, most recently created first.
func (s *Store) Chats() []domain.Chat {
	return s.Snapshot().Chats
}

// SearchChats returns copies of the chats whose title contains query,
// ignoring case, in history order. A blank query matches every chat.
func (s *Store) SearchChats(query string) []domain.Chat {
	query = strings.ToLower(strings.TrimSpace(query))
	chats := s.Chats()
	if query == "" {
		return chats
	}
	matches := make([]domain.Chat, 0, len(chats))
	for _, chat := range chats {
		if strings.Contains(strings.ToLower(chat.Title), query) {
			matches = append(matches, chat)
		}
	}
	return matches
}

// Snapshot returns a deep copy of the whole history.
func (s *Store) Snapshot() domain.ChatHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Clone()
}

// Clear drops every chat and removes the durable record.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.history = domain.ChatHistory{Chats: []domain.Chat{}, MaxChats: s.maxChats}
	s.stopTimerLocked()
	s.mu.Unlock()

	return s.record.Clear(ctx, s.key)
}
