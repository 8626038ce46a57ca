package history

import (
	"encoding/json"
	"fmt"

	"github.com/theyashgrover/gpt-clone/internal/domain"
)

const titleMaxRunes = 50

// record is the durable layout, kept compatible with the browser client's
// local storage entry.
type record struct {
	Chats         []domain.Chat `json:"chats"`
	CurrentChatID *string       `json:"currentChatId"`
	MaxChats      int           `json:"maxChats"`
}

// Encode serialises a history snapshot.
func Encode(h domain.ChatHistory) ([]byte, error) {
	rec := record{Chats: h.Chats, MaxChats: h.MaxChats}
	if rec.Chats == nil {
		rec.Chats = []domain.Chat{}
	}
	if h.CurrentChatID != "" {
		id := h.CurrentChatID
		rec.CurrentChatID = &id
	}
	return json.Marshal(rec)
}

// Decode parses a serialised history. It does not repair references; see normalize.
func Decode(data []byte) (domain.ChatHistory, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.ChatHistory{}, fmt.Errorf("failed to decode history: %w", err)
	}
	h := domain.ChatHistory{Chats: rec.Chats, MaxChats: rec.MaxChats}
	if rec.CurrentChatID != nil {
		h.CurrentChatID = *rec.CurrentChatID
	}
	return h, nil
}

// normalize enforces the load-time invariants: at most maxChats chats, non-nil
// message lists, and a current reference that resolves or is empty.
func normalize(h domain.ChatHistory, maxChats int) domain.ChatHistory {
	h.MaxChats = maxChats
	if len(h.Chats) > maxChats {
		h.Chats = h.Chats[:maxChats]
	}
	for i := range h.Chats {
		if h.Chats[i].Messages == nil {
			h.Chats[i].Messages = []domain.Message{}
		}
	}
	if h.FindChat(h.CurrentChatID) < 0 {
		h.CurrentChatID = ""
		if len(h.Chats) > 0 {
			h.CurrentChatID = h.Chats[0].ID
		}
	}
	return h
}

// deriveTitle returns the first 50 characters of content, marking truncation with "...".
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxRunes {
		return content
	}
	return string(runes[:titleMaxRunes]) + "..."
}
