package domain

// DefaultChatTitle is the title given to a freshly created chat.
const DefaultChatTitle = "New Chat"

// UntitledChatTitle replaces an empty title on rename.
const UntitledChatTitle = "Untitled Chat"

// FileAttachment describes a file stored by the media host.
type FileAttachment struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	Size         int64        `json:"size"`
	URL          string       `json:"url"`
	PublicID     string       `json:"publicId"`
	ResourceType ResourceKind `json:"resourceType"`
}

// Message is one entry of a chat. CreatedAt is unix milliseconds.
type Message struct {
	ID          string           `json:"id"`
	Role        Role             `json:"role"`
	Content     string           `json:"content"`
	CreatedAt   int64            `json:"createdAt"`
	Attachments []FileAttachment `json:"attachments"`
}

// Clone returns a copy that shares no slices with m. A nil attachment list
// stays nil and an empty one stays empty.
func (m Message) Clone() Message {
	if m.Attachments != nil {
		m.Attachments = append(make([]FileAttachment, 0, len(m.Attachments)), m.Attachments...)
	}
	return m
}

// Chat is an ordered conversation.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
}

// Clone returns a deep copy of c.
func (c Chat) Clone() Chat {
	msgs := make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		msgs[i] = m.Clone()
	}
	c.Messages = msgs
	return c
}

// ChatHistory is the persisted root: chats ordered most recently created first.
// An empty CurrentChatID means no chat is current.
type ChatHistory struct {
	Chats         []Chat
	CurrentChatID string
	MaxChats      int
}

// Clone returns a deep copy of h.
func (h ChatHistory) Clone() ChatHistory {
	chats := make([]Chat, len(h.Chats))
	for i, c := range h.Chats {
		chats[i] = c.Clone()
	}
	h.Chats = chats
	return h
}

// FindChat returns the index of the chat with the given id, or -1.
func (h ChatHistory) FindChat(id string) int {
	for i := range h.Chats {
		if h.Chats[i].ID == id {
			return i
		}
	}
	return -1
}
