package conversation

import (
	"sync"

	"github.com/theyashgrover/gpt-clone/internal/domain"
)

// EventType identifies what an Event reports.
type EventType string

const (
	// EventState reports a turn state transition.
	EventState EventType = "state"
	// EventDelta reports a chunk appended to the assistant message.
	EventDelta EventType = "delta"
)

// Event is published to subscribers while a turn runs.
type Event struct {
	Type      EventType
	ChatID    string
	MessageID string
	State     domain.TurnState
	// Delta is the newest chunk, Content the accumulated assistant text.
	Delta   string
	Content string
	// Err is the stream error on the failed state event.
	Err error
}

const subscriberBuffer = 256

// hub fans events out to subscribers without blocking the turn. When a
// subscriber's buffer is full its oldest event is discarded, so the newest
// events, including the final state of a turn, always arrive.
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan Event)}
}

func (h *hub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		// Only publish sends, under h.mu, so there is room now.
		ch <- ev
	}
}
