package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnStateTerminal(t *testing.T) {
	for state, want := range map[TurnState]bool{
		TurnStateIdle:              false,
		TurnStateAwaitingFirstByte: false,
		TurnStateStreaming:         false,
		TurnStateCompleted:         true,
		TurnStateFailed:            true,
		TurnStateCancelled:         true,
	} {
		assert.Equal(t, want, state.Terminal(), state)
	}
}

func TestMessageCloneKeepsAttachmentShape(t *testing.T) {
	empty := Message{ID: "m1", Attachments: []FileAttachment{}}
	clone := empty.Clone()
	assert.NotNil(t, clone.Attachments)
	assert.Empty(t, clone.Attachments)

	assert.Nil(t, Message{ID: "m2"}.Clone().Attachments)

	one := Message{ID: "m3", Attachments: []FileAttachment{{ID: "a1"}}}
	copied := one.Clone()
	copied.Attachments[0].ID = "changed"
	assert.Equal(t, "a1", one.Attachments[0].ID)
}
