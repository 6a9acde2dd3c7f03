// Package tutor runs Nova's conversation turns.
//
// A turn is one pass through IDLE -> LISTENING -> PROCESSING -> SPEAKING
// -> IDLE. The Orchestrator owns the single active turn; while it waits on
// the playback barrier no new wake word is heard.
package tutor

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is the agent's externally visible state.
type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateSpeaking   State = "speaking"
)

// Sender tags a displayed message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderNova Sender = "nova"
)

// Turn is one wake-to-idle exchange.
type Turn struct {
	ID       string
	State    State
	UserText string
	Reply    strings.Builder // everything generated, unsegmented
	Started  time.Time
}

func newTurn() *Turn {
	return &Turn{
		ID:      uuid.NewString(),
		State:   StateListening,
		Started: time.Now(),
	}
}
