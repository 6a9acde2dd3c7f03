package tutor

import (
	"sync"
)

// TextEvent is one ShowText call.
type TextEvent struct {
	Text   string
	Sender Sender
}

// RecordingUI implements UI by recording every call.
type RecordingUI struct {
	// OnState, when set, is called after a state is recorded.
	OnState func(State)

	mu     sync.Mutex
	states []State
	texts  []TextEvent
}

// SetState implements UI.
func (u *RecordingUI) SetState(s State) {
	u.mu.Lock()
	u.states = append(u.states, s)
	hook := u.OnState
	u.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}

// ShowText implements UI.
func (u *RecordingUI) ShowText(text string, sender Sender) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.texts = append(u.texts, TextEvent{Text: text, Sender: sender})
}

// States returns recorded states in order.
func (u *RecordingUI) States() []State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]State(nil), u.states...)
}

// Texts returns recorded texts in order.
func (u *RecordingUI) Texts() []TextEvent {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]TextEvent(nil), u.texts...)
}

// StaticContext is a ContextProvider with a fixed answer.
type StaticContext struct {
	Summary string
	OK      bool
}

// Context implements ContextProvider.
func (c StaticContext) Context() (string, bool) { return c.Summary, c.OK }

var (
	_ UI              = (*RecordingUI)(nil)
	_ ContextProvider = StaticContext{}
)
