// Package session defines the persisted conversation session model and the
// store contract the triage engine depends on. Sessions carry the full
// mutable state of a conversation between stateless request handlers.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	// SpeakerUser is the end user asking for help.
	SpeakerUser Speaker = "user"
	// SpeakerAssistant is the triage engine.
	SpeakerAssistant Speaker = "assistant"
)

// Turn is a single utterance in the conversation history.
// Turns are append-only and immutable once written.
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// FlowContext is the state of an active multi-turn troubleshooting flow.
// It is present on a session if and only if a flow has been entered and
// has not yet terminated.
type FlowContext struct {
	// State is the current node in the flow's state machine. The flow
	// package owns the value set; unknown values are treated as schema
	// drift and reset by the flow.
	State string `json:"state"`
	// Slots maps slot name to the extracted value. Values are filled
	// incrementally and never silently overwritten once set.
	Slots map[string]string `json:"slots"`
	// AttemptCount is the number of troubleshooting-step attempts made.
	AttemptCount int `json:"attemptCount"`
	// StepsGiven records the last step list presented to the user.
	StepsGiven []string `json:"stepsGiven,omitempty"`
	// HandedOffAt is set when the flow reaches its escalation terminal.
	// After a grace period the flow context is considered consumed.
	HandedOffAt *time.Time `json:"handedOffAt,omitempty"`
}

// Slot returns the value for a slot name, and whether it is set.
func (f *FlowContext) Slot(name string) (string, bool) {
	if f == nil || f.Slots == nil {
		return "", false
	}
	v, ok := f.Slots[name]
	return v, ok && v != ""
}

// SetSlot stores a slot value, allocating the map on first use.
func (f *FlowContext) SetSlot(name, value string) {
	if f.Slots == nil {
		f.Slots = make(map[string]string, 4)
	}
	f.Slots[name] = value
}

// Session is the full persisted conversation state. It is loaded fresh at
// the start of a turn and written back whole at the end; there is no
// partial update path.
type Session struct {
	// ID is the opaque unique session identifier, immutable after creation.
	ID string `json:"id"`
	// History is the ordered, append-only sequence of turns.
	History []Turn `json:"history"`
	// LastIntent is the most recently classified coarse intent. It is not
	// updated while a dedicated flow is active.
	LastIntent string `json:"lastIntent,omitempty"`
	// Flow is the active flow context, nil when no flow is in progress.
	Flow *FlowContext `json:"flow,omitempty"`
	// CreatedAt is when the session was first created.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is when the session was last written.
	UpdatedAt time.Time `json:"updatedAt"`
}

// New creates an empty session with a fresh identifier.
func New() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a turn to the history.
func (s *Session) Append(speaker Speaker, text string) {
	s.History = append(s.History, Turn{
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
}

// RecentHistory returns up to n most recent turns, oldest first.
func (s *Session) RecentHistory(n int) []Turn {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}
