// Package telemetry emits product analytics events. Sinks never fail the
// caller: delivery problems are logged and dropped.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event names
const (
	QuestCompleted        = "Quest Completed"
	QuestFailed           = "Quest Failed"
	QuestCompletionFailed = "Quest Completion Failed"
	IssueStarted          = "Issue Started"
	IssueSwitched         = "Issue Switched"
	KowaiAdded            = "Kowai Added"
	TrainerSignedUp       = "Trainer Signed Up"
	TrainerLoggedIn       = "Trainer Logged In"
	TrainerSwitched       = "Trainer Switched"
	TrainerLoggedOut      = "Trainer Logged Out"
	SessionPruned         = "Session Pruned"
)

// FailedEvent names the event emitted when a mutation could not be persisted
func FailedEvent(op string) string {
	return op + " Failed"
}

// Event is one analytics record
type Event struct {
	Name       string         `json:"event"`
	InsertID   string         `json:"insertId"`
	TrainerID  string         `json:"trainerId,omitempty"`
	Time       time.Time      `json:"time"`
	Properties map[string]any `json:"properties,omitempty"`
}

// NewEvent stamps an event with a unique insert id and the current time
func NewEvent(name, trainerID string, props map[string]any) Event {
	return Event{
		Name:       name,
		InsertID:   uuid.NewString(),
		TrainerID:  trainerID,
		Time:       time.Now().UTC(),
		Properties: props,
	}
}

// Sink receives events
type Sink interface {
	Track(ctx context.Context, e Event)
}

// Nop discards events
type Nop struct{}

func (Nop) Track(context.Context, Event) {}

// Multi fans an event out to every sink
type Multi []Sink

func (m Multi) Track(ctx context.Context, e Event) {
	for _, s := range m {
		s.Track(ctx, e)
	}
}

// Recorder keeps events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Track(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names returns the recorded event names in order
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return names
}
