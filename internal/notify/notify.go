// Package notify classifies pushed events and keeps the capped,
// most-recent-first notification history shown by the dashboard.
package notify

import (
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is how many notifications the feed retains.
const DefaultCapacity = 10

// Level is the severity of a notification.
type Level string

const (
	Info    Level = "info"
	Warning Level = "warning"
	Danger  Level = "danger"
)

var (
	dangerPattern  = regexp.MustCompile(`(?i)critique|critical|error|danger`)
	warningPattern = regexp.MustCompile(`(?i)élevée|warning|alert`)
)

// Classify maps a message to a level by case-insensitive keyword match.
// Danger keywords take precedence over warning keywords.
func Classify(message string) Level {
	switch {
	case dangerPattern.MatchString(message):
		return Danger
	case warningPattern.MatchString(message):
		return Warning
	default:
		return Info
	}
}

// Event is one entry of the notification history.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
}

// NewEvent builds an event with a fresh ID.
func NewEvent(message string, level Level, now time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: now,
		Message:   message,
		Level:     level,
	}
}

type payload struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Decode extracts the human-readable text of a pushed payload. JSON objects
// contribute their message or detail field; anything else is used verbatim.
// The second return value reports whether structured decoding succeeded.
func Decode(raw []byte) (string, bool) {
	var p payload
	if err := json.Unmarshal(raw, &p); err == nil {
		if p.Message != "" {
			return p.Message, true
		}
		if p.Detail != "" {
			return p.Detail, true
		}
	}
	return strings.TrimSpace(string(raw)), false
}

// FromPayload decodes and classifies a raw pushed payload.
func FromPayload(raw []byte, now time.Time) Event {
	msg, _ := Decode(raw)
	return NewEvent(msg, Classify(msg), now)
}

// Feed is the capped notification history, most recent first.
type Feed struct {
	mu    sync.Mutex
	items []Event
	cap   int
}

// NewFeed creates a feed retaining at most capacity entries.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{cap: capacity}
}

// Prepend adds an event at the head and truncates to capacity.
func (f *Feed) Prepend(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := make([]Event, 0, min(len(f.items)+1, f.cap))
	items = append(items, e)
	for _, it := range f.items {
		if len(items) == f.cap {
			break
		}
		items = append(items, it)
	}
	f.items = items
}

// Items returns a copy of the history, most recent first.
func (f *Feed) Items() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.items))
	copy(out, f.items)
	return out
}

// Dismiss removes the event with the given ID. Returns false if absent.
func (f *Feed) Dismiss(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, it := range f.items {
		if it.ID == id {
			f.items = append(f.items[:i:i], f.items[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of retained events.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
