// ABOUTME: Newest-first activity log shared by the submit path and the health monitor
// ABOUTME: Optional cap evicts the oldest entries; Clear leaves a single placeholder

package console

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a log entry.
type Kind string

const (
	KindUser    Kind = "user"
	KindSystem  Kind = "system"
	KindMCP     Kind = "mcp"
	KindError   Kind = "error"
	KindSuccess Kind = "success"
)

// Entry sources.
const (
	SourceYou           = "You"
	SourceSystem        = "System"
	SourceValidation    = "Validation"
	SourceDocument      = "Document Service"
	SourceSummarization = "Summarization Service"
)

// ClearedMessage is the text of the placeholder left by Clear.
const ClearedMessage = "Log cleared. Submit a document to get started."

// DefaultMaxEntries is the cap used by the terminal client.
const DefaultMaxEntries = 500

// Entry is one immutable line of the activity log.
type Entry struct {
	ID        string
	Timestamp time.Time
	Source    string
	Kind      Kind
	Message   string
}

// LogStore holds entries newest first. It is safe for concurrent use.
type LogStore struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
	subs    map[int]chan Entry
	nextSub int
	now     func() time.Time
}

// NewLogStore creates an empty log. maxEntries <= 0 means unbounded.
func NewLogStore(maxEntries int) *LogStore {
	return &LogStore{
		max:  maxEntries,
		subs: make(map[int]chan Entry),
		now:  time.Now,
	}
}

// Append stamps and stores a new entry, returning it.
func (l *LogStore) Append(source string, kind Kind, message string) Entry {
	e := Entry{
		ID:        uuid.New().String(),
		Timestamp: l.now(),
		Source:    source,
		Kind:      kind,
		Message:   message,
	}

	l.mu.Lock()
	l.entries = append([]Entry{e}, l.entries...)
	if l.max > 0 && len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
	l.publishLocked(e)
	l.mu.Unlock()

	return e
}

// AppendAll stores entries in order, so the last one ends up newest.
func (l *LogStore) AppendAll(entries []Entry) {
	for _, e := range entries {
		l.Append(e.Source, e.Kind, e.Message)
	}
}

// Entries returns a snapshot, newest first.
func (l *LogStore) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *LogStore) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear replaces the contents with exactly one placeholder entry.
func (l *LogStore) Clear() {
	e := Entry{
		ID:        uuid.New().String(),
		Timestamp: l.now(),
		Source:    SourceSystem,
		Kind:      KindSystem,
		Message:   ClearedMessage,
	}

	l.mu.Lock()
	l.entries = []Entry{e}
	l.publishLocked(e)
	l.mu.Unlock()
}

// Subscribe returns a channel receiving every entry appended from now on and a
// function that cancels the subscription. Slow subscribers miss entries rather
// than block writers.
func (l *LogStore) Subscribe(buffer int) (<-chan Entry, func()) {
	ch := make(chan Entry, buffer)

	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
			close(ch)
		})
	}
}

// publishLocked must be called with mu held.
func (l *LogStore) publishLocked(e Entry) {
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
