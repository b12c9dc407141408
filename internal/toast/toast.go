// ABOUTME: Process-wide notification bus for transient user-facing messages
// ABOUTME: Fans events out to subscribers in order and isolates listener panics

package toast

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Severity classifies a toast for rendering
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// DisplayDuration is how long a toast stays on screen
const DisplayDuration = 4 * time.Second

// Event is a single notification
type Event struct {
	ID       string
	Severity Severity
	Message  string
	At       time.Time
}

// Listener receives emitted events
type Listener func(Event)

type subscription struct {
	id uint64
	fn Listener
}

// Bus delivers events to subscribers synchronously in registration order
type Bus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []subscription
	log       *zap.Logger
}

// New creates an empty bus
func New(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{log: log}
}

// Default is the bus shared by the running process
var Default = New(nil)

// SetLogger replaces the logger used to report listener panics
func (b *Bus) SetLogger(log *zap.Logger) {
	if log == nil {
		return
	}
	b.mu.Lock()
	b.log = log
	b.mu.Unlock()
}

// Subscribe registers fn and returns a function that removes it
func (b *Bus) Subscribe(fn Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.listeners {
		if s.id == id {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Len returns the number of active subscribers
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Emit delivers ev to every subscriber registered at the time of the call.
// With no subscribers the event is dropped.
func (b *Bus) Emit(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Severity == "" {
		ev.Severity = SeverityError
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.Lock()
	snapshot := make([]subscription, len(b.listeners))
	copy(snapshot, b.listeners)
	log := b.log
	b.mu.Unlock()

	for _, s := range snapshot {
		b.deliver(log, s.fn, ev)
	}
}

func (b *Bus) deliver(log *zap.Logger, fn Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("toast listener panicked",
				zap.String("toast_id", ev.ID),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn(ev)
}

// Error emits an error toast
func (b *Bus) Error(msg string) {
	b.Emit(Event{Severity: SeverityError, Message: msg})
}

// Success emits a success toast
func (b *Bus) Success(msg string) {
	b.Emit(Event{Severity: SeveritySuccess, Message: msg})
}

// Info emits an informational toast
func (b *Bus) Info(msg string) {
	b.Emit(Event{Severity: SeverityInfo, Message: msg})
}

// Warning emits a warning toast
func (b *Bus) Warning(msg string) {
	b.Emit(Event{Severity: SeverityWarning, Message: msg})
}
