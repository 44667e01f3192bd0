package voice

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain/entities"
)

// EventType identifies a capture session event.
type EventType string

const (
	EventRecordingStarted EventType = "recording_started"
	EventQualityWarning   EventType = "quality_warning"
	EventRecordingStopped EventType = "recording_stopped"
	EventErrorOccurred    EventType = "error_occurred"
)

// Event is delivered to session listeners in emission order, at most once
// per occurrence.
type Event struct {
	Type      EventType
	SessionID string
	Timestamp time.Time
	Quality   *entities.AudioQuality // set for quality_warning
	Duration  time.Duration          // set for recording_stopped
	Err       error                  // set for error_occurred
}

// Handler receives session events.
type Handler func(Event)

// Emitter is a typed event fan-out. Handlers run synchronously in
// registration order; a panicking handler does not prevent the rest from
// running.
type Emitter struct {
	mu       sync.Mutex
	nextID   int
	handlers map[EventType][]subscription
	logger   *zap.Logger
}

type subscription struct {
	id      int
	handler Handler
}

// NewEmitter creates an emitter.
func NewEmitter(logger *zap.Logger) *Emitter {
	return &Emitter{
		handlers: make(map[EventType][]subscription),
		logger:   logger,
	}
}

// On registers a handler and returns a subscription id for Off.
func (e *Emitter) On(eventType EventType, handler Handler) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.handlers[eventType] = append(e.handlers[eventType], subscription{id: e.nextID, handler: handler})
	return e.nextID
}

// Off removes a previously registered handler.
func (e *Emitter) Off(eventType EventType, id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	subs := e.handlers[eventType]
	for i, sub := range subs {
		if sub.id == id {
			e.handlers[eventType] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Emit delivers the event to all handlers registered for its type.
func (e *Emitter) Emit(event Event) {
	e.mu.Lock()
	subs := make([]subscription, len(e.handlers[event.Type]))
	copy(subs, e.handlers[event.Type])
	e.mu.Unlock()

	for _, sub := range subs {
		e.dispatch(sub, event)
	}
}

func (e *Emitter) dispatch(sub subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Event handler panicked",
				zap.String("event", string(event.Type)),
				zap.Any("panic", r))
		}
	}()
	sub.handler(event)
}
