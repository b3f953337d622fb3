package bus

import "time"

// Event types published by the scene controller.
const (
	// TypeSnapshot carries the full scene state after a change.
	TypeSnapshot = "scene.snapshot"
	// TypeNotice carries an informational message for the UI.
	TypeNotice = "scene.notice"
)

// EventBus is a thread-safe, in-process pub/sub bus.
//
// Handlers subscribe by event type, optionally within a topic; the default
// topic is "". Publish calls handlers synchronously in the caller goroutine,
// in subscription order, and joins their errors. Handlers should be quick
// or hand work off to their own goroutine.
type EventBus interface {
	Publish(event Event) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe is safe to call with nil.
	Unsubscribe(Subscription) error

	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	PublishToTopic(topic string, event Event) error

	// PublishAsync delivers in a new goroutine. The returned channel gets the
	// joined handler error (or nil) and is then closed.
	PublishAsync(event Event) <-chan error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	Topics() []TopicInfo
}

// Event is an immutable message transported by the bus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	EventHandler func(event Event) error
)

// Subscription is a registered handler. Cancel is idempotent.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	Cancel() error
}

// Observer is told about every delivery. Observers should return quickly.
type Observer interface {
	OnDelivered(topic, eventType string, handlers int, err error, took time.Duration)
}

type TopicInfo struct {
	Name       string
	EventTypes int
	Subs       int
}
