package bus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/arview/internal/core/observability/log"
)

type simpleEvent struct {
	typeStr string
	source  string
	ts      time.Time
	data    any
}

func (e simpleEvent) Type() string         { return e.typeStr }
func (e simpleEvent) Source() string       { return e.source }
func (e simpleEvent) Timestamp() time.Time { return e.ts }
func (e simpleEvent) Data() any            { return e.data }

// NewEvent creates an Event stamped with the current time.
func NewEvent(typ, src string, data any) Event {
	return simpleEvent{typeStr: typ, source: src, ts: time.Now(), data: data}
}

type subscription struct {
	id        string
	eventType string
	handler   EventHandler

	mu     sync.Mutex
	active bool
	cancel func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }

func (s *subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = false
	s.mu.Unlock()
	s.cancel()
	return nil
}

type inMemoryBus struct {
	mu sync.RWMutex
	// topic -> event type -> subscriptions in subscription order
	handlers  map[string]map[string][]*subscription
	observers map[Observer]struct{}
}

// New creates an empty in-memory EventBus.
func New() EventBus {
	return &inMemoryBus{
		handlers:  make(map[string]map[string][]*subscription),
		observers: make(map[Observer]struct{}),
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	return b.deliver("", event)
}

func (b *inMemoryBus) PublishToTopic(topic string, event Event) error {
	return b.deliver(topic, event)
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	return b.SubscribeTopic("", eventType, handler)
}

func (b *inMemoryBus) SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[string][]*subscription)
	}
	s := &subscription{id: uuid.NewString(), eventType: eventType, handler: handler, active: true}
	s.cancel = func() { b.remove(topic, s) }
	b.handlers[topic][eventType] = append(b.handlers[topic][eventType], s)
	return s, nil
}

func (b *inMemoryBus) remove(topic string, s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[topic][s.eventType]
	for i, cur := range subs {
		if cur == s {
			b.handlers[topic][s.eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) PublishAsync(event Event) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- b.Publish(event)
		close(ch)
	}()
	return ch
}

func (b *inMemoryBus) AddObserver(obs Observer) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs Observer) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) Topics() []TopicInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]TopicInfo, 0, len(b.handlers))
	for name, byType := range b.handlers {
		info := TopicInfo{Name: name, EventTypes: len(byType)}
		for _, subs := range byType {
			info.Subs += len(subs)
		}
		out = append(out, info)
	}
	return out
}

func (b *inMemoryBus) deliver(topic string, event Event) error {
	start := time.Now()
	etype := event.Type()

	b.mu.RLock()
	subs := append([]*subscription(nil), b.handlers[topic][etype]...)
	observers := make([]Observer, 0, len(b.observers))
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	var all error
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	took := time.Since(start)
	for _, obs := range observers {
		obs.OnDelivered(topic, etype, len(subs), all, took)
	}
	return all
}

// LogObserver reports failed deliveries at Warn.
type LogObserver struct {
	logger log.Log
}

func NewLogObserver(logger log.Log) *LogObserver {
	return &LogObserver{logger: logger.With(log.String("component", "bus"))}
}

func (o *LogObserver) OnDelivered(topic, eventType string, handlers int, err error, took time.Duration) {
	if err == nil {
		return
	}
	o.logger.Warn("event delivery failed",
		log.String("topic", topic),
		log.String("event_type", eventType),
		log.Int("handlers", handlers),
		log.Duration("took", took),
		log.Error(err),
	)
}
