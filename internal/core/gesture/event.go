package gesture

import (
	"math"

	"github.com/pkg/errors"
)

var ErrUnknownEventType = errors.New("unknown event type")

type EventType uint8

const (
	EventDown EventType = iota
	EventMove
	EventUp
	EventCancel
)

func (t EventType) String() string {
	switch t {
	case EventDown:
		return "down"
	case EventMove:
		return "move"
	case EventUp:
		return "up"
	case EventCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "down", "start", "pointerdown", "touchstart", "mousedown":
		*t = EventDown
	case "move", "pointermove", "touchmove", "mousemove":
		*t = EventMove
	case "up", "end", "pointerup", "touchend", "mouseup":
		*t = EventUp
	case "cancel", "pointercancel", "touchcancel":
		*t = EventCancel
	default:
		return errors.Wrapf(ErrUnknownEventType, "%q", string(text))
	}
	return nil
}

// Pointer is one contact point in viewport pixels.
type Pointer struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func (p Pointer) DistanceTo(o Pointer) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

func midpoint(a, b Pointer) Pointer {
	return Pointer{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Event is a pointer or touch event. Pointers lists the contacts still
// down after the event; Changed lists the contacts the event is about.
type Event struct {
	Type     EventType `json:"type"`
	Pointers []Pointer `json:"pointers"`
	Changed  []Pointer `json:"changed,omitempty"`
}

func Down(pointers ...Pointer) Event {
	return Event{Type: EventDown, Pointers: pointers}
}

func Move(pointers ...Pointer) Event {
	return Event{Type: EventMove, Pointers: pointers}
}

// Up builds an up event for released with remaining still in contact.
func Up(released Pointer, remaining ...Pointer) Event {
	return Event{Type: EventUp, Pointers: remaining, Changed: []Pointer{released}}
}

func Cancel() Event {
	return Event{Type: EventCancel}
}
