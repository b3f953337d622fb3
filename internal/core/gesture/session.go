package gesture

import (
	"github.com/pkg/errors"
	"github.com/zeusync/arview/internal/core/scene"
)

var ErrUnknownMode = errors.New("unknown mode")

// Mode is the UI-selected manipulation for one-finger drags.
type Mode uint8

const (
	ModeMove Mode = iota
	ModeRotate
	ModeScale
)

func (m Mode) String() string {
	switch m {
	case ModeMove:
		return "move"
	case ModeRotate:
		return "rotate"
	case ModeScale:
		return "scale"
	default:
		return "unknown"
	}
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "move":
		return ModeMove, nil
	case "rotate":
		return ModeRotate, nil
	case "scale":
		return ModeScale, nil
	}
	return ModeMove, errors.Wrapf(ErrUnknownMode, "%q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseTracking
	PhasePinching
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTracking:
		return "tracking"
	case PhasePinching:
		return "pinching"
	default:
		return "unknown"
	}
}

// Session is the interaction state shared by the interpreter and its owner.
// The active object survives gestures; the anchors do not.
type Session struct {
	ActiveID scene.ObjectID
	Mode     Mode

	phase  Phase
	target scene.ObjectID

	// one-finger anchors
	pointerID int
	start     Pointer
	last      Pointer
	dragging  bool
	noticed   bool

	// pinch anchors
	pinchIDs        [2]int
	initialDistance float64
	initialScale    float64
}

func NewSession() *Session {
	return &Session{Mode: ModeMove}
}

func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) Active() (scene.ObjectID, bool) {
	return s.ActiveID, s.ActiveID != ""
}

func (s *Session) Select(id scene.ObjectID) {
	s.ActiveID = id
}

// Deselect clears the active object and ends any gesture aimed at it.
func (s *Session) Deselect() {
	s.ActiveID = ""
	s.End()
}

// End discards every anchor and returns to idle.
func (s *Session) End() {
	mode, active := s.Mode, s.ActiveID
	*s = Session{Mode: mode, ActiveID: active}
}

// Reset clears the selection and the mode as well.
func (s *Session) Reset() {
	*s = Session{Mode: ModeMove}
}

func (s *Session) PinchAnchors() (distance, scale float64) {
	return s.initialDistance, s.initialScale
}
