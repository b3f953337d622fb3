package gesture

import (
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/core/scene"
)

// Targets is what the interpreter needs to know about the scene.
type Targets interface {
	// Pick returns the frontmost object under a viewport point.
	Pick(x, y float64) (scene.ObjectID, bool)
	Locked(id scene.ObjectID) bool
	Scale(id scene.ObjectID) (float64, bool)
	Exists(id scene.ObjectID) bool
}

type Config struct {
	// DeadZone is how far in pixels a press may travel and still be a tap.
	DeadZone float64 `mapstructure:"deadZone" yaml:"deadZone"`
	// MinPinchRatio and MaxPinchRatio bound distance/initialDistance.
	MinPinchRatio float64 `mapstructure:"minPinchRatio" yaml:"minPinchRatio"`
	MaxPinchRatio float64 `mapstructure:"maxPinchRatio" yaml:"maxPinchRatio"`
	// ScaleDragSensitivity is the scale change per pixel of vertical drag in ModeScale.
	ScaleDragSensitivity float64 `mapstructure:"scaleDragSensitivity" yaml:"scaleDragSensitivity"`
	DeselectOnEmptyTap   bool    `mapstructure:"deselectOnEmptyTap" yaml:"deselectOnEmptyTap"`
	// PinchRequiresHit makes a pinch start only on top of the active object.
	PinchRequiresHit bool `mapstructure:"pinchRequiresHit" yaml:"pinchRequiresHit"`
}

func DefaultConfig() Config {
	return Config{
		DeadZone:             4,
		MinPinchRatio:        0.1,
		MaxPinchRatio:        10,
		ScaleDragSensitivity: 0.005,
	}
}

// Interpreter turns pointer events into intents. It keeps no state of its
// own; everything lives in the Session it is handed.
type Interpreter struct {
	cfg     Config
	targets Targets
	logger  log.Log
}

func NewInterpreter(cfg Config, targets Targets, logger log.Log) *Interpreter {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Interpreter{
		cfg:     cfg,
		targets: targets,
		logger:  logger.With(log.String("component", "gesture")),
	}
}

// Handle advances s by one event and returns the resulting intents in order.
func (in *Interpreter) Handle(s *Session, ev Event) []Intent {
	if ev.Type == EventCancel {
		in.end(s, "cancel")
		return nil
	}

	switch n := len(ev.Pointers); {
	case n == 0:
		return in.release(s, ev)
	case n == 1:
		return in.onePointer(s, ev)
	case n == 2:
		return in.twoPointers(s, ev)
	default:
		in.end(s, "too many pointers")
		return nil
	}
}

func (in *Interpreter) end(s *Session, reason string) {
	if s.phase != PhaseIdle {
		in.logger.Debug("gesture ended",
			log.String("phase", s.phase.String()),
			log.String("reason", reason),
		)
	}
	s.End()
}

func (in *Interpreter) release(s *Session, ev Event) []Intent {
	var out []Intent
	if ev.Type == EventUp && s.phase == PhaseTracking && !s.dragging {
		at := s.last
		for _, p := range ev.Changed {
			if p.ID == s.pointerID {
				at = p
				break
			}
		}
		if at.DistanceTo(s.start) <= in.cfg.DeadZone {
			out = in.tap(s, at)
		}
	}
	in.end(s, "released")
	return out
}

func (in *Interpreter) tap(s *Session, at Pointer) []Intent {
	out := []Intent{{Kind: IntentTap, X: at.X, Y: at.Y}}

	id, hit := in.targets.Pick(at.X, at.Y)
	switch {
	case hit && !in.targets.Locked(id):
		if id != s.ActiveID {
			s.Select(id)
			out = append(out, selectIntent(id))
		}
	case !hit && in.cfg.DeselectOnEmptyTap && s.ActiveID != "":
		prev := s.ActiveID
		s.ActiveID = ""
		out = append(out, Intent{Kind: IntentDeselect, Target: prev})
	}
	return out
}

func (in *Interpreter) onePointer(s *Session, ev Event) []Intent {
	p := ev.Pointers[0]

	switch s.phase {
	case PhaseIdle:
		// A finger left over from a pinch stays inert until a new press.
		if ev.Type != EventDown {
			return nil
		}
		return in.beginTracking(s, p)
	case PhasePinching:
		in.end(s, "pointer count dropped")
		return nil
	}

	if ev.Type == EventDown || p.ID != s.pointerID {
		in.end(s, "pointer replaced")
		return in.beginTracking(s, p)
	}
	if ev.Type != EventMove {
		return nil
	}
	return in.track(s, p)
}

func (in *Interpreter) beginTracking(s *Session, p Pointer) []Intent {
	s.End()
	s.phase = PhaseTracking
	s.pointerID = p.ID
	s.start, s.last = p, p

	id, hit := in.targets.Pick(p.X, p.Y)
	if !hit {
		return nil
	}
	if in.targets.Locked(id) {
		s.noticed = true
		return []Intent{noticeIntent(NoticeLocked, id)}
	}

	s.target = id
	if scale, ok := in.targets.Scale(id); ok {
		s.initialScale = scale
	}
	if id == s.ActiveID {
		return nil
	}
	s.Select(id)
	return []Intent{selectIntent(id)}
}

func (in *Interpreter) track(s *Session, p Pointer) []Intent {
	if !s.dragging {
		if p.DistanceTo(s.start) <= in.cfg.DeadZone {
			return nil
		}
		s.dragging = true
	}
	dx, dy := p.X-s.last.X, p.Y-s.last.Y
	s.last = p

	if s.target == "" {
		return nil
	}
	if !in.targets.Exists(s.target) {
		in.end(s, "target removed")
		return nil
	}
	if in.targets.Locked(s.target) {
		if s.noticed {
			return nil
		}
		s.noticed = true
		return []Intent{noticeIntent(NoticeLocked, s.target)}
	}

	switch s.Mode {
	case ModeRotate:
		return []Intent{{Kind: IntentRotate, Target: s.target, DX: dx, DY: dy}}
	case ModeScale:
		factor := in.clampRatio(1 - (p.Y-s.start.Y)*in.cfg.ScaleDragSensitivity)
		return []Intent{{Kind: IntentScale, Target: s.target, Scale: s.initialScale * factor}}
	default:
		return []Intent{{Kind: IntentMove, Target: s.target, DX: dx, DY: dy}}
	}
}

func (in *Interpreter) twoPointers(s *Session, ev Event) []Intent {
	a, b := ev.Pointers[0], ev.Pointers[1]

	switch {
	case s.phase == PhasePinching && s.samePinch(a, b):
		if ev.Type == EventMove {
			return in.pinch(s, a, b)
		}
		return nil
	case s.phase == PhaseIdle && ev.Type != EventDown:
		// leftovers after a third finger ended the gesture
		return nil
	case s.phase != PhaseIdle:
		in.end(s, "pointer count changed")
	}
	return in.beginPinch(s, a, b)
}

func (s *Session) samePinch(a, b Pointer) bool {
	return (s.pinchIDs[0] == a.ID && s.pinchIDs[1] == b.ID) ||
		(s.pinchIDs[0] == b.ID && s.pinchIDs[1] == a.ID)
}

func (in *Interpreter) beginPinch(s *Session, a, b Pointer) []Intent {
	s.phase = PhasePinching
	s.pinchIDs = [2]int{a.ID, b.ID}
	s.initialDistance = a.DistanceTo(b)

	id := s.ActiveID
	if id == "" || !in.targets.Exists(id) {
		return []Intent{noticeIntent(NoticeNoSelection, "")}
	}
	if in.targets.Locked(id) {
		return []Intent{noticeIntent(NoticeLocked, id)}
	}
	if in.cfg.PinchRequiresHit && !in.pinchOnTarget(id, a, b) {
		return nil
	}

	scale, ok := in.targets.Scale(id)
	if !ok {
		return nil
	}
	s.target = id
	s.initialScale = scale
	return nil
}

func (in *Interpreter) pinchOnTarget(id scene.ObjectID, a, b Pointer) bool {
	for _, p := range []Pointer{a, b, midpoint(a, b)} {
		if hit, ok := in.targets.Pick(p.X, p.Y); ok && hit == id {
			return true
		}
	}
	return false
}

func (in *Interpreter) pinch(s *Session, a, b Pointer) []Intent {
	if s.target == "" {
		return nil
	}
	dist := a.DistanceTo(b)
	if s.initialDistance <= 0 {
		// Both fingers started on the same pixel; anchor on the first spread.
		s.initialDistance = dist
		return nil
	}
	if !in.targets.Exists(s.target) {
		in.end(s, "target removed")
		return nil
	}
	if in.targets.Locked(s.target) {
		return nil
	}
	factor := in.clampRatio(dist / s.initialDistance)
	return []Intent{{Kind: IntentScale, Target: s.target, Scale: s.initialScale * factor}}
}

func (in *Interpreter) clampRatio(r float64) float64 {
	if r < in.cfg.MinPinchRatio {
		return in.cfg.MinPinchRatio
	}
	if r > in.cfg.MaxPinchRatio {
		return in.cfg.MaxPinchRatio
	}
	return r
}
