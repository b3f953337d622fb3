package gesture

import "github.com/zeusync/arview/internal/core/scene"

type IntentKind uint8

const (
	IntentSelect IntentKind = iota
	IntentDeselect
	IntentMove
	IntentRotate
	IntentScale
	IntentTap
	IntentNotice
)

func (k IntentKind) String() string {
	switch k {
	case IntentSelect:
		return "select"
	case IntentDeselect:
		return "deselect"
	case IntentMove:
		return "move"
	case IntentRotate:
		return "rotate"
	case IntentScale:
		return "scale"
	case IntentTap:
		return "tap"
	case IntentNotice:
		return "notice"
	default:
		return "unknown"
	}
}

type Notice string

const (
	NoticeLocked      Notice = "locked"
	NoticeNoSelection Notice = "no-selection"
)

// Intent is one semantic result of interpreting input.
//
// Move and Rotate carry screen-pixel deltas in DX/DY. Scale carries the
// absolute target scale. Tap carries the release point.
type Intent struct {
	Kind   IntentKind
	Target scene.ObjectID
	DX, DY float64
	Scale  float64
	X, Y   float64
	Notice Notice
}

func (i Intent) Mutates() bool {
	return i.Kind == IntentMove || i.Kind == IntentRotate || i.Kind == IntentScale
}

func selectIntent(id scene.ObjectID) Intent {
	return Intent{Kind: IntentSelect, Target: id}
}

func noticeIntent(n Notice, id scene.ObjectID) Intent {
	return Intent{Kind: IntentNotice, Notice: n, Target: id}
}
