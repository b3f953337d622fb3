package controller

import (
	"github.com/zeusync/arview/internal/core/gesture"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/core/picking"
	"github.com/zeusync/arview/internal/core/scene"
)

// HandleInput interprets one pointer event and applies its intents in order.
func (c *Controller) HandleInput(ev gesture.Event) {
	for _, in := range c.interpreter.Handle(c.session, ev) {
		switch in.Kind {
		case gesture.IntentSelect:
			c.notify(NoticeSelected, in.Target, "")
		case gesture.IntentDeselect:
			c.logger.Debug("deselected", log.String("object_id", in.Target.String()))
		case gesture.IntentNotice:
			c.notify(NoticeKind(in.Notice), in.Target, "")
		case gesture.IntentMove, gesture.IntentRotate, gesture.IntentScale:
			c.applier.Apply(c.store, in)
		}
	}
}

// Pick resolves the object under a viewport point with the current camera.
func (c *Controller) Pick(x, y float64) (picking.Hit, bool) {
	return c.picker.Pick(x, y, c.camera, c.viewport, picking.Candidates(c.store, c.cfg.ExcludeLocked))
}

// targets exposes the scene to the gesture interpreter.
type targets struct {
	c *Controller
}

func (t targets) Pick(x, y float64) (scene.ObjectID, bool) {
	hit, ok := t.c.Pick(x, y)
	return hit.ID, ok
}

func (t targets) Locked(id scene.ObjectID) bool {
	return t.c.store.Locked(id)
}

func (t targets) Scale(id scene.ObjectID) (float64, bool) {
	tr, ok := t.c.store.Transform(id)
	return tr.UniformScale(), ok
}

func (t targets) Exists(id scene.ObjectID) bool {
	return t.c.store.Exists(id)
}
