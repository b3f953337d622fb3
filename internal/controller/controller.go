// Package controller owns the scene and everything that mutates it.
//
// A Controller is single-writer: its methods must be called from the Run
// goroutine (through Submit or Do) or, before Run starts, from the goroutine
// that built it. Other goroutines read the scene through Latest.
package controller

import (
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/zeusync/arview/internal/core/events/bus"
	"github.com/zeusync/arview/internal/core/gesture"
	"github.com/zeusync/arview/internal/core/manipulation"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/core/observability/metrics"
	"github.com/zeusync/arview/internal/core/picking"
	"github.com/zeusync/arview/internal/core/scene"
)

const source = "controller"

type Config struct {
	// TickRate is how many times per second queued commands are drained.
	TickRate  int `mapstructure:"tickRate" yaml:"tickRate"`
	QueueSize int `mapstructure:"queueSize" yaml:"queueSize"`
	// Topic is the bus topic snapshots and notices are published on.
	Topic string `mapstructure:"topic" yaml:"topic"`
	// ExcludeLocked keeps locked objects out of picking entirely.
	ExcludeLocked bool `mapstructure:"excludeLocked" yaml:"excludeLocked"`
}

// MaxTickRate bounds Config.TickRate.
const MaxTickRate = 1000

func DefaultConfig() Config {
	return Config{
		TickRate:  60,
		QueueSize: 1024,
	}
}

type Controller struct {
	cfg Config

	store       *scene.Store
	catalog     *scene.Catalog
	session     *gesture.Session
	interpreter *gesture.Interpreter
	applier     *manipulation.Applier
	picker      *picking.Picker

	camera   *picking.Camera
	viewport picking.Viewport

	bus     bus.EventBus
	logger  log.Log
	metrics *metrics.Recorder

	commands  chan Command
	running   atomic.Bool
	latest    atomic.Pointer[Snapshot]
	lastHash  uint64
	published bool
	seq       uint64
}

type Options struct {
	Config       Config
	Gesture      gesture.Config
	Manipulation manipulation.Config
	Catalog      *scene.Catalog
	Store        *scene.Store
	Bus          bus.EventBus
	Logger       log.Log
	Metrics      *metrics.Recorder
}

func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = log.NewNop()
	}
	if opts.Catalog == nil {
		opts.Catalog = scene.DefaultCatalog()
	}
	if opts.Store == nil {
		opts.Store = scene.NewStore()
	}
	if opts.Bus == nil {
		opts.Bus = bus.New()
	}
	if opts.Gesture == (gesture.Config{}) {
		opts.Gesture = gesture.DefaultConfig()
	}
	if opts.Manipulation == (manipulation.Config{}) {
		opts.Manipulation = manipulation.DefaultConfig()
	}
	if opts.Config.QueueSize <= 0 {
		opts.Config.QueueSize = DefaultConfig().QueueSize
	}
	if opts.Config.TickRate <= 0 {
		opts.Config.TickRate = DefaultConfig().TickRate
	}
	if opts.Config.TickRate > MaxTickRate {
		opts.Config.TickRate = MaxTickRate
	}

	c := &Controller{
		cfg:      opts.Config,
		store:    opts.Store,
		catalog:  opts.Catalog,
		session:  gesture.NewSession(),
		applier:  manipulation.NewApplier(opts.Manipulation, opts.Logger, opts.Metrics),
		picker:   picking.NewPicker(opts.Logger, opts.Metrics),
		bus:      opts.Bus,
		logger:   opts.Logger.With(log.String("component", "controller")),
		metrics:  opts.Metrics,
		commands: make(chan Command, opts.Config.QueueSize),
	}
	c.interpreter = gesture.NewInterpreter(opts.Gesture, targets{c}, opts.Logger)
	c.latest.Store(&Snapshot{Mode: gesture.ModeMove, Objects: []ObjectState{}})
	return c
}

func (c *Controller) Catalog() *scene.Catalog {
	return c.catalog
}

func (c *Controller) Bus() bus.EventBus {
	return c.bus
}

// Topic is the bus topic snapshots and notices are published on.
func (c *Controller) Topic() string {
	return c.cfg.Topic
}

func (c *Controller) SetMode(mode gesture.Mode) {
	if mode == c.session.Mode {
		return
	}
	c.session.Mode = mode
	c.session.End()

	var msg string
	switch mode {
	case gesture.ModeMove:
		msg = "Move mode: drag the model with one finger"
	case gesture.ModeRotate:
		msg = "Rotate mode: drag horizontally to turn the model"
	case gesture.ModeScale:
		msg = "Scale mode: drag up or down to resize the model"
	}
	c.notify(NoticeModeChanged, "", msg)
}

func (c *Controller) Mode() gesture.Mode {
	return c.session.Mode
}

// SelectObject makes id the active object. Locked objects can be selected
// explicitly so they can be unlocked; gestures still leave them alone.
func (c *Controller) SelectObject(id scene.ObjectID) error {
	if !c.store.Exists(id) {
		return errors.Wrapf(scene.ErrObjectNotFound, "select %s", id)
	}
	c.session.End()
	if c.session.ActiveID == id {
		return nil
	}
	c.session.Select(id)
	c.notify(NoticeSelected, id, "")
	return nil
}

func (c *Controller) SelectedObject() (scene.ObjectID, bool) {
	return c.session.Active()
}

// SetLocked changes the lock flag. Locking the active object deselects it.
func (c *Controller) SetLocked(id scene.ObjectID, locked bool) error {
	if err := c.store.SetLocked(id, locked); err != nil {
		return errors.Wrapf(err, "lock %s", id)
	}
	if locked {
		if active, ok := c.session.Active(); ok && active == id {
			c.session.Deselect()
		}
		c.notify(NoticeFixed, id, "")
	} else {
		c.notify(NoticeUnfixed, id, "")
	}
	return nil
}

// ToggleLock flips the lock of the active object.
func (c *Controller) ToggleLock() error {
	id, ok := c.session.Active()
	if !ok {
		c.notify(NoticeNoSelection, "", "Select a model to lock first")
		return ErrNoSelection
	}
	return c.SetLocked(id, !c.store.Locked(id))
}

// ResetAll removes every object and returns to move mode.
func (c *Controller) ResetAll() {
	c.store.Clear()
	c.session.Reset()
	c.notify(NoticeSceneCleared, "", "")
}

// Place adds an instance of modelID and makes it active.
func (c *Controller) Place(modelID string) (scene.ObjectID, error) {
	model, ok := c.catalog.Get(modelID)
	if !ok {
		c.notify(NoticeUnknownModel, "", "")
		return "", errors.Wrapf(scene.ErrUnknownModel, "place %q", modelID)
	}
	id := c.store.Place(model, model.InitialTransform())
	c.session.End()
	c.session.Select(id)

	c.logger.Info("model placed",
		log.String("model_id", modelID),
		log.String("object_id", id.String()),
	)
	c.notify(NoticePlaced, id, fmt.Sprintf("%s placed! Use gestures to move it", model.Name))
	return id, nil
}

func (c *Controller) Remove(id scene.ObjectID) error {
	if !c.store.Remove(id) {
		return errors.Wrapf(scene.ErrObjectNotFound, "remove %s", id)
	}
	if active, ok := c.session.Active(); ok && active == id {
		c.session.Deselect()
	}
	c.notify(NoticeRemoved, id, "")
	return nil
}

// ScaleStep grows or shrinks the active object by the configured factor.
func (c *Controller) ScaleStep(up bool) error {
	id, ok := c.session.Active()
	if !ok {
		c.notify(NoticeNoSelection, "", "")
		return ErrNoSelection
	}
	if c.store.Locked(id) {
		c.notify(NoticeLocked, id, "")
		return nil
	}

	cfg := c.applier.Config()
	factor, kind := cfg.ScaleDownFactor, NoticeScaledDown
	if up {
		factor, kind = cfg.ScaleUpFactor, NoticeScaledUp
	}
	if c.applier.ScaleStep(c.store, id, factor) {
		c.notify(kind, id, "")
	}
	return nil
}

// ResetObject restores the placement transform, even for locked objects.
func (c *Controller) ResetObject(id scene.ObjectID) error {
	if err := c.store.ResetTransform(id); err != nil {
		return errors.Wrapf(err, "reset %s", id)
	}
	return nil
}

func (c *Controller) SetCamera(cam picking.Camera) {
	c.camera = &cam
}

func (c *Controller) SetViewport(vp picking.Viewport) {
	c.viewport = vp
}

// Objects returns copies of every placed object.
func (c *Controller) Objects() []scene.PlacedObject {
	return c.store.All()
}

// Restore replaces the scene with objects. Bounds and geometry are taken
// from the catalog; objects of unknown models are dropped.
func (c *Controller) Restore(objects []scene.PlacedObject) int {
	kept := make([]scene.PlacedObject, 0, len(objects))
	for _, obj := range objects {
		model, ok := c.catalog.Get(obj.ModelID)
		if !ok {
			c.logger.Warn("restored object has unknown model",
				log.String("object_id", obj.ID.String()),
				log.String("model_id", obj.ModelID),
			)
			continue
		}
		obj.Bounds = model.LocalBounds()
		obj.Geometry = model.Geometry
		kept = append(kept, obj)
	}
	c.store.Restore(kept)
	c.session.Reset()
	c.notify(NoticeRestored, "", "")
	return c.store.Len()
}
