package manipulation

import (
	"github.com/zeusync/arview/internal/core/gesture"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/core/observability/metrics"
	"github.com/zeusync/arview/internal/core/scene"
)

type Config struct {
	// MoveSensitivity is world units per screen pixel.
	MoveSensitivity float64 `mapstructure:"moveSensitivity" yaml:"moveSensitivity"`
	// RotateSensitivity is degrees per screen pixel.
	RotateSensitivity float64 `mapstructure:"rotateSensitivity" yaml:"rotateSensitivity"`
	// HorizontalOnly restricts rotation to yaw and pins pitch and roll at zero.
	HorizontalOnly  bool    `mapstructure:"horizontalOnly" yaml:"horizontalOnly"`
	MinScale        float64 `mapstructure:"minScale" yaml:"minScale"`
	MaxScale        float64 `mapstructure:"maxScale" yaml:"maxScale"`
	ScaleUpFactor   float64 `mapstructure:"scaleUpFactor" yaml:"scaleUpFactor"`
	ScaleDownFactor float64 `mapstructure:"scaleDownFactor" yaml:"scaleDownFactor"`
}

func DefaultConfig() Config {
	return Config{
		MoveSensitivity:   0.005,
		RotateSensitivity: 1,
		HorizontalOnly:    true,
		MinScale:          0.05,
		MaxScale:          5,
		ScaleUpFactor:     1.2,
		ScaleDownFactor:   0.8,
	}
}

// Applier mutates the transform of one object per intent.
type Applier struct {
	cfg     Config
	logger  log.Log
	metrics *metrics.Recorder
}

func NewApplier(cfg Config, logger log.Log, rec *metrics.Recorder) *Applier {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Applier{
		cfg:     cfg,
		logger:  logger.With(log.String("component", "manipulation")),
		metrics: rec,
	}
}

func (a *Applier) Config() Config {
	return a.cfg
}

// Apply reports whether the target's transform changed. Locked or missing
// targets and non-mutating intents are skipped.
func (a *Applier) Apply(store *scene.Store, in gesture.Intent) bool {
	if !in.Mutates() {
		return false
	}
	if !a.mutable(store, in.Target, in.Kind.String()) {
		return false
	}

	changed := a.update(store, in.Target, func(t *scene.Transform) {
		switch in.Kind {
		case gesture.IntentMove:
			t.Position.X += in.DX * a.cfg.MoveSensitivity
			t.Position.Y -= in.DY * a.cfg.MoveSensitivity
		case gesture.IntentRotate:
			t.Rotation.Y += in.DX * a.cfg.RotateSensitivity
			if a.cfg.HorizontalOnly {
				t.Rotation.X, t.Rotation.Z = 0, 0
			} else {
				t.Rotation.X += in.DY * a.cfg.RotateSensitivity
			}
		case gesture.IntentScale:
			t.Scale = scene.Uniform(a.ClampScale(in.Scale))
		}
	})
	if changed {
		a.metrics.IntentApplied(in.Kind.String())
	}
	return changed
}

// ScaleStep multiplies the current uniform scale by factor, clamped.
func (a *Applier) ScaleStep(store *scene.Store, id scene.ObjectID, factor float64) bool {
	if !a.mutable(store, id, "scale-step") {
		return false
	}
	changed := a.update(store, id, func(t *scene.Transform) {
		t.Scale = scene.Uniform(a.ClampScale(t.UniformScale() * factor))
	})
	if changed {
		a.metrics.IntentApplied("scale-step")
	}
	return changed
}

func (a *Applier) ClampScale(s float64) float64 {
	if s < a.cfg.MinScale {
		return a.cfg.MinScale
	}
	if s > a.cfg.MaxScale {
		return a.cfg.MaxScale
	}
	return s
}

func (a *Applier) mutable(store *scene.Store, id scene.ObjectID, kind string) bool {
	if !store.Exists(id) {
		a.logger.Debug("intent for missing object skipped",
			log.String("object_id", id.String()),
			log.String("kind", kind),
		)
		return false
	}
	if store.Locked(id) {
		a.metrics.Suppressed("locked")
		return false
	}
	return true
}

func (a *Applier) update(store *scene.Store, id scene.ObjectID, fn func(*scene.Transform)) bool {
	before, _ := store.Transform(id)
	store.Update(id, fn)
	after, _ := store.Transform(id)
	return before != after
}
