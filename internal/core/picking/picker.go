package picking

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/arview/internal/core/geom"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/core/observability/metrics"
	"github.com/zeusync/arview/internal/core/scene"
)

// Hit is the nearest intersection found by a pick.
type Hit struct {
	ID       scene.ObjectID
	Distance float64
	Point    mgl64.Vec3
}

// Picker maps a screen point to the nearest placed object under it.
type Picker struct {
	logger  log.Log
	metrics *metrics.Recorder
}

func NewPicker(logger log.Log, rec *metrics.Recorder) *Picker {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Picker{
		logger:  logger.With(log.String("component", "picker")),
		metrics: rec,
	}
}

// Pick reports a miss while the camera or viewport is not ready.
func (p *Picker) Pick(px, py float64, cam *Camera, vp Viewport, candidates []Candidate) (Hit, bool) {
	if cam == nil || !cam.Valid() || !vp.Ready() {
		p.logger.Debug("pick skipped, camera or viewport not ready")
		p.metrics.Pick(false)
		return Hit{}, false
	}

	x, y := vp.NDC(px, py)
	ray, ok := cam.Ray(x, y, vp.Width/vp.Height)
	if !ok {
		p.metrics.Pick(false)
		return Hit{}, false
	}
	return p.Cast(ray, candidates)
}

// Cast tests r against candidates. On equal distances the earlier
// candidate wins; candidates that fail the test are logged and skipped.
func (p *Picker) Cast(r geom.Ray, candidates []Candidate) (Hit, bool) {
	var (
		best  Hit
		found bool
	)
	for _, c := range candidates {
		if c.Pickable == nil {
			continue
		}
		if _, _, ok := c.Pickable.BoundingVolume().IntersectRay(r); !ok {
			continue
		}
		d, ok, err := c.Pickable.IntersectRay(r)
		if err != nil {
			p.logger.Warn("intersection test failed",
				log.String("object_id", c.ID.String()),
				log.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}
		if !found || d < best.Distance {
			best = Hit{ID: c.ID, Distance: d, Point: r.At(d)}
			found = true
		}
	}
	p.metrics.Pick(found)
	return best, found
}
