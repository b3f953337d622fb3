package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/zeusync/arview/internal/core/geom"
	"github.com/zeusync/arview/internal/core/scene"
)

var ErrInvalidGeometry = errors.New("invalid geometry")

// Pickable is what the picker needs from a scene-graph backend.
type Pickable interface {
	BoundingVolume() geom.AABB
	// IntersectRay returns the nearest hit distance along r.
	IntersectRay(r geom.Ray) (float64, bool, error)
}

// Candidate pairs an object id with its pickable shape.
type Candidate struct {
	ID       scene.ObjectID
	Pickable Pickable
}

// MeshPickable tests a ray against local-space triangles placed by a world matrix.
type MeshPickable struct {
	world     mgl64.Mat4
	bounds    geom.AABB
	triangles []geom.Triangle
}

var _ Pickable = (*MeshPickable)(nil)

// NewMeshPickable uses the box faces of bounds when triangles is empty.
func NewMeshPickable(world mgl64.Mat4, bounds geom.AABB, triangles []geom.Triangle) *MeshPickable {
	if len(triangles) == 0 && !bounds.IsEmpty() {
		triangles = geom.BoxTriangles(bounds)
	}
	return &MeshPickable{world: world, bounds: bounds, triangles: triangles}
}

// ObjectPickable builds the pickable for a placed object.
func ObjectPickable(obj scene.PlacedObject) *MeshPickable {
	bounds := obj.Bounds
	if len(obj.Geometry) > 0 {
		bounds = geom.EmptyAABB()
		for _, tri := range obj.Geometry {
			bounds = bounds.ExpandByPoint(tri.A).ExpandByPoint(tri.B).ExpandByPoint(tri.C)
		}
	}
	return NewMeshPickable(obj.Transform.Matrix(), bounds, obj.Geometry)
}

func (m *MeshPickable) BoundingVolume() geom.AABB {
	return m.bounds.Transform(m.world)
}

func (m *MeshPickable) IntersectRay(r geom.Ray) (float64, bool, error) {
	best := math.Inf(1)
	hit := false
	for i, tri := range m.triangles {
		if !tri.Valid() {
			return 0, false, errors.Wrapf(ErrInvalidGeometry, "triangle %d has a non-finite vertex", i)
		}
		d, ok := tri.Transform(m.world).IntersectRay(r)
		if ok && d < best {
			best = d
			hit = true
		}
	}
	if !hit {
		return 0, false, nil
	}
	return best, true, nil
}

// Candidates lists the visible objects of store in placement order.
func Candidates(store *scene.Store, excludeLocked bool) []Candidate {
	objects := store.All()
	out := make([]Candidate, 0, len(objects))
	for _, obj := range objects {
		if !obj.Visible {
			continue
		}
		if excludeLocked && obj.Locked {
			continue
		}
		out = append(out, Candidate{ID: obj.ID, Pickable: ObjectPickable(obj)})
	}
	return out
}
