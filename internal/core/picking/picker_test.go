package picking

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/arview/internal/core/geom"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/core/scene"
)

type stubPickable struct {
	distance float64
	hit      bool
	err      error
}

func (s stubPickable) BoundingVolume() geom.AABB {
	return geom.AABB{Min: mgl64.Vec3{-1e6, -1e6, -1e6}, Max: mgl64.Vec3{1e6, 1e6, 1e6}}
}

func (s stubPickable) IntersectRay(geom.Ray) (float64, bool, error) {
	return s.distance, s.hit, s.err
}

var testViewport = Viewport{Left: 10, Top: 20, Width: 200, Height: 100}

func centre() (float64, float64) {
	return testViewport.Left + testViewport.Width/2, testViewport.Top + testViewport.Height/2
}

func TestViewportNDC(t *testing.T) {
	x, y := testViewport.NDC(110, 70)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, 0, y, 1e-12)

	x, y = testViewport.NDC(10, 20)
	assert.InDelta(t, -1, x, 1e-12)
	assert.InDelta(t, 1, y, 1e-12)

	x, y = testViewport.NDC(210, 120)
	assert.InDelta(t, 1, x, 1e-12)
	assert.InDelta(t, -1, y, 1e-12)

	assert.True(t, testViewport.Ready())
	assert.False(t, Viewport{Width: 0, Height: 10}.Ready())
}

func TestCameraRayThroughCentre(t *testing.T) {
	cam := DefaultCamera()
	cam.Near, cam.Far = 0.1, 100
	require.True(t, cam.Valid())

	r, ok := cam.Ray(0, 0, 2)
	require.True(t, ok)
	assert.True(t, r.Origin.ApproxEqual(mgl64.Vec3{}))
	assert.True(t, r.Dir.ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, 1e-9), "%v", r.Dir)

	// the top edge of the frustum is fovY/2 above the axis
	r, ok = cam.Ray(0, 1, 2)
	require.True(t, ok)
	angle := math.Atan2(r.Dir.Y(), -r.Dir.Z())
	assert.InDelta(t, mgl64.DegToRad(cam.FovY/2), angle, 1e-9)
}

func TestCameraValid(t *testing.T) {
	cam := DefaultCamera()
	cam.FovY = 0
	assert.False(t, cam.Valid())

	cam = DefaultCamera()
	cam.Far = cam.Near
	assert.False(t, cam.Valid())

	cam = DefaultCamera()
	cam.Target = cam.Position
	assert.False(t, cam.Valid())
}

func TestPickNearestObject(t *testing.T) {
	store := scene.NewStore()
	model := scene.Model{ID: "box", Path: "box.glb", Bounds: scene.Bounds{Min: scene.Uniform(-0.5), Max: scene.Uniform(0.5)}}
	far := store.Place(model, scene.Identity().WithPosition(scene.V3(0.1, 0.2, -5)))
	near := store.Place(model, scene.Identity().WithPosition(scene.V3(0.1, 0.2, -3)))

	p := NewPicker(log.NewNop(), nil)
	cam := DefaultCamera()
	px, py := centre()

	hit, ok := p.Pick(px, py, &cam, testViewport, Candidates(store, false))
	require.True(t, ok)
	assert.Equal(t, near, hit.ID)
	assert.InDelta(t, 2.5, hit.Distance, 1e-6)
	assert.True(t, hit.Point.ApproxEqualThreshold(mgl64.Vec3{0, 0, -2.5}, 1e-6))

	require.NoError(t, store.SetVisible(near, false))
	hit, ok = p.Pick(px, py, &cam, testViewport, Candidates(store, false))
	require.True(t, ok)
	assert.Equal(t, far, hit.ID, "hidden objects are not pickable")

	// the left edge of the screen looks well past both boxes
	_, ok = p.Pick(testViewport.Left, py, &cam, testViewport, Candidates(store, false))
	assert.False(t, ok)
}

func TestPickRespectsScale(t *testing.T) {
	store := scene.NewStore()
	model := scene.Model{ID: "box", Path: "box.glb", Bounds: scene.Bounds{Min: scene.Uniform(-0.5), Max: scene.Uniform(0.5)}}
	id := store.Place(model, scene.Identity().WithPosition(scene.V3(0.8, 0.2, -3)))

	p := NewPicker(nil, nil)
	cam := DefaultCamera()
	px, py := centre()

	_, ok := p.Pick(px, py, &cam, testViewport, Candidates(store, false))
	assert.False(t, ok)

	store.Update(id, func(tr *scene.Transform) { *tr = tr.WithUniformScale(2) })
	hit, ok := p.Pick(px, py, &cam, testViewport, Candidates(store, false))
	require.True(t, ok)
	assert.Equal(t, id, hit.ID)
	assert.InDelta(t, 2, hit.Distance, 1e-6)
}

func TestPickTieKeepsFirstCandidate(t *testing.T) {
	p := NewPicker(nil, nil)
	r := geom.NewRay(mgl64.Vec3{}, mgl64.Vec3{0, 0, -1})

	hit, ok := p.Cast(r, []Candidate{
		{ID: "a", Pickable: stubPickable{distance: 5, hit: true}},
		{ID: "b", Pickable: stubPickable{distance: 3, hit: true}},
		{ID: "c", Pickable: stubPickable{distance: 3, hit: true}},
	})
	require.True(t, ok)
	assert.Equal(t, scene.ObjectID("b"), hit.ID)
	assert.Equal(t, 3.0, hit.Distance)
}

func TestPickSkipsFailingCandidates(t *testing.T) {
	p := NewPicker(nil, nil)
	r := geom.NewRay(mgl64.Vec3{}, mgl64.Vec3{0, 0, -1})

	hit, ok := p.Cast(r, []Candidate{
		{ID: "broken", Pickable: stubPickable{distance: 1, hit: true, err: errors.New("bad mesh")}},
		{ID: "nil"},
		{ID: "miss", Pickable: stubPickable{}},
		{ID: "good", Pickable: stubPickable{distance: 4, hit: true}},
	})
	require.True(t, ok)
	assert.Equal(t, scene.ObjectID("good"), hit.ID)
}

func TestPickNotReady(t *testing.T) {
	p := NewPicker(nil, nil)
	candidates := []Candidate{{ID: "a", Pickable: stubPickable{distance: 1, hit: true}}}
	cam := DefaultCamera()

	_, ok := p.Pick(0, 0, nil, testViewport, candidates)
	assert.False(t, ok)

	_, ok = p.Pick(0, 0, &cam, Viewport{}, candidates)
	assert.False(t, ok)
}

func TestMeshPickableRejectsInvalidGeometry(t *testing.T) {
	nan := math.NaN()
	m := NewMeshPickable(mgl64.Ident4(), geom.AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}, []geom.Triangle{
		{A: mgl64.Vec3{nan, 0, 0}, B: mgl64.Vec3{1, 0, 0}, C: mgl64.Vec3{0, 1, 0}},
	})
	_, _, err := m.IntersectRay(geom.NewRay(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -1}))
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestCandidatesExcludeLocked(t *testing.T) {
	store := scene.NewStore()
	model := scene.Model{ID: "box", Path: "box.glb", Bounds: scene.Bounds{Min: scene.Uniform(-0.5), Max: scene.Uniform(0.5)}}
	a := store.Place(model, scene.Identity())
	b := store.Place(model, scene.Identity())
	require.NoError(t, store.SetLocked(a, true))

	assert.Len(t, Candidates(store, false), 2)
	only := Candidates(store, true)
	require.Len(t, only, 1)
	assert.Equal(t, b, only[0].ID)
}
