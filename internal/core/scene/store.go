package scene

import (
	"github.com/google/uuid"
	"github.com/zeusync/arview/internal/core/geom"
)

// ObjectID identifies a placed model instance.
type ObjectID string

func (id ObjectID) String() string { return string(id) }

// PlacedObject is one model instance in the scene.
type PlacedObject struct {
	ID        ObjectID  `json:"id"`
	ModelID   string    `json:"modelId"`
	Transform Transform `json:"transform"`
	// Initial is the transform at placement time, restored by ResetTransform.
	Initial Transform `json:"initial"`
	Locked  bool      `json:"locked"`
	Visible bool      `json:"visible"`
	// Bounds and Geometry are in model-local space.
	Bounds   geom.AABB       `json:"-"`
	Geometry []geom.Triangle `json:"-"`
}

// Store holds every placed object in placement order.
//
// It has no internal locking: the controller goroutine is its only writer
// and readers receive copies through snapshots.
type Store struct {
	objects map[ObjectID]*PlacedObject
	order   []ObjectID
	newID   func() ObjectID
}

func NewStore() *Store {
	return NewStoreWithIDs(func() ObjectID { return ObjectID(uuid.NewString()) })
}

// NewStoreWithIDs uses gen for new object ids.
func NewStoreWithIDs(gen func() ObjectID) *Store {
	return &Store{
		objects: make(map[ObjectID]*PlacedObject),
		newID:   gen,
	}
}

// Place adds a visible, unlocked instance of model with transform t.
func (s *Store) Place(model Model, t Transform) ObjectID {
	id := s.newID()
	for s.objects[id] != nil {
		id = s.newID()
	}
	s.objects[id] = &PlacedObject{
		ID:        id,
		ModelID:   model.ID,
		Transform: t,
		Initial:   t,
		Visible:   true,
		Bounds:    model.LocalBounds(),
		Geometry:  model.Geometry,
	}
	s.order = append(s.order, id)
	return id
}

func (s *Store) Get(id ObjectID) (PlacedObject, bool) {
	obj, ok := s.objects[id]
	if !ok {
		return PlacedObject{}, false
	}
	return *obj, true
}

func (s *Store) Exists(id ObjectID) bool {
	_, ok := s.objects[id]
	return ok
}

func (s *Store) Transform(id ObjectID) (Transform, bool) {
	obj, ok := s.objects[id]
	if !ok {
		return Transform{}, false
	}
	return obj.Transform, true
}

func (s *Store) SetTransform(id ObjectID, t Transform) error {
	obj, ok := s.objects[id]
	if !ok {
		return ErrObjectNotFound
	}
	obj.Transform = t
	return nil
}

// Update mutates the transform of id in place. It reports false when id is unknown.
func (s *Store) Update(id ObjectID, fn func(*Transform)) bool {
	obj, ok := s.objects[id]
	if !ok {
		return false
	}
	fn(&obj.Transform)
	return true
}

func (s *Store) Locked(id ObjectID) bool {
	obj, ok := s.objects[id]
	return ok && obj.Locked
}

func (s *Store) SetLocked(id ObjectID, locked bool) error {
	obj, ok := s.objects[id]
	if !ok {
		return ErrObjectNotFound
	}
	obj.Locked = locked
	return nil
}

func (s *Store) SetVisible(id ObjectID, visible bool) error {
	obj, ok := s.objects[id]
	if !ok {
		return ErrObjectNotFound
	}
	obj.Visible = visible
	return nil
}

// ResetTransform restores the placement transform. Locked objects are reset too.
func (s *Store) ResetTransform(id ObjectID) error {
	obj, ok := s.objects[id]
	if !ok {
		return ErrObjectNotFound
	}
	obj.Transform = obj.Initial
	return nil
}

func (s *Store) Remove(id ObjectID) bool {
	if _, ok := s.objects[id]; !ok {
		return false
	}
	delete(s.objects, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) Clear() {
	s.objects = make(map[ObjectID]*PlacedObject)
	s.order = nil
}

// Restore replaces the whole store content, keeping the given ids.
func (s *Store) Restore(objects []PlacedObject) {
	s.Clear()
	for _, obj := range objects {
		if _, dup := s.objects[obj.ID]; dup || obj.ID == "" {
			continue
		}
		o := obj
		s.objects[o.ID] = &o
		s.order = append(s.order, o.ID)
	}
}

// All returns copies of every object in placement order.
func (s *Store) All() []PlacedObject {
	out := make([]PlacedObject, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.objects[id])
	}
	return out
}

func (s *Store) Len() int {
	return len(s.order)
}
