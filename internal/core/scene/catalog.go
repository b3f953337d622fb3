package scene

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/zeusync/arview/internal/core/geom"
	"gopkg.in/yaml.v3"
)

// DefaultPlacement is where a new model appears when the catalog entry
// does not say otherwise: three units in front of the camera at half size.
var DefaultPlacement = Transform{
	Position: V3(0, 0, -3),
	Scale:    Uniform(0.5),
}

// Bounds is the model-local bounding box of an asset.
type Bounds struct {
	Min Vec3 `json:"min" yaml:"min"`
	Max Vec3 `json:"max" yaml:"max"`
}

// Model is a catalog entry. The front-end loads the asset at Path; the
// core only needs its bounds for picking.
type Model struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Icon      string     `json:"icon,omitempty" yaml:"icon,omitempty"`
	Path      string     `json:"path" yaml:"path"`
	Bounds    Bounds     `json:"bounds" yaml:"bounds"`
	Placement *Transform `json:"placement,omitempty" yaml:"placement,omitempty"`

	// Geometry optionally replaces the box tessellation of Bounds.
	Geometry []geom.Triangle `json:"-" yaml:"-"`
}

func (m Model) LocalBounds() geom.AABB {
	return geom.AABB{Min: m.Bounds.Min.Vec(), Max: m.Bounds.Max.Vec()}
}

// InitialTransform is the placement transform for new instances of m.
func (m Model) InitialTransform() Transform {
	if m.Placement != nil {
		t := *m.Placement
		if t.Scale == (Vec3{}) {
			t.Scale = DefaultPlacement.Scale
		}
		return t
	}
	return DefaultPlacement
}

func (m Model) validate() error {
	if m.ID == "" {
		return errors.Wrap(ErrInvalidModel, "missing id")
	}
	if m.Path == "" {
		return errors.Wrapf(ErrInvalidModel, "model %q: missing path", m.ID)
	}
	if m.LocalBounds().IsEmpty() {
		return errors.Wrapf(ErrInvalidModel, "model %q: bounds min exceeds max", m.ID)
	}
	return nil
}

// Catalog is the ordered list of models a user can place.
type Catalog struct {
	models []Model
	byID   map[string]int
}

type catalogFile struct {
	Models []Model `yaml:"models"`
}

func NewCatalog(models ...Model) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(models))}
	for _, m := range models {
		if err := m.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, errors.Wrapf(ErrDuplicateModel, "model %q", m.ID)
		}
		c.byID[m.ID] = len(c.models)
		c.models = append(c.models, m)
	}
	return c, nil
}

// LoadCatalog decodes a YAML document with a top-level "models" list.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var f catalogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return NewCatalog(f.Models...)
}

func LoadCatalogFile(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open catalog %s", path)
	}
	defer file.Close()
	return LoadCatalog(file)
}

// DefaultCatalog is used when no catalog file is configured.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		Model{
			ID: "tree", Name: "Christmas tree", Icon: "🎄", Path: "models/tree.glb",
			Bounds: Bounds{Min: V3(-0.6, 0, -0.6), Max: V3(0.6, 2, 0.6)},
		},
		Model{
			ID: "gift", Name: "Gift box", Icon: "🎁", Path: "models/gift.glb",
			Bounds: Bounds{Min: V3(-0.5, 0, -0.5), Max: V3(0.5, 0.8, 0.5)},
		},
		Model{
			ID: "snowman", Name: "Snowman", Icon: "⛄", Path: "models/snowman.glb",
			Bounds: Bounds{Min: V3(-0.5, 0, -0.5), Max: V3(0.5, 1.6, 0.5)},
		},
		Model{
			ID: "chair", Name: "Chair", Icon: "🪑", Path: "models/chair.glb",
			Bounds: Bounds{Min: V3(-0.4, 0, -0.4), Max: V3(0.4, 1, 0.4)},
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Get(id string) (Model, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Model{}, false
	}
	return c.models[i], true
}

func (c *Catalog) Models() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

func (c *Catalog) Len() int {
	return len(c.models)
}
