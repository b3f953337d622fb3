package storage

import (
	"time"

	"github.com/zeusync/arview/internal/core/scene"
)

// SceneRecord is a named, saved arrangement of placed objects.
type SceneRecord struct {
	ID        uint   `gorm:"primarykey"`
	Name      string `gorm:"size:128;not null;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Objects   []ObjectRecord `gorm:"foreignKey:SceneID"`
}

func (SceneRecord) TableName() string { return "scenes" }

// ObjectRecord is one placed object of a saved scene.
type ObjectRecord struct {
	ID       uint   `gorm:"primarykey"`
	SceneID  uint   `gorm:"not null;index"`
	Ordinal  int    `gorm:"not null"`
	ObjectID string `gorm:"size:64;not null"`
	ModelID  string `gorm:"size:128;not null"`

	Position scene.Vec3 `gorm:"embedded;embeddedPrefix:pos_"`
	Rotation scene.Vec3 `gorm:"embedded;embeddedPrefix:rot_"`
	Scale    scene.Vec3 `gorm:"embedded;embeddedPrefix:scale_"`

	InitialPosition scene.Vec3 `gorm:"embedded;embeddedPrefix:init_pos_"`
	InitialRotation scene.Vec3 `gorm:"embedded;embeddedPrefix:init_rot_"`
	InitialScale    scene.Vec3 `gorm:"embedded;embeddedPrefix:init_scale_"`

	Locked  bool
	Visible bool
}

func (ObjectRecord) TableName() string { return "scene_objects" }

func toRecord(i int, obj scene.PlacedObject) ObjectRecord {
	return ObjectRecord{
		Ordinal:         i,
		ObjectID:        obj.ID.String(),
		ModelID:         obj.ModelID,
		Position:        obj.Transform.Position,
		Rotation:        obj.Transform.Rotation,
		Scale:           obj.Transform.Scale,
		InitialPosition: obj.Initial.Position,
		InitialRotation: obj.Initial.Rotation,
		InitialScale:    obj.Initial.Scale,
		Locked:          obj.Locked,
		Visible:         obj.Visible,
	}
}

// toObject leaves Bounds and Geometry empty; they belong to the catalog.
func (r ObjectRecord) toObject() scene.PlacedObject {
	return scene.PlacedObject{
		ID:      scene.ObjectID(r.ObjectID),
		ModelID: r.ModelID,
		Transform: scene.Transform{
			Position: r.Position,
			Rotation: r.Rotation,
			Scale:    r.Scale,
		},
		Initial: scene.Transform{
			Position: r.InitialPosition,
			Rotation: r.InitialRotation,
			Scale:    r.InitialScale,
		},
		Locked:  r.Locked,
		Visible: r.Visible,
	}
}

// SceneInfo summarizes a saved scene.
type SceneInfo struct {
	Name      string    `json:"name"`
	Objects   int       `json:"objects"`
	UpdatedAt time.Time `json:"updatedAt"`
}
