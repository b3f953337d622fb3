package controller

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/arview/internal/core/events/bus"
	"github.com/zeusync/arview/internal/core/gesture"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/core/scene"
)

// ObjectState is what a renderer needs to draw one object.
type ObjectState struct {
	ID        scene.ObjectID  `json:"id"`
	ModelID   string          `json:"modelId"`
	Transform scene.Transform `json:"transform"`
	Locked    bool            `json:"locked"`
	Visible   bool            `json:"visible"`
	Active    bool            `json:"active"`
}

// Snapshot is the full scene state at one tick.
type Snapshot struct {
	Seq      uint64         `json:"seq"`
	Mode     gesture.Mode   `json:"mode"`
	ActiveID scene.ObjectID `json:"activeId,omitempty"`
	Objects  []ObjectState  `json:"objects"`
}

func (s Snapshot) Len() int {
	return len(s.Objects)
}

// Snapshot captures the current scene. Seq is filled in on publication.
func (c *Controller) Snapshot() Snapshot {
	active, _ := c.session.Active()
	objects := c.store.All()
	snap := Snapshot{
		Mode:     c.session.Mode,
		ActiveID: active,
		Objects:  make([]ObjectState, 0, len(objects)),
	}
	for _, obj := range objects {
		snap.Objects = append(snap.Objects, ObjectState{
			ID:        obj.ID,
			ModelID:   obj.ModelID,
			Transform: obj.Transform,
			Locked:    obj.Locked,
			Visible:   obj.Visible,
			Active:    obj.ID == active,
		})
	}
	return snap
}

// Latest is the last published snapshot. Safe from any goroutine.
func (c *Controller) Latest() Snapshot {
	return *c.latest.Load()
}

// Flush publishes a snapshot when the scene changed since the last one.
func (c *Controller) Flush() bool {
	snap := c.Snapshot()
	h := hashSnapshot(&snap)
	if c.published && h == c.lastHash {
		return false
	}
	c.seq++
	snap.Seq = c.seq
	c.lastHash, c.published = h, true
	c.latest.Store(&snap)

	if err := c.bus.PublishToTopic(c.cfg.Topic, bus.NewEvent(bus.TypeSnapshot, source, snap)); err != nil {
		c.logger.Warn("snapshot delivery failed", log.Uint64("seq", snap.Seq), log.Error(err))
	}
	return true
}

func hashSnapshot(s *Snapshot) uint64 {
	d := xxhash.New()
	var buf [8]byte
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	putVec := func(v scene.Vec3) {
		putU64(math.Float64bits(v.X))
		putU64(math.Float64bits(v.Y))
		putU64(math.Float64bits(v.Z))
	}
	putBool := func(b bool) {
		if b {
			putU64(1)
		} else {
			putU64(0)
		}
	}

	putU64(uint64(s.Mode))
	_, _ = d.WriteString(string(s.ActiveID))
	putU64(uint64(len(s.Objects)))
	for _, o := range s.Objects {
		_, _ = d.WriteString(string(o.ID))
		_, _ = d.WriteString(o.ModelID)
		putVec(o.Transform.Position)
		putVec(o.Transform.Rotation)
		putVec(o.Transform.Scale)
		putBool(o.Locked)
		putBool(o.Visible)
	}
	return d.Sum64()
}
