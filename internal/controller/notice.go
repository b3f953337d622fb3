package controller

import (
	"github.com/zeusync/arview/internal/core/events/bus"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/core/scene"
)

type NoticeKind string

const (
	NoticeLocked       NoticeKind = "locked"
	NoticeNoSelection  NoticeKind = "no-selection"
	NoticeSelected     NoticeKind = "selected"
	NoticePlaced       NoticeKind = "placed"
	NoticeRemoved      NoticeKind = "removed"
	NoticeFixed        NoticeKind = "fixed"
	NoticeUnfixed      NoticeKind = "unfixed"
	NoticeScaledUp     NoticeKind = "scaled-up"
	NoticeScaledDown   NoticeKind = "scaled-down"
	NoticeModeChanged  NoticeKind = "mode-changed"
	NoticeSceneCleared NoticeKind = "scene-cleared"
	NoticeRestored     NoticeKind = "restored"
	NoticeUnknownModel NoticeKind = "unknown-model"
)

// Notice is an informational message for the UI. It never signals a fault
// in the controller itself.
type Notice struct {
	Kind     NoticeKind     `json:"kind"`
	ObjectID scene.ObjectID `json:"objectId,omitempty"`
	Message  string         `json:"message"`
}

var noticeMessages = map[NoticeKind]string{
	NoticeLocked:       "Model is locked",
	NoticeNoSelection:  "Select a model first",
	NoticeSelected:     "Model selected",
	NoticeRemoved:      "Model removed",
	NoticeFixed:        "Model locked. You can place another one",
	NoticeUnfixed:      "Model unlocked",
	NoticeScaledUp:     "Scale increased",
	NoticeScaledDown:   "Scale decreased",
	NoticeSceneCleared: "Scene cleared",
	NoticeRestored:     "Scene restored",
	NoticeUnknownModel: "Model not found",
}

func (c *Controller) notify(kind NoticeKind, id scene.ObjectID, message string) {
	if message == "" {
		message = noticeMessages[kind]
	}
	n := Notice{Kind: kind, ObjectID: id, Message: message}

	switch kind {
	case NoticeLocked, NoticeNoSelection:
		c.metrics.Suppressed(string(kind))
	}
	c.logger.Debug("notice",
		log.String("kind", string(kind)),
		log.String("object_id", id.String()),
	)
	if err := c.bus.PublishToTopic(c.cfg.Topic, bus.NewEvent(bus.TypeNotice, source, n)); err != nil {
		c.logger.Warn("notice delivery failed", log.Error(err))
	}
}
