package server

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/zeusync/arview/internal/controller"
	"github.com/zeusync/arview/internal/core/gesture"
	"github.com/zeusync/arview/internal/core/picking"
	"github.com/zeusync/arview/internal/core/scene"
)

// Message types on the WebSocket.
const (
	// client to server
	MessageInput    = "input"
	MessageCamera   = "camera"
	MessageViewport = "viewport"
	MessageCommand  = "command"

	// server to client
	MessageSnapshot = "snapshot"
	MessageNotice   = "notice"
	MessageError    = "error"
)

// Command names carried by a command message.
const (
	CommandSetMode     = "setMode"
	CommandSelect      = "select"
	CommandLock        = "lock"
	CommandUnlock      = "unlock"
	CommandToggleLock  = "toggleLock"
	CommandPlace       = "place"
	CommandRemove      = "remove"
	CommandScaleUp     = "scaleUp"
	CommandScaleDown   = "scaleDown"
	CommandResetObject = "resetObject"
	CommandResetAll    = "resetAll"
)

// Message is the envelope of every WebSocket frame.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type CommandPayload struct {
	Name     string         `json:"name"`
	ObjectID scene.ObjectID `json:"objectId,omitempty"`
	Model    string         `json:"model,omitempty"`
	Mode     string         `json:"mode,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func encodeMessage(typ string, data any) ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}{typ, data})
}

func decodeData(msg Message, v any) error {
	if len(msg.Data) == 0 {
		return errors.Wrapf(ErrInvalidMessage, "%s: missing data", msg.Type)
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return errors.Wrapf(ErrInvalidMessage, "%s: %v", msg.Type, err)
	}
	return nil
}

// dispatch validates msg and queues it on the controller.
func (s *Server) dispatch(c *client, msg Message) error {
	var cmd controller.Command

	switch msg.Type {
	case MessageInput:
		var ev gesture.Event
		if err := decodeData(msg, &ev); err != nil {
			return err
		}
		cmd = func(ctrl *controller.Controller) { ctrl.HandleInput(ev) }

	case MessageCamera:
		var cam picking.Camera
		if err := decodeData(msg, &cam); err != nil {
			return err
		}
		if !cam.Valid() {
			return errors.Wrap(ErrInvalidMessage, "camera: degenerate pose or projection")
		}
		cmd = func(ctrl *controller.Controller) { ctrl.SetCamera(cam) }

	case MessageViewport:
		var vp picking.Viewport
		if err := decodeData(msg, &vp); err != nil {
			return err
		}
		cmd = func(ctrl *controller.Controller) { ctrl.SetViewport(vp) }

	case MessageCommand:
		var p CommandPayload
		if err := decodeData(msg, &p); err != nil {
			return err
		}
		op, err := commandFor(p)
		if err != nil {
			return err
		}
		cmd = func(ctrl *controller.Controller) {
			if err := op(ctrl); err != nil {
				s.replyError(c, err)
			}
		}

	default:
		return errors.Wrapf(ErrUnknownMessage, "%q", msg.Type)
	}

	return s.ctrl.Submit(cmd)
}

// commandFor maps a UI command onto the controller operation it triggers.
func commandFor(p CommandPayload) (func(*controller.Controller) error, error) {
	needID := func() error {
		if p.ObjectID == "" {
			return errors.Wrapf(ErrInvalidMessage, "%s: missing objectId", p.Name)
		}
		return nil
	}

	switch p.Name {
	case CommandSetMode:
		mode, err := gesture.ParseMode(p.Mode)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidMessage, err.Error())
		}
		return func(c *controller.Controller) error { c.SetMode(mode); return nil }, nil

	case CommandSelect:
		if err := needID(); err != nil {
			return nil, err
		}
		return func(c *controller.Controller) error { return c.SelectObject(p.ObjectID) }, nil

	case CommandLock, CommandUnlock:
		if err := needID(); err != nil {
			return nil, err
		}
		locked := p.Name == CommandLock
		return func(c *controller.Controller) error { return c.SetLocked(p.ObjectID, locked) }, nil

	case CommandToggleLock:
		return func(c *controller.Controller) error {
			err := c.ToggleLock()
			if errors.Is(err, controller.ErrNoSelection) {
				// the controller already told the UI
				return nil
			}
			return err
		}, nil

	case CommandPlace:
		if p.Model == "" {
			return nil, errors.Wrap(ErrInvalidMessage, "place: missing model")
		}
		return func(c *controller.Controller) error {
			_, err := c.Place(p.Model)
			return err
		}, nil

	case CommandRemove:
		if err := needID(); err != nil {
			return nil, err
		}
		return func(c *controller.Controller) error { return c.Remove(p.ObjectID) }, nil

	case CommandScaleUp, CommandScaleDown:
		up := p.Name == CommandScaleUp
		return func(c *controller.Controller) error {
			if err := c.ScaleStep(up); !errors.Is(err, controller.ErrNoSelection) {
				return err
			}
			return nil
		}, nil

	case CommandResetObject:
		if err := needID(); err != nil {
			return nil, err
		}
		return func(c *controller.Controller) error { return c.ResetObject(p.ObjectID) }, nil

	case CommandResetAll:
		return func(c *controller.Controller) error { c.ResetAll(); return nil }, nil

	default:
		return nil, errors.Wrapf(ErrUnknownCommand, "%q", p.Name)
	}
}
