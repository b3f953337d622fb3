package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"

	"github.com/pkg/errors"
	"github.com/zeusync/arview/internal/controller"
	"github.com/zeusync/arview/internal/core/capture"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/core/scene"
	"github.com/zeusync/arview/internal/storage"
)

var errStorageDisabled = errors.New("scene storage is disabled")

// Handler routes every endpoint of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /catalog", s.handleCatalog)
	mux.HandleFunc("GET /scene", s.handleScene)
	mux.HandleFunc("POST /capture", s.handleCapture)
	mux.HandleFunc("GET /scenes", s.handleListScenes)
	mux.HandleFunc("PUT /scenes/{name}", s.handleSaveScene)
	mux.HandleFunc("GET /scenes/{name}", s.handleGetScene)
	mux.HandleFunc("POST /scenes/{name}/restore", s.handleRestoreScene)
	mux.HandleFunc("DELETE /scenes/{name}", s.handleDeleteScene)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("response write failed", log.Error(err))
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrSceneNotFound),
		errors.Is(err, scene.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidName),
		errors.Is(err, capture.ErrEmptyFrame),
		errors.Is(err, ErrInvalidMessage):
		return http.StatusBadRequest
	case errors.Is(err, capture.ErrEmptyScene):
		return http.StatusConflict
	case errors.Is(err, controller.ErrStopped),
		errors.Is(err, controller.ErrQueueFull),
		errors.Is(err, errStorageDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			log.String("method", r.Method),
			log.String("path", r.URL.Path),
			log.Error(err),
		)
	}
	s.writeJSON(w, status, ErrorPayload{Message: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"running": s.IsRunning(),
		"clients": s.hub.Len(),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ctrl.Catalog().Models())
}

func (s *Server) handleScene(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ctrl.Latest())
}

// handleCapture composes the uploaded renderer frame over the optional
// camera frame and returns the photo as a download.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if s.ctrl.Latest().Len() == 0 {
		s.writeError(w, r, capture.ErrEmptyScene)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		s.writeError(w, r, errors.Wrap(ErrInvalidMessage, err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	rendered, err := formImage(r.MultipartForm, "frame")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rendered == nil {
		s.writeError(w, r, errors.Wrap(ErrInvalidMessage, "missing frame"))
		return
	}
	camera, err := formImage(r.MultipartForm, "camera")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	caption := s.composer.DefaultCaption()
	if values, ok := r.MultipartForm.Value["caption"]; ok && len(values) > 0 {
		caption = values[0]
	}

	photo, err := s.composer.Compose(rendered, camera, caption)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err = s.composer.Encode(&buf, photo); err != nil {
		s.writeError(w, r, err)
		return
	}

	name := s.composer.FileName(s.now())
	w.Header().Set("Content-Type", s.composer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())

	s.logger.Info("photo captured",
		log.String("file", name),
		log.Int("bytes", buf.Len()),
		log.Bool("camera", camera != nil),
	)
}

// formImage decodes the named file part, or returns nil when it is absent.
func formImage(form *multipart.Form, field string) (image.Image, error) {
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	f, err := files[0].Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", field)
	}
	defer f.Close()

	img, err := capture.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidMessage, "%s: %v", field, err)
	}
	return img, nil
}

func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.writeError(w, r, errStorageDisabled)
		return
	}
	list, err := s.repo.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

// handleSaveScene stores the current scene under {name}.
func (s *Server) handleSaveScene(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.writeError(w, r, errStorageDisabled)
		return
	}
	name := r.PathValue("name")

	var objects []scene.PlacedObject
	err := s.ctrl.Do(r.Context(), func(c *controller.Controller) error {
		objects = c.Objects()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err = s.repo.Save(r.Context(), name, objects); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, storage.SceneInfo{Name: name, Objects: len(objects), UpdatedAt: s.now()})
}

func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.writeError(w, r, errStorageDisabled)
		return
	}
	objects, err := s.repo.Load(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, objects)
}

// handleRestoreScene replaces the live scene with the saved one.
func (s *Server) handleRestoreScene(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.writeError(w, r, errStorageDisabled)
		return
	}
	name := r.PathValue("name")
	objects, err := s.repo.Load(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var restored int
	err = s.ctrl.Do(r.Context(), func(c *controller.Controller) error {
		restored = c.Restore(objects)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"name": name, "objects": restored})
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.writeError(w, r, errStorageDisabled)
		return
	}
	if err := s.repo.Delete(r.Context(), r.PathValue("name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
