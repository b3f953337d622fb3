package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/arview/internal/controller"
	"github.com/zeusync/arview/internal/core/capture"
	"github.com/zeusync/arview/internal/core/scene"
	"github.com/zeusync/arview/internal/storage"
)

func httptestRequest(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func do(t *testing.T, method, url string, body []byte, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func placeBox(t *testing.T, ctrl *controller.Controller) scene.ObjectID {
	t.Helper()
	var id scene.ObjectID
	require.NoError(t, ctrl.Do(context.Background(), func(c *controller.Controller) error {
		var err error
		id, err = c.Place("box")
		return err
	}))
	require.Eventually(t, func() bool { return ctrl.Latest().Len() > 0 }, waitFor, 5*time.Millisecond)
	return id
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func captureForm(t *testing.T, files map[string][]byte, caption string) ([]byte, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, data := range files {
		fw, err := mw.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	if caption != "" {
		require.NoError(t, mw.WriteField("caption", caption))
	}
	require.NoError(t, mw.Close())
	return body.Bytes(), mw.FormDataContentType()
}

func TestCatalogAndScene(t *testing.T) {
	_, ctrl, ts := startTestServer(t, false)

	resp := do(t, http.MethodGet, ts.URL+"/catalog", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	models := decode[[]scene.Model](t, resp)
	require.Len(t, models, 1)
	assert.Equal(t, "box", models[0].ID)

	id := placeBox(t, ctrl)
	resp = do(t, http.MethodGet, ts.URL+"/scene", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[controller.Snapshot](t, resp)
	require.Len(t, snap.Objects, 1)
	assert.Equal(t, id, snap.Objects[0].ID)
	assert.Equal(t, id, snap.ActiveID)
}

func TestCaptureRefusesEmptyScene(t *testing.T) {
	_, _, ts := startTestServer(t, false)

	body, ct := captureForm(t, map[string][]byte{"frame": pngBytes(t, 4, 4, color.White)}, "")
	resp := do(t, http.MethodPost, ts.URL+"/capture", body, ct)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCapture(t *testing.T) {
	srv, ctrl, ts := startTestServer(t, false)
	srv.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC) }
	placeBox(t, ctrl)

	body, ct := captureForm(t, map[string][]byte{
		"frame":  pngBytes(t, 64, 48, color.Transparent),
		"camera": pngBytes(t, 16, 12, color.RGBA{B: 255, A: 255}),
	}, "")
	resp := do(t, http.MethodPost, ts.URL+"/capture", body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="ar-screenshot-2024-01-02T03-04-05-678Z.png"`, resp.Header.Get("Content-Disposition"))

	img, err := capture.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
	_, _, b, _ := img.At(5, 5).RGBA()
	assert.Greater(t, b, uint32(0xf000), "camera frame shows through the transparent render")
}

func TestCaptureBadRequests(t *testing.T) {
	_, ctrl, ts := startTestServer(t, false)
	placeBox(t, ctrl)

	body, ct := captureForm(t, map[string][]byte{"camera": pngBytes(t, 4, 4, color.White)}, "")
	resp := do(t, http.MethodPost, ts.URL+"/capture", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, ct = captureForm(t, map[string][]byte{"frame": []byte("not a png")}, "")
	resp = do(t, http.MethodPost, ts.URL+"/capture", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/capture", []byte("plain"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSceneStorage(t *testing.T) {
	_, ctrl, ts := startTestServer(t, true)
	id := placeBox(t, ctrl)

	resp := do(t, http.MethodPut, ts.URL+"/scenes/living-room", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[storage.SceneInfo](t, resp)
	assert.Equal(t, "living-room", info.Name)
	assert.Equal(t, 1, info.Objects)

	resp = do(t, http.MethodGet, ts.URL+"/scenes", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]storage.SceneInfo](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Objects)

	resp = do(t, http.MethodGet, ts.URL+"/scenes/living-room", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decode[[]scene.PlacedObject](t, resp)
	require.Len(t, saved, 1)
	assert.Equal(t, id, saved[0].ID)

	require.NoError(t, ctrl.Do(context.Background(), func(c *controller.Controller) error {
		c.ResetAll()
		return nil
	}))
	require.Eventually(t, func() bool { return ctrl.Latest().Len() == 0 }, waitFor, 5*time.Millisecond)

	resp = do(t, http.MethodPost, ts.URL+"/scenes/living-room/restore", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	restored := decode[map[string]any](t, resp)
	assert.EqualValues(t, 1, restored["objects"])
	require.Eventually(t, func() bool { return ctrl.Latest().Len() == 1 }, waitFor, 5*time.Millisecond)
	assert.Equal(t, id, ctrl.Latest().Objects[0].ID)

	resp = do(t, http.MethodDelete, ts.URL+"/scenes/living-room", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodGet, ts.URL+"/scenes/living-room", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, http.MethodPost, ts.URL+"/scenes/living-room/restore", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSceneStorageDisabled(t *testing.T) {
	_, _, ts := startTestServer(t, false)

	resp := do(t, http.MethodGet, ts.URL+"/scenes", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp = do(t, http.MethodPut, ts.URL+"/scenes/x", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSaveNeedsRunningController(t *testing.T) {
	srv, _ := newServer(t, DefaultServerConfig(), true)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := do(t, http.MethodPut, ts.URL+"/scenes/x", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, decode[ErrorPayload](t, resp).Message, controller.ErrStopped.Error())
}

func TestMethodRouting(t *testing.T) {
	_, _, ts := startTestServer(t, false)

	resp := do(t, http.MethodPost, ts.URL+"/catalog", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp = do(t, http.MethodGet, ts.URL+"/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
