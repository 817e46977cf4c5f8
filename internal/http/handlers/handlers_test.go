package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	handlers "logoanimator/internal/http/handlers"
	"logoanimator/internal/http/httpapi"
	"logoanimator/internal/infra"
	"logoanimator/internal/providers/genai"
	imageprovider "logoanimator/internal/providers/image"
	"logoanimator/internal/providers/video"
	"logoanimator/internal/storage"
	"logoanimator/internal/studio"
)

type sessionResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Error          string `json:"error"`
	ActiveTab      string `json:"active_tab"`
	Prompt         string `json:"prompt"`
	UploadedImage  string `json:"uploaded_image"`
	GeneratedImage string `json:"generated_image"`
	AspectRatio    string `json:"aspect_ratio"`
	Locale         string `json:"locale"`
	DownloadURL    string `json:"download_url"`
	GeneratedVideo *struct {
		MIMEType string `json:"mime_type"`
		Size     int64  `json:"size"`
	} `json:"generated_video"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type gatedImages struct {
	gate chan struct{}
	once sync.Once
}

func (g *gatedImages) Generate(ctx context.Context, _ imageprovider.GenerateRequest) ([]imageprovider.Asset, error) {
	select {
	case <-g.gate:
		return []imageprovider.Asset{{Format: "image/png", Data: pngFixture()}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedImages) release() {
	g.once.Do(func() { close(g.gate) })
}

type testServer struct {
	handler  http.Handler
	registry *studio.Registry
}

func newTestServer(t *testing.T, configure func(*studio.Options, *handlers.App)) *testServer {
	t.Helper()
	logger := infra.NopLogger()
	service := genai.NewSynthetic(genai.Options{SyntheticPolls: 1})
	media, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	opts := studio.Options{
		Images:           imageprovider.NewGeminiGenerator(service),
		Animator:         video.NewGeminiAnimator(service),
		Media:            media,
		Backend:          service.Name(),
		Logger:           &logger,
		PollInterval:     5 * time.Millisecond,
		ProgressInterval: 5 * time.Millisecond,
		VideoTimeout:     5 * time.Second,
	}
	app := &handlers.App{Logger: logger}
	if configure != nil {
		configure(&opts, app)
	}
	registry := studio.NewRegistry(context.Background(), opts, 0)
	t.Cleanup(registry.Close)
	app.Sessions = registry

	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins: []string{"*"},
		DefaultLocale:  "en",
		Logger:         logger,
	})
	return &testServer{handler: router, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	return s.do(t, method, path, body, "application/json")
}

func (s *testServer) create(t *testing.T) sessionResponse {
	t.Helper()
	rec := s.doJSON(t, http.MethodPost, "/v1/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeSession(t, rec)
}

func (s *testServer) waitForStatus(t *testing.T, id, want string) sessionResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec := s.doJSON(t, http.MethodGet, "/v1/sessions/"+id, nil)
		sess := decodeSession(t, rec)
		if sess.Status == want {
			return sess
		}
		if time.Now().After(deadline) {
			t.Fatalf("status = %q (error %q), want %q", sess.Status, sess.Error, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var out sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode session: %v (body %s)", err, rec.Body.String())
	}
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var out errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode error: %v (body %s)", err, rec.Body.String())
	}
	return out
}

func pngFixture() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func multipartImage(t *testing.T, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "logo.png")
	if err != nil {
		t.Fatalf("CreateFormFile error: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	sess := srv.create(t)
	if sess.Status != "idle" || sess.ActiveTab != "generate" || sess.AspectRatio != "16:9" {
		t.Fatalf("unexpected initial session %+v", sess)
	}
	base := "/v1/sessions/" + sess.ID

	rec := srv.doJSON(t, http.MethodPatch, base, map[string]string{"prompt": "mountain coffee", "aspect_ratio": "9:16"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeSession(t, rec); got.Prompt != "mountain coffee" || got.AspectRatio != "9:16" {
		t.Fatalf("patch not applied: %+v", got)
	}

	rec = srv.doJSON(t, http.MethodPost, base+"/logo", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("logo status = %d, body %s", rec.Code, rec.Body.String())
	}
	sess = srv.waitForStatus(t, sess.ID, "idle")
	if !strings.HasPrefix(sess.GeneratedImage, "data:image/png;base64,") {
		t.Fatalf("generated image = %.40q", sess.GeneratedImage)
	}

	rec = srv.doJSON(t, http.MethodPost, base+"/animation", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("animation status = %d, body %s", rec.Code, rec.Body.String())
	}
	sess = srv.waitForStatus(t, sess.ID, "finished")
	if sess.GeneratedVideo == nil || sess.GeneratedVideo.MIMEType != "video/mp4" || sess.GeneratedVideo.Size == 0 {
		t.Fatalf("unexpected video %+v", sess.GeneratedVideo)
	}
	if sess.DownloadURL != base+"/download?format=mp4" {
		t.Fatalf("download url = %q", sess.DownloadURL)
	}

	rec = srv.do(t, http.MethodGet, sess.DownloadURL, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename=animated-logo.mp4` {
		t.Fatalf("Content-Disposition = %q", got)
	}
	if rec.Header().Get("Content-Type") != "video/mp4" || rec.Body.Len() == 0 {
		t.Fatalf("unexpected download %q (%d bytes)", rec.Header().Get("Content-Type"), rec.Body.Len())
	}

	rec = srv.do(t, http.MethodGet, base+"/bundle", nil, "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/zip" {
		t.Fatalf("bundle status = %d type %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = srv.do(t, http.MethodGet, base+"/share/twitter", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("share status = %d, body %s", rec.Code, rec.Body.String())
	}
	var link struct {
		URL    string `json:"url"`
		Target string `json:"target"`
		Rel    string `json:"rel"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &link); err != nil {
		t.Fatalf("decode share: %v", err)
	}
	if !strings.HasPrefix(link.URL, "https://twitter.com/intent/tweet?text=Check%20out") || link.Target != "_blank" || link.Rel != "noopener noreferrer" {
		t.Fatalf("unexpected share link %+v", link)
	}

	rec = srv.do(t, http.MethodDelete, base, nil, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = srv.do(t, http.MethodGet, base, nil, "")
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Error.Code != "not_found" {
		t.Fatalf("get after delete = %d %s", rec.Code, rec.Body.String())
	}
}

func TestCreateSessionUsesLocaleHeader(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", nil)
	req.Header.Set("X-Locale", "id")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	sess := decodeSession(t, rec)
	if sess.Locale != "id" {
		t.Fatalf("locale = %q, want id", sess.Locale)
	}
	if got := rec.Header().Get("Location"); got != "/v1/sessions/"+sess.ID {
		t.Fatalf("Location = %q", got)
	}
}

func TestGenerateAnimationWithoutSourceImage(t *testing.T) {
	srv := newTestServer(t, nil)
	sess := srv.create(t)

	rec := srv.doJSON(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/animation", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if body := decodeError(t, rec); body.Error.Code != "no_source_image" || body.Error.Message == "" {
		t.Fatalf("unexpected error %+v", body)
	}
}

func TestGenerateLogoWhileBusy(t *testing.T) {
	images := &gatedImages{gate: make(chan struct{})}
	srv := newTestServer(t, func(opts *studio.Options, _ *handlers.App) { opts.Images = images })
	t.Cleanup(images.release)
	sess := srv.create(t)
	path := "/v1/sessions/" + sess.ID + "/logo"

	if rec := srv.doJSON(t, http.MethodPost, path, map[string]string{"prompt": "tea"}); rec.Code != http.StatusAccepted {
		t.Fatalf("first logo status = %d", rec.Code)
	}
	rec := srv.doJSON(t, http.MethodPost, path, map[string]string{"prompt": "tea again"})
	if rec.Code != http.StatusConflict || decodeError(t, rec).Error.Code != "job_in_progress" {
		t.Fatalf("second logo = %d %s", rec.Code, rec.Body.String())
	}

	images.release()
	if got := srv.waitForStatus(t, sess.ID, "idle"); got.GeneratedImage == "" {
		t.Fatalf("expected generated image after release")
	}
}

func TestGenerateLogoBlankPrompt(t *testing.T) {
	srv := newTestServer(t, nil)
	sess := srv.create(t)
	rec := srv.doJSON(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/logo", map[string]string{"prompt": "   "})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeSession(t, rec); got.Status != "idle" {
		t.Fatalf("status = %q, want idle", got.Status)
	}
}

func TestUploadImage(t *testing.T) {
	srv := newTestServer(t, nil)
	sess := srv.create(t)
	path := "/v1/sessions/" + sess.ID + "/upload"

	body, contentType := multipartImage(t, pngFixture())
	rec := srv.do(t, http.MethodPost, path, body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	got := decodeSession(t, rec)
	if got.ActiveTab != "upload" || !strings.HasPrefix(got.UploadedImage, "data:image/png;base64,") {
		t.Fatalf("unexpected session after upload %+v", got)
	}

	body, contentType = multipartImage(t, []byte("plain text is not an image"))
	rec = srv.do(t, http.MethodPost, path, body, contentType)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error.Code != "invalid_image" {
		t.Fatalf("text upload = %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodPost, path, strings.NewReader("{}"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non multipart upload status = %d", rec.Code)
	}
}

func TestUploadImageTooLarge(t *testing.T) {
	srv := newTestServer(t, func(_ *studio.Options, app *handlers.App) { app.MaxUploadBytes = 16 })
	sess := srv.create(t)
	body, contentType := multipartImage(t, pngFixture())
	rec := srv.do(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/upload", body, contentType)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestPatchSessionValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	sess := srv.create(t)
	tests := []struct {
		name string
		body map[string]string
		code string
	}{
		{name: "aspect", body: map[string]string{"aspect_ratio": "4:3"}, code: "invalid_aspect_ratio"},
		{name: "tab", body: map[string]string{"active_tab": "gallery"}, code: "invalid_tab"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := srv.doJSON(t, http.MethodPatch, "/v1/sessions/"+sess.ID, tc.body)
			if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error.Code != tc.code {
				t.Fatalf("got %d %s, want 400 %s", rec.Code, rec.Body.String(), tc.code)
			}
		})
	}
	rec := srv.do(t, http.MethodPatch, "/v1/sessions/"+sess.ID, strings.NewReader("{"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d", rec.Code)
	}
}

func TestExportsRequireVideo(t *testing.T) {
	srv := newTestServer(t, nil)
	sess := srv.create(t)
	base := "/v1/sessions/" + sess.ID
	for _, path := range []string{base + "/download", base + "/bundle", base + "/share/twitter"} {
		rec := srv.do(t, http.MethodGet, path, nil, "")
		if rec.Code != http.StatusNotFound || decodeError(t, rec).Error.Code != "no_video" {
			t.Fatalf("%s = %d %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestResetSession(t *testing.T) {
	srv := newTestServer(t, nil)
	sess := srv.create(t)
	base := "/v1/sessions/" + sess.ID
	srv.doJSON(t, http.MethodPatch, base, map[string]string{"prompt": "bakery", "aspect_ratio": "9:16"})

	rec := srv.doJSON(t, http.MethodPost, base+"/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d", rec.Code)
	}
	got := decodeSession(t, rec)
	if got.Prompt != "" || got.Status != "idle" || got.AspectRatio != "9:16" {
		t.Fatalf("unexpected session after reset %+v", got)
	}
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.doJSON(t, http.MethodPost, "/v1/sessions/missing/logo", map[string]string{"prompt": "x"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.create(t)
	rec := srv.do(t, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
		History  bool   `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body.Status != "ok" || body.Sessions != 1 || body.History {
		t.Fatalf("unexpected health %+v", body)
	}
}

func TestOpenAPI(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodGet, "/v1/openapi.json", nil, "")
	if rec.Code != http.StatusOK || !json.Valid(rec.Body.Bytes()) {
		t.Fatalf("openapi status = %d valid=%v", rec.Code, json.Valid(rec.Body.Bytes()))
	}
	rec = srv.do(t, http.MethodGet, "/v1/docs", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/v1/openapi.json") {
		t.Fatalf("docs status = %d", rec.Code)
	}
}
