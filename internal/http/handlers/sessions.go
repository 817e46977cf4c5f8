package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"logoanimator/internal/middleware"
	"logoanimator/internal/studio"
)

type sessionView struct {
	studio.Session
	DownloadURL string `json:"download_url,omitempty"`
}

func viewOf(s studio.Session) sessionView {
	v := sessionView{Session: s}
	if s.GeneratedVideo != nil {
		v.DownloadURL = "/v1/sessions/" + s.ID + "/download?format=mp4"
	}
	return v
}

type patchSessionRequest struct {
	Prompt      *string `json:"prompt"`
	AspectRatio *string `json:"aspect_ratio"`
	ActiveTab   *string `json:"active_tab"`
}

type logoRequest struct {
	Prompt *string `json:"prompt"`
}

type animationRequest struct {
	AspectRatio string `json:"aspect_ratio"`
}

// decodeOptional decodes a JSON body when one is present.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	st := a.Sessions.Create(middleware.LocaleFromContext(r.Context()))
	w.Header().Set("Location", "/v1/sessions/"+st.ID())
	a.json(w, http.StatusCreated, viewOf(st.Snapshot()))
}

func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	st, ok := a.session(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, viewOf(st.Snapshot()))
}

func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	st, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := a.Sessions.Delete(st.ID()); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) PatchSession(w http.ResponseWriter, r *http.Request) {
	st, ok := a.session(w, r)
	if !ok {
		return
	}
	var req patchSessionRequest
	if err := decodeOptional(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.AspectRatio != nil {
		if _, err := st.SetAspectRatio(*req.AspectRatio); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	if req.ActiveTab != nil {
		if _, err := st.SelectTab(*req.ActiveTab); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	if req.Prompt != nil {
		st.SetPrompt(*req.Prompt)
	}
	a.json(w, http.StatusOK, viewOf(st.Snapshot()))
}

func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	st, ok := a.session(w, r)
	if !ok {
		return
	}
	limit := a.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds the size limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "expected multipart form with an image field")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image field is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}
	if int64(len(data)) > limit {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds the size limit")
		return
	}
	snap, err := st.UploadImage(data)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewOf(snap))
}

// GenerateLogo starts a logo job. Without a prompt in the body the session's
// stored prompt is used; a blank prompt changes nothing.
func (a *App) GenerateLogo(w http.ResponseWriter, r *http.Request) {
	st, ok := a.session(w, r)
	if !ok {
		return
	}
	var req logoRequest
	if err := decodeOptional(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	prompt := st.Snapshot().Prompt
	if req.Prompt != nil {
		prompt = *req.Prompt
	}
	if strings.TrimSpace(prompt) == "" {
		a.json(w, http.StatusOK, viewOf(st.Snapshot()))
		return
	}
	if err := st.StartLogo(prompt); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, viewOf(st.Snapshot()))
}

func (a *App) GenerateAnimation(w http.ResponseWriter, r *http.Request) {
	st, ok := a.session(w, r)
	if !ok {
		return
	}
	var req animationRequest
	if err := decodeOptional(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.AspectRatio != "" {
		if _, err := st.SetAspectRatio(req.AspectRatio); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	if err := st.StartAnimation(); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, viewOf(st.Snapshot()))
}

func (a *App) ResetSession(w http.ResponseWriter, r *http.Request) {
	st, ok := a.session(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, viewOf(st.Reset()))
}
