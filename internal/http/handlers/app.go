package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"logoanimator/internal/domain"
	"logoanimator/internal/middleware"
	"logoanimator/internal/studio"
)

const defaultMaxUploadBytes = 10 << 20

// App carries the dependencies shared by every handler.
type App struct {
	Sessions       *studio.Registry
	Jobs           domain.JobHistory
	Logger         zerolog.Logger
	MaxUploadBytes int64
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorBody{Error: errorDetail{Code: errCode, Message: message}})
}

// fail maps domain errors onto HTTP responses. Anything unknown is logged and
// reported as an internal error without detail.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, domain.ErrJobInProgress):
		a.error(w, http.StatusConflict, "job_in_progress", "a generation job is already running")
	case errors.Is(err, domain.ErrNoSourceImage):
		locale := middleware.LocaleFromContext(r.Context())
		a.error(w, http.StatusUnprocessableEntity, "no_source_image", domain.Message(locale, domain.MsgNoSourceImage))
	case errors.Is(err, domain.ErrNoVideo):
		a.error(w, http.StatusNotFound, "no_video", "no animation available yet")
	case errors.Is(err, domain.ErrInvalidImage):
		a.error(w, http.StatusBadRequest, "invalid_image", "upload must be an image")
	case errors.Is(err, domain.ErrInvalidAspectRatio):
		a.error(w, http.StatusBadRequest, "invalid_aspect_ratio", "aspect_ratio must be 16:9 or 9:16")
	case errors.Is(err, domain.ErrInvalidTab):
		a.error(w, http.StatusBadRequest, "invalid_tab", "active_tab must be generate or upload")
	case errors.Is(err, domain.ErrUnsupportedFormat):
		a.error(w, http.StatusBadRequest, "unsupported_format", "format must be mp4 or gif")
	case errors.Is(err, domain.ErrUnsupportedPlatform):
		a.error(w, http.StatusBadRequest, "unsupported_platform", "platform must be twitter, facebook or linkedin")
	case errors.Is(err, domain.ErrHistoryUnavailable):
		a.error(w, http.StatusServiceUnavailable, "history_unavailable", "job history requires a database")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// session resolves the {id} URL parameter.
func (a *App) session(w http.ResponseWriter, r *http.Request) (*studio.Studio, bool) {
	st, err := a.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return st, true
}

func (a *App) maxUploadBytes() int64 {
	if a.MaxUploadBytes > 0 {
		return a.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}
