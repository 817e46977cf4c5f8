package handlers

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func attachment(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	st, ok := a.session(w, r)
	if !ok {
		return
	}
	dl, err := st.Download(r.Context(), r.URL.Query().Get("format"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	attachment(w, dl.Filename, dl.MIMEType, dl.Data)
}

func (a *App) Bundle(w http.ResponseWriter, r *http.Request) {
	st, ok := a.session(w, r)
	if !ok {
		return
	}
	data, err := st.Bundle(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	attachment(w, "animated-logo.zip", "application/zip", data)
}

func (a *App) Share(w http.ResponseWriter, r *http.Request) {
	st, ok := a.session(w, r)
	if !ok {
		return
	}
	link, err := st.ShareLink(chi.URLParam(r, "platform"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, link)
}
