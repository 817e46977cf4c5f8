package handlers

import (
	"net/http"
	"strconv"

	"logoanimator/internal/domain"
)

const defaultRecentJobs = 20

func (a *App) RecentJobs(w http.ResponseWriter, r *http.Request) {
	if a.Jobs == nil {
		a.fail(w, r, domain.ErrHistoryUnavailable)
		return
	}
	limit := defaultRecentJobs
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}
	jobs, err := a.Jobs.Recent(r.Context(), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": jobs})
}
