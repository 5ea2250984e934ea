package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	gocache "github.com/patrickmn/go-cache"

	"roomcraft/internal/domain"
)

type statusResponse struct {
	RequestID     string `json:"request_id"`
	Owner         string `json:"owner"`
	Feature       string `json:"feature"`
	Status        string `json:"status"`
	ProviderJobID string `json:"provider_job_id,omitempty"`
	URL           string `json:"url,omitempty"`
	Error         string `json:"error,omitempty"`
	StartedAt     string `json:"started_at"`
	CompletedAt   string `json:"completed_at,omitempty"`
	UpdatedAt     string `json:"updated_at"`
}

// GetStatus returns the status record for one request. Terminal records are
// immutable, so they are served from cache once seen.
func (a *App) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.writeError(w, r, http.StatusBadRequest, "request id is required", "bad_request")
		return
	}

	if cached, ok := a.terminal.Get(id); ok {
		a.writeJSON(w, http.StatusOK, cached.(statusResponse))
		return
	}

	record, err := a.Status.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.writeError(w, r, http.StatusNotFound, "no such generation request", "not_found")
			return
		}
		a.Logger.Error().Err(err).Str("request_id", id).Msg("handlers: status read failed")
		a.writeError(w, r, http.StatusInternalServerError, "status store unavailable", "internal_error")
		return
	}

	resp := toStatusResponse(record)
	if record.State.Terminal() {
		a.terminal.Set(id, resp, gocache.DefaultExpiration)
	}
	a.writeJSON(w, http.StatusOK, resp)
}

// ListStatus returns an owner's recent requests, newest first.
func (a *App) ListStatus(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if owner == "" {
		a.writeError(w, r, http.StatusBadRequest, "owner query parameter is required", "bad_request")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	records, err := a.Status.ListByOwner(r.Context(), owner, limit)
	if err != nil {
		a.Logger.Error().Err(err).Str("owner", owner).Msg("handlers: status list failed")
		a.writeError(w, r, http.StatusInternalServerError, "status store unavailable", "internal_error")
		return
	}

	out := make([]statusResponse, 0, len(records))
	for i := range records {
		out = append(out, toStatusResponse(&records[i]))
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func toStatusResponse(record *domain.StatusRecord) statusResponse {
	resp := statusResponse{
		RequestID:     record.RequestID,
		Owner:         record.Owner,
		Feature:       record.Feature,
		Status:        string(record.State),
		ProviderJobID: record.ProviderJobID,
		URL:           record.ResultURL,
		Error:         record.ErrorText,
		StartedAt:     record.StartedAt.Format(time.RFC3339),
		UpdatedAt:     record.UpdatedAt.Format(time.RFC3339),
	}
	if !record.CompletedAt.IsZero() {
		resp.CompletedAt = record.CompletedAt.Format(time.RFC3339)
	}
	return resp
}
