package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"roomcraft/internal/domain"
	"roomcraft/internal/feature"
)

type generateRequest struct {
	Owner      string            `json:"owner"`
	SourceURL  string            `json:"source_url,omitempty"`
	SourceData string            `json:"source_data,omitempty"`
	SourceMIME string            `json:"source_mime,omitempty"`
	Style      map[string]string `json:"style,omitempty"`
}

type generateResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	URL       string `json:"url"`
}

// Generate runs one generation synchronously: the response is only written
// once the asset is durably hosted or the run has failed terminally.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "feature")
	f, err := feature.Lookup(a.Features, name)
	if err != nil {
		a.writeError(w, r, http.StatusNotFound, err.Error(), "unknown_feature")
		return
	}

	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, r, http.StatusBadRequest, "invalid JSON body", "bad_request")
		return
	}
	body.Owner = strings.TrimSpace(body.Owner)
	if body.Owner == "" {
		a.writeError(w, r, http.StatusBadRequest, "owner is required", "bad_request")
		return
	}
	if body.SourceURL == "" && body.SourceData == "" {
		a.writeError(w, r, http.StatusBadRequest, "source_url or source_data is required", "bad_request")
		return
	}

	var sourceData []byte
	if body.SourceData != "" {
		sourceData, err = base64.StdEncoding.DecodeString(body.SourceData)
		if err != nil {
			a.writeError(w, r, http.StatusBadRequest, "source_data is not valid base64", "bad_request")
			return
		}
	}

	ctx := r.Context()
	select {
	case a.sem <- struct{}{}:
		defer func() { <-a.sem }()
	case <-ctx.Done():
		a.writeError(w, r, http.StatusServiceUnavailable, "request cancelled while waiting for a generation slot", "overloaded")
		return
	}

	req := &domain.GenerationRequest{
		ID:         uuid.NewString(),
		Owner:      body.Owner,
		Feature:    f.Name,
		Kind:       f.Kind,
		SourceURL:  body.SourceURL,
		SourceData: sourceData,
		SourceMIME: body.SourceMIME,
		Style:      body.Style,
	}

	a.Logger.Info().
		Str("request_id", req.ID).
		Str("feature", f.Name).
		Str("owner", req.Owner).
		Msg("handlers: generation started")

	asset, err := a.Engine.Run(ctx, req)
	if err != nil {
		kind := domain.KindOf(err)
		a.Logger.Error().Err(err).
			Str("request_id", req.ID).
			Str("kind", string(kind)).
			Msg("handlers: generation failed")
		a.writeError(w, r, statusForKind(kind), err.Error(), codeForKind(kind))
		return
	}

	a.writeJSON(w, http.StatusOK, generateResponse{
		RequestID: req.ID,
		Status:    string(domain.StatusCompleted),
		URL:       asset.PublicURL,
	})
}
