package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"roomcraft/internal/domain"
	"roomcraft/internal/feature"
	"roomcraft/internal/infra"
	"roomcraft/internal/statusstore"
)

type stubRunner struct {
	asset *domain.RelocatedAsset
	err   error
	last  *domain.GenerationRequest
}

func (s *stubRunner) Run(ctx context.Context, req *domain.GenerationRequest) (*domain.RelocatedAsset, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return s.asset, nil
}

func testApp(runner Runner, store domain.StatusStore) *App {
	cfg := &infra.Config{
		DefaultLocale:    "en",
		MaxConcurrentGen: 2,
		RateLimitPerMin:  100,
	}
	features := feature.Registry(feature.Budgets{
		ImageAttempts: 1,
		ImageInterval: time.Millisecond,
		VideoAttempts: 1,
		VideoInterval: time.Millisecond,
		RetryBudget:   1,
	})
	return NewApp(cfg, zerolog.Nop(), runner, store, features)
}

func testRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/generations/{feature}", app.Generate)
	r.Get("/v1/generations/{id}", app.GetStatus)
	r.Get("/v1/generations", app.ListStatus)
	return r
}

func postGenerate(t *testing.T, handler http.Handler, featureName, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/generations/"+featureName, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGenerateSuccess(t *testing.T) {
	runner := &stubRunner{asset: &domain.RelocatedAsset{PublicURL: "https://assets.example.com/a.png"}}
	app := testApp(runner, statusstore.NewMemoryStore())

	rec := postGenerate(t, testRouter(app), "room-redesign",
		`{"owner":"alice","source_url":"https://uploads.example.com/room.jpg","style":{"style":"japandi"}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp generateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.URL != "https://assets.example.com/a.png" {
		t.Fatalf("resp.URL = %q", resp.URL)
	}
	if resp.Status != "completed" {
		t.Fatalf("resp.Status = %q", resp.Status)
	}
	if resp.RequestID == "" {
		t.Fatal("resp.RequestID is empty")
	}
	if runner.last == nil || runner.last.Feature != "room-redesign" || runner.last.Owner != "alice" {
		t.Fatalf("runner request = %+v", runner.last)
	}
}

func TestGenerateValidation(t *testing.T) {
	tests := []struct {
		name       string
		feature    string
		body       string
		wantStatus int
	}{
		{"unknown feature", "outpaint", `{"owner":"a","source_url":"https://x/y.png"}`, http.StatusNotFound},
		{"invalid json", "room-redesign", `{`, http.StatusBadRequest},
		{"missing owner", "room-redesign", `{"source_url":"https://x/y.png"}`, http.StatusBadRequest},
		{"missing source", "room-redesign", `{"owner":"a"}`, http.StatusBadRequest},
		{"bad base64", "room-redesign", `{"owner":"a","source_data":"!!!"}`, http.StatusBadRequest},
	}

	app := testApp(&stubRunner{asset: &domain.RelocatedAsset{PublicURL: "x"}}, statusstore.NewMemoryStore())
	handler := testRouter(app)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postGenerate(t, handler, tt.feature, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body = %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestGenerateErrorKindMapping(t *testing.T) {
	tests := []struct {
		kind       domain.Kind
		wantStatus int
	}{
		{domain.KindConfiguration, http.StatusInternalServerError},
		{domain.KindProviderRejected, http.StatusUnprocessableEntity},
		{domain.KindProviderUnavailable, http.StatusBadGateway},
		{domain.KindProviderContract, http.StatusBadGateway},
		{domain.KindGenerationFailed, http.StatusUnprocessableEntity},
		{domain.KindGenerationTimeout, http.StatusGatewayTimeout},
		{domain.KindDownloadFailed, http.StatusBadGateway},
		{domain.KindUploadFailed, http.StatusBadGateway},
		{domain.KindPublicURLUnavailable, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			runner := &stubRunner{err: domain.NewError(tt.kind, "boom")}
			app := testApp(runner, statusstore.NewMemoryStore())
			rec := postGenerate(t, testRouter(app), "room-redesign", `{"owner":"a","source_url":"https://x/y.png"}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Code != string(tt.kind) {
				t.Fatalf("body.Code = %q, want %q", body.Code, tt.kind)
			}
		})
	}
}

func TestGenerateLocalizedHint(t *testing.T) {
	runner := &stubRunner{err: domain.NewError(domain.KindGenerationFailed, "blocked")}
	app := testApp(runner, statusstore.NewMemoryStore())
	handler := testRouter(app)

	req := httptest.NewRequest(http.MethodPost, "/v1/generations/room-redesign",
		strings.NewReader(`{"owner":"a","source_url":"https://x/y.png"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Hint == "" {
		t.Fatal("body.Hint is empty, want remediation hint for generation_failed")
	}
}
