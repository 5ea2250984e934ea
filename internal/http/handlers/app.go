// Package handlers implements the HTTP surface: the synchronous generation
// entry point and the read-only status queries.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"roomcraft/internal/domain"
	"roomcraft/internal/feature"
	"roomcraft/internal/infra"
	"roomcraft/internal/middleware"
)

// Runner drives one generation request to a terminal outcome.
type Runner interface {
	Run(ctx context.Context, req *domain.GenerationRequest) (*domain.RelocatedAsset, error)
}

// App bundles the dependencies shared by all handlers.
type App struct {
	Config   *infra.Config
	Logger   infra.Logger
	Engine   Runner
	Status   domain.StatusStore
	Features map[string]*feature.Feature

	// sem bounds in-flight generations; reads are never throttled.
	sem chan struct{}
	// terminal caches completed/failed status records so repeated polling by
	// clients does not hit the store.
	terminal *gocache.Cache
}

// NewApp wires the handler set.
func NewApp(cfg *infra.Config, logger infra.Logger, engine Runner, status domain.StatusStore, features map[string]*feature.Feature) *App {
	slots := cfg.MaxConcurrentGen
	if slots <= 0 {
		slots = 1
	}
	return &App{
		Config:   cfg,
		Logger:   logger,
		Engine:   engine,
		Status:   status,
		Features: features,
		sem:      make(chan struct{}, slots),
		terminal: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func (a *App) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: response encode failed")
	}
}

type errorBody struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
	Code  string `json:"code,omitempty"`
}

func (a *App) writeError(w http.ResponseWriter, r *http.Request, status int, msg, code string) {
	a.writeJSON(w, status, errorBody{
		Error: msg,
		Hint:  hintFor(code, middleware.LocaleFromContext(r.Context())),
		Code:  code,
	})
}

// statusForKind maps the engine's error taxonomy onto HTTP status codes.
// Provider-side transport trouble and relocation trouble are both gateway
// problems from the caller's point of view.
func statusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindConfiguration:
		return http.StatusInternalServerError
	case domain.KindProviderRejected, domain.KindGenerationFailed:
		return http.StatusUnprocessableEntity
	case domain.KindProviderUnavailable, domain.KindProviderContract,
		domain.KindDownloadFailed, domain.KindUploadFailed, domain.KindPublicURLUnavailable:
		return http.StatusBadGateway
	case domain.KindGenerationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

var hints = map[string]map[string]string{
	"generation_failed": {
		"en": "Try a different photo or a less restrictive style.",
		"es": "Prueba con otra foto o un estilo menos restrictivo.",
		"fr": "Essayez une autre photo ou un style moins restrictif.",
	},
	"generation_timeout": {
		"en": "The provider is taking longer than expected. Retry in a few minutes.",
		"es": "El proveedor está tardando más de lo esperado. Vuelve a intentarlo en unos minutos.",
		"fr": "Le fournisseur met plus de temps que prévu. Réessayez dans quelques minutes.",
	},
	"provider_unavailable": {
		"en": "The generation provider is temporarily unavailable. Retry shortly.",
		"es": "El proveedor de generación no está disponible temporalmente. Reintenta en breve.",
		"fr": "Le fournisseur de génération est temporairement indisponible. Réessayez bientôt.",
	},
}

func hintFor(code, locale string) string {
	byLocale, ok := hints[code]
	if !ok {
		return ""
	}
	if hint, ok := byLocale[locale]; ok {
		return hint
	}
	return byLocale["en"]
}

// codeForKind labels errors for clients and hint lookup. Kind values are
// already stable snake_case identifiers; only unclassified errors need a
// fallback label.
func codeForKind(kind domain.Kind) string {
	if kind == "" {
		return "internal_error"
	}
	return string(kind)
}
