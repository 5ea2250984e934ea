// Package provider implements the thin request/response mapping to the
// third-party media generation API. The client owns no state and performs
// exactly one HTTP attempt per call; retry decisions belong to the engine.
package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"roomcraft/internal/domain"
	"roomcraft/internal/infra"
)

// Options configures the generation provider client.
type Options struct {
	APIKey         string
	BaseURL        string
	RatePerSecond  float64
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the generation provider.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *infra.Logger
}

// SubmitInput captures the inputs for one generation job submission.
type SubmitInput struct {
	Kind       domain.MediaKind
	Directive  domain.Directive
	SourceURL  string
	SourceData []byte
	SourceMIME string
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.renderforge.dev/v1"
	}
	rps := opts.RatePerSecond
	if rps <= 0 {
		rps = 5
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Submit sends one generation job to the provider and returns the assigned
// job id. One attempt only.
func (c *Client) Submit(ctx context.Context, in SubmitInput) (string, error) {
	if !c.HasCredentials() {
		return "", domain.NewError(domain.KindConfiguration, "provider api key is not configured")
	}
	prompt := strings.TrimSpace(in.Directive.Prompt)
	if prompt == "" {
		return "", domain.NewError(domain.KindProviderRejected, "directive prompt is empty")
	}

	payload := submitRequest{
		Mode:   string(in.Kind),
		Prompt: prompt,
		Params: in.Directive.Params,
	}
	switch {
	case len(in.SourceData) > 0:
		mime := in.SourceMIME
		if mime == "" {
			mime = "image/png"
		}
		payload.Source = submitSource{Data: base64.StdEncoding.EncodeToString(in.SourceData), MIMEType: mime}
	case in.SourceURL != "":
		payload.Source = submitSource{URL: in.SourceURL}
	default:
		return "", domain.NewError(domain.KindProviderRejected, "source asset is required")
	}

	raw, err := c.do(ctx, http.MethodPost, c.baseURL+"/generations", payload)
	if err != nil {
		return "", err
	}

	var task taskPayload
	if err := json.Unmarshal(raw, &task); err != nil {
		return "", domain.WrapError(domain.KindProviderContract, "decode submit response", err)
	}
	id := task.ID
	if id == "" {
		id = task.TaskID
	}
	if id == "" {
		return "", domain.NewError(domain.KindProviderContract, "submit response carries no job id")
	}
	c.logger.Debug().Str("job_id", id).Str("mode", string(in.Kind)).Msg("provider: job submitted")
	return id, nil
}

// Status reads the current state of a job. A well-formed response with state
// failed is a valid terminal value, not an error.
func (c *Client) Status(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	if !c.HasCredentials() {
		return nil, domain.NewError(domain.KindConfiguration, "provider api key is not configured")
	}
	if strings.TrimSpace(jobID) == "" {
		return nil, domain.NewError(domain.KindProviderRejected, "job id is required")
	}
	raw, err := c.do(ctx, http.MethodGet, c.baseURL+"/generations/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	job, err := decodeJobResponse(raw)
	if err != nil {
		return nil, err
	}
	if job.ProviderID == "" {
		job.ProviderID = jobID
	}
	return job, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, domain.WrapError(domain.KindProviderUnavailable, "rate limiter wait", err)
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, domain.WrapError(domain.KindProviderRejected, "encode request", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, domain.WrapError(domain.KindProviderRejected, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.KindProviderUnavailable, "provider request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError(domain.KindProviderUnavailable, "read provider response", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, domain.NewError(domain.KindProviderUnavailable, fmt.Sprintf("provider returned status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.text() != "" {
			return nil, domain.NewError(domain.KindProviderRejected, detail.text())
		}
		return nil, domain.NewError(domain.KindProviderRejected, fmt.Sprintf("provider returned status %d", resp.StatusCode))
	}
	return raw, nil
}
