// Package relocate downloads provider-hosted result assets and republishes
// them into storage this system controls. Provider URLs are time-limited;
// only the republished URL is durable.
package relocate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"roomcraft/internal/domain"
	"roomcraft/internal/feature"
	"roomcraft/internal/infra"
	"roomcraft/internal/storage"
)

// Options configures a Relocator.
type Options struct {
	Store        storage.ObjectStore
	Timeout      time.Duration
	MaxRedirects int
	HTTPClient   *http.Client
	Logger       infra.Logger
}

// Relocator copies a remote asset into the object store and resolves its
// durable public URL.
type Relocator struct {
	store      storage.ObjectStore
	httpClient *http.Client
	logger     infra.Logger
}

// New constructs a Relocator with a bounded-timeout, bounded-redirect
// download client.
func New(opts Options) *Relocator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	var httpClient *http.Client
	if opts.HTTPClient != nil {
		// Copy so the redirect policy never leaks into a shared client.
		clone := *opts.HTTPClient
		httpClient = &clone
	} else {
		httpClient = &http.Client{Timeout: timeout}
	}
	if httpClient.CheckRedirect == nil {
		httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		}
	}
	return &Relocator{store: opts.Store, httpClient: httpClient, logger: opts.Logger}
}

// Relocate downloads the remote asset and uploads it under a key namespaced
// by feature and request id. The key embeds a nanosecond timestamp so two
// runs never collide.
func (r *Relocator) Relocate(ctx context.Context, req *domain.GenerationRequest, f *feature.Feature, remoteURL string) (*domain.RelocatedAsset, error) {
	data, contentType, err := r.download(ctx, remoteURL)
	if err != nil {
		return nil, err
	}

	ext, err := extensionFor(contentType, f.Kind)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "image/png"
	}

	key := fmt.Sprintf("%s/user-%s/%s-%d%s", f.StoragePrefix, sanitizeOwner(req.Owner), req.ID, time.Now().UnixNano(), ext)
	if err := r.store.Upload(ctx, key, data, contentType, f.Upsert); err != nil {
		return nil, domain.WrapError(domain.KindUploadFailed, "upload relocated asset", err)
	}

	publicURL, err := r.store.PublicURL(key)
	if err != nil {
		return nil, domain.WrapError(domain.KindPublicURLUnavailable, "resolve public url", err)
	}
	if publicURL == "" {
		return nil, domain.NewError(domain.KindPublicURLUnavailable, "store produced an empty public url")
	}

	r.logger.Debug().
		Str("request_id", req.ID).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("relocate: asset republished")

	return &domain.RelocatedAsset{
		SourceURL:   remoteURL,
		ContentType: contentType,
		Bytes:       int64(len(data)),
		StorageKey:  key,
		PublicURL:   publicURL,
	}, nil
}

func (r *Relocator) download(ctx context.Context, remoteURL string) ([]byte, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return nil, "", domain.WrapError(domain.KindDownloadFailed, "build download request", err)
	}
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", domain.WrapError(domain.KindDownloadFailed, "download remote asset", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", domain.NewError(domain.KindDownloadFailed, fmt.Sprintf("download returned status %d", resp.StatusCode))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", domain.WrapError(domain.KindDownloadFailed, "read remote asset", err)
	}
	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	return data, strings.ToLower(contentType), nil
}

// extensionFor chooses a file extension purely from the content type. Images
// with unknown types fall back to .png; video assets must declare a known
// type because players key off the extension.
func extensionFor(contentType string, kind domain.MediaKind) (string, error) {
	switch contentType {
	case "image/webp":
		return ".webp", nil
	case "image/png":
		return ".png", nil
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "video/mp4":
		return ".mp4", nil
	}
	if kind == domain.MediaVideo {
		return "", domain.NewError(domain.KindDownloadFailed, fmt.Sprintf("unsupported content type %q for video asset", contentType))
	}
	return ".png", nil
}

func sanitizeOwner(owner string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(owner) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "anonymous"
	}
	return out
}
