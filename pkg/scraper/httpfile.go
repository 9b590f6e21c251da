package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// httpFileSpec configures the httpfile module: plain HTTP(S) downloads of
// statement or export URLs into the output directory. It covers institutions
// that publish documents at stable authenticated-by-cookie-jar or public
// URLs; anything needing a login flow belongs in a site-specific module.
type httpFileSpec struct {
	URLs      []string      `mapstructure:"urls"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type httpFile struct {
	spec    httpFileSpec
	limiter *rate.Limiter
	client  *http.Client
}

func init() {
	Register("httpfile", newHTTPFile)
}

func newHTTPFile(params map[string]any) (Scraper, error) {
	var spec httpFileSpec
	if err := decodeParams(params, &spec); err != nil {
		return nil, err
	}
	if len(spec.URLs) == 0 {
		return nil, fmt.Errorf("urls is required")
	}
	for _, raw := range spec.URLs {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid url %q: %w", raw, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("unsupported url scheme %q in %q", u.Scheme, raw)
		}
	}
	if spec.RateLimit < 0 {
		return nil, fmt.Errorf("rate_limit must be non-negative")
	}
	if spec.Timeout <= 0 {
		spec.Timeout = 60 * time.Second
	}

	var limiter *rate.Limiter
	if spec.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(spec.RateLimit), 1)
	}

	return &httpFile{
		spec:    spec,
		limiter: limiter,
		client:  &http.Client{Timeout: spec.Timeout},
	}, nil
}

func (h *httpFile) Run(ctx context.Context, env Env) error {
	for _, raw := range h.spec.URLs {
		if h.limiter != nil {
			if err := h.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if err := h.fetch(ctx, env, raw); err != nil {
			return fmt.Errorf("fetch %s: %w", raw, err)
		}
	}
	env.Logger.Info("All downloads complete", zap.Int("count", len(h.spec.URLs)))
	return nil
}

func (h *httpFile) fetch(ctx context.Context, env Env, raw string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	dest := filepath.Join(env.OutputDir, downloadName(raw))
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	env.Logger.Info("Downloaded",
		zap.String("url", raw),
		zap.String("dest", dest),
		zap.Int64("bytes", n))
	return nil
}

// downloadName derives a local file name from a URL, falling back to
// "download" for bare paths.
func downloadName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "download"
	}
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return "download"
	}
	return base
}
