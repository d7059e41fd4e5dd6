package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/zarrlens/zarrlens/pkg/buildinfo"
	"github.com/zarrlens/zarrlens/pkg/cache"
	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/httputil"
	"github.com/zarrlens/zarrlens/pkg/observability"
)

// HTTPStore reads a dataset served over HTTP. Metadata documents go through
// the configured cache; chunks are always fetched.
type HTTPStore struct {
	base    string
	http    *http.Client
	headers map[string]string
	retry   httputil.Policy
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	refresh bool
	logger  *log.Logger
}

// NewHTTPStore creates an HTTPStore rooted at base. opts should already have
// defaults applied; [Open] does this.
func NewHTTPStore(base string, opts Options) *HTTPStore {
	_ = opts.ValidateAndSetDefaults()
	return &HTTPStore{
		base:    strings.TrimRight(base, "/"),
		http:    opts.HTTPClient,
		headers: opts.Headers,
		retry:   *opts.Retry,
		cache:   opts.Cache,
		keyer:   opts.Keyer,
		ttl:     opts.TTL,
		refresh: opts.Refresh,
		logger:  opts.Logger,
	}
}

// URL returns the dataset root.
func (s *HTTPStore) URL() string { return s.base }

// Get fetches key. Metadata documents are served from the cache when present.
func (s *HTTPStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if !IsMetadataKey(key) {
		return s.fetch(ctx, key)
	}
	ck := s.keyer.MetadataKey(s.base, key)
	return cache.GetOrFetch(ctx, s.cache, "metadata", ck, s.ttl, s.refresh, func() ([]byte, error) {
		return s.fetch(ctx, key)
	})
}

// Size issues a HEAD request and returns Content-Length.
func (s *HTTPStore) Size(ctx context.Context, key string) (int64, error) {
	if err := checkKey(key); err != nil {
		return 0, err
	}
	var size int64
	err := s.do(ctx, http.MethodHead, key, func(resp *http.Response) error {
		if resp.ContentLength < 0 {
			return fmt.Errorf("%w: no content length for %s", ErrNetwork, key)
		}
		size = resp.ContentLength
		return nil
	})
	return size, err
}

// List is not supported over plain HTTP, which has no directory listing.
func (s *HTTPStore) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, zerrors.New(zerrors.ErrCodeUnsupported, "listing is not supported for %s", s.base)
}

func (s *HTTPStore) fetch(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.do(ctx, http.MethodGet, key, func(resp *http.Response) error {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &httputil.RetryableError{Err: fmt.Errorf("%w: read %s: %v", ErrNetwork, key, err)}
		}
		data = body
		return nil
	})
	return data, err
}

func (s *HTTPStore) do(ctx context.Context, method, key string, handle func(*http.Response) error) error {
	target := s.base + "/" + key
	host, urlPath := splitTarget(target)
	return httputil.Retry(ctx, s.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", buildinfo.UserAgent())
		for k, v := range s.headers {
			req.Header.Set(k, v)
		}

		observability.HTTP().OnRequest(ctx, method, host, urlPath)
		start := time.Now()
		resp, err := s.http.Do(req)
		if err != nil {
			observability.HTTP().OnError(ctx, method, host, urlPath, err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
		}
		defer resp.Body.Close()
		observability.HTTP().OnResponse(ctx, method, host, urlPath, resp.StatusCode, time.Since(start))
		s.logger.Debug("fetch", "method", method, "url", target, "status", resp.StatusCode)

		if err := checkStatus(resp.StatusCode, key); err != nil {
			return err
		}
		return handle(resp)
	})
}

func splitTarget(target string) (host, path string) {
	u, err := url.Parse(target)
	if err != nil {
		return "", target
	}
	return u.Host, u.Path
}

// checkStatus maps a response status to a store error. Object stores answer
// 403 for absent keys when listing is not allowed, so 403 and 410 count as
// missing. Metadata documents are probed for existence and treat every other
// non-transient client error as missing as well.
func checkStatus(code int, key string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound, code == http.StatusForbidden, code == http.StatusGone:
		return fmt.Errorf("%w: %s (status %d)", ErrNotFound, key, code)
	case IsMetadataKey(key) && code >= 400 && code < 500 && !httputil.RetryableStatus(code):
		return fmt.Errorf("%w: %s (status %d)", ErrNotFound, key, code)
	case httputil.RetryableStatus(code):
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
