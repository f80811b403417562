// Package fetch downloads HTML pages for extraction.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/htmltext/internal/cache"
	"github.com/hyperifyio/htmltext/internal/robots"
)

// Page is a fetched HTML document.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
	// FromCache is set when the body was served from the page cache after a
	// 304 revalidation.
	FromCache bool
}

// Client wraps http.Client with timeouts, bounded retry on transient
// errors and an optional page cache.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each attempt.
	PerRequestTimeout time.Duration
	// MaxBytes caps the body size; 0 means unlimited.
	MaxBytes int64
	Cache    *cache.PageCache
	// BypassCache skips revalidation but still stores fresh responses.
	BypassCache bool
	// RedirectMaxHops caps redirects. Zero means 5.
	RedirectMaxHops int
	// MaxConcurrent limits in-flight requests. Zero means unlimited.
	MaxConcurrent int
	// Robots, when set, refuses URLs the site's robots.txt disallows.
	Robots *robots.Checker

	limiter     chan struct{}
	limiterOnce sync.Once
}

var (
	// ErrUnsupportedScheme is returned for URLs other than http and https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrNotHTML is returned when the response is not an HTML document.
	ErrNotHTML = errors.New("unsupported content type")
	// ErrTooLarge is returned when the body exceeds MaxBytes.
	ErrTooLarge = errors.New("response body too large")
	// ErrBadURL is returned for URLs that cannot be parsed.
	ErrBadURL = errors.New("malformed URL")
	// ErrDisallowed is returned when robots.txt disallows the URL.
	ErrDisallowed = errors.New("disallowed by robots.txt")
)

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("unexpected status: %d", e.Code) }

// Get fetches rawURL, revalidating against the cache when one is set.
func (c *Client) Get(ctx context.Context, rawURL string) (*Page, error) {
	if c.Robots != nil {
		if err := c.checkRobots(ctx, rawURL); err != nil {
			return nil, err
		}
	}
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		page, status, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil {
			return c.finish(ctx, rawURL, page, status)
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			break
		}
		log.Debug().Err(err).Str("url", rawURL).Int("attempt", i+1).Msg("retrying fetch")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	return nil, lastErr
}

func (c *Client) checkRobots(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	if !isHTTPScheme(u) {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}
	ok, err := c.Robots.Allowed(ctx, u)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
	}
	return nil
}

func (c *Client) finish(ctx context.Context, rawURL string, page *response, status int) (*Page, error) {
	if status == http.StatusNotModified && c.Cache != nil {
		body, err := c.Cache.LoadBody(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("load cached body: %w", err)
		}
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && page.ContentType == "" {
			page.ContentType = meta.ContentType
		}
		page.Body = body
		page.FromCache = true
		return &page.Page, nil
	}
	if c.Cache != nil && status == http.StatusOK {
		if err := c.Cache.Save(ctx, rawURL, page.ContentType, page.etag, page.lastModified, page.Body); err != nil {
			log.Debug().Err(err).Str("url", rawURL).Msg("page cache save failed")
		}
	}
	return &page.Page, nil
}

type response struct {
	Page
	etag         string
	lastModified string
}

func (c *Client) tryOnce(ctx context.Context, rawURL, etag, lastMod string) (*response, int, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, 0, err
	}
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	if !isHTTPScheme(req.URL) {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	r := &response{
		Page:         Page{URL: resp.Request.URL.String(), ContentType: resp.Header.Get("Content-Type")},
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	}
	switch {
	case resp.StatusCode == http.StatusNotModified:
		return r, resp.StatusCode, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, resp.StatusCode, &StatusError{Code: resp.StatusCode}
	}
	if !isHTMLContentType(r.ContentType) {
		return nil, resp.StatusCode, fmt.Errorf("%w: %s", ErrNotHTML, r.ContentType)
	}
	body := io.Reader(resp.Body)
	if c.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, c.MaxBytes+1)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if c.MaxBytes > 0 && int64(len(b)) > c.MaxBytes {
		return nil, resp.StatusCode, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, c.MaxBytes)
	}
	r.Body = b
	return r, resp.StatusCode, nil
}

// isTransient reports whether another attempt may succeed: server errors
// and per-attempt deadlines.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500
}

func (c *Client) httpClient() *http.Client {
	base := http.Client{Timeout: c.PerRequestTimeout}
	if c.HTTPClient != nil {
		base = *c.HTTPClient
	}
	base.CheckRedirect = c.checkRedirect
	return &base
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	if len(via) >= max {
		return errors.New("too many redirects")
	}
	if !isHTTPScheme(req.URL) {
		return errors.New("redirect to unsupported scheme")
	}
	return nil
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// acquire waits for a request slot or until ctx is done.
func (c *Client) acquire(ctx context.Context) error {
	if c.MaxConcurrent <= 0 {
		return nil
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	select {
	case c.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	<-c.limiter
}
