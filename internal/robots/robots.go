// Package robots decides whether a URL may be fetched under the site's
// robots.txt.
package robots

import (
	"bufio"
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
)

// ErrUnavailable is returned when robots.txt could not be read because of a
// server error or a network failure. Fetching is refused until it recovers.
var ErrUnavailable = errors.New("robots.txt unavailable")

// maxRobotsBytes caps the robots.txt body read.
const maxRobotsBytes = 512 << 10

// Group is one User-agent block.
type Group struct {
	Agents   []string
	Allow    []string
	Disallow []string
}

// Rules is a parsed robots.txt. The zero value allows everything.
type Rules struct {
	Groups []Group
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	var (
		rules   Rules
		cur     Group
		inRules bool
	)
	flush := func() {
		if len(cur.Agents) > 0 {
			rules.Groups = append(rules.Groups, cur)
		}
		cur = Group{}
		inRules = false
	}
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "user-agent", "useragent":
			// Consecutive User-agent lines share one group.
			if inRules {
				flush()
			}
			cur.Agents = append(cur.Agents, strings.ToLower(val))
		case "allow":
			inRules = true
			cur.Allow = append(cur.Allow, val)
		case "disallow":
			inRules = true
			cur.Disallow = append(cur.Disallow, val)
		}
	}
	flush()
	return rules
}

// Allowed reports whether path (with optional query) may be fetched by
// userAgent. The longest matching pattern wins; Allow wins ties. No match
// allows.
func (r Rules) Allowed(userAgent, path string) bool {
	g := r.group(userAgent)
	if g == nil {
		return true
	}
	best, allow := -1, true
	consider := func(patterns []string, isAllow bool) {
		for _, p := range patterns {
			if p == "" || !match(p, path) {
				continue
			}
			n := specificity(p)
			if n > best || (n == best && isAllow) {
				best, allow = n, isAllow
			}
		}
	}
	consider(g.Disallow, false)
	consider(g.Allow, true)
	return allow
}

// group picks the group whose agent token is the longest substring of
// userAgent, falling back to "*".
func (r Rules) group(userAgent string) *Group {
	ua := strings.ToLower(userAgent)
	var (
		best    *Group
		bestLen = -1
	)
	for i := range r.Groups {
		for _, a := range r.Groups[i].Agents {
			n := -1
			switch {
			case a == "*":
				n = 0
			case a != "" && strings.Contains(ua, a):
				n = len(a)
			}
			if n > bestLen {
				best, bestLen = &r.Groups[i], n
			}
		}
	}
	return best
}

// match applies a robots pattern anchored at the start of path. '*' matches
// any run of characters and a trailing '$' anchors the end.
func match(pattern, path string) bool {
	anchored := strings.HasSuffix(pattern, "$")
	pattern = strings.TrimSuffix(pattern, "$")
	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(path, parts[0]) {
		return false
	}
	rest := path[len(parts[0]):]
	if len(parts) == 1 {
		return !anchored || rest == ""
	}
	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(rest, part)
		if i < 0 {
			return false
		}
		rest = rest[i+len(part):]
	}
	last := parts[len(parts)-1]
	if anchored {
		return strings.HasSuffix(rest, last)
	}
	return strings.Contains(rest, last)
}

func specificity(pattern string) int {
	return len(strings.ReplaceAll(strings.TrimSuffix(pattern, "$"), "*", ""))
}

// Checker fetches and remembers robots.txt per origin.
type Checker struct {
	HTTPClient *http.Client
	UserAgent  string
	// Cache revalidates robots.txt bodies across runs when set.
	Cache *cache.PageCache
	// TTL is how long rules stay in memory. Zero means 30 minutes.
	TTL time.Duration

	mu  sync.Mutex
	mem map[string]entry
	now func() time.Time
}

type entry struct {
	rules   Rules
	expires time.Time
}

// Allowed fetches the robots.txt of u's origin when needed and evaluates u.
func (c *Checker) Allowed(ctx context.Context, u *url.URL) (bool, error) {
	origin := u.Scheme + "://" + u.Host
	rules, err := c.rules(ctx, origin)
	if err != nil {
		return false, err
	}
	return rules.Allowed(c.UserAgent, u.RequestURI()), nil
}

func (c *Checker) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *Checker) rules(ctx context.Context, origin string) (Rules, error) {
	c.mu.Lock()
	if e, ok := c.mem[origin]; ok && c.clock().Before(e.expires) {
		c.mu.Unlock()
		return e.rules, nil
	}
	c.mu.Unlock()

	rules, err := c.fetch(ctx, origin+"/robots.txt")
	if err != nil {
		return Rules{}, err
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	c.mu.Lock()
	if c.mem == nil {
		c.mem = make(map[string]entry)
	}
	c.mem[origin] = entry{rules: rules, expires: c.clock().Add(ttl)}
	c.mu.Unlock()
	return rules, nil
}

func (c *Checker) fetch(ctx context.Context, robotsURL string) (Rules, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Cache != nil {
		if meta, err := c.Cache.LoadMeta(ctx, robotsURL); err == nil {
			if meta.ETag != "" {
				req.Header.Set("If-None-Match", meta.ETag)
			}
			if meta.LastModified != "" {
				req.Header.Set("If-Modified-Since", meta.LastModified)
			}
		}
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rules{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && c.Cache != nil:
		body, err := c.Cache.LoadBody(ctx, robotsURL)
		if err != nil {
			return Rules{}, fmt.Errorf("%w: cached body: %v", ErrUnavailable, err)
		}
		return Parse(string(body)), nil
	case resp.StatusCode >= 500:
		return Rules{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		log.Debug().Int("status", resp.StatusCode).Str("url", robotsURL).Msg("no robots.txt; allowing all")
		return Rules{}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Rules{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return Rules{}, fmt.Errorf("%w: read: %v", ErrUnavailable, err)
	}
	if c.Cache != nil {
		if err := c.Cache.Save(ctx, robotsURL, resp.Header.Get("Content-Type"), resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), body); err != nil {
			log.Debug().Err(err).Str("url", robotsURL).Msg("robots cache save failed")
		}
	}
	return Parse(string(body)), nil
}
