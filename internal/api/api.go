// Package api serves text extraction over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	zl "github.com/rs/zerolog/log"

	"github.com/hyperifyio/htmltext/internal/extract"
	"github.com/hyperifyio/htmltext/internal/fetch"
	"github.com/hyperifyio/htmltext/internal/query"
	"github.com/hyperifyio/htmltext/internal/robots"
)

// DefaultBodyLimit caps request bodies when Config.BodyLimit is empty.
const DefaultBodyLimit = "2M"

// ExtractRequest is the body of POST /extract. Exactly one of HTML and URL
// must be set. Omitted heuristics default to on.
type ExtractRequest struct {
	HTML            string `json:"html" form:"html"`
	URL             string `json:"url" form:"url"`
	Selector        string `json:"selector" form:"selector"`
	GuessPunctSpace *bool  `json:"guess_punct_space"`
	GuessLayout     *bool  `json:"guess_layout"`
}

type ExtractResponse struct {
	Text     string `json:"text"`
	Title    string `json:"title"`
	Fallback bool   `json:"fallback"`
	Source   string `json:"source,omitempty"`
}

type Config struct {
	Addr string
	// BodyLimit uses the echo size syntax, e.g. "2M".
	BodyLimit string
	// Fetcher serves URL requests; nil disables them.
	Fetcher *fetch.Client
}

type API struct {
	e       *echo.Echo
	addr    string
	fetcher *fetch.Client
}

func healthcheck(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func New(cfg Config) *API {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	a := &API{e: e, addr: cfg.Addr, fetcher: cfg.Fetcher}

	limit := cfg.BodyLimit
	if limit == "" {
		limit = DefaultBodyLimit
	}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zl.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.BodyLimit(limit))

	e.GET("/healthcheck", healthcheck)
	e.POST("/extract", a.extractHandler)
	return a
}

// Handler exposes the router, mainly for tests.
func (a *API) Handler() http.Handler { return a.e }

// Start listens on the configured address until Shutdown is called.
func (a *API) Start() error {
	zl.Info().Msgf("listening on %v", a.addr)
	if err := a.e.Start(a.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *API) Shutdown(ctx context.Context) error {
	return a.e.Shutdown(ctx)
}

func (a *API) extractHandler(c echo.Context) error {
	var req ExtractRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	hasHTML, hasURL := req.HTML != "", strings.TrimSpace(req.URL) != ""
	if hasHTML == hasURL {
		return echo.NewHTTPError(http.StatusBadRequest, "exactly one of html and url is required")
	}

	var m goquery.Matcher
	if req.Selector != "" {
		var err error
		if m, err = query.Compile(req.Selector); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	opts := extract.DefaultOptions()
	if req.GuessPunctSpace != nil {
		opts.GuessPunctSpace = *req.GuessPunctSpace
	}
	if req.GuessLayout != nil {
		opts.GuessLayout = *req.GuessLayout
	}

	// JSON strings are UTF-8; meta charset declarations must not re-decode them.
	body, contentType, source := []byte(req.HTML), "text/html; charset=utf-8", ""
	if hasURL {
		if a.fetcher == nil {
			return echo.NewHTTPError(http.StatusForbidden, "url input is disabled")
		}
		page, err := a.fetcher.Get(c.Request().Context(), strings.TrimSpace(req.URL))
		if err != nil {
			return fetchError(err)
		}
		body, contentType, source = page.Body, page.ContentType, page.URL
	}

	doc := query.Extract(body, contentType, m, opts)
	return c.JSON(http.StatusOK, ExtractResponse{
		Text:     doc.Text,
		Title:    doc.Title,
		Fallback: doc.Fallback,
		Source:   source,
	})
}

func fetchError(err error) error {
	var se *fetch.StatusError
	switch {
	case errors.Is(err, fetch.ErrUnsupportedScheme), errors.Is(err, fetch.ErrBadURL):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, fetch.ErrNotHTML):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, fetch.ErrDisallowed):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, robots.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, fetch.ErrTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &se):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	zl.Debug().Err(err).Msg("fetch failed")
	return echo.NewHTTPError(http.StatusBadGateway, "fetch failed")
}
