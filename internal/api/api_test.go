package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/htmltext/internal/fetch"
	"github.com/hyperifyio/htmltext/internal/robots"
)

func do(t *testing.T, a *API, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) ExtractResponse {
	t.Helper()
	var out ExtractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthcheck(t *testing.T) {
	rec := do(t, New(Config{}), http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestExtract_HTML(t *testing.T) {
	body := `{"html":"<title>T</title><p>Hello</p><p>world</p>"}`
	rec := do(t, New(Config{}), http.MethodPost, "/extract", body)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "T\n\nHello\n\nworld", out.Text)
	assert.Equal(t, "T", out.Title)
	assert.False(t, out.Fallback)
}

func TestExtract_OptionsAndSelector(t *testing.T) {
	body := `{"html":"<p>a</p><div class=\"k\"><p>b</p><p>c</p></div>","selector":".k","guess_layout":false}`
	rec := do(t, New(Config{}), http.MethodPost, "/extract", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b c", decode(t, rec).Text)

	body = `{"html":"<span>x</span><span>, y</span>","guess_punct_space":false}`
	rec = do(t, New(Config{}), http.MethodPost, "/extract", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "x , y", decode(t, rec).Text)
}

func TestExtract_MetaCharsetIgnoredForInlineHTML(t *testing.T) {
	body := `{"html":"<meta charset=\"iso-8859-1\"><p>café</p>"}`
	rec := do(t, New(Config{}), http.MethodPost, "/extract", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "café", decode(t, rec).Text)
}

func TestExtract_BadRequests(t *testing.T) {
	a := New(Config{})
	cases := map[string]string{
		"neither":  `{}`,
		"both":     `{"html":"<p>x</p>","url":"http://example.com/"}`,
		"selector": `{"html":"<p>x</p>","selector":"p[["}`,
		"json":     `{"html":`,
	}
	for name, body := range cases {
		rec := do(t, a, http.MethodPost, "/extract", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestExtract_BodyLimit(t *testing.T) {
	a := New(Config{BodyLimit: "1K"})
	body := `{"html":"<p>` + strings.Repeat("x", 2048) + `</p>"}`
	rec := do(t, a, http.MethodPost, "/extract", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestExtract_URLDisabled(t *testing.T) {
	rec := do(t, New(Config{}), http.MethodPost, "/extract", `{"url":"http://example.com/"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExtract_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("<title>Remote</title><p>ol\xe9</p>"))
		case "/data":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	a := New(Config{Fetcher: &fetch.Client{}})

	rec := do(t, a, http.MethodPost, "/extract", `{"url":"`+srv.URL+`/page"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "Remote\n\nolé", out.Text)
	assert.Equal(t, "Remote", out.Title)
	assert.Equal(t, srv.URL+"/page", out.Source)

	rec = do(t, a, http.MethodPost, "/extract", `{"url":"`+srv.URL+`/data"}`)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = do(t, a, http.MethodPost, "/extract", `{"url":"`+srv.URL+`/missing"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, a, http.MethodPost, "/extract", `{"url":"ftp://example.com/x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtract_URLRobots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>x</p>"))
	}))
	defer srv.Close()

	a := New(Config{Fetcher: &fetch.Client{Robots: &robots.Checker{}}})
	rec := do(t, a, http.MethodPost, "/extract", `{"url":"`+srv.URL+`/page"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExtract_URLMalformed(t *testing.T) {
	a := New(Config{Fetcher: &fetch.Client{}})
	rec := do(t, a, http.MethodPost, "/extract", `{"url":"http://%zz/"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	a = New(Config{Fetcher: &fetch.Client{Robots: &robots.Checker{}}})
	rec = do(t, a, http.MethodPost, "/extract", `{"url":"http://%zz/"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
