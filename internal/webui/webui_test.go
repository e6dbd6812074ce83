// ABOUTME: Tests for the browser UI handlers and help rendering
// ABOUTME: Exercises routes through an httptest recorder

package webui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMux(t *testing.T, cfg Config) *http.ServeMux {
	t.Helper()
	ui, err := New(cfg)
	require.NoError(t, err)
	mux := http.NewServeMux()
	ui.RegisterRoutes(mux)
	return mux
}

func get(mux http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestIndex(t *testing.T) {
	mux := newTestMux(t, Config{Title: "Docs Desk", Mock: true})

	rec := get(mux, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<title>Docs Desk</title>")
	assert.Contains(t, body, "Mock mode")
	assert.Contains(t, body, `data-endpoint="/api/process_document"`)
	assert.Contains(t, body, `data-endpoint="/api/summarize_text"`)
	assert.Contains(t, body, `data-field="text_content"`)
	assert.Contains(t, body, `data-loading="Verifying..."`)
}

func TestIndex_DefaultTitleNoMockBanner(t *testing.T) {
	body := get(newTestMux(t, Config{}), "/").Body.String()
	assert.Contains(t, body, DefaultTitle)
	assert.NotContains(t, body, "Mock mode")
}

func TestIndex_UnknownPath(t *testing.T) {
	rec := get(newTestMux(t, Config{}), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndex_RejectsPost(t *testing.T) {
	mux := newTestMux(t, Config{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStaticAssets(t *testing.T) {
	mux := newTestMux(t, Config{})

	for _, p := range []string{"/static/app.js", "/static/style.css"} {
		rec := get(mux, p)
		assert.Equal(t, http.StatusOK, rec.Code, p)
		assert.NotEmpty(t, rec.Body.String(), p)
	}
}

func TestStaticAssets_HealthRequiresHealthyStatus(t *testing.T) {
	mux := newTestMux(t, Config{})

	rec := get(mux, "/static/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	// A 200 carrying status "unhealthy" must mark every indicator offline.
	assert.Contains(t, rec.Body.String(), `h.status !== "healthy"`)
}

func TestHelp_RendersMarkdown(t *testing.T) {
	mux := newTestMux(t, Config{})

	rec := get(mux, "/help")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Getting Started</h1>")
	assert.Contains(t, body, `href="/help?topic=modes"`)

	rec = get(mux, "/help?topic=modes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<table>")
	assert.Contains(t, rec.Body.String(), "<code>/api/process_document</code>")
}

func TestHelp_UnknownTopic(t *testing.T) {
	rec := get(newTestMux(t, Config{}), "/help?topic=../../etc/passwd")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not Found")
}

func TestListTopics_Order(t *testing.T) {
	topics, err := listTopics("modes")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(topics), 4)

	assert.Equal(t, "getting-started", topics[0].Slug)
	assert.Equal(t, "Getting Started", topics[0].Title)
	assert.Equal(t, "modes", topics[1].Slug)
	assert.True(t, topics[1].Active)
}

func TestFormatHelpTitle(t *testing.T) {
	assert.Equal(t, "Access Codes", formatHelpTitle("access-codes"))
	assert.Equal(t, "Modes", formatHelpTitle("modes"))
}
