package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	json "github.com/json-iterator/go"
	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rednote-cli/internal/config"
)

// stubPage is just enough page for the login heuristics: loggedIn
// controls whether selector probes show the authenticated chrome.
type stubPage struct {
	playwright.Page
	loggedIn bool
}

func (p *stubPage) Goto(url string, opts ...playwright.PageGotoOptions) (playwright.Response, error) {
	return nil, nil
}

func (p *stubPage) QuerySelector(selector string, opts ...playwright.PageQuerySelectorOptions) (playwright.ElementHandle, error) {
	if p.loggedIn {
		return &stubElement{}, nil
	}
	return nil, nil
}

func (p *stubPage) Content() (string, error) { return "<html></html>", nil }

func (p *stubPage) URL() string { return "https://www.xiaohongshu.com/explore" }

type stubElement struct{ playwright.ElementHandle }

type stubRunner struct {
	page  playwright.Page
	err   error
	calls int
}

func (r *stubRunner) WithPage(ctx context.Context, fn func(page playwright.Page) error) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	return fn(r.page)
}

func newTestRouter(t *testing.T, runner PageRunner) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	NewHandlers(runner, config.NewDefaultConfig(), zaptest.NewLogger(t)).RegisterRoutes(r)
	return r
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleHealthCheck(t *testing.T) {
	router := newTestRouter(t, &stubRunner{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestHandleStatus(t *testing.T) {
	t.Run("authenticated session", func(t *testing.T) {
		router := newTestRouter(t, &stubRunner{page: &stubPage{loggedIn: true}})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "success", resp.Status)
		data, ok := resp.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, true, data["logged_in"])
	})

	t.Run("browser session failure", func(t *testing.T) {
		router := newTestRouter(t, &stubRunner{err: errors.New("chromium exited")})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Contains(t, resp.Error, "chromium exited")
	})
}

func TestHandleLoginExistingSession(t *testing.T) {
	router := newTestRouter(t, &stubRunner{page: &stubPage{loggedIn: true}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", decodeResponse(t, rec).Status)
}

func TestHandlePublishRejectsBadRequests(t *testing.T) {
	runner := &stubRunner{page: &stubPage{loggedIn: true}}
	router := newTestRouter(t, runner)

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/publish", strings.NewReader("{not json"))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("fails validation", func(t *testing.T) {
		body := `{"title":"标题","content":"正文","image_paths":[]}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/publish", strings.NewReader(body))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeResponse(t, rec).Error, "at least one image")
	})

	// Neither rejection should have touched the browser.
	assert.Zero(t, runner.calls)
}

func TestHandlePublishRequiresLogin(t *testing.T) {
	image := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(image, []byte("png"), 0o600))

	router := newTestRouter(t, &stubRunner{page: &stubPage{loggedIn: false}})

	body, err := json.Marshal(map[string]interface{}{
		"title": "标题", "content": "正文", "image_paths": []string{image},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/publish", strings.NewReader(string(body)))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decodeResponse(t, rec).Error, "Not logged in")
}
