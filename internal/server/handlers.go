package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/json-iterator/go"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rednote-cli/internal/config"
	"github.com/xkilldash9x/rednote-cli/internal/xiaohongshu"
)

// PageRunner runs a function against a page inside a fresh browser
// session. Satisfied by browser.Manager.
type PageRunner interface {
	WithPage(ctx context.Context, fn func(page playwright.Page) error) error
}

// apiResponse is the envelope for every JSON response.
type apiResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// statusResult is the payload of the status and login endpoints.
type statusResult struct {
	LoggedIn bool `json:"logged_in"`
}

// Handlers owns the HTTP request handling.
type Handlers struct {
	log    *zap.Logger
	runner PageRunner
	cfg    *config.Config
}

// NewHandlers creates a Handlers instance.
func NewHandlers(runner PageRunner, cfg *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{
		log:    logger.Named("handlers"),
		runner: runner,
		cfg:    cfg,
	}
}

// RegisterRoutes sets up the routing.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HandleHealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.HandleStatus)
		r.Post("/login", h.HandleLogin)
		r.Post("/publish", h.HandlePublish)
	})
}

func (h *Handlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleStatus reports whether the persisted cookies still carry an
// authenticated session.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var loggedIn bool
	err := h.runner.WithPage(r.Context(), func(page playwright.Page) error {
		loggedIn = xiaohongshu.NewLoginFlow(page, h.log).CheckLoginStatus(r.Context())
		return nil
	})
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Browser session failed: %v", err))
		return
	}
	h.respondWithSuccess(w, http.StatusOK, statusResult{LoggedIn: loggedIn})
}

// HandleLogin runs the QR handshake. The request blocks until the scan
// completes or the poll window runs out; the session cookies are
// persisted by the session teardown on the way out.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var loggedIn bool
	err := h.runner.WithPage(r.Context(), func(page playwright.Page) error {
		loggedIn = xiaohongshu.NewLoginFlow(page, h.log).Login(r.Context())
		return nil
	})
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Browser session failed: %v", err))
		return
	}
	if !loggedIn {
		h.respondWithError(w, http.StatusRequestTimeout, "Login was not completed within the scan window.")
		return
	}
	h.respondWithSuccess(w, http.StatusOK, statusResult{LoggedIn: true})
}

// HandlePublish validates the request locally, confirms the session is
// authenticated, and runs the publish pipeline. A stage failure is
// reported with the stage that aborted it.
func (h *Handlers) HandlePublish(w http.ResponseWriter, r *http.Request) {
	var req xiaohongshu.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid publish request: %v", err))
		return
	}

	h.log.Info("Publish request accepted.",
		zap.String("title", req.Title),
		zap.Int("images", len(req.ImagePaths)))

	var errNotLoggedIn = errors.New("not logged in")
	err := h.runner.WithPage(r.Context(), func(page playwright.Page) error {
		if !xiaohongshu.NewLoginFlow(page, h.log).CheckLoginStatus(r.Context()) {
			return errNotLoggedIn
		}
		return xiaohongshu.NewPublishFlow(page, h.cfg.Publish, h.log).Publish(r.Context(), req)
	})

	switch {
	case err == nil:
		h.respondWithSuccess(w, http.StatusOK, map[string]string{"title": req.Title})
	case errors.Is(err, errNotLoggedIn):
		h.respondWithError(w, http.StatusConflict, "Not logged in; run login first.")
	default:
		var stageErr *xiaohongshu.StageError
		if errors.As(err, &stageErr) {
			h.respondWithError(w, http.StatusBadGateway,
				fmt.Sprintf("Publish failed at stage %q: %v", stageErr.Stage, stageErr.Err))
			return
		}
		h.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Publish failed: %v", err))
	}
}

func (h *Handlers) respondWithError(w http.ResponseWriter, statusCode int, message string) {
	h.log.Warn("Request failed.", zap.Int("status", statusCode), zap.String("error", message))
	h.respond(w, statusCode, apiResponse{Status: "error", Error: message})
}

func (h *Handlers) respondWithSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	h.respond(w, statusCode, apiResponse{Status: "success", Data: data})
}

func (h *Handlers) respond(w http.ResponseWriter, statusCode int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to encode response.", zap.Error(err))
	}
}
