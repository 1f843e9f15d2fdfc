// Package api serves the sync service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kataras/figma-sync/internal/logging"
	"github.com/kataras/figma-sync/internal/metrics"
	"github.com/kataras/figma-sync/pkg/cache"
	"github.com/kataras/figma-sync/pkg/components"
	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/syncer"
	"github.com/kataras/figma-sync/pkg/tokens"
)

// Service is what the API exposes. *figmasync.Service implements it.
type Service interface {
	StartSync(kind syncer.Kind, fileIDs ...string) (bool, error)
	SyncStatus() syncer.Status
	Tokens(f cache.TokenFilter) ([]tokens.DesignToken, error)
	Components(f cache.ComponentFilter) []components.Component
	TokensUsedBy(componentID, fileID string) ([]string, bool)
	ComponentsUsing(tokenID, fileID string) []components.Component
	Markdown(fileID string) (string, error)
}

// SyncRequest is the optional body of POST /sync. Query parameters kind and
// fileId (repeatable) are accepted as well.
type SyncRequest struct {
	Kind    string   `json:"kind" validate:"omitempty,oneof=full delta"`
	FileIDs []string `json:"fileIds" validate:"dive,required"`
}

// SyncAccepted is the response of POST /sync.
type SyncAccepted struct {
	Accepted bool `json:"accepted"`
}

// Server routes HTTP requests to a Service.
type Server struct {
	svc      Service
	logger   *zap.Logger
	validate *validator.Validate
}

// New returns a server over svc. A nil logger disables request logging.
func New(svc Service, logger *zap.Logger) *Server {
	return &Server{svc: svc, logger: logger, validate: validator.New()}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.logger != nil {
		r.Use(logging.Middleware(s.logger))
	}

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/sync", func(r chi.Router) {
		r.Post("/", s.handleStartSync)
		r.Get("/status", s.handleSyncStatus)
	})

	r.Route("/tokens", func(r chi.Router) {
		r.Get("/", s.handleTokens)
		r.Get("/{id}/components", s.handleComponentsUsing)
	})

	r.Route("/components", func(r chi.Router) {
		r.Get("/", s.handleComponents)
		r.Get("/{id}/tokens", s.handleTokensUsedBy)
	})

	r.Get("/report", s.handleReport)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	Success(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStartSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	q := r.URL.Query()
	if req.Kind == "" {
		req.Kind = q.Get("kind")
	}
	if len(req.FileIDs) == 0 {
		req.FileIDs = q["fileId"]
	}
	if req.Kind == "" {
		req.Kind = string(syncer.Delta)
	}

	if err := s.validate.Struct(req); err != nil {
		BadRequest(w, err.Error())
		return
	}

	accepted, err := s.svc.StartSync(syncer.Kind(req.Kind), req.FileIDs...)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	if !accepted {
		JSON(w, http.StatusConflict, SyncAccepted{Accepted: false})
		return
	}
	JSON(w, http.StatusAccepted, SyncAccepted{Accepted: true})
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	Success(w, s.svc.SyncStatus())
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := cache.TokenFilter{
		FileID:   q.Get("fileId"),
		Kind:     tokens.Kind(q.Get("kind")),
		Category: q.Get("category"),
	}
	if f.Kind != "" && !f.Kind.Valid() {
		BadRequest(w, "unknown token kind "+string(f.Kind))
		return
	}

	toks, err := s.svc.Tokens(f)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	Success(w, toks)
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := cache.ComponentFilter{
		FileID: q.Get("fileId"),
		Type:   figma.NodeType(strings.ToUpper(q.Get("type"))),
	}
	if f.Type != "" && f.Type != figma.NodeTypeComponent && f.Type != figma.NodeTypeComponentSet {
		BadRequest(w, "type must be COMPONENT or COMPONENT_SET")
		return
	}
	Success(w, s.svc.Components(f))
}

func (s *Server) handleTokensUsedBy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ids, found := s.svc.TokensUsedBy(id, r.URL.Query().Get("fileId"))
	if !found {
		NotFound(w, "component "+id+" not found")
		return
	}
	Success(w, ids)
}

func (s *Server) handleComponentsUsing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	Success(w, s.svc.ComponentsUsing(id, r.URL.Query().Get("fileId")))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	md, err := s.svc.Markdown(r.URL.Query().Get("fileId"))
	if err != nil {
		InternalError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	io.WriteString(w, md)
}

// pathID returns the unescaped {id} parameter; node ids contain ':'.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || id == "" {
		BadRequest(w, "invalid id")
		return "", false
	}
	return id, true
}
