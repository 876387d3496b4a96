// Package server exposes the content-generation workflow as a JSON HTTP API
// for the dashboard. Each browser session maps to one workspace: a paper is
// analyzed once, then blog, social, poster, and deck generation all run
// against that analysis.
package server

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/scholarshare/scholarshare/pkg/assemble"
	"github.com/scholarshare/scholarshare/pkg/blog"
	"github.com/scholarshare/scholarshare/pkg/cache"
	"github.com/scholarshare/scholarshare/pkg/config"
	"github.com/scholarshare/scholarshare/pkg/critic"
	"github.com/scholarshare/scholarshare/pkg/llm"
	"github.com/scholarshare/scholarshare/pkg/paper"
	"github.com/scholarshare/scholarshare/pkg/render"
	"github.com/scholarshare/scholarshare/pkg/session"
	"github.com/scholarshare/scholarshare/pkg/social"
	"github.com/scholarshare/scholarshare/pkg/store"
)

// cleanupInterval is how often expired workspaces are dropped.
const cleanupInterval = 10 * time.Minute

// Options wires the server's collaborators. Zero fields get safe in-process
// defaults so tests can construct a server from just a fake client and
// renderer.
type Options struct {
	Settings  *config.Settings
	Sessions  *session.Manager
	Store     store.Store
	Client    llm.Client
	Images    llm.ImageGenerator
	Renderer  render.Renderer
	Cache     cache.Cache
	Keyer     cache.Keyer
	OutputDir string
	Logger    *log.Logger

	// DevtoBaseURL overrides the dev.to API endpoint; empty means production.
	DevtoBaseURL string
}

// Server handles dashboard API requests.
type Server struct {
	settings  *config.Settings
	sessions  *session.Manager
	store     store.Store
	client    llm.Client
	renderer  render.Renderer
	cache     cache.Cache
	keyer     cache.Keyer
	outputDir string
	logger    *log.Logger
	devtoBase string

	analyzer  *paper.Analyzer
	blogGen   *blog.Generator
	socialGen *social.Generator
	assembler *assemble.Assembler
	inspector *critic.Critic
}

// New creates a server from opts, filling defaults for omitted fields.
func New(opts Options) *Server {
	if opts.Settings == nil {
		opts.Settings = config.NewSettings(config.Defaults())
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewManager(0)
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "outputs"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Server{
		settings:  opts.Settings,
		sessions:  opts.Sessions,
		store:     opts.Store,
		client:    opts.Client,
		renderer:  opts.Renderer,
		cache:     opts.Cache,
		keyer:     opts.Keyer,
		outputDir: opts.OutputDir,
		logger:    opts.Logger,
		devtoBase: opts.DevtoBaseURL,

		analyzer:  paper.NewAnalyzer(opts.Client, opts.Cache, opts.Keyer, opts.Logger),
		blogGen:   blog.NewGenerator(opts.Client),
		socialGen: social.NewGenerator(opts.Client, opts.Images),
		assembler: assemble.New(opts.Client, opts.Logger),
		inspector: critic.New(opts.Client, nil, opts.Logger),
	}
}

// Router builds the API route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Post("/analyze", s.handleAnalyze)
			r.Post("/blog", s.handleBlog)
			r.Get("/blog/html", s.handleBlogHTML)
			r.Post("/social", s.handleSocial)
			r.Post("/poster", s.handlePoster)
			r.Post("/deck", s.handleDeck)
			r.Get("/artifacts/{kind}", s.handleArtifactDownload)
			r.Get("/artifacts/{kind}/source", s.handleArtifactSource)
			r.Post("/publish/devto", s.handlePublishDevto)
		})
	})

	r.Route("/api/config", func(r chi.Router) {
		r.Get("/", s.handleConfigStatus)
		r.Delete("/", s.handleConfigClearAll)
		r.Put("/{key}", s.handleConfigSet)
		r.Delete("/{key}", s.handleConfigClear)
	})

	r.Get("/api/papers", s.handleListPapers)
	r.Get("/api/papers/{paperID}/content", s.handleListContent)

	return r
}

// Start serves the API on addr until ctx is cancelled, then shuts down
// gracefully. Expired workspaces are swept in the background.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go s.sweepSessions(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.sessions.Cleanup(ctx); removed > 0 {
				s.logger.Debug("swept expired sessions", "removed", removed)
			}
		}
	}
}

// sessionDir is where one workspace's render attempts land.
func (s *Server) sessionDir(sessionID, kind string) string {
	return filepath.Join(s.outputDir, "sessions", sessionID, kind)
}
