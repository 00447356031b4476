package server

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/async"
	"github.com/joseph-ayodele/docfields/internal/discovery"
	"github.com/joseph-ayodele/docfields/internal/entity"
	"github.com/joseph-ayodele/docfields/internal/export"
	"github.com/joseph-ayodele/docfields/internal/repository"
)

// Discoverer proposes fields from sample documents.
type Discoverer interface {
	Discover(ctx context.Context, docs []entity.Document, intent string) (*discovery.Result, error)
}

// Config tunes the HTTP surface.
type Config struct {
	MaxUploadBytes int64
	AllowOrigins   []string
	// BatchConcurrency is the default when a request doesn't set one.
	BatchConcurrency int
}

// Server exposes extraction, discovery, templates and export over HTTP.
type Server struct {
	cfg       Config
	templates repository.TemplateRepository
	extractor async.Extractor
	batch     *async.BatchRunner
	discover  Discoverer
	export    *export.Service
	health    func(ctx context.Context) error
	logger    *slog.Logger
}

type Option func(*Server)

// WithHealthCheck adds a dependency probe to /healthz.
func WithHealthCheck(fn func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.health = fn
	}
}

func New(cfg Config, templates repository.TemplateRepository, extractor async.Extractor, discover Discoverer, exporter *export.Service, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = constants.DefaultBatchConcurrency
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	s := &Server{
		cfg:       cfg,
		templates: templates,
		extractor: extractor,
		batch:     async.NewBatchRunner(extractor, logger, async.WithConcurrency(cfg.BatchConcurrency)),
		discover:  discover,
		export:    exporter,
		logger:    logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the gin engine with all routes.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(s.logger), CORS(s.cfg.AllowOrigins))

	r.GET("/healthz", s.healthz)

	api := r.Group("/api", s.limitBody())
	{
		api.POST("/extract", s.extractDocument)
		api.POST("/batch", s.runBatch)
		api.POST("/discover", s.discoverFields)
		api.POST("/export", s.exportResults)
	}

	templates := api.Group("/templates")
	{
		templates.GET("", s.listTemplates)
		templates.POST("", s.createTemplate)
		templates.POST("/from-discovery", s.templateFromDiscovery)
		templates.GET("/:id", s.getTemplate)
		templates.PUT("/:id", s.updateTemplate)
		templates.DELETE("/:id", s.deleteTemplate)
		templates.PUT("/:id/instructions", s.setInstructions)
		templates.GET("/:id/prompts", s.listPromptVersions)
		templates.POST("/:id/training", s.trainingResults)
	}

	api.GET("/active-template", s.getActiveTemplate)
	api.PUT("/active-template", s.setActiveTemplate)
	return r
}

// resolveTemplate returns the template with id, or the active one when id is blank.
func (s *Server) resolveTemplate(ctx context.Context, id string) (*entity.Template, error) {
	if id == "" {
		active, err := s.templates.GetActiveID(ctx)
		if err != nil {
			return nil, err
		}
		id = active
	}
	return s.templates.Get(ctx, id)
}
