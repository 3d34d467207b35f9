package uploadhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/yourname/upload_lite/internal/config"
	"github.com/yourname/upload_lite/internal/repo/meta"
	"github.com/yourname/upload_lite/internal/usecase/uploadsvc"
)

const tracerName = "github.com/yourname/upload_lite/internal/app/uploadhttp"

type Deps struct {
	Uploads  uploadsvc.Service
	Store    meta.Store
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Tracer   trace.Tracer
}

// Server обслуживает HTTP API загрузчика поверх локального каталога.
type Server struct {
	cfg     *config.Config
	uploads uploadsvc.Service
	store   meta.Store
	logger  *zap.Logger
	metrics *metrics
	tracer  trace.Tracer
}

// NewServer конструктор
func NewServer(cfg *config.Config, deps Deps) (http.Handler, *Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if cfg.TmpDir == "" {
		c := *cfg
		c.TmpDir = c.TargetDir
		cfg = &c
	}

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Uploads == nil {
		deps.Uploads = uploadsvc.New(uploadsvc.Deps{Logger: deps.Logger})
	}
	if deps.Store == nil {
		deps.Store = meta.NewMemoryStore()
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(tracerName)
	}

	srv := &Server{
		cfg:     cfg,
		uploads: deps.Uploads,
		store:   deps.Store,
		logger:  deps.Logger,
		metrics: newMetrics(deps.Registry),
		tracer:  deps.Tracer,
	}

	return srv.routes(deps.Registry), srv, nil
}

// routes регистрирует обработчики загрузки, реестра, здоровья и GC.
func (a *Server) routes(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(NoCache)
	r.Use(CORS(a.cfg.CORSOrigin, defaultCORSHeaders()))

	r.Route("/upload", func(ur chi.Router) {
		ur.Post("/", a.upload)
		ur.Put("/", a.upload)
		ur.Post("/combine", a.combine)
	})
	r.Get("/uploads/{name}", a.uploadInfo)

	r.Get("/health", a.health)
	r.Post("/admin/gc", a.gcOnce)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return r
}
