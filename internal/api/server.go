// Package api serves classification, style storage, legends and lookups
// over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/classify"
	"github.com/sells-group/choropleth/internal/config"
	"github.com/sells-group/choropleth/internal/source"
	"github.com/sells-group/choropleth/internal/store"
	"github.com/sells-group/choropleth/internal/symbology"
	"github.com/sells-group/choropleth/internal/thematic"
)

const maxBodyBytes = 32 << 20

// Deps are the collaborators of a Server. Source may be nil, in which case
// classification requests must carry their own values.
type Deps struct {
	Store          store.Store
	Source         source.Source
	Template       thematic.Template
	DefaultMode    classify.Mode
	DefaultClasses int
	MaxConcurrent  int
	Config         config.ServerConfig
}

// Server holds the HTTP handlers.
type Server struct {
	store          store.Store
	src            source.Source
	tmpl           thematic.Template
	builder        *thematic.Builder
	cache          *LegendCache
	limiter        *ClientLimiter
	defaultMode    classify.Mode
	defaultClasses int
	origins        []string
}

// New builds a Server from d.
func New(d Deps) *Server {
	s := &Server{
		store:          d.Store,
		src:            d.Source,
		tmpl:           d.Template,
		builder:        thematic.NewBuilder(d.Template, d.MaxConcurrent),
		cache:          NewLegendCache(d.Config.CacheEntries, time.Duration(d.Config.CacheTTLSecs)*time.Second),
		defaultMode:    d.DefaultMode,
		defaultClasses: d.DefaultClasses,
		origins:        d.Config.AllowedOrigins,
	}
	if s.defaultClasses < 1 {
		s.defaultClasses = 5
	}
	if d.Config.RateLimit > 0 {
		s.limiter = NewClientLimiter(d.Config.RateLimit, d.Config.RateBurst, "/health")
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	return s
}

// Cache exposes the legend cache.
func (s *Server) Cache() *LegendCache { return s.cache }

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Cache", "X-Classified", "Retry-After"},
		MaxAge:         300,
	}))
	if s.limiter != nil {
		r.Use(s.limiter.Handler)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Post("/classify", s.handleClassify)
	r.Post("/thematic", s.handleThematic)

	r.Route("/styles", func(r chi.Router) {
		r.Get("/", s.handleListStyles)
		r.Route("/{ref}", func(r chi.Router) {
			r.Get("/", s.handleGetStyle)
			r.Delete("/", s.handleDeleteStyle)
			r.Get("/legend", s.handleLegend)
			r.Put("/legend/{key}", s.handleCheckLegendItem)
			r.Get("/lookup", s.handleLookup)
			r.Get("/features", s.handleSourceFeatures)
			r.Post("/features", s.handleFeatures)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps domain errors to status codes.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, symbology.ErrInvalidArgument), errors.Is(err, symbology.ErrOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zap.L().Error("api: request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
