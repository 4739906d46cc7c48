// Package httpapi wires the HTTP transport (Gin) to the relay services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS and security headers.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/docset-relay/docs" // swagger spec registration
	"github.com/tbourn/docset-relay/internal/config"
	"github.com/tbourn/docset-relay/internal/http/handlers"
	"github.com/tbourn/docset-relay/internal/http/middleware"
	"github.com/tbourn/docset-relay/internal/services"
)

// APIBasePath prefixes every public endpoint.
const APIBasePath = "/api"

// maxBodyBytes caps request bodies; every endpoint takes a small JSON object.
const maxBodyBytes = 1 << 20

// DocClient is the document-intelligence surface the API depends on.
type DocClient interface {
	services.QueryClient
	services.DocSetClient
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and builds the services from store and docs.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID, then the request-scoped logger
//  3. RedactingLogger: one access line per request, credentials masked
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip (optional), CORS and security headers
func RegisterRoutes(r *gin.Engine, store services.Store, docs DocClient, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.ContextLogger())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	// Registered ahead of gzip: promhttp negotiates its own compression.
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.GzipEnabled {
		r.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	r.Use(cors.New(corsConfig(cfg.CORS)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness
	r.GET("/", health)
	r.HEAD("/", health)

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(
		&services.SearchService{
			Dispatcher: &services.QueryDispatcher{Client: docs, TestMode: cfg.TestMode},
			Reconciler: &services.Reconciler{Store: store},
		},
		services.NewIngestor(docs, store, cfg.Ingest),
		&services.SessionService{Store: store},
		handlers.Options{
			DefaultGlob:   cfg.Ingest.Glob,
			IngestEnabled: cfg.Ingest.EndpointEnabled,
		},
	)

	api := r.Group(APIBasePath)
	{
		api.POST("/search", h.Search)
		api.POST("/upload", h.Upload)
		api.POST("/process-documents", h.ProcessDocuments)
		api.GET("/sessions/:id/messages", h.ListSessionMessages)
	}
}

func health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// corsConfig allows every origin when no allowlist is configured.
// Credentials stay disabled in both cases.
func corsConfig(cc config.CORSConfig) cors.Config {
	out := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cc.AllowedOrigins) == 0 {
		out.AllowAllOrigins = true
	} else {
		out.AllowOrigins = cc.AllowedOrigins
	}
	return out
}

// limitBody caps the request body at maxBytes; reads past the cap fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
