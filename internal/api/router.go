package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/middleware"
	"github.com/persistorai/vitiapi/internal/models"
	"github.com/persistorai/vitiapi/internal/store"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log      *logrus.Logger
	DB       DBChecker
	Stores   *store.Stores
	Accounts AccountService
	// Users authenticates bearer keys; usually a middleware.CachedUserLookup.
	Users       middleware.UserLookup
	Ingest      IngestStatus
	CORSOrigins []string
	Version     string
	// ServeMetrics mounts /metrics on this router. Disable it when metrics
	// have their own listener.
	ServeMetrics bool
}

// Router-level limits.
const (
	maxBodySize = 1 << 20 // 1 MB
	rateLimit   = 50      // requests per second per IP
	rateBurst   = 100     // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID())
	r.Use(ginLogger(deps.Log))
	r.Use(gin.CustomRecoveryWithWriter(io.Discard, recoverPanic(deps.Log)))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	if deps.ServeMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log
	guard := middleware.NewBruteForceGuard(ctx, log)

	health := NewHealthHandler(deps.DB, deps.Ingest, log, deps.Version)
	stats := NewStatsHandler(deps.Stores, deps.Ingest, log)
	accounts := NewAccountHandler(deps.Accounts, guard, log)

	// Health, readiness, registration and login are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)
	api.POST("/accounts/register", accounts.Register)
	api.POST("/accounts/login", accounts.Login)

	authed := api.Group("")
	authed.Use(middleware.BruteForceMiddleware(guard))
	authed.Use(middleware.AuthMiddleware(deps.Users, log, guard))

	authed.GET("/accounts/me", accounts.Me)
	authed.DELETE("/accounts/me", accounts.DeleteMe)

	authed.GET("/stats", stats.GetStats)

	s := deps.Stores
	registerTable[models.Product](authed, models.TableProducts, s.Products, nil, log)
	registerTable[models.Production](authed, models.TableProductions, s.Productions, s.Products, log)
	registerTable[models.Processing](authed, models.TableProcessings, s.Processings, nil, log)
	registerTable[models.Commercialization](authed, models.TableCommercializations, s.Commercializations, s.Products, log)
	registerTable[models.Importation](authed, models.TableImportations, s.Importations, nil, log)
	registerTable[models.Exportation](authed, models.TableExportations, s.Exportations, nil, log)
}

// registerTable mounts the list and get endpoints of one statistics table.
func registerTable[T any](g *gin.RouterGroup, table models.Table, repo RecordRepository[T], products ProductRepository, log *logrus.Logger) {
	h := NewRecordHandler(table, repo, products, log)
	g.GET("/"+table.String(), h.List)
	g.GET("/"+table.String()+"/:id", h.Get)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
