// Package httpapi wires the HTTP transport (Gin) to the poem service, the
// command dispatcher and the WebSocket hub. It owns middleware ordering and
// route layout; handlers and middleware live in their own packages.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-poem-bot/docs"
	"github.com/tbourn/go-poem-bot/internal/chat"
	"github.com/tbourn/go-poem-bot/internal/config"
	"github.com/tbourn/go-poem-bot/internal/domain"
	"github.com/tbourn/go-poem-bot/internal/http/handlers"
	"github.com/tbourn/go-poem-bot/internal/http/middleware"
	"github.com/tbourn/go-poem-bot/internal/repo"
	"github.com/tbourn/go-poem-bot/internal/services"
	"github.com/tbourn/go-poem-bot/internal/ws"
)

// maxBodyBytes caps every request body. Poems are short.
const maxBodyBytes = 64 << 10

// poemRepoShim adapts the repo free functions to services.PoemRepo.
type poemRepoShim struct{}

func (poemRepoShim) CreatePoem(ctx context.Context, db *gorm.DB, t domain.PoemType, by, content, key string, at time.Time) (*domain.Poem, error) {
	return repo.CreatePoem(ctx, db, t, by, content, key, at)
}

func (poemRepoShim) QueryCandidates(ctx context.Context, db *gorm.DB, t domain.PoemType, f repo.CandidateFilter) ([]domain.Poem, error) {
	return repo.QueryCandidates(ctx, db, t, f)
}

func (poemRepoShim) RecordService(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return repo.RecordService(ctx, db, id, at)
}

func (poemRepoShim) DeleteBySecret(ctx context.Context, db *gorm.DB, t domain.PoemType, key string) (string, error) {
	return repo.DeleteBySecret(ctx, db, t, key)
}

func (poemRepoShim) FindPoemsByIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Poem, error) {
	return repo.FindPoemsByIDs(ctx, db, ids)
}

func (poemRepoShim) ListPoems(ctx context.Context, db *gorm.DB) ([]domain.Poem, error) {
	return repo.ListPoems(ctx, db)
}

// RegisterRoutes attaches middleware and endpoints to r. hub may be nil, in
// which case /ws is not mounted.
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID, then Identity so logs carry the nick
//  3. RedactingLogger, then Recovery
//  4. Body size limit and metrics
//  5. gzip, CORS and security headers
//
// Idempotency and rate limiting are per route, on the mutating endpoints only.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, hub *ws.Hub, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Identity())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/metrics"})))
	r.Use(cors.New(corsConfig(cfg.CORS.AllowedOrigins)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", health(db, hub))

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	poemSvc := services.NewPoemService(db, poemRepoShim{}, cfg.RecentLimit)
	dispatcher := chat.NewDispatcher(poemSvc, cfg.Chat.BotNick, cfg.Chat.CommandPrefix, cfg.Chat.AdminNicks,
		log.With().Str("component", "chat").Logger())
	h := handlers.New(poemSvc, dispatcher)

	if hub != nil {
		r.GET("/ws", func(c *gin.Context) { ws.ServeWs(hub, dispatcher, c.Writer, c.Request) })
	}

	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(db))
	limiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByNickOrIP()).Handler()

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/poems/:type/random", h.RandomPoem)
		api.POST("/poems/:type", idem, limiter, h.SubmitPoem)
		api.DELETE("/poems/:type/:key", h.DeletePoem)
		api.POST("/commands", limiter, h.RunCommand)

		admin := api.Group("/admin",
			middleware.AdminToken(cfg.AdminToken),
			middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true}),
		)
		admin.GET("/poems", h.ListPoems)
		admin.GET("/poems/recent", h.RecentPoems)
	}
}

// idempotencyLookup reports a replay only while the record is live and the
// poem it references still exists, so a retry after deletion is rate limited
// like any new submission.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, nick, key string, now time.Time) (bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, nick, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		found, err := repo.FindPoemsByIDs(ctx, db, []string{rec.PoemID})
		if err != nil {
			return false, err
		}
		_, exists := found[rec.PoemID]
		return exists, nil
	}
}

// corsConfig allows every origin when none are configured; credentials stay
// off in both modes since auth travels in headers.
func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			middleware.HeaderNick,
			middleware.HeaderAdminToken,
			middleware.HeaderIdempotencyKey,
			"If-None-Match",
		},
		ExposeHeaders: []string{"X-Request-ID", "ETag", middleware.HeaderIdempotencyReplayed},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cc
}

// health reports liveness plus store reachability. A failed ping is 503.
func health(db *gorm.DB, hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if hub != nil {
			body["ws_clients"] = hub.ClientCount()
		}
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			err = sqlDB.PingContext(ctx)
			cancel()
		}
		if err != nil {
			body["status"] = "degraded"
			body["db"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	}
}

// limitBody caps request bodies via http.MaxBytesReader; oversized reads fail
// downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
