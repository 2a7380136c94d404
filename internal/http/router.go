// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, identity, idempotency, and rate
// limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-forum-backend/docs" // registers the OpenAPI document with swag
	"github.com/tbourn/go-forum-backend/internal/auth"
	"github.com/tbourn/go-forum-backend/internal/cache"
	"github.com/tbourn/go-forum-backend/internal/config"
	"github.com/tbourn/go-forum-backend/internal/http/handlers"
	"github.com/tbourn/go-forum-backend/internal/http/middleware"
	"github.com/tbourn/go-forum-backend/internal/repo"
	"github.com/tbourn/go-forum-backend/internal/search"
	"github.com/tbourn/go-forum-backend/internal/services"
)

// Deps are the long-lived collaborators built at startup.
type Deps struct {
	DB *gorm.DB
	// Index backs thread search; nil disables it.
	Index search.Index
	// Cache fronts the category registry; nil reads the database directly.
	Cache *cache.Tiered
	// Broker receives session events; nil drops them.
	Broker *auth.Broker
}

// Services is the service graph built by RegisterRoutes. It is returned so
// startup code can warm indexes and run maintenance with the same instances.
type Services struct {
	Categories *services.CategoryService
	Threads    *services.ThreadService
	Posts      *services.PostService
	Reactions  *services.ReactionService
	Profiles   *services.ProfileService
	Auth       *services.AuthService
}

// NewServices builds the service graph from d and cfg.
func NewServices(d Deps, cfg config.Config) *Services {
	profiles := &services.ProfileService{DB: d.DB}
	return &Services{
		Categories: &services.CategoryService{DB: d.DB, Cache: d.Cache, Fallback: cfg.CategoryFallback},
		Threads:    &services.ThreadService{DB: d.DB, Index: d.Index, MaxContentRunes: cfg.MaxContentRunes},
		Posts:      &services.PostService{DB: d.DB, MaxContentRunes: cfg.MaxContentRunes},
		Reactions:  &services.ReactionService{DB: d.DB},
		Profiles:   profiles,
		Auth: &services.AuthService{
			DB:                  d.DB,
			Profiles:            profiles,
			Signer:              auth.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL),
			Broker:              d.Broker,
			RequireConfirmation: cfg.Auth.RequireConfirmation,
		},
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Compression
//  8. Authenticate: resolve the caller before anything keyed by user
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Rate limiter (per user/IP, writes only, bypass on replay)
//  11. CORS and Security headers
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) *Services {
	r.HandleMethodNotAllowed = true
	svcs := NewServices(d, cfg)

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging: scrubbed access logs in release, full
	// request-scoped logs (with user_id) during development.
	if gin.Mode() == gin.ReleaseMode {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{"X-API-Key"},
		}))
	} else {
		r.Use(middleware.Logger())
	}

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress JSON bodies; the metrics scraper negotiates its own encoding.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 8) Identity from bearer token or session cookie
	r.Use(middleware.Authenticate(svcs.Auth, cfg.Auth.CookieName))

	// 9) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, d.DB, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 10) Token-bucket rate limiter per user/IP; reads are never throttled.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	rl.WritesOnly = true
	r.Use(rl.Handler())

	// 11) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey, "If-None-Match"}
	exposeHeaders := []string{"X-Request-ID", "ETag", handlers.HeaderReplayed, "Retry-After"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist.
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: true, // session cookie
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(handlers.Deps{
		Categories: svcs.Categories,
		Threads:    svcs.Threads,
		Posts:      svcs.Posts,
		Reactions:  svcs.Reactions,
		Profiles:   svcs.Profiles,
		Auth:       svcs.Auth,
		DB:         d.DB,
	}, handlers.Options{
		CookieName:     cfg.Auth.CookieName,
		CookieSecure:   cfg.Auth.CookieSecure,
		SessionTTL:     cfg.Auth.SessionTTL,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})
	signedIn := middleware.RequireSession()

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	{
		// Categories
		api.GET("/categories", h.ListCategories)
		api.GET("/categories/:slug", h.GetCategory)
		api.GET("/categories/:slug/threads", h.ListCategoryThreads)

		// Threads
		api.GET("/threads/recent", h.RecentThreads)
		api.GET("/threads/search", h.SearchThreads)
		api.POST("/threads", signedIn, h.CreateThread)
		api.GET("/threads/:id", h.GetThread)
		api.PUT("/threads/:id/pin", signedIn, h.PinThread)
		api.PUT("/threads/:id/lock", signedIn, h.LockThread)
		api.POST("/threads/:id/recount", signedIn, h.RecountReplies)

		// Posts
		api.GET("/threads/:id/posts", h.ListPosts)
		api.POST("/threads/:id/posts", signedIn, h.CreatePost)

		// Reactions
		api.POST("/posts/:id/reactions", signedIn, h.ToggleReaction)

		// Profiles
		api.GET("/profiles/availability", h.UsernameAvailability)
		api.GET("/profiles/:username", h.GetProfile)
		api.PUT("/profiles/me/bio", signedIn, h.UpdateBio)

		// Auth
		api.POST("/auth/signup", h.SignUp)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/logout", signedIn, h.Logout)
		api.POST("/auth/confirm", h.Confirm)
		api.GET("/auth/me", signedIn, h.Me)
	}
	return svcs
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
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
