package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/emotune/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/emotune/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/emotune/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/emotune/internal/audit"
	"github.com/saturnino-fabrica-de-software/emotune/internal/capture"
	"github.com/saturnino-fabrica-de-software/emotune/internal/ws"
)

// Dependencies wires the router. Accounts, Tokens and DB are nil when
// accounts are disabled.
type Dependencies struct {
	Detection handler.DetectionService
	Captures  *capture.Store
	Playlists handler.PlaylistTable
	Accounts  handler.AccountService
	Tokens    middleware.TokenValidator
	DB        handler.Pinger

	RateLimit          middleware.RateLimiterConfig
	CaptureRequireAuth bool
	BodyLimit          int
	StreamMaxClients   int
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	hub         *ws.Hub
	stopHub     context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	cfg := fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Emotune API",
	}
	if deps != nil && deps.BodyLimit > 0 {
		cfg.BodyLimit = deps.BodyLimit
	}

	return &Router{
		app:    fiber.New(cfg),
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	if r.deps == nil {
		healthHandler := handler.NewHealthHandler(nil, nil, r.logger)
		r.app.Get("/health", healthHandler.Health)
		r.app.Get("/ready", healthHandler.Ready)
		return
	}

	var scanner handler.OrphanScanner
	if r.deps.Captures != nil {
		scanner = r.deps.Captures
	}
	healthHandler := handler.NewHealthHandler(r.deps.DB, scanner, r.logger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// Detection, rate limited per client IP
	r.rateLimiter = middleware.NewRateLimiter(r.deps.RateLimit)
	detectionHandler := handler.NewDetectionHandler(r.deps.Detection, r.logger)
	r.app.Post("/detect_emotion", r.rateLimiter.Handler(), detectionHandler.Detect)

	// Live detection stream; the rate limiter counts connections, not frames
	hubCtx, stopHub := context.WithCancel(context.Background())
	r.hub = ws.NewHub(r.deps.StreamMaxClients)
	r.stopHub = stopHub
	go r.hub.Run(hubCtx)

	streamCfg := ws.DefaultConfig()
	if r.deps.BodyLimit > 0 {
		streamCfg.MaxFrameBytes = int64(r.deps.BodyLimit)
	}
	stream := []fiber.Handler{ws.UpgradeMiddleware(), r.rateLimiter.Handler()}
	if r.deps.Tokens != nil {
		stream = append(stream, middleware.OptionalSessionAuth(r.deps.Tokens, r.logger))
	}
	stream = append(stream, ws.Handler(r.hub, r.deps.Detection, streamCfg, r.logger))
	r.app.Get("/ws/detect", stream...)

	// Playlists
	playlistHandler := handler.NewPlaylistHandler(r.deps.Playlists)
	r.app.Get("/playlists", playlistHandler.List)
	r.app.Get("/get_playlists", playlistHandler.Redirect)

	// Captures
	if r.deps.Captures != nil {
		captureHandler := handler.NewCaptureHandler(r.deps.Captures, audit.NewSlogLogger(r.logger), r.logger)

		// Per route rather than a group: a "/" group middleware would also
		// guard every route registered after it.
		guard := func(h fiber.Handler) []fiber.Handler {
			switch {
			case r.deps.Tokens == nil:
				return []fiber.Handler{h}
			case r.deps.CaptureRequireAuth:
				return []fiber.Handler{middleware.SessionAuth(r.deps.Tokens, r.logger), h}
			default:
				return []fiber.Handler{middleware.OptionalSessionAuth(r.deps.Tokens, r.logger), h}
			}
		}
		r.app.Post("/store_image", guard(captureHandler.Store)...)
		r.app.Get("/get_image", guard(captureHandler.Get)...)
		r.app.Get("/get_metadata", guard(captureHandler.Metadata)...)
		r.app.Get("/list_images", guard(captureHandler.List)...)
	}

	// Accounts
	if r.deps.Accounts != nil {
		accountHandler := handler.NewAccountHandler(r.deps.Accounts, r.logger)
		r.app.Post("/signup", accountHandler.Signup)
		r.app.Post("/login", accountHandler.Login)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
	if r.stopHub != nil {
		r.stopHub()
	}

	return r.app.Shutdown()
}
