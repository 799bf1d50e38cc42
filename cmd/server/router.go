package main

import (
	"context"
	"strings"
	"time"

	"traveler/cmd/server/handlers"
	brainstormHandlers "traveler/cmd/server/handlers/brainstorm"
	"traveler/cmd/server/handlers/httperr"
	"traveler/cmd/server/middlewares"
	"traveler/internal/clients/geocode"
	"traveler/internal/clients/mongo"
	"traveler/internal/config"
	"traveler/internal/logger"
	brainstormServices "traveler/internal/services/brainstorm"

	_ "traveler/docs" // Load swagger docs

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

const (
	RateLimitExpiration = 1 * time.Minute
)

// setupRouter configures and returns a Fiber app with all routes
func setupRouter(ctx context.Context, cfg config.Config) *fiber.App {

	v := validator.New()

	// Validate JWT algorithm at boot
	alg := strings.ToUpper(cfg.JWTAlgorithm)
	switch alg {
	case "HS256":
		// Valid algorithm
	default:
		logger.L().Error("unsupported JWT algorithm", "algorithm", cfg.JWTAlgorithm)
		panic("unsupported JWT algorithm: " + cfg.JWTAlgorithm)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true, // make Fiber copy all request-derived strings
	})

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Content-Type, Authorization, X-Client-ID",
	}))

	if cfg.RouteMetricsEnabled {
		middlewares.AttachMetrics(app)
	}

	// Health check endpoint, outside versioned API to appease scanners and to avoid logging
	app.Get("/healthz", handlers.Healthz)

	app.Get("/docs/*", swagger.HandlerDefault)

	app.Static("/", "./web-ui", fiber.Static{
		Browse: false,
		Index:  "index.html",
	})

	var v1 fiber.Router
	if cfg.RequestLogging {
		v1 = app.Group("/api/v1", fiberlogger.New())
		logger.L().Info("request logging enabled")
	} else {
		v1 = app.Group("/api/v1")
		logger.L().Info("request logging disabled")
	}

	jwtMiddleware := middlewares.JWT(cfg)

	// Rate limit board mutations; reads and the realtime stream stay
	// unthrottled so collaboration never stalls behind the limiter.
	writeLimiter := middlewares.BuildRateLimiter(cfg.WriteRatePerMin, RateLimitExpiration)

	itemsRepo, err := mongo.NewItemsRepo(ctx, mongo.DB())
	if err != nil {
		logger.L().Error(brainstormServices.ErrCreateItemsRepo.Error(), "error", err)
		panic(err)
	}
	groupsRepo, err := mongo.NewGroupsRepo(ctx, mongo.DB())
	if err != nil {
		logger.L().Error(brainstormServices.ErrCreateGroupsRepo.Error(), "error", err)
		panic(err)
	}

	hub := brainstormServices.NewHub(cfg.WSOutboxBuffer)
	boardSvc := brainstormServices.NewService(itemsRepo, groupsRepo, hub, logger.L())
	boardH := brainstormHandlers.NewHandlers(boardSvc, v)

	tripGrp := v1.Group("/trips/:tripId/brainstorm", jwtMiddleware)
	tripGrp.Post("/items", writeLimiter, boardH.CreateItem)
	tripGrp.Get("/items", boardH.ListItems)
	tripGrp.Post("/groups", writeLimiter, boardH.CreateGroup)
	tripGrp.Get("/groups", boardH.ListGroups)

	itemGrp := v1.Group("/brainstorm/items", jwtMiddleware, writeLimiter)
	itemGrp.Patch("/:id", boardH.UpdateItem)
	itemGrp.Patch("/:id/position", boardH.MoveItem)
	itemGrp.Delete("/:id", boardH.DeleteItem)

	groupGrp := v1.Group("/brainstorm/groups", jwtMiddleware, writeLimiter)
	groupGrp.Patch("/:id", boardH.UpdateGroup)
	groupGrp.Delete("/:id", boardH.DeleteGroup)

	// Reverse geocoding for map-click item drafts
	geocodeH := brainstormHandlers.NewGeocodeHandlers(geocode.NewClient(cfg, logger.L()))
	v1.Get("/geocode/reverse", jwtMiddleware, geocodeH.Reverse)

	// WebSocket routes
	wsHandlers := brainstormHandlers.NewWebSocketHandlers(hub, cfg.JWTSecret, cfg.WSMaxSessionSec)
	app.Use("/ws", brainstormHandlers.LogWSConnections(cfg.JWTSecret))
	app.Get("/ws/trips/:tripId/brainstorm", wsHandlers.WSUpgrade, websocket.New(wsHandlers.WSBoardStream))

	// User profile endpoint (for testing JWT middleware and for future use)
	v1.Get("/me", jwtMiddleware, handlers.Me)

	return app
}
