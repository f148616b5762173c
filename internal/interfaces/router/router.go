package router

import (
	"net/http"

	authsvc "meterinstall-backend/internal/application/auth"
	"meterinstall-backend/internal/application/facts"
	"meterinstall-backend/internal/application/progress"
	refsvc "meterinstall-backend/internal/application/reference"
	"meterinstall-backend/internal/application/reporting"
	targetsvc "meterinstall-backend/internal/application/targets"
	"meterinstall-backend/internal/config"
	"meterinstall-backend/internal/infrastructure/database"
	authhandler "meterinstall-backend/internal/interfaces/handlers/auth"
	healthhandler "meterinstall-backend/internal/interfaces/handlers/health"
	refhandler "meterinstall-backend/internal/interfaces/handlers/reference"
	reporthandler "meterinstall-backend/internal/interfaces/handlers/reports"
	targethandler "meterinstall-backend/internal/interfaces/handlers/targets"
	"meterinstall-backend/internal/middleware"
	"meterinstall-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp opens Postgres and Redis from cfg and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	rdb, err := middleware.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}
	app, err := NewApp(cfg, db, rdb)
	if err != nil {
		return nil, nil, nil, err
	}
	return app, db, rdb, nil
}

// NewApp wires middleware, services and routes over an open database and Redis client.
func NewApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*fiber.App, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler(rdb),
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.Metrics())
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Session(rdb))
	app.Use(middleware.BearerAuth(cfg.JWTSecret))

	hh := &healthhandler.Handlers{Rdb: rdb, DB: sqlDB, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
	ah := &authhandler.Handlers{
		UserFinder: &authsvc.GormUserFinder{DB: db},
		Rdb:        rdb,
		Config:     sessionCfg,
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.JWTTokenTTL,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	refs := &refsvc.Service{DB: db}
	targets := &targetsvc.Service{DB: db, Refs: refs}
	factStore := &facts.Store{DB: db, Location: cfg.ReportLocation}
	reports := &reporting.Service{
		Targets:  targets,
		Progress: &progress.Engine{Facts: factStore},
		Requests: factStore,
		SLADays:  cfg.SLADays,
		Location: cfg.ReportLocation,
	}
	perms := constants.NewPermissionRoles(cfg.TargetViewRoles, cfg.TargetWriteRoles, cfg.TargetDeleteRoles)
	view := middleware.AuthorizePermission(perms, constants.ViewTargets)
	write := middleware.AuthorizePermission(perms, constants.WriteTargets)
	del := middleware.AuthorizePermission(perms, constants.DeleteTargets)

	api := app.Group("/api/v1", middleware.RequireAuth())

	th := &targethandler.Handlers{Targets: targets, Reports: reports}
	tg := api.Group("/targets")
	tg.Post("/", write, th.Create)
	tg.Get("/", view, th.List)
	tg.Get("/with-progress", view, th.ListWithProgress)
	tg.Get("/:id", view, th.Get)
	tg.Get("/:id/progress", view, th.GetProgress)
	tg.Put("/:id", write, th.Update)
	tg.Delete("/:id", del, th.Delete)

	rh := &reporthandler.Handlers{Reports: reports}
	api.Get("/reports/target-vs-actual", view, rh.TargetVsActual)
	api.Get("/reports/sla-performance", view, rh.SLAPerformance)
	api.Get("/reports/branch-performance", view, rh.BranchPerformance)
	api.Get("/reports/installation-trend", view, rh.InstallationTrend)

	refh := &refhandler.Handlers{Service: refs}
	api.Get("/branches", view, refh.Branches)
	api.Get("/installation-types", view, refh.InstallationTypes)

	return app, nil
}

// Handler adapts the app for net/http hosts.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
