package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/hbarros/changelog/auth"
	"github.com/hbarros/changelog/config"
	"github.com/hbarros/changelog/logging"
	"github.com/hbarros/changelog/middleware/bearer"
	"github.com/hbarros/changelog/tickets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Base().Fatal().Err(err).Msg("configuration error")
	}

	logging.Configure(logging.Config{Level: cfg.LogLevel})
	logger := logging.Named("server")

	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		logging.Base().Fatal().Err(err).Msg("database error")
	}
	defer db.Close()

	if err := ensureSchema(context.Background(), db); err != nil {
		logging.Base().Fatal().Err(err).Msg("schema error")
	}

	users := auth.NewUsersRepository(db)
	provider := auth.NewUserProvider(users).
		WithLogger(logging.Named("auth.user_provider"))
	authenticator := auth.NewAuthenticator(provider, users, db, cfg).
		WithLogger(logging.Named("auth"))

	ticketRepo := tickets.NewRepository(db)
	ticketService := tickets.NewService(ticketRepo)

	app := fiber.New(fiber.Config{
		AppName:      "changelog-api",
		ErrorHandler: auth.ErrorHandler(logging.Named("http")),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Authorization,Content-Type,X-Requested-With",
		AllowCredentials: true,
	}))
	app.Use(requestLogger())
	app.Use(bearer.New(bearer.Config{
		Validator: authenticator.TokenService(),
		Resolver:  provider,
		Logger:    logging.Named("auth.bearer"),
	}))

	api := app.Group("/api/v1")
	auth.NewAuthController(authenticator).
		WithLogger(logging.Named("auth.http")).
		RegisterRoutes(api.Group("/auth"))
	tickets.NewController(ticketService).RegisterRoutes(api)

	go func() {
		logger.Info("listening", "address", cfg.ServerAddress)
		if err := app.Listen(cfg.ServerAddress); err != nil {
			logging.Base().Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func openDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		return nil, err
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func ensureSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*auth.User)(nil),
		(*tickets.Ticket)(nil),
		(*tickets.Entry)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		logging.Base().Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("duration", time.Since(start)).
			Str("request_id", requestID(c)).
			Msg("request")

		return err
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return id
	}
	return ""
}
