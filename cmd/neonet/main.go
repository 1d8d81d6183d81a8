package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/neonet-app/go-auth"
	"github.com/neonet-app/go-auth/config"
	"github.com/neonet-app/go-auth/repository"
	"github.com/neonet-app/go-auth/web"
	"github.com/rs/zerolog"
)

type App struct {
	config   *config.Config
	logger   zerolog.Logger
	store    *repository.Store
	handlers *auth.Handlers
	srv      *fiber.App
}

func main() {
	configFile := flag.String("config", os.Getenv("NEONET_CONFIG"), "path to the config file")
	envFile := flag.String("env-file", ".env", "path to an optional .env file")
	flag.Parse()

	cfg, err := config.Load(
		config.WithConfigFile(*configFile),
		config.WithEnvFile(*envFile),
	)
	if err != nil {
		panic(err)
	}

	app := &App{
		config: cfg,
		logger: newLogger(cfg.Log),
	}

	if cfg.Debug {
		app.logger.Debug().Msg("config\n" + print.MaybePrettyJSON(cfg.Redacted()))
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		app.logger.Fatal().Err(err).Msg("persistence setup failed")
	}

	if err := WithHandlers(ctx, app); err != nil {
		app.logger.Fatal().Err(err).Msg("auth handler setup failed")
	}

	WithHTTPServer(ctx, app)

	go func() {
		app.logger.Info().Str("addr", cfg.Addr()).Msg("listening")
		if err := app.srv.Listen(cfg.Addr()); err != nil {
			app.logger.Error().Err(err).Msg("server stopped")
		}
	}()

	sig := WaitExitSignal()
	app.logger.Info().Str("signal", sig.String()).Msg("shutting down")

	if err := app.srv.ShutdownWithTimeout(10 * time.Second); err != nil {
		app.logger.Error().Err(err).Msg("shutdown failed")
	}

	if err := app.store.Close(); err != nil {
		app.logger.Error().Err(err).Msg("closing store failed")
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	store, err := repository.NewUserStore(ctx, app.config.Persistence)
	if err != nil {
		return err
	}

	app.store = store
	app.logger.Info().Str("driver", app.config.Persistence.Driver).Msg("user store ready")
	return nil
}

func WithHandlers(_ context.Context, app *App) error {
	logger := auth.NewZerologLogger(app.logger)

	handlers, err := auth.LoadHandlers(app.config.Auth, app.config.AppName,
		auth.WithLogger(logger),
		auth.WithActivitySink(auth.NewZerologActivitySink(app.logger)),
	)
	if err != nil {
		return err
	}

	app.handlers = handlers
	app.logger.Info().Strs("handlers", handlers.Names()).Msg("auth handlers loaded")
	return nil
}

func WithHTTPServer(_ context.Context, app *App) {
	controller := web.NewController(app.handlers, app.store.Users(),
		web.WithLogger(auth.NewZerologLogger(app.logger)),
		web.WithDebug(app.config.Debug),
	)

	app.srv = web.NewApp(controller, fiber.Config{
		AppName:               app.config.AppName,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		zl = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	default:
		zl = zerolog.New(os.Stdout)
	}

	return zl.Level(level).With().Timestamp().Str("service", "neonet").Logger()
}
