package main

import (
	"context"
	"database/sql"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-tube"
	"github.com/goliatone/go-tube/media"
	"github.com/goliatone/go-tube/repository"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *tube.EnvConfig
	bunDB  *bun.DB
	repo   tube.RepositoryManager
	auth   tube.Authenticator
	auther *tube.RouteAuthenticator
	tokens *tube.TokenService
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("tube"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := tube.MustLoadConfig(*configPath)

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		log.Fatal(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		log.Fatal(err)
	}

	if err := WithAuth(ctx, app); err != nil {
		log.Fatal(err)
	}

	app.srv.Serve(app.config.HTTP.Addr())

	WaitExitSignal()
}

// persistenceConfig satisfies the persistence client's config surface.
type persistenceConfig struct {
	dsn   string
	debug bool
}

func (p persistenceConfig) GetDSN() string            { return p.dsn }
func (p persistenceConfig) GetDebug() bool            { return p.debug }
func (p persistenceConfig) GetDriver() string         { return sqliteshim.ShimName }
func (p persistenceConfig) GetServer() string         { return "" }
func (p persistenceConfig) GetOtelIdentifier() string { return "" }
func (p persistenceConfig) GetPingTimeout() time.Duration {
	return 5 * time.Second
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.config.DB.DSN)
	if err != nil {
		return err
	}

	// The join model registers first so the m2m relation on User resolves.
	persistence.RegisterModel((*tube.WatchHistoryEntry)(nil))
	persistence.RegisterModel((*tube.User)(nil))
	persistence.RegisterModel((*tube.Video)(nil))
	persistence.RegisterModel((*tube.Subscription)(nil))

	cfg := persistenceConfig{dsn: app.config.DB.DSN}
	dialect := sqlitedialect.New()
	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(tube.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = repository.NewRepositoryManager(client.DB())

	return app.repo.Validate()
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	srv.Router().Get("/healthz", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, map[string]string{"status": "ok"})
	})

	app.srv = srv

	return nil
}

func WithAuth(ctx context.Context, app *App) error {
	tokens := tube.NewTokenService(app.config, glogAdapter{app.GetLogger("auth:tokens")})
	app.tokens = tokens

	users := app.repo.Users()
	identities := tube.NewIdentityStore(users)
	sessions := tube.NewSessionStore(users, glogAdapter{app.GetLogger("auth:sessions")})

	authenticator := tube.NewAuthenticator(
		identities,
		sessions,
		tokens,
		tokens,
		glogAdapter{app.GetLogger("auth")},
	)
	app.auth = authenticator

	httpAuth, err := tube.NewHTTPAuthenticator(authenticator, tokens, app.config)
	if err != nil {
		return err
	}
	app.auther = httpAuth

	opts := []tube.AuthControllerOption{
		tube.WithLogger(glogAdapter{app.GetLogger("auth:ctrl")}),
		tube.WithRepositoryManager(app.repo),
		tube.WithAuthenticator(authenticator),
		tube.WithHTTPAuthenticator(httpAuth),
		tube.WithContextKey(app.config.GetContextKey()),
	}

	if app.config.S3.Bucket != "" {
		storage, err := media.NewS3Storage(ctx, media.S3Config{
			Region:        app.config.S3.Region,
			Bucket:        app.config.S3.Bucket,
			AccessKey:     app.config.S3.AccessKey,
			SecretKey:     app.config.S3.SecretKey,
			BaseEndpoint:  app.config.S3.BaseEndpoint,
			PublicBaseURL: app.config.S3.PublicBaseURL,
		})
		if err != nil {
			return err
		}
		opts = append(opts, tube.WithStorage(storage))
	}

	controller := tube.NewAuthController(opts...)

	tube.RegisterAuthRoutes(app.srv.Router().Group("/api/v1/users"), controller)

	return nil
}

// glogAdapter exposes a glog.Logger through the package logger interface.
type glogAdapter struct {
	logger glog.Logger
}

func (g glogAdapter) Debug(format string, args ...any) { g.logger.Debug(format, args...) }
func (g glogAdapter) Info(format string, args ...any)  { g.logger.Info(format, args...) }
func (g glogAdapter) Warn(format string, args ...any)  { g.logger.Warn(format, args...) }
func (g glogAdapter) Error(format string, args ...any) { g.logger.Error(format, args...) }

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
