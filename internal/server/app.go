// Package server initializes and runs the chat server. It selects storage,
// media and mail backends from configuration, wires the services to the
// websocket event channel, serves gRPC health checks and handles graceful
// shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/logging"
	"github.com/dmitrijs2005/chitchat/internal/server/auth"
	"github.com/dmitrijs2005/chitchat/internal/server/blob"
	"github.com/dmitrijs2005/chitchat/internal/server/config"
	"github.com/dmitrijs2005/chitchat/internal/server/mail"
	"github.com/dmitrijs2005/chitchat/internal/server/presence"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/memory"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/users"
	"github.com/dmitrijs2005/chitchat/internal/server/services"
	"github.com/dmitrijs2005/chitchat/internal/server/ws"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/chitchat/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	redis    *redis.Client
	wsServer *ws.Server
	probe    gs.Probe
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	repos, rdb, probe, err := openRepositories(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	blobs, err := newBlobStore(ctx, c)
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	var mailer mail.Mailer = mail.NewLogMailer(logger)
	if c.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			User:     c.SMTPUser,
			Password: c.SMTPPassword,
			From:     c.SMTPFrom,
		})
	}

	authenticator := auth.NewAuthenticator(c.SecretKey, c.AccessTokenValidityDuration)
	hub := ws.NewHub(presence.NewRegistry(), logger)

	svc := ws.Services{
		Users:    services.NewUserService(repos, authenticator, mailer, blobs, c, logger),
		Social:   services.NewSocialService(repos, hub, hub, c.RestrictionThreshold, logger),
		Messages: services.NewMessageService(repos, blobs, hub, logger),
		Groups:   services.NewGroupService(repos, blobs, logger),
	}
	wsServer := ws.NewServer(hub, authenticator, svc, ws.Options{
		EventsPerSecond: c.EventsPerSecond,
		MaxFrameBytes:   int64(c.MaxFrameBytes),
	}, logger)

	return &App{
		config:   c,
		logger:   logger,
		repos:    repos,
		redis:    rdb,
		wsServer: wsServer,
		probe:    probe,
	}, nil
}

// openRepositories picks PostgreSQL (optionally fronted by Redis) when a
// DSN is configured and the in-memory store otherwise.
func openRepositories(ctx context.Context, c *config.Config, logger logging.Logger) (repomanager.RepositoryManager, *redis.Client, gs.Probe, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, using in-memory store")
		return memory.NewManager(), nil, nil, nil
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db init error: %w", err)
	}

	// cache stays a nil interface unless Redis answers
	var (
		rdb   *redis.Client
		cache users.RedisClient
	)
	if c.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "redis unavailable, profile cache disabled", "error", err)
			_ = rdb.Close()
			rdb = nil
		} else {
			cache = rdb
		}
	}

	m := repomanager.NewPostgresRepositoryManager(db, cache)
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, nil, nil, err
	}
	return m, rdb, m.Ping, nil
}

func newBlobStore(ctx context.Context, c *config.Config) (blob.Store, error) {
	if c.S3BaseEndpoint == "" {
		return blob.Passthrough{}, nil
	}
	return blob.NewS3Store(ctx, blob.S3Config{
		RootUser:     c.S3RootUser,
		RootPassword: c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		PublicURL:    c.S3PublicURL,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.logger, app.probe, 0)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.wsServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close error", "error", err)
		}
	}
	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "repository close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
