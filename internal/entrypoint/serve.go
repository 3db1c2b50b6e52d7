package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"

	"github.com/mrlokans/library/internal/config"
	httpapi "github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/tasks"
)

// NewRouterConfig maps the app onto the HTTP layer. The rate limiter is
// returned so the caller can stop it on shutdown.
func (a *App) NewRouterConfig(version string) (httpapi.RouterConfig, *httpapi.RateLimiter) {
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		Limit:          a.Config.Assistant.RateLimit,
		WindowDuration: a.Config.Assistant.RateWindow,
	})
	return httpapi.RouterConfig{
		Books:          a.Books,
		Students:       a.Students,
		Issues:         a.Issues,
		Stats:          a.Stats,
		Database:       a.DB,
		Assistant:      a.Assistant,
		Audit:          a.Audit,
		RateLimiter:    limiter,
		APIPrefix:      a.Config.HTTP.APIPrefix,
		AllowedOrigins: a.Config.HTTP.AllowedOrigins,
		Version:        version,
	}, limiter
}

// Run starts the HTTP server and background jobs, then blocks until
// SIGINT or SIGTERM and shuts everything down in reverse order.
func Run(cfg *config.Config, version string) error {
	log := logger.New()
	log.Info("starting library service", logger.Data{"version": version, "driver": cfg.Database.Driver})

	app, err := NewApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(log.WithContext(context.Background()))
	defer cancel()

	if app.Tasks != nil {
		app.Tasks.Start(ctx)
		if _, err := app.Tasks.Add(tasks.CleanupAuditEventsTask{RetentionDays: cfg.Audit.RetentionDays}).Save(); err != nil {
			log.Err(err).Warn("failed to enqueue audit cleanup")
		}
	}

	if err := app.Reminders.Start(ctx); err != nil {
		_ = app.Close(ctx)
		return errors.Wrap(err, "start reminder job")
	}

	routerConfig, limiter := app.NewRouterConfig(version)
	defer limiter.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           httpapi.NewRouter(routerConfig),
		ReadHeaderTimeout: 10 * time.Second,
	}

	graceful := signals.Setup()

	go func() {
		log.Info("server started", logger.Data{"addr": srv.Addr, "prefix": routerConfig.APIPrefix})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	<-graceful
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	log.Info("starting graceful shutdown", logger.Data{"timeout": timeout.String()})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Err(err).Error("server shutdown error")
	}
	cancel()

	if err := app.Close(shutdownCtx); err != nil {
		log.Err(err).Error("shutdown error")
		return err
	}
	log.Info("shutdown complete")
	return nil
}
