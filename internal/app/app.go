// Package app provides the top-level application lifecycle management for the
// player value service. It wires together all dependencies (stores, caches,
// the prediction pipeline, metrics and notifications) and runs the HTTP
// server or a one-shot CLI operation.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/playervalue/internal/config"
	"github.com/alanyoungcy/playervalue/internal/domain"
	"github.com/alanyoungcy/playervalue/internal/model"
	"github.com/alanyoungcy/playervalue/internal/server"
	"github.com/alanyoungcy/playervalue/internal/server/handler"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	deps    *Dependencies
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

func (a *App) log() *slog.Logger {
	return a.logger.With(slog.String("component", "app"))
}

// init wires dependencies once.
func (a *App) init(ctx context.Context) (*Dependencies, error) {
	if a.deps != nil {
		return a.deps, nil
	}
	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)
	a.deps = deps
	return deps, nil
}

// Run wires all dependencies, reports the storage layout, and serves HTTP
// until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	log := a.log()
	log.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Any("config", config.RedactedConfig(a.cfg)),
	)

	deps, err := a.init(ctx)
	if err != nil {
		return err
	}

	a.logLayout(ctx, deps.Predictor.Diagnostics(ctx))
	if a.cfg.Models.VerifyOnStart {
		checks, err := deps.Selector.Verify(ctx)
		if err != nil {
			return fmt.Errorf("app: verify models: %w", err)
		}
		if failed := a.logChecks(ctx, checks); failed > 0 {
			return fmt.Errorf("app: %d model artifact(s) failed verification", failed)
		}
	}

	srv := server.NewServer(a.serverConfig(deps), server.Handlers{
		Health:  handler.NewHealthHandler(a.logger),
		Predict: handler.NewPredictHandler(deps.Predictor, a.cfg.Server.MaxBodyBytes, a.logger),
		Metrics: deps.Metrics.Handler(),
	}, a.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (a *App) serverConfig(deps *Dependencies) server.Config {
	sc := server.Config{
		Addr:             a.cfg.Server.Addr(),
		CORSOrigins:      a.cfg.Server.CORSOrigins,
		AllowCredentials: a.cfg.Server.AllowCredentials,
		ReadTimeout:      a.cfg.Server.ReadTimeout.Duration,
		WriteTimeout:     a.cfg.Server.WriteTimeout.Duration,
	}
	if a.cfg.Server.RateLimit.Enabled && deps.RateLimiter != nil {
		sc.RateLimiter = deps.RateLimiter
		sc.RateLimitN = a.cfg.Server.RateLimit.Requests
		sc.RateLimitWindow = a.cfg.Server.RateLimit.Window.Duration
	}
	return sc
}

// logLayout reports where models and labels are read from so that a broken
// deployment is visible before the first request.
func (a *App) logLayout(ctx context.Context, d domain.Diagnostics) {
	log := a.log()
	log.InfoContext(ctx, "model storage",
		slog.String("model_directory", d.ModelDirectory),
		slog.Bool("exists", d.ModelDirectoryExists),
		slog.Any("files", d.AvailableModels),
	)
	log.InfoContext(ctx, "label mapping",
		slog.String("labels_file", d.LabelsFile),
		slog.Bool("exists", d.LabelsExists),
	)
	if d.Error != "" {
		log.WarnContext(ctx, "model storage problem", slog.String("error", d.Error))
	}
	if !d.LabelsExists {
		log.WarnContext(ctx, "label mapping missing; predictions will fail until it is deployed")
	}
}

func (a *App) logChecks(ctx context.Context, checks []model.Check) int {
	log := a.log()
	failed := 0
	for _, c := range checks {
		if c.OK() {
			log.InfoContext(ctx, "model verified",
				slog.String("position", c.Position),
				slog.String("kind", c.Kind),
				slog.String("path", c.Path),
			)
			continue
		}
		failed++
		log.ErrorContext(ctx, "model failed verification",
			slog.String("position", c.Position),
			slog.String("path", c.Path),
			slog.String("error", c.Error),
		)
	}
	return failed
}

// Predict runs one prediction through the same pipeline the server uses.
func (a *App) Predict(ctx context.Context, body []byte) (domain.Prediction, error) {
	deps, err := a.init(ctx)
	if err != nil {
		return domain.Prediction{}, err
	}
	return deps.Predictor.Predict(ctx, body)
}

// ModelReport is the output of the models command.
type ModelReport struct {
	domain.Diagnostics
	Checks []model.Check `json:"checks"`
}

// Models returns the storage diagnostics and the verification result of every
// artifact.
func (a *App) Models(ctx context.Context) (ModelReport, error) {
	deps, err := a.init(ctx)
	if err != nil {
		return ModelReport{}, err
	}
	r := ModelReport{Diagnostics: deps.Predictor.Diagnostics(ctx)}
	checks, err := deps.Selector.Verify(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return r, fmt.Errorf("app: verify models: %w", err)
	}
	r.Checks = checks
	if r.Checks == nil {
		r.Checks = []model.Check{}
	}
	return r, nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	if len(a.closers) > 0 {
		a.log().Info("shutting down application")
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// DefaultTimeout bounds one-shot CLI operations.
const DefaultTimeout = 30 * time.Second
