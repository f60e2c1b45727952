package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/gabrielmiguelok/formwizard/client"
	"github.com/gabrielmiguelok/formwizard/internal/website"
	"github.com/gabrielmiguelok/formwizard/internal/wizardview"
	"github.com/gabrielmiguelok/formwizard/pkg/core"
	"github.com/gabrielmiguelok/formwizard/pkg/health"
	"github.com/gabrielmiguelok/formwizard/pkg/limits"
	"github.com/gabrielmiguelok/formwizard/pkg/logging"
	"github.com/gabrielmiguelok/formwizard/pkg/metrics"
	"github.com/gabrielmiguelok/formwizard/pkg/router"
	"github.com/gabrielmiguelok/formwizard/pkg/shutdown"
	"github.com/gabrielmiguelok/formwizard/pkg/uploads"
	"github.com/gabrielmiguelok/formwizard/pkg/wizard"
)

const assetPrefix = "/_formwizard/"

var serveFlags struct {
	address string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the wizard over HTTP and websockets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveFlags.address != "" {
			cfg.Server.Address = serveFlags.address
		}
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.address, "address", "a", "", "listen address (overrides server.address)")
}

func runServe(ctx context.Context) error {
	runtime := cfg.Runtime()
	if err := runtime.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	def, err := cfg.LoadDefinition()
	if err != nil {
		return err
	}
	// Sessions mount with whatever definition is current at join time.
	var current atomic.Pointer[wizard.Definition]
	current.Store(def)

	store, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	drafts, err := cfg.DraftStore(store, def)
	if err != nil {
		store.Close()
		return err
	}

	tc, ws := cfg.TransportSettings()
	r := router.New(
		router.WithLogger(logger),
		router.WithTransportConfig(tc),
		router.WithWebSocketConfig(ws),
		router.WithTimeouts(runtime.Timeouts),
	)
	r.Use(router.Recovery(logger))
	r.Use(logging.RequestLogger(logger))
	if runtime.Security.SecureHeaders {
		r.Use(router.SecureHeaders())
	}
	r.Use(router.ClientID())

	var collector *metrics.Metrics
	if cfg.Metrics.Enabled {
		collector = metrics.New("formwizard")
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle("GET "+path, collector.Handler())
	}

	factory, err := wizardview.NewFactory(wizardview.Config{
		Definition:    current.Load,
		Drafts:        drafts,
		Submitter:     wizard.LogSubmitter{Logger: logger},
		Logger:        logger,
		Metrics:       collector,
		ToastDuration: cfg.Toast.Duration,
	})
	if err != nil {
		store.Close()
		return err
	}
	page := website.DefaultPageConfig()
	page.ScriptSrc = assetPrefix + client.ScriptName
	liveOpts := []router.RouteOption{router.WithLayout(wizardview.Layout(page, current.Load))}

	var throttle func(http.Handler) http.Handler
	var limiter *limits.TokenBucket
	if cfg.Limits.RequestsPerSecond > 0 {
		limiter = limits.NewTokenBucket(cfg.Limits.RequestsPerSecond, cfg.Limits.Burst)
		throttle = limits.Middleware(limiter, cfg.Limits.TrustProxy)
		liveOpts = append(liveOpts, router.WithRouteMiddleware(throttle))
	}
	r.Live("/{$}", factory, liveOpts...)

	uploadHandler, err := uploads.NewHandler(cfg.UploadSettings(), func(ctx context.Context, socketID string, entries []uploads.Entry) error {
		return uploadError(r.Deliver(socketID, wizardview.FilesUploaded{Entries: entries}))
	})
	if err != nil {
		store.Close()
		return err
	}
	var uploadRoute http.Handler = uploadHandler
	if throttle != nil {
		uploadRoute = throttle(uploadHandler)
	}
	r.Handle("POST "+page.UploadURL, uploadRoute)
	r.Handle("GET "+assetPrefix, http.StripPrefix(assetPrefix, client.Handler()))

	checker := health.NewChecker(version)
	checker.Add(health.Check{Name: "drafts", Fn: health.StoreCheck(store), Timeout: 2 * time.Second, Critical: true})
	checker.Add(health.Check{Name: "definition", Fn: health.DefinitionCheck(current.Load), Critical: true})
	checker.Add(health.Check{Name: "sessions", Fn: health.SessionCapacityCheck(r.SessionManager().Count, runtime.MaxConnections)})
	r.Handle("GET /healthz", checker.LivenessHandler())
	r.Handle("GET /readyz", checker.ReadinessHandler())

	stopCleanup := make(chan struct{})
	r.SessionManager().StartCleanupRoutine(runtime.Timeouts.SessionCleanup, stopCleanup)

	watchCtx, stopWatch := context.WithCancel(ctx)
	if cfg.Definition.Watch && cfg.Definition.Path != "" {
		go func() {
			err := wizard.WatchDefinition(watchCtx, cfg.Definition.Path, logger, func(d *wizard.Definition) {
				current.Store(d)
			})
			if err != nil {
				logger.Error("definition watcher stopped", logging.Err(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              runtime.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sh := shutdown.NewHandler(runtime.Timeouts.GracefulShutdown, logger)
	sh.RegisterFunc("http", shutdown.PriorityHTTP, srv.Shutdown)
	sh.RegisterFunc("sessions", shutdown.PrioritySessions, r.Shutdown)
	sh.RegisterFunc("watchers", shutdown.PriorityWatchers, func(context.Context) error {
		stopWatch()
		close(stopCleanup)
		return nil
	})
	sh.RegisterCloser("drafts", shutdown.PriorityStores, store)
	if limiter != nil {
		sh.RegisterCloser("limiter", shutdown.PriorityWatchers, limiter)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("serving",
			logging.String("address", srv.Addr),
			logging.String("title", def.Title),
			logging.Bool("dev_mode", cfg.Server.DevMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			sh.Shutdown()
		}
	}()

	waitErr := sh.Wait(ctx)
	select {
	case err := <-serveErr:
		return err
	default:
		return waitErr
	}
}

// uploadError maps a full session mailbox to uploads.ErrTargetBusy.
func uploadError(err error) error {
	if errors.Is(err, core.ErrMailboxFull) {
		return fmt.Errorf("%w: %v", uploads.ErrTargetBusy, err)
	}
	return err
}
