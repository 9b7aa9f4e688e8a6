package internal

import (
	"context"
	"fmt"
	"gamewarden/internal/console"
	"gamewarden/internal/controllers"
	"gamewarden/internal/providers"
	"gamewarden/internal/storage"
	"gamewarden/internal/structures"
	"gamewarden/internal/watcher/interfaces"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

type App struct {
	WebServer *http.Server

	conf      *structures.Config
	logger    providers.Logger
	scheduler interfaces.SchedulerInterface
	conns     *console.ConnectionManager
	store     storage.StateStore
}

func NewApp(
	statusController *controllers.StatusController,
	healthController *controllers.HealthController,
	scheduler interfaces.SchedulerInterface,
	conf *structures.Config,
	logger providers.Logger,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
	conns *console.ConnectionManager,
	store storage.StateStore,
) (*App, error) {
	instrumentedAPI := providers.MetricsMiddleware(metrics, router.Mux())

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", metrics.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	for _, err := range conf.Rejected {
		logger.Errorf(providers.TypeApp, "Server skipped: %s", err)
	}

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:      conf,
		logger:    logger,
		scheduler: scheduler,
		conns:     conns,
		store:     store,
	}, nil
}

// Run serves HTTP and drives the scheduler until SIGINT or SIGTERM.
func (app *App) Run() error {
	app.logger.Infof(providers.TypeApp, "Starting %s with %d server(s)", app.conf.AppName, len(app.conf.Servers))
	defer app.Close()

	app.scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", app.WebServer.Addr)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case <-stop:
		app.logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if err := app.scheduler.Stop(context.Background()); err != nil {
		app.logger.Warnf(providers.TypeApp, "Some ticks did not finish: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.WebServer.Shutdown(ctx); err != nil && runErr == nil {
		runErr = err
	}

	if runErr == nil {
		app.logger.Infof(providers.TypeApp, "gracefully stopped")
	}
	return runErr
}

// PollOnce runs a single roster pass over every server.
func (app *App) PollOnce(ctx context.Context) {
	defer app.Close()
	app.scheduler.RunOnce(ctx)
}

// BackupNow runs a forced backup cycle for one server.
func (app *App) BackupNow(ctx context.Context, server string) error {
	defer app.Close()
	return app.scheduler.BackupNow(ctx, server)
}

// Close releases console connections, the state store and the log file.
func (app *App) Close() {
	app.conns.Close()
	if err := app.store.Close(); err != nil {
		app.logger.Errorf(providers.TypeApp, "Closing state store: %s", err)
	}
	app.logger.Close()
}
