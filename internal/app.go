package internal

import (
	"context"
	"fmt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
	"workdiary/internal/controllers"
	"workdiary/internal/maintenance/interfaces"
	"workdiary/internal/providers"
	"workdiary/internal/storage"
	"workdiary/internal/structures"
)

// unmatchedEndpoint labels requests that hit no route.
const unmatchedEndpoint = "other"

type App struct {
	WebServer *http.Server
	conf      *structures.Config
	logger    providers.Logger
	scheduler interfaces.SchedulerInterface
}

func NewApp(healthController *controllers.HealthController, scheduler interfaces.SchedulerInterface, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface, images storage.ImageStoreInterface) *App {
	// Inner mux: API routes, each instrumented under its own pattern
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, providers.MetricsMiddleware(metrics, logger, route.Url, route.Handler))
	}
	apiMux.Handle("/", providers.MetricsMiddleware(metrics, logger, unmatchedEndpoint, http.NotFoundHandler()))
	api := providers.CompressionMiddleware(apiMux)

	prefix := "/" + strings.Trim(conf.Storage.PublicPrefix, "/")
	files := http.StripPrefix(prefix, imageFileServer(images.Root()))

	// Outer mux: infrastructure, images and the API with its /api alias
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle(prefix+"/", providers.MetricsMiddleware(metrics, logger, prefix, files))
	mux.Handle("/api/", http.StripPrefix("/api", api))
	mux.Handle("/", api)

	fetchTimeout := conf.Fetcher.Timeout
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}

	return &App{
		WebServer: &http.Server{
			Addr:              conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       60 * time.Second,
			// Both image slots may be fetched remotely within one request.
			WriteTimeout: 2*fetchTimeout + 15*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:      conf,
		logger:    logger,
		scheduler: scheduler,
	}
}

// imageFileServer serves stored images without directory listings.
func imageFileServer(root string) http.Handler {
	fs := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}

// Run serves until SIGINT/SIGTERM and then shuts down gracefully.
func (app *App) Run() error {
	app.logger.Infof(providers.TypeApp, "Starting %s", app.conf.AppName)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := app.scheduler.RunOnce(ctx); err != nil {
		app.logger.Errorf(providers.TypeApp, "Initial maintenance error: %s", err)
	}
	cancel()
	app.scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", app.conf.WebServer.Host, app.conf.WebServer.Port)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		app.logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		app.scheduler.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	app.scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := app.WebServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	app.logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}
