package trackingservice

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/config"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/jwt"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/logger"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/postgres"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/rabbitmq"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/websocket"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/realtime"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/software/tracking/handler"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/software/tracking/service"
)

func Run(ctx context.Context, prefetch, maxConcurrent int) error {
	// set up a new logger for the tracking service with a static request ID for startup logs
	logger := logger.New("tracking-service")
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load configuration
	cfg, err := config.LoadFromFile("./config/config.yaml")
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// set up a Postgres connection pool
	pool, err := postgres.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	// connect to RabbitMQ
	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	// set up the RabbitMQ publisher
	pub := &rabbitmq.MQPublisher{Client: rmq}

	// set up the JWT manager and the websocket token verifier
	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, cfg.AccessTTL())
	verifier := jwt.NewTokenVerifier(jwtManager)

	// set up the necessary repos
	uow := postgres.NewUnitOfWork(pool)
	locationRepo := postgres.NewLocationRepo()
	trackingRepo := postgres.NewTrackingStatusRepo()
	emergencyRepo := postgres.NewEmergencyRepo()

	// wire the realtime hub: bridge for durable writes, mirror for broker
	// copies, emitter for outbound frames
	bridge := service.NewPersistenceBridge(uow, locationRepo, trackingRepo, emergencyRepo)
	mirror := service.NewBrokerMirror(logger, pub)
	emitter := websocket.NewEmitter()
	hub := realtime.NewHub(logger, verifier, bridge, emitter, mirror)

	// set up the websocket transport
	ws := websocket.NewServer(logger, hub, emitter)

	// set up the tracking service
	svc := service.NewTrackingService(logger, hub, jwtManager, rmq, prefetch)

	// start the background RabbitMQ consumer for push directives
	svc.RunBackgroundConsumers(ctx)

	// set up the HTTP handler and its routes
	mux := http.NewServeMux()
	httpHandler := handler.NewTrackingHTTPHandler(svc, logger, jwtManager, ws)
	httpHandler.RegisterRoutes(mux)

	// concurrency limiter (global), blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	// set up the server configurations
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebSocket.Port),       // listen on the specified port
		Handler:           limitedHandler,                               // apply the concurrency limiter to HTTP handler
		ReadHeaderTimeout: 5 * time.Second,                              // time to read headers
		ReadTimeout:       10 * time.Second,                             // time to read full request body
		WriteTimeout:      15 * time.Second,                             // full response write timeout; hijacked websockets are exempt
		IdleTimeout:       60 * time.Second,                             // keep-alive window
		BaseContext:       func(net.Listener) context.Context { return ctx }, // pass base ctx to all handlers
	}

	// log service start
	logger.Info(ctx, "service_started",
		fmt.Sprintf("Tracking Service started on port %d", cfg.WebSocket.Port),
		map[string]any{"port": cfg.WebSocket.Port, "max_concurrent": maxConcurrent, "prefetch": prefetch},
	)

	// start the server in a background goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// wait for context cancellation or server error
	select {
	case <-ctx.Done():
		// graceful HTTP shutdown on context cancel
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		// server returned a terminal error at startup or during run
		if err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.WebSocket.Port})
			return err
		}
		return nil
	}

	return nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
