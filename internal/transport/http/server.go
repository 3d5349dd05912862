package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"snaps_engagement/internal/config"
	"snaps_engagement/internal/database"
	"snaps_engagement/internal/handler"
	"snaps_engagement/internal/logger"
	"snaps_engagement/internal/queue"
	redisclient "snaps_engagement/internal/redis"
	"snaps_engagement/internal/service"
	"snaps_engagement/internal/storage"
	"snaps_engagement/internal/worker"
)

const (
	// streamMaxLen caps the engagement stream; older entries are trimmed approximately.
	streamMaxLen = 100_000

	// dedupTTL is how long a delivered event id is remembered.
	dedupTTL = 24 * time.Hour

	readHeaderTimeout = 10 * time.Second
)

// Run loads configuration, wires the service and serves HTTP until ctx is
// cancelled. Redis, FCM and the report bucket are optional.
func Run(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.Log)
	log := logger.L()

	// 2. Connect to Database
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	// 3. Optional collaborators
	var (
		publisher queue.Publisher
		rdb       *redisclient.Client
	)
	if cfg.Redis.Enabled() {
		rdb, err = redisclient.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		publisher = queue.NewPublisher(rdb.Client, streamMaxLen)
	} else {
		log.Warn().Msg("redis not configured, engagement notifications disabled")
	}

	var pusher service.Pusher
	if cfg.FCM.Enabled() {
		fcm, err := service.NewFCMClient(ctx, cfg.FCM.ProjectID, cfg.FCM.ClientEmail, cfg.FCM.PrivateKey)
		if err != nil {
			log.Warn().Err(err).Msg("fcm unavailable, push disabled")
		} else {
			pusher = fcm
		}
	}

	var sink service.ReportSink
	if cfg.Report.Enabled() {
		s, err := storage.NewReportSink(ctx, cfg.Report)
		if err != nil {
			return err
		}
		sink = s
	}

	svc := service.NewServices(db, publisher, pusher, sink)

	// 4. Notification workers
	if rdb != nil && cfg.Worker.Count > 0 {
		manager := worker.NewManager(
			queue.NewConsumer(rdb.Client),
			worker.NewHandler(svc.Notifications, queue.NewDeduper(rdb.Client, dedupTTL)),
			worker.ManagerConfig{
				WorkerCount:  cfg.Worker.Count,
				BatchSize:    cfg.Worker.BatchSize,
				BlockTimeout: cfg.Worker.BlockTimeout,
			},
		)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("start workers: %w", err)
		}
		defer manager.Stop()
	}

	// 5. Setup Server
	router := NewRouter(RouterConfig{
		EngagementHandler:   handler.NewEngagementHandler(svc.Toggles, svc.Collections),
		CommentHandler:      handler.NewCommentHandler(svc.Comments, svc.Lifecycle),
		PostHandler:         handler.NewPostHandler(svc.Posts, svc.Lifecycle),
		CollectionHandler:   handler.NewCollectionHandler(svc.Collections, svc.Lifecycle),
		UserHandler:         handler.NewUserHandler(svc.Users),
		NotificationHandler: handler.NewNotificationHandler(svc.Notifications),
		AdminHandler:        handler.NewAdminHandler(svc.Reconcile, svc.Lifecycle),
		JWTSecret:           cfg.Auth.JWTSecret,
		AdminToken:          cfg.Auth.AdminToken,
	})

	srv := &stdhttp.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
