package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/raushankrgupta/tailor-connect/api"
	"github.com/raushankrgupta/tailor-connect/config"
	"github.com/raushankrgupta/tailor-connect/events"
	"github.com/raushankrgupta/tailor-connect/middleware"
	"github.com/raushankrgupta/tailor-connect/onboarding"
	"github.com/raushankrgupta/tailor-connect/profile"
	"github.com/raushankrgupta/tailor-connect/recommend"
	"github.com/raushankrgupta/tailor-connect/session"
	"github.com/raushankrgupta/tailor-connect/store"
	"github.com/raushankrgupta/tailor-connect/telemetry"
	"github.com/raushankrgupta/tailor-connect/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server exited with error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger, err := utils.NewLogger(cfg.AppEnv)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	defer zap.ReplaceGlobals(logger)()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.AppEnv, cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	db, err := store.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logger.Warn("failed to close MongoDB", zap.Error(err))
		}
	}()

	publisher := newPublisher(cfg.NATS.URL, logger)
	defer publisher.Close()

	hub := session.NewHub(logger)
	defer hub.Close()
	hub.Subscribe("events", session.Forward(publisher, logger))

	deps := api.Deps{
		Auth:       cfg.Auth,
		Identities: db,
		Database:   db,
		Hub:        hub,
		Log:        logger,
	}
	deps.Profiles = profile.NewGateway(db, logger)
	deps.Flow = onboarding.NewFlow(deps.Profiles, publisher, logger)
	deps.Resolver = session.NewResolver(deps.Profiles)

	if deps.Mailer, err = utils.NewMailer(cfg.Mail.SendGridAPIKey, cfg.Mail.FromName, cfg.Mail.FromAddress, logger); err != nil {
		return err
	}
	if photos, err := utils.NewS3Store(ctx, cfg.AWS.Region, cfg.AWS.BucketName, logger); err != nil {
		logger.Warn("photo uploads disabled", zap.Error(err))
	} else {
		deps.Photos = photos
	}
	if google, err := api.NewGoogleOIDC(ctx, cfg.Google); err != nil {
		logger.Warn("Google sign-in disabled", zap.Error(err))
	} else {
		deps.Google = google
	}
	if cfg.Gemini.APIKey != "" {
		gen, err := recommend.NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		defer gen.Close()
		deps.Recommender = recommend.New(gen, logger)
	} else {
		logger.Warn("recommendations disabled: GEMINI_API_KEY is empty")
	}

	router := api.NewServer(deps).Routes()

	corsOpts := []gorillaHandlers.CORSOption{
		gorillaHandlers.AllowedOrigins(cfg.CORS.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With"}),
		gorillaHandlers.AllowCredentials(),
	}
	handler := otelhttp.NewHandler(
		middleware.RequestLogger(logger)(gorillaHandlers.CORS(corsOpts...)(router)),
		"tailor-connect",
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		logger.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.AppEnv),
			zap.String("cors", strings.Join(cfg.CORS.AllowedOrigins, ",")),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	grp.Go(func() error {
		<-grpCtx.Done()
		logger.Info("received signal to stop")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("gracefully stopped")
	return nil
}

func newPublisher(url string, logger *zap.Logger) events.Publisher {
	if url == "" {
		logger.Info("event publishing disabled: NATS_URL is empty")
		return events.Noop{}
	}
	nc, err := events.ConnectNATS(url, logger)
	if err != nil {
		logger.Warn("event publishing disabled", zap.Error(err))
		return events.Noop{}
	}
	return nc
}
