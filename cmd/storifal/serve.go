package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/storifal/storifal/internal/config"
	"github.com/storifal/storifal/internal/jwtsigner"
	"github.com/storifal/storifal/internal/observability/logging"
	"github.com/storifal/storifal/internal/observability/metrics"
	"github.com/storifal/storifal/internal/service"
	impl "github.com/storifal/storifal/internal/service/impl"
	"github.com/storifal/storifal/internal/store"
	transporthttp "github.com/storifal/storifal/internal/transport/http"
	"github.com/storifal/storifal/pkg/db"
)

const (
	serviceName     = "storifal"
	shutdownTimeout = 20 * time.Second
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	logger.Info("starting service")

	metrics.MustRegister(prometheus.DefaultRegisterer, serviceName)

	// 1) DB
	if cfg.MigrateOnStart {
		if err := migrateUp(cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}
	gdb, err := db.OpenGorm(ctx, db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		return err
	}
	st := store.New(gdb)
	defer func() { _ = st.Close() }()

	// 2) Services
	signer, err := jwtsigner.NewHS256(cfg.JWTSecret, cfg.Issuer)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	ts := impl.NewTokenServiceHS256(impl.TokenConfig{
		VerificationTTL: cfg.VerificationTTL,
		AccessTTL:       cfg.AccessTTL,
	}, signer)
	pw := impl.NewPasswordServiceBcrypt(impl.DefaultBcryptCost)

	var mailer service.EmailService
	if cfg.SMTPConfigured() {
		mailer = impl.NewSMTPEmailService(impl.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}, cfg.FrontendURL)
	} else {
		logger.Warn("smtp credentials not set, verification links will be logged")
		mailer = impl.NewConsoleEmailService(logger, cfg.FrontendURL)
	}
	notifier := impl.NewAsyncNotifier(mailer, cfg.MailTimeout, logger)

	as := impl.NewAuthServiceImpl(st, pw, ts, notifier, impl.WithLogger(logger))
	cs := impl.NewContactServiceImpl(st, logger)

	// 3) HTTP
	router := transporthttp.NewRouter(transporthttp.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	}, as, cs, ts)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "issuer", cfg.Issuer)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	// 4) drain HTTP first so no new dispatches start, then pending mail
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.LogError(logger, "http shutdown", err)
	}
	if err := notifier.Close(shutdownCtx); err != nil {
		logging.LogError(logger, "notifier drain", err)
	}
	logger.Info("stopped")
	return nil
}
