package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"command-center-go/internal/api"
	"command-center-go/internal/config"
	"command-center-go/internal/dashboard"
	"command-center-go/internal/logger"
	"command-center-go/internal/metrics"
	"command-center-go/internal/queries"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.NewWithOptions(logger.Options{Environment: cfg.Environment, Level: cfg.LogLevel})
	log.WithField("service", "command-center-go").WithField("queries_api", cfg.QueriesAPIURL).Info("starting service")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client := queries.NewClient(cfg.QueriesAPIURL,
		queries.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		queries.WithLogger(log),
	)
	store := dashboard.NewStore()
	svc := dashboard.NewService(store, client,
		dashboard.WithLogger(log),
		dashboard.WithMetrics(m),
		dashboard.WithRetry(cfg.RetryMaxElapsed),
		dashboard.WithRiskScoreThreshold(cfg.RiskScoreThreshold),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(svc, log, reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return store.Run(gctx) })
	g.Go(func() error {
		// initial load; a failure leaves an empty queue with the error shown
		if _, err := svc.Refresh(gctx, ""); err != nil {
			log.WithError(err).Warn("initial refresh failed")
		}
		return nil
	})
	g.Go(func() error {
		log.WithField("addr", addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("server terminated")
	}
}
