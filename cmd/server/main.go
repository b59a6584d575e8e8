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

	"golang.org/x/sync/errgroup"

	"aerosense/internal/api"
	"aerosense/internal/config"
	"aerosense/internal/log"
	"aerosense/internal/ordergen"
	"aerosense/internal/rand"
	"aerosense/internal/routing"
	"aerosense/internal/sim"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aerosense: %v\n", err)
		os.Exit(2)
	}

	lg := log.New(cfg.LogLevel, cfg.LogDir)
	if err := run(cfg, lg); err != nil {
		lg.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, lg *log.Logger) error {
	rng := rand.New()
	if cfg.Seed != 0 {
		rng = rand.NewSeeded(cfg.Seed)
	}

	locations := sim.DefaultLocations()
	engine := sim.New(sim.Config{
		Provider:     routeProvider(cfg, lg),
		Locations:    locations,
		TickInterval: cfg.TickInterval,
		RouteTimeout: cfg.RouteTimeout,
		Rand:         rng,
		Logger:       lg,
	})
	defer engine.Close()

	for _, o := range sim.SeedOrders() {
		if err := engine.Add(o); err != nil {
			return fmt.Errorf("seeding order %s: %w", o.ID, err)
		}
	}

	var generator sim.OrderSource
	if cfg.OpenRouterKey != "" {
		generator = ordergen.NewOpenRouter(cfg.OpenRouterKey,
			ordergen.WithBaseURL(cfg.OpenRouterBaseURL),
			ordergen.WithModel(cfg.OpenRouterModel),
			ordergen.WithLocations(locations.Names()))
		lg.Info("Generating orders with OpenRouter", "model", cfg.OpenRouterModel)
	} else {
		generator = ordergen.NewSynthetic(rng, locations.Names())
		lg.Info("No OpenRouter key; generating synthetic orders")
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.New(engine, generator, lg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		lg.Infof("Server listening on %s, tick %s", cfg.Addr(), cfg.TickInterval)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		lg.Info("Shutting down")

		// Ends open event streams so Shutdown does not wait on them.
		engine.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	lg.Info("Shutdown complete", "uptime", time.Since(lg.Start).Round(time.Second))
	return nil
}

func routeProvider(cfg config.Config, lg *log.Logger) routing.Provider {
	if cfg.MapboxToken == "" {
		lg.Warn("No Mapbox token; missions will fly the straight-line fallback route")
		return routing.Unavailable
	}

	var p routing.Provider = routing.NewMapbox(cfg.MapboxToken,
		routing.WithBaseURL(cfg.MapboxBaseURL),
		routing.WithProfile(cfg.MapboxProfile))
	if cfg.RouteCacheSize > 0 {
		p = routing.NewCachedProvider(p, cfg.RouteCacheSize, cfg.RouteCacheTTL)
	}
	return p
}
