package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/telhawk-systems/telhawk-edge/common/events"
	"github.com/telhawk-systems/telhawk-edge/common/logging"
	"github.com/telhawk-systems/telhawk-edge/device/internal/agent"
	"github.com/telhawk-systems/telhawk-edge/device/internal/backoff"
	"github.com/telhawk-systems/telhawk-edge/device/internal/config"
	"github.com/telhawk-systems/telhawk-edge/device/internal/fault"
	"github.com/telhawk-systems/telhawk-edge/device/internal/telemetry"
	"github.com/telhawk-systems/telhawk-edge/device/internal/transport"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("device"))
	logging.SetDefault(logger)

	slog.Info("Starting device fleet",
		slog.String("edge_url", cfg.Edge.URL),
		slog.Int("device_count", cfg.Device.Count),
		slog.Duration("interval", cfg.Telemetry.Interval),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize the protocol event sink: structured logs always, NATS
	// fan-out when configured.
	var sink events.Sink = events.NewSlogSink(logger)
	if cfg.Events.NATSEnabled {
		natsCfg := events.DefaultNATSConfig()
		natsCfg.URL = cfg.Events.NATSURL
		natsCfg.Name = "telhawk-device"
		natsSink, err := events.NewNATSSink(natsCfg, logger)
		if err != nil {
			log.Printf("WARNING: Failed to connect NATS event sink: %v", err)
			log.Println("Continuing with log-only protocol events")
		} else {
			sink = events.MultiSink{sink, natsSink}
			defer natsSink.Close()
			log.Printf("NATS event sink enabled: %s", cfg.Events.NATSURL)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One independent runner per device identity; no shared state between
	// devices beyond the event sink.
	var wg sync.WaitGroup
	for i := 0; i < cfg.Device.Count; i++ {
		deviceID := fmt.Sprintf("%s-%03d", cfg.Device.IDPrefix, i+1)

		seed := cfg.Device.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed + int64(i)))

		injector := fault.New(fault.Config{
			DropProbability:      cfg.Faults.DropProbability,
			JitterProbability:    cfg.Faults.JitterProbability,
			DuplicateProbability: cfg.Faults.DuplicateProbability,
			MaxJitter:            cfg.Faults.MaxJitter,
		}, rng)

		policy := backoff.New(cfg.Retry.BaseBackoff, cfg.Retry.MaxBackoff, cfg.Retry.JitterRange, rng)
		client := transport.New(cfg.Edge.URL, cfg.Edge.Timeout, cfg.Edge.AuthToken)
		deliveryAgent := agent.New(client, policy, injector, cfg.Retry.MaxRetries, sink, logger)
		gen := telemetry.NewGenerator(deviceID, seed+int64(i))

		runner := agent.NewRunner(deliveryAgent, gen, injector, agent.RunnerConfig{
			Interval:       cfg.Telemetry.Interval,
			DuplicatePause: cfg.Retry.DuplicatePause,
		}, sink, logger)

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Runner exited", logging.DeviceID(id), logging.Error(err))
			}
		}(deviceID)

		slog.Info("Device runner started", logging.DeviceID(deviceID))
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down device fleet")
	cancel()
	wg.Wait()
	slog.Info("Device fleet stopped")
}
