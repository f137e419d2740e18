package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aion-proxy/aion-data-parser/internal/datadir"
	"github.com/aion-proxy/aion-data-parser/internal/protocol"
	"github.com/aion-proxy/aion-data-parser/internal/registry"
	"github.com/aion-proxy/aion-data-parser/internal/relay"
	"github.com/kelseyhightower/envconfig"
	"github.com/phuslu/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	DataDir     string         `envconfig:"AION_DATA_DIR" required:"true"`
	Protocol    string         `envconfig:"AION_PROTOCOL" required:"true"`
	Versions    map[string]int `envconfig:"AION_PACKET_VERSIONS"`
	RelayAddr4  string         `envconfig:"RELAY_ADDR4" default:"0.0.0.0:5000"`
	IdleTimeout time.Duration  `envconfig:"RELAY_IDLE_TIMEOUT" default:"10s"`
	MetricsAddr string         `envconfig:"METRICS_ADDR"`
}

func loadConfig() (*Config, error) {
	config := new(Config)
	if err := envconfig.Process("", config); err != nil {
		return nil, err
	}
	return config, nil
}

func configureLogger() *log.Logger {
	logger := log.DefaultLogger

	// https://github.com/phuslu/log?tab=readme-ov-file#pretty-console-writer
	logger.Caller = 1
	logger.TimeFormat = "15:04:05"
	logger.Writer = &log.ConsoleWriter{
		ColorOutput:    true,
		QuoteString:    true,
		EndWithMessage: true,
	}

	return &logger
}

func newRegistry(config *Config, logger *log.Logger) (*registry.Registry, error) {
	dir, err := datadir.Open(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("could not open data dir: %w", err)
	}

	table, err := dir.LoadDefinitions(logger)
	if err != nil {
		return nil, fmt.Errorf("could not load definitions: %w", err)
	}
	if table.Skipped != nil {
		logger.Warn().Msgf("some definitions were skipped: %v", table.Skipped)
	}
	logger.Info().
		Int("definitions", table.Len()).
		Str("fingerprint", fmt.Sprintf("%016x", table.Fingerprint())).
		Msg("loaded definitions")

	return registry.New(config.Protocol, table, dir, logger)
}

func serveMetrics(ctx context.Context, addr string, reg *registry.Registry, logger *log.Logger) error {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info().Msgf("serving metrics on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func erringMain() error {
	config, err := loadConfig()
	if err != nil {
		return fmt.Errorf("could not process config: %w", err)
	}

	logger := configureLogger()

	reg, err := newRegistry(config, logger)
	if err != nil {
		return fmt.Errorf("could not construct registry: %w", err)
	}

	rl, err := relay.New("udp4", config.RelayAddr4, reg, relay.Options{
		Versions:    protocol.VersionTable(config.Versions),
		IdleTimeout: config.IdleTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("could not construct relay: %w", err)
	}
	logger.Info().Msgf("started relay on %s", config.RelayAddr4)

	wg := new(sync.WaitGroup)
	ctx, cancel := context.WithCancel(context.Background())

	wg.Add(1)
	var relayRunErr error
	go func() {
		defer wg.Done()
		relayRunErr = rl.Run(ctx)
	}()

	var metricsErr error
	if config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metricsErr = serveMetrics(ctx, config.MetricsAddr, reg, logger)
			if metricsErr != nil {
				// a dead metrics listener takes the relay down with it
				cancel()
			}
		}()
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-signalChan:
		logger.Info().Msgf("received %+v signal", sig)
	case <-ctx.Done():
	}

	cancel()
	wg.Wait()
	if relayRunErr != nil {
		return fmt.Errorf("relay run failed: %w", relayRunErr)
	}
	if metricsErr != nil {
		return fmt.Errorf("metrics server failed: %w", metricsErr)
	}

	return nil
}

func main() {
	if err := erringMain(); err != nil {
		fmt.Fprintf(os.Stderr, "relay exited: %v\n", err)
		os.Exit(42)
	}
}
