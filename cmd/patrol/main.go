// Command patrol periodically polls a set of web targets, detects content
// changes, records them, and pushes live updates over a WebSocket endpoint.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/namba3/patrol/internal/configstore"
	"github.com/namba3/patrol/internal/datastore"
	"github.com/namba3/patrol/internal/domain"
	"github.com/namba3/patrol/internal/engine"
	"github.com/namba3/patrol/internal/poller"
	"github.com/namba3/patrol/internal/realtime"
	"github.com/namba3/patrol/internal/wsserver"
)

const (
	defaultConfigPath      = "./config.toml"
	defaultDataPath        = "./data.toml"
	defaultWebdriverPort   = 9515
	defaultIntervalMinutes = 1
	metricsNamespace       = "patrol"
)

var flags struct {
	configPath      string
	dataPath        string
	webdriverPorts  []int
	intervalMinutes int
	once            bool
}

var rootCmd = &cobra.Command{
	Use:   "patrol",
	Short: "Watch web pages for content changes and report them",
	Long: `patrol periodically fetches a set of configured web targets, extracts
text via a CSS selector, and records when the extracted content changes.
Simple targets are fetched with a plain HTTP GET; full targets are rendered
in a pooled headless browser first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&flags.configPath, "config-path", "c", defaultConfigPath, "path to the target configuration file")
	rootCmd.Flags().StringVarP(&flags.dataPath, "data-path", "d", defaultDataPath, "path to the target fingerprint data file")
	rootCmd.Flags().IntSliceVarP(&flags.webdriverPorts, "webdriver-ports", "p", []int{defaultWebdriverPort}, "WebDriver ports to pool for full-mode targets")
	rootCmd.Flags().IntVarP(&flags.intervalMinutes, "interval-minutes", "i", defaultIntervalMinutes, "polling interval in minutes (minimum 1)")
	rootCmd.Flags().BoolVar(&flags.once, "once", false, "run a single tick and exit instead of looping")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "patrol: "+err.Error())
		os.Exit(1)
	}
}

// newLogger builds the default JSON slog logger, honoring PATROL_LOG
// (values: debug, info, warn, error) the way RUST_LOG set the original
// poller's verbosity. An unset or unrecognized value falls back to info.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if raw := os.Getenv("PATROL_LOG"); raw != "" {
		_ = level.UnmarshalText([]byte(raw))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func validateIntervalMinutes(n int) error {
	if n < 1 {
		return fmt.Errorf("--interval-minutes must be at least 1, got %d", n)
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	if err := validateIntervalMinutes(flags.intervalMinutes); err != nil {
		return err
	}

	log := newLogger()
	slog.SetDefault(log)

	log.Info("starting patrol",
		"config_path", flags.configPath,
		"data_path", flags.dataPath,
		"webdriver_ports", flags.webdriverPorts,
		"interval_minutes", flags.intervalMinutes,
		"once", flags.once,
	)

	configs, err := configstore.Open(flags.configPath)
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}

	dataStore, err := datastore.Open(flags.dataPath)
	if err != nil {
		return fmt.Errorf("open data store: %w", err)
	}
	actor := datastore.NewActor(dataStore)
	defer actor.Stop()
	dataHandle := datastore.NewHandle(actor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := poller.NewPool(ctx, flags.webdriverPorts)
	if err != nil {
		return fmt.Errorf("start webdriver pool: %w", err)
	}
	defer pool.Close()

	httpPoller := poller.NewHTTPPoller()
	browserPoller := poller.NewBrowserPoller(pool, log)
	selective := poller.NewSelectivePoller(httpPoller, browserPoller)

	realtimeMetrics := realtime.NewMetrics(metricsNamespace)
	broadcaster := realtime.NewBroadcaster(log, realtimeMetrics)

	eng := engine.New(engine.Config{
		Configs:     configs,
		Data:        dataHandle,
		Poller:      selective,
		Broadcaster: broadcaster,
		Period:      intervalAsDuration(),
		Log:         log,
		Metrics:     engine.NewMetrics(metricsNamespace),
	})

	if flags.once {
		return eng.RunOnce(ctx)
	}

	server := wsserver.New(broadcaster, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("received shutdown signal")
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })
	g.Go(func() error { return server.Run(gctx) })

	if err := g.Wait(); err != nil {
		log.Error("patrol exited with error", "error", err)
		return err
	}
	log.Info("patrol exited cleanly")
	return nil
}

func intervalAsDuration() engine.Duration {
	return domain.Minutes(float64(flags.intervalMinutes))
}
