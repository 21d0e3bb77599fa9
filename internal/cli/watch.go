package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/donewatch/internal/integration"
	"golang.org/x/sync/errgroup"
)

var (
	watchPrime       bool
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch target boards and dispatch newly completed tasks",
	Long: `Watch the directories of all target files. Every modification of a
target is read, its "## Done" section extracted, and when the section grew
the last entry is passed to the configured script.

Edits to .donewatch.yaml (e.g. from 'donewatch targets add' in another
terminal) are picked up without a restart.

With --prime, the current Done sections are recorded at startup so the first
edit of a board does not dispatch an entry that was already there.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Detector == nil || Settings == nil {
			return fmt.Errorf("detector not initialized")
		}

		ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runWatch(ctx, cmd)
	},
}

func runWatch(ctx context.Context, cmd *cobra.Command) error {
	cfg := Settings.Current()
	logger := cliLogger()

	if watchPrime || cfg.PrimeOnStart {
		if err := Detector.Prime(ctx); err != nil {
			logger.Warn("priming incomplete", "error", err)
		}
	}

	settingsPath := ""
	if ConfigMgr != nil {
		settingsPath = ConfigMgr.Path()
	}

	watcher, err := integration.NewWatcher(integration.WatcherConfig{
		Vault:    vaultPath(cfg.VaultPath),
		Debounce: cfg.Debounce,
		DebounceFunc: func() time.Duration {
			return Settings.Current().Debounce
		},
		Targets: func() []string {
			return Settings.Current().TargetFiles
		},
		SettingsPath:     settingsPath,
		OnSettingsChange: reloadSettings,
		Logger:           logger,
	}, func(ctx context.Context, path string) {
		Detector.HandleChange(ctx, path)
	})
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	Metrics.SetTargetFiles(len(cfg.TargetFiles))
	logger.Info("watching target files", "targets", len(cfg.TargetFiles), "vault", vaultPath(cfg.VaultPath))
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %d target file(s). Press Ctrl+C to stop.\n", len(cfg.TargetFiles))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Run(gctx)
	})

	if watchMetricsAddr != "" && MetricsRegistry != nil {
		srv := &http.Server{
			Addr:              watchMetricsAddr,
			Handler:           metricsMux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", watchMetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(MetricsRegistry, promhttp.HandlerOpts{}))
	return mux
}

// reloadSettings re-reads the settings file into the live settings and forgets
// the state of targets that were dropped. A broken file keeps the previous
// settings.
func reloadSettings() {
	if ConfigMgr == nil || Settings == nil {
		return
	}
	cfg, err := ConfigMgr.Load()
	if err == nil {
		err = ConfigMgr.ValidateConfig(cfg)
	}
	if err != nil {
		cliLogger().Warn("settings reload failed, keeping previous settings", "error", err)
		return
	}
	previous := Settings.Current().TargetFiles
	Settings.Replace(cfg)
	if Detector != nil {
		for _, p := range previous {
			if !cfg.IsTarget(p) {
				Detector.State().Reset(p)
			}
		}
	}
	Metrics.SetTargetFiles(len(cfg.TargetFiles))
	cliLogger().Info("settings reloaded", "targets", len(cfg.TargetFiles))
}

func init() {
	watchCmd.Flags().BoolVar(&watchPrime, "prime", false, "record current Done sections before watching")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")
	rootCmd.AddCommand(watchCmd)
}
