package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"gmb-scraper/config"
	"gmb-scraper/scraper/gmb"
	"gmb-scraper/services"
	"gmb-scraper/storage"
	"gmb-scraper/utils"
)

const appName = "gmb-scraper"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Collect Google local business listings for a list of search keywords",
		Long: `Searches Google for every keyword, opens the "More businesses" list and
walks its result pages, then writes all listings to one spreadsheet.
Finished keywords are remembered so an interrupted run picks up where it stopped.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.String("env-file", ".env", "dotenv file with GMB_* settings")
	f.String("keywords-file", "", "read keywords from this file instead of Google Sheets")
	f.StringP("output", "o", "", "output file (.xlsx or .csv)")
	f.String("metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	f.Int("max-pages", 0, "maximum result pages per keyword")
	f.Bool("headless", false, "run Chrome without a window")

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers defaults, the env file, GMB_* variables and finally any
// flags given on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	f := cmd.Flags()

	envFile, _ := f.GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	if f.Changed("keywords-file") {
		cfg.KeywordsFile, _ = f.GetString("keywords-file")
		cfg.SpreadsheetID = ""
	}
	if f.Changed("output") {
		cfg.OutputPath, _ = f.GetString("output")
	}
	if f.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = f.GetString("metrics-addr")
	}
	if f.Changed("max-pages") {
		cfg.MaxPages, _ = f.GetInt("max-pages")
	}
	if f.Changed("headless") {
		cfg.Headless, _ = f.GetBool("headless")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	log, logFile, err := utils.OpenRunLog(cfg.LogPath)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporter, err := storage.NewExporter(cfg.OutputPath, log)
	if err != nil {
		return err
	}

	metrics := gmb.NewMetrics()
	stopMetrics := serveMetrics(cfg.MetricsAddr, metrics, log)
	defer stopMetrics()

	pacer := utils.NewPacer(utils.SystemClock{}, time.Now().UnixNano())
	notifier := services.NewNotifier(cfg, log)

	runner := gmb.NewRunner(cfg, gmb.RunnerDeps{
		NewSource: func(ctx context.Context) (gmb.KeywordSource, error) {
			return keywordSource(ctx, cfg, log)
		},
		Progress: storage.NewProgressStore(cfg.ProgressPath, log),
		Exporter: exporter,
		Notifier: notifier,
		NewSession: func(context.Context) (gmb.Session, error) {
			browser, err := gmb.NewChromeBrowser(cfg, pacer.Pick(cfg.UserAgents), log)
			if err != nil {
				return nil, err
			}
			return gmb.NewNavigator(cfg, browser, notifier, pacer, metrics, log), nil
		},
		Pacer:   pacer,
		Metrics: metrics,
		Log:     log,
	})

	result, err := runner.Run(ctx)
	services.PrintReport(cmd.OutOrStdout(), services.GenerateReport(result.Listings, result.Stats))
	return err
}

// keywordSource prefers the worksheet when a spreadsheet is configured.
func keywordSource(ctx context.Context, cfg *config.Config, log *utils.Logger) (gmb.KeywordSource, error) {
	if cfg.SpreadsheetID != "" {
		return storage.NewSheetsSource(ctx, cfg.CredentialsPath, cfg.SpreadsheetID, cfg.WorksheetName, log)
	}
	return storage.NewFileSource(cfg.KeywordsFile, log), nil
}

// serveMetrics exposes the run's registry on addr until the returned func is
// called. An empty addr disables it.
func serveMetrics(addr string, metrics *gmb.Metrics, log *utils.Logger) func() {
	if addr == "" {
		return func() {}
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed: %v", err)
		}
	}()
	log.Info("Serving metrics on %s", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn("Metrics server shutdown: %v", err)
		}
	}
}
