package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/force-scraper/internal/browser"
	"github.com/pfrederiksen/force-scraper/internal/config"
	"github.com/pfrederiksen/force-scraper/internal/department"
	"github.com/pfrederiksen/force-scraper/internal/logger"
	"github.com/pfrederiksen/force-scraper/internal/metrics"
	"github.com/pfrederiksen/force-scraper/internal/scraper"
	"github.com/pfrederiksen/force-scraper/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version is reported by --version. Set at build time.
var Version = "dev"

var (
	flagConfig      string
	flagBaseURL     string
	flagOutDir      string
	flagDriver      string
	flagHeadless    bool
	flagChromePath  string
	flagTimeout     time.Duration
	flagSettle      time.Duration
	flagDelay       time.Duration
	flagMatch       string
	flagLimit       int
	flagFormat      string
	flagMetricsFile string
	flagVerbose     bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "force-scraper",
		Short: "Scrape police use-of-force data from force.nj.com",
		Long: `A CLI tool that drives a browser through force.nj.com and writes
department use-of-force statistics and officer incident tables to CSV files.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to a YAML config file (default: ./"+config.DefaultFile+" if present)")
	pf.StringVar(&flagBaseURL, "base-url", scraper.DefaultBaseURL, "Site root")
	pf.StringVar(&flagOutDir, "out-dir", "data/processed", "Directory for output files")
	pf.StringVar(&flagDriver, "driver", string(browser.KindChrome), "Page driver: chrome or static")
	pf.BoolVar(&flagHeadless, "headless", true, "Run Chrome without a window")
	pf.StringVar(&flagChromePath, "chrome-path", "", "Chrome executable (default: autodetect)")
	pf.DurationVar(&flagTimeout, "timeout", browser.DefaultTimeout, "Timeout for each page action")
	pf.DurationVar(&flagSettle, "settle", scraper.DefaultSettle, "Pause after the listing and first department load")
	pf.DurationVar(&flagDelay, "delay", 0, "Minimum interval between page navigations")
	pf.StringVar(&flagMatch, "match", "", "Only departments whose name contains this text")
	pf.IntVar(&flagLimit, "limit", 0, "Only the first N departments (0 = all)")
	pf.StringVar(&flagFormat, "format", "text", "Output format: text or json")
	pf.StringVar(&flagMetricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")
	pf.BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newDepartmentsCmd(), newIncidentsCmd(), newListCmd())
	return cmd
}

func newDepartmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "departments",
		Short: "Scrape statistics for every department into one CSV file",
		Args:  cobra.NoArgs,
		RunE:  runDepartments,
	}
}

func newIncidentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "incidents",
		Short: "Scrape each department's incidents table into its own CSV file",
		Args:  cobra.NoArgs,
		RunE:  runIncidents,
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the departments on the listing page",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

// session is what every command needs: settings, a driver and a scraper.
type session struct {
	cfg     *config.Config
	format  OutputFormat
	driver  browser.Driver
	scraper *scraper.Scraper
}

func (s *session) Close() {
	if err := s.driver.Close(); err != nil {
		logger.Warn("Closing driver", logger.Fields{"error": err.Error()})
	}
}

// loadConfig merges the config file and environment with any flags given on
// the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	fs := cmd.Flags()
	if fs.Changed("base-url") {
		cfg.BaseURL = flagBaseURL
	}
	if fs.Changed("out-dir") {
		cfg.OutDir = flagOutDir
	}
	if fs.Changed("driver") {
		cfg.Browser.Driver = flagDriver
	}
	if fs.Changed("headless") {
		cfg.Browser.Headless = flagHeadless
	}
	if fs.Changed("chrome-path") {
		cfg.Browser.ExecPath = flagChromePath
	}
	if fs.Changed("timeout") {
		cfg.Browser.Timeout = flagTimeout
	}
	if fs.Changed("settle") {
		cfg.Settle = flagSettle
	}
	if fs.Changed("delay") {
		cfg.Delay = flagDelay
	}
	if fs.Changed("match") {
		cfg.Match = flagMatch
	}
	if fs.Changed("limit") {
		cfg.Limit = flagLimit
	}
	if fs.Changed("metrics-file") {
		cfg.MetricsFile = flagMetricsFile
	}
	if flagVerbose {
		cfg.LogLevel = string(logger.LevelDebug)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openSession(cmd *cobra.Command) (*session, error) {
	format, err := ParseFormat(flagFormat)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))
	logger.ResetMetrics()

	logger.Debug("Starting driver", logger.Fields{
		"driver":   cfg.Browser.Driver,
		"headless": cfg.Browser.Headless,
		"base_url": cfg.BaseURL,
	})
	driver, err := browser.Open(cmd.Context(), cfg.BrowserOptions())
	if err != nil {
		return nil, fmt.Errorf("opening browser: %w", err)
	}

	return &session{
		cfg:     cfg,
		format:  format,
		driver:  driver,
		scraper: scraper.New(driver, cfg.ScraperOptions()),
	}, nil
}

// departments lists and filters the departments to work on.
func (s *session) departments(ctx context.Context) ([]department.Department, error) {
	depts, err := s.scraper.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	filtered := scraper.Filter(depts, s.cfg.Match, s.cfg.Limit)
	if len(filtered) < len(depts) {
		logger.Info("Filtered departments", logger.Fields{
			"match":    s.cfg.Match,
			"limit":    s.cfg.Limit,
			"selected": len(filtered),
			"total":    len(depts),
		})
	}
	return filtered, nil
}

// report prints the run summary and, when configured, exports the metrics.
func (s *session) report(cmd *cobra.Command, summary *Summary) error {
	logger.Info("Run complete", logger.Fields{
		"command":     summary.Command,
		"departments": summary.Departments,
		"files":       len(summary.Files),
		"duration":    summary.Duration,
	})

	if s.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(s.cfg.MetricsFile, summary.Command, summary.Metrics, time.Now()); err != nil {
			return err
		}
	}
	return WriteSummary(cmd.OutOrStdout(), summary, s.format)
}

func runDepartments(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	started := time.Now().UTC()

	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	store, err := storage.New(sess.cfg.OutDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	depts, err := sess.departments(ctx)
	if err != nil {
		return err
	}

	records, err := sess.scraper.ScrapeDepartments(ctx, depts)
	if err != nil {
		return fmt.Errorf("scraping departments: %w", err)
	}

	path, err := store.WriteDepartments(records, started)
	if err != nil {
		return err
	}
	files := []string{path}
	logger.Info("Wrote department records", logger.Fields{"path": path, "records": len(records)})

	if sess.format == FormatJSON {
		jsonPath, err := store.WriteJSON(path, records)
		if err != nil {
			return err
		}
		files = append(files, jsonPath)
	}

	return sess.report(cmd, newSummary("departments", started, len(depts), files))
}

func runIncidents(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	started := time.Now().UTC()

	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	store, err := storage.New(sess.cfg.OutDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	depts, err := sess.departments(ctx)
	if err != nil {
		return err
	}

	var files []string
	err = sess.scraper.ScrapeAllIncidents(ctx, depts, func(d department.Department, table *department.Table) error {
		path, err := store.WriteIncidents(d.Name, table)
		if err != nil {
			return err
		}
		logger.Info("Wrote incidents table", logger.Fields{"department": d.Name, "path": path, "rows": table.Len()})
		files = append(files, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("scraping incidents: %w", err)
	}

	return sess.report(cmd, newSummary("incidents", started, len(depts), files))
}

func runList(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	depts, err := sess.departments(cmd.Context())
	if err != nil {
		return err
	}

	return WriteDepartments(cmd.OutOrStdout(), depts, sess.scraper, sess.format)
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(ExitError)
	}
}
