package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rafabd1/LeakHound/config"
	"github.com/rafabd1/LeakHound/core/extractor"
	"github.com/rafabd1/LeakHound/core/patterns"
	"github.com/rafabd1/LeakHound/core/scanner"
	"github.com/rafabd1/LeakHound/metrics"
	"github.com/rafabd1/LeakHound/networking"
	"github.com/rafabd1/LeakHound/output"
	"github.com/rafabd1/LeakHound/utils"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const maxLocalFileSize = 10 * 1024 * 1024

var scanCmd = &cobra.Command{
	Use:   "scan [urls|files|dirs...]",
	Short: "Scan URLs, local files or directories",
	Long: `Scan crawls each URL breadth-first (scripts, links and discovered resources
up to --depth hops, limited by --scope) and scans local files or directories
directly. Findings from all sources are deduplicated into one report.`,
	RunE: runScan,
}

// scanSession bundles everything one scan command wires together.
type scanSession struct {
	cfg       *config.Configuration
	logger    *output.Logger
	diag      zerolog.Logger
	registry  *patterns.Registry
	scanner   *scanner.Scanner
	writer    *output.Writer
	urls      []string
	files     []string
	overrides map[string]string
	include   []string
	exclude   []string
	started   time.Time
}

func runScan(cmd *cobra.Command, args []string) error {
	vip := viper.GetViper()
	cfg := appConfig

	logger := output.NewLogger(cfg.Verbose, cfg.Silent)
	defer logger.Close()
	diag := diagnostics(cfg)

	patternFlags, _ := cmd.Flags().GetStringArray("pattern")
	overrides, err := parsePatternFlags(patternFlags)
	if err != nil {
		return err
	}
	headerFlags, _ := cmd.Flags().GetStringArray("header")
	headers, err := parseHeaders(headerFlags)
	if err != nil {
		return err
	}
	if len(headers) > 0 {
		cfg.Headers = mergeOverrides(cfg.Headers, headers)
	}

	targets := append([]string(nil), args...)
	if cfg.InputFile != "" {
		lines, err := utils.ReadLinesFromFile(cfg.InputFile)
		if err != nil {
			return err
		}
		targets = append(targets, lines...)
	}
	urls, files := splitTargets(targets, logger)
	if len(urls) == 0 && len(files) == 0 {
		return utils.NewError(utils.ConfigError, "no valid input sources found; pass URLs, files or -i", nil)
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, m, logger)
		defer stop()
	}

	s := &scanSession{
		cfg:       cfg,
		logger:    logger,
		diag:      diag,
		overrides: overrides,
		urls:      urls,
		files:     files,
		include:   vip.GetStringSlice("include_categories"),
		exclude:   vip.GetStringSlice("exclude_categories"),
	}
	s.registry = newRegistry(cfg, diag, overrides)
	if err := s.registry.Restrict(s.include, s.exclude); err != nil {
		return err
	}

	if cfg.OutputFile != "" {
		if s.writer, err = output.NewWriter(cfg.OutputFile); err != nil {
			return err
		}
	}

	engine := extractor.NewEngine(s.registry,
		extractor.WithOptions(cfg.ExtractorOptions()),
		extractor.WithLogger(diag),
		extractor.WithMetrics(m),
	)
	client := networking.NewClient(cfg.ClientConfig(), networking.WithClientLogger(diag))

	var progress *output.ProgressBar
	if logger.IsTerminal() && !logger.IsSilent() && !vip.GetBool("no_progress") && len(urls) > 0 {
		progress = output.NewProgressBar(os.Stderr, 30, true)
		progress.SetPrefix("Scanning: ")
		logger.SetProgressBar(progress)
	}

	opts := []scanner.Option{
		scanner.WithDomainManager(client.Domains()),
		scanner.WithCacheResetter(s.registry),
		scanner.WithDiagnostics(diag),
		scanner.WithMetrics(m),
	}
	if progress != nil {
		opts = append(opts, scanner.OnProgress(func(st scanner.Stats) {
			progress.Update(st.Processed+st.Failed, st.Queued)
			progress.SetSuffix(fmt.Sprintf("Findings: %d", st.Findings))
		}))
	}
	s.scanner = scanner.NewScanner(client, engine, logger, cfg.ScannerConfig(), opts...)

	if progress != nil {
		progress.Start()
	}
	runErr := s.run(cmd.Context())
	if progress != nil {
		progress.Stop()
		logger.SetProgressBar(nil)
	}
	if err := s.report(cmd); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if vip.GetBool("watch") && cmd.Context().Err() == nil {
		return s.watch(cmd)
	}
	return nil
}

func (s *scanSession) run(ctx context.Context) error {
	s.started = time.Now()
	s.logger.ResetState()

	s.scanner.Begin()
	defer s.scanner.End()

	var runErr error
	if len(s.urls) > 0 {
		_, runErr = s.scanner.Crawl(ctx, s.urls)
	}
	s.scanFiles(ctx)
	return runErr
}

func (s *scanSession) scanFiles(ctx context.Context) {
	for _, path := range s.files {
		if ctx.Err() != nil {
			return
		}
		info, err := os.Stat(path)
		if err != nil {
			s.logger.Warning("Cannot access file %s: %v", path, err)
			continue
		}
		if info.Size() > maxLocalFileSize {
			s.logger.Debug("Skipping large file: %s (size: %d bytes)", path, info.Size())
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warning("Failed to read file %s: %v", path, err)
			continue
		}
		if utils.IsBinaryContent(content) {
			s.logger.Debug("Skipping binary content in file: %s", path)
			continue
		}
		s.scanner.ScanContent(path, "", string(content))
	}
}

func (s *scanSession) buildReport() output.Report {
	stats := s.scanner.GetStats()
	targets := append(append([]string(nil), s.urls...), s.files...)

	rep := output.NewReport(stats.SessionID, targets, s.scanner.Results())
	rep.StartedAt = s.started
	rep.FinishedAt = time.Now()
	rep.Processed = stats.Processed
	rep.Failed = stats.Failed
	return rep
}

func (s *scanSession) report(cmd *cobra.Command) error {
	rep := s.buildReport()
	s.logger.Flush()

	if s.writer == nil {
		return output.Encode(cmd.OutOrStdout(), output.FormatText, rep)
	}
	if err := s.writer.Write(rep); err != nil {
		return err
	}
	s.logger.Info("Wrote %d findings to %s", rep.Total, s.writer.Path())
	return nil
}

/*
   Keeps running after the first scan, re-applying pattern overrides and
   rescanning every time the config file changes, until interrupted
*/
func (s *scanSession) watch(cmd *cobra.Command) error {
	if viper.ConfigFileUsed() == "" {
		return utils.NewError(utils.ConfigError, "--watch needs a config file (leakhound.yaml or --config)", nil)
	}
	s.logger.Info("Watching %s for pattern changes (Ctrl+C to stop)", viper.ConfigFileUsed())

	var mu sync.Mutex
	config.Watch(viper.GetViper(), func(next *config.Configuration) {
		mu.Lock()
		defer mu.Unlock()

		s.registry.ApplyOverrides(mergeOverrides(next.Patterns, s.overrides))
		s.logger.Info("Configuration changed, rescanning with %d pattern overrides", len(next.Patterns))
		if err := s.run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Rescan failed: %v", err)
		}
		if err := s.report(cmd); err != nil {
			s.logger.Error("Failed to write report: %v", err)
		}
	}, func(err error) {
		s.logger.Error("Ignoring invalid configuration change: %v", err)
	})

	<-cmd.Context().Done()
	return nil
}

// splitTargets separates existing local paths from URLs. Directories are
// walked for regular files.
func splitTargets(targets []string, logger *output.Logger) (urls, files []string) {
	seen := make(map[string]struct{})
	add := func(list *[]string, v string) {
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		*list = append(*list, v)
	}

	for _, t := range targets {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if info, err := os.Stat(t); err == nil {
			if !info.IsDir() {
				add(&files, t)
				continue
			}
			filepath.WalkDir(t, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					logger.Warning("Cannot walk %s: %v", path, err)
					return nil
				}
				if d.IsDir() && strings.HasPrefix(d.Name(), ".") && path != t {
					return filepath.SkipDir
				}
				if d.Type().IsRegular() {
					add(&files, path)
				}
				return nil
			})
			continue
		}

		u := utils.SanitizeURL(t)
		if !utils.IsValidURL(u) {
			logger.Warning("Invalid URL: %s", t)
			continue
		}
		add(&urls, u)
	}
	return urls, files
}

// parsePatternFlags reads repeated --pattern key=regex values.
func parsePatternFlags(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		key, pattern, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, utils.NewError(utils.ConfigError, fmt.Sprintf("invalid --pattern %q, want key=regex", v), nil)
		}
		out[key] = pattern
	}
	return out, nil
}

func parseHeaders(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, utils.NewError(utils.ConfigError, fmt.Sprintf("invalid header %q, want 'Name: value'", v), nil)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}

func serveMetrics(addr string, m *metrics.Collector, logger *output.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed: %v", err)
		}
	}()
	logger.Info("Serving metrics on http://%s/metrics", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func init() {
	rootCmd.AddCommand(scanCmd)
	initScanCmd(scanCmd)
}

// initScanCmd declares scan flags and binds them into viper.
func initScanCmd(cmd *cobra.Command) {
	vip := viper.GetViper()

	// --- Input / Output ---
	cmd.Flags().StringP("input", "i", "", "file with URLs or paths to scan, one per line")
	cmd.Flags().StringP("output", "o", "", "output file; format from extension (.json, .csv, .txt)")
	vip.BindPFlag("input_file", cmd.Flags().Lookup("input"))
	vip.BindPFlag("output", cmd.Flags().Lookup("output"))

	// --- Performance ---
	cmd.Flags().IntP("concurrency", "n", 6, "number of concurrent units")
	cmd.Flags().Float64P("rate-limit", "l", networking.DefaultRateLimit, "max requests per second per host")
	vip.BindPFlag("concurrency", cmd.Flags().Lookup("concurrency"))
	vip.BindPFlag("rate_limit", cmd.Flags().Lookup("rate-limit"))

	// --- Networking ---
	cmd.Flags().IntP("timeout", "t", 10, "HTTP request timeout in seconds")
	cmd.Flags().IntP("retries", "r", networking.DefaultMaxRetries, "maximum retries for failed HTTP requests")
	cmd.Flags().StringArrayP("header", "H", nil, "custom header, e.g. 'Cookie: session=...' (repeatable)")
	vip.BindPFlag("timeout", cmd.Flags().Lookup("timeout"))
	vip.BindPFlag("retries", cmd.Flags().Lookup("retries"))

	// --- Crawl ---
	cmd.Flags().IntP("depth", "d", scanner.DefaultMaxDepth, "link hops to follow from each seed URL")
	cmd.Flags().String("scope", string(networking.ScopeSame), "hosts to follow: same, subdomains or all")
	vip.BindPFlag("depth", cmd.Flags().Lookup("depth"))
	vip.BindPFlag("scope", cmd.Flags().Lookup("scope"))

	// --- Extraction ---
	cmd.Flags().Int("max-content", extractor.DefaultMaxContentBytes, "bytes of each unit scanned before truncation")
	cmd.Flags().StringArray("pattern", nil, "override or add a rule, e.g. 'custom_ticket=/TCK-[0-9]+/i' (repeatable)")
	cmd.Flags().StringSlice("include-categories", nil, "only run these categories")
	cmd.Flags().StringSlice("exclude-categories", nil, "skip these categories")
	vip.BindPFlag("max_content", cmd.Flags().Lookup("max-content"))
	vip.BindPFlag("include_categories", cmd.Flags().Lookup("include-categories"))
	vip.BindPFlag("exclude_categories", cmd.Flags().Lookup("exclude-categories"))

	// --- General Behavior ---
	cmd.Flags().Bool("watch", false, "rescan when the config file changes")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar display")
	vip.BindPFlag("watch", cmd.Flags().Lookup("watch"))
	vip.BindPFlag("metrics_addr", cmd.Flags().Lookup("metrics-addr"))
	vip.BindPFlag("no_progress", cmd.Flags().Lookup("no-progress"))
}
