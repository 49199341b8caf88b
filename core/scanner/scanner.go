// Package scanner drives a scan session: a breadth-first crawl that
// fetches each unit, assembles its content, extracts findings and merges
// them into the session accumulator.
package scanner

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rafabd1/LeakHound/core/assembler"
	"github.com/rafabd1/LeakHound/core/category"
	"github.com/rafabd1/LeakHound/core/extractor"
	"github.com/rafabd1/LeakHound/core/results"
	"github.com/rafabd1/LeakHound/core/validator"
	"github.com/rafabd1/LeakHound/metrics"
	"github.com/rafabd1/LeakHound/networking"
	"github.com/rafabd1/LeakHound/output"
	"github.com/rafabd1/LeakHound/utils"
	"github.com/rs/zerolog"
)

const (
	DefaultConcurrency = 6
	DefaultMaxDepth    = 1
	DefaultMaxUnits    = 500
)

// Config holds the configuration for a scan session
type Config struct {
	Concurrency int
	// MaxDepth is how many hops from a seed are followed; 0 scans seeds only.
	MaxDepth int
	MaxUnits int
	Scope    networking.Scope
	Limits   assembler.Limits
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.MaxDepth < 0 {
		c.MaxDepth = 0
	}
	if c.MaxUnits <= 0 {
		c.MaxUnits = DefaultMaxUnits
	}
	if c.Scope == "" {
		c.Scope = networking.ScopeSame
	}
	return c
}

// Stats holds statistics for one session
type Stats struct {
	SessionID string
	Queued    int
	Processed int
	Failed    int
	Skipped   int
	Findings  int
	Bytes     int64
	StartTime time.Time
	EndTime   time.Time
}

func (s Stats) Duration() time.Duration {
	end := s.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.StartTime)
}

// CacheResetter is implemented by rule sources holding compiled patterns.
type CacheResetter interface {
	ClearCache()
}

type unit struct {
	url   string
	depth int
}

// Scanner runs scan sessions. One Scanner runs one session at a time.
type Scanner struct {
	fetcher networking.Fetcher
	engine  *extractor.Engine
	acc     *results.Accumulator
	domains *networking.DomainManager
	cache   CacheResetter
	logger  *output.Logger
	diag    zerolog.Logger
	metrics *metrics.Collector
	config  Config

	onChange   func(*results.Results)
	onProgress func(Stats)

	runMu sync.Mutex
	mu    sync.Mutex
	stats Stats
}

type Option func(*Scanner)

func WithDomainManager(dm *networking.DomainManager) Option {
	return func(s *Scanner) { s.domains = dm }
}

// WithCacheResetter clears compiled patterns whenever a new session starts.
func WithCacheResetter(c CacheResetter) Option {
	return func(s *Scanner) { s.cache = c }
}

func WithDiagnostics(l zerolog.Logger) Option {
	return func(s *Scanner) { s.diag = l.With().Str("component", "scanner").Logger() }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *Scanner) { s.metrics = m }
}

// OnChange is called with a snapshot after every merge that added findings.
func OnChange(fn func(*results.Results)) Option {
	return func(s *Scanner) { s.onChange = fn }
}

func OnProgress(fn func(Stats)) Option {
	return func(s *Scanner) { s.onProgress = fn }
}

func NewScanner(
	fetcher networking.Fetcher,
	engine *extractor.Engine,
	logger *output.Logger,
	config Config,
	opts ...Option,
) *Scanner {
	s := &Scanner{
		fetcher: fetcher,
		engine:  engine,
		acc:     results.NewAccumulator(),
		logger:  logger,
		diag:    zerolog.Nop(),
		config:  config.withDefaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.domains == nil {
		s.domains = networking.NewDomainManager()
	}
	return s
}

func (s *Scanner) Results() *results.Results {
	return s.acc.Snapshot()
}

func (s *Scanner) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// begin resets session state: the accumulator, the compiled pattern cache
// and the statistics all start fresh.
func (s *Scanner) begin() string {
	id := uuid.NewString()
	s.acc.Reset()
	if s.cache != nil {
		s.cache.ClearCache()
	}
	s.logger.ResetState()

	s.mu.Lock()
	s.stats = Stats{SessionID: id, StartTime: time.Now()}
	s.mu.Unlock()
	return id
}

func (s *Scanner) finish() {
	s.mu.Lock()
	s.stats.EndTime = time.Now()
	s.stats.Findings = s.acc.Count()
	stats := s.stats
	s.mu.Unlock()

	s.logger.Info("Session %s finished in %.2fs: %d processed, %d failed, %d skipped, %d findings",
		stats.SessionID, stats.Duration().Seconds(), stats.Processed, stats.Failed, stats.Skipped, stats.Findings)
}

// Run crawls seeds in a fresh session and ends it.
func (s *Scanner) Run(ctx context.Context, seeds []string) (*results.Results, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	id := s.begin()
	defer s.finish()
	return s.crawl(ctx, id, seeds)
}

// Crawl is Run inside the current session, for callers that mix crawling
// with ScanContent between Begin and End.
func (s *Scanner) Crawl(ctx context.Context, seeds []string) (*results.Results, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.crawl(ctx, s.GetStats().SessionID, seeds)
}

/*
   Crawls breadth-first from seeds. Units of one depth run concurrently up
   to Config.Concurrency. Cancellation is checked before each unit starts;
   a unit already running completes and its findings are kept.
*/
func (s *Scanner) crawl(ctx context.Context, id string, seeds []string) (*results.Results, error) {
	seeds = uniqueSeeds(seeds)
	s.domains.SetScope(s.config.Scope, seeds)
	s.logger.Info("Session %s: scanning %d targets (depth %d, scope %s)", id, len(seeds), s.config.MaxDepth, s.config.Scope)

	visited := make(map[string]struct{})
	scheduled := len(seeds)
	level := make([]unit, 0, len(seeds))
	for _, u := range seeds {
		visited[u] = struct{}{}
		level = append(level, unit{url: u})
	}
	s.addQueued(len(level))

	var firstErr error
	var errMu sync.Mutex

	for len(level) > 0 {
		var (
			wg     sync.WaitGroup
			nextMu sync.Mutex
			next   []unit
		)
		sem := make(chan struct{}, s.config.Concurrency)

	dispatch:
		for _, u := range level {
			select {
			case <-ctx.Done():
				break dispatch
			case sem <- struct{}{}:
			}
			if ctx.Err() != nil {
				<-sem
				break
			}

			wg.Add(1)
			go func(u unit) {
				defer wg.Done()
				defer func() { <-sem }()

				found, err := s.processUnit(context.WithoutCancel(ctx), u)
				if err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
					return
				}
				if u.depth >= s.config.MaxDepth {
					return
				}

				nextMu.Lock()
				defer nextMu.Unlock()
				for _, link := range found {
					if _, seen := visited[link]; seen {
						continue
					}
					visited[link] = struct{}{}
					if !s.domains.InScope(link) {
						s.addSkipped()
						continue
					}
					if scheduled >= s.config.MaxUnits {
						s.addSkipped()
						continue
					}
					scheduled++
					next = append(next, unit{url: link, depth: u.depth + 1})
				}
			}(u)
		}
		wg.Wait()

		if ctx.Err() != nil {
			s.logger.Warning("Scan interrupted, keeping %d findings", s.acc.Count())
			return s.acc.Snapshot(), ctx.Err()
		}
		s.addQueued(len(next))
		level = next
	}

	stats := s.GetStats()
	if stats.Processed == 0 && stats.Failed > 0 {
		return s.acc.Snapshot(), utils.NewError(utils.NetworkError,
			fmt.Sprintf("all %d targets failed", stats.Failed), firstErr)
	}
	return s.acc.Snapshot(), nil
}

// processUnit fetches, assembles, extracts and merges one URL and returns
// the absolute links worth following.
func (s *Scanner) processUnit(ctx context.Context, u unit) ([]string, error) {
	s.metrics.UnitStarted()
	defer s.metrics.UnitDone()

	resp, err := s.fetcher.Fetch(ctx, u.url)
	if err != nil {
		s.metrics.Fetch("error")
		s.addFailed()
		s.logger.Warning("Failed to fetch %s: %v", u.url, err)
		return nil, err
	}
	s.metrics.Fetch("ok")

	doc := assembler.Document{URL: resp.URL, ContentType: resp.ContentType, Body: resp.Body}
	if doc.URL == "" {
		doc.URL = u.url
	}
	bundle := assembler.ForContentType(resp.ContentType, s.config.Limits).Assemble(doc)
	found := s.scanBundle(bundle, int64(len(resp.Body)))

	return followable(bundle, found), nil
}

/*
   Scans content that was obtained without fetching, such as a local file
   or stdin. It belongs to the current session and does not reset it.
*/
func (s *Scanner) ScanContent(source, contentType, content string) *results.Results {
	if contentType == "" {
		contentType = contentTypeFor(source)
	}
	doc := assembler.Document{URL: source, ContentType: contentType, Body: content}
	bundle := assembler.ForContentType(contentType, s.config.Limits).Assemble(doc)
	return s.scanBundle(bundle, int64(len(content)))
}

// Begin starts a fresh session for callers that only use ScanContent.
func (s *Scanner) Begin() string {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.begin()
}

func (s *Scanner) End() Stats {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.finish()
	return s.GetStats()
}

func (s *Scanner) scanBundle(bundle assembler.Bundle, size int64) *results.Results {
	found := s.engine.Extract(bundle.Text(), bundle.URL)

	changed := s.acc.Merge(found)
	total := s.acc.Count()
	s.metrics.Merge(changed, total)

	s.mu.Lock()
	s.stats.Processed++
	s.stats.Bytes += size
	s.stats.Findings = total
	stats := s.stats
	s.mu.Unlock()

	if changed {
		found.Each(func(key string, values []string) {
			if c, ok := category.Parse(key); ok && (c.IsResource() || c == category.SensitiveKeywords) {
				return
			}
			for _, v := range values {
				if key == category.IDCards.Key() {
					v = validator.MaskIDCard(v)
				}
				s.logger.FindingFound(key, v, bundle.URL)
			}
		})
		if s.onChange != nil {
			s.onChange(s.acc.Snapshot())
		}
	}
	s.diag.Debug().Str("url", bundle.URL).Int("sources", len(bundle.Sources)).
		Int("findings", found.Total()).Bool("changed", changed).Msg("unit scanned")

	if s.onProgress != nil {
		s.onProgress(stats)
	}
	return found
}

var skipExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".ico": true, ".webp": true, ".bmp": true, ".css": true, ".woff": true,
	".woff2": true, ".ttf": true, ".eot": true, ".otf": true, ".mp4": true,
	".mp3": true, ".pdf": true, ".zip": true,
}

// followable collects script and page links from the assembled document
// and the jsFiles and urls findings, resolved against the unit URL.
func followable(bundle assembler.Bundle, found *results.Results) []string {
	var candidates []string
	candidates = append(candidates, bundle.Scripts...)
	candidates = append(candidates, bundle.Links...)
	for _, c := range []category.Category{category.JSFiles, category.URLs} {
		for _, v := range found.Get(c) {
			candidates = append(candidates, assembler.Resolve(bundle.URL, v))
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if skipExtensions[strings.ToLower(path.Ext(stripQuery(c)))] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}

func contentTypeFor(source string) string {
	switch strings.ToLower(path.Ext(stripQuery(source))) {
	case ".html", ".htm", ".xhtml":
		return "text/html"
	case ".js", ".mjs", ".cjs":
		return "application/javascript"
	case ".json":
		return "application/json"
	}
	return "text/plain"
}

func uniqueSeeds(seeds []string) []string {
	seen := make(map[string]struct{}, len(seeds))
	out := make([]string, 0, len(seeds))
	for _, s := range seeds {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (s *Scanner) addQueued(n int) {
	s.mu.Lock()
	s.stats.Queued += n
	s.mu.Unlock()
}

func (s *Scanner) addFailed() {
	s.mu.Lock()
	s.stats.Failed++
	stats := s.stats
	s.mu.Unlock()
	if s.onProgress != nil {
		s.onProgress(stats)
	}
}

func (s *Scanner) addSkipped() {
	s.mu.Lock()
	s.stats.Skipped++
	s.mu.Unlock()
}
