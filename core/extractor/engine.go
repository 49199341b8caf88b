// Package extractor runs pattern rules over content and turns raw matches
// into categorized, validated, deduplicated findings.
package extractor

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/rafabd1/LeakHound/core/category"
	"github.com/rafabd1/LeakHound/core/patterns"
	"github.com/rafabd1/LeakHound/core/results"
	"github.com/rafabd1/LeakHound/core/validator"
	"github.com/rafabd1/LeakHound/metrics"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxContentBytes = 400 * 1024
	DefaultBudget          = 5 * time.Second
)

// DefaultMirror lists the categories whose findings are also reported in
// sensitiveKeywords.
var DefaultMirror = []category.Category{
	category.Credentials,
	category.JWTs,
	category.BearerTokens,
	category.BasicAuth,
	category.AuthHeaders,
	category.WechatAppIDs,
	category.AWSKeys,
	category.GoogleAPIKeys,
	category.GithubTokens,
	category.GitlabTokens,
	category.WebhookURLs,
	category.IDCards,
}

var errBudget = errors.New("extraction budget exhausted")

// RuleSource supplies the active rules and their compiled forms.
type RuleSource interface {
	Rules() []patterns.Rule
	Compile(rule patterns.Rule) (*regexp2.Regexp, error)
}

type Options struct {
	MaxContentBytes int
	Budget          time.Duration
	// MaxMatchesPerRule caps the distinct values one rule adds per
	// extraction. Zero means MaxContentBytes, which truncation reaches first.
	MaxMatchesPerRule int
	Mirror            []category.Category
}

func (o Options) withDefaults() Options {
	if o.MaxContentBytes <= 0 {
		o.MaxContentBytes = DefaultMaxContentBytes
	}
	if o.Budget <= 0 {
		o.Budget = DefaultBudget
	}
	if o.MaxMatchesPerRule <= 0 {
		o.MaxMatchesPerRule = o.MaxContentBytes
	}
	if o.Mirror == nil {
		o.Mirror = DefaultMirror
	}
	return o
}

type Engine struct {
	rules      RuleSource
	opts       Options
	validators map[string]validator.Validator
	logger     zerolog.Logger
	metrics    *metrics.Collector
	now        func() time.Time
}

type Option func(*Engine)

func WithOptions(opts Options) Option {
	return func(e *Engine) { e.opts = opts.withDefaults() }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger.With().Str("component", "extractor").Logger() }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithValidator installs or replaces the validator for a category key.
// A nil validator removes validation for that key.
func WithValidator(key string, v validator.Validator) Option {
	return func(e *Engine) {
		if v == nil {
			delete(e.validators, key)
			return
		}
		e.validators[key] = v
	}
}

// DefaultValidators maps categories to their false-positive filters.
func DefaultValidators() map[string]validator.Validator {
	keys := validator.Func(validator.KeyFormat)
	return map[string]validator.Validator{
		category.Domains.Key():       validator.Func(validator.Domain),
		category.Emails.Key():        validator.Func(validator.Email),
		category.PhoneNumbers.Key():  validator.Func(validator.Phone),
		category.IDCards.Key():       validator.Func(validator.IDCard),
		category.IPAddresses.Key():   validator.Func(validator.IPAddress),
		category.AWSKeys.Key():       keys,
		category.GoogleAPIKeys.Key(): keys,
		category.GithubTokens.Key():  keys,
		category.GitlabTokens.Key():  keys,
		category.WechatAppIDs.Key():  keys,
	}
}

// NewEngine builds an engine over the given rule source.
func NewEngine(rules RuleSource, opts ...Option) *Engine {
	e := &Engine{
		rules:      rules,
		opts:       Options{}.withDefaults(),
		validators: DefaultValidators(),
		logger:     zerolog.New(io.Discard),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs every enabled rule over content and returns the findings.
// It never fails: faulty rules contribute nothing and are logged.
func (e *Engine) Extract(content, sourceURL string) *results.Results {
	start := e.now()
	deadline := start.Add(e.opts.Budget)
	log := e.logger.With().Str("source", sourceURL).Logger()
	defer func() { e.metrics.ObserveExtraction(e.now().Sub(start)) }()

	content, cut := truncate(content, e.opts.MaxContentBytes)
	if cut {
		e.metrics.Truncated()
		log.Debug().Int("limit", e.opts.MaxContentBytes).Msg("content truncated")
	}

	b := results.NewBuilder()
	if content == "" {
		return b.Results()
	}

	for _, rule := range ordered(e.rules.Rules()) {
		if !rule.Enabled {
			continue
		}
		if e.now().After(deadline) {
			e.metrics.BudgetExceeded()
			log.Warn().Dur("budget", e.opts.Budget).Str("next", rule.Category).
				Msg("extraction budget exhausted, skipping remaining rules")
			break
		}

		values, err := e.runRule(rule, content, deadline)
		e.metrics.RuleRun(rule.Category)
		if err != nil {
			e.metrics.RuleFault(rule.Category)
			log.Warn().Err(err).Str("category", rule.Category).Msg("rule failed, category left empty for this pass")
			continue
		}
		e.accept(b, rule, values)
	}

	e.mirror(b)
	return b.Results()
}

// ordered moves the composite sensitiveKeywords rule behind every other rule.
func ordered(rules []patterns.Rule) []patterns.Rule {
	out := make([]patterns.Rule, 0, len(rules))
	var composite []patterns.Rule
	for _, r := range rules {
		if r.Category == category.SensitiveKeywords.Key() {
			composite = append(composite, r)
			continue
		}
		out = append(out, r)
	}
	return append(out, composite...)
}

func (e *Engine) runRule(rule patterns.Rule, content string, deadline time.Time) (values []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			values, err = nil, fmt.Errorf("panic in rule %s: %v", rule.Category, r)
		}
	}()

	re, err := e.rules.Compile(rule)
	if err != nil {
		return nil, err
	}

	m, err := re.FindStringMatch(content)
	for m != nil {
		values = append(values, firstGroup(m))
		if e.now().After(deadline) {
			return nil, errBudget
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return nil, err
	}
	return values, nil
}

// firstGroup prefers the first non-empty capture group over the whole match.
func firstGroup(m *regexp2.Match) string {
	groups := m.Groups()
	for i := 1; i < len(groups); i++ {
		if s := groups[i].String(); s != "" {
			return s
		}
	}
	return m.String()
}

func (e *Engine) accept(b *results.Builder, rule patterns.Rule, values []string) {
	c, builtin := rule.Builtin()
	added := 0

	for _, raw := range values {
		if added >= e.opts.MaxMatchesPerRule {
			e.logger.Debug().Str("category", rule.Category).Int("cap", added).Msg("match cap reached")
			return
		}

		value := strings.TrimSpace(raw)
		key := rule.Category
		if builtin {
			target, cleaned, keep := clean(c, value)
			if !keep {
				e.metrics.Match(rule.Category, "rejected")
				continue
			}
			key, value = target.Key(), cleaned
		}

		n := len([]rune(value))
		if n == 0 || n < rule.MinLength || (rule.MaxLength > 0 && n > rule.MaxLength) {
			e.metrics.Match(rule.Category, "rejected")
			continue
		}

		if v := e.validators[key]; v != nil {
			res := v.Validate(value)
			if !res.Valid {
				e.metrics.Match(rule.Category, "rejected")
				continue
			}
			if res.Normalized != "" {
				value = res.Normalized
			}
		}

		if b.Add(key, value) {
			added++
			e.metrics.Match(rule.Category, "accepted")
		} else {
			e.metrics.Match(rule.Category, "duplicate")
		}
	}
}

// mirror copies member findings into sensitiveKeywords so the at-a-glance
// bucket stays consistent with the per-category view.
func (e *Engine) mirror(b *results.Builder) {
	snapshot := b.Results()
	for _, c := range e.opts.Mirror {
		if c == category.SensitiveKeywords {
			continue
		}
		for _, v := range snapshot.Get(c) {
			b.AddCategory(category.SensitiveKeywords, v)
		}
	}
}
