package patterns

import (
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/rafabd1/LeakHound/core/category"
	"github.com/rafabd1/LeakHound/utils"
	"github.com/rs/zerolog"
)

const (
	DefaultMatchTimeout = 2 * time.Second
	DefaultCacheSize    = 256
)

// Registry owns the active rule set and its compiled forms. It is safe for
// concurrent use.
type Registry struct {
	mu           sync.RWMutex
	base         []Rule
	rules        []Rule
	cache        *utils.LRUCache
	matchTimeout time.Duration
	logger       zerolog.Logger
	generation   uint64

	include, exclude map[string]bool
}

type Option func(*Registry)

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) { r.logger = logger.With().Str("component", "patterns").Logger() }
}

// WithMatchTimeout bounds every single regex match attempt.
func WithMatchTimeout(d time.Duration) Option {
	return func(r *Registry) { r.matchTimeout = d }
}

// WithBaseRules replaces the builtin defaults, mostly for tests.
func WithBaseRules(rules []Rule) Option {
	return func(r *Registry) { r.base = append([]Rule(nil), rules...) }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		base:         DefaultRules(),
		cache:        utils.NewLRUCache(DefaultCacheSize),
		matchTimeout: DefaultMatchTimeout,
		logger:       zerolog.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.rules = append([]Rule(nil), r.base...)
	return r
}

// Rules returns a copy of the active rules.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Rule(nil), r.rules...)
}

// Generation increases every time the active rule set is rebuilt.
func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// ApplyOverrides rebuilds the active rule set from the base rules and the
// given per-category patterns. A pattern that fails to compile leaves the
// base rule in place and is logged; empty patterns mean no override; keys
// with the custom_ prefix add new rules. It never fails.
func (r *Registry) ApplyOverrides(overrides map[string]string) []Rule {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Clear()
	r.generation++

	rules := append([]Rule(nil), r.base...)
	index := make(map[string]int, len(rules))
	for i, rule := range rules {
		index[rule.Category] = i
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var custom []Rule
	for _, key := range keys {
		value := overrides[key]
		if strings.TrimSpace(value) == "" {
			continue
		}
		source, flags := ParseSource(value)
		candidate := Rule{
			Category: key,
			Source:   source,
			Flags:    NormalizeFlags(flags),
			Enabled:  true,
		}

		switch c, builtin := category.Parse(key); {
		case builtin && !c.Overridable():
			r.logger.Warn().Str("category", key).Msg("category is not overridable, keeping builtin rule")
			continue
		case builtin:
			i, exists := index[key]
			if !exists {
				r.logger.Warn().Str("category", key).Msg("no base rule for category, ignoring override")
				continue
			}
			base := rules[i]
			candidate.Name = base.Name
			candidate.MinLength = base.MinLength
			candidate.MaxLength = base.MaxLength
			candidate.Origin = OriginOverride
			if _, err := r.compileLocked(candidate); err != nil {
				r.logger.Error().Err(err).Str("category", key).Str("pattern", source).
					Msg("invalid override pattern, keeping builtin rule")
				continue
			}
			rules[i] = candidate
		case category.IsCustom(key):
			candidate.Name = strings.TrimPrefix(key, category.CustomPrefix)
			candidate.MinLength = CustomMinLength
			candidate.MaxLength = CustomMaxLength
			candidate.Origin = OriginCustom
			if _, err := r.compileLocked(candidate); err != nil {
				r.logger.Error().Err(err).Str("category", key).Str("pattern", source).
					Msg("invalid custom pattern, rule skipped")
				continue
			}
			custom = append(custom, candidate)
		default:
			r.logger.Warn().Str("category", key).Msg("unknown category in override configuration")
		}
	}

	r.rules = append(rules, custom...)
	r.restrictLocked()
	return append([]Rule(nil), r.rules...)
}

// Restrict enables only the included categories (all when include is
// empty) minus the excluded ones. It persists across ApplyOverrides until
// Reset. Unknown keys are a ConfigError and leave the rules untouched.
func (r *Registry) Restrict(include, exclude []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	known := make(map[string]bool, len(r.rules))
	for _, rule := range r.rules {
		known[rule.Category] = true
	}
	var unknown []string
	toSet := func(keys []string) map[string]bool {
		set := make(map[string]bool, len(keys))
		for _, k := range keys {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			if !known[k] {
				unknown = append(unknown, k)
			}
			set[k] = true
		}
		return set
	}
	inc, exc := toSet(include), toSet(exclude)
	if len(unknown) > 0 {
		return utils.NewError(utils.ConfigError, "unknown categories: "+strings.Join(unknown, ", "), nil)
	}

	r.include, r.exclude = inc, exc
	r.restrictLocked()
	return nil
}

func (r *Registry) restrictLocked() {
	if r.include == nil && r.exclude == nil {
		return
	}
	baseEnabled := make(map[string]bool, len(r.base))
	for _, rule := range r.base {
		baseEnabled[rule.Category] = rule.Enabled
	}
	for i := range r.rules {
		key := r.rules[i].Category
		enabled, builtin := baseEnabled[key]
		if !builtin {
			enabled = true
		}
		if len(r.include) > 0 && !r.include[key] {
			enabled = false
		}
		if r.exclude[key] {
			enabled = false
		}
		r.rules[i].Enabled = enabled
	}
}

// Compile returns the compiled form of rule, memoized by category, source
// and flags until the next ApplyOverrides or Reset.
func (r *Registry) Compile(rule Rule) (*regexp2.Regexp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.compileLocked(rule)
}

func (r *Registry) compileLocked(rule Rule) (*regexp2.Regexp, error) {
	flags := NormalizeFlags(rule.Flags)
	rule.Flags = flags
	v, err := r.cache.GetOrCompute(rule.cacheKey(), func() (interface{}, error) {
		re, err := regexp2.Compile(rule.Source, options(flags))
		if err != nil {
			return nil, utils.NewError(utils.ConfigError, "failed to compile pattern for "+rule.Category, err)
		}
		re.MatchTimeout = r.matchTimeout
		return re, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*regexp2.Regexp), nil
}

// CacheStats reports compiled-pattern cache usage.
func (r *Registry) CacheStats() utils.CacheStats {
	return r.cache.Stats()
}

// ClearCache drops every compiled pattern but keeps the active rules.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Clear()
	r.generation++
}

// Reset restores the base rules and drops every compiled pattern.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Clear()
	r.generation++
	r.include, r.exclude = nil, nil
	r.rules = append([]Rule(nil), r.base...)
}
