package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rafabd1/LeakHound/core/assembler"
	"github.com/rafabd1/LeakHound/core/category"
	"github.com/rafabd1/LeakHound/core/extractor"
	"github.com/rafabd1/LeakHound/core/patterns"
	"github.com/rafabd1/LeakHound/core/scanner"
	"github.com/rafabd1/LeakHound/networking"
	"github.com/rafabd1/LeakHound/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	ConfigName = "leakhound"
	EnvPrefix  = "LEAKHOUND"
)

// Configuration holds all configuration parameters for the application
type Configuration struct {
	// HTTP client configuration
	Timeout     int               `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries  int               `yaml:"retries" mapstructure:"retries"`
	RateLimit   float64           `yaml:"rate_limit" mapstructure:"rate_limit"`
	Headers     map[string]string `yaml:"headers,omitempty" mapstructure:"headers"`
	UserAgent   string            `yaml:"user_agent,omitempty" mapstructure:"user_agent"`
	Concurrency int               `yaml:"concurrency" mapstructure:"concurrency"`

	// Crawl
	Depth    int    `yaml:"depth" mapstructure:"depth"`
	MaxUnits int    `yaml:"max_units" mapstructure:"max_units"`
	Scope    string `yaml:"scope" mapstructure:"scope"`

	// Extraction
	MaxContent        int           `yaml:"max_content" mapstructure:"max_content"`
	Budget            time.Duration `yaml:"budget" mapstructure:"budget"`
	MatchTimeout      time.Duration `yaml:"match_timeout" mapstructure:"match_timeout"`
	MaxMatchesPerRule int           `yaml:"max_matches_per_rule" mapstructure:"max_matches_per_rule"` // 0 derives it from max_content
	SensitiveKeywords []string      `yaml:"sensitive_keywords,omitempty" mapstructure:"sensitive_keywords"`

	// Input/Output configuration
	InputFile   string `yaml:"input_file,omitempty" mapstructure:"input_file"`
	OutputFile  string `yaml:"output,omitempty" mapstructure:"output"`
	MetricsAddr string `yaml:"metrics_addr,omitempty" mapstructure:"metrics_addr"`

	// Application behavior
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	Silent  bool `yaml:"silent" mapstructure:"silent"`

	// Patterns maps category keys and custom_* names to regex overrides.
	// It is read straight from YAML because viper folds map keys to lower case.
	Patterns map[string]string `yaml:"patterns,omitempty" mapstructure:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() *Configuration {
	return &Configuration{
		Timeout:           int(networking.DefaultTimeout / time.Second),
		MaxRetries:        networking.DefaultMaxRetries,
		RateLimit:         networking.DefaultRateLimit,
		Concurrency:       scanner.DefaultConcurrency,
		Depth:             scanner.DefaultMaxDepth,
		MaxUnits:          scanner.DefaultMaxUnits,
		Scope:             string(networking.ScopeSame),
		MaxContent:        extractor.DefaultMaxContentBytes,
		Budget:            extractor.DefaultBudget,
		MatchTimeout:      patterns.DefaultMatchTimeout,
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("retries", d.MaxRetries)
	v.SetDefault("rate_limit", d.RateLimit)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("depth", d.Depth)
	v.SetDefault("max_units", d.MaxUnits)
	v.SetDefault("scope", d.Scope)
	v.SetDefault("max_content", d.MaxContent)
	v.SetDefault("budget", d.Budget)
	v.SetDefault("match_timeout", d.MatchTimeout)
	v.SetDefault("max_matches_per_rule", d.MaxMatchesPerRule)
	v.SetDefault("verbose", false)
	v.SetDefault("silent", false)
}

// LoadEnv loads .env files into the process environment. Missing files are
// not an error.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return utils.NewError(utils.ConfigError, "failed to load "+p, err)
		}
	}
	return nil
}

/*
   Loads configuration into v from an explicit file, or from leakhound.yaml
   in the working directory or ~/.leakhound, then LEAKHOUND_* environment
   variables and any flags already bound to v.
*/
func Load(v *viper.Viper, configFile string) (*Configuration, error) {
	setDefaults(v)

	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.leakhound")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, utils.NewError(utils.ConfigError, "failed to read config file", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, utils.NewError(utils.ConfigError, "failed to unmarshal config", err)
	}

	if file := v.ConfigFileUsed(); file != "" {
		patterns, err := readPatterns(file)
		if err != nil {
			return nil, err
		}
		cfg.Patterns = patterns
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readPatterns(file string) (map[string]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, utils.NewError(utils.ConfigError, "failed to read config file", err)
	}
	var doc struct {
		Patterns map[string]string `yaml:"patterns"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, utils.NewError(utils.ConfigError, "failed to parse patterns", err)
	}
	return doc.Patterns, nil
}

// Validate reports the first invalid setting. Pattern overrides are not
// checked here: invalid regexes fall back to the builtin rule.
func (c *Configuration) Validate() error {
	var problems []string
	if c.Timeout <= 0 {
		problems = append(problems, fmt.Sprintf("timeout must be positive, got %d", c.Timeout))
	}
	if c.MaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("retries cannot be negative, got %d", c.MaxRetries))
	}
	if c.RateLimit < 0 {
		problems = append(problems, fmt.Sprintf("rate_limit cannot be negative, got %g", c.RateLimit))
	}
	if c.Concurrency <= 0 {
		problems = append(problems, fmt.Sprintf("concurrency must be positive, got %d", c.Concurrency))
	}
	if c.Depth < 0 {
		problems = append(problems, fmt.Sprintf("depth cannot be negative, got %d", c.Depth))
	}
	if c.MaxContent <= 0 {
		problems = append(problems, fmt.Sprintf("max_content must be positive, got %d", c.MaxContent))
	}
	if c.MaxMatchesPerRule < 0 {
		problems = append(problems, fmt.Sprintf("max_matches_per_rule cannot be negative, got %d", c.MaxMatchesPerRule))
	}
	if c.Budget <= 0 {
		problems = append(problems, "budget must be positive")
	}
	if _, err := networking.ParseScope(c.Scope); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := c.mirror(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Verbose && c.Silent {
		problems = append(problems, "verbose and silent are mutually exclusive")
	}

	if len(problems) > 0 {
		return utils.NewError(utils.ConfigError, "invalid configuration: "+strings.Join(problems, "; "), nil)
	}
	return nil
}

func (c *Configuration) mirror() ([]category.Category, error) {
	if len(c.SensitiveKeywords) == 0 {
		return nil, nil
	}
	out := make([]category.Category, 0, len(c.SensitiveKeywords))
	for _, key := range c.SensitiveKeywords {
		cat, ok := category.Parse(key)
		if !ok || cat == category.SensitiveKeywords || cat.IsResource() {
			return nil, fmt.Errorf("sensitive_keywords: %q is not a finding category", key)
		}
		out = append(out, cat)
	}
	return out, nil
}

func (c *Configuration) ClientConfig() networking.ClientConfig {
	return networking.ClientConfig{
		Timeout:    time.Duration(c.Timeout) * time.Second,
		MaxRetries: c.MaxRetries,
		RateLimit:  c.RateLimit,
		UserAgent:  c.UserAgent,
		Headers:    c.Headers,
	}
}

func (c *Configuration) ScannerConfig() scanner.Config {
	scope, _ := networking.ParseScope(c.Scope)
	return scanner.Config{
		Concurrency: c.Concurrency,
		MaxDepth:    c.Depth,
		MaxUnits:    c.MaxUnits,
		Scope:       scope,
		Limits:      assembler.Limits{TotalBytes: c.MaxContent},
	}
}

func (c *Configuration) ExtractorOptions() extractor.Options {
	mirror, _ := c.mirror()
	return extractor.Options{
		MaxContentBytes:   c.MaxContent,
		Budget:            c.Budget,
		MaxMatchesPerRule: c.MaxMatchesPerRule,
		Mirror:            mirror,
	}
}

// PatternKeys lists configured override keys in stable order.
func (c *Configuration) PatternKeys() []string {
	keys := make([]string, 0, len(c.Patterns))
	for k := range c.Patterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

/*
   Re-reads the configuration whenever the watched file changes. Invalid
   states are reported through onError and the previous configuration stays
   in effect.
*/
func Watch(v *viper.Viper, onChange func(*Configuration), onError func(error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// Save writes the configuration as YAML.
func Save(c *Configuration, configFile string) error {
	dir := filepath.Dir(configFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return utils.NewError(utils.ConfigError, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return utils.NewError(utils.ConfigError, "failed to encode config", err)
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return utils.NewError(utils.ConfigError, "failed to write config file", err)
	}
	return nil
}
