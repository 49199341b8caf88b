package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rafabd1/LeakHound/config"
	"github.com/rafabd1/LeakHound/core/patterns"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	envFile   string
	appConfig = config.Defaults()
	diagOut   io.Writer = os.Stderr
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "leakhound",
	Short: "LeakHound - find leaked endpoints, keys and personal data in web content",
	Long: `LeakHound crawls web pages and scripts, or scans local files, and extracts
API endpoints, credentials, cloud keys, tokens, personal data and other
sensitive strings using a configurable set of JavaScript-compatible regex rules.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnv(envFile); err != nil {
			return err
		}
		cfg, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		appConfig = cfg
		return nil
	},
}

// Execute runs the root command until ctx is canceled.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	vip := viper.GetViper()

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./leakhound.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with LEAKHOUND_* variables")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolP("silent", "s", false, "only print findings and errors")
	vip.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	vip.BindPFlag("silent", rootCmd.PersistentFlags().Lookup("silent"))
}

// diagnostics is the structured logger handed to library packages.
func diagnostics(cfg *config.Configuration) zerolog.Logger {
	level := zerolog.WarnLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	if cfg.Silent {
		level = zerolog.ErrorLevel
	}
	w := zerolog.ConsoleWriter{Out: diagOut, TimeFormat: time.TimeOnly}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// newRegistry builds the rule registry with configured and command-line
// overrides applied. Flag overrides win over the config file.
func newRegistry(cfg *config.Configuration, diag zerolog.Logger, extra map[string]string) *patterns.Registry {
	reg := patterns.NewRegistry(
		patterns.WithLogger(diag),
		patterns.WithMatchTimeout(cfg.MatchTimeout),
	)
	reg.ApplyOverrides(mergeOverrides(cfg.Patterns, extra))
	return reg
}

func mergeOverrides(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
