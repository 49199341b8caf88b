package cmd

import (
	"fmt"
	"os"

	"github.com/rafabd1/LeakHound/config"
	"github.com/rafabd1/LeakHound/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create LeakHound configuration files",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(appConfig)
		if err != nil {
			return utils.NewError(utils.ConfigError, "failed to encode config", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigName + ".yaml"
		if len(args) == 1 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return utils.NewError(utils.ConfigError, fmt.Sprintf("%s already exists, use --force to overwrite", path), nil)
		}

		cfg := config.Defaults()
		cfg.Patterns = map[string]string{"custom_example": `/EXAMPLE-[0-9]{4,}/i`}
		if err := config.Save(cfg, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
}
