package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ziris-labs/ziris/internal/config"
	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/ui"
)

var (
	configInitForce  bool
	configInitGlobal bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create and edit the ziris config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .ziris.yaml",
	Long: `Write a config file with default values.

By default the file goes in the current directory; --global writes
~/.config/ziris/config.yaml instead.

Examples:
  ziris config init
  ziris config init --global --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigFileName
		if configInitGlobal {
			path = config.GlobalPath()
		}
		if cfgFile != "" {
			path = config.ExpandTilde(cfgFile)
		}
		if path == "" {
			return errors.New(errors.ErrConfig, "Cannot determine home directory", "Pass --config with an explicit path")
		}
		if err := config.WriteDefault(path, configInitForce); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Use --force to overwrite")
		}
		abs, _ := filepath.Abs(path)
		return output(cmd.OutOrStdout(), map[string]string{"path": abs}, func(w io.Writer) {
			ui.PrintSuccess(w, "Wrote %s", abs)
		})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a dotted key such as api.url",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Find(cfgFile)
		if err != nil {
			return err
		}
		if path == "" {
			path = config.ConfigFileName
		}
		if err := config.SetValue(path, args[0], args[1]); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, fmt.Sprintf("Failed to set %s", args[0]), "")
		}
		// Reject values that would leave the file unloadable.
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), map[string]string{"path": path, "key": args[0], "value": args[1]}, func(w io.Writer) {
			ui.PrintSuccess(w, "Set %s in %s", args[0], path)
		})
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Find(cfgFile)
		if err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), map[string]string{"path": path}, func(w io.Writer) {
			if path == "" {
				fmt.Fprintln(w, ui.MutedStyle.Render("No config file; using defaults and ZIRIS_* variables"))
				return
			}
			fmt.Fprintln(w, path)
		})
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			return err
		}
		shown := *cfg
		if shown.API.Token != "" {
			shown.API.Token = "********"
		}
		if machineMode {
			return WriteJSONSuccess(cmd.OutOrStdout(), shown)
		}
		data, err := yaml.Marshal(&shown)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configInitCmd.Flags().BoolVar(&configInitGlobal, "global", false, "write the global config instead")
	configCmd.AddCommand(configInitCmd, configSetCmd, configPathCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
