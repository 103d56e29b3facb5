package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ziris-labs/ziris/internal/sensor"
	"github.com/ziris-labs/ziris/internal/thresholds"
	"github.com/ziris-labs/ziris/internal/ui"
)

var thresholdsCmd = &cobra.Command{
	Use:     "thresholds",
	Aliases: []string{"th"},
	Short:   "Show and edit alert thresholds",
	Long: `Show and edit the per-metric alert thresholds stored on the server.

Examples:
  ziris thresholds get
  ziris thresholds set temp 82.5
  ziris thresholds suggest
  ziris thresholds apply`,
}

var thresholdsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current thresholds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, s *thresholds.Store) (sensor.Thresholds, error) {
			return s.Working(), nil
		})
	},
}

var thresholdsSetCmd = &cobra.Command{
	Use:   "set <metric> <value>",
	Short: "Set one metric's threshold",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := parseMetricArg(args[0])
		if err != nil {
			return err
		}
		v, err := parsePositive(args[1])
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, s *thresholds.Store) (sensor.Thresholds, error) {
			return s.SetOne(ctx, m, v)
		})
	},
}

var thresholdsSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Compare current thresholds with the server's suggestions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		current, err := a.client.Thresholds(ctx)
		if err != nil {
			return err
		}
		sugg, err := a.client.SuggestThresholds(ctx)
		if err != nil {
			return err
		}
		data := map[string]any{"current": current, "suggested": sugg}
		return output(cmd.OutOrStdout(), data, func(w io.Writer) {
			fmt.Fprintln(w, ui.RenderThresholdTable(current, sugg))
		})
	},
}

var thresholdsApplyCmd = &cobra.Command{
	Use:   "apply [metric]",
	Short: "Apply the server's suggestions (all metrics, or just one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			m, err := parseMetricArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, s *thresholds.Store) (sensor.Thresholds, error) {
				return s.SuggestOne(ctx, m)
			})
		}
		return withStore(cmd, func(ctx context.Context, s *thresholds.Store) (sensor.Thresholds, error) {
			return s.ApplyAll(ctx)
		})
	},
}

func init() {
	thresholdsCmd.AddCommand(thresholdsGetCmd, thresholdsSetCmd, thresholdsSuggestCmd, thresholdsApplyCmd)
	rootCmd.AddCommand(thresholdsCmd)
}

// withStore loads the server's thresholds into a store, runs fn and prints
// the resulting values.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, s *thresholds.Store) (sensor.Thresholds, error)) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store := thresholds.New(a.client)
	if _, err := store.Load(ctx); err != nil {
		return err
	}
	th, err := fn(ctx, store)
	if err != nil {
		return err
	}
	return output(cmd.OutOrStdout(), th, func(w io.Writer) {
		fmt.Fprintln(w, ui.RenderThresholdTable(th, nil))
	})
}
