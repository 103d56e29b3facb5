package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/sensor"
)

// addSessionFlags registers --zone, --rule and --paused on a session command.
func addSessionFlags(cmd *cobra.Command, o *sessionOverrides) {
	cmd.Flags().StringVar(&o.zone, "zone", "", "zone to stream (default from config, 'all' for every zone)")
	cmd.Flags().StringVar(&o.rule, "rule", "", "model decision rule: any, k2, k3 or k4")
	cmd.Flags().BoolVar(&o.paused, "paused", false, "start with live updates paused")
}

func parseRuleFlag(s string) (sensor.DecisionRule, error) {
	r, err := sensor.ParseRule(s)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' is not a decision rule", s),
			"Use one of: any, k2, k3, k4.")
	}
	return r, nil
}

func parseMetricArg(s string) (sensor.Metric, error) {
	m, err := sensor.ParseMetric(s)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' is not a metric", s),
			"Use one of: temp, pressure, vibration, smoke.")
	}
	return m, nil
}

// parsePositive parses a non-negative number, accepting anything cast can read.
func parsePositive(s string) (float64, error) {
	v, err := cast.ToFloat64E(s)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' is not a valid threshold", s),
			"Thresholds are non-negative numbers, e.g. 82.5")
	}
	return v, nil
}

// parseRows validates a seed row count.
func parseRows(n int) error {
	if n < 1 || n > 10000 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%d is not a valid row count", n),
			"Pick between 1 and 10000 rows.")
	}
	return nil
}
