package cli

import (
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ziris-labs/ziris/internal/dashboard"
	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/monitor"
)

var (
	dashboardOpts     sessionOverrides
	dashboardLogFile  string
	dashboardSeedRows int
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "ui"},
	Short:   "Interactive real-time dashboard",
	Long: `Start the interactive dashboard: zone overview, per-zone cards, a live
chart of the selected zone, model metrics, thresholds and notifications.

The view refreshes every refresh.interval and immediately when the backend
pushes an alert. Press ? inside the dashboard for key bindings.

Examples:
  ziris dashboard
  ziris dashboard --zone "Zone A" --rule k3
  ziris dashboard --log-file /tmp/ziris.log`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(cmd)
	},
}

func init() {
	addSessionFlags(dashboardCmd, &dashboardOpts)
	dashboardCmd.Flags().StringVar(&dashboardLogFile, "log-file", "", "write logs to this file (logs are discarded otherwise)")
	dashboardCmd.Flags().IntVar(&dashboardSeedRows, "seed-rows", dashboard.DefaultSeedRows, "rows inserted by the seed key")
	rootCmd.AddCommand(dashboardCmd)
}

func dashboardCommand(cmd *cobra.Command) error {
	if err := parseRows(dashboardSeedRows); err != nil {
		return err
	}
	a, err := loadApp()
	if err != nil {
		return err
	}

	session, err := a.newSession(dashboardOpts, logger.NewEnvLogger("[session]"))
	if err != nil {
		return err
	}
	defer session.Close()

	// Anything logged to the terminal would tear the alt screen.
	if dashboardLogFile != "" {
		f, err := tea.LogToFile(dashboardLogFile, "ziris")
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot open log file "+dashboardLogFile, "Check the directory exists and is writable")
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	ctx := cmd.Context()
	if err := session.Start(ctx); err != nil {
		return err
	}

	p := tea.NewProgram(monitor.NewModel(session, dashboardSeedRows), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if m, ok := final.(monitor.Model); ok {
		m.Close()
	}
	if err != nil && ctx.Err() == nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Dashboard exited unexpectedly", "")
	}
	return nil
}
