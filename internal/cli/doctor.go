package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ziris-labs/ziris/internal/doctor"
	"github.com/ziris-labs/ziris/internal/relay"
	"github.com/ziris-labs/ziris/internal/ui"
)

// errChecksFailed makes the process exit non-zero after the report has
// already been printed.
var errChecksFailed = stderrors.New("doctor checks failed")

var doctorParallel bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check config, login, API and push connectivity",
	Long: `Run diagnostics against the effective configuration:

  CONFIG  config file found and valid
  AUTH    access token present and not about to expire
  API     monitoring API reachable with the token
  PUSH    push channel can be opened
  RELAY   configured relay sinks reachable

Exits non-zero when any check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		checks, cleanup := collectChecks()
		defer cleanup()

		var results []doctor.CheckResult
		if doctorParallel {
			results = doctor.RunAllParallel(cmd.Context(), checks)
		} else {
			results = doctor.RunAll(cmd.Context(), checks)
		}

		report := buildDoctorOutput(checks, results)
		if err := output(cmd.OutOrStdout(), report, func(w io.Writer) {
			renderDoctorText(w, checks, results)
		}); err != nil {
			return err
		}

		if doctor.HasFailures(results) {
			return errChecksFailed
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorParallel, "parallel", false, "run checks concurrently")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

// collectChecks always includes the config checks. The remaining checks
// need a usable config, so they are skipped when it does not load.
// cleanup releases connections held by the checks.
func collectChecks() (checks []doctor.Check, cleanup func()) {
	cleanup = func() {}
	checks = []doctor.Check{
		&doctor.ConfigFileCheck{ConfigPath: cfgFile},
		&doctor.ConfigSchemaCheck{ConfigPath: cfgFile},
	}

	a, err := loadApp()
	if err != nil {
		// Reported by the config checks above.
		return checks, cleanup
	}

	checks = append(checks,
		&doctor.TokenCheck{Token: a.client.Token()},
		&doctor.APICheck{Client: a.client},
		&doctor.PushCheck{Transport: a.transport(), Timeout: a.cfg.API.Timeout},
	)

	rc := a.cfg.Relay
	if rc.RedisAddr != "" {
		r := relay.NewRedis(rc.RedisAddr, rc.RedisKey)
		cleanup = func() { _ = r.Close() }
		checks = append(checks, &doctor.RelayCheck{
			Sink:    r,
			Target:  rc.RedisAddr,
			Timeout: a.cfg.API.Timeout,
		})
	}
	return checks, cleanup
}

var doctorCategoryOrder = []string{"CONFIG", "AUTH", "API", "PUSH", "RELAY"}

// groupResults groups results by category in display order.
func groupResults(checks []doctor.Check, results []doctor.CheckResult) []CategoryOutput {
	grouped := make(map[string][]doctor.CheckResult)
	for i, check := range checks {
		grouped[check.Category()] = append(grouped[check.Category()], results[i])
	}

	var out []CategoryOutput
	for _, cat := range doctorCategoryOrder {
		if len(grouped[cat]) == 0 {
			continue
		}
		out = append(out, CategoryOutput{Name: cat, Results: grouped[cat]})
	}
	return out
}

func buildDoctorOutput(checks []doctor.Check, results []doctor.CheckResult) DoctorOutput {
	counts := doctor.CountByStatus(results)
	return DoctorOutput{
		Categories: groupResults(checks, results),
		Summary: SummaryOutput{
			Pass:     counts[doctor.StatusPass],
			Warn:     counts[doctor.StatusWarn],
			Fail:     counts[doctor.StatusFail],
			AllClear: !doctor.HasIssues(results),
		},
	}
}

func renderDoctorText(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) {
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("ziris Diagnostic Report"))
	fmt.Fprintln(w)

	for _, cat := range groupResults(checks, results) {
		fmt.Fprintln(w, headerStyle.Render(cat.Name))
		for _, r := range cat.Results {
			renderCheckResult(w, r)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintln(w)

	summary := doctor.Summary(results)
	if doctor.HasIssues(results) {
		fmt.Fprintf(w, "%s %s\n", ui.ErrorStyle.Render(ui.SymbolFail), summary)
	} else {
		fmt.Fprintf(w, "%s %s\n", ui.SuccessStyle.Render(ui.SymbolSuccess), summary)
	}
	fmt.Fprintln(w)
}

func renderCheckResult(w io.Writer, r doctor.CheckResult) {
	symbol, style := ui.SymbolComplete, ui.SuccessStyle
	switch r.Status {
	case doctor.StatusWarn:
		symbol, style = ui.SymbolWarning, ui.WarningStyle
	case doctor.StatusFail:
		symbol, style = ui.SymbolFail, ui.ErrorStyle
	}

	fmt.Fprintf(w, "  %s %s\n", style.Render(symbol), r.Message)
	if r.Suggestion != "" && r.Status != doctor.StatusPass {
		for _, line := range strings.Split(r.Suggestion, "\n") {
			fmt.Fprintf(w, "    %s\n", ui.MutedStyle.Render(line))
		}
	}
}
