package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ziris-labs/ziris/internal/ui"
)

// cfgFile is the explicit config path from --config.
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ziris",
	Short: "Real-time console for the industrial sensor monitoring API",
	Long: `ziris keeps a live view of the sensor monitoring backend: zone summaries,
recommendations, model metrics and alert notifications, refreshed on a timer
and whenever the backend pushes an alert.

Run 'ziris login' once, then 'ziris dashboard' for the interactive console.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if machineMode || !isTerminal(cmd.OutOrStdout()) {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./.ziris.yaml, then ~/.config/ziris/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&machineMode, "json", false, "print machine-readable JSON")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	if stderrors.Is(err, errChecksFailed) {
		os.Exit(1)
	}

	if machineMode {
		_ = WriteJSONFromError(os.Stdout, err)
	} else {
		printError(os.Stderr, err)
	}
	os.Exit(1)
}

func printError(w io.Writer, err error) {
	msg := err.Error()
	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" {
			msg = fmt.Sprintf("%s %q is not a ziris command\n\n  Run 'ziris --help' to see what is available\n", ui.SymbolFail, name)
		} else {
			msg = fmt.Sprintf("%s %s\n\n  Run 'ziris --help' for usage\n", ui.SymbolFail, msg)
		}
	} else if !strings.HasPrefix(msg, ui.SymbolFail) {
		msg = ui.SymbolFail + " " + msg + "\n"
	}
	fmt.Fprint(w, msg)
}

// isUnknownCommandError reports whether cobra rejected the command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "ziris"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start == -1 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end == -1 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
