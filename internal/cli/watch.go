package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ziris-labs/ziris/internal/dashboard"
	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/relay"
	"github.com/ziris-labs/ziris/internal/ui"
)

var (
	watchOpts  sessionOverrides
	watchRelay bool
	watchCount int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream refreshes and notifications as log lines",
	Long: `Run the synchronization engine without a terminal UI and print one line
per refresh and per notification. With --json every refresh is printed as a
JSON object on its own line.

With --relay every changed view is also published to the Redis and Kafka
sinks configured under relay.

Examples:
  ziris watch
  ziris watch --zone "Zone A" --json
  ziris watch --relay
  ziris watch --count 1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommand(cmd)
	},
}

func init() {
	addSessionFlags(watchCmd, &watchOpts)
	watchCmd.Flags().BoolVar(&watchRelay, "relay", false, "publish views to the configured relay sinks")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "exit after this many refreshes (0 runs until interrupted)")
	rootCmd.AddCommand(watchCmd)
}

func watchCommand(cmd *cobra.Command) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	log := logger.NewEnvLogger("[watch]")

	var rl *relay.Relay
	if watchRelay {
		sinks, err := a.relaySinks(ctx)
		if err != nil {
			return err
		}
		rl = relay.New(log, sinks...)
		defer rl.Close()
	}

	session, err := a.newSession(watchOpts, log)
	if err != nil {
		return err
	}
	defer session.Close()

	views, cancel := session.Subscribe()
	defer cancel()

	if err := session.Start(ctx); err != nil {
		return err
	}

	p := newViewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	refreshes := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-views:
			if !ok {
				return nil
			}
			if rl != nil {
				rl.Forward(ctx, v)
			}
			if p.print(v) {
				refreshes++
				if watchCount > 0 && refreshes >= watchCount {
					return nil
				}
			}
		}
	}
}

// relaySinks connects every sink configured under relay.
func (a *app) relaySinks(ctx context.Context) ([]relay.Sink, error) {
	var sinks []relay.Sink
	rc := a.cfg.Relay
	if rc.RedisAddr != "" {
		r := relay.NewRedis(rc.RedisAddr, rc.RedisKey)
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, err
		}
		sinks = append(sinks, r)
	}
	if len(rc.KafkaBrokers) > 0 {
		sinks = append(sinks, relay.NewKafka(rc.KafkaBrokers, rc.KafkaTopic))
	}
	if len(sinks) == 0 {
		return nil, errors.New(errors.ErrConfig, "No relay sinks configured",
			"Set relay.redis_addr or relay.kafka_brokers in your config")
	}
	return sinks, nil
}

// viewPrinter turns the view stream into log lines, printing each refresh,
// notification and error once.
type viewPrinter struct {
	out, errOut io.Writer
	lastSeq     uint64
	lastErr     string
	seen        map[string]bool // IDs in the last printed view
}

func newViewPrinter(out, errOut io.Writer) *viewPrinter {
	return &viewPrinter{out: out, errOut: errOut, seen: make(map[string]bool)}
}

// print reports whether v carried a new refresh.
func (p *viewPrinter) print(v dashboard.View) bool {
	if v.Error != p.lastErr {
		p.lastErr = v.Error
		if v.Error != "" {
			fmt.Fprintln(p.errOut, ui.ErrorStyle.Render(fmt.Sprintf("%s %s [%s]", ui.SymbolFail, v.Error, v.ErrorCode)))
		}
	}

	// Oldest first so the log reads chronologically.
	current := make(map[string]bool, len(v.Notifications))
	for i := len(v.Notifications) - 1; i >= 0; i-- {
		e := v.Notifications[i]
		current[e.ID] = true
		if p.seen[e.ID] {
			continue
		}
		if !machineMode {
			fmt.Fprintf(p.out, "%s %s %s\n",
				ui.MutedStyle.Render(e.Timestamp.Local().Format("15:04:05")),
				ui.LevelStyle(e.Level).Render(ui.SymbolWarning),
				e.Message)
		}
	}
	p.seen = current

	if v.Seq == 0 || v.Seq == p.lastSeq {
		return false
	}
	p.lastSeq = v.Seq

	if machineMode {
		_, payload, err := relay.NewMessage(v).Encode()
		if err == nil {
			fmt.Fprintln(p.out, string(payload))
		}
		return true
	}

	sensors, anomalies := v.Totals()
	line := fmt.Sprintf("%s refresh #%d  zone %s  rule %s  sensors %d  anomalies %d  push %s",
		v.LastRefresh.Local().Format("15:04:05"), v.Seq, v.Zone, v.Rule, sensors, anomalies, v.Push)
	if n := v.Series.Len(); n > 0 {
		line += fmt.Sprintf("  samples %d", n)
	}
	fmt.Fprintln(p.out, line)
	return true
}
