package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/server"
)

var (
	serveOpts sessionOverrides
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the live view over HTTP with Prometheus metrics",
	Long: `Run the synchronization engine and expose it over HTTP:

  GET  /api/view           full view
  GET  /api/series         live series with alert highlighting
  GET  /api/notifications  notification feed
  GET  /api/thresholds     working thresholds
  POST /api/hover          {"origin": "realtime", "index": 3}
  POST /api/refresh        ?wait=true refreshes synchronously
  GET  /metrics            Prometheus metrics

Examples:
  ziris serve
  ziris serve --addr :9090 --zone "Zone A"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		addr := a.cfg.Serve.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		log := logger.NewEnvLogger("[serve]")
		session, err := a.newSession(serveOpts, log)
		if err != nil {
			return err
		}
		defer session.Close()

		ctx := cmd.Context()
		if err := session.Start(ctx); err != nil {
			return err
		}
		if !machineMode {
			fmt.Fprintf(cmd.ErrOrStderr(), "serving on http://%s\n", addr)
		}
		return server.New(session, server.WithLogger(log)).ListenAndServe(ctx, addr)
	},
}

func init() {
	addSessionFlags(serveCmd, &serveOpts)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from serve.addr)")
	rootCmd.AddCommand(serveCmd)
}
