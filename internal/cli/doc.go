// Package cli implements the ziris command-line interface.
//
// Commands are Cobra commands registered on rootCmd from each file's init.
// API-backed commands share loadApp, which resolves and validates the
// config and builds the API client.
//
// # Command Structure
//
//	ziris dashboard            - Interactive real-time dashboard
//	ziris watch                - Headless refresh/notification log, optional relay
//	ziris serve                - HTTP view and Prometheus metrics
//	ziris thresholds [get|set|suggest|apply]
//	ziris jobs [list|show|seed|retrain]
//	ziris login | logout | whoami
//	ziris config [init|set|path|show]
//	ziris doctor               - Config, login, API, push and relay checks
//
// # Sessions
//
// dashboard, watch and serve each build one dashboard.Session from the
// config plus the --zone, --rule and --paused flags. The session refuses
// to start without a valid, unexpired token.
//
// # Output
//
// Global flags are --config and --json. With --json every command prints a
// JSONEnvelope (watch prints one JSON object per refresh instead) and
// errors are mapped to stable codes by ErrorToJSON.
package cli
