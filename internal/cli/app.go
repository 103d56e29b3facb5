package cli

import (
	"io"

	"github.com/ziris-labs/ziris/internal/api"
	"github.com/ziris-labs/ziris/internal/config"
	"github.com/ziris-labs/ziris/internal/dashboard"
	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/push"
)

// app bundles what every API-backed command needs.
type app struct {
	cfg    *config.Config
	path   string // config file in use, "" when running on defaults
	client *api.Client
}

// loadApp resolves and validates the config and builds an API client.
func loadApp() (*app, error) {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	client := api.New(cfg.API.URL,
		api.WithToken(cfg.API.Token),
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logger.NewEnvLogger("[api]")),
	)
	return &app{cfg: cfg, path: path, client: client}, nil
}

// savePath is where login and logout persist the token.
func (a *app) savePath() string {
	if a.path != "" {
		return a.path
	}
	return config.GlobalPath()
}

// requireToken fails fast when no token is configured.
func (a *app) requireToken() error {
	if a.client.Token() == "" {
		return errors.New(errors.ErrAuth, "Not logged in",
			"Run 'ziris login' or set ZIRIS_API_TOKEN")
	}
	return nil
}

// transport returns the configured push transport, or nil for polling only.
func (a *app) transport() push.Transport {
	switch a.cfg.Push.Transport {
	case config.TransportWebSocket:
		path := a.cfg.Push.Path
		return push.NewWebSocket(func() (string, error) {
			return a.client.PushURL(path)
		})
	case config.TransportNATS:
		return push.NewNATS(a.cfg.Push.NATSURL, a.cfg.Push.Subject)
	default:
		return nil
	}
}

// sessionOverrides are the per-invocation flags shared by session commands.
type sessionOverrides struct {
	zone   string
	rule   string
	paused bool
}

func (a *app) sessionConfig(o sessionOverrides) (dashboard.Config, error) {
	c := a.cfg
	rule := c.Refresh.RuleValue()
	if o.rule != "" {
		r, err := parseRuleFlag(o.rule)
		if err != nil {
			return dashboard.Config{}, err
		}
		rule = r
	}
	zone := c.Dashboard.Zone
	if o.zone != "" {
		zone = o.zone
	}
	return dashboard.Config{
		Token:         a.client.Token(),
		Zone:          zone,
		Paused:        o.paused,
		Rule:          rule,
		Interval:      c.Refresh.Interval,
		Debounce:      c.Refresh.Debounce,
		FetchTimeout:  c.API.Timeout,
		OrderGuard:    c.Refresh.OrderGuard,
		BufferSize:    c.Dashboard.BufferSize,
		Notifications: c.Dashboard.Notifications,
		Thresholds:    c.Thresholds,
	}, nil
}

// newSession builds an unstarted session. Logs go to log.
func (a *app) newSession(o sessionOverrides, log logger.Logger) (*dashboard.Session, error) {
	if err := a.requireToken(); err != nil {
		return nil, err
	}
	sc, err := a.sessionConfig(o)
	if err != nil {
		return nil, err
	}
	return dashboard.New(a.client, a.transport(), sc, dashboard.WithLogger(log)), nil
}

// output prints data as a JSON envelope in machine mode, otherwise calls human.
func output(w io.Writer, data any, human func(w io.Writer)) error {
	if machineMode {
		return WriteJSONSuccess(w, data)
	}
	human(w)
	return nil
}
