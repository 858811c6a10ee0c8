package cli

import (
	"cronsync/internal/agent"
	"cronsync/internal/config"
	"cronsync/internal/history"
	"cronsync/internal/tabstore"
	"cronsync/pkg/logx"
)

// app holds everything a command needs after bootstrap.
type app struct {
	cfg  *config.Config
	mgr  *config.Manager
	logs *logx.Service
	log  logx.Logger
	ag   *agent.Agent
	hist history.Store
}

// bootstrap loads the config file and builds the logging service, table
// store, history store and agent from it.
func bootstrap(path string) (*app, error) {
	mgr := config.NewManager(path)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(cfg.LogxConfig())
	log = log.With(logx.String("comp", "cli"))
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	store, err := tabstore.Open(tabstore.Config{
		Driver: cfg.TabStore.Driver,
		Dir:    cfg.TabStore.Dir,
	}, log.With(logx.String("comp", "tabstore")))
	if err != nil {
		logs.Close()
		return nil, err
	}

	var hist history.Store
	if h := cfg.History; h != nil {
		busy, err := config.ParseDurationField("history.busy_timeout", h.BusyTimeout)
		if err != nil {
			logs.Close()
			return nil, err
		}
		hist, err = history.Open(history.Config{
			Driver:      h.Driver,
			Path:        h.Path,
			BusyTimeout: busy,
		}, log.With(logx.String("comp", "history")))
		if err != nil {
			logs.Close()
			return nil, err
		}
		if hist != nil {
			log.Debug("history enabled", logx.String("driver", h.Driver))
		}
	}

	ag := agent.New(agent.Options{
		Logger: log.With(logx.String("comp", "agent")),
		Store:  store,
		Hist:   hist,
		Name:   "cronsync",
	})

	return &app{cfg: cfg, mgr: mgr, logs: logs, log: log, ag: ag, hist: hist}, nil
}

func (a *app) Close() {
	if a.hist != nil {
		_ = a.hist.Close()
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
}
