package agent

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"cronsync/internal/config"
	"cronsync/pkg/logx"
)

// resyncParser accepts the classic five-field form plus descriptors like
// "@hourly" and "@every 10m".
var resyncParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func parseResync(spec string) (cron.Schedule, error) {
	return resyncParser.Parse(spec)
}

// Run is watch mode: apply the current config, then keep reconciling on
// config reloads and on the agent.resync schedule until ctx is canceled.
// logs may be nil when the caller manages logging itself.
func (a *Agent) Run(ctx context.Context, mgr *config.Manager, logs *logx.Service) error {
	cfg := mgr.Get()
	if cfg == nil {
		c, err := mgr.Load()
		if err != nil {
			return err
		}
		cfg = c
	}

	if _, err := a.ApplyOnce(ctx, cfg); err != nil {
		a.log.Warn("initial apply finished with errors", logx.Err(err))
	}

	sub := mgr.Subscribe(8)
	defer mgr.Unsubscribe(sub)

	var (
		sched cron.Schedule
		timer *time.Timer
		fire  <-chan time.Time
	)
	arm := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			fire = nil
		}
		spec := strings.TrimSpace(cfg.Agent.Resync)
		if spec == "" {
			sched = nil
			return
		}
		s, err := parseResync(spec)
		if err != nil {
			// Watch() validated the config, so this only trips on the
			// initial file. Disable resync rather than aborting.
			a.log.Error("invalid resync schedule; periodic resync disabled",
				logx.String("resync", spec), logx.Err(err))
			sched = nil
			return
		}
		sched = s
		now := a.now()
		timer = time.NewTimer(sched.Next(now).Sub(now))
		fire = timer.C
	}
	arm()
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case newCfg, ok := <-sub:
			if !ok {
				return nil
			}
			// Coalesce bursts: keep only the latest config.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			sections, attrs, changedUsers := config.SummarizeChange(cfg, newCfg)
			if len(sections) == 0 {
				a.log.Debug("config reload received, but no effective changes detected")
				cfg = newCfg
				continue
			}
			fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
			a.log.Info("config changed", fields...)

			for _, s := range sections {
				if s == "tabstore" || s == "history" {
					a.log.Warn("storage config changed; restart required for changes to take effect",
						logx.String("section", s))
				}
			}
			if logs != nil {
				logs.Apply(newCfg.LogxConfig())
			}

			resyncChanged := cfg.Agent.Resync != newCfg.Agent.Resync
			cfg = newCfg
			if resyncChanged {
				arm()
			}

			if len(changedUsers) > 0 || contains(sections, "agent") {
				if _, err := a.ApplyOnce(ctx, cfg); err != nil {
					a.log.Warn("apply after reload finished with errors", logx.Err(err))
				}
			}

		case <-fire:
			a.log.Debug("periodic resync")
			if _, err := a.ApplyOnce(ctx, cfg); err != nil {
				a.log.Warn("resync finished with errors", logx.Err(err))
			}
			now := a.now()
			timer.Reset(sched.Next(now).Sub(now))
		}
	}
}

func contains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
