// Package agent ties the declarative layer to the crontab engine: it turns a
// config into per-user reconcile cycles and records each cycle in the
// history store.
package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cronsync/internal/config"
	"cronsync/internal/crontab"
	"cronsync/internal/history"
	"cronsync/internal/sysuser"
	"cronsync/pkg/logx"
)

// Options carries the agent's collaborators. Zero values get safe defaults
// (nop logger, OS user resolver, no history).
type Options struct {
	Logger logx.Logger
	Store  crontab.TableStore
	Users  sysuser.Resolver
	Hist   history.Store

	// Name is the identity written into generated table headers.
	Name string
	// Now overrides the clock; tests inject a fixed one.
	Now func() time.Time
}

type Agent struct {
	log   logx.Logger
	rec   *crontab.Reconciler
	users sysuser.Resolver
	hist  history.Store
	now   func() time.Time
}

// Summary aggregates one ApplyOnce pass over all users.
type Summary struct {
	Users   int // users reconciled
	Wrote   int // tables rewritten
	Removed int // tables purged
	Errors  int // users whose cycle failed
}

func New(opts Options) *Agent {
	if opts.Logger.IsZero() {
		opts.Logger = logx.Nop()
	}
	if opts.Users == nil {
		opts.Users = sysuser.OS{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	rec := crontab.NewReconciler(
		crontab.ReconcilerConfig{Agent: opts.Name, Now: opts.Now},
		crontab.NewRegistry(),
		opts.Store,
		opts.Logger.With(logx.String("comp", "reconciler")),
	)
	return &Agent{
		log:   opts.Logger,
		rec:   rec,
		users: opts.Users,
		hist:  opts.Hist,
		now:   opts.Now,
	}
}

// Reconciler exposes the underlying engine for read-only inspection (the
// list command walks its registry).
func (a *Agent) Reconciler() *crontab.Reconciler { return a.rec }

// ValidateConfig rejects a config the engine could not apply: bad field
// values, missing names or commands, duplicate names per user, and declared
// users the system does not know. It never touches registry state, so it is
// safe as a hot-reload validator.
func (a *Agent) ValidateConfig(ctx context.Context, cfg *config.Config) error {
	_ = ctx

	if h := cfg.History; h != nil && strings.TrimSpace(h.BusyTimeout) != "" {
		if _, err := config.ParseDurationField("history.busy_timeout", h.BusyTimeout); err != nil {
			return err
		}
	}
	switch strings.TrimSpace(cfg.TabStore.Driver) {
	case "", "crontab", "dir":
	default:
		return fmt.Errorf("tabstore.driver: unknown driver %q", cfg.TabStore.Driver)
	}
	if cfg.TabStore.Driver == "dir" && strings.TrimSpace(cfg.TabStore.Dir) == "" {
		return fmt.Errorf("tabstore.dir is required for the dir driver")
	}
	if spec := strings.TrimSpace(cfg.Agent.Resync); spec != "" {
		if _, err := parseResync(spec); err != nil {
			return fmt.Errorf("agent.resync: %w", err)
		}
	}

	resolved := map[string]bool{}
	seen := map[string]map[string]bool{}
	for i, j := range cfg.Jobs {
		if strings.TrimSpace(j.Name) == "" {
			return fmt.Errorf("jobs[%d]: name is required", i)
		}
		user := cfg.JobUser(j)
		if user == "" {
			return fmt.Errorf("job %s: no user declared and no agent.default_user", j.Name)
		}
		switch j.Ensure {
		case "", "present", "absent":
		default:
			return fmt.Errorf("job %s: ensure must be present or absent, got %q", j.Name, j.Ensure)
		}
		if seen[user] == nil {
			seen[user] = map[string]bool{}
		}
		if seen[user][j.Name] {
			return fmt.Errorf("job %s: declared twice for user %s", j.Name, user)
		}
		seen[user][j.Name] = true

		if j.Absent() {
			continue
		}
		if err := crontab.ValidateSpec(jobSpec(j, user)); err != nil {
			return err
		}
		if ok, cached := resolved[user]; !cached {
			_, found, err := a.users.Resolve(user)
			if err != nil {
				return fmt.Errorf("resolve user %s: %w", user, err)
			}
			resolved[user] = found
			if !found {
				return &crontab.LookupError{User: user}
			}
		} else if !ok {
			return &crontab.LookupError{User: user}
		}
	}
	return nil
}

// ApplyOnce runs one reconcile cycle per declared user, purges the users
// listed in agent.purge_users, and appends one history run per user. A
// failing user does not stop the pass; the first error is returned after
// all users were attempted.
func (a *Agent) ApplyOnce(ctx context.Context, cfg *config.Config) (Summary, error) {
	var (
		sum      Summary
		firstErr error
	)

	present := map[string][]crontab.Spec{}
	absent := map[string][]string{}
	for _, j := range cfg.Jobs {
		user := cfg.JobUser(j)
		if j.Absent() {
			absent[user] = append(absent[user], j.Name)
			continue
		}
		present[user] = append(present[user], jobSpec(j, user))
	}

	users := make([]string, 0, len(present)+len(absent))
	set := map[string]bool{}
	for u := range present {
		set[u] = true
	}
	for u := range absent {
		set[u] = true
	}
	for u := range set {
		users = append(users, u)
	}
	sort.Strings(users)

	for _, user := range users {
		sum.Users++
		res, err := a.reconcileUser(ctx, user, present[user], absent[user])
		if err != nil {
			sum.Errors++
			if firstErr == nil {
				firstErr = err
			}
			a.log.Error("reconcile failed", logx.String("user", user), logx.Err(err))
		} else if res.Wrote {
			sum.Wrote++
		}
	}

	for _, user := range cfg.Agent.PurgeUsers {
		user = strings.TrimSpace(user)
		if user == "" || set[user] {
			continue
		}
		start := a.now()
		err := a.rec.Remove(ctx, user)
		if err != nil {
			sum.Errors++
			if firstErr == nil {
				firstErr = err
			}
			a.log.Error("purge failed", logx.String("user", user), logx.Err(err))
		} else {
			sum.Removed++
		}
		a.record(ctx, history.Run{
			At:      start,
			User:    user,
			Removed: err == nil,
			Error:   errText(err),
			TookMS:  a.now().Sub(start).Milliseconds(),
		})
	}

	return sum, firstErr
}

// reconcileUser runs retrieve, discard absents, merge, store for one user
// and records the cycle.
func (a *Agent) reconcileUser(ctx context.Context, user string, specs []crontab.Spec, absents []string) (crontab.Result, error) {
	start := a.now()

	res, err := a.applyUser(ctx, user, specs, absents)

	a.record(ctx, history.Run{
		At:      start,
		User:    user,
		Entries: res.Entries,
		Wrote:   res.Wrote,
		Error:   errText(err),
		TookMS:  a.now().Sub(start).Milliseconds(),
	})
	return res, err
}

func (a *Agent) applyUser(ctx context.Context, user string, specs []crontab.Spec, absents []string) (crontab.Result, error) {
	n, err := a.rec.Retrieve(ctx, user)
	if err != nil {
		return crontab.Result{}, err
	}
	for _, name := range absents {
		if a.rec.Discard(user, name) {
			a.log.Info("entry removed", logx.String("user", user), logx.String("name", name))
		}
	}
	if err := a.rec.Merge(specs); err != nil {
		return crontab.Result{Entries: n}, err
	}
	wrote, err := a.rec.StoreTable(ctx, user)
	return crontab.Result{Entries: n, Wrote: wrote}, err
}

func (a *Agent) record(ctx context.Context, r history.Run) {
	if a.hist == nil {
		return
	}
	if err := a.hist.AppendRun(ctx, r); err != nil {
		a.log.Warn("history append failed", logx.String("user", r.User), logx.Err(err))
	}
}

func jobSpec(j config.JobConfig, user string) crontab.Spec {
	return crontab.Spec{
		Name:     j.Name,
		User:     user,
		Command:  j.Command,
		Minute:   j.Minute,
		Hour:     j.Hour,
		MonthDay: j.MonthDay,
		Month:    j.Month,
		Weekday:  j.Weekday,
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
