package config

import (
	"reflect"
	"sort"
	"strings"

	"cronsync/pkg/logx"
)

// SummarizeChange returns (1) a compact list of changed sections,
// (2) safe structured attrs for logging, and (3) the users whose declared
// job set changed (those are the ones worth reconciling again).
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field, []string) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 12)

	// Logging
	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logx.journal_enabled", newCfg.Logging.Journal.Enabled),
		)
	}

	// History (nil means disabled)
	oldH := oldCfg.History
	newH := newCfg.History
	var oDriver, nDriver string
	var oPathSet, nPathSet bool
	if oldH != nil {
		oDriver = strings.TrimSpace(oldH.Driver)
		oPathSet = strings.TrimSpace(oldH.Path) != ""
	}
	if newH != nil {
		nDriver = strings.TrimSpace(newH.Driver)
		nPathSet = strings.TrimSpace(newH.Path) != ""
	}
	if oDriver != nDriver || oPathSet != nPathSet {
		changed = append(changed, "history")
		attrs = append(attrs,
			logx.String("history.driver", nDriver),
			logx.Bool("history.path_set", nPathSet),
		)
	}

	// Table store
	if oldCfg.TabStore != newCfg.TabStore {
		changed = append(changed, "tabstore")
		attrs = append(attrs,
			logx.String("tabstore.driver", strings.TrimSpace(newCfg.TabStore.Driver)),
			logx.Bool("tabstore.dir_set", strings.TrimSpace(newCfg.TabStore.Dir) != ""),
		)
	}

	// Agent knobs
	if !reflect.DeepEqual(oldCfg.Agent, newCfg.Agent) {
		changed = append(changed, "agent")
		attrs = append(attrs,
			logx.String("agent.resync", strings.TrimSpace(newCfg.Agent.Resync)),
			logx.String("agent.default_user", strings.TrimSpace(newCfg.Agent.DefaultUser)),
			logx.Int("agent.purge_users", len(newCfg.Agent.PurgeUsers)),
		)
	}

	// Jobs (summarize only; details at debug)
	changedUsers := diffJobs(oldCfg, newCfg)
	if len(changedUsers) > 0 {
		changed = append(changed, "jobs")
		attrs = append(attrs,
			logx.Int("jobs.count", len(newCfg.Jobs)),
			logx.Int("jobs.changed_users", len(changedUsers)),
		)
	}

	sort.Strings(changed)
	return changed, attrs, changedUsers
}

// JobUser resolves the owning user of a job (falling back to the agent's
// default user).
func (c *Config) JobUser(j JobConfig) string {
	if strings.TrimSpace(j.User) != "" {
		return j.User
	}
	return strings.TrimSpace(c.Agent.DefaultUser)
}

func diffJobs(oldCfg, newCfg *Config) []string {
	oldByUser := jobsByUser(oldCfg)
	newByUser := jobsByUser(newCfg)

	set := map[string]struct{}{}
	for u := range oldByUser {
		set[u] = struct{}{}
	}
	for u := range newByUser {
		set[u] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for u := range set {
		if !reflect.DeepEqual(oldByUser[u], newByUser[u]) {
			out = append(out, u)
		}
	}
	sort.Strings(out)
	return out
}

func jobsByUser(c *Config) map[string][]JobConfig {
	m := map[string][]JobConfig{}
	for _, j := range c.Jobs {
		u := c.JobUser(j)
		m[u] = append(m[u], j)
	}
	return m
}
