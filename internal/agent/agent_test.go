package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"cronsync/internal/config"
	"cronsync/internal/crontab"
	"cronsync/internal/history"
	"cronsync/internal/sysuser"
	"cronsync/pkg/logx"
)

// fakeStore is an in-memory crontab.TableStore. Users listed in failing
// error out on every operation.
type fakeStore struct {
	mu      sync.Mutex
	tabs    map[string]string
	writes  int
	failing map[string]bool
}

func newFakeStore() *fakeStore { return &fakeStore{tabs: map[string]string{}} }

func (s *fakeStore) Read(_ context.Context, user string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[user] {
		return "", false, errors.New("read refused")
	}
	text, ok := s.tabs[user]
	return text, ok, nil
}

func (s *fakeStore) Write(_ context.Context, user, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[user] {
		return errors.New("write refused")
	}
	s.tabs[user] = text
	s.writes++
	return nil
}

func (s *fakeStore) Remove(_ context.Context, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[user] {
		return errors.New("remove refused")
	}
	delete(s.tabs, user)
	return nil
}

type fakeHistory struct {
	mu   sync.Mutex
	runs []history.Run
}

func (h *fakeHistory) AppendRun(_ context.Context, r history.Run) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, r)
	return nil
}

func (h *fakeHistory) RecentRuns(_ context.Context, _ string, _ int) ([]history.Run, error) {
	return nil, nil
}

func (h *fakeHistory) Close() error { return nil }

func testUsers() sysuser.Static {
	return sysuser.Static{"alice": 1001, "bob": 1002, "root": 0}
}

func newTestAgent(store crontab.TableStore, hist history.Store) *Agent {
	return New(Options{
		Logger: logx.Nop(),
		Store:  store,
		Users:  testUsers(),
		Hist:   hist,
		Name:   "cronsync",
		Now:    func() time.Time { return time.Date(2026, 3, 1, 4, 5, 6, 0, time.UTC) },
	})
}

func TestValidateConfigAccepts(t *testing.T) {
	t.Parallel()
	a := newTestAgent(newFakeStore(), nil)
	cfg := &config.Config{
		Agent: config.AgentConfig{Resync: "@every 10m", DefaultUser: "root"},
		Jobs: []config.JobConfig{
			{Name: "backup", User: "alice", Command: "/usr/bin/backup.sh", Minute: "30", Hour: "2", Weekday: "mon"},
			{Name: "rotate", Command: "/usr/sbin/logrotate"},
			{Name: "legacy", User: "alice", Ensure: "absent"},
		},
	}
	if err := a.ValidateConfig(context.Background(), cfg); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
}

func TestValidateConfigRejects(t *testing.T) {
	t.Parallel()
	a := newTestAgent(newFakeStore(), nil)

	cases := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "missing job name",
			cfg:  config.Config{Jobs: []config.JobConfig{{User: "alice", Command: "/bin/true"}}},
			want: "name is required",
		},
		{
			name: "no user anywhere",
			cfg:  config.Config{Jobs: []config.JobConfig{{Name: "x", Command: "/bin/true"}}},
			want: "no user declared",
		},
		{
			name: "bad ensure",
			cfg:  config.Config{Jobs: []config.JobConfig{{Name: "x", User: "alice", Command: "/bin/true", Ensure: "gone"}}},
			want: "ensure must be",
		},
		{
			name: "duplicate name per user",
			cfg: config.Config{Jobs: []config.JobConfig{
				{Name: "x", User: "alice", Command: "/bin/true"},
				{Name: "x", User: "alice", Command: "/bin/false"},
			}},
			want: "declared twice",
		},
		{
			name: "bad field value",
			cfg:  config.Config{Jobs: []config.JobConfig{{Name: "x", User: "alice", Command: "/bin/true", Minute: "61"}}},
			want: "61",
		},
		{
			name: "missing command",
			cfg:  config.Config{Jobs: []config.JobConfig{{Name: "x", User: "alice"}}},
			want: "command is required",
		},
		{
			name: "unknown user",
			cfg:  config.Config{Jobs: []config.JobConfig{{Name: "x", User: "mallory", Command: "/bin/true"}}},
			want: "does not exist",
		},
		{
			name: "bad resync",
			cfg:  config.Config{Agent: config.AgentConfig{Resync: "often"}},
			want: "agent.resync",
		},
		{
			name: "dir driver without dir",
			cfg:  config.Config{TabStore: config.TabStoreConfig{Driver: "dir"}},
			want: "tabstore.dir is required",
		},
		{
			name: "unknown tabstore driver",
			cfg:  config.Config{TabStore: config.TabStoreConfig{Driver: "ldap"}},
			want: "unknown driver",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := a.ValidateConfig(context.Background(), &tc.cfg)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not contain %q", err, tc.want)
			}
		})
	}
}

func TestApplyOnceWritesPerUser(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	hist := &fakeHistory{}
	a := newTestAgent(store, hist)

	cfg := &config.Config{Jobs: []config.JobConfig{
		{Name: "backup", User: "alice", Command: "/usr/bin/backup.sh", Minute: "30", Hour: "2"},
		{Name: "report", User: "bob", Command: "/usr/bin/report"},
	}}
	sum, err := a.ApplyOnce(context.Background(), cfg)
	if err != nil {
		t.Fatalf("ApplyOnce: %v", err)
	}
	if sum.Users != 2 || sum.Wrote != 2 || sum.Errors != 0 {
		t.Fatalf("summary = %+v, want 2 users, 2 writes", sum)
	}
	if !strings.Contains(store.tabs["alice"], "# Puppet Name: backup") {
		t.Fatalf("alice table missing managed entry:\n%s", store.tabs["alice"])
	}
	if !strings.Contains(store.tabs["bob"], "/usr/bin/report") {
		t.Fatalf("bob table missing command:\n%s", store.tabs["bob"])
	}
	if len(hist.runs) != 2 {
		t.Fatalf("got %d history runs, want 2", len(hist.runs))
	}
	for _, r := range hist.runs {
		if !r.Wrote || r.Error != "" {
			t.Fatalf("unexpected run record: %+v", r)
		}
	}
}

func TestApplyOnceIsIdempotent(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	a := newTestAgent(store, nil)
	cfg := &config.Config{Jobs: []config.JobConfig{
		{Name: "backup", User: "alice", Command: "/usr/bin/backup.sh", Minute: "30"},
	}}

	if _, err := a.ApplyOnce(context.Background(), cfg); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	sum, err := a.ApplyOnce(context.Background(), cfg)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if sum.Wrote != 0 || store.writes != 1 {
		t.Fatalf("second apply rewrote the table: %+v writes=%d", sum, store.writes)
	}
}

func TestApplyOnceRemovesAbsentJob(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	a := newTestAgent(store, nil)

	cfg := &config.Config{Jobs: []config.JobConfig{
		{Name: "backup", User: "alice", Command: "/usr/bin/backup.sh"},
		{Name: "legacy", User: "alice", Command: "/usr/bin/legacy"},
	}}
	if _, err := a.ApplyOnce(context.Background(), cfg); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	cfg.Jobs[1].Ensure = "absent"
	sum, err := a.ApplyOnce(context.Background(), cfg)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if sum.Wrote != 1 {
		t.Fatalf("expected one write, got %+v", sum)
	}
	if strings.Contains(store.tabs["alice"], "legacy") {
		t.Fatalf("absent job still in table:\n%s", store.tabs["alice"])
	}
	if !strings.Contains(store.tabs["alice"], "backup") {
		t.Fatalf("present job lost:\n%s", store.tabs["alice"])
	}
}

func TestApplyOncePurgesUsers(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.tabs["bob"] = "0 1 * * * /usr/bin/old\n"
	hist := &fakeHistory{}
	a := newTestAgent(store, hist)

	cfg := &config.Config{
		Agent: config.AgentConfig{PurgeUsers: []string{"bob", "alice"}},
		Jobs: []config.JobConfig{
			{Name: "backup", User: "alice", Command: "/usr/bin/backup.sh"},
		},
	}
	sum, err := a.ApplyOnce(context.Background(), cfg)
	if err != nil {
		t.Fatalf("ApplyOnce: %v", err)
	}
	if sum.Removed != 1 {
		t.Fatalf("summary = %+v, want 1 removed", sum)
	}
	if _, ok := store.tabs["bob"]; ok {
		t.Fatal("bob's table was not purged")
	}
	// alice is declared, so the purge list must not touch her.
	if _, ok := store.tabs["alice"]; !ok {
		t.Fatal("alice's table went missing")
	}
	var sawRemoval bool
	for _, r := range hist.runs {
		if r.User == "bob" && r.Removed {
			sawRemoval = true
		}
	}
	if !sawRemoval {
		t.Fatalf("no removal run recorded: %+v", hist.runs)
	}
}

func TestApplyOnceContinuesPastFailingUser(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.failing = map[string]bool{"alice": true}
	hist := &fakeHistory{}
	a := newTestAgent(store, hist)

	cfg := &config.Config{Jobs: []config.JobConfig{
		{Name: "backup", User: "alice", Command: "/usr/bin/backup.sh"},
		{Name: "report", User: "bob", Command: "/usr/bin/report"},
	}}
	sum, err := a.ApplyOnce(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected an error from the failing user")
	}
	if sum.Errors != 1 || sum.Wrote != 1 {
		t.Fatalf("summary = %+v, want 1 error and 1 write", sum)
	}
	if _, ok := store.tabs["bob"]; !ok {
		t.Fatal("healthy user was skipped after the failure")
	}
	var sawError bool
	for _, r := range hist.runs {
		if r.User == "alice" && r.Error != "" {
			sawError = true
		}
	}
	if !sawError {
		t.Fatalf("failed run not recorded: %+v", hist.runs)
	}
}

func TestParseResync(t *testing.T) {
	t.Parallel()
	for _, spec := range []string{"*/5 * * * *", "@hourly", "@every 90s"} {
		if _, err := parseResync(spec); err != nil {
			t.Fatalf("parseResync(%q): %v", spec, err)
		}
	}
	if _, err := parseResync("whenever"); err == nil {
		t.Fatal("expected error for bad spec")
	}
}
