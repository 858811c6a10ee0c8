package crontab

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cronsync/pkg/logx"
)

// TableStore is the external store that physically reads and writes a
// user's crontab. "No table yet" is a normal state, signaled by exists.
type TableStore interface {
	Read(ctx context.Context, user string) (text string, exists bool, err error)
	Write(ctx context.Context, user, text string) error
	Remove(ctx context.Context, user string) error
}

// Spec is one declared job as it arrives from the declarative layer.
// Empty schedule fields mean "no constraint declared"; an explicit "*"
// declares the field unconstrained.
type Spec struct {
	Name     string
	User     string
	Command  string
	Minute   string
	Hour     string
	MonthDay string
	Month    string
	Weekday  string
}

func (s Spec) fieldValue(kind FieldKind) string {
	switch kind {
	case FieldMinute:
		return s.Minute
	case FieldHour:
		return s.Hour
	case FieldMonthDay:
		return s.MonthDay
	case FieldMonth:
		return s.Month
	case FieldWeekday:
		return s.Weekday
	default:
		return ""
	}
}

// Result summarizes one reconciliation cycle for a user.
type Result struct {
	Entries int  // entries found in the existing table
	Wrote   bool // whether a new table was written
}

// ReconcilerConfig carries the rendering identity of the agent and an
// optional clock (tests inject a fixed one).
type ReconcilerConfig struct {
	Agent string
	Now   func() time.Time
}

// Reconciler drives the per-user read-modify-write cycle: retrieve the raw
// table, parse it into the registry, merge declared specs, and write the
// rendered result back.
type Reconciler struct {
	cfg   ReconcilerConfig
	reg   *Registry
	store TableStore
	log   logx.Logger
}

func NewReconciler(cfg ReconcilerConfig, reg *Registry, store TableStore, log logx.Logger) *Reconciler {
	if cfg.Agent == "" {
		cfg.Agent = "cronsync"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Reconciler{cfg: cfg, reg: reg, store: store, log: log}
}

func (r *Reconciler) Registry() *Registry { return r.reg }

// Retrieve reads and parses a user's table, returning the number of entries
// found. A missing table is not an error; the user simply has none yet.
func (r *Reconciler) Retrieve(ctx context.Context, user string) (int, error) {
	text, exists, err := r.store.Read(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("read crontab for %s: %w", user, err)
	}
	if !exists {
		r.log.Debug("no crontab yet", logx.String("user", user))
		t := r.reg.Table(user)
		// The table may have been deleted out-of-band since the last parse.
		// Stale foreign lines and observed-only entries must not come back
		// on the next store; only declared entries converge.
		t.clearObserved()
		t.sourceText = ""
		t.sourceSeen = false
		return 0, nil
	}
	t, err := r.reg.ParseTable(user, text)
	if err != nil {
		return 0, err
	}
	r.log.Debug("crontab parsed",
		logx.String("user", user),
		logx.Int("entries", t.parsed),
		logx.Int("lines", len(t.rows)),
	)
	return t.parsed, nil
}

// Merge overlays declared specs onto the registry. A spec whose name is
// already known for its user updates that entry (declared values win on
// render); otherwise a new entry is registered and appended to the layout.
// ValidateSpec checks a declared job without touching registry state.
// It applies the same field normalization Merge would.
func ValidateSpec(s Spec) error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name"}
	}
	if strings.TrimSpace(s.User) == "" {
		return &ValidationError{Field: "user"}
	}
	if strings.TrimSpace(s.Command) == "" {
		return &ValidationError{Field: "command"}
	}
	for kind := FieldMinute; kind <= FieldWeekday; kind++ {
		raw := s.fieldValue(kind)
		if raw == "" || raw == "*" {
			continue
		}
		if _, err := normalizeField(kind, raw); err != nil {
			return fmt.Errorf("job %s: %w", s.Name, err)
		}
	}
	return nil
}

func (r *Reconciler) Merge(specs []Spec) error {
	for _, s := range specs {
		if strings.TrimSpace(s.Name) == "" {
			return &ValidationError{Field: "name"}
		}
		if strings.TrimSpace(s.User) == "" {
			return &ValidationError{Field: "user"}
		}

		t := r.reg.Table(s.User)
		e := t.Entry(s.Name)
		if e == nil {
			e = NewEntry(s.Name, s.User)
			t.register(e, true)
		} else if !t.inLayout(e) {
			t.rows = append(t.rows, row{entry: e})
		}

		if s.Command != "" {
			e.SetDeclaredCommand(s.Command)
		}
		for kind := FieldMinute; kind <= FieldWeekday; kind++ {
			raw := s.fieldValue(kind)
			if raw == "" {
				continue
			}
			if err := e.SetDeclared(kind, raw); err != nil {
				return fmt.Errorf("job %s: %w", s.Name, err)
			}
		}
	}
	return nil
}

// Discard forgets a single managed entry for a user (declared absent).
// It reports whether the entry was known.
func (r *Reconciler) Discard(user, name string) bool {
	t := r.reg.Lookup(user)
	if t == nil {
		return false
	}
	return t.discard(name)
}

// StoreTable renders and writes a user's table. With no entries registered
// and no table retrieved there is nothing to manage and the write is skipped
// entirely. A write is also skipped when the rendered payload matches what
// was retrieved, so an unchanged table is never rewritten with a fresh
// header timestamp. An empty entry set over a retrieved table still writes
// when the payload changed: that is how a discarded last entry disappears.
func (r *Reconciler) StoreTable(ctx context.Context, user string) (bool, error) {
	t := r.reg.Lookup(user)
	if t == nil || (t.EntryCount() == 0 && !t.sourceSeen) {
		r.log.Debug("no entries to write", logx.String("user", user))
		return false, nil
	}

	payload, err := RenderPayload(t)
	if err != nil {
		return false, err
	}
	if t.sourceSeen && equalLines(payload, sourcePayload(t.sourceText)) {
		r.log.Debug("crontab unchanged", logx.String("user", user))
		return false, nil
	}

	lines := append(header(r.cfg.Now(), r.cfg.Agent), payload...)
	text := strings.Join(lines, "\n") + "\n"
	if err := r.store.Write(ctx, user, text); err != nil {
		return false, fmt.Errorf("write crontab for %s: %w", user, err)
	}
	t.sourceText = text
	t.sourceSeen = true
	r.log.Info("crontab written",
		logx.String("user", user),
		logx.Int("entries", t.EntryCount()),
	)
	return true, nil
}

// Remove deletes a user's entire table and forgets its registry state.
func (r *Reconciler) Remove(ctx context.Context, user string) error {
	if err := r.store.Remove(ctx, user); err != nil {
		return fmt.Errorf("remove crontab for %s: %w", user, err)
	}
	r.reg.Drop(user)
	r.log.Info("crontab removed", logx.String("user", user))
	return nil
}

// Reconcile runs one full retrieve -> merge -> store cycle for a user.
func (r *Reconciler) Reconcile(ctx context.Context, user string, specs []Spec) (Result, error) {
	n, err := r.Retrieve(ctx, user)
	if err != nil {
		return Result{}, err
	}
	if err := r.Merge(specs); err != nil {
		return Result{Entries: n}, err
	}
	wrote, err := r.StoreTable(ctx, user)
	if err != nil {
		return Result{Entries: n}, err
	}
	return Result{Entries: n, Wrote: wrote}, nil
}

// sourcePayload extracts the comparable body of previously retrieved text:
// all lines except the generated header and the final line terminator.
func sourcePayload(text string) []string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if isGeneratedHeaderLine(strings.TrimSpace(l)) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
