package crontab

import "strconv"

// row is one element of a user's ordered table layout: either a managed
// entry or a foreign line preserved verbatim.
type row struct {
	entry *Entry
	text  string
}

// Table is the ordered entry/foreign-line sequence for one user, plus the
// name index of every entry known for that user (an entry may be known
// without currently appearing in the layout, e.g. declared but not yet
// stored).
type Table struct {
	user   string
	rows   []row
	byName map[string]*Entry

	// sourceText is the raw text seen by the most recent parse.
	// It backs the unchanged-table check on store.
	sourceText string
	sourceSeen bool

	// parsed is the number of managed entries recognized by the most
	// recent parse.
	parsed int
}

func newTable(user string) *Table {
	return &Table{user: user, byName: map[string]*Entry{}}
}

func (t *Table) User() string { return t.user }

// Entry returns the known entry with the given name, or nil.
func (t *Table) Entry(name string) *Entry { return t.byName[name] }

// EntryCount reports how many entries are registered for this user.
func (t *Table) EntryCount() int { return len(t.byName) }

// Entries returns the registered entries in layout order; entries not in
// the layout follow in no particular order.
func (t *Table) Entries() []*Entry {
	out := make([]*Entry, 0, len(t.byName))
	inLayout := make(map[*Entry]bool, len(t.byName))
	for _, r := range t.rows {
		if r.entry != nil {
			out = append(out, r.entry)
			inLayout[r.entry] = true
		}
	}
	for _, e := range t.byName {
		if !inLayout[e] {
			out = append(out, e)
		}
	}
	return out
}

// register makes an entry known by name; appendRow also places it at the
// end of the layout.
func (t *Table) register(e *Entry, appendRow bool) {
	t.byName[e.Name] = e
	if appendRow {
		t.rows = append(t.rows, row{entry: e})
	}
}

// clearObserved drops the parsed layout and every entry that carries no
// declared state. Entries with declared values survive, minus their stale
// observed values, so a later store re-creates them from declared state
// alone.
func (t *Table) clearObserved() {
	t.rows = nil
	t.parsed = 0
	for name, e := range t.byName {
		if !e.hasDeclared() {
			delete(t.byName, name)
			continue
		}
		e.clearObserved()
	}
}

// inLayout reports whether the entry currently appears in the layout.
func (t *Table) inLayout(e *Entry) bool {
	for _, r := range t.rows {
		if r.entry == e {
			return true
		}
	}
	return false
}

// discard forgets an entry entirely (name index and layout).
func (t *Table) discard(name string) bool {
	e := t.byName[name]
	if e == nil {
		return false
	}
	delete(t.byName, name)
	rows := t.rows[:0]
	for _, r := range t.rows {
		if r.entry != e {
			rows = append(rows, r)
		}
	}
	t.rows = rows
	return true
}

// findByDataLine implements the identity fallback for entries whose marker
// comment was lost: among entries with the same effective command, the one
// whose own rendered schedule line matches the current data line literally
// is the same job. The comparison is deliberately literal, not structural:
// it must only re-identify lines this engine previously generated.
func (t *Table) findByDataLine(command, line string) *Entry {
	for _, e := range t.byName {
		cmd, ok := e.Command()
		if !ok || cmd != command {
			continue
		}
		rendered, err := e.DataLine()
		if err != nil {
			continue
		}
		if rendered == line {
			return e
		}
	}
	return nil
}

// Registry holds the known tables, keyed by user. It is owned by a single
// Reconciler; no internal locking. One reconciliation cycle per user may be
// in flight at a time, enforced by the caller.
type Registry struct {
	tables  map[string]*Table
	autoSeq int
}

func NewRegistry() *Registry {
	return &Registry{tables: map[string]*Table{}}
}

// Table returns the table for a user, creating an empty one if needed.
func (r *Registry) Table(user string) *Table {
	t := r.tables[user]
	if t == nil {
		t = newTable(user)
		r.tables[user] = t
	}
	return t
}

// Lookup returns the table for a user, or nil if none is known.
func (r *Registry) Lookup(user string) *Table { return r.tables[user] }

// Drop forgets everything known about a user.
func (r *Registry) Drop(user string) { delete(r.tables, user) }

// Reset clears all tables.
func (r *Registry) Reset() {
	r.tables = map[string]*Table{}
	r.autoSeq = 0
}

// nextAutoName generates a name for an entry whose marker comment was not
// captured. Names are unique within one process run only; across runs such
// entries are re-identified by the data-line fallback instead.
func (r *Registry) nextAutoName() string {
	r.autoSeq++
	return "unmanaged-job-" + strconv.Itoa(r.autoSeq)
}
