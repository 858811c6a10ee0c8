package crontab

import (
	"regexp"
	"strings"
)

var (
	reMarker = regexp.MustCompile(`^# Puppet Name: (.+)$`)
	reData   = regexp.MustCompile(`^(\S+)\s+(\S+)\s+(\S+)\s+(\S+)\s+(\S+)\s+(.+)$`)
)

// ParseTable consumes the full raw crontab text for a user, resolving each
// recognized line against the entries already known for that user and
// rebuilding the user's layout. Foreign lines (comments, blanks) are kept
// verbatim, in place.
func (r *Registry) ParseTable(user, text string) (*Table, error) {
	t := r.Table(user)
	t.rows = nil
	t.parsed = 0
	t.sourceText = text
	t.sourceSeen = true

	lines := strings.Split(text, "\n")
	// A trailing newline yields one empty trailing element; it is the line
	// terminator, not a blank line.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	appended := make(map[*Entry]bool)
	pending := ""

	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)

		// Our own generated header is regenerated on every write; carrying
		// it through as foreign lines would duplicate it.
		if isGeneratedHeaderLine(trimmed) {
			continue
		}

		if m := reMarker.FindStringSubmatch(trimmed); m != nil {
			pending = strings.TrimSpace(m[1])
			continue
		}

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			t.rows = append(t.rows, row{text: raw})
			continue
		}

		m := reData.FindStringSubmatch(trimmed)
		if m == nil {
			return nil, &ParseError{User: user, Line: i + 1, Text: raw}
		}
		command := m[6]

		tokens := make([][]string, numScheduleFields)
		for kind := FieldMinute; kind <= FieldWeekday; kind++ {
			tok := m[int(kind)+1]
			if tok == "*" {
				continue
			}
			normalized, err := normalizeField(kind, tok)
			if err != nil {
				return nil, &ParseError{User: user, Line: i + 1, Text: raw, Err: err}
			}
			tokens[kind] = normalized
		}

		e := t.resolveIdentity(r, pending, command, trimmed)
		for kind := FieldMinute; kind <= FieldWeekday; kind++ {
			e.setObserved(kind, tokens[kind])
		}
		e.setObservedCommand(command)

		if !appended[e] {
			t.rows = append(t.rows, row{entry: e})
			appended[e] = true
		}
		t.parsed++
		pending = ""
	}

	return t, nil
}

// resolveIdentity maps a parsed data line to an entry, in strict priority
// order: marker name lookup, then the literal data-line fallback, then a
// fresh entry under the marker name or an auto-generated one.
func (t *Table) resolveIdentity(r *Registry, pending, command, line string) *Entry {
	if pending != "" {
		if e := t.byName[pending]; e != nil {
			return e
		}
	}

	name := pending
	if name == "" {
		name = r.nextAutoName()
	}

	// An entry that lost its marker (or whose marker was never captured)
	// is re-identified by its rendered line; its registered name wins.
	if e := t.findByDataLine(command, line); e != nil {
		return e
	}

	e := NewEntry(name, t.user)
	t.register(e, false)
	return e
}

const (
	headerLine2 = "# can still be managed manually, it is definitely not recommended."
	headerLine3 = "# Note particularly that the comments starting with 'Puppet Name' should"
	headerLine4 = "# not be deleted, as doing so could cause duplicate cron jobs."
)

var reHeaderLine1 = regexp.MustCompile(`^#This file was autogenerated at .+\. While it$`)

func isGeneratedHeaderLine(line string) bool {
	switch line {
	case headerLine2, headerLine3, headerLine4:
		return true
	}
	return reHeaderLine1.MatchString(line)
}
