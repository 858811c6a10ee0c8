package crontab

import "strings"

// fieldState keeps the observed ("is") and declared ("should") values of one
// schedule field. A set-but-nil token list means explicitly unconstrained.
type fieldState struct {
	is        []string
	isSet     bool
	should    []string
	shouldSet bool
}

func (f *fieldState) effective() ([]string, bool) {
	if f.shouldSet {
		return f.should, true
	}
	return f.is, f.isSet
}

// Entry is one managed cron job: identity (name + owning user), a command,
// and the five schedule fields. Declared values take precedence over
// observed ones when both are present.
type Entry struct {
	Name string
	User string

	cmdIs        string
	cmdIsSet     bool
	cmdShould    string
	cmdShouldSet bool

	fields [numScheduleFields]fieldState
}

func NewEntry(name, user string) *Entry {
	return &Entry{Name: name, User: user}
}

// SetDeclared records a declared schedule-field value, normalizing it.
// "*" declares the field explicitly unconstrained.
func (e *Entry) SetDeclared(kind FieldKind, raw string) error {
	if kind == FieldCommand {
		e.SetDeclaredCommand(raw)
		return nil
	}
	st := &e.fields[kind]
	if raw == "*" {
		st.should = nil
		st.shouldSet = true
		return nil
	}
	tokens, err := normalizeField(kind, raw)
	if err != nil {
		return err
	}
	st.should = tokens
	st.shouldSet = true
	return nil
}

func (e *Entry) SetDeclaredCommand(cmd string) {
	e.cmdShould = cmd
	e.cmdShouldSet = true
}

func (e *Entry) setObserved(kind FieldKind, tokens []string) {
	st := &e.fields[kind]
	st.is = tokens
	st.isSet = true
}

func (e *Entry) setObservedCommand(cmd string) {
	e.cmdIs = cmd
	e.cmdIsSet = true
}

// hasDeclared reports whether any declared value is set on the entry.
func (e *Entry) hasDeclared() bool {
	if e.cmdShouldSet {
		return true
	}
	for i := range e.fields {
		if e.fields[i].shouldSet {
			return true
		}
	}
	return false
}

// clearObserved forgets all observed values, keeping declared state.
func (e *Entry) clearObserved() {
	e.cmdIs, e.cmdIsSet = "", false
	for i := range e.fields {
		e.fields[i].is, e.fields[i].isSet = nil, false
	}
}

// Command returns the effective command (declared wins over observed).
func (e *Entry) Command() (string, bool) {
	if e.cmdShouldSet {
		return e.cmdShould, true
	}
	return e.cmdIs, e.cmdIsSet
}

// FieldTokens returns the effective tokens for a schedule field.
// A nil slice means the field is unconstrained.
func (e *Entry) FieldTokens(kind FieldKind) []string {
	tokens, _ := e.fields[kind].effective()
	return tokens
}

// FieldText renders one schedule field the way the table serializer would.
func (e *Entry) FieldText(kind FieldKind) string { return e.renderField(kind) }

func (e *Entry) renderField(kind FieldKind) string {
	tokens := e.FieldTokens(kind)
	if len(tokens) == 0 {
		return "*"
	}
	return strings.Join(tokens, ",")
}

// DataLine renders the entry's schedule-field line (five fields plus
// command, single-space separated) without the identity-marker comment.
// An entry without a command cannot be written.
func (e *Entry) DataLine() (string, error) {
	cmd, ok := e.Command()
	if !ok || strings.TrimSpace(cmd) == "" {
		return "", &ValidationError{Field: "command"}
	}
	parts := make([]string, 0, numScheduleFields+1)
	for kind := FieldMinute; kind <= FieldWeekday; kind++ {
		parts = append(parts, e.renderField(kind))
	}
	parts = append(parts, cmd)
	return strings.Join(parts, " "), nil
}
