package crontab

import "fmt"

// ValidationError reports a declared or parsed value that failed
// numeric/alpha/bounds checks, or an entry that reached serialization
// without a command.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%q is not a valid %s", e.Value, e.Field)
}

// ParseError reports a crontab line that does not match the expected
// five-fields-plus-command shape, or a field on such a line that failed
// normalization. It aborts the whole table's parse: positional ordering
// and identity matching depend on a consistent view of the table.
type ParseError struct {
	User string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("crontab for %s: line %d: %v", e.User, e.Line, e.Err)
	}
	return fmt.Sprintf("crontab for %s: line %d: could not parse %q", e.User, e.Line, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LookupError reports a declared user that does not resolve to a real
// system identity.
type LookupError struct {
	User string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("user %s does not exist", e.User)
}
