package crontab

import (
	"regexp"
	"strconv"
	"strings"
)

// FieldKind identifies one of the five schedule fields of a crontab line,
// or the trailing command.
type FieldKind int

const (
	FieldMinute FieldKind = iota
	FieldHour
	FieldMonthDay
	FieldMonth
	FieldWeekday
	FieldCommand

	numScheduleFields = int(FieldCommand)
)

func (k FieldKind) String() string {
	switch k {
	case FieldMinute:
		return "minute"
	case FieldHour:
		return "hour"
	case FieldMonthDay:
		return "monthday"
	case FieldMonth:
		return "month"
	case FieldWeekday:
		return "weekday"
	case FieldCommand:
		return "command"
	default:
		return "unknown"
	}
}

// FieldSpec is the validation rule set for one schedule-field kind:
// inclusive numeric bounds plus an optional list of alphabetic names.
// A named value normalizes to NameBase + index within Names.
//
// Specs are defined once at init and never mutated.
type FieldSpec struct {
	Kind     FieldKind
	Lo, Hi   int
	Names    []string
	NameBase int
}

var fieldSpecs = [numScheduleFields]FieldSpec{
	{Kind: FieldMinute, Lo: 0, Hi: 59},
	{Kind: FieldHour, Lo: 0, Hi: 23},
	{Kind: FieldMonthDay, Lo: 1, Hi: 31},
	{Kind: FieldMonth, Lo: 1, Hi: 12, NameBase: 1, Names: []string{
		"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december",
	}},
	{Kind: FieldWeekday, Lo: 0, Hi: 6, Names: []string{
		"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
	}},
}

var reAllDigits = regexp.MustCompile(`^\d+$`)

// normalizeToken canonicalizes a single raw token (no commas, not "*")
// against a field spec, returning the canonical decimal string.
func normalizeToken(spec FieldSpec, raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	n := -1
	found := false
	switch {
	case reAllDigits.MatchString(raw):
		v, err := strconv.Atoi(raw)
		if err == nil {
			n = v
			found = true
		}
	case len(spec.Names) > 0:
		low := strings.ToLower(raw)
		if len(low) == 3 {
			// Three-letter abbreviations match by substring ("mon" -> "monday",
			// "jun" -> "june"). First containing name wins.
			for i, name := range spec.Names {
				if strings.Contains(name, low) {
					n = spec.NameBase + i
					found = true
					break
				}
			}
		} else {
			for i, name := range spec.Names {
				if name == low {
					n = spec.NameBase + i
					found = true
					break
				}
			}
		}
	}

	if !found || n < spec.Lo || n > spec.Hi {
		return "", &ValidationError{Field: spec.Kind.String(), Value: raw}
	}
	return strconv.Itoa(n), nil
}

// normalizeField canonicalizes a raw schedule-field value. The literal "*"
// is handled upstream (it never reaches here); a comma-separated value is
// split and each piece normalized independently, preserving order.
func normalizeField(kind FieldKind, raw string) ([]string, error) {
	if kind == FieldCommand {
		// The command has no spec; it passes through unmodified.
		return []string{raw}, nil
	}
	spec := fieldSpecs[kind]
	pieces := strings.Split(raw, ",")
	tokens := make([]string, 0, len(pieces))
	for _, p := range pieces {
		tok, err := normalizeToken(spec, p)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}
