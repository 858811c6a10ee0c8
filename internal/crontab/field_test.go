package crontab

import (
	"errors"
	"testing"
)

func TestNormalizeFieldVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		kind FieldKind
		raw  string
		want []string
	}{
		{name: "minute numeric", kind: FieldMinute, raw: "30", want: []string{"30"}},
		{name: "minute list", kind: FieldMinute, raw: "0,30", want: []string{"0", "30"}},
		{name: "hour zero", kind: FieldHour, raw: "0", want: []string{"0"}},
		{name: "weekday mon", kind: FieldWeekday, raw: "mon", want: []string{"1"}},
		{name: "weekday tue", kind: FieldWeekday, raw: "tue", want: []string{"2"}},
		{name: "weekday upper", kind: FieldWeekday, raw: "MON", want: []string{"1"}},
		{name: "weekday full name", kind: FieldWeekday, raw: "Saturday", want: []string{"6"}},
		{name: "weekday mixed list", kind: FieldWeekday, raw: "1,fri", want: []string{"1", "5"}},
		{name: "month jan", kind: FieldMonth, raw: "jan", want: []string{"1"}},
		{name: "month full name", kind: FieldMonth, raw: "december", want: []string{"12"}},
		{name: "month substring is unanchored", kind: FieldMonth, raw: "uar", want: []string{"1"}},
		{name: "monthday upper bound", kind: FieldMonthDay, raw: "31", want: []string{"31"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeField(tt.kind, tt.raw)
			if err != nil {
				t.Fatalf("normalizeField(%v, %q) error: %v", tt.kind, tt.raw, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("tokens = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("tokens = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestNormalizeFieldRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		kind FieldKind
		raw  string
	}{
		{name: "minute out of range", kind: FieldMinute, raw: "60"},
		{name: "hour out of range", kind: FieldHour, raw: "24"},
		{name: "monthday zero", kind: FieldMonthDay, raw: "0"},
		{name: "weekday out of range", kind: FieldWeekday, raw: "8"},
		{name: "weekday garbage", kind: FieldWeekday, raw: "noday"},
		{name: "weekday partial name", kind: FieldWeekday, raw: "mond"},
		{name: "month garbage abbreviation", kind: FieldMonth, raw: "xyz"},
		{name: "bad piece in list", kind: FieldMinute, raw: "0,99"},
		{name: "minute alpha without names", kind: FieldMinute, raw: "mon"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalizeField(tt.kind, tt.raw)
			if err == nil {
				t.Fatalf("normalizeField(%v, %q) = nil error, want ValidationError", tt.kind, tt.raw)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if verr.Field != tt.kind.String() {
				t.Fatalf("error field = %q, want %q", verr.Field, tt.kind.String())
			}
		})
	}
}

func TestNormalizeCommandPassthrough(t *testing.T) {
	t.Parallel()
	got, err := normalizeField(FieldCommand, "/usr/bin/backup.sh --full, really")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "/usr/bin/backup.sh --full, really" {
		t.Fatalf("command not passed through: %v", got)
	}
}
