package crontab

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRenderHeaderFormat(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	if err := mergeOne(reg, Spec{Name: "backup", User: "alice", Command: "/usr/bin/backup.sh", Minute: "30", Hour: "2", Weekday: "1"}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	now := time.Date(2026, 3, 1, 4, 5, 6, 0, time.UTC)
	text, err := RenderTable(reg.Table("alice"), now, "cronsync")
	if err != nil {
		t.Fatalf("RenderTable error: %v", err)
	}

	want := strings.Join([]string{
		"#This file was autogenerated at 2026-03-01 04:05:06 +0000 by cronsync. While it",
		"# can still be managed manually, it is definitely not recommended.",
		"# Note particularly that the comments starting with 'Puppet Name' should",
		"# not be deleted, as doing so could cause duplicate cron jobs.",
		"# Puppet Name: backup",
		"30 2 * * 1 /usr/bin/backup.sh",
	}, "\n") + "\n"
	if text != want {
		t.Fatalf("rendered table:\n%q\nwant:\n%q", text, want)
	}
	if !strings.HasSuffix(text, "\n") || strings.HasSuffix(text, "\n\n") {
		t.Fatal("output must end with exactly one trailing newline")
	}
}

func TestRenderUnconstrainedFields(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	if err := mergeOne(reg, Spec{Name: "tick", User: "alice", Command: "/bin/tick"}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	line, err := reg.Table("alice").Entry("tick").DataLine()
	if err != nil {
		t.Fatalf("DataLine error: %v", err)
	}
	if line != "* * * * * /bin/tick" {
		t.Fatalf("DataLine = %q", line)
	}
}

func TestRenderMissingCommandFails(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	if err := mergeOne(reg, Spec{Name: "broken", User: "alice", Minute: "5"}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	_, err := RenderTable(reg.Table("alice"), time.Now(), "cronsync")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if verr.Field != "command" {
		t.Fatalf("ValidationError field = %q, want command", verr.Field)
	}
}

func TestDeclaredValueWinsOverObserved(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	if _, err := reg.ParseTable("alice", "# Puppet Name: backup\n30 2 * * 1 /usr/bin/backup.sh\n"); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := mergeOne(reg, Spec{Name: "backup", User: "alice", Command: "/usr/bin/backup.sh", Minute: "0,30"}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	line, err := reg.Table("alice").Entry("backup").DataLine()
	if err != nil {
		t.Fatalf("DataLine error: %v", err)
	}
	if line != "0,30 2 * * 1 /usr/bin/backup.sh" {
		t.Fatalf("DataLine = %q, want declared minute to win", line)
	}
}

func TestDeclaredStarResetsObservedField(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	if _, err := reg.ParseTable("alice", "# Puppet Name: backup\n30 2 * * 1 /usr/bin/backup.sh\n"); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := mergeOne(reg, Spec{Name: "backup", User: "alice", Command: "/usr/bin/backup.sh", Weekday: "*"}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	line, err := reg.Table("alice").Entry("backup").DataLine()
	if err != nil {
		t.Fatalf("DataLine error: %v", err)
	}
	if line != "30 2 * * * /usr/bin/backup.sh" {
		t.Fatalf("DataLine = %q, want weekday reset to *", line)
	}
}
