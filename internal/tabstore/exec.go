package tabstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"os/user"
	"strings"

	"cronsync/pkg/logx"
)

// execStore drives the system crontab(1) command. Reads and writes go
// through the command rather than the spool directory so the cron daemon
// notices changes; this is the mode used on real hosts and usually needs
// root to act for other users.
type execStore struct {
	log logx.Logger
}

func newExecStore(log logx.Logger) *execStore {
	return &execStore{log: log}
}

func (s *execStore) args(user string, flags ...string) []string {
	if user != "" && user != currentUserName() {
		return append([]string{"-u", user}, flags...)
	}
	return flags
}

func (s *execStore) Read(ctx context.Context, user string) (string, bool, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "crontab", s.args(user, "-l")...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if isNoCrontab(err, stderr.String()) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("crontab -l: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), true, nil
}

func (s *execStore) Write(ctx context.Context, user, text string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "crontab", s.args(user, "-")...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("crontab -: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	s.log.Debug("crontab command wrote table", logx.String("user", user), logx.Int("bytes", len(text)))
	return nil
}

func (s *execStore) Remove(ctx context.Context, user string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "crontab", s.args(user, "-r")...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Removing a table that does not exist is the desired end state.
		if isNoCrontab(err, stderr.String()) {
			return nil
		}
		return fmt.Errorf("crontab -r: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// isNoCrontab recognizes the out-of-band "no crontab for <user>" status.
// Vixie cron and its descendants print it on stderr and exit 1.
func isNoCrontab(err error, stderr string) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	return strings.Contains(strings.ToLower(stderr), "no crontab for")
}

func currentUserName() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}
