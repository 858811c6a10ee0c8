package tabstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"cronsync/pkg/logx"
)

// dirStore keeps one file per user under a spool-style directory. It is
// used by tests and for staged rollouts where the generated tables are
// reviewed before being installed.
type dirStore struct {
	dir string
	log logx.Logger
}

func newDirStore(dir string, log logx.Logger) (*dirStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("tabstore.dir is required for dir driver")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &dirStore{dir: dir, log: log}, nil
}

func (s *dirStore) path(user string) string {
	return filepath.Join(s.dir, user)
}

func (s *dirStore) Read(_ context.Context, user string) (string, bool, error) {
	b, err := os.ReadFile(s.path(user))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(b), true, nil
}

func (s *dirStore) Write(_ context.Context, user, text string) error {
	// Write-then-rename so a reader never sees a partial table.
	path := s.path(user)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	s.log.Debug("table file written", logx.String("user", user), logx.String("path", path))
	return nil
}

func (s *dirStore) Remove(_ context.Context, user string) error {
	err := os.Remove(s.path(user))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
