// Package tabstore provides the backends that physically read and write
// per-user crontabs.
//
// It currently supports:
//   - "crontab": the system crontab(1) command (the normal agent mode)
//   - "dir": one file per user under a spool-style directory
package tabstore

import (
	"errors"
	"strings"

	"cronsync/internal/crontab"
	"cronsync/pkg/logx"
)

// Config configures the table store.
//
// Driver values:
//   - "crontab" (default): shell out to crontab(1)
//   - "dir": plain files under Dir, one per user
type Config struct {
	Driver string
	Dir    string
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (crontab.TableStore, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "crontab":
		return newExecStore(log), nil
	case "dir":
		return newDirStore(cfg.Dir, log)
	default:
		return nil, errors.New("unknown tabstore driver: " + driver)
	}
}
