// Package history persists an audit trail of reconciliation runs.
//
// It currently supports:
//   - "file": dependency-free append-only JSON Lines
//   - "sqlite": SQLite database file (optional build tag)
package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"cronsync/pkg/logx"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the history store.
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Run records one reconciliation cycle for one user.
// Keep it compact and schema-stable.
type Run struct {
	At      time.Time `json:"at"`
	User    string    `json:"user"`
	Entries int       `json:"entries"`
	Wrote   bool      `json:"wrote"`
	Removed bool      `json:"removed,omitempty"`
	Error   string    `json:"error,omitempty"`
	TookMS  int64     `json:"took_ms"`
}

// Store is the minimal persistence API used by the agent.
type Store interface {
	AppendRun(ctx context.Context, r Run) error
	RecentRuns(ctx context.Context, user string, limit int) ([]Run, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if history is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}
