// Package sysuser resolves declared user names to system identities.
// It is consumed at declaration-validation time only.
package sysuser

import (
	"os/user"
	"strconv"
)

// Resolver maps a user name to its numeric UID. A user that does not exist
// is reported via ok=false, not an error; err is reserved for lookup
// machinery failures.
type Resolver interface {
	Resolve(name string) (uid int, ok bool, err error)
}

// OS resolves against the local passwd database.
type OS struct{}

func (OS) Resolve(name string) (int, bool, error) {
	u, err := user.Lookup(name)
	if err != nil {
		if _, unknown := err.(user.UnknownUserError); unknown {
			return 0, false, nil
		}
		return 0, false, err
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		// Non-numeric UIDs exist on some platforms; the engine only needs
		// existence, so report found with a zero UID.
		return 0, true, nil
	}
	return uid, true, nil
}

// Static resolves from a fixed name->uid map; used by tests and dry runs.
type Static map[string]int

func (s Static) Resolve(name string) (int, bool, error) {
	uid, ok := s[name]
	return uid, ok, nil
}
