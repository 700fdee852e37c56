package store

import (
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/family"
)

var (
	// ErrNotFound is returned for missing activities.
	ErrNotFound = activity.ErrNotFound

	// ErrPersistenceConflict is returned when a parent record changed
	// between read and write.
	ErrPersistenceConflict = family.ErrPersistenceConflict
)

// isBusy reports whether err is SQLite refusing a write because another
// connection holds the lock.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
