package spelling

import (
	spell "github.com/abhisek/studybuddy/internal/spelling"
)

// sessionStartedMsg is sent once the word list is ready, or failed.
type sessionStartedMsg struct {
	Session *spell.Session
	Err     error
}

// snapshotMsg carries the latest session state.
type snapshotMsg struct {
	Snapshot spell.Snapshot
}

// sessionClosedMsg is sent when the session stops publishing.
type sessionClosedMsg struct{}

// captionMsg is text currently being spoken.
type captionMsg string
