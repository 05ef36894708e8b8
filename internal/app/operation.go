package app

import "time"

// Session tracks one CLI command from start to Close. Its ID tags every log
// line the command writes, so a command's lines can be grepped together.
type Session struct {
	ID      string
	Command string
	Args    string
	Status  string // "success" or "error"
	Started time.Time
}

// NewSession starts a session for command at now.
func NewSession(command, args string, now time.Time) *Session {
	return &Session{
		ID:      now.UTC().Format("20060102T150405.000Z"),
		Command: command,
		Args:    args,
		Status:  "success",
		Started: now,
	}
}

// Fail marks the session as failed. The status is logged when the app closes.
func (s *Session) Fail() {
	s.Status = "error"
}

// Elapsed returns the time since the session started.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.Started)
}
