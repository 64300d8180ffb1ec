package domain

import "time"

// Activity levels, in rising severity.
const (
	ActivityInfo    = "info"
	ActivitySuccess = "success"
	ActivityWarning = "warning"
	ActivityError   = "error"
)

// ActivityEntry is one human-readable event in the bot's activity feed.
// The feed is append-only and exists for the dashboard, not for control
// flow; nothing ever reads it back into a decision.
type ActivityEntry struct {
	Level     string
	Message   string
	Timestamp time.Time
}
