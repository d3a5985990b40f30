package tui

import (
	"time"

	"mailsort/client"
	"mailsort/config"
	"mailsort/gmail"
)

// A message to indicate a new-mail batch has arrived.
type NewBatchMsg gmail.Batch

// A message to indicate an error occurred, typically from a command.
type ErrorMsg struct{ Err error }

// Error makes it compatible with the error interface.
func (e ErrorMsg) Error() string { return e.Err.Error() }

// A message for timed status updates.
type StatusTickMsg struct{ Time time.Time }

// Message to signal that the monitor channel is closed and no further
// batches will arrive.
type MonitorStoppedMsg struct{}

// Message carrying the persisted settings after an external change.
type SettingsChangedMsg config.Settings

// Message to signal the inbox folder has been resolved from the account.
type InboxResolvedMsg struct{ Inbox client.Folder }

// Message to signal a manual sort has been dispatched (not completed; the
// per-message moves are fire-and-forget).
type SortDispatchedMsg struct{ Count int }

// Message to signal an automatic sort of an incoming batch was dispatched.
type AutoSortedMsg struct{ Count int }

// Message to clear a temporary status message after a timeout.
type clearTempStatusMsg struct{}
