package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mailsort/client"
	"mailsort/config"
	"mailsort/gmail"
	"mailsort/sorter"
)

// waitForBatchCmd listens on the monitor channel and delivers the next
// new-mail batch. It re-queues itself from Update unless the channel closed.
func waitForBatchCmd(batches <-chan gmail.Batch) tea.Cmd {
	return func() tea.Msg {
		batch, ok := <-batches
		if !ok {
			return MonitorStoppedMsg{}
		}
		return NewBatchMsg(batch)
	}
}

// waitForSettingsCmd delivers the next settings-change notification.
func waitForSettingsCmd(changes <-chan config.Settings) tea.Cmd {
	return func() tea.Msg {
		return SettingsChangedMsg(<-changes)
	}
}

// statusTickCmd creates a ticker for updating the status bar periodically.
func statusTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return StatusTickMsg{Time: t}
	})
}

// resolveInboxCmd finds the inbox folder of the account so the manual sort
// actions work before the first batch arrives.
func resolveInboxCmd(ctx context.Context, host client.Client) tea.Cmd {
	return func() tea.Msg {
		accounts, err := host.ListAccounts(ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		for _, acct := range accounts {
			for _, f := range acct.Folders {
				if f.Type == client.FolderTypeInbox {
					return InboxResolvedMsg{Inbox: f}
				}
			}
		}
		return MonitorStoppedMsg{}
	}
}

// autoSortCmd dispatches the automatic sort of an incoming batch; read
// messages are skipped when the app is configured to leave them alone.
func autoSortCmd(ctx context.Context, s *sorter.Sorter, batch gmail.Batch, ignoreRead bool) tea.Cmd {
	return func() tea.Msg {
		s.SortMessages(ctx, batch.Inbox, batch.Messages, ignoreRead)
		return AutoSortedMsg{Count: len(batch.Messages)}
	}
}

// sortInboxCmd is the "sort the whole inbox now" menu action; read messages
// are included.
func sortInboxCmd(ctx context.Context, s *sorter.Sorter, inbox client.Folder) tea.Cmd {
	return func() tea.Msg {
		n, err := s.SortFolder(ctx, inbox)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return SortDispatchedMsg{Count: n}
	}
}

// sortSelectedCmd is the "sort this message" menu action.
func sortSelectedCmd(ctx context.Context, s *sorter.Sorter, inbox client.Folder, msg client.Message) tea.Cmd {
	return func() tea.Msg {
		if err := s.SortSelected(ctx, inbox, []client.Message{msg}); err != nil {
			return ErrorMsg{Err: err}
		}
		return SortDispatchedMsg{Count: 1}
	}
}

// toggleAutoSortCmd flips and persists the autosort flag; the new value
// reaches the model through the settings-change subscription.
func toggleAutoSortCmd(cfg *config.Manager, enabled bool) tea.Cmd {
	return func() tea.Msg {
		if err := cfg.SetAutoSort(enabled); err != nil {
			return ErrorMsg{Err: err}
		}
		return nil
	}
}
