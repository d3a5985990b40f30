package tui

import (
	"context"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mailsort/client"
	"mailsort/config"
	"mailsort/gmail"
	"mailsort/sorter"
)

const messageListItemHeight = 2

type Model struct {
	ctx        context.Context
	cfg        *config.Manager
	host       client.Client
	sorter     *sorter.Sorter
	batches    <-chan gmail.Batch
	settings   chan config.Settings
	ignoreRead bool

	pollInterval time.Duration

	messages        []client.Message
	selectedIdx     int
	viewportTopLine int

	inbox      client.Folder
	inboxKnown bool

	autoSort bool

	width, height int
	statusBarText string
	statusIsError bool
	statusIsTemp  bool

	monitorDone bool
}

func NewModel(ctx context.Context, cfg *config.Manager, host client.Client, s *sorter.Sorter, batches <-chan gmail.Batch, pollInterval time.Duration, ignoreRead bool) *Model {
	m := &Model{
		ctx:           ctx,
		cfg:           cfg,
		host:          host,
		sorter:        s,
		batches:       batches,
		settings:      make(chan config.Settings, 4),
		ignoreRead:    ignoreRead,
		pollInterval:  pollInterval,
		autoSort:      cfg.AutoSort(),
		statusBarText: "Initializing, connecting to the mail host...",
	}
	cfg.Subscribe(func(old, new config.Settings) {
		select {
		case m.settings <- new:
		default:
		}
	})
	return m
}

func (m *Model) Init() tea.Cmd {
	log.Println("TUI: Model Init called")
	return tea.Batch(
		waitForBatchCmd(m.batches),
		waitForSettingsCmd(m.settings),
		resolveInboxCmd(m.ctx, m.host),
		statusTickCmd(1*time.Second),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureSelectedVisible()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.updateStatusBar("Quitting...")
			return m, tea.Quit
		case "up", "k":
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.ensureSelectedVisible()
			}
		case "down", "j":
			if m.selectedIdx < len(m.messages)-1 {
				m.selectedIdx++
				m.ensureSelectedVisible()
			}
		case "a":
			cmds = append(cmds, toggleAutoSortCmd(m.cfg, !m.autoSort))
		case "s":
			if m.inboxKnown {
				m.showTemporaryStatus("Sorting inbox...", 2*time.Second, &cmds)
				cmds = append(cmds, sortInboxCmd(m.ctx, m.sorter, m.inbox))
			} else {
				m.showTemporaryStatus("Inbox not resolved yet", 2*time.Second, &cmds)
			}
		case "enter", "m":
			if m.inboxKnown && len(m.messages) > 0 && m.selectedIdx < len(m.messages) {
				selected := m.messages[m.selectedIdx]
				m.showTemporaryStatus(fmt.Sprintf("Sorting %q...", truncate(selected.Subject, 30)), 2*time.Second, &cmds)
				cmds = append(cmds, sortSelectedCmd(m.ctx, m.sorter, m.inbox, selected))
			}
		}

	case NewBatchMsg:
		batch := gmail.Batch(msg)
		m.inbox = batch.Inbox
		m.inboxKnown = true
		// Newest first; batches arrive newest-first already.
		m.messages = append(append([]client.Message(nil), batch.Messages...), m.messages...)
		m.ensureSelectedVisible()
		if m.autoSort {
			cmds = append(cmds, autoSortCmd(m.ctx, m.sorter, batch, m.ignoreRead))
		} else {
			m.showTemporaryStatus(fmt.Sprintf("New mail: %d message(s)", len(batch.Messages)), 4*time.Second, &cmds)
		}
		cmds = append(cmds, waitForBatchCmd(m.batches))

	case SettingsChangedMsg:
		m.autoSort = msg.AutoSort
		m.showTemporaryStatus(fmt.Sprintf("Autosort %s", onOff(m.autoSort)), 3*time.Second, &cmds)
		cmds = append(cmds, waitForSettingsCmd(m.settings))

	case InboxResolvedMsg:
		if !m.inboxKnown {
			m.inbox = msg.Inbox
			m.inboxKnown = true
			m.setStandardStatus()
		}

	case AutoSortedMsg:
		m.showTemporaryStatus(fmt.Sprintf("Autosort dispatched for %d message(s)", msg.Count), 3*time.Second, &cmds)

	case SortDispatchedMsg:
		m.showTemporaryStatus(fmt.Sprintf("Sort dispatched for %d message(s)", msg.Count), 3*time.Second, &cmds)

	case MonitorStoppedMsg:
		m.monitorDone = true
		if !m.statusIsTemp {
			m.setStandardStatus()
		}
		log.Println("TUI: Monitor stopped message received.")

	case ErrorMsg:
		log.Printf("TUI: %v", msg.Err)
		m.updateStatusError(fmt.Sprintf("Error: %v", msg.Err))

	case StatusTickMsg:
		if !m.statusIsTemp {
			m.setStandardStatus()
		}
		cmds = append(cmds, statusTickCmd(1*time.Second))

	case clearTempStatusMsg:
		if m.statusIsTemp {
			m.statusIsTemp = false
			m.setStandardStatus()
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) showTemporaryStatus(text string, duration time.Duration, cmds *[]tea.Cmd) {
	m.statusBarText = text
	m.statusIsError = false
	m.statusIsTemp = true
	*cmds = append(*cmds, tea.Tick(duration, func(t time.Time) tea.Msg {
		return clearTempStatusMsg{}
	}))
}

func (m *Model) updateStatusBar(text string) {
	m.statusBarText = text
	m.statusIsError = false
	m.statusIsTemp = false
}

func (m *Model) updateStatusError(text string) {
	m.statusBarText = text
	m.statusIsError = true
	m.statusIsTemp = false
}

func (m *Model) setStandardStatus() {
	monitorStatus := "Watching"
	if m.monitorDone {
		monitorStatus = "Monitor Off"
	}
	statusMsg := fmt.Sprintf(" %s (poll: %v) | autosort %s | %d messages ",
		monitorStatus, m.pollInterval, onOff(m.autoSort), len(m.messages))
	keyHints := "[Q]:Quit | [↑↓/jk]:Nav | [S]:Sort Inbox | [Enter/M]:Sort Message | [A]:Autosort"
	m.updateStatusBar(statusMsg + "| " + keyHints)
}

func (m *Model) visibleItemCount() int {
	statusBarHeight := 1
	titleHeight := lipgloss.Height(ListTitleStyle.Render(" "))
	available := m.height - statusBarHeight - titleHeight
	if available < 0 {
		available = 0
	}
	return available / messageListItemHeight
}

func (m *Model) ensureSelectedVisible() {
	if len(m.messages) == 0 {
		m.viewportTopLine = 0
		m.selectedIdx = 0
		return
	}
	if m.selectedIdx >= len(m.messages) {
		m.selectedIdx = len(m.messages) - 1
	}

	fit := m.visibleItemCount()
	if fit <= 0 {
		m.viewportTopLine = m.selectedIdx
		return
	}
	if m.selectedIdx < m.viewportTopLine {
		m.viewportTopLine = m.selectedIdx
	} else if m.selectedIdx >= m.viewportTopLine+fit {
		m.viewportTopLine = m.selectedIdx - fit + 1
	}
	if m.viewportTopLine < 0 {
		m.viewportTopLine = 0
	}
	maxTop := len(m.messages) - fit
	if maxTop < 0 {
		maxTop = 0
	}
	if m.viewportTopLine > maxTop {
		m.viewportTopLine = maxTop
	}
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing terminal size..."
	}

	title := ListTitleStyle.Render("Inbox")
	listBody := m.renderMessageList()
	statusBar := m.renderStatusBar()

	contentHeight := m.height - 1 - lipgloss.Height(title)
	if contentHeight < 0 {
		contentHeight = 0
	}
	body := lipgloss.NewStyle().Height(contentHeight).MaxHeight(contentHeight).Render(listBody)

	return AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, body, statusBar))
}

func (m *Model) renderMessageList() string {
	if len(m.messages) == 0 {
		return NormalSecondaryTextStyle.Render("  No messages yet.")
	}

	fit := m.visibleItemCount()
	start := m.viewportTopLine
	end := start + fit
	if end > len(m.messages) {
		end = len(m.messages)
	}
	if start > end {
		start = end
	}

	var out string
	for i := start; i < end; i++ {
		msg := m.messages[i]
		selected := i == m.selectedIdx

		marker := "  "
		if !msg.Read {
			marker = UnreadMarkerStyle.Render("● ")
		}
		subjStyle, metaStyle := NormalSubjectStyle, NormalSecondaryTextStyle
		if selected {
			subjStyle, metaStyle = SelectedSubjectStyle, SelectedSecondaryStyle
		}
		cursor := "  "
		if selected {
			cursor = "> "
		}

		subject := msg.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		line1 := cursor + marker + subjStyle.Render(truncate(subject, m.width-8))
		line2 := "    " + metaStyle.Render(truncate(msg.Author, m.width-8))
		out += line1 + "\n" + line2 + "\n"
	}
	return out
}

func (m *Model) renderStatusBar() string {
	styleToUse := StatusBarNormalStyle
	if m.statusIsError {
		styleToUse = StatusBarErrorStyle
	} else if m.statusIsTemp {
		styleToUse = StatusBarSuccessStyle
	}
	return styleToUse.Width(m.width).Render(truncate(m.statusBarText, m.width))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func truncate(s string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
