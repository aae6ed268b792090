package watch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/metergrid/moded/internal/server"
)

// maxRecords bounds the scrollback kept in memory
const maxRecords = 500

// Messages for async operations
type connectedMsg struct {
	conn *websocket.Conn
}
type connectFailedMsg struct {
	err error
}
type recordMsg struct {
	rec server.Record
}
type feedClosedMsg struct {
	err error
}

// Model is the moded-watch application state.
type Model struct {
	url string

	connecting bool
	paused     bool
	failed     error

	conn    *websocket.Conn
	records chan server.Record
	closed  chan error

	spinner  spinner.Model
	viewport viewport.Model
	ready    bool

	history []server.Record
	total   int
}

// NewModel creates the watch model for a feed URL.
func NewModel(url string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		url:        url,
		connecting: true,
		spinner:    s,
		records:    make(chan server.Record, 64),
		closed:     make(chan error, 1),
	}
}

// Init starts the spinner and the websocket dial.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.connect())
}

// connect dials the feed URL.
func (m Model) connect() tea.Cmd {
	url := m.url
	return func() tea.Msg {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return connectFailedMsg{err: err}
		}
		return connectedMsg{conn: conn}
	}
}

// readPump runs outside the Bubble Tea loop, decoding feed frames onto the
// records channel until the connection dies.
func (m Model) readPump() {
	for {
		_, data, err := m.conn.ReadMessage()
		if err != nil {
			m.closed <- err
			return
		}
		var rec server.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			// Skip frames that are not telegram records
			continue
		}
		m.records <- rec
	}
}

// waitForRecord hands the next feed event to the update loop.
func (m Model) waitForRecord() tea.Cmd {
	return func() tea.Msg {
		select {
		case rec := <-m.records:
			return recordMsg{rec: rec}
		case err := <-m.closed:
			return feedClosedMsg{err: err}
		}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.conn != nil {
				_ = m.conn.Close()
			}
			return m, tea.Quit
		case "p", " ":
			m.paused = !m.paused
			if !m.paused {
				m.viewport.GotoBottom()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(m.renderRecords())
		if !m.paused {
			m.viewport.GotoBottom()
		}
		return m, nil

	case connectedMsg:
		m.connecting = false
		m.conn = msg.conn
		go m.readPump()
		return m, m.waitForRecord()

	case connectFailedMsg:
		m.connecting = false
		m.failed = msg.err
		return m, nil

	case recordMsg:
		m.total++
		m.history = append(m.history, msg.rec)
		if len(m.history) > maxRecords {
			m.history = m.history[len(m.history)-maxRecords:]
		}
		m.viewport.SetContent(m.renderRecords())
		if !m.paused {
			m.viewport.GotoBottom()
		}
		return m, m.waitForRecord()

	case feedClosedMsg:
		m.failed = fmt.Errorf("feed closed: %w", msg.err)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Viewport handles scrolling keys
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// renderRecords formats the scrollback for the viewport.
func (m Model) renderRecords() string {
	var b strings.Builder
	for _, rec := range m.history {
		b.WriteString(timestampStyle.Render(rec.ReceivedAt.Local().Format(time.TimeOnly)))
		b.WriteString("  ")
		b.WriteString(identStyle.Render(rec.Ident))
		b.WriteString(statusStyle.Render(fmt.Sprintf("  %s  %s", rec.Manufacturer, rec.RemoteAddr)))
		b.WriteString("\n")
		for _, d := range rec.Data {
			b.WriteString(dataStyle.Render(d))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// View renders the UI.
func (m Model) View() string {
	if m.failed != nil {
		return errorStyle.Render(fmt.Sprintf("moded-watch: %v", m.failed)) +
			helpStyle.Render("\npress q to quit")
	}

	if m.connecting || !m.ready {
		return fmt.Sprintf("\n %s connecting to %s...\n", m.spinner.View(), m.url)
	}

	header := titleStyle.Render("moded-watch") +
		statusStyle.Render(fmt.Sprintf("  %s", m.url)) + "\n\n"

	status := statusStyle.Render(fmt.Sprintf("%d telegram(s)", m.total))
	if m.paused {
		status += pausedStyle.Render("  PAUSED")
	}

	footer := "\n" + status +
		helpStyle.Render("\n↑/↓ scroll • p pause • q quit")

	return header + m.viewport.View() + footer
}
