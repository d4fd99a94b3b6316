// Package watch is a read-only terminal monitor for a running chiprail
// server. It polls the admission API and renders the open rooms; it never
// sends commands.
package watch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const pollInterval = 2 * time.Second

// RoomRow is one room as reported by GET /api/rooms.
type RoomRow struct {
	ID           string `json:"id"`
	OwnerName    string `json:"owner_name"`
	OwnerEmoji   string `json:"owner_emoji"`
	SBAmount     int    `json:"sb_amount"`
	BBAmount     int    `json:"bb_amount"`
	InitialChips int    `json:"initial_chips"`
	PlayerCount  int    `json:"player_count"`
	Status       string `json:"status"`
}

type roomsMsg []RoomRow

type errMsg struct{ err error }

type tickMsg time.Time

// Model is the bubbletea model for the monitor.
type Model struct {
	baseURL string
	client  *http.Client
	spinner spinner.Model
	rooms   []RoomRow
	err     error
	fetched bool
}

// NewModel builds a monitor pointed at the given server base URL.
func NewModel(baseURL string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	return Model{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
		spinner: s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetch
		}
	case roomsMsg:
		m.rooms = msg
		m.err = nil
		m.fetched = true
		return m, m.schedule()
	case errMsg:
		m.err = msg.err
		m.fetched = true
		return m, m.schedule()
	case tickMsg:
		return m, m.fetch
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) schedule() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetch() tea.Msg {
	resp, err := m.client.Get(m.baseURL + "/api/rooms")
	if err != nil {
		return errMsg{err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return errMsg{fmt.Errorf("server returned %s", resp.Status)}
	}
	var rooms []RoomRow
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		return errMsg{err}
	}
	return roomsMsg(rooms)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("chiprail — open rooms"))
	b.WriteString("\n\n")

	switch {
	case !m.fetched:
		b.WriteString(m.spinner.View() + " connecting to " + m.baseURL + "\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: "+m.err.Error()) + "\n")
	case len(m.rooms) == 0:
		b.WriteString(helpStyle.Render("no open rooms") + "\n")
	default:
		b.WriteString(m.table())
	}

	b.WriteString("\n" + helpStyle.Render("r refresh • q quit"))
	return b.String()
}

func (m Model) table() string {
	var b strings.Builder
	b.WriteString(cellStyle.Bold(true).Render(
		fmt.Sprintf("%-8s %-16s %-10s %-8s %-8s %s",
			"ROOM", "OWNER", "BLINDS", "BUY-IN", "PLAYERS", "STATUS")))
	b.WriteString("\n")
	for _, r := range m.rooms {
		status := waitingStyle.Render(r.Status)
		if r.Status == "playing" {
			status = playingStyle.Render(r.Status)
		}
		owner := strings.TrimSpace(r.OwnerEmoji + " " + r.OwnerName)
		b.WriteString(cellStyle.Render(
			fmt.Sprintf("%-8s %-16s %-10s %-8d %-8d %s",
				r.ID, owner,
				fmt.Sprintf("%d/%d", r.SBAmount, r.BBAmount),
				r.InitialChips, r.PlayerCount, status)))
		b.WriteString("\n")
	}
	return b.String()
}
