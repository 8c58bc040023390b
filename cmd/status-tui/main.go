// Command status-tui is a small terminal dashboard that polls the control
// plane's /status endpoint.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Width(16)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2"))

	stoppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Italic(true)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

type botStatus struct {
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	Uptime         string  `json:"uptime"`
	TasksProcessed int     `json:"tasks_processed"`
	StartTime      *string `json:"start_time"`
	CurrentTime    string  `json:"current_time"`
	Version        string  `json:"version"`
}

type statusMsg struct {
	status *botStatus
	err    error
}

type tickMsg time.Time

type model struct {
	client   *resty.Client
	interval time.Duration
	status   *botStatus
	err      error
}

func newModel(baseURL string, interval time.Duration) model {
	return model{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(3 * time.Second),
		interval: interval,
	}
}

func (m model) fetchStatus() tea.Msg {
	var st botStatus
	resp, err := m.client.R().SetResult(&st).Get("/status")
	if err != nil {
		return statusMsg{err: err}
	}
	if resp.IsError() {
		return statusMsg{err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	return statusMsg{status: &st}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchStatus, m.tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetchStatus
		}
	case tickMsg:
		return m, tea.Batch(m.fetchStatus, m.tick())
	case statusMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.status = msg.status
		}
	}
	return m, nil
}

func (m model) View() string {
	header := headerStyle.Render(" ATENA status ")

	var body string
	switch {
	case m.err != nil:
		body = errStyle.Render(fmt.Sprintf("unreachable: %v", m.err))
	case m.status == nil:
		body = "loading..."
	default:
		st := m.status
		stateStyle := stoppedStyle
		if st.Status == "running" {
			stateStyle = runningStyle
		}
		started := "-"
		if st.StartTime != nil {
			started = *st.StartTime
		}
		body = fmt.Sprintf("%s%s\n%s%s\n%s%s\n%s%d\n%s%s\n%s%s",
			labelStyle.Render("name"), st.Name,
			labelStyle.Render("state"), stateStyle.Render(st.Status),
			labelStyle.Render("uptime"), st.Uptime,
			labelStyle.Render("tasks"), st.TasksProcessed,
			labelStyle.Render("started"), started,
			labelStyle.Render("version"), st.Version,
		)
	}

	return header + "\n" + borderStyle.Render(body) + "\n\nq quit, r refresh\n"
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:8080", "control plane base URL")
		interval = flag.Duration("interval", 2*time.Second, "poll interval")
	)
	flag.Parse()

	p := tea.NewProgram(newModel(*baseURL, *interval))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "status-tui: %v\n", err)
		os.Exit(1)
	}
}
