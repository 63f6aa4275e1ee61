package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const pollInterval = time.Second

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// deviceRow mirrors statusapi.DeviceView without importing the daemon
// package, so this command can be built and shipped independently of it.
type deviceRow struct {
	Bus       uint8  `json:"bus"`
	Address   uint8  `json:"address"`
	Location  uint32 `json:"location"`
	ProductID uint16 `json:"product_id"`
	Serial    string `json:"serial"`
	SpeedBps  uint64 `json:"speed_bps"`
	Alive     bool   `json:"alive"`
}

type devicesMsg struct {
	devices []deviceRow
	err     error
}

type model struct {
	apiAddr string
	client  *http.Client
	tbl     table.Model
	lastErr error
	updated time.Time
}

func newModel(apiAddr string) model {
	columns := []table.Column{
		{Title: "Bus", Width: 4},
		{Title: "Addr", Width: 5},
		{Title: "Location", Width: 10},
		{Title: "PID", Width: 6},
		{Title: "Serial", Width: 26},
		{Title: "Speed", Width: 12},
		{Title: "Alive", Width: 6},
	}
	tbl := table.New(table.WithColumns(columns), table.WithFocused(true), table.WithHeight(15))

	return model{
		apiAddr: apiAddr,
		client:  &http.Client{Timeout: 2 * time.Second},
		tbl:     tbl,
	}
}

func (m model) Init() tea.Cmd {
	return m.pollCmd()
}

func (m model) pollCmd() tea.Cmd {
	return func() tea.Msg {
		resp, err := m.client.Get(fmt.Sprintf("http://%s/api/v1/devices", m.apiAddr))
		if err != nil {
			return devicesMsg{err: err}
		}
		defer resp.Body.Close()

		var body struct {
			Devices []deviceRow `json:"devices"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return devicesMsg{err: err}
		}
		return devicesMsg{devices: body.Devices}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case devicesMsg:
		m.updated = time.Now()
		if msg.err != nil {
			m.lastErr = msg.err
		} else {
			m.lastErr = nil
			m.tbl.SetRows(rowsFor(msg.devices))
		}
		return m, tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollTickMsg{} })
	case pollTickMsg:
		return m, m.pollCmd()
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

type pollTickMsg struct{}

func rowsFor(devices []deviceRow) []table.Row {
	rows := make([]table.Row, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", d.Bus),
			fmt.Sprintf("%d", d.Address),
			fmt.Sprintf("%06x", d.Location),
			fmt.Sprintf("%04x", d.ProductID),
			d.Serial,
			fmt.Sprintf("%d Mbps", d.SpeedBps/1_000_000),
			fmt.Sprintf("%v", d.Alive),
		})
	}
	return rows
}

func (m model) View() string {
	header := headerStyle.Render("applemuxd monitor") + "  " + dimStyle.Render(m.apiAddr)
	if m.lastErr != nil {
		return fmt.Sprintf("%s\n\n%s\n\n%s", header, errorStyle.Render("error: "+m.lastErr.Error()), dimStyle.Render("press q to quit"))
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", header, m.tbl.View(), dimStyle.Render("press q to quit · updated "+m.updated.Format("15:04:05")))
}
