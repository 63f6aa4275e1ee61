package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestRowsForFormatsLocationAndSpeed(t *testing.T) {
	rows := rowsFor([]deviceRow{
		{Bus: 1, Address: 2, Location: 0x010002, ProductID: 0x1290, Serial: "abc", SpeedBps: 480_000_000, Alive: true},
	})

	assert.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0][0])
	assert.Equal(t, "2", rows[0][1])
	assert.Equal(t, "010002", rows[0][2])
	assert.Equal(t, "1290", rows[0][3])
	assert.Equal(t, "abc", rows[0][4])
	assert.Equal(t, "480 Mbps", rows[0][5])
	assert.Equal(t, "true", rows[0][6])
}

func TestUpdateQuitsOnQ(t *testing.T) {
	m := newModel("localhost:8473")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
	assert.True(t, isQuitCmd(cmd))
}

func TestUpdateStoresDevices(t *testing.T) {
	m := newModel("localhost:8473")

	updated, cmd := m.Update(devicesMsg{devices: []deviceRow{{Bus: 1, Address: 1}}})
	mm := updated.(model)

	assert.Nil(t, mm.lastErr)
	assert.Len(t, mm.tbl.Rows(), 1)
	assert.NotNil(t, cmd)
}

func TestUpdateRecordsError(t *testing.T) {
	m := newModel("localhost:8473")

	updated, _ := m.Update(devicesMsg{err: assert.AnError})
	mm := updated.(model)

	assert.Error(t, mm.lastErr)
}

// isQuitCmd compares the returned command's rendered message type against
// tea.Quit's, since tea.Cmd values aren't otherwise comparable.
func isQuitCmd(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}
