package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/linkatlas/pkg/dataset"
	"github.com/matzehuels/linkatlas/pkg/view"
)

func press(m NodeListModel, keys ...tea.KeyMsg) NodeListModel {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(NodeListModel)
	}
	return m
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyT     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")}
	keyQ     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
)

func TestNodeListNavigate(t *testing.T) {
	m := NewNodeListModel(dataset.Default(), view.Detailed)
	if len(m.Graph.Nodes) != 26 {
		t.Fatalf("nodes = %d, want 26", len(m.Graph.Nodes))
	}

	m = press(m, keyUp)
	if m.Cursor != 0 {
		t.Errorf("cursor moved above the first node: %d", m.Cursor)
	}
	m = press(m, keyDown, keyDown, keyUp)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.Cursor)
	}

	m.Height = 5
	for range 30 {
		m = press(m, keyDown)
	}
	if m.Cursor != 25 || m.Offset != 21 {
		t.Errorf("cursor/offset = %d/%d, want 25/21", m.Cursor, m.Offset)
	}
}

func TestNodeListInspect(t *testing.T) {
	m := NewNodeListModel(dataset.Default(), view.Detailed)
	m = press(m, keyDown, keyEnter)
	if m.Info == nil || m.Info.Name != "Sky" {
		t.Fatalf("Info = %+v, want Sky", m.Info)
	}
	if !strings.Contains(m.View(), "thatgamecompany") {
		t.Errorf("view does not show the description:\n%s", m.View())
	}

	m = press(m, keyEsc)
	if m.Info != nil {
		t.Error("esc should close the info panel")
	}
	if _, cmd := m.Update(keyEsc); cmd == nil {
		t.Error("esc without a panel should quit")
	}
}

func TestNodeListToggle(t *testing.T) {
	m := NewNodeListModel(dataset.Default(), view.Detailed)
	m = press(m, keyDown, keyDown, keyT)

	if m.State.Mode != view.Collapsed || len(m.Graph.Nodes) != 14 {
		t.Fatalf("after toggle: %s with %d nodes", m.State.Mode, len(m.Graph.Nodes))
	}
	if n, _ := m.Current(); n.ID != "artifact:Dark Souls" {
		t.Errorf("cursor on %s, want the same game", n.ID)
	}
	if !strings.Contains(m.View(), "collapsed: 14 nodes") {
		t.Errorf("view does not show the collapsed summary:\n%s", m.View())
	}

	m = press(m, keyT)
	if m.State.Mode != view.Detailed || len(m.Graph.Nodes) != 26 {
		t.Errorf("toggle back: %s with %d nodes", m.State.Mode, len(m.Graph.Nodes))
	}
}

func TestNodeListToggleHiddenNode(t *testing.T) {
	m := NewNodeListModel(dataset.Default(), view.Detailed)
	for range 25 {
		m = press(m, keyDown)
	}
	m = press(m, keyEnter, keyT)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d, want 0 once the minor link is hidden", m.Cursor)
	}
	if m.Info != nil {
		t.Error("info of a hidden node should be closed")
	}
}

func TestNodeListQuit(t *testing.T) {
	m := NewNodeListModel(dataset.Default(), view.Collapsed)
	if _, cmd := m.Update(keyQ); cmd == nil {
		t.Error("q should quit")
	}
}
