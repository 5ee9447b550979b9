package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkatlas/pkg/atlas"
	"github.com/matzehuels/linkatlas/pkg/graph"
	"github.com/matzehuels/linkatlas/pkg/pipeline"
	"github.com/matzehuels/linkatlas/pkg/view"
)

var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// tuiCommand creates the tui command, a terminal counterpart of the page.
func (c *CLI) tuiCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the link graph in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := view.ParseMode(mode)
			if err != nil {
				return err
			}
			a, _, err := c.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			p := tea.NewProgram(NewNodeListModel(a, m),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
				tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", pipeline.DefaultMode, "initial view mode: detailed, collapsed")
	return cmd
}

// =============================================================================
// NodeListModel - Interactive node browser
// =============================================================================

// NodeListModel is the bubbletea model of the node browser. It lists the
// nodes of the current view; enter shows a node's info and t toggles between
// the detailed and collapsed views.
type NodeListModel struct {
	Atlas  *atlas.Atlas
	State  view.State
	Graph  graph.Graph
	Degree map[string]int

	Cursor int
	Offset int
	Height int

	Info *view.Info
	Err  error
}

// NewNodeListModel creates a browser showing a in mode m.
func NewNodeListModel(a *atlas.Atlas, m view.Mode) NodeListModel {
	model := NodeListModel{Atlas: a, State: view.NewState(m), Height: 15}
	model.rebuild()
	return model
}

func (m *NodeListModel) rebuild() {
	m.Graph = m.State.Graph(m.Atlas)
	m.Degree = m.Graph.Degree()
}

// Current returns the node under the cursor.
func (m NodeListModel) Current() (graph.Node, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Graph.Nodes) {
		return graph.Node{}, false
	}
	return m.Graph.Nodes[m.Cursor], true
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.Info != nil || m.Err != nil {
				m.Info, m.Err = nil, nil
				return m, nil
			}
			return m, tea.Quit
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Graph.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if n, ok := m.Current(); ok {
				info, err := view.Describe(m.Atlas, n.ID)
				m.Info, m.Err = &info, err
				if err != nil {
					m.Info = nil
				}
			}
		case "t":
			m.toggle()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-14, 5)
	}
	return m, nil
}

// toggle switches the view and keeps the cursor on the same node when it is
// still visible.
func (m *NodeListModel) toggle() {
	var current string
	if n, ok := m.Current(); ok {
		current = n.ID
	}
	m.State.Toggle()
	m.rebuild()

	m.Cursor = 0
	if i, ok := m.Graph.Index()[current]; ok {
		m.Cursor = i
	} else {
		m.Info = nil
	}
	m.Offset = max(0, min(m.Offset, m.Cursor))
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m NodeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Link Atlas") + "  " + listDimStyle.Render(view.Summary(m.Graph)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ inspect  t toggle view  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Graph.Nodes))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Graph.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			renderName(n.DisplayName(), n.Group, n.Fuzzy),
			atlas.Group(n.Group).String(),
			fmt.Sprint(m.Degree[n.ID]),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Group", "Edges").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Bold(true)
			}
			if col >= 2 {
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %s", m.Cursor+1, len(m.Graph.Nodes), m.State.Mode)))
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(panelStyle.Render(StyleWarning.Render(m.Err.Error())))
	case m.Info != nil:
		b.WriteString(panelStyle.Render(infoPanel(*m.Info)))
	}
	return b.String()
}

// infoPanel is the name and description panel shown on enter.
func infoPanel(info view.Info) string {
	lines := []string{StyleTitle.Render(info.Name)}
	if info.Description != "" {
		lines = append(lines, StyleValue.Render(info.Description))
	}
	for _, kv := range []struct {
		key   string
		items []string
	}{
		{"links", info.Links},
		{"parents", info.Parents},
		{"children", info.Children},
		{"games", info.Artifacts},
	} {
		if len(kv.items) > 0 {
			lines = append(lines, StyleDim.Render(kv.key+": ")+strings.Join(kv.items, ", "))
		}
	}
	return strings.Join(lines, "\n")
}
