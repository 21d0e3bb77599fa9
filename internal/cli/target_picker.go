package cli

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// pickerPageSize is the number of candidates visible at once.
const pickerPageSize = 15

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	pickerCursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	pickerSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	pickerFilterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	pickerHelpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type targetPickerModel struct {
	files    []string
	filter   string
	visible  []int
	cursor   int
	selected map[int]bool

	confirmed bool
	cancelled bool
}

func newTargetPickerModel(files []string) targetPickerModel {
	m := targetPickerModel{
		files:    files,
		selected: make(map[int]bool),
	}
	m.applyFilter()
	return m
}

func (m *targetPickerModel) applyFilter() {
	m.visible = m.visible[:0]
	needle := strings.ToLower(m.filter)
	for i, f := range m.files {
		if needle == "" || strings.Contains(strings.ToLower(f), needle) {
			m.visible = append(m.visible, i)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m targetPickerModel) Init() tea.Cmd {
	return nil
}

func (m targetPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyEnter:
		if len(m.selected) == 0 && len(m.visible) > 0 {
			m.selected[m.visible[m.cursor]] = true
		}
		m.confirmed = true
		return m, tea.Quit
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case tea.KeySpace:
		if len(m.visible) > 0 {
			idx := m.visible[m.cursor]
			if m.selected[idx] {
				delete(m.selected, idx)
			} else {
				m.selected[idx] = true
			}
		}
	case tea.KeyBackspace:
		if m.filter != "" {
			_, size := utf8.DecodeLastRuneInString(m.filter)
			m.filter = m.filter[:len(m.filter)-size]
			m.applyFilter()
		}
	case tea.KeyRunes:
		m.filter += string(key.Runes)
		m.applyFilter()
	}
	return m, nil
}

func (m targetPickerModel) View() string {
	if m.confirmed || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render(" Add target files "))
	b.WriteString("\n\n")
	b.WriteString(pickerFilterStyle.Render("filter: " + m.filter))
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString("  No matching files.\n")
	}

	start := 0
	if m.cursor >= pickerPageSize {
		start = m.cursor - pickerPageSize + 1
	}
	end := min(start+pickerPageSize, len(m.visible))
	for pos := start; pos < end; pos++ {
		idx := m.visible[pos]
		cursor := "  "
		if pos == m.cursor {
			cursor = pickerCursorStyle.Render("> ")
		}
		check := "[ ]"
		name := m.files[idx]
		if m.selected[idx] {
			check = "[x]"
			name = pickerSelectedStyle.Render(name)
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, check, name)
	}

	b.WriteString("\n")
	b.WriteString(pickerHelpStyle.Render("type to filter | up/down: move | space: toggle | enter: add | esc: cancel"))
	return b.String()
}

// choices returns the selected files in list order.
func (m targetPickerModel) choices() []string {
	idx := make([]int, 0, len(m.selected))
	for i := range m.selected {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = m.files[j]
	}
	return out
}

func runTargetPicker(files []string) ([]string, error) {
	final, err := tea.NewProgram(newTargetPickerModel(files)).Run()
	if err != nil {
		return nil, fmt.Errorf("running picker: %w", err)
	}
	m := final.(targetPickerModel)
	if m.cancelled {
		return nil, fmt.Errorf("cancelled")
	}
	return m.choices(), nil
}
