package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Launcher builds the live model for a menu entry.
type Launcher func(name string) (Model, error)

// MenuItem is one selectable flight.
type MenuItem struct {
	Name        string
	Description string
}

// Menu lists flights and hands over to a live Model once one is picked. Esc
// in the live view returns to the menu.
type Menu struct {
	items  []MenuItem
	launch Launcher
	cursor int
	err    error

	flying bool
	live   Model
	styles Styles
}

func NewMenu(items []MenuItem, launch Launcher) Menu {
	return Menu{
		items:  items,
		launch: launch,
		styles: Themes[0].Styles(),
	}
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.flying {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			m.flying = false
			return m, nil
		}
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.items) == 0 {
			return m, nil
		}
		live, err := m.launch(m.items[m.cursor].Name)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.live = live
		m.flying = true
		return m, live.Init()
	}
	return m, nil
}

func (m Menu) View() string {
	if m.flying {
		return m.live.View() + "\n" + m.styles.Help.Render("esc back to menu")
	}

	st := m.styles
	var s strings.Builder
	s.WriteString(st.Header.Render("DRONESIM") + "\n\n")
	for i, it := range m.items {
		line := fmt.Sprintf("%-10s %s", it.Name, it.Description)
		if i == m.cursor {
			s.WriteString(st.Active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.Value.Render(line) + "\n")
		}
	}
	if m.err != nil {
		s.WriteString("\n" + st.Alert.Render(m.err.Error()) + "\n")
	}
	s.WriteString(st.Help.Render("↑↓ select  enter fly  q quit"))
	return s.String()
}

// Flying reports whether the live view is active.
func (m Menu) Flying() bool { return m.flying }
