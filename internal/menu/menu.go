// Package menu renders the account menu and keeps it in sync with vault
// state. The interactive menu is a terminal UI; a plain listing is
// provided for non-TTY use.
package menu

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/benaskins/roost/internal/bridge"
	"github.com/benaskins/roost/internal/vault"
)

var (
	activeMarkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).PaddingLeft(2)
)

// item adapts a vault account row to the list widget.
type item struct {
	info vault.AccountInfo
}

func (i item) Title() string {
	if i.info.Active {
		return activeMarkStyle.Render("● ") + i.info.Username
	}
	return "  " + i.info.Username
}

func (i item) Description() string { return i.info.ID }
func (i item) FilterValue() string { return i.info.Username }

// resultMsg carries a completed bridge command back into the UI loop.
type resultMsg bridge.Result

// Model is the interactive account menu.
type Model struct {
	list   list.Model
	vault  *vault.Vault
	bridge *bridge.Bridge
	status string
}

// NewModel builds the menu from the current vault snapshot.
func NewModel(v *vault.Vault, b *bridge.Bridge) Model {
	l := list.New(accountItems(v), list.NewDefaultDelegate(), 0, 0)
	l.Title = "Accounts"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return Model{list: l, vault: v, bridge: b}
}

func accountItems(v *vault.Vault) []list.Item {
	accounts := v.Accounts()
	items := make([]list.Item, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, item{info: a})
	}
	return items
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-1)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if sel, ok := m.list.SelectedItem().(item); ok {
				return m, m.switchCmd(sel.info.ID)
			}
		case "x":
			return m, m.removeCmd()
		}

	case resultMsg:
		if msg.Err != nil {
			m.status = msg.Err.Error()
		} else {
			m.status = ""
		}
		m.list.SetItems(accountItems(m.vault))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	s := m.list.View()
	if m.status != "" {
		s += "\n" + statusStyle.Render(m.status)
	}
	return s
}

func (m Model) switchCmd(accountID string) tea.Cmd {
	return func() tea.Msg {
		ch := make(chan bridge.Result, 1)
		m.bridge.RequestSwitch(accountID, func(r bridge.Result) { ch <- r })
		return resultMsg(<-ch)
	}
}

func (m Model) removeCmd() tea.Cmd {
	return func() tea.Msg {
		ch := make(chan bridge.Result, 1)
		m.bridge.RequestRemove(func(r bridge.Result) { ch <- r })
		return resultMsg(<-ch)
	}
}

// Run starts the interactive menu and blocks until the user quits.
func Run(v *vault.Vault, b *bridge.Bridge) error {
	_, err := tea.NewProgram(NewModel(v, b), tea.WithAltScreen()).Run()
	return err
}

// Fprint writes a plain account listing for non-TTY output.
func Fprint(w io.Writer, v *vault.Vault) {
	accounts := v.Accounts()
	if len(accounts) == 0 {
		fmt.Fprintln(w, "No accounts")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tUSERNAME\tID")
	for _, a := range accounts {
		mark := ""
		if a.Active {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", mark, a.Username, a.ID)
	}
	tw.Flush()
}
