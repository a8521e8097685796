// Package patinput prompts for a Personal Access Token in the terminal.
package patinput

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Elpulgo/azdo-prtree/internal/ui/styles"
)

// ErrCancelled is returned by Prompt when the user quits without submitting.
var ErrCancelled = errors.New("PAT entry cancelled")

// PATSubmittedMsg is sent when a PAT has been successfully submitted
type PATSubmittedMsg struct {
	PAT string
}

// Model represents the PAT input view model
type Model struct {
	textInput textinput.Model
	intro     string
	err       string
	submitted bool

	titleStyle lipgloss.Style
	helpStyle  lipgloss.Style
	errorStyle lipgloss.Style
}

// NewModel creates a new PAT input model. intro is shown above the input.
func NewModel(intro string, st *styles.Styles) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter your Azure DevOps Personal Access Token"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'

	return Model{
		textInput:  ti,
		intro:      intro,
		titleStyle: st.Title,
		helpStyle:  st.Muted,
		errorStyle: st.Error.Bold(true),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			pat := strings.TrimSpace(m.textInput.Value())
			if pat == "" {
				m.err = "PAT cannot be empty"
				return m, nil
			}

			m.submitted = true
			m.err = ""
			return m, tea.Batch(
				func() tea.Msg { return PATSubmittedMsg{PAT: pat} },
				tea.Quit,
			)

		case tea.KeyEsc, tea.KeyCtrlC:
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the PAT input view
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Render("Azure DevOps Personal Access Token Setup") + "\n\n")
	b.WriteString(m.intro + "\n\n")
	b.WriteString(m.helpStyle.Render("Required scopes: Code (Read & Write), Project and Team (Read)") + "\n\n")
	b.WriteString(m.textInput.View() + "\n\n")

	if m.err != "" {
		b.WriteString(m.errorStyle.Render("Error: "+m.err) + "\n\n")
	}

	b.WriteString(m.helpStyle.Render("Press Enter to submit • Esc to quit"))

	return b.String()
}

// GetPAT returns the entered PAT value without surrounding whitespace
func (m Model) GetPAT() string {
	return strings.TrimSpace(m.textInput.Value())
}

// Submitted reports whether a non-empty PAT was accepted.
func (m Model) Submitted() bool {
	return m.submitted
}

// Prompt runs the input as a bubbletea program on in and out and returns the
// submitted PAT, or ErrCancelled.
func Prompt(in io.Reader, out io.Writer, intro string, st *styles.Styles) (string, error) {
	program := tea.NewProgram(NewModel(intro, st), tea.WithInput(in), tea.WithOutput(out))

	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("failed to run PAT prompt: %w", err)
	}

	m, ok := final.(Model)
	if !ok || !m.Submitted() {
		return "", ErrCancelled
	}
	return m.GetPAT(), nil
}
