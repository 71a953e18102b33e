package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cast"

	"github.com/kydenul/word2vec"
)

const (
	defaultNearest  = 10
	defaultAccuracy = 0.8
)

// Querier is the TUI-facing subset of a trained model
type Querier interface {
	HasWord(word string) bool
	WordsNearest(word string, n int) []string
	Similarity(word1, word2 string) float64
	Analogy(a, b, c string) []word2vec.VocabWord
	SimilarWordsInVocabTo(word string, accuracy float64) []string
}

var _ Querier = (*word2vec.Word2Vec)(nil)

const commands = "near <word> [n] | sim <a> <b> | analogy <a> <b> <c> | like <word> [accuracy]"

// ErrUsage is returned for malformed commands
var ErrUsage = errors.New("usage: " + commands)

// Model is the Bubble Tea model of the query console
type Model struct {
	model    Querier
	input    textinput.Model
	viewport viewport.Model
	summary  string
	status   string
	output   string
	history  []string
	cursor   int
	ready    bool
}

// New creates a console over model
func New(model Querier, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "near king 5 | sim cat dog | analogy man king woman | like color"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{model: model, input: ti, viewport: vp, summary: summary, status: "Model loaded. Type a command."}
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderOutput())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			if line == "quit" || line == "exit" {
				return m, tea.Quit
			}

			out, err := Execute(m.model, line)
			if err != nil {
				m.status = "Error: " + err.Error()
			} else {
				m.status = fmt.Sprintf("Results for %q", line)
				m.output = out
			}
			m.history = append(m.history, line)
			m.cursor = len(m.history)
			m.input.SetValue("")
			m.viewport.SetContent(m.renderOutput())
			return m, nil
		case "up":
			if m.cursor > 0 {
				m.cursor--
				m.input.SetValue(m.history[m.cursor])
				m.input.CursorEnd()
			}
			return m, nil
		case "down":
			if m.cursor < len(m.history)-1 {
				m.cursor++
				m.input.SetValue(m.history[m.cursor])
				m.input.CursorEnd()
			} else {
				m.cursor = len(m.history)
				m.input.SetValue("")
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the console
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("word2vec")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderOutput() string {
	if m.output == "" {
		return strings.ReplaceAll(commands, " | ", "\n")
	}
	return m.output
}

// Execute runs one console command against model and renders its result
func Execute(model Querier, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", ErrUsage
	}

	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "near":
		if len(args) < 1 || len(args) > 2 {
			return "", ErrUsage
		}
		n := defaultNearest
		if len(args) == 2 {
			v, err := cast.ToIntE(args[1])
			if err != nil || v <= 0 {
				return "", fmt.Errorf("%w: n must be a positive integer", ErrUsage)
			}
			n = v
		}
		return renderWords(model, args[0], model.WordsNearest(args[0], n)), nil

	case "sim":
		if len(args) != 2 {
			return "", ErrUsage
		}
		return fmt.Sprintf("similarity(%s, %s) = %.4f", args[0], args[1], model.Similarity(args[0], args[1])), nil

	case "analogy":
		if len(args) != 3 {
			return "", ErrUsage
		}
		return renderScored(model.Analogy(args[0], args[1], args[2])), nil

	case "like":
		if len(args) < 1 || len(args) > 2 {
			return "", ErrUsage
		}
		accuracy := defaultAccuracy
		if len(args) == 2 {
			v, err := cast.ToFloat64E(args[1])
			if err != nil || v < 0 || v > 1 {
				return "", fmt.Errorf("%w: accuracy must be in [0, 1]", ErrUsage)
			}
			accuracy = v
		}
		return renderList(model.SimilarWordsInVocabTo(args[0], accuracy)), nil

	default:
		return "", fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func renderWords(model Querier, word string, words []string) string {
	var b strings.Builder
	if !model.HasWord(word) {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%q is not in the vocabulary, using %s", word, word2vec.UnknownWord)))
		b.WriteString("\n")
	}
	for i, w := range words {
		fmt.Fprintf(&b, "%2d. %-20s %.4f\n", i+1, w, model.Similarity(word, w))
	}
	if len(words) == 0 {
		b.WriteString("No results.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderScored(words []word2vec.VocabWord) string {
	if len(words) == 0 {
		return "No results."
	}
	var b strings.Builder
	for i, w := range words {
		fmt.Fprintf(&b, "%2d. %-20s %.4f\n", i+1, w.Word, w.Score)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderList(words []string) string {
	if len(words) == 0 {
		return "No results."
	}
	return strings.Join(words, "\n")
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
