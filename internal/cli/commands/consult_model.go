package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aquastack-labs/fishdoc/internal/engine"
	"github.com/aquastack-labs/fishdoc/internal/kb"
)

type consultPhase int

const (
	phaseSpecies consultPhase = iota
	phaseSymptoms
	phaseCertainty
	phaseResult
)

var (
	consultTitleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	consultCursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	consultSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	consultHelpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).MarginTop(1)
	consultErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// consultModel drives the interactive consultation flow.
type consultModel struct {
	base *kb.KnowledgeBase
	eng  *engine.Engine

	phase consultPhase

	species    []string
	speciesIdx int

	symptoms []kb.Symptom
	cursor   int
	selected map[string]bool

	cfInput textinput.Model
	cfErr   string

	diag *engine.Diagnosis
}

func newConsultModel(base *kb.KnowledgeBase, eng *engine.Engine) consultModel {
	species := append([]string{"any"}, base.Species()...)

	input := textinput.New()
	input.Placeholder = "1.0"
	input.CharLimit = 5
	input.Width = 8

	return consultModel{
		base:     base,
		eng:      eng,
		species:  species,
		selected: make(map[string]bool),
		cfInput:  input,
	}
}

func (m consultModel) Init() tea.Cmd {
	return nil
}

func (m consultModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q":
		if m.phase != phaseCertainty || key.String() == "ctrl+c" {
			m.diag = nil
			return m, tea.Quit
		}
	}

	switch m.phase {
	case phaseSpecies:
		return m.updateSpecies(key)
	case phaseSymptoms:
		return m.updateSymptoms(key)
	case phaseCertainty:
		return m.updateCertainty(key)
	case phaseResult:
		if key.String() == "enter" || key.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m consultModel) updateSpecies(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		if m.speciesIdx > 0 {
			m.speciesIdx--
		}
	case "down", "j":
		if m.speciesIdx < len(m.species)-1 {
			m.speciesIdx++
		}
	case "enter":
		m.symptoms = m.relevantSymptoms()
		m.cursor = 0
		m.phase = phaseSymptoms
	}
	return m, nil
}

func (m consultModel) updateSymptoms(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.symptoms)-1 {
			m.cursor++
		}
	case " ":
		id := m.symptoms[m.cursor].ID
		m.selected[id] = !m.selected[id]
	case "enter":
		if len(m.observed()) == 0 {
			return m, nil
		}
		m.cfInput.Focus()
		m.phase = phaseCertainty
		return m, textinput.Blink
	}
	return m, nil
}

func (m consultModel) updateCertainty(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.String() == "enter" {
		cf, err := m.parsedCF()
		if err != nil {
			m.cfErr = err.Error()
			return m, nil
		}
		observed := m.observed()
		for id := range observed {
			observed[id] = cf
		}
		m.diag = m.eng.Diagnose(m.base, observed)
		m.phase = phaseResult
		return m, nil
	}

	var cmd tea.Cmd
	m.cfInput, cmd = m.cfInput.Update(key)
	m.cfErr = ""
	return m, cmd
}

func (m consultModel) View() string {
	var b strings.Builder

	switch m.phase {
	case phaseSpecies:
		b.WriteString(consultTitleStyle.Render("What species is the fish?"))
		b.WriteString("\n")
		for i, sp := range m.species {
			cursor := "  "
			if i == m.speciesIdx {
				cursor = consultCursorStyle.Render("> ")
			}
			b.WriteString(fmt.Sprintf("%s%s\n", cursor, sp))
		}
		b.WriteString(consultHelpStyle.Render("up/down to move, enter to select, q to quit"))

	case phaseSymptoms:
		b.WriteString(consultTitleStyle.Render("Which symptoms do you observe?"))
		b.WriteString("\n")
		for i, s := range m.symptoms {
			cursor := "  "
			if i == m.cursor {
				cursor = consultCursorStyle.Render("> ")
			}
			mark := "[ ]"
			if m.selected[s.ID] {
				mark = consultSelectedStyle.Render("[x]")
			}
			line := fmt.Sprintf("%s%s %s", cursor, mark, s.Name)
			if s.Question != "" && i == m.cursor {
				line += "  " + consultHelpStyle.Render(s.Question)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString(consultHelpStyle.Render("space to toggle, enter to continue, q to quit"))

	case phaseCertainty:
		b.WriteString(consultTitleStyle.Render("How certain are you overall? (0.0 - 1.0)"))
		b.WriteString("\n")
		b.WriteString(m.cfInput.View())
		b.WriteString("\n")
		if m.cfErr != "" {
			b.WriteString(consultErrorStyle.Render(m.cfErr))
			b.WriteString("\n")
		}
		b.WriteString(consultHelpStyle.Render("enter to diagnose, ctrl+c to quit"))

	case phaseResult:
		if m.diag == nil {
			break
		}
		if m.diag.Conclusive() {
			b.WriteString(consultTitleStyle.Render(fmt.Sprintf(
				"Diagnosis: %s (%.1f%%)", m.diag.ConclusionName, m.diag.CF*100)))
			b.WriteString("\n")
			if m.diag.Recommendation != "" {
				b.WriteString("Recommendation: " + m.diag.Recommendation + "\n")
			}
			if len(m.diag.UsedRules) > 0 {
				b.WriteString("Reasoning: " + m.diag.Path() + "\n")
			}
		} else {
			b.WriteString(consultTitleStyle.Render("No conclusive diagnosis"))
			b.WriteString("\n")
			b.WriteString(fmt.Sprintf("No disease reached the %.0f%% threshold.\n", m.diag.Threshold*100))
		}
		b.WriteString(consultHelpStyle.Render("enter to finish"))
	}

	return b.String() + "\n"
}

// relevantSymptoms returns the symptom checklist for the chosen species,
// sorted by descending weight so the strongest markers come first.
func (m consultModel) relevantSymptoms() []kb.Symptom {
	species := m.chosenSpecies()
	var out []kb.Symptom
	for _, s := range m.base.Symptoms {
		if species == "" || s.AppliesTo(species) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		wi, wj := out[i].EffectiveWeight(), out[j].EffectiveWeight()
		if wi != wj {
			return wi > wj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// chosenSpecies returns the selected species, or "" for "any".
func (m consultModel) chosenSpecies() string {
	if m.speciesIdx == 0 {
		return ""
	}
	return m.species[m.speciesIdx]
}

// observed returns the toggled symptoms with certainty 1.0.
func (m consultModel) observed() map[string]float64 {
	out := make(map[string]float64)
	for id, on := range m.selected {
		if on {
			out[id] = 1.0
		}
	}
	return out
}

func (m consultModel) parsedCF() (float64, error) {
	text := strings.TrimSpace(m.cfInput.Value())
	if text == "" {
		return 1.0, nil
	}
	cf, err := strconv.ParseFloat(text, 64)
	if err != nil || cf < 0 || cf > 1 {
		return 0, fmt.Errorf("enter a number between 0.0 and 1.0")
	}
	return cf, nil
}
