// Package report turns a finished run into the numbers and text a person
// reads: rounded final samples for both models and a short summary.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/freefall/internal/dynamo"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff"))

	dragStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff"))

	vacuumStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffaa00"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666688")).
			Italic(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)
)

// Summary holds the reported scalars of one run.
type Summary struct {
	Name      string
	Height    float64
	Precision int
	Drag      dynamo.Sample
	Vacuum    dynamo.Sample
	Impacted  bool
	Terminal  float64
	Policy    dynamo.TruncationPolicy
}

func NewSummary(name string, r *dynamo.Result) Summary {
	return Summary{
		Name:      name,
		Height:    r.Config.InitialHeight,
		Precision: Precision(r.Config.Dt),
		Drag:      r.DragFinal,
		Vacuum:    r.VacuumFinal,
		Impacted:  r.Impacted,
		Terminal:  r.Config.TerminalVelocity(),
		Policy:    r.Config.Policy,
	}
}

func (s Summary) f(v float64) string { return Decimal(v, s.Precision) }

// Lines returns the plain-text summary.
func (s Summary) Lines() []string {
	lines := []string{
		fmt.Sprintf("Results for a free falling %s dropped from x = %s m:", s.Name, s.f(s.Height)),
		fmt.Sprintf("Acknowledging air resistance, at x = %s m,", s.f(s.Drag.Position)),
		fmt.Sprintf("t = %s s, v = %s m/s (with drag).", s.f(s.Drag.Time), s.f(s.Drag.Velocity)),
		fmt.Sprintf("Ignoring air resistance, at x = %s m,", s.f(s.Vacuum.Position)),
		fmt.Sprintf("t = %s s, v = %s m/s (no drag).", s.f(s.Vacuum.Time), s.f(s.Vacuum.Velocity)),
	}
	if !s.Impacted {
		lines = append(lines, "The ball had not reached the ground when the run ended.")
	}
	return lines
}

func (s Summary) String() string {
	return strings.Join(s.Lines(), "\n")
}

// Render draws the summary in a bordered panel.
func (s Summary) Render() string {
	lines := s.Lines()

	var b strings.Builder
	b.WriteString(titleStyle.Render(lines[0]))
	b.WriteString("\n")
	b.WriteString(dragStyle.Render(lines[1] + " " + lines[2]))
	b.WriteString("\n")
	b.WriteString(vacuumStyle.Render(lines[3] + " " + lines[4]))

	note := fmt.Sprintf("policy %s", s.Policy)
	if s.Terminal > 0 && s.Terminal < 1e300 {
		note += fmt.Sprintf(", terminal velocity %s m/s", s.f(s.Terminal))
	}
	for _, extra := range lines[5:] {
		note += "\n" + extra
	}
	b.WriteString("\n")
	b.WriteString(noteStyle.Render(note))

	return panelStyle.Render(b.String())
}
