package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/freefall/internal/dynamo"
)

const (
	shaftHeight = 16
	maxSpeed    = 64
)

type TickMsg time.Time

// Replay steps through a finished run at a configurable speed. Each series
// stops advancing at its own last sample.
type Replay struct {
	result   *dynamo.Result
	fps      int
	speed    int
	index    int
	running  bool
	finished bool
}

func NewReplay(r *dynamo.Result, fps int) Replay {
	if fps <= 0 {
		fps = 30
	}
	// aim for the run to replay in roughly real time
	speed := int(1 / (r.Config.Dt * float64(fps)))
	speed = min(max(speed, 1), maxSpeed)
	return Replay{
		result:  r,
		fps:     fps,
		speed:   speed,
		running: true,
	}
}

func (m Replay) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Replay) Init() tea.Cmd {
	return m.tick()
}

func (m Replay) last() int {
	return max(m.result.Drag.Len(), m.result.Vacuum.Len()) - 1
}

func (m Replay) Index() int { return m.index }

func (m Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.index = 0
			m.finished = false
			m.running = true
		case "]":
			if !m.running {
				m.index = min(m.index+1, m.last())
			}
		case "[":
			if !m.running {
				m.index = max(m.index-1, 0)
			}
		case "+", "=":
			m.speed = min(m.speed*2, maxSpeed)
		case "-":
			m.speed = max(m.speed/2, 1)
		}
		return m, nil

	case TickMsg:
		if m.running && !m.finished {
			m.index += m.speed
			if m.index >= m.last() {
				m.index = m.last()
				m.finished = true
			}
		}
		return m, m.tick()
	}

	return m, nil
}

// sampleAt clamps i to the series length.
func sampleAt(s dynamo.TimeSeries, i int) dynamo.Sample {
	return s.At(min(i, s.Len()-1))
}

func (m Replay) View() string {
	drag := sampleAt(m.result.Drag, m.index)
	vacuum := sampleAt(m.result.Vacuum, m.index)
	h := m.result.Config.InitialHeight

	rowOf := func(x float64) int {
		if h <= 0 {
			return shaftHeight - 1
		}
		row := int((1 - x/h) * float64(shaftHeight-1))
		return min(max(row, 0), shaftHeight-1)
	}
	dragRow, vacuumRow := rowOf(drag.Position), rowOf(vacuum.Position)

	var shaft strings.Builder
	for row := 0; row < shaftHeight; row++ {
		d, v := "   ", "   "
		if row == dragRow {
			d = DragStyle.Render(" ● ")
		}
		if row == vacuumRow {
			v = VacuumStyle.Render(" ● ")
		}
		shaft.WriteString("│" + d + "│" + v + "│\n")
	}
	shaft.WriteString("┴───┴───┴ ground")

	status := StatusRunning.Render("▶ PLAYING")
	switch {
	case m.finished:
		status = Subtle.Render("■ DONE")
	case !m.running:
		status = StatusPaused.Render("⏸ PAUSED")
	}

	progress := float64(m.index) / float64(max(m.last(), 1))
	n := min(m.index+1, m.result.Drag.Len())

	stats := strings.Join([]string{
		GradientTitle.Render("freefall replay") + "  " + status,
		"",
		MetricLabel.Render("time      ") + fmt.Sprintf("%.3f s", float64(m.index)*m.result.Config.Dt),
		DragStyle.Render("drag      ") + fmt.Sprintf("x=%8.2f m  v=%6.2f m/s", drag.Position, drag.Velocity),
		VacuumStyle.Render("no drag   ") + fmt.Sprintf("x=%8.2f m  v=%6.2f m/s", vacuum.Position, vacuum.Velocity),
		"",
		MetricLabel.Render("drag v    ") + Sparkline(m.result.Drag.Velocity[:n], 30),
		MetricLabel.Render("progress  ") + ProgressBar(progress, 30),
		MetricLabel.Render("speed     ") + fmt.Sprintf("%dx", m.speed),
		"",
		KeyHint.Render("space pause · [ ] step · + - speed · r restart · q quit"),
	}, "\n")

	return GlassPanel.Render(shaft.String() + "\n\n" + stats)
}
