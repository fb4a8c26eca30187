package viz

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/geo/r2"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/hull"
	"github.com/san-kum/walkgen/internal/models"
	"github.com/san-kum/walkgen/internal/walk"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	trailCapacity   = 2000

	velocityStep = 0.05
	yawStep      = 0.1
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// Model drives an online generator from the keyboard and draws the walk
// from above.
type Model struct {
	gen   *walk.Online
	robot models.Robot
	ref   dynamo.Velocity
	t     float64

	canvas *Canvas
	view   Viewport
	com    []r2.Point
	zmp    []r2.Point
	steps  []hull.Polygon
	speed  []float64
	phase  string

	running   bool
	err       error
	showHelp  bool
	recording bool
	frames    []*image.Paletted
}

func NewModel(gen *walk.Online, robot models.Robot, ref dynamo.Velocity) Model {
	return Model{
		gen:     gen,
		robot:   robot,
		ref:     ref,
		canvas:  NewCanvas(width, height),
		view:    Viewport{Scale: 60},
		speed:   make([]float64, 0, historyCapacity),
		running: true,
	}
}

func (m Model) tick() tea.Cmd {
	period := time.Duration(m.gen.Options().Period * float64(time.Second))
	return tea.Tick(period, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles key presses and runs one cycle per tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "up", "k":
			m.ref.X += velocityStep
		case "down", "j":
			m.ref.X -= velocityStep
		case "left", "h":
			m.ref.Y += velocityStep
		case "right", "l":
			m.ref.Y -= velocityStep
		case "a":
			m.ref.Yaw += yawStep
		case "d":
			m.ref.Yaw -= yawStep
		case "0":
			m.ref = dynamo.Velocity{}
		case "g":
			if m.recording {
				m.saveGIF()
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			NextTheme()
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, m.tick()
	}
	return m, nil
}

// step runs one preview cycle.
func (m *Model) step() {
	out, err := m.gen.Cycle(context.Background(), m.t, m.ref)
	if err != nil {
		m.err = err
		return
	}
	m.t += m.gen.Options().Period

	for i := range out.CoM {
		m.com = append(m.com, r2.Point{X: out.CoM[i].X[0], Y: out.CoM[i].Y[0]})
		m.zmp = append(m.zmp, r2.Point{X: out.ZMP[i].Px, Y: out.ZMP[i].Py})
	}
	if len(m.com) > trailCapacity {
		m.com = m.com[len(m.com)-trailCapacity:]
		m.zmp = m.zmp[len(m.zmp)-trailCapacity:]
	}
	if out.Landed != nil {
		foot := dynamo.LeftFoot
		if out.Landed.StepType == dynamo.StepRight {
			foot = dynamo.RightFoot
		}
		if p := FootOutline(m.robot, foot, *out.Landed); p != nil {
			m.steps = append(m.steps, p)
		}
	}
	if len(m.steps) > 12 {
		m.steps = m.steps[1:]
	}

	last := out.CoM[len(out.CoM)-1]
	m.speed = append(m.speed, last.X[1])
	if len(m.speed) > historyCapacity {
		m.speed = m.speed[1:]
	}
	m.phase = out.Support.Phase.String()
}

func (m *Model) reset() {
	m.gen.Reset(0, 0, 0)
	m.t = 0
	m.err = nil
	m.com, m.zmp, m.steps = m.com[:0], m.zmp[:0], m.steps[:0]
	m.speed = m.speed[:0]
	m.view = Viewport{Scale: m.view.Scale}
}

func (m *Model) draw() {
	m.canvas.Clear()
	feet := m.gen.Feet()
	scene := Scene{CoM: m.com, ZMP: m.zmp, Footsteps: m.steps}
	scene.Footsteps = append(scene.Footsteps,
		FootOutline(m.robot, dynamo.LeftFoot, feet.Left),
		FootOutline(m.robot, dynamo.RightFoot, feet.Right))
	if len(m.com) > 0 {
		m.view.Follow(m.canvas, m.com[len(m.com)-1])
	}
	scene.Draw(m.canvas, m.view)
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	theme := CurrentTheme
	canvasView := canvasStyle.Foreground(theme.Ground).Render(m.canvas.String())

	status := lipgloss.NewStyle().Bold(true).Foreground(theme.Walking).Render("WALKING")
	switch {
	case m.err != nil:
		status = lipgloss.NewStyle().Bold(true).Foreground(theme.Failed).Render("FAILED")
	case !m.running:
		status = lipgloss.NewStyle().Bold(true).Foreground(theme.Paused).Render("PAUSED")
	}

	var s strings.Builder
	s.WriteString(lipgloss.NewStyle().Foreground(theme.Title).Bold(true).MarginBottom(1).Render("WALKGEN") + "\n")
	s.WriteString(status + "\n\n")
	if len(m.speed) > 1 {
		chart := asciigraph.Plot(m.speed, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("CoM vx"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.t))
	row("Support", m.phase)
	row("Ref vx", fmt.Sprintf("%+.2f m/s", m.ref.X))
	row("Ref vy", fmt.Sprintf("%+.2f m/s", m.ref.Y))
	row("Ref yaw", fmt.Sprintf("%+.2f rad/s", m.ref.Yaw))
	row("Steps", fmt.Sprintf("%d", len(m.steps)))
	if n := len(m.zmp); n > 0 {
		ys := make([]float64, 0, 200)
		for _, p := range m.zmp[max(0, n-200):] {
			ys = append(ys, p.Y)
		}
		row("ZMP y", SparklineChart(ys, 28))
	}
	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.Failed).Width(40).Render(m.err.Error()) + "\n")
	}
	if m.recording {
		s.WriteString(lipgloss.NewStyle().Foreground(theme.Failed).Render("● REC") + "\n")
	}
	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\n↑↓:vx ←→:vy A/D:yaw 0:stop"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset the robot          ║
║  Q        - Quit                     ║
║  Up/K     - Forward speed +0.05      ║
║  Down/J   - Forward speed -0.05      ║
║  Left/H   - Lateral speed +0.05      ║
║  Right/L  - Lateral speed -0.05      ║
║  A / D    - Turn left / right        ║
║  0        - Stop                     ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

func (m *Model) captureFrame() {
	charW, charH := 8, 16
	img := image.NewPaletted(image.Rect(0, 0, m.canvas.Width*charW, m.canvas.Height*charH), color.Palette{color.Black, color.White})
	dotW, dotH := charW/2, charH/4
	w, h := m.canvas.Pixels()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !m.canvas.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() {
	if len(m.frames) == 0 {
		return
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 10)
	}
	f, err := os.Create("walk.gif")
	if err != nil {
		return
	}
	defer f.Close()
	gif.EncodeAll(f, &anim)
}

// Run starts the live view in the alternate screen.
func Run(gen *walk.Online, robot models.Robot, ref dynamo.Velocity) error {
	_, err := tea.NewProgram(NewModel(gen, robot, ref), tea.WithAltScreen()).Run()
	return err
}
