package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/image/font/basicfont"

	"github.com/Andrewnolan13/Nbody-Simulation/pkg/physics"
	"github.com/Andrewnolan13/Nbody-Simulation/pkg/simulation"
)

const (
	trailLength    = 40   // positions kept per body
	maxTrailBodies = 2000 // trails are skipped above this many bodies
	minDrawRadius  = 1.0
	pickSlack      = 4 // pixels added to a body's radius when clicking

	// force graph
	forceHistoryMax = 600
	graphW          = 360
	graphH          = 120
)

var (
	bodyColor     = color.RGBA{200, 200, 255, 255}
	heaviestColor = color.RGBA{255, 210, 120, 255}
	trailColor    = color.RGBA{90, 90, 140, 160}
	panelColor    = color.RGBA{20, 20, 30, 200}
	textColor     = color.RGBA{220, 220, 240, 255}
	selAColor     = color.RGBA{120, 255, 120, 255}
	selBColor     = color.RGBA{255, 120, 255, 255}
	graphBgColor  = color.RGBA{8, 8, 16, 200}
	gridColor     = color.RGBA{40, 40, 60, 120}
	zeroColor     = color.RGBA{150, 150, 150, 140}
)

type viewOpts struct {
	scenario string
	scale    float64
}

func newViewCommand() *cobra.Command {
	opts := viewOpts{}

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open a window and render the simulation step by step",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, sim, err := loadSimulator(opts.scenario)
			if err != nil {
				return err
			}
			g := newGame(sc, sim, opts)
			ebiten.SetWindowSize(g.width, g.height)
			ebiten.SetWindowTitle("N-body simulation - " + sim.Name)
			ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
			return ebiten.RunGame(g)
		},
	}
	scenarioFlag(cmd.Flags(), &opts.scenario)
	cmd.Flags().Float64Var(&opts.scale, "scale", 1, "Window size relative to the scenario width and height")
	return cmd
}

// --- Selection ---

// selection holds up to two picked bodies; -1 marks an empty slot.
type selection struct {
	a, b int
}

func noSelection() selection {
	return selection{a: -1, b: -1}
}

// click applies a click on body i and reports whether the selection changed.
// The first click picks A and the second picks B. Clicking A again clears
// everything, clicking B clears B, and any other body starts over as A.
func (s *selection) click(i int) bool {
	prev := *s
	switch {
	case s.a == -1:
		s.a = i
	case s.b == -1:
		if i == s.a {
			s.a = -1
		} else {
			s.b = i
		}
	case i == s.a:
		*s = noSelection()
	case i == s.b:
		s.b = -1
	default:
		*s = selection{a: i, b: -1}
	}
	return *s != prev
}

// forceHistory is the plotted force, newest last, capped at forceHistoryMax.
type forceHistory struct {
	mag, fx, fy []float64
}

func (h *forceHistory) record(f physics.Vec2) {
	h.mag = appendCapped(h.mag, float64(f.Len()))
	h.fx = appendCapped(h.fx, float64(f.X))
	h.fy = appendCapped(h.fy, float64(f.Y))
}

func (h *forceHistory) reset() {
	*h = forceHistory{}
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > forceHistoryMax {
		s = s[len(s)-forceHistoryMax:]
	}
	return s
}

// --- Game ---

// Game renders the frame of the last completed step; Update is the only
// place the simulation advances, so drawing never sees a half-done step.
// Nothing in the viewer writes to the store.
type Game struct {
	sc  *simulation.Scenario
	sim *simulation.Simulator

	width, height int
	scale         float32
	frame         simulation.Frame
	trails        [][]physics.Vec2

	sel            selection
	history        forceHistory
	showComponents bool

	paused           bool
	shortcutsVisible bool
	scenarioPath     string
}

func newGame(sc *simulation.Scenario, sim *simulation.Simulator, opts viewOpts) *Game {
	scale := opts.scale
	if scale <= 0 {
		scale = 1
	}
	g := &Game{
		width:            int(float64(sc.Width) * scale),
		height:           int(float64(sc.Height) * scale),
		scale:            float32(scale),
		shortcutsVisible: true,
		scenarioPath:     opts.scenario,
	}
	g.reset(sc, sim)
	return g
}

func (g *Game) reset(sc *simulation.Scenario, sim *simulation.Simulator) {
	g.sc = sc
	g.sim = sim
	g.frame = sim.Frame().Scaled(sc.Width, sc.Height)
	g.trails = make([][]physics.Vec2, sim.Store.Len())
	g.sel = noSelection()
	g.history.reset()
	g.paused = false
}

// Update ---
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.shortcutsVisible = !g.shortcutsVisible
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.showComponents = !g.showComponents
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.reload(); err != nil {
			logrus.WithError(err).Error("reset failed")
		}
		return nil
	}

	// body selection works while paused too
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		if i := g.pick(float32(mx), float32(my)); i >= 0 && g.sel.click(i) {
			g.history.reset()
		}
	}

	if g.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			g.advanceOneStep()
		}
		return nil
	}
	g.advanceOneStep()
	return nil
}

func (g *Game) advanceOneStep() {
	g.sim.Update()
	g.frame = g.sim.Frame().Scaled(g.sc.Width, g.sc.Height)

	g.dropDeadSelection()
	if f, ok := g.selectedForce(); ok {
		g.history.record(f)
	}

	if len(g.trails) > maxTrailBodies {
		return
	}
	for i, p := range g.frame.Positions {
		if g.frame.Radii[i] == 0 {
			g.trails[i] = nil
			continue
		}
		g.trails[i] = append(g.trails[i], p)
		if len(g.trails[i]) > trailLength {
			g.trails[i] = g.trails[i][len(g.trails[i])-trailLength:]
		}
	}
}

// dropDeadSelection unselects bodies absorbed in the last step. A surviving
// B moves up to A.
func (g *Game) dropDeadSelection() {
	mass := g.sim.Store.Mass
	prev := g.sel
	if g.sel.b != -1 && mass[g.sel.b] == 0 {
		g.sel.b = -1
	}
	if g.sel.a != -1 && mass[g.sel.a] == 0 {
		g.sel = selection{a: g.sel.b, b: -1}
	}
	if g.sel != prev {
		g.history.reset()
	}
}

// selectedForce is what the graph plots: the pull of B on A when two bodies
// are selected, the net force on A from the last step when only A is.
func (g *Game) selectedForce() (physics.Vec2, bool) {
	switch {
	case g.sel.a == -1:
		return physics.Vec2{}, false
	case g.sel.b == -1:
		forces := g.sim.Forces()
		if g.sel.a >= len(forces) {
			return physics.Vec2{}, false
		}
		return forces[g.sel.a], true
	}
	return g.sim.PairForce(g.sel.a, g.sel.b), true
}

// pick returns the live body under screen point (x, y), the nearest one
// when discs overlap, or -1.
func (g *Game) pick(x, y float32) int {
	w, h := float32(g.width), float32(g.height)
	best := -1
	bestD := float32(math.MaxFloat32)
	for i, p := range g.frame.Positions {
		r := g.frame.Radii[i]
		if r == 0 {
			continue
		}
		d := physics.Vec2{X: p.X*w - x, Y: p.Y*h - y}.Len()
		if d <= max(r*g.scale, minDrawRadius)+pickSlack && d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// reload loads the scenario file again and starts over.
func (g *Game) reload() error {
	sc, sim, err := loadSimulator(g.scenarioPath)
	if err != nil {
		return err
	}
	g.reset(sc, sim)
	return nil
}

// Draw ---
func (g *Game) Draw(screen *ebiten.Image) {
	w, h := float32(g.width), float32(g.height)

	// trails
	for _, trail := range g.trails {
		for j := 1; j < len(trail); j++ {
			vector.StrokeLine(screen, trail[j-1].X*w, trail[j-1].Y*h, trail[j].X*w, trail[j].Y*h, 1, trailColor, false)
		}
	}

	// bodies
	heaviest := g.heaviest()
	for i, p := range g.frame.Positions {
		r := g.frame.Radii[i] * g.scale
		if r == 0 {
			continue
		}
		clr := bodyColor
		if i == heaviest {
			clr = heaviestColor
		}
		vector.DrawFilledCircle(screen, p.X*w, p.Y*h, max(r, minDrawRadius), clr, true)
	}

	// selection
	if g.sel.a != -1 && g.sel.b != -1 {
		a, b := g.frame.Positions[g.sel.a], g.frame.Positions[g.sel.b]
		vector.StrokeLine(screen, a.X*w, a.Y*h, b.X*w, b.Y*h, 1, zeroColor, true)
	}
	for _, s := range []struct {
		i   int
		clr color.RGBA
	}{{g.sel.a, selAColor}, {g.sel.b, selBColor}} {
		if s.i == -1 {
			continue
		}
		p := g.frame.Positions[s.i]
		r := max(g.frame.Radii[s.i]*g.scale, minDrawRadius)
		vector.StrokeCircle(screen, p.X*w, p.Y*h, r+3, 1.5, s.clr, true)
	}

	// UI
	ebitenutil.DebugPrint(screen, fmt.Sprintf("Env: %s\nStep: %d\nLive: %d/%d\nPaused: %v\nTPS: %.1f\nSelected: A=%d B=%d",
		g.sim.Name, g.sim.Steps(), g.sim.Store.Live(), g.sim.Store.Len(), g.paused, ebiten.ActualTPS(), g.sel.a, g.sel.b))
	if g.sel.a != -1 {
		g.drawGraphs(screen)
	}
	if g.shortcutsVisible {
		drawShortcuts(screen, g.width)
	}
}

func (g *Game) drawGraphs(screen *ebiten.Image) {
	title := fmt.Sprintf("|F| net on %d", g.sel.a)
	if g.sel.b != -1 {
		title = fmt.Sprintf("|F| %d on %d", g.sel.b, g.sel.a)
	}
	x := 10
	y := g.height - graphH - 10
	drawForceGraph(screen, g.history.mag, x, y, graphW, graphH, selAColor, title)
	if g.showComponents {
		y -= graphH + 6
		drawForceGraph(screen, g.history.fy, x, y, graphW, graphH, selBColor, "Fy")
		y -= graphH + 6
		drawForceGraph(screen, g.history.fx, x, y, graphW, graphH, heaviestColor, "Fx")
	}
}

// graphRange is the vertical range for data: symmetric about zero when the
// data changes sign, padded by 5%, and never empty.
func graphRange(data []float64) (lo, hi float64) {
	if len(data) == 0 {
		return -1, 1
	}
	lo, hi = data[0], data[0]
	for _, v := range data {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo < 0 && hi > 0 {
		b := math.Max(-lo, hi)
		lo, hi = -b, b
	}
	if lo == hi {
		return lo - 1, hi + 1
	}
	pad := 0.05 * (hi - lo)
	return lo - pad, hi + pad
}

func drawForceGraph(screen *ebiten.Image, data []float64, x, y, w, h int, lineColor color.RGBA, title string) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), graphBgColor, false)
	if title != "" {
		text.Draw(screen, title, basicfont.Face7x13, x+6, y+14, textColor)
	}
	if len(data) == 0 {
		return
	}

	lo, hi := graphRange(data)
	const padding = 6
	left, right := float32(x+padding), float32(x+w-padding)
	top := float32(y + padding)
	gw, gh := right-left, float32(h-2*padding)
	yOf := func(v float64) float32 {
		return top + gh*float32(1-(v-lo)/(hi-lo))
	}

	for i := 0; i <= 4; i++ {
		yy := top + gh*float32(i)/4
		vector.StrokeLine(screen, left, yy, right, yy, 1, gridColor, false)
	}
	if lo <= 0 && hi >= 0 {
		zy := yOf(0)
		vector.StrokeLine(screen, left, zy, right, zy, 1, zeroColor, false)
	}

	if n := len(data); n >= 2 {
		stepX := gw / float32(n-1)
		for i := 1; i < n; i++ {
			vector.StrokeLine(screen,
				left+stepX*float32(i-1), yOf(data[i-1]),
				left+stepX*float32(i), yOf(data[i]),
				1, lineColor, true)
		}
	}
	text.Draw(screen, fmt.Sprintf("%.3e..%.3e", lo, hi), basicfont.Face7x13, x+6, y+h-6, textColor)
}

func (g *Game) heaviest() int {
	best := -1
	var mass float32
	for i, m := range g.sim.Store.Mass {
		if m > mass {
			best, mass = i, m
		}
	}
	return best
}

func drawShortcuts(screen *ebiten.Image, width int) {
	lines := []string{
		"P  pause / resume",
		"N  single step (paused)",
		"R  reload scenario",
		"C  force components",
		"H  hide this panel",
		"Esc quit",
		"Click  select A, then B",
	}
	const (
		panelW = 200
		lineH  = 16
		pad    = 8
	)
	x := width - panelW - pad
	panelH := len(lines)*lineH + 2*pad
	vector.DrawFilledRect(screen, float32(x), pad, panelW, float32(panelH), panelColor, false)
	for i, l := range lines {
		text.Draw(screen, l, basicfont.Face7x13, x+pad, pad+pad+(i+1)*lineH-4, textColor)
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
