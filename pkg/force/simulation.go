// Package force lays out view graphs with a velocity Verlet particle
// simulation: many-body repulsion between every pair of nodes, springs along
// edges and a centering force, cooled by a decaying alpha.
//
// The force model follows the interactive page, so a layout computed here
// looks like the settled state of the browser view:
//
//   - each node repels others with its own charge (games -80, links -100)
//   - each edge pulls toward its rest distance with its own strength, split
//     between its ends by degree so hubs move less
//   - the centroid is kept at the middle of the frame
//
// Pinned nodes keep their position and velocity zero, the same as a node
// held by a drag in the browser.
package force

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/linkatlas/pkg/graph"
)

// Cooling defaults. With these values a simulation stops after 300 ticks.
const (
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.4
	DefaultWidth         = 960
	DefaultHeight        = 600
	DefaultDistanceMin   = 1.0
)

var defaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/300)

// Phyllotaxis spacing of the initial placement.
const initialRadius = 10.0

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Options configures a simulation.
type Options struct {
	Width, Height float64
	Seed          uint64 // seeds the jiggle that separates coincident nodes
	VelocityDecay float64
	AlphaMin      float64
	AlphaDecay    float64
	MaxTicks      int // 0 runs until alpha drops below AlphaMin
}

func (o *Options) setDefaults() {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.VelocityDecay <= 0 || o.VelocityDecay >= 1 {
		o.VelocityDecay = DefaultVelocityDecay
	}
	if o.AlphaMin <= 0 {
		o.AlphaMin = DefaultAlphaMin
	}
	if o.AlphaDecay <= 0 || o.AlphaDecay >= 1 {
		o.AlphaDecay = defaultAlphaDecay
	}
}

type particle struct {
	id     string
	x, y   float64
	vx, vy float64
	charge float64
	fixed  bool
	fx, fy float64
	degree int
}

type spring struct {
	source, target int
	distance       float64
	strength       float64
	bias           float64 // share of the correction applied to the target
}

// Simulation is a running force layout. It is not safe for concurrent use.
type Simulation struct {
	opts        Options
	nodes       []particle
	springs     []spring
	index       map[string]int
	alpha       float64
	alphaTarget float64
	ticks       int
	rng         *rand.Rand
}

// New creates a simulation for g. Every node starts on a phyllotaxis spiral
// around the frame center.
func New(g graph.Graph, opts Options) (*Simulation, error) {
	opts.setDefaults()
	s := &Simulation{
		opts:  opts,
		nodes: make([]particle, len(g.Nodes)),
		index: make(map[string]int, len(g.Nodes)),
		alpha: 1,
		rng:   rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}

	cx, cy := opts.Width/2, opts.Height/2
	for i, n := range g.Nodes {
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		s.nodes[i] = particle{id: n.ID, x: cx + r*math.Cos(a), y: cy + r*math.Sin(a), charge: n.Charge}
		s.index[n.ID] = i
	}

	for _, e := range g.Edges {
		si, ok := s.index[e.Source]
		if !ok {
			return nil, fmt.Errorf("edge source %q: %w", e.Source, graph.ErrInvalidGraph)
		}
		ti, ok := s.index[e.Target]
		if !ok {
			return nil, fmt.Errorf("edge target %q: %w", e.Target, graph.ErrInvalidGraph)
		}
		s.nodes[si].degree++
		s.nodes[ti].degree++
		s.springs = append(s.springs, spring{source: si, target: ti, distance: e.Distance, strength: e.Strength})
	}
	for i := range s.springs {
		sp := &s.springs[i]
		ds, dt := s.nodes[sp.source].degree, s.nodes[sp.target].degree
		sp.bias = float64(ds) / float64(ds+dt)
	}
	return s, nil
}

// Alpha returns the current temperature.
func (s *Simulation) Alpha() float64 { return s.alpha }

// Ticks returns the number of ticks run so far.
func (s *Simulation) Ticks() int { return s.ticks }

// Done reports whether the simulation has cooled down.
func (s *Simulation) Done() bool {
	if s.opts.MaxTicks > 0 && s.ticks >= s.opts.MaxTicks {
		return true
	}
	return s.alpha < s.opts.AlphaMin
}

// Restart reheats the simulation, as the browser does when a drag starts.
// Alpha decays toward target. Without MaxTicks a target at or above AlphaMin
// would keep the simulation warm forever, so it is clamped to zero and Run
// still returns once the simulation cools down.
func (s *Simulation) Restart(alpha, target float64) {
	if s.opts.MaxTicks == 0 && target >= s.opts.AlphaMin {
		target = 0
	}
	s.alpha = alpha
	s.alphaTarget = target
}

// Pin fixes a node at (x, y).
func (s *Simulation) Pin(id string, x, y float64) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("pin %q: %w", id, graph.ErrInvalidGraph)
	}
	p := &s.nodes[i]
	p.fixed, p.fx, p.fy = true, x, y
	p.x, p.y, p.vx, p.vy = x, y, 0, 0
	return nil
}

// Release unpins a node. The node keeps its position and starts moving
// freely on the next tick.
func (s *Simulation) Release(id string) {
	if i, ok := s.index[id]; ok {
		s.nodes[i].fixed = false
	}
}

// Tick advances the simulation one step.
func (s *Simulation) Tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.opts.AlphaDecay
	s.ticks++

	s.applySprings()
	s.applyCharge()

	decay := 1 - s.opts.VelocityDecay
	for i := range s.nodes {
		p := &s.nodes[i]
		if p.fixed {
			p.x, p.y, p.vx, p.vy = p.fx, p.fy, 0, 0
			continue
		}
		p.vx *= decay
		p.vy *= decay
		p.x += p.vx
		p.y += p.vy
	}

	s.applyCenter()
}

func (s *Simulation) applySprings() {
	for _, sp := range s.springs {
		src, dst := &s.nodes[sp.source], &s.nodes[sp.target]
		x := dst.x + dst.vx - src.x - src.vx
		y := dst.y + dst.vy - src.y - src.vy
		if x == 0 {
			x = s.jiggle()
		}
		if y == 0 {
			y = s.jiggle()
		}
		l := math.Hypot(x, y)
		l = (l - sp.distance) / l * s.alpha * sp.strength
		x *= l
		y *= l
		dst.vx -= x * sp.bias
		dst.vy -= y * sp.bias
		src.vx += x * (1 - sp.bias)
		src.vy += y * (1 - sp.bias)
	}
}

func (s *Simulation) applyCharge() {
	minD2 := DefaultDistanceMin * DefaultDistanceMin
	for i := range s.nodes {
		p := &s.nodes[i]
		for j := range s.nodes {
			if i == j {
				continue
			}
			q := &s.nodes[j]
			x := q.x - p.x
			y := q.y - p.y
			if x == 0 {
				x = s.jiggle()
			}
			if y == 0 {
				y = s.jiggle()
			}
			l := x*x + y*y
			if l < minD2 {
				l = math.Sqrt(minD2 * l)
			}
			w := q.charge * s.alpha / l
			p.vx += x * w
			p.vy += y * w
		}
	}
}

// applyCenter translates free nodes so the centroid of all nodes sits at the
// frame center. With pins present the pinned nodes anchor the layout instead.
func (s *Simulation) applyCenter() {
	if len(s.nodes) == 0 {
		return
	}
	for _, p := range s.nodes {
		if p.fixed {
			return
		}
	}
	var sx, sy float64
	for _, p := range s.nodes {
		sx += p.x
		sy += p.y
	}
	n := float64(len(s.nodes))
	dx := sx/n - s.opts.Width/2
	dy := sy/n - s.opts.Height/2
	for i := range s.nodes {
		s.nodes[i].x -= dx
		s.nodes[i].y -= dy
	}
}

func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}

// Run ticks until the simulation cools down or ctx is cancelled.
func (s *Simulation) Run(ctx context.Context) error {
	for !s.Done() {
		if s.ticks%16 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		s.Tick()
	}
	return nil
}

// Positions returns the current coordinates keyed by node id.
func (s *Simulation) Positions() map[string]graph.Position {
	out := make(map[string]graph.Position, len(s.nodes))
	for _, p := range s.nodes {
		out[p.id] = graph.Position{X: p.x, Y: p.y, Fixed: p.fixed}
	}
	return out
}

// Position returns the coordinates of one node.
func (s *Simulation) Position(id string) (graph.Position, bool) {
	i, ok := s.index[id]
	if !ok {
		return graph.Position{}, false
	}
	p := s.nodes[i]
	return graph.Position{X: p.x, Y: p.y, Fixed: p.fixed}, true
}
