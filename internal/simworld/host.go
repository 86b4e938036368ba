// Package simworld is a headless stand-in for the simulation host. Bodies are
// kinematic: robots stay where they are put and the ball rolls with friction.
// Overlaps found in a resolv space become contact points.
package simworld

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
	"golang.org/x/time/rate"

	"github.com/charleschow/humanoid-referee/internal/telemetry"
	"github.com/charleschow/humanoid-referee/internal/world"
)

const (
	DefaultTimeStep = 20 // ms

	// space units per metre; the space covers [-spaceExtent, spaceExtent]
	scale       = 100
	spaceExtent = 40
	cellSize    = 50

	TagRobot = "robot"
	TagBall  = "ball"

	// ball deceleration as a fraction of speed per second
	rollingFriction = 0.8
	minBallSpeed    = 0.01
	// speed given to the ball by a robot touching it
	touchSpeed = 0.5
	// half spacing of the contact points under a robot
	footSpacing = 0.05
)

type Options struct {
	TimeStep int
	// MinRealTimeFactor makes each step last at least that many times the
	// simulated step in real time. Zero runs as fast as possible.
	MinRealTimeFactor float64
}

// Host implements world.Host. It is not safe for concurrent use.
type Host struct {
	world    donburi.World
	space    *resolv.Space
	entities map[string]donburi.Entity
	names    []string // spawn order
	labels   map[int]world.Label
	timeStep int
	pace     *rate.Limiter
	elapsed  int
}

func New(opts Options) *Host {
	if opts.TimeStep <= 0 {
		opts.TimeStep = DefaultTimeStep
	}
	size := 2 * spaceExtent * scale
	h := &Host{
		world:    donburi.NewWorld(),
		space:    resolv.NewSpace(size, size, cellSize, cellSize),
		entities: make(map[string]donburi.Entity),
		labels:   make(map[int]world.Label),
		timeStep: opts.TimeStep,
	}
	if opts.MinRealTimeFactor > 0 {
		every := time.Duration(opts.MinRealTimeFactor * float64(opts.TimeStep) * float64(time.Millisecond))
		h.pace = rate.NewLimiter(rate.Every(every), 1)
		telemetry.Infof("Simulation will guarantee a maximum %.2fx speed for each time step.", 1/opts.MinRealTimeFactor)
	} else {
		telemetry.Infof("Simulation will run as fast as possible.")
	}
	return h
}

func (h *Host) BasicTimeStep() int { return h.timeStep }

// Elapsed is the simulated time in ms.
func (h *Host) Elapsed() int { return h.elapsed }

func (h *Host) Step(ms int) bool {
	if h.pace != nil {
		time.Sleep(h.pace.Reserve().Delay())
	}
	h.rollBall(float64(ms) / 1000)
	h.updateContacts()
	h.elapsed += ms
	return true
}

func (h *Host) Spawn(spec world.SpawnSpec) (world.Node, error) {
	if _, exists := h.entities[spec.Name]; exists {
		return nil, fmt.Errorf("simworld: node %s already exists", spec.Name)
	}
	if spec.Radius <= 0 {
		return nil, fmt.Errorf("simworld: node %s has no footprint", spec.Name)
	}
	ball := spec.Proto == world.BallProto
	tag := TagRobot
	if ball {
		tag = TagBall
	}

	entity := h.world.Create(Body, Object)
	entry := h.world.Entry(entity)
	Body.Set(entry, &BodyData{
		Name:        spec.Name,
		Proto:       spec.Proto,
		Ball:        ball,
		Translation: spec.Translation,
		Rotation:    spec.Rotation,
		Radius:      spec.Radius,
		Height:      spec.Height,
	})
	w := 2 * spec.Radius * scale
	obj := resolv.NewObject(0, 0, w, w, tag)
	obj.Data = entity
	Object.Set(entry, &ObjectData{Object: obj})
	h.space.Add(obj)
	h.place(entry)

	h.entities[spec.Name] = entity
	h.names = append(h.names, spec.Name)
	return &node{h: h, entity: entity}, nil
}

func (h *Host) Node(name string) (world.Node, bool) {
	entity, ok := h.entities[name]
	if !ok || !h.world.Valid(entity) {
		return nil, false
	}
	return &node{h: h, entity: entity}, true
}

func (h *Host) SetLabel(l world.Label) { h.labels[l.ID] = l }

func (h *Host) Label(id int) (world.Label, bool) {
	l, ok := h.labels[id]
	return l, ok
}

// SetVelocity sets the planar velocity of a body in m/s. Only the ball moves.
func (h *Host) SetVelocity(name string, v world.Vec3) error {
	entry, err := h.entry(name)
	if err != nil {
		return err
	}
	Body.Get(entry).Velocity = v
	return nil
}

func (h *Host) SetPosture(name string, p Posture) error {
	entry, err := h.entry(name)
	if err != nil {
		return err
	}
	Body.Get(entry).Posture = p
	return nil
}

func (h *Host) entry(name string) (*donburi.Entry, error) {
	entity, ok := h.entities[name]
	if !ok || !h.world.Valid(entity) {
		return nil, fmt.Errorf("simworld: no node %s", name)
	}
	return h.world.Entry(entity), nil
}

// place moves the resolv object over the body's ground footprint.
func (h *Host) place(entry *donburi.Entry) {
	b := Body.Get(entry)
	obj := Object.Get(entry).Object
	obj.X = (b.Translation.X+spaceExtent)*scale - obj.W/2
	obj.Y = (b.Translation.Y+spaceExtent)*scale - obj.H/2
	obj.Update()
}

func (h *Host) rollBall(dt float64) {
	for _, name := range h.names {
		entry := h.world.Entry(h.entities[name])
		b := Body.Get(entry)
		if !b.Ball {
			continue
		}
		if math.Hypot(b.Velocity.X, b.Velocity.Y) < minBallSpeed {
			b.Velocity = world.Vec3{}
			continue
		}
		b.Translation.X += b.Velocity.X * dt
		b.Translation.Y += b.Velocity.Y * dt
		damping := math.Max(0, 1-rollingFriction*dt)
		b.Velocity.X *= damping
		b.Velocity.Y *= damping
		h.place(entry)
	}
}

// updateContacts recomputes every body's contact points: ground contacts
// from posture, and one shared point for each ball and robot overlap.
func (h *Host) updateContacts() {
	for _, name := range h.names {
		entry := h.world.Entry(h.entities[name])
		b := Body.Get(entry)
		b.Contacts = b.Contacts[:0]
		switch {
		case b.Ball:
			if b.Translation.Z <= b.Radius+0.005 {
				b.Contacts = append(b.Contacts, world.ContactPoint{Point: world.Vec3{X: b.Translation.X, Y: b.Translation.Y}})
			}
		case b.Posture == Standing:
			b.Contacts = appendFeet(b.Contacts, b.Translation, 4)
		case b.Posture == Fallen:
			b.Contacts = appendFeet(b.Contacts, b.Translation, 2)
		}
	}

	for _, name := range h.names {
		entry := h.world.Entry(h.entities[name])
		ball := Body.Get(entry)
		if !ball.Ball {
			continue
		}
		check := Object.Get(entry).Check(0, 0, TagRobot)
		if check == nil {
			continue
		}
		for _, obj := range check.ObjectsByTags(TagRobot) {
			entity, ok := obj.Data.(donburi.Entity)
			if !ok || !h.world.Valid(entity) {
				continue
			}
			robot := Body.Get(h.world.Entry(entity))
			h.touch(ball, robot)
		}
	}
}

func (h *Host) touch(ball, robot *BodyData) {
	if robot.Posture == Asleep {
		return
	}
	dx := robot.Translation.X - ball.Translation.X
	dy := robot.Translation.Y - ball.Translation.Y
	d := math.Hypot(dx, dy)
	if d > ball.Radius+robot.Radius {
		return
	}
	if d == 0 {
		dx, d = 1, 1
	}
	p := world.Vec3{
		X: ball.Translation.X + dx/d*ball.Radius,
		Y: ball.Translation.Y + dy/d*ball.Radius,
		Z: ball.Translation.Z,
	}
	ball.Contacts = append(ball.Contacts, world.ContactPoint{Point: p, Node: robot.Name})
	robot.Contacts = append(robot.Contacts, world.ContactPoint{Point: p, Node: ball.Name})
	if math.Hypot(ball.Velocity.X, ball.Velocity.Y) < touchSpeed {
		ball.Velocity = world.Vec3{X: -dx / d * touchSpeed, Y: -dy / d * touchSpeed}
	}
}

func appendFeet(contacts []world.ContactPoint, at world.Vec3, n int) []world.ContactPoint {
	offsets := [...][2]float64{{1, 1}, {-1, -1}, {1, -1}, {-1, 1}}
	for _, o := range offsets[:n] {
		contacts = append(contacts, world.ContactPoint{Point: world.Vec3{
			X: at.X + o[0]*footSpacing,
			Y: at.Y + o[1]*footSpacing,
		}})
	}
	return contacts
}

// Names lists the spawned bodies in spawn order.
func (h *Host) Names() []string { return slices.Clone(h.names) }

type node struct {
	h      *Host
	entity donburi.Entity
}

func (n *node) body() *BodyData { return Body.Get(n.h.world.Entry(n.entity)) }

func (n *node) Name() string                 { return n.body().Name }
func (n *node) Translation() world.Vec3      { return n.body().Translation }
func (n *node) CenterOfMass() world.Vec3     { return n.body().Translation }
func (n *node) CustomData() string           { return n.body().CustomData }
func (n *node) SetCustomData(s string)       { n.body().CustomData = s }
func (n *node) SetRotation(r world.Rotation) { n.body().Rotation = r }
func (n *node) ResetPhysics()                { n.body().Velocity = world.Vec3{} }

func (n *node) ContactPoints() []world.ContactPoint {
	return slices.Clone(n.body().Contacts)
}

func (n *node) SetTranslation(v world.Vec3) {
	entry := n.h.world.Entry(n.entity)
	Body.Get(entry).Translation = v
	n.h.place(entry)
}
