// Package worldfakes provides in-memory world fakes for tests.
package worldfakes

import (
	"fmt"

	"github.com/charleschow/humanoid-referee/internal/world"
)

// Node is a scripted world.Node. Contacts and CoM are set by the test.
type Node struct {
	NodeName string
	Pos      world.Vec3
	Rot      world.Rotation
	Contacts []world.ContactPoint
	CoM      *world.Vec3
	Data     string
	Resets   int
	// Moves counts SetTranslation calls.
	Moves int
}

func (n *Node) Name() string                        { return n.NodeName }
func (n *Node) Translation() world.Vec3             { return n.Pos }
func (n *Node) SetTranslation(v world.Vec3)         { n.Pos = v; n.Moves++ }
func (n *Node) SetRotation(r world.Rotation)        { n.Rot = r }
func (n *Node) ResetPhysics()                       { n.Resets++ }
func (n *Node) ContactPoints() []world.ContactPoint { return n.Contacts }
func (n *Node) CustomData() string                  { return n.Data }
func (n *Node) SetCustomData(s string)              { n.Data = s }

func (n *Node) CenterOfMass() world.Vec3 {
	if n.CoM != nil {
		return *n.CoM
	}
	return n.Pos
}

// Standing gives the node count ground contacts around (x, y).
func (n *Node) Standing(x, y float64, count int) {
	n.Contacts = n.Contacts[:0]
	for i := 0; i < count; i++ {
		dx := 0.02 * float64(i%2*2-1)
		dy := 0.02 * float64(i/2%2*2-1)
		n.Contacts = append(n.Contacts, world.ContactPoint{Point: world.Vec3{X: x + dx, Y: y + dy}})
	}
}

// Host is an in-memory world.Host.
type Host struct {
	Nodes    map[string]*Node
	Labels   map[int]world.Label
	Spawned  []world.SpawnSpec
	TimeStep int
	// StepsLeft stops the simulation after that many steps; negative runs forever.
	StepsLeft int
	Elapsed   int
	SpawnErr  error
}

func NewHost() *Host {
	return &Host{
		Nodes:     make(map[string]*Node),
		Labels:    make(map[int]world.Label),
		TimeStep:  20,
		StepsLeft: -1,
	}
}

func (h *Host) Step(ms int) bool {
	if h.StepsLeft == 0 {
		return false
	}
	if h.StepsLeft > 0 {
		h.StepsLeft--
	}
	h.Elapsed += ms
	return true
}

func (h *Host) BasicTimeStep() int { return h.TimeStep }

func (h *Host) Spawn(spec world.SpawnSpec) (world.Node, error) {
	if h.SpawnErr != nil {
		return nil, h.SpawnErr
	}
	if _, exists := h.Nodes[spec.Name]; exists {
		return nil, fmt.Errorf("node %s already exists", spec.Name)
	}
	h.Spawned = append(h.Spawned, spec)
	n := &Node{NodeName: spec.Name, Pos: spec.Translation, Rot: spec.Rotation}
	h.Nodes[spec.Name] = n
	return n, nil
}

func (h *Host) Node(name string) (world.Node, bool) {
	n, ok := h.Nodes[name]
	if !ok {
		return nil, false
	}
	return n, true
}

func (h *Host) SetLabel(l world.Label) { h.Labels[l.ID] = l }

// Add registers a node directly, bypassing Spawn.
func (h *Host) Add(name string, pos world.Vec3) *Node {
	n := &Node{NodeName: name, Pos: pos}
	h.Nodes[name] = n
	return n
}
