// Package world defines the narrow interface the referee uses to observe and
// mutate the simulation. The referee never owns robot lifecycle: nodes are
// looked up by name on every use.
package world

import "math"

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Array() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// Rotation is an axis-angle rotation.
type Rotation struct {
	X, Y, Z, Angle float64
}

// Distance2D is the distance between a and b projected on the ground plane.
func Distance2D(a, b Vec3) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// ContactPoint is one contact of a node's bounding objects with the world.
// Node is the name of the touching solid, empty for the ground.
type ContactPoint struct {
	Point Vec3
	Node  string
}

// Node is a handle to one simulated body.
type Node interface {
	Name() string
	Translation() Vec3
	SetTranslation(Vec3)
	SetRotation(Rotation)
	ResetPhysics()
	ContactPoints() []ContactPoint
	CenterOfMass() Vec3
	CustomData() string
	SetCustomData(string)
}

// BallProto is the proto of the match ball.
const BallProto = "RobocupSoccerBall"

// SpawnSpec describes a body to import into the world.
type SpawnSpec struct {
	Name        string
	Proto       string
	Translation Vec3
	Rotation    Rotation
	// Radius of the body's footprint on the ground plane.
	Radius float64
	Height float64
}

// Label is one overlay text line drawn on the simulation view.
type Label struct {
	ID           int
	Text         string
	X, Y         float64
	Size         float64
	Color        uint32
	Transparency float64
	Font         string
}

// LabelSink renders labels.
type LabelSink interface {
	SetLabel(Label)
}

// Host is the simulation the referee runs inside.
type Host interface {
	LabelSink
	// Step advances the simulation by ms and reports false when the
	// simulation is shutting down.
	Step(ms int) bool
	BasicTimeStep() int
	Spawn(SpawnSpec) (Node, error)
	Node(name string) (Node, bool)
}
