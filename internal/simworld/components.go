package simworld

import (
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"

	"github.com/charleschow/humanoid-referee/internal/world"
)

// Posture decides how many ground contacts a robot reports.
type Posture int

const (
	Standing Posture = iota
	Fallen
	Asleep
)

type BodyData struct {
	Name        string
	Proto       string
	Ball        bool
	Translation world.Vec3
	Rotation    world.Rotation
	Radius      float64
	Height      float64
	Velocity    world.Vec3
	Posture     Posture
	CustomData  string
	Contacts    []world.ContactPoint
}

var Body = donburi.NewComponentType[BodyData]()

type ObjectData struct {
	*resolv.Object
}

var Object = donburi.NewComponentType[ObjectData]()
