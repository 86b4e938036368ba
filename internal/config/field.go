package config

import (
	"fmt"
	"math"
	"strings"
)

// Field is the playing field geometry for one league class. Sizes are half
// extents: the field spans [-SizeX, SizeX] x [-SizeY, SizeY] in metres.
type Field struct {
	Class                  string
	SizeX                  float64
	SizeY                  float64
	PenaltyMarkX           float64
	GoalWidth              float64
	GoalHeight             float64
	GoalAreaLength         float64
	GoalAreaWidth          float64
	PenaltyAreaLength      float64
	PenaltyAreaWidth       float64
	CircleRadius           float64
	LineWidth              float64
	TurfDepth              float64
	PlaceBallSafetyDist    float64
	OpponentDistanceToBall float64
	BallRadius             float64
}

var fields = map[string]Field{
	"junior": {
		Class:                  "junior",
		SizeX:                  3.0,
		SizeY:                  2.0,
		PenaltyMarkX:           2.0,
		GoalWidth:              1.0,
		GoalHeight:             0.5,
		GoalAreaLength:         0.5,
		GoalAreaWidth:          1.5,
		PenaltyAreaLength:      1.0,
		PenaltyAreaWidth:       2.5,
		CircleRadius:           0.5,
		LineWidth:              0.05,
		TurfDepth:              0.01,
		PlaceBallSafetyDist:    0.3,
		OpponentDistanceToBall: 0.5,
		BallRadius:             0.04,
	},
	"kid": {
		Class:                  "kid",
		SizeX:                  4.5,
		SizeY:                  3.0,
		PenaltyMarkX:           3.0,
		GoalWidth:              2.6,
		GoalHeight:             1.2,
		GoalAreaLength:         1.0,
		GoalAreaWidth:          3.0,
		PenaltyAreaLength:      2.0,
		PenaltyAreaWidth:       5.0,
		CircleRadius:           0.75,
		LineWidth:              0.05,
		TurfDepth:              0.01,
		PlaceBallSafetyDist:    0.5,
		OpponentDistanceToBall: 0.75,
		BallRadius:             0.07,
	},
	"adult": {
		Class:                  "adult",
		SizeX:                  7.0,
		SizeY:                  4.5,
		PenaltyMarkX:           4.9,
		GoalWidth:              2.6,
		GoalHeight:             1.8,
		GoalAreaLength:         1.0,
		GoalAreaWidth:          4.0,
		PenaltyAreaLength:      3.0,
		PenaltyAreaWidth:       6.0,
		CircleRadius:           1.5,
		LineWidth:              0.05,
		TurfDepth:              0.01,
		PlaceBallSafetyDist:    1.0,
		OpponentDistanceToBall: 1.5,
		BallRadius:             0.1,
	},
}

// FieldFor returns the geometry of a field class (case-insensitive).
func FieldFor(class string) (Field, error) {
	f, ok := fields[strings.ToLower(class)]
	if !ok {
		return Field{}, fmt.Errorf("%w: unknown field class %q", ErrInvalidConfig, class)
	}
	return f, nil
}

func (f Field) halfLine() float64 { return f.LineWidth / 2 }

// Inside reports whether (x, y) lies on the field including its outer lines.
func (f Field) Inside(x, y float64) bool {
	return math.Abs(x) <= f.SizeX && math.Abs(y) <= f.SizeY
}

// OnOuterLine reports whether (x, y) touches the line surrounding the field.
func (f Field) OnOuterLine(x, y float64) bool {
	hl := f.halfLine()
	ax, ay := math.Abs(x), math.Abs(y)
	if ax > f.SizeX+hl || ay > f.SizeY+hl {
		return false
	}
	return ax >= f.SizeX-hl || ay >= f.SizeY-hl
}

func (f Field) InsideCircle(x, y float64) bool {
	return x*x+y*y < f.CircleRadius*f.CircleRadius
}

func (f Field) InsideGoalArea(x, y float64) bool {
	ax := math.Abs(x)
	return ax <= f.SizeX && ax >= f.SizeX-f.GoalAreaLength && math.Abs(y) <= f.GoalAreaWidth/2
}

func (f Field) InsidePenaltyArea(x, y float64) bool {
	ax := math.Abs(x)
	return ax <= f.SizeX && ax >= f.SizeX-f.PenaltyAreaLength && math.Abs(y) <= f.PenaltyAreaWidth/2
}

// BallOut reports whether a ball centred at (x, y) has fully crossed a
// boundary line.
func (f Field) BallOut(x, y float64) bool {
	r := f.BallRadius
	return math.Abs(y)-r >= f.SizeY || math.Abs(x)-r >= f.SizeX
}

// ThroughGoalLine reports whether a ball at x has fully crossed a goal line.
func (f Field) ThroughGoalLine(x float64) bool {
	return math.Abs(x)-f.BallRadius >= f.SizeX
}

func (f Field) BetweenPosts(y float64) bool {
	return math.Abs(y) < f.GoalWidth/2
}
