package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig matches every match document error. These are fatal
// before the referee loop starts.
var ErrInvalidConfig = errors.New("invalid match config")

type GameType string

const (
	GameNormal   GameType = "NORMAL"
	GameKnockout GameType = "KNOCKOUT"
	GamePenalty  GameType = "PENALTY"
)

const (
	DefaultControllerPort = 8750
	DefaultUDPPort        = 3838
	DefaultRealTimeFactor = 3.0
)

type Pose struct {
	Translation []float64 `yaml:"translation"`
	Rotation    []float64 `yaml:"rotation"`
}

type PlayerConfig struct {
	Proto          string `yaml:"proto"`
	NeedsPlacement *bool  `yaml:"needs_placement"`
	BorderPose     *Pose  `yaml:"border_pose"`
	ReadyPose      *Pose  `yaml:"ready_pose"`
	ReentryPose    *Pose  `yaml:"reentry_pose"`
	ShootoutPose   *Pose  `yaml:"shootout_pose"`
	GoalkeeperPose *Pose  `yaml:"goalkeeper_pose"`
}

// Placed reports whether the referee moves this player to its ready pose on
// entry to SET.
func (p PlayerConfig) Placed() bool {
	return p.NeedsPlacement == nil || *p.NeedsPlacement
}

type TeamConfig struct {
	ID      int                  `yaml:"id"`
	Name    string               `yaml:"name"`
	Players map[int]PlayerConfig `yaml:"players"`
}

// Numbers returns the roster numbers in ascending order.
func (t TeamConfig) Numbers() []int {
	nums := make([]int, 0, len(t.Players))
	for n := range t.Players {
		nums = append(nums, n)
	}
	slices.Sort(nums)
	return nums
}

// MatchConfig is the immutable match document.
type MatchConfig struct {
	Type                  GameType   `yaml:"type"`
	Class                 string     `yaml:"class"`
	MinimumRealTimeFactor *float64   `yaml:"minimum_real_time_factor"`
	Kickoff               string     `yaml:"kickoff"`
	SideLeft              string     `yaml:"side_left"`
	Host                  string     `yaml:"host"`
	Port                  int        `yaml:"port"`
	UDPHost               string     `yaml:"udp_host"`
	UDPPort               int        `yaml:"udp_port"`
	InterruptionProcedure bool       `yaml:"interruption_procedure"`
	Red                   TeamConfig `yaml:"red"`
	Blue                  TeamConfig `yaml:"blue"`

	Field Field `yaml:"-"`
}

// LoadMatch reads and validates the match document at path.
func LoadMatch(path string) (*MatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidConfig, path, err)
	}
	mc, err := ParseMatch(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mc, nil
}

// ParseMatch decodes and validates a match document.
func ParseMatch(data []byte) (*MatchConfig, error) {
	var mc MatchConfig
	if err := yaml.Unmarshal(data, &mc); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrInvalidConfig, err)
	}
	mc.applyDefaults()
	if err := mc.validate(); err != nil {
		return nil, err
	}
	field, err := FieldFor(mc.Class)
	if err != nil {
		return nil, err
	}
	mc.Field = field
	return &mc, nil
}

func (mc *MatchConfig) applyDefaults() {
	if mc.Class == "" {
		mc.Class = "junior"
	}
	if mc.MinimumRealTimeFactor == nil {
		f := DefaultRealTimeFactor
		mc.MinimumRealTimeFactor = &f
	}
	if mc.Kickoff == "" {
		mc.Kickoff = "red"
	}
	if mc.SideLeft == "" {
		mc.SideLeft = "blue"
	}
	if mc.Host == "" {
		mc.Host = "localhost"
	}
	if mc.Port == 0 {
		mc.Port = DefaultControllerPort
	}
	if mc.UDPHost == "" {
		mc.UDPHost = "0.0.0.0"
	}
	if mc.UDPPort == 0 {
		mc.UDPPort = DefaultUDPPort
	}
}

func (mc *MatchConfig) validate() error {
	switch mc.Type {
	case GameNormal, GameKnockout, GamePenalty:
	default:
		return fmt.Errorf("%w: unsupported game type %q", ErrInvalidConfig, mc.Type)
	}
	if *mc.MinimumRealTimeFactor < 0 {
		return fmt.Errorf("%w: minimum_real_time_factor must not be negative", ErrInvalidConfig)
	}
	for key, v := range map[string]string{"kickoff": mc.Kickoff, "side_left": mc.SideLeft} {
		if v != "red" && v != "blue" {
			return fmt.Errorf("%w: %s must be red or blue, got %q", ErrInvalidConfig, key, v)
		}
	}
	if err := mc.Red.validate("red"); err != nil {
		return err
	}
	if err := mc.Blue.validate("blue"); err != nil {
		return err
	}
	if mc.Red.ID == mc.Blue.ID {
		return fmt.Errorf("%w: red and blue share team id %d", ErrInvalidConfig, mc.Red.ID)
	}
	return nil
}

func (t TeamConfig) validate(color string) error {
	if t.ID <= 0 || t.ID > 255 {
		return fmt.Errorf("%w: %s team: id %d out of range", ErrInvalidConfig, color, t.ID)
	}
	if t.Name == "" {
		return fmt.Errorf("%w: %s team: missing field name", ErrInvalidConfig, color)
	}
	if t.Players == nil {
		return fmt.Errorf("%w: %s team: missing field players", ErrInvalidConfig, color)
	}
	if len(t.Players) > 11 {
		return fmt.Errorf("%w: %s team: %d players exceeds 11", ErrInvalidConfig, color, len(t.Players))
	}
	for i, n := range t.Numbers() {
		if n != i+1 {
			return fmt.Errorf("%w: %s team: wrong player number: expecting %d, found %d", ErrInvalidConfig, color, i+1, n)
		}
		if err := t.Players[n].validate(); err != nil {
			return fmt.Errorf("%w: %s player %d: %v", ErrInvalidConfig, color, n, err)
		}
	}
	return nil
}

func (p PlayerConfig) validate() error {
	if p.Proto == "" {
		return errors.New("missing field proto")
	}
	for _, f := range []struct {
		name string
		pose *Pose
	}{
		{"border_pose", p.BorderPose},
		{"ready_pose", p.ReadyPose},
		{"reentry_pose", p.ReentryPose},
		{"shootout_pose", p.ShootoutPose},
		{"goalkeeper_pose", p.GoalkeeperPose},
	} {
		if f.pose == nil {
			return fmt.Errorf("missing field %s", f.name)
		}
		if len(f.pose.Translation) != 3 {
			return fmt.Errorf("%s: translation needs 3 values, got %d", f.name, len(f.pose.Translation))
		}
		if len(f.pose.Rotation) != 4 {
			return fmt.Errorf("%s: rotation needs 4 values, got %d", f.name, len(f.pose.Rotation))
		}
	}
	return nil
}

func (mc *MatchConfig) teamID(color string) int {
	if color == "red" {
		return mc.Red.ID
	}
	return mc.Blue.ID
}

// KickoffID is the id of the team kicking off first.
func (mc *MatchConfig) KickoffID() int { return mc.teamID(mc.Kickoff) }

// SideLeftID is the id of the team initially defending the left half.
func (mc *MatchConfig) SideLeftID() int { return mc.teamID(mc.SideLeft) }

func (mc *MatchConfig) RealTimeFactor() float64 { return *mc.MinimumRealTimeFactor }

func (mc *MatchConfig) ControllerAddr() string {
	return mc.Host + ":" + strconv.Itoa(mc.Port)
}

func (mc *MatchConfig) UDPAddr() string {
	return mc.UDPHost + ":" + strconv.Itoa(mc.UDPPort)
}
