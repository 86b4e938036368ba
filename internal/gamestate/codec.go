package gamestate

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	Header           = "RGme"
	Version          = 12
	MaxPlayers       = 11
	CoachMessageSize = 253

	// PacketSize is the exact length of a version 12 broadcast.
	PacketSize = 688
)

// ErrMalformedPacket matches every decode failure.
var ErrMalformedPacket = errors.New("malformed game state packet")

type MalformedPacketError struct {
	Len    int
	Reason string
}

func (e *MalformedPacketError) Error() string {
	return fmt.Sprintf("malformed game state packet (%d bytes): %s", e.Len, e.Reason)
}

func (e *MalformedPacketError) Is(target error) bool { return target == ErrMalformedPacket }

// wire layout, little-endian, no padding

type wireRobot struct {
	Penalty             uint8
	SecsTillUnpenalized uint8
	Warnings            uint8
	YellowCards         uint8
	RedCards            uint8
	Goalkeeper          uint8
}

type wireTeam struct {
	TeamNumber    uint8
	TeamColor     uint8
	Score         uint8
	PenaltyShot   uint8
	SingleShots   uint16
	CoachSequence uint8
	CoachMessage  [CoachMessageSize]uint8
	Coach         wireRobot
	Players       [MaxPlayers]wireRobot
}

type wirePacket struct {
	Header                    [4]byte
	Version                   uint16
	PacketNumber              uint8
	PlayersPerTeam            uint8
	GameType                  uint8
	State                     uint8
	FirstHalf                 uint8
	KickoffTeam               uint8
	SecondaryState            uint8
	SecondaryInfo             [4]uint8
	DropInTeam                uint8
	DropInTime                uint16
	SecondsRemaining          int16
	SecondarySecondsRemaining int16
	Teams                     [2]wireTeam
}

// Decode parses one GameController broadcast. It never panics; any length
// or tag mismatch yields a *MalformedPacketError.
func Decode(b []byte) (*GameState, error) {
	if len(b) != PacketSize {
		return nil, malformed(len(b), fmt.Sprintf("expected %d bytes", PacketSize))
	}

	var w wirePacket
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &w); err != nil {
		return nil, malformed(len(b), err.Error())
	}

	if string(w.Header[:]) != Header {
		return nil, malformed(len(b), fmt.Sprintf("bad header %q", w.Header[:]))
	}
	if w.Version != Version {
		return nil, malformed(len(b), fmt.Sprintf("unsupported version %d", w.Version))
	}
	if !PrimaryState(w.State).valid() {
		return nil, malformed(len(b), fmt.Sprintf("unknown game state %d", w.State))
	}
	if !SecondaryState(w.SecondaryState).valid() {
		return nil, malformed(len(b), fmt.Sprintf("unknown secondary state %d", w.SecondaryState))
	}
	if w.FirstHalf > 1 {
		return nil, malformed(len(b), fmt.Sprintf("first half flag %d", w.FirstHalf))
	}

	gs := &GameState{
		PacketNumber:              w.PacketNumber,
		PlayersPerTeam:            w.PlayersPerTeam,
		GameType:                  w.GameType,
		State:                     PrimaryState(w.State),
		FirstHalf:                 w.FirstHalf == 1,
		KickoffTeam:               w.KickoffTeam,
		Secondary:                 SecondaryState(w.SecondaryState),
		SecondaryInfo:             w.SecondaryInfo,
		DropInTeam:                w.DropInTeam,
		DropInTime:                w.DropInTime,
		SecondsRemaining:          w.SecondsRemaining,
		SecondarySecondsRemaining: w.SecondarySecondsRemaining,
	}

	for i, wt := range w.Teams {
		if !TeamColor(wt.TeamColor).valid() {
			return nil, malformed(len(b), fmt.Sprintf("team %d: unknown color %d", i, wt.TeamColor))
		}
		t := TeamState{
			TeamNumber:    wt.TeamNumber,
			Color:         TeamColor(wt.TeamColor),
			Score:         wt.Score,
			PenaltyShot:   wt.PenaltyShot,
			SingleShots:   wt.SingleShots,
			CoachSequence: wt.CoachSequence,
			CoachMessage:  string(bytes.TrimRight(wt.CoachMessage[:], "\x00")),
		}
		var err error
		if t.Coach, err = decodeRobot(wt.Coach); err != nil {
			return nil, malformed(len(b), fmt.Sprintf("team %d coach: %v", i, err))
		}
		for n, wr := range wt.Players {
			if t.Players[n], err = decodeRobot(wr); err != nil {
				return nil, malformed(len(b), fmt.Sprintf("team %d player %d: %v", i, n+1, err))
			}
		}
		gs.Teams[i] = t
	}

	return gs, nil
}

func decodeRobot(w wireRobot) (PlayerState, error) {
	if w.Goalkeeper > 1 {
		return PlayerState{}, fmt.Errorf("goalkeeper flag %d", w.Goalkeeper)
	}
	return PlayerState{
		Penalty:             w.Penalty,
		SecsTillUnpenalized: w.SecsTillUnpenalized,
		Warnings:            w.Warnings,
		YellowCards:         w.YellowCards,
		RedCards:            w.RedCards,
		Goalkeeper:          w.Goalkeeper == 1,
	}, nil
}

// Encode produces the broadcast bytes for gs.
func Encode(gs *GameState) ([]byte, error) {
	w := wirePacket{
		Version:                   Version,
		PacketNumber:              gs.PacketNumber,
		PlayersPerTeam:            gs.PlayersPerTeam,
		GameType:                  gs.GameType,
		State:                     uint8(gs.State),
		FirstHalf:                 boolByte(gs.FirstHalf),
		KickoffTeam:               gs.KickoffTeam,
		SecondaryState:            uint8(gs.Secondary),
		SecondaryInfo:             gs.SecondaryInfo,
		DropInTeam:                gs.DropInTeam,
		DropInTime:                gs.DropInTime,
		SecondsRemaining:          gs.SecondsRemaining,
		SecondarySecondsRemaining: gs.SecondarySecondsRemaining,
	}
	copy(w.Header[:], Header)

	for i, t := range gs.Teams {
		if len(t.CoachMessage) > CoachMessageSize {
			return nil, fmt.Errorf("team %d: coach message exceeds %d bytes", i, CoachMessageSize)
		}
		wt := wireTeam{
			TeamNumber:    t.TeamNumber,
			TeamColor:     uint8(t.Color),
			Score:         t.Score,
			PenaltyShot:   t.PenaltyShot,
			SingleShots:   t.SingleShots,
			CoachSequence: t.CoachSequence,
			Coach:         encodeRobot(t.Coach),
		}
		copy(wt.CoachMessage[:], t.CoachMessage)
		for n, p := range t.Players {
			wt.Players[n] = encodeRobot(p)
		}
		w.Teams[i] = wt
	}

	var buf bytes.Buffer
	buf.Grow(PacketSize)
	if err := binary.Write(&buf, binary.LittleEndian, &w); err != nil {
		return nil, fmt.Errorf("encode game state: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeRobot(p PlayerState) wireRobot {
	return wireRobot{
		Penalty:             p.Penalty,
		SecsTillUnpenalized: p.SecsTillUnpenalized,
		Warnings:            p.Warnings,
		YellowCards:         p.YellowCards,
		RedCards:            p.RedCards,
		Goalkeeper:          boolByte(p.Goalkeeper),
	}
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func malformed(n int, reason string) error {
	return &MalformedPacketError{Len: n, Reason: reason}
}
