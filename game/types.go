package game

import (
	"errors"
	"slices"
)

type (
	Cell struct {
		X int `json:"x"`
		Y int `json:"y"`
	}

	// Heading is the direction of travel. None means no input has been
	// committed since the last (re)start.
	Heading   uint8
	RunStatus uint8

	// Cause tells renderers why the last run ended.
	Cause string

	// Snapshot is an immutable copy of the engine state handed to subscribers.
	Snapshot struct {
		Seq       uint64    `json:"seq"`
		Tick      uint64    `json:"tick"`
		Grid      int       `json:"grid"`
		Snake     []Cell    `json:"snake"`
		Food      Cell      `json:"food"`
		Heading   Heading   `json:"heading"`
		Score     int       `json:"score"`
		HighScore int       `json:"highScore"`
		Status    RunStatus `json:"status"`
		Cause     Cause     `json:"cause,omitempty"`
		NewRecord bool      `json:"newRecord,omitempty"`
	}
)

const (
	None Heading = iota
	Up
	Down
	Left
	Right
)

const (
	Idle RunStatus = iota
	Running
	Over
)

const (
	CauseWall      Cause = "wall-collision"
	CauseSelf      Cause = "self-collision"
	CauseBoardFull Cause = "board-full"
)

var (
	headingNames = map[Heading]string{None: "none", Up: "up", Down: "down", Left: "left", Right: "right"}
	statusNames  = map[RunStatus]string{Idle: "idle", Running: "running", Over: "over"}

	errUnknownHeading = errors.New("unknown heading")
	errUnknownStatus  = errors.New("unknown run status")
)

func (c Cell) Add(dx, dy int) Cell { return Cell{X: c.X + dx, Y: c.Y + dy} }

func (c Cell) InBounds(size int) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < size && c.Y < size
}

// Valid reports whether h is one of the four directions.
func (h Heading) Valid() bool { return h >= Up && h <= Right }

func (h Heading) Opposite() Heading {
	switch h {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return None
	}
}

// Delta is the unit offset of one move, y grows downwards.
func (h Heading) Delta() (dx, dy int) {
	switch h {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	default:
		return 0, 0
	}
}

func (h Heading) String() string {
	if name, ok := headingNames[h]; ok {
		return name
	}
	return "unknown"
}

func (h Heading) MarshalText() ([]byte, error) {
	name, ok := headingNames[h]
	if !ok {
		return nil, errUnknownHeading
	}
	return []byte(name), nil
}

func (h *Heading) UnmarshalText(b []byte) error {
	parsed, ok := ParseHeading(string(b))
	if !ok {
		return errUnknownHeading
	}
	*h = parsed
	return nil
}

// ParseHeading accepts the names printed by Heading.String.
func ParseHeading(s string) (Heading, bool) {
	for h, name := range headingNames {
		if name == s {
			return h, true
		}
	}
	return None, false
}

func (s RunStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s RunStatus) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, errUnknownStatus
	}
	return []byte(name), nil
}

func (s *RunStatus) UnmarshalText(b []byte) error {
	for status, name := range statusNames {
		if name == string(b) {
			*s = status
			return nil
		}
	}
	return errUnknownStatus
}

// Head returns the first cell of the snapshot's snake.
func (snap Snapshot) Head() Cell {
	if len(snap.Snake) == 0 {
		return Cell{}
	}
	return snap.Snake[0]
}

func (snap Snapshot) Occupies(c Cell) bool { return slices.Contains(snap.Snake, c) }
