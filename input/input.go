// Package input turns raw key presses and browser events into validated
// heading changes and start requests.
package input

import (
	"slices"
	"strings"

	"BSnake/game"
)

type (
	Symbol uint8

	// Target is what the controller drives, a game.Engine or a session
	// wrapping one.
	Target interface {
		Status() game.RunStatus
		Heading() game.Heading
		SetHeading(game.Heading) bool
		Start()
	}

	keyBinds struct {
		RETURN, SPACE,
		W, D, S, A, K, L, J, H, UP, RIGHT, DOWN, LEFT []byte
	}

	Controller struct {
		KeyBinds keyBinds
		target   Target
	}
)

const (
	Unknown Symbol = iota
	Up
	Down
	Left
	Right
	Confirm
)

var symbolNames = map[string]Symbol{
	"up": Up, "down": Down, "left": Left, "right": Right,
	"start": Confirm, "confirm": Confirm,
}

// ParseSymbol accepts the symbols sent by the browser front-end.
func ParseSymbol(s string) (Symbol, bool) {
	sym, ok := symbolNames[strings.ToLower(strings.TrimSpace(s))]
	return sym, ok
}

func (sym Symbol) String() string {
	switch sym {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case Confirm:
		return "start"
	default:
		return "unknown"
	}
}

// Heading maps a directional symbol, anything else gives game.None.
func (sym Symbol) Heading() game.Heading {
	switch sym {
	case Up:
		return game.Up
	case Down:
		return game.Down
	case Left:
		return game.Left
	case Right:
		return game.Right
	default:
		return game.None
	}
}

func NewController(target Target) *Controller {
	return &Controller{
		KeyBinds: keyBinds{
			RETURN: []byte{13, 0, 0}, SPACE: []byte{32, 0, 0},
			W: []byte{119, 0, 0}, D: []byte{100, 0, 0}, S: []byte{115, 0, 0}, A: []byte{97, 0, 0},
			K: []byte{107, 0, 0}, L: []byte{108, 0, 0}, J: []byte{106, 0, 0}, H: []byte{104, 0, 0},
			UP: []byte{27, 91, 65}, RIGHT: []byte{27, 91, 67}, DOWN: []byte{27, 91, 66}, LEFT: []byte{27, 91, 68},
		},
		target: target,
	}
}

// Symbolize maps a 3 byte terminal read to a symbol.
func (c *Controller) Symbolize(in []byte) Symbol {
	if len(in) < 3 {
		in = append(slices.Clone(in), make([]byte, 3-len(in))...)
	}
	in = in[:3]

	if slices.Equal(in, c.KeyBinds.W) || slices.Equal(in, c.KeyBinds.K) || slices.Equal(in, c.KeyBinds.UP) {
		return Up
	} else if slices.Equal(in, c.KeyBinds.D) || slices.Equal(in, c.KeyBinds.L) || slices.Equal(in, c.KeyBinds.RIGHT) {
		return Right
	} else if slices.Equal(in, c.KeyBinds.S) || slices.Equal(in, c.KeyBinds.J) || slices.Equal(in, c.KeyBinds.DOWN) {
		return Down
	} else if slices.Equal(in, c.KeyBinds.A) || slices.Equal(in, c.KeyBinds.H) || slices.Equal(in, c.KeyBinds.LEFT) {
		return Left
	} else if slices.Equal(in, c.KeyBinds.RETURN) || slices.Equal(in, c.KeyBinds.SPACE) {
		return Confirm
	}

	return Unknown
}

func (c *Controller) HandleInput(in []byte) bool {
	return c.HandleSymbol(c.Symbolize(in))
}

// HandleSymbol reports whether the symbol changed anything. Reversals and
// input outside a run are dropped silently; the engine checks reversals again
// on its own.
func (c *Controller) HandleSymbol(sym Symbol) bool {
	switch sym {
	case Confirm:
		if c.target.Status() == game.Running {
			return false
		}
		c.target.Start()
		return true

	case Up, Down, Left, Right:
		if c.target.Status() != game.Running {
			return false
		}
		h := sym.Heading()
		if cur := c.target.Heading(); cur != game.None && h == cur.Opposite() {
			return false
		}
		return c.target.SetHeading(h)
	}

	return false
}
