package screen

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"BSnake/game"

	"golang.org/x/term"
)

func newTestScreen(t *testing.T, size int) (*Screen, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	trm := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{strings.NewReader(""), out}, "")

	scr, err := NewScreen(size, trm)
	if err != nil {
		t.Fatalf("NewScreen: %v", err)
	}
	return scr, out
}

func TestNewScreenInvalidSize(t *testing.T) {
	trm := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{}, "")
	if _, err := NewScreen(0, trm); !errors.Is(err, ErrScreens.InvalidSize) {
		t.Errorf("NewScreen(0) error = %v, want InvalidSize", err)
	}
}

func TestRender(t *testing.T) {
	scr, _ := newTestScreen(t, 5)

	scr.Render(game.Snapshot{
		Grid:   5,
		Snake:  []game.Cell{{X: 2, Y: 2}, {X: 1, Y: 2}},
		Food:   game.Cell{X: 4, Y: 0},
		Status: game.Running,
	})

	tests := []struct {
		cell game.Cell
		want uint8
	}{
		{cell: game.Cell{X: 2, Y: 2}, want: scr.Objects.Head},
		{cell: game.Cell{X: 1, Y: 2}, want: scr.Objects.Snake},
		{cell: game.Cell{X: 4, Y: 0}, want: scr.Objects.Food},
		{cell: game.Cell{X: 0, Y: 0}, want: scr.Objects.Empty},
	}
	for _, tt := range tests {
		if got, err := scr.GetCell(tt.cell); err != nil || got != tt.want {
			t.Errorf("GetCell(%v) = %v, %v, want %v", tt.cell, got, err, tt.want)
		}
	}

	if scr.Rows[0][0] != scr.Objects.Wall || scr.Rows[6][6] != scr.Objects.Wall {
		t.Error("border is not a wall")
	}
	if _, err := scr.GetCell(game.Cell{X: 5, Y: 0}); !errors.Is(err, ErrScreens.XOutOfBounds) {
		t.Errorf("GetCell off grid error = %v", err)
	}
}

func TestRenderGameOver(t *testing.T) {
	scr, _ := newTestScreen(t, 5)

	scr.Render(game.Snapshot{
		Grid:   5,
		Snake:  []game.Cell{{X: 2, Y: 2}},
		Food:   game.Cell{X: 4, Y: 0},
		Status: game.Over,
	})

	if scr.Rows[0][3] != scr.Objects.Warning {
		t.Error("border not painted as a warning after game over")
	}
	if got, _ := scr.GetCell(game.Cell{X: 4, Y: 0}); got != scr.Objects.Empty {
		t.Error("food painted after game over")
	}
}

func TestDraw(t *testing.T) {
	scr, out := newTestScreen(t, 5)

	snap := game.Snapshot{
		Grid:      5,
		Snake:     []game.Cell{{X: 2, Y: 2}},
		Food:      game.Cell{X: 1, Y: 1},
		Score:     3,
		HighScore: 7,
		Status:    game.Running,
	}
	if err := scr.Draw(snap); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	drawn := out.String()
	if !strings.HasPrefix(drawn, "\033[0;0H") {
		t.Error("draw does not start by homing the cursor")
	}
	if !strings.Contains(drawn, "Score: 3") || !strings.Contains(drawn, "High: 7") {
		t.Errorf("status line missing from output %q", drawn)
	}
	if got := strings.Count(drawn, "\r\n"); got != 5+2+1 {
		t.Errorf("drew %d line breaks, want %d", got, 5+2+1)
	}
}

func TestStatusLine(t *testing.T) {
	scr, _ := newTestScreen(t, 5)

	over := scr.StatusLine(game.Snapshot{Status: game.Over, Cause: game.CauseSelf, Score: 4, HighScore: 4, NewRecord: true})
	if !strings.Contains(over, "self-collision") || !strings.Contains(over, "New record") {
		t.Errorf("game over line %q", over)
	}
	if idle := scr.StatusLine(game.Snapshot{Status: game.Idle}); !strings.Contains(idle, "Return") {
		t.Errorf("idle line %q", idle)
	}
}
