package screen

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"BSnake/game"

	"golang.org/x/term"
)

type (
	row []uint8

	screenObjects struct{ Default, Empty, Wall, Warning, Food, Snake, Head uint8 }

	// Screen paints snapshots as a grid of two column wide cells surrounded
	// by a wall.
	Screen struct {
		Rows     []row
		Size     int
		Objects  screenObjects
		CharMap  map[uint8][]byte
		Terminal *term.Terminal
	}

	errScreens struct{ InvalidSize, XOutOfBounds, YOutOfBounds error }
)

var ErrScreens = errScreens{
	InvalidSize:  errors.New("size should be positive"),
	XOutOfBounds: errors.New("x is out of bounds"),
	YOutOfBounds: errors.New("y is out of bounds"),
}

func NewScreen(size int, terminal *term.Terminal) (*Screen, error) {
	if size <= 0 {
		return &Screen{}, ErrScreens.InvalidSize
	}

	objects := screenObjects{Default: 0, Empty: 1, Wall: 2, Warning: 3, Food: 4, Snake: 5, Head: 6}

	ResetBytes := append([]byte("██"), terminal.Escape.Reset...)
	scr := &Screen{
		Size:    size,
		Objects: objects,
		CharMap: map[uint8][]byte{
			objects.Default: append(slices.Clone(terminal.Escape.Magenta), ResetBytes...),
			objects.Empty:   []byte("  "),
			objects.Wall:    append(slices.Clone(terminal.Escape.Blue), ResetBytes...),
			objects.Warning: append(slices.Clone(terminal.Escape.Red), ResetBytes...),
			objects.Food:    append(slices.Clone(terminal.Escape.Yellow), ResetBytes...),
			objects.Snake:   append(slices.Clone(terminal.Escape.Green), ResetBytes...),
			objects.Head:    append(slices.Clone(terminal.Escape.White), ResetBytes...),
		},
		Terminal: terminal,
	}
	scr.Clear()

	return scr, nil
}

// Clear resets every cell to empty inside a wall border.
func (s *Screen) Clear() {
	s.Rows = make([]row, s.Size+2)
	for y := range s.Rows {
		s.Rows[y] = make(row, s.Size+2)
		for x := range s.Rows[y] {
			if y == 0 || x == 0 || y == s.Size+1 || x == s.Size+1 {
				s.Rows[y][x] = s.Objects.Wall
			} else {
				s.Rows[y][x] = s.Objects.Empty
			}
		}
	}
}

// SetCell paints a grid cell, (0, 0) being the top left cell inside the wall.
func (s *Screen) SetCell(c game.Cell, state uint8) error {
	if c.Y < 0 || c.Y >= s.Size {
		return ErrScreens.YOutOfBounds
	}
	if c.X < 0 || c.X >= s.Size {
		return ErrScreens.XOutOfBounds
	}

	s.Rows[c.Y+1][c.X+1] = state
	return nil
}

func (s *Screen) GetCell(c game.Cell) (uint8, error) {
	if c.Y < 0 || c.Y >= s.Size {
		return 0, ErrScreens.YOutOfBounds
	}
	if c.X < 0 || c.X >= s.Size {
		return 0, ErrScreens.XOutOfBounds
	}

	return s.Rows[c.Y+1][c.X+1], nil
}

func (s *Screen) setBorder(state uint8) {
	for y := range s.Rows {
		for x := range s.Rows[y] {
			if y == 0 || x == 0 || y == s.Size+1 || x == s.Size+1 {
				s.Rows[y][x] = state
			}
		}
	}
}

func (s *Screen) Render(snap game.Snapshot) {
	s.Clear()
	if snap.Status == game.Over {
		s.setBorder(s.Objects.Warning)
	}

	if snap.Status != game.Over {
		_ = s.SetCell(snap.Food, s.Objects.Food)
	}
	for i, c := range snap.Snake {
		state := s.Objects.Snake
		if i == 0 {
			state = s.Objects.Head
		}
		_ = s.SetCell(c, state)
	}
}

func (s *Screen) StatusLine(snap game.Snapshot) string {
	switch snap.Status {
	case game.Idle:
		return fmt.Sprintf("Press Return to start   High: %v   Q to quit", snap.HighScore)
	case game.Over:
		record := ""
		if snap.NewRecord {
			record = "   New record!"
		}
		return fmt.Sprintf("Game Over (%v)   Score: %v   High: %v%v   Return to restart", snap.Cause, snap.Score, snap.HighScore, record)
	default:
		return fmt.Sprintf("Score: %v   High: %v   Length: %v", snap.Score, snap.HighScore, len(snap.Snake))
	}
}

func (s *Screen) Draw(snap game.Snapshot) error {
	s.Render(snap)

	lines := [][]byte{}
	for _, r := range s.Rows {
		line := []byte{}
		for _, col := range r {
			char, ok := s.CharMap[col]
			if !ok {
				char = s.CharMap[s.Objects.Default]
			}
			line = append(line, char...)
		}
		lines = append(lines, line)
	}

	status := s.StatusLine(snap)
	if width := max((s.Size+2)*2, 40); len(status) > width {
		status = status[:width-3] + "..."
	}
	lines = append(lines, append([]byte("\033[2K"), status...), []byte{})

	if _, err := s.Terminal.Write(append([]byte("\033[0;0H"), bytes.Join(lines, []byte("\r\n"))...)); err != nil {
		return err
	}

	return nil
}
