package BSnakeClient

import (
	"errors"
	"testing"

	"BSnake/game"
)

func TestFitGrid(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantSize      int
		wantErr       error
	}{
		{name: "roomy terminal", width: 200, height: 60, wantSize: 20},
		{name: "narrow terminal", width: 30, height: 60, wantSize: 13},
		{name: "short terminal", width: 200, height: 14, wantSize: 10},
		{name: "tiny terminal", width: 12, height: 8, wantErr: ErrTerminalSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := fitGrid(game.DefaultConfig(), tt.width, tt.height)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("fitGrid error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if cfg.GridSize != tt.wantSize {
				t.Errorf("grid = %d, want %d", cfg.GridSize, tt.wantSize)
			}
			if !cfg.Start.InBounds(cfg.GridSize) {
				t.Errorf("start %v outside the %d grid", cfg.Start, cfg.GridSize)
			}
		})
	}
}

func TestIsQuit(t *testing.T) {
	for _, in := range [][]byte{{3, 0, 0}, {4, 0, 0}, {'q', 0, 0}} {
		if !isQuit(in) {
			t.Errorf("%v not treated as quit", in)
		}
	}
	if isQuit([]byte{27, 91, 65}) {
		t.Error("arrow key treated as quit")
	}
}
