package BSnakeClient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"BSnake/game"
	"BSnake/screen"
	"BSnake/session"

	"golang.org/x/term"
)

type keyBinds struct{ CTRL_C, CTRL_D, Q []byte }

var (
	KeyBinds = keyBinds{CTRL_C: []byte{3, 0, 0}, CTRL_D: []byte{4, 0, 0}, Q: []byte{113, 0, 0}}

	ErrTerminal      = errors.New("stdin/ stdout should be a terminal")
	ErrTerminalSmall = errors.New("terminal is too small for the smallest grid")
)

func listenKeys(keys chan<- []byte) {
	for {
		in := make([]byte, 3)
		if _, err := os.Stdin.Read(in); err != nil {
			close(keys)
			return
		}
		keys <- in
	}
}

// fitGrid shrinks the grid so the board, its wall and the status line fit
// the terminal.
func fitGrid(cfg game.Config, width, height int) (game.Config, error) {
	size := min(cfg.GridSize, width/2-2, height-4)
	if size < game.MinGridSize {
		return cfg, ErrTerminalSmall
	}
	if size != cfg.GridSize {
		cfg.GridSize = size
		cfg.Start = game.DefaultStart(size)
	}
	return cfg, nil
}

func isQuit(in []byte) bool {
	return slices.Equal(in, KeyBinds.CTRL_C) || slices.Equal(in, KeyBinds.CTRL_D) || slices.Equal(in, KeyBinds.Q)
}

// Run plays one terminal session until the player quits. No logger is used,
// its output would tear the raw mode screen.
func Run(cfg game.Config, st game.Store) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ErrTerminal
	}

	width, height, err := term.GetSize(fd)
	if err != nil {
		return err
	}
	cfg, err = fitGrid(cfg, width, height)
	if err != nil {
		return err
	}

	originalTrm, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, originalTrm)

	trm := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "")

	scr, err := screen.NewScreen(cfg.GridSize, trm)
	if err != nil {
		return err
	}

	ss, err := session.New(context.Background(), cfg, st, nil)
	if err != nil {
		return err
	}
	defer ss.Close()

	// Drawing happens here, never on the tick path; stale frames are dropped.
	frames := make(chan game.Snapshot, 1)
	ss.Subscribe(func(snap game.Snapshot) {
		select {
		case frames <- snap:
		default:
			select {
			case <-frames:
			default:
			}
			select {
			case frames <- snap:
			default:
			}
		}
	})

	keys := make(chan []byte)
	go listenKeys(keys)

	if _, err := trm.Write([]byte("\033[2J")); err != nil {
		return err
	}
	if err := scr.Draw(ss.Snapshot()); err != nil {
		return err
	}

	for {
		select {
		case snap := <-frames:
			if err := scr.Draw(snap); err != nil {
				return err
			}
		case in, ok := <-keys:
			if !ok || isQuit(in) {
				fmt.Print("\r\n")
				return nil
			}
			ss.InputBytes(in)
		}
	}
}
