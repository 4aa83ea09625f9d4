package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	BSnakeClient "BSnake/client"
	"BSnake/game"
	BSnakeServer "BSnake/server"
	"BSnake/store"

	"github.com/HandyGold75/GOLib/logger"
)

func main() {
	cfg := game.DefaultConfig()

	isServer := flag.Bool("s", false, "start a server instance")
	flag.BoolVar(isServer, "server", false, "start a server instance")
	addr := flag.String("addr", ":8080", "server listen address")
	grid := flag.Int("grid", cfg.GridSize, "cells per board side")
	period := flag.Duration("period", cfg.TickPeriod, "time between two ticks")
	storePath := flag.String("store", "BSnake.json", "high score file")
	maxSessions := flag.Int("max-sessions", 64, "concurrent server sessions, 0 for no limit")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), "Yet another game of Snake.\r\nUse -s or --server to start a server instance.\r\n\r\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *grid != cfg.GridSize {
		cfg.GridSize = *grid
		cfg.Start = game.DefaultStart(*grid)
	}
	cfg.TickPeriod = *period

	st := store.NewFile(*storePath)

	if *isServer {
		lgr, err := logger.New("BSnake.log")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		lgr.UseSeperators = false
		lgr.CharCountPerPart = 16

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := BSnakeServer.NewServer(*addr, cfg, st, *maxSessions, lgr).Run(ctx); err != nil {
			lgr.Log("high", "Error", err)
			os.Exit(1)
		}
		return
	}

	if err := BSnakeClient.Run(cfg, st); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
