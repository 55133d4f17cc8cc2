package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snapstrip/photobooth/internal/timeline"
	"github.com/snapstrip/photobooth/internal/tui/app"
)

var tuiLogFile string

func init() {
	rootCmd.Flags().StringVar(&tuiLogFile, "log-file", "photobooth.log", "where the terminal booth writes its log")
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(tuiLogFile)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loop := timeline.NewLoop(log)
	go loop.Run(loopCtx)
	defer func() {
		stopLoop()
		<-loop.Done()
	}()

	var (
		b        *booth
		buildErr error
	)
	loop.Call(func() { b, buildErr = newBooth(cfg, loop, nil, log) })
	if buildErr != nil {
		return buildErr
	}
	defer loop.Call(b.ctrl.Close)

	interval := time.Second / 12
	if cfg.Camera.FPS > 0 {
		interval = time.Second / time.Duration(cfg.Camera.FPS)
	}
	m := app.New(app.NewBooth(loop, b.ctrl, b.cam), app.Options{
		PreviewInterval: interval,
		Catalog:         b.cat,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	log.Info("terminal booth started", zap.String("camera", cfg.Camera.Device))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
