package main

import (
	"context"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snapstrip/photobooth/internal/frontend"
	"github.com/snapstrip/photobooth/internal/metrics"
	"github.com/snapstrip/photobooth/internal/timeline"
	"github.com/snapstrip/photobooth/internal/ws"
)

var serveOpts struct {
	port      int
	staticDir string
	logFile   string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the kiosk server for the browser booth",
	Long: `serve runs the booth behind an HTTP API with a WebSocket event stream and
Prometheus metrics on /metrics. The kiosk page is served from the binary when
built with -tags embed, otherwise from --static.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&serveOpts.port, "port", "p", 0, "override server.port")
	serveCmd.Flags().StringVar(&serveOpts.staticDir, "static", "internal/frontend/static", "kiosk page directory when not embedded")
	serveCmd.Flags().StringVar(&serveOpts.logFile, "log-file", "", "log file (default stderr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if serveOpts.port > 0 {
		cfg.Server.Port = serveOpts.port
	}
	log, err := newLogger(serveOpts.logFile)
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

	m := metrics.New()
	var (
		b        *booth
		buildErr error
	)
	loop.Call(func() { b, buildErr = newBooth(cfg, loop, m, log) })
	if buildErr != nil {
		return buildErr
	}
	defer loop.Call(b.ctrl.Close)

	bc := ws.NewBroadcaster(b.ctrl.Store(), cfg.Server.Throttle, cfg.Server.SnapshotEvery, cfg.Server.MaxConnections, log)
	bc.SetObserver(m)
	defer bc.Stop()
	loop.Call(func() { b.ctrl.Subscribe(bc.Publish) })

	srv := ws.NewServer(ws.Options{
		Config:      cfg.Server,
		Runner:      loop,
		Controller:  b.ctrl,
		Exporter:    b.exp,
		Catalog:     b.cat,
		Broadcaster: bc,
		Frontend:    frontendHandler(log),
		Metrics:     m.Handler(),
		Context:     cmd.Context(),
	}, log)
	return ws.ListenAndServe(cmd.Context(), cfg.Addr(), srv.Handler(), log)
}

func frontendHandler(log *zap.Logger) http.Handler {
	if h := frontend.Handler(); h != nil {
		return h
	}
	if _, err := os.Stat(serveOpts.staticDir); err != nil {
		log.Warn("no kiosk page available", zap.String("static", serveOpts.staticDir), zap.Error(err))
		return nil
	}
	log.Info("serving kiosk page from disk", zap.String("dir", serveOpts.staticDir))
	return http.FileServer(http.Dir(serveOpts.staticDir))
}
