package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CoCanvas/internal/board"
	"CoCanvas/internal/config"
	"CoCanvas/internal/transport"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("cocanvas: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	serverURL := flag.String("server", "", "websocket server URL, overrides config")
	name := flag.String("name", "", "display name, overrides config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *name != "" {
		cfg.DisplayName = *name
	}

	if cfg.ServerURL == "" && cfg.Discover {
		url, err := transport.Discover(2 * time.Second)
		if err != nil {
			log.Printf("[main] discovery: %v", err)
		} else {
			log.Printf("[main] discovered board server at %s", url)
			cfg.ServerURL = url
		}
	}
	if cfg.ServerURL == "" {
		return errors.New("no server URL configured and none discovered")
	}

	// Connect eagerly so the session is warm by the time a display
	// name is bound and drawing becomes possible.
	sess := transport.NewSession(cfg.ServerURL, cfg.ReconnectAttempts, cfg.ReconnectDelay.Std())
	client := board.New(sess, board.Options{
		Color:          cfg.Color,
		Width:          cfg.Width,
		CanvasWidth:    cfg.Canvas.Width,
		CanvasHeight:   cfg.Canvas.Height,
		PixelRatio:     cfg.Canvas.PixelRatio,
		CursorInterval: cfg.CursorInterval.Std(),
	})
	sess.Connect()
	defer sess.Teardown()

	if cfg.DisplayName != "" {
		client.SetDisplayName(cfg.DisplayName)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = client.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if cfg.SnapshotPNG != "" {
		if err := client.ExportPNG(cfg.SnapshotPNG); err != nil {
			log.Printf("[main] png snapshot: %v", err)
		} else {
			log.Printf("[main] wrote %s", cfg.SnapshotPNG)
		}
	}
	if cfg.SnapshotPDF != "" {
		if err := client.ExportPDF(cfg.SnapshotPDF); err != nil {
			log.Printf("[main] pdf snapshot: %v", err)
		} else {
			log.Printf("[main] wrote %s", cfg.SnapshotPDF)
		}
	}
	return nil
}
