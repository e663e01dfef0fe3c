package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/normanking/avatarmotion/internal/bus"
	"github.com/normanking/avatarmotion/internal/config"
	"github.com/normanking/avatarmotion/internal/engine"
	"github.com/normanking/avatarmotion/internal/gateway"
	"github.com/normanking/avatarmotion/internal/logging"
	"github.com/normanking/avatarmotion/internal/motion"
	"github.com/normanking/avatarmotion/internal/skeleton"
)

// frameRate is the fixed internal update rate of the motion engine.
const frameRate = 60

func main() {
	modelPath := flag.String("model", "", "avatar model path (overrides config)")
	manifestPath := flag.String("manifest", "", "motion manifest path (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *modelPath != "" {
		cfg.Avatar.ModelPath = *modelPath
	}
	if *manifestPath != "" {
		cfg.Motion.ManifestPath = *manifestPath
	}

	logger, err := logging.New(&logging.Config{
		LogDir:  cfg.Log.Dir,
		Level:   logging.LogLevel(cfg.Log.Level),
		Console: cfg.Log.Console,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	log := logger.Component("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := bus.NewEventBus()

	catalog := motion.NewCatalog(cfg.Motion.ManifestPath, logger.Component("catalog"))
	if err := catalog.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("catalog load")
	}
	if cfg.Motion.WatchManifest {
		if err := catalog.Watch(ctx); err != nil {
			log.Warn().Err(err).Msg("manifest watch unavailable")
		}
		defer catalog.Close()
	}

	eng := engine.New(cfg, catalog, events, logger)

	avatar, err := skeleton.LoadAvatar(cfg.Avatar.ModelPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Avatar.ModelPath).Msg("avatar load failed, running unbound")
	} else {
		eng.BindAvatar(avatar)
		eng.ResetToIdle()
	}

	gw := gateway.NewServer(cfg.Gateway, eng, events, logger.Zerolog())
	go func() {
		if err := gw.Run(ctx); err != nil {
			log.Error().Err(err).Msg("gateway stopped")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()
	last := time.Now()

	log.Info().Msg("motion engine running")
	for {
		select {
		case <-sig:
			log.Info().Msg("shutting down")
			cancel()
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			eng.Update(dt)
		}
	}
}
