package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"printwatch/internal/config"
	"printwatch/internal/logger"
	"printwatch/internal/monitor"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.FromEnv()
	logger.Init(cfg.LogLevel)

	// create monitor
	m := monitor.New(cfg)

	// run monitor in background
	go func() {
		if err := m.Run(ctx); err != nil {
			log.Printf("monitor exited: %v", err)
			cancel()
		}
	}()

	// wait for termination signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		log.Println("shutting down")
		cancel()
	case <-ctx.Done():
	}

	// give graceful shutdown some time
	time.Sleep(500 * time.Millisecond)
	log.Println("exited")
}
