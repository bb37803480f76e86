package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func main() {
	mode := flag.String("mode", "agent", "agent (line protocol on stdin/stdout) or serve (HTTP API)")
	configPath := flag.String("config", os.Getenv("OTHELLO_CONFIG"), "optional JSON config file")
	addr := flag.String("addr", "", "listen address in serve mode (overrides listen_addr)")
	name := flag.String("name", "", "identification line in agent mode (overrides agent_name)")
	flag.Parse()

	setupLogging(os.Stderr, "info")
	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("[backend] invalid configuration")
		os.Exit(2)
	}
	if *addr != "" {
		config.ListenAddr = *addr
	}
	if *name != "" {
		config.AgentName = *name
	}
	setupLogging(os.Stderr, config.LogLevel)
	configStore.Update(config)

	switch *mode {
	case "agent":
		err = runAgent(config)
	case "serve":
		err = runServer(config)
	default:
		err = errors.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Error().Err(err).Msg("[backend] exiting")
		os.Exit(1)
	}
}

func runAgent(config Config) error {
	selector, err := NewMoveSelectorFromConfig(config)
	if err != nil {
		return err
	}
	agent := NewAgent(config.AgentName, selector, os.Stdin, os.Stdout)
	agent.logStats = config.AiLogSearchStats
	return agent.Run()
}

func runServer(config Config) error {
	controller := NewGameController(DefaultGameSettings())
	hub := NewHub()
	ghostHub := NewGhostHub(time.Duration(config.AiGhostThrottleMs) * time.Millisecond)
	analitics := NewAnaliticsHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controller.SetGhostPublisher(
		func() bool { return ghostHub.HasClients() && GetConfig().GhostMode },
		ghostHub.Publish,
	)
	controller.SetDecisionSink(analitics.Record)

	go hub.Run(ctx.Done())
	go ghostHub.Run(ctx.Done())
	go analitics.Run(ctx.Done())
	go runMatchLoop(ctx, controller, hub)

	server := &http.Server{
		Addr:    config.ListenAddr,
		Handler: newRouter(controller, hub, ghostHub, analitics),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	log.Info().Str("addr", config.ListenAddr).Msg("[backend] listening")

	var runErr error
	select {
	case <-sigCtx.Done():
		log.Info().Msg("[backend] shutdown signal received")
	case err, ok := <-serverErrCh:
		if ok {
			runErr = errors.Wrap(err, "http server")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Err(err).Msg("[backend] graceful shutdown failed")
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			log.Warn().Err(closeErr).Msg("[backend] forced close failed")
		}
	}
	cancel()
	controller.Stop()
	return runErr
}

// runMatchLoop advances the current match every 50ms and broadcasts each
// applied move.
func runMatchLoop(ctx context.Context, controller *GameController, hub *Hub) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !controller.Tick() {
				continue
			}
			if entry, ok := controller.LatestHistoryEntry(); ok {
				hub.Publish("history", historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}})
			}
			hub.Publish("status", controllerStatus(controller))
		}
	}
}
