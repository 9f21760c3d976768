// Copyright 2025 Seth Burkart
//
// MCP remote control server for OpenLP

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/SethBurkart123/openlp-mcp/internal/bridge"
	"github.com/SethBurkart123/openlp-mcp/internal/config"
	"github.com/SethBurkart123/openlp-mcp/internal/conversion"
	"github.com/SethBurkart123/openlp-mcp/internal/fetch"
	"github.com/SethBurkart123/openlp-mcp/internal/openlp"
	"github.com/SethBurkart123/openlp-mcp/internal/server"
	"github.com/SethBurkart123/openlp-mcp/internal/transport"
	"github.com/SethBurkart123/openlp-mcp/internal/worker"
)

func main() {
	// Optional .env in the working directory.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
		log.Printf("Configuration: transport=%s address=%s short=%s long=%s",
			cfg.Transport, cfg.HTTPAddress, cfg.ShortTimeout, cfg.LongTimeout)
	}

	audit, err := server.NewAuditLogger(cfg.AuditLogPath)
	if err != nil {
		log.Fatalf("Failed to open audit log: %v", err)
	}
	defer audit.Close()

	// The bridge owns the privileged loop; every operation on the host
	// model runs through it.
	b := bridge.New(
		bridge.WithShortTimeout(cfg.ShortTimeout),
		bridge.WithLongTimeout(cfg.LongTimeout),
	)

	host := openlp.NewMemoryHost()

	var resolverOpts []fetch.Option
	if cfg.DownloadDir != "" {
		resolverOpts = append(resolverOpts, fetch.WithDir(cfg.DownloadDir))
	}
	resolver := fetch.NewResolver(resolverOpts...)

	pipelineOpts := []conversion.PipelineOption{conversion.WithTimeout(cfg.LongTimeout)}
	if cfg.SofficePath != "" {
		pipelineOpts = append(pipelineOpts,
			conversion.WithConverters(conversion.NewLibreOffice(cfg.SofficePath), conversion.DeckFallback{}))
	}
	pipeline := conversion.NewPipeline(b.Post, pipelineOpts...)

	workerOpts := []worker.Option{worker.WithPipeline(pipeline)}

	var tr interface {
		Serve(transport.Handler) error
		Close() error
	}
	switch cfg.Transport {
	case config.TransportStdio:
		tr = transport.NewStdioTransport(os.Stdin, os.Stdout)
	default:
		httpTr := transport.NewHTTPTransport(&transport.HTTPTransportConfig{
			Address:           cfg.HTTPAddress,
			CORSOrigin:        cfg.CORSOrigin,
			HeartbeatInterval: cfg.HeartbeatInterval,
			ReadTimeout:       cfg.HTTPReadTimeout,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			RateLimit:         cfg.RateLimit,
		})
		// Push live-state changes to websocket subscribers.
		workerOpts = append(workerOpts, worker.WithAnnouncer(func(ev worker.StateEvent) {
			httpTr.State().Broadcast(ev)
		}))
		tr = httpTr
	}

	worker.New(b, host, host, host.Themes, openlp.PDFOpener{}, resolver, workerOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	srv := server.NewServer(b, audit)

	errChan := make(chan error, 1)
	go func() {
		errChan <- tr.Serve(srv.Handle)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-errChan:
		if err != nil {
			log.Printf("Transport error: %v", err)
		}
	}

	cancel()
	if err := tr.Close(); err != nil {
		log.Printf("Error closing transport: %v", err)
	}
	if err := resolver.Clean(); err != nil {
		log.Printf("Error purging downloads: %v", err)
	}
	log.Println("Shutdown complete")
}
