package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/gochat-relay/internal/auth"
	"github.com/Tyrowin/gochat-relay/internal/cluster"
	"github.com/Tyrowin/gochat-relay/internal/presence"
	"github.com/Tyrowin/gochat-relay/internal/registry"
	"github.com/Tyrowin/gochat-relay/internal/router"
	"github.com/Tyrowin/gochat-relay/internal/server"
	"github.com/Tyrowin/gochat-relay/internal/signaling"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/sync/errgroup"
)

const presenceQueueSize = 1024

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run loads the configuration and dispatches to the requested command.
// Without arguments it serves the relay.
func run(args []string) error {
	// A missing .env file is fine, the environment may already be set.
	_ = godotenv.Load()

	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		return serve(ctx, cfg, log)
	case "token":
		return runToken(cfg, args, os.Stdout)
	case "chat":
		return runChat(ctx, cfg, log, args)
	default:
		return fmt.Errorf("unknown command %q (want serve, token or chat)", command)
	}
}

func serve(ctx context.Context, cfg *server.Config, log *slog.Logger) error {
	log.Info("Starting relay server", "backend", cfg.StoreBackend, "addr", cfg.Port)

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing store...")
		if err := st.Close(); err != nil {
			log.Error("Store close failed", "error", err)
		}
	}()

	reg := registry.NewMemory()
	var pub registry.Publisher = reg
	var trackerOpts []presence.Option

	if cfg.NATSURL != "" {
		nodeID := cfg.NodeID
		if nodeID == "" {
			nodeID = uuid.NewString()
		}
		nc, err := cluster.Connect(cfg.NATSURL, "relay-"+nodeID)
		if err != nil {
			return err
		}
		bus := cluster.NewBus(log, reg, nc, cfg.NATSSubjectPrefix, nodeID)
		if err := bus.Start(); err != nil {
			nc.Close()
			return err
		}
		defer func() {
			if err := bus.Close(); err != nil {
				log.Error("Cluster bus close failed", "error", err)
			}
		}()
		pub = bus
		trackerOpts = append(trackerOpts, presence.WithSharedStore())
		log.Info("Cluster bus connected", "url", cfg.NATSURL, "node_id", nodeID)
	}

	tracker := presence.NewTracker(log, st, pub, reg, cfg.StoreTimeout, presenceQueueSize, trackerOpts...)
	dispatcher := server.NewDispatcher(log,
		router.New(log, st, pub, cfg.StoreTimeout),
		signaling.NewRelay(log, pub),
	)
	hub := server.NewHub(log, reg, tracker, dispatcher)
	authn := auth.NewAuthenticator(cfg.AuthJWTSecret)
	if !authn.RequiresToken() {
		log.Warn("AUTH_JWT_SECRET is empty; trusting the userId query parameter")
	}

	srv := server.NewServer(cfg, log, hub, reg, authn, tracker)
	httpServer := server.CreateServer(cfg.Port, srv.SetupRoutes())

	g, gctx := errgroup.WithContext(ctx)

	// The tracker stops once the hub has closed its queue, after the
	// offline edges of the remaining clients were persisted.
	g.Go(func() error { return tracker.Run(context.Background()) })

	server.StartHub(log, hub)
	g.Go(func() error { return server.StartServer(log, httpServer) })

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully...")
		shutdownErr := server.ShutdownServer(log, httpServer, cfg.ShutdownTimeout)
		if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
			log.Warn("Hub shutdown incomplete", "error", err)
		}
		return shutdownErr
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("relay server: %w", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}
