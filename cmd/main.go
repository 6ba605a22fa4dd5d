package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/arbitrable-escrow/escrow-api/api"
	"github.com/arbitrable-escrow/escrow-api/database"
	"github.com/arbitrable-escrow/escrow-api/escrow"
	"github.com/arbitrable-escrow/escrow-api/ethereum"
	"github.com/arbitrable-escrow/escrow-api/ipfs"
	"github.com/arbitrable-escrow/escrow-api/subgraph"
	"github.com/arbitrable-escrow/escrow-api/syncer"
	"github.com/arbitrable-escrow/escrow-api/tokens"
	"github.com/arbitrable-escrow/escrow-api/types"
)

// Version will be set at build time
var Version = "development"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file")
	}

	// create a new logger
	Logger := slog.New(tint.NewHandler(os.Stderr, nil))

	// set global logger with custom options
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level: slog.LevelDebug,
		}),
	))

	Logger.Info("Starting escrow-api ("+Version+")",
		"Go Version", runtime.Version(),
		"Operating System", runtime.GOOS,
		"Architecture", runtime.GOARCH)

	syncIntervalSecs, err := strconv.ParseUint(os.Getenv("SYNC_INTERVAL"), 10, 64)
	if err != nil {
		log.Fatalf("failed to parse SYNC_INTERVAL: %v", err)
	}

	syncBatchSize, err := strconv.ParseUint(os.Getenv("SYNC_BATCH_SIZE"), 10, 64)
	if err != nil {
		log.Fatalf("failed to parse SYNC_BATCH_SIZE: %v", err)
	}

	eth, err := ethereum.NewClient(ethereum.ClientOpts{
		Endpoint:            os.Getenv("ETHEREUM_RPC_URL"),
		NativeEscrowAddress: common.HexToAddress(os.Getenv("NATIVE_ESCROW_ADDRESS")),
		TokenEscrowAddress:  common.HexToAddress(os.Getenv("TOKEN_ESCROW_ADDRESS")),
		Logger:              Logger.With("component", "ethereum"),
	})
	if err != nil {
		log.Fatalf("failed to create ethereum client: %v", err)
	}

	store := ipfs.NewClient(ipfs.ClientOpts{
		GatewayURL: os.Getenv("IPFS_GATEWAY_URL"),
		PinURL:     os.Getenv("IPFS_PIN_URL"),
		Logger:     Logger.With("component", "ipfs"),
	})

	registry := tokens.NewRegistry(nil)

	aggregators := map[types.Track]*escrow.Aggregator{}
	for track, endpoint := range map[types.Track]string{
		types.TrackNative: os.Getenv("NATIVE_SUBGRAPH_URL"),
		types.TrackToken:  os.Getenv("TOKEN_SUBGRAPH_URL"),
	} {
		index := subgraph.NewClient(subgraph.ClientOpts{
			Endpoint: endpoint,
			Logger:   Logger.With("component", "subgraph", "track", track),
		})
		aggregators[track] = escrow.NewAggregator(escrow.AggregatorOpts{
			Track:     track,
			Index:     index,
			Reader:    eth,
			Store:     store,
			Registry:  registry,
			BatchSize: int(syncBatchSize),
			Logger:    Logger.With("component", "aggregator", "track", track),
		})
	}

	db, err := database.NewDatabase(database.DatabaseOpts{
		URI:          os.Getenv("DATABASE_URI"),
		DatabaseName: os.Getenv("DATABASE_NAME"),
		Logger:       Logger.With("component", "database"),
	})
	if err != nil {
		log.Fatalf("failed to create database: %v", err)
	}

	if err := db.CreateIndexes(context.Background()); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}

	sync := syncer.NewSyncer(syncer.SyncerOpts{
		Aggregators: []*escrow.Aggregator{aggregators[types.TrackNative], aggregators[types.TrackToken]},
		Database:    db,
		Interval:    time.Duration(syncIntervalSecs) * time.Second,
		Logger:      Logger.With("component", "syncer"),
	})

	// start api server
	server, err := api.NewServer(api.ServerOpts{
		Logger:      Logger.With("component", "api-server"),
		Database:    db,
		Aggregators: aggregators,
		Reader:      eth,
		Port:        os.Getenv("API_PORT"),
	})
	if err != nil {
		log.Fatalf("failed to create api server: %v", err)
	}

	go server.StartServer()

	// Create context that will be canceled on SIGINT or SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start syncer in a goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- sync.Run(ctx)
	}()

	// Wait for either error or signal
	select {
	case err := <-errChan:
		if err != nil {
			log.Printf("Syncer error: %v", err)
		}
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)
		fmt.Println("Shutting down gracefully...")
		cancel() // This will trigger shutdown via context

		// Wait for syncer to finish
		if err := <-errChan; err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}
}
