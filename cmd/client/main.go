package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/iudanet/possync/internal/client/api"
	"github.com/iudanet/possync/internal/client/broadcast"
	"github.com/iudanet/possync/internal/client/cache"
	"github.com/iudanet/possync/internal/client/cli"
	"github.com/iudanet/possync/internal/client/iocli"
	"github.com/iudanet/possync/internal/client/netstatus"
	"github.com/iudanet/possync/internal/client/queue"
	"github.com/iudanet/possync/internal/client/resolver"
	"github.com/iudanet/possync/internal/client/session"
	"github.com/iudanet/possync/internal/client/shellproxy"
	"github.com/iudanet/possync/internal/client/storage/sqlite"
	"github.com/iudanet/possync/internal/client/sync"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Backend URL")
	dbPath := flag.String("db", "possync-client.db", "Path to local database")
	listenAddr := flag.String("listen", "127.0.0.1:8787", "Listen address for serve")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	command := args[0]

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Открываем общее локальное хранилище
	store, err := sqlite.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	// Собираем сервисы клиента
	sessionStore := session.NewStore(store, logger)
	apiClient := api.NewClient(*serverURL, sessionStore.Token)
	cacheService := cache.NewService(store, store, logger)
	interceptor := api.NewInterceptor(apiClient, cacheService, sessionStore, logger)
	queueService := queue.NewService(store, logger)
	monitor := netstatus.NewMonitor(apiClient, logger)
	bus := broadcast.NewBus(logger)

	coordinator := sync.NewCoordinator(sync.Config{
		Client:   apiClient,
		Queue:    queueService,
		Resolver: resolver.New(logger),
		Records:  store,
		Metadata: store,
		Monitor:  monitor,
		Bus:      bus,
		Logger:   logger,
	})

	proxy := shellproxy.New(interceptor, cacheService, queueService, store, apiClient, monitor, coordinator, logger)

	c := cli.New(cli.Deps{
		IO:          iocli.NewStdio(),
		Interceptor: interceptor,
		Session:     sessionStore,
		Queue:       queueService,
		Records:     store,
		Metadata:    store,
		Monitor:     monitor,
		Coordinator: coordinator,
		Proxy:       proxy,
		ListenAddr:  *listenAddr,
	})

	c.Run(ctx, command, args[1:])
}

func printVersion() {
	fmt.Printf("possync client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build date: %s\n", BuildDate)
	fmt.Printf("Git commit: %s\n", GitCommit)
}
