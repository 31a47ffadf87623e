package serve

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/krwrates/cmd/env"
	"github.com/sig-0/krwrates/history"
	"github.com/sig-0/krwrates/ingest"
	"github.com/sig-0/krwrates/provider/naver"
	"github.com/sig-0/krwrates/server"
	"github.com/sig-0/krwrates/server/config"
	"github.com/sig-0/krwrates/storage/memory"
)

// serveCfg wraps the serve configuration
type serveCfg struct {
	config *config.Config

	configPath string
}

// NewServeCmd creates the serve subcommand
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve [flags]",
		LongHelp:   "Serves the calculator page, the snapshot artifact and the history API",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.config.ListenAddress,
		"listen",
		config.DefaultListenAddress,
		"the IP:PORT URL for the server",
	)

	fs.StringVar(
		&c.config.SourceURL,
		"source-url",
		config.DefaultSourceURL,
		"the upstream exchange list page URL",
	)

	fs.StringVar(
		&c.config.HistoryURL,
		"history-url",
		"",
		"the historical time-series endpoint URL, if any",
	)

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the server TOML configuration, if any",
	)
}

func (c *serveCfg) exec(ctx context.Context, _ []string) error {
	// Read the server configuration, if any
	if c.configPath != "" {
		serverCfg, err := config.Read(c.configPath)
		if err != nil {
			return fmt.Errorf("unable to read server config, %w", err)
		}

		c.config = serverCfg
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Warn("unable to load .env file")
	}

	// Create an in-memory snapshot store
	store := memory.NewStorage()

	fetchTimeout := time.Duration(c.config.FetchTimeoutSeconds) * time.Second

	// Create the fetch scheduler with the upstream provider
	orchestrator := ingest.New(store, ingest.WithLogger(logger))

	if err := orchestrator.Register(naver.New(c.config.SourceURL, fetchTimeout)); err != nil {
		return fmt.Errorf("unable to register provider: %w", err)
	}

	// Wire the history service, if configured
	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithConfig(c.config),
	}

	if c.config.HistoryURL != "" {
		historyService := history.NewService(
			history.NewClient(c.config.HistoryURL, fetchTimeout),
			history.NewMemoryCache(time.Duration(c.config.HistoryCacheHours)*time.Hour),
		)

		serverOpts = append(serverOpts, server.WithHistory(historyService))
	}

	s, err := server.New(store, serverOpts...)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return s.Serve(gCtx)
	})

	// Start the snapshot fetch scheduler
	group.Go(func() error {
		return orchestrator.Start(gCtx)
	})

	return group.Wait()
}
