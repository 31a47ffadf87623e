package snapshot

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/krwrates/cmd/env"
	"github.com/sig-0/krwrates/provider/currencies"
	"github.com/sig-0/krwrates/provider/naver"
	"github.com/sig-0/krwrates/server/config"
	"github.com/sig-0/krwrates/storage/file"
)

// snapshotCfg wraps the one-shot snapshot job configuration
type snapshotCfg struct {
	outPath   string
	sourceURL string
	buildID   string
	timeout   time.Duration
}

// NewSnapshotCmd creates the snapshot subcommand. It performs a single
// fetch and writes the rates.json artifact for static deployments
func NewSnapshotCmd() *ffcli.Command {
	cfg := &snapshotCfg{}

	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "snapshot",
		ShortUsage: "snapshot [flags]",
		LongHelp:   "Fetches the current rate table once and writes the snapshot artifact",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *snapshotCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.outPath,
		"out",
		"data/rates.json",
		"the artifact output path",
	)

	fs.StringVar(
		&c.sourceURL,
		"source-url",
		config.DefaultSourceURL,
		"the upstream exchange list page URL",
	)

	fs.StringVar(
		&c.buildID,
		"build-id",
		"",
		"the short build identifier embedded in the artifact",
	)

	fs.DurationVar(
		&c.timeout,
		"timeout",
		config.DefaultFetchTimeoutSeconds*time.Second,
		"the outbound fetch timeout",
	)
}

func (c *snapshotCfg) exec(ctx context.Context, _ []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	provider := naver.New(c.sourceURL, c.timeout)

	snap, err := provider.Fetch(runCtx)
	if err != nil {
		return fmt.Errorf("unable to fetch snapshot: %w", err)
	}

	store := file.NewStorage(c.outPath, c.sourceURL, c.buildID, currencies.Supported())

	if err := store.SaveSnapshot(runCtx, snap); err != nil {
		return fmt.Errorf("unable to save snapshot: %w", err)
	}

	logger.Info(
		"snapshot artifact written",
		"path", c.outPath,
		"fetched_at", snap.FetchedAt.String(),
	)

	return nil
}
