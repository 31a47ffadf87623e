package convert

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/krwrates/calc"
	"github.com/sig-0/krwrates/cmd/env"
	"github.com/sig-0/krwrates/provider/naver"
	"github.com/sig-0/krwrates/server/config"
	"github.com/sig-0/krwrates/storage/types"
)

// convertCfg wraps the one-shot conversion configuration
type convertCfg struct {
	amount    float64
	from      string
	to        string
	rateType  string
	sourceURL string
	timeout   time.Duration
}

// NewConvertCmd creates the convert subcommand. It fetches the live
// table once and prints a single conversion
func NewConvertCmd() *ffcli.Command {
	cfg := &convertCfg{}

	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "convert",
		ShortUsage: "convert -amount <n> -from <code> -to <code> [flags]",
		LongHelp:   "Converts an amount between two currencies using the live rate table",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *convertCfg) registerFlags(fs *flag.FlagSet) {
	fs.Float64Var(&c.amount, "amount", 1, "the amount to convert")
	fs.StringVar(&c.from, "from", "USD", "the source currency code")
	fs.StringVar(&c.to, "to", "KRW", "the target currency code")
	fs.StringVar(&c.rateType, "type", "mid", "the rate type to convert under")

	fs.StringVar(
		&c.sourceURL,
		"source-url",
		config.DefaultSourceURL,
		"the upstream exchange list page URL",
	)

	fs.DurationVar(
		&c.timeout,
		"timeout",
		config.DefaultFetchTimeoutSeconds*time.Second,
		"the outbound fetch timeout",
	)
}

func (c *convertCfg) exec(ctx context.Context, _ []string) error {
	rateType, err := types.ParseRateType(c.rateType)
	if err != nil {
		return err
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	snap, err := naver.New(c.sourceURL, c.timeout).Fetch(runCtx)
	if err != nil {
		return fmt.Errorf("unable to fetch snapshot: %w", err)
	}

	converted, err := calc.Convert(
		snap,
		c.amount,
		types.Currency(c.from),
		types.Currency(c.to),
		rateType,
	)
	if err != nil {
		return err
	}

	fmt.Printf(
		"%s %s = %s %s (%s)\n",
		calc.FormatDisplayTrimmed(c.amount), c.from,
		calc.FormatDisplayTrimmed(converted), c.to,
		rateType,
	)

	return nil
}
