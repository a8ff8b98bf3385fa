// Package main is the entry point for commission-tally, which sums every
// affiliate_net_commission value in a JSON report and prints the total.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/j-veylop/commission-tally/internal/config"
	"github.com/j-veylop/commission-tally/internal/logger"
	"github.com/j-veylop/commission-tally/internal/report"
	"github.com/j-veylop/commission-tally/internal/services"
	"github.com/j-veylop/commission-tally/internal/version"
)

const historyChartWidth = 60

// errReported marks a failure whose message has already been written.
var errReported = errors.New("reported")

type options struct {
	userID  string
	from    string
	to      string
	watch   bool
	notify  bool
	history bool
	limit   int
	version bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// run builds and executes the root command against the given streams.
func run(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "tally [input_path]",
		Short: "Sum affiliate_net_commission values in a JSON report",
		Long: `Sum every affiliate_net_commission value found anywhere in a JSON report
and print the total.

The input path is taken from the first argument, from --user/--from/--to
(resolved under REPORTS_DIR as <user>/<from>_<to>.json), or from INPUT_PATH.

Environment Variables:
  INPUT_PATH        JSON report to aggregate when no argument is given
  REPORTS_DIR       Report cache root (default: cache/reports)
  HISTORY_DB_PATH   SQLite file for run history (disabled when empty)
  LOG_LEVEL         debug, info, warn or error (default: warn)
  WATCH_DEBOUNCE    Delay before re-aggregating in watch mode (default: 100ms)

Configuration is also read from .env in the current directory or
~/.config/commission-tally/.env.`,
		Example: `  tally report.json
  tally --user 1873018 --from 2025-04-14 --to 2025-04-14
  tally --watch --notify report.json
  tally --history --limit 10`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			var arg string
			if len(args) > 0 {
				arg = args[0]
			}
			return runTally(stdout, opts, arg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.userID, "user", "", "resolve the input from the report cache for this user id")
	flags.StringVar(&opts.from, "from", "", "report start date (YYYY-MM-DD), used with --user")
	flags.StringVar(&opts.to, "to", "", "report end date (YYYY-MM-DD), defaults to --from")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "re-aggregate whenever the input file changes")
	flags.BoolVar(&opts.notify, "notify", false, "send a desktop notification when the total changes in watch mode")
	flags.BoolVar(&opts.history, "history", false, "print recorded runs instead of aggregating")
	flags.IntVar(&opts.limit, "limit", 20, "number of runs shown by --history")
	flags.BoolVarP(&opts.version, "version", "v", false, "show version information")

	return cmd
}

func runTally(stdout io.Writer, opts *options, arg string) error {
	if opts.version {
		_, _ = fmt.Fprintln(stdout, version.Info())
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return err
	}

	path, err := resolveInput(cfg, opts, arg)
	if err != nil && !(opts.history && errors.Is(err, config.ErrNoInput)) {
		return err
	}

	reporter := report.New(stdout)

	manager, err := services.NewManager(cfg, reporter, opts.notify)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := manager.Close(); closeErr != nil {
			logger.Warn("error closing services", "error", closeErr)
		}
	}()

	switch {
	case opts.history:
		return showHistory(manager, reporter, path, opts.limit)

	case opts.watch:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return manager.Watch(ctx, path)

	default:
		if _, err := manager.Tally(path); err != nil {
			if reporter.LoadError(err) {
				return errReported
			}
			return err
		}
		return nil
	}
}

// resolveInput picks the report path from --user, the argument or INPUT_PATH.
func resolveInput(cfg *config.Config, opts *options, arg string) (string, error) {
	if opts.userID == "" {
		if opts.from != "" || opts.to != "" {
			return "", errors.New("--from and --to require --user")
		}
		return cfg.ResolveInput(arg)
	}

	if arg != "" {
		return "", errors.New("pass either an input path or --user, not both")
	}
	if opts.from == "" {
		return "", errors.New("--user requires --from")
	}
	to := opts.to
	if to == "" {
		to = opts.from
	}
	return cfg.ReportPath(opts.userID, opts.from, to)
}

func showHistory(manager *services.Manager, reporter *report.Reporter, path string, limit int) error {
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", limit)
	}

	runs, err := manager.History(path, limit)
	if errors.Is(err, services.ErrHistoryDisabled) {
		return fmt.Errorf("%w: set HISTORY_DB_PATH (for example %s)", err, config.DefaultHistoryPath())
	}
	if err != nil {
		return err
	}

	reporter.History(runs, historyChartWidth)
	return nil
}
