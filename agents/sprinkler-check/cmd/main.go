package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sprinklercheck "sprinkler-agent/agents/sprinkler-check"
	"sprinkler-agent/shared/config"
	"sprinkler-agent/shared/logging"
	"sprinkler-agent/shared/scheduler"
)

const appName = "sprinkler-check"

type options struct {
	configPath string
	schedule   bool
}

func parseArgs(args []string) (options, error) {
	var opts options
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--config requires a path")
			}
			i++
			opts.configPath = args[i]
		case "--schedule":
			opts.schedule = true
		case "--once":
			// Default behavior, accepted for compatibility
		default:
			return opts, fmt.Errorf("unknown argument %q (usage: %s [--config path] [--schedule])", args[i], appName)
		}
	}
	return opts, nil
}

// loader reads --config when given, CONFIG_FILE otherwise
func (o options) loader() sprinklercheck.ConfigLoader {
	if o.configPath == "" {
		return config.Load
	}
	path := o.configPath
	return func() (*config.Config, error) {
		return config.LoadFrom(path)
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	load := opts.loader()

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.New(config.LoggingConfig{}, appName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg, err := load()
	if err != nil {
		return fail(ctx, logger, load, fmt.Errorf("failed to load configuration: %w", err))
	}

	logger, err = logging.New(cfg.Logging, appName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	agent := sprinklercheck.NewSprinklerAgent(cfg, load, logger)
	s := scheduler.New(cfg, agent, logger)

	if opts.schedule {
		logger.Info("starting scheduler")
		if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler failed", "error", err)
			return 1
		}
		return 0
	}

	if err := agent.Initialize(); err != nil {
		return fail(ctx, logger, load, fmt.Errorf("failed to initialize agent: %w", err))
	}

	// The agent reports its own failures by email
	if err := s.RunOnce(ctx); err != nil {
		logger.Error("run failed", "error", err)
		return 1
	}
	return 0
}

func fail(ctx context.Context, logger *slog.Logger, load sprinklercheck.ConfigLoader, err error) int {
	logger.Error("sprinkler check failed", "error", err)
	if notifyErr := sprinklercheck.NotifyFailure(ctx, err, load, nil, logger); notifyErr != nil {
		logger.Error("failure notification not delivered", "error", notifyErr)
	}
	return 1
}
