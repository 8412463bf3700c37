package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: liftlog [serve|migrate|useradd <username>] [-config file.yaml]`

// ErrUsage is returned for an unknown subcommand or bad flags.
var ErrUsage = errors.New(usage)

// Run is the CLI entrypoint used by cmd/liftlog.
// It returns an error instead of calling os.Exit to keep defers effective and lint clean.
func Run(args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cmd {
	case "serve":
		cfg, _, err := parseFlags("serve", args)
		if err != nil {
			return err
		}
		return serve(ctx, cfg)
	case "migrate":
		cfg, _, err := parseFlags("migrate", args)
		if err != nil {
			return err
		}
		return migrate(ctx, cfg)
	case "useradd":
		cfg, rest, err := parseFlags("useradd", args)
		if err != nil {
			return err
		}
		if len(rest) != 1 {
			return ErrUsage
		}
		return userAdd(ctx, cfg, rest[0], stdin, stdout)
	default:
		return ErrUsage
	}
}

// parseFlags parses the shared -config flag and loads the layered Config.
func parseFlags(name string, args []string) (Config, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("config", os.Getenv("LIFTLOG_CONFIG"), "path to a YAML config file")

	if err := fs.Parse(args); err != nil {
		return Config{}, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	cfg, err := LoadConfig(*path)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}

func serve(ctx context.Context, cfg Config) error {
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)

	a, err := New(ctx, cfg, log)
	if err != nil {
		log.Error("server.init.fail", "err", err)
		return err
	}
	return a.Run(ctx)
}
