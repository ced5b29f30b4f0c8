package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-docintel/pkg/config"
	"github.com/goliatone/go-docintel/pkg/logging"
)

const appVersion = "dev"

type cli struct {
	Config    string `short:"c" type:"path" help:"Path to a YAML configuration file." env:"DOCINTEL_CONFIG"`
	LogLevel  string `help:"Override logging.level (debug, info, warn, error)."`
	LogFormat string `help:"Override logging.format (text, json)."`
	Offline   bool   `help:"Serve built-in fixtures instead of calling upstream APIs."`

	Serve    serveCmd    `cmd:"" default:"1" help:"Poll the upstream feeds and serve the dashboard API."`
	Watch    watchCmd    `cmd:"" help:"Poll the feeds and print widget events as they arrive."`
	Manifest manifestCmd `cmd:"" help:"Write the widget manifest for the configured feeds."`
	Show     showCmd     `cmd:"" help:"Print the effective configuration with tokens redacted."`
}

// globals is what every command receives after flags are applied.
type globals struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (c *cli) load(stderr io.Writer) (*globals, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Logging.Format = c.LogFormat
	}
	if c.Offline {
		cfg.Sources.Offline = true
	}
	base := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: stderr,
	})
	logger := slog.New(base.Handler().WithAttrs(logging.WithCommon(nil, "docintel", appVersion)))
	return &globals{cfg: cfg, logger: logger}, nil
}

func main() {
	if os.Getenv("SKIP_SERVER_RUN") == "1" {
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var root cli
	parser, err := kong.New(&root,
		kong.Name("docintel"),
		kong.Description("Document intelligence dashboard backed by polled public APIs."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	g, err := root.load(stderr)
	if err != nil {
		return err
	}
	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.BindTo(stdout, (*io.Writer)(nil))
	kctx.Bind(g)
	return kctx.Run()
}
