package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-docintel/components/dashboard"
	"github.com/goliatone/go-docintel/pkg/docintel"
)

type manifestCmd struct {
	Out string `short:"o" type:"path" help:"Write the manifest to this file instead of stdout."`
}

func (cmd *manifestCmd) Run(_ context.Context, g *globals, out io.Writer) error {
	app, err := docintel.New(g.cfg, docintel.WithLogger(g.logger))
	if err != nil {
		return err
	}
	doc := app.Manifest()
	if cmd.Out == "" {
		return dashboard.EncodeManifest(out, doc)
	}
	if err := os.MkdirAll(filepath.Dir(cmd.Out), 0o755); err != nil {
		return fmt.Errorf("docintel: create manifest dir: %w", err)
	}
	f, err := os.Create(cmd.Out)
	if err != nil {
		return fmt.Errorf("docintel: create manifest: %w", err)
	}
	defer f.Close()
	if err := dashboard.EncodeManifest(f, doc); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "✓ Wrote %d widgets to %s\n", len(doc.Widgets), cmd.Out)
	return err
}

type showCmd struct{}

func (showCmd) Run(g *globals, out io.Writer) error {
	cfg := *g.cfg
	cfg.Sources.GitHub.Token = redact(cfg.Sources.GitHub.Token)
	cfg.Sources.Placeholder.Token = redact(cfg.Sources.Placeholder.Token)
	cfg.Sources.Encyclopedia.Token = redact(cfg.Sources.Encyclopedia.Token)
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&cfg); err != nil {
		return fmt.Errorf("docintel: encode config: %w", err)
	}
	return enc.Close()
}

func redact(token string) string {
	if token == "" {
		return ""
	}
	return "********"
}
