package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-docintel/components/dashboard"
	"github.com/goliatone/go-docintel/pkg/docintel"
)

type watchCmd struct {
	Widgets []string `arg:"" optional:"" help:"Feed names or widget codes to watch (all when empty)."`
	Format  string   `enum:"yaml,json" default:"yaml" help:"Output format (yaml, json)."`
	Count   int      `help:"Exit after this many events (0 watches until interrupted)."`
}

type watchEvent struct {
	Widget string               `json:"widget" yaml:"widget"`
	Area   string               `json:"area" yaml:"area"`
	Reason string               `json:"reason" yaml:"reason"`
	At     string               `json:"at" yaml:"at"`
	Data   dashboard.WidgetData `json:"data,omitempty" yaml:"data,omitempty"`
}

func (cmd *watchCmd) Run(ctx context.Context, g *globals, out io.Writer) error {
	codes := make([]string, 0, len(cmd.Widgets))
	for _, name := range cmd.Widgets {
		code, ok := docintel.WidgetCode(name)
		if !ok {
			return fmt.Errorf("docintel: unknown feed or widget %q", name)
		}
		codes = append(codes, code)
	}

	app, err := docintel.New(g.cfg, docintel.WithLogger(g.logger))
	if err != nil {
		return err
	}
	// Subscribe before Start so the first poll is not missed.
	events, cancel := app.Broadcast().Subscribe(codes...)
	defer cancel()
	defer app.Stop()
	if err := app.Start(ctx); err != nil {
		return err
	}

	seen := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !dataEvent(event) {
				continue
			}
			if err := cmd.print(out, event); err != nil {
				return err
			}
			seen++
			if cmd.Count > 0 && seen >= cmd.Count {
				return nil
			}
		}
	}
}

// dataEvent reports whether event carries a feed update. Layout events such
// as seeded placements have no data.
func dataEvent(event dashboard.WidgetEvent) bool {
	switch event.Reason {
	case dashboard.ReasonPoll, dashboard.ReasonMutate:
		return event.Data != nil
	default:
		return false
	}
}

func (cmd *watchCmd) print(out io.Writer, event dashboard.WidgetEvent) error {
	view := watchEvent{
		Widget: event.Instance.DefinitionID,
		Area:   event.AreaCode,
		Reason: event.Reason,
		At:     event.At.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Data:   plain(event.Data),
	}
	if strings.EqualFold(cmd.Format, "json") {
		return json.NewEncoder(out).Encode(view)
	}
	raw, err := yaml.Marshal(view)
	if err != nil {
		return fmt.Errorf("docintel: encode event: %w", err)
	}
	_, err = fmt.Fprintf(out, "---\n%s", raw)
	return err
}

// plain round-trips data through JSON so YAML output uses the json field names
// of the view models.
func plain(data dashboard.WidgetData) dashboard.WidgetData {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return data
	}
	var out dashboard.WidgetData
	if err := json.Unmarshal(raw, &out); err != nil {
		return data
	}
	return out
}
