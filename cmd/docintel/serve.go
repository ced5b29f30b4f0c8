package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-docintel/components/dashboard/gorouter"
	"github.com/goliatone/go-docintel/components/dashboard/httpapi"
	"github.com/goliatone/go-docintel/components/dashboard/queries"
	"github.com/goliatone/go-docintel/pkg/docintel"
	"github.com/goliatone/go-docintel/pkg/logging"
)

type serveCmd struct {
	Addr    string `help:"Override server.addr."`
	OpsAddr string `help:"Override metrics.addr for the metrics, health and SSE listener."`
}

func (cmd *serveCmd) Run(ctx context.Context, g *globals) error {
	cfg := g.cfg
	if cmd.Addr != "" {
		cfg.Server.Addr = cmd.Addr
	}
	if cmd.OpsAddr != "" {
		cfg.Metrics.Addr = cmd.OpsAddr
	}
	app, err := docintel.New(cfg, docintel.WithLogger(g.logger))
	if err != nil {
		return err
	}

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:    server.Router(),
		API:       app.Executor(),
		Broadcast: app.Broadcast(),
		BasePath:  cfg.Server.BasePath,
	}); err != nil {
		return err
	}

	var ops *http.Server
	if cfg.Metrics.Enabled {
		ops = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           opsHandler(app),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	defer app.Stop()
	if err := app.Start(ctx); err != nil {
		return err
	}

	errs := make(chan error, 2)
	go func() {
		logging.Info(g.logger, "dashboard api listening", logging.FieldAddr, cfg.Server.Addr)
		errs <- server.Serve(cfg.Server.Addr)
	}()
	if ops != nil {
		go func() {
			logging.Info(g.logger, "ops listener ready", logging.FieldAddr, ops.Addr)
			if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errs:
		logging.Error(g.logger, "listener stopped", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if ops != nil {
		if err := ops.Shutdown(shutdownCtx); err != nil {
			logging.Warn(g.logger, "ops shutdown failed", logging.FieldError, err)
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Warn(g.logger, "api shutdown failed", logging.FieldError, err)
	}
	logging.Info(g.logger, "shutdown complete")
	return serveErr
}

// opsHandler serves metrics, health and the stdlib mirror of the API with its
// SSE stream.
func opsHandler(app *docintel.App) http.Handler {
	base := strings.TrimRight(app.Config().Server.BasePath, "/")
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", app.Recorder().Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		statuses, err := app.Executor().Feeds(r.Context(), queries.FeedStatusInput{})
		code := http.StatusOK
		if err != nil {
			code = httpapi.StatusCode(err)
		}
		healthy := 0
		for _, s := range statuses {
			if s.Healthy {
				healthy++
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"feeds":   len(statuses),
			"healthy": healthy,
		})
	})
	api := httpapi.NewMux(&httpapi.Handlers{
		Executor: app.Executor(),
		Stream:   app.Broadcast().ServeSSE,
		Viewer:   httpapi.HeaderViewer,
	}, base)
	mux.Handle(base+"/", api)
	return mux
}
