package gorouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-docintel/components/dashboard"
	"github.com/goliatone/go-docintel/components/dashboard/commands"
	"github.com/goliatone/go-docintel/components/dashboard/httpapi"
	"github.com/goliatone/go-docintel/components/dashboard/queries"
)

// RequestContext is the subset of router.Context the dashboard handlers use.
type RequestContext interface {
	Context() context.Context
	Param(name string, defaultValue ...string) string
	Body() []byte
	JSON(code int, v any) error
	Locals(key any, value ...any) any
}

// ViewerResolver converts a request into a dashboard.ViewerContext.
type ViewerResolver func(RequestContext) dashboard.ViewerContext

// Config wires go-router with the dashboard API and broadcast hook.
type Config[T any] struct {
	Router         router.Router[T]
	API            httpapi.Executor
	Broadcast      *dashboard.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	Layout      string
	Tab         string
	Feeds       string
	Refresh     string
	ToggleModel string
	Deployments string
	Uploads     string
	Preferences string
	WebSocket   string
}

type routeTable interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	WebSocket(path string, config router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo
}

type route struct {
	method string
	path   string
	handle func(RequestContext) error
}

// Register mounts the dashboard JSON API and WebSocket stream on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.API == nil {
		return errors.New("gorouter: api executor is required")
	}
	base := cfg.BasePath
	if base == "" {
		base = "/docintel"
	}
	mount(cfg.Router.Group(base), cfg.apiRoutes(), cfg.Broadcast, cfg.routes().WebSocket)
	return nil
}

func mount(r routeTable, routes []route, hook *dashboard.BroadcastHook, wsPath string) {
	for _, rt := range routes {
		handle := rt.handle
		wrapped := router.WrapHandler(func(ctx router.Context) error { return handle(ctx) })
		switch rt.method {
		case http.MethodGet:
			r.Get(rt.path, wrapped)
		case http.MethodPost:
			r.Post(rt.path, wrapped)
		}
	}
	if hook != nil {
		r.WebSocket(wsPath, router.DefaultWebSocketConfig(), func(ws router.WebSocketContext) error {
			return streamEvents(ws, hook)
		})
	}
}

func (cfg Config[T]) apiRoutes() []route {
	routes := cfg.routes()
	api := cfg.API
	resolver := cfg.ViewerResolver
	if resolver == nil {
		resolver = defaultViewerResolver
	}
	return []route{
		{http.MethodGet, routes.Layout, func(ctx RequestContext) error {
			payload, err := api.Layout(ctx.Context(), resolver(ctx))
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, payload)
		}},
		{http.MethodGet, routes.Tab, func(ctx RequestContext) error {
			tab, err := api.Tab(ctx.Context(), queries.TabInput{Viewer: resolver(ctx), TabCode: ctx.Param("tab")})
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, tab)
		}},
		{http.MethodGet, routes.Feeds, func(ctx RequestContext) error {
			feeds, err := api.Feeds(ctx.Context(), queries.FeedStatusInput{})
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]any{"feeds": feeds})
		}},
		{http.MethodPost, routes.Refresh, func(ctx RequestContext) error {
			var payload commands.RefreshWidgetInput
			if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			if err := api.Refresh(ctx.Context(), payload); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
		}},
		{http.MethodPost, routes.ToggleModel, func(ctx RequestContext) error {
			id := ctx.Param("id")
			if err := api.ToggleModel(ctx.Context(), commands.ToggleModelInput{ModelID: id}); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "toggled", "id": id})
		}},
		{http.MethodPost, routes.Deployments, func(ctx RequestContext) error {
			var payload commands.InitiateDeploymentInput
			if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			if payload.ID == "" {
				payload.ID = commands.NewDeploymentID()
			}
			if err := api.InitiateDeployment(ctx.Context(), payload); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusAccepted, map[string]string{"status": "deploying", "id": payload.ID})
		}},
		{http.MethodPost, routes.Uploads, func(ctx RequestContext) error {
			var payload commands.StartUploadInput
			if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			if payload.ID == "" {
				payload.ID = commands.NewUploadID()
			}
			if err := api.StartUpload(ctx.Context(), payload); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusAccepted, map[string]string{"status": "uploading", "id": payload.ID})
		}},
		{http.MethodPost, routes.Preferences, func(ctx RequestContext) error {
			var payload commands.SaveLayoutPreferencesInput
			if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			payload.Viewer = resolver(ctx)
			if err := api.SavePreferences(ctx.Context(), payload); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "saved"})
		}},
	}
}

type wsConn interface {
	Context() context.Context
	WriteJSON(v any) error
	Close() error
}

func streamEvents(ws wsConn, hook *dashboard.BroadcastHook) error {
	events, cancel := hook.Subscribe()
	defer cancel()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return ws.Close()
			}
			if err := ws.WriteJSON(event); err != nil {
				return err
			}
		case <-ws.Context().Done():
			return ws.Close()
		}
	}
}

func defaultViewerResolver(ctx RequestContext) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	switch roles := ctx.Locals("roles").(type) {
	case []string:
		viewer.Roles = roles
	case string:
		for _, role := range strings.Split(roles, ",") {
			if role = strings.TrimSpace(role); role != "" {
				viewer.Roles = append(viewer.Roles, role)
			}
		}
	}
	return viewer
}

func respondError(ctx RequestContext, err error) error {
	return respondStatus(ctx, httpapi.StatusCode(err), err)
}

func respondStatus(ctx RequestContext, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func (cfg Config[T]) routes() RouteConfig {
	return defaultRouteConfig(cfg.Routes)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Layout == "" {
		routes.Layout = "/dashboard/_layout"
	}
	if routes.Tab == "" {
		routes.Tab = "/dashboard/tabs/:tab"
	}
	if routes.Feeds == "" {
		routes.Feeds = "/dashboard/feeds"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/dashboard/widgets/refresh"
	}
	if routes.ToggleModel == "" {
		routes.ToggleModel = "/dashboard/models/:id/toggle"
	}
	if routes.Deployments == "" {
		routes.Deployments = "/dashboard/deployments"
	}
	if routes.Uploads == "" {
		routes.Uploads = "/dashboard/uploads"
	}
	if routes.Preferences == "" {
		routes.Preferences = "/dashboard/preferences"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/dashboard/ws"
	}
	return routes
}
