package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goliatone/go-docintel/components/dashboard"
	"github.com/goliatone/go-docintel/components/dashboard/commands"
	"github.com/goliatone/go-docintel/components/dashboard/queries"
)

// ViewerFunc extracts the viewer from a request.
type ViewerFunc func(r *http.Request) dashboard.ViewerContext

// Handlers exposes HTTP endpoints backed by shared commands.
type Handlers struct {
	Executor Executor
	// Stream serves the SSE event stream, usually BroadcastHook.ServeSSE.
	Stream http.HandlerFunc
	Viewer ViewerFunc
}

// NewMux mounts the handlers under prefix ("" mounts at the root).
func NewMux(h *Handlers, prefix string) *http.ServeMux {
	prefix = strings.TrimRight(prefix, "/")
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+prefix+"/dashboard/_layout", h.HandleLayout)
	mux.HandleFunc("GET "+prefix+"/dashboard/tabs/{tab}", h.HandleTab)
	mux.HandleFunc("GET "+prefix+"/dashboard/feeds", h.HandleFeeds)
	mux.HandleFunc("POST "+prefix+"/dashboard/widgets/refresh", h.HandleRefreshWidget)
	mux.HandleFunc("POST "+prefix+"/dashboard/models/{id}/toggle", h.HandleToggleModel)
	mux.HandleFunc("POST "+prefix+"/dashboard/deployments", h.HandleInitiateDeployment)
	mux.HandleFunc("POST "+prefix+"/dashboard/uploads", h.HandleStartUpload)
	mux.HandleFunc("POST "+prefix+"/dashboard/preferences", h.HandleSavePreferences)
	if h.Stream != nil {
		mux.HandleFunc("GET "+prefix+"/dashboard/events", h.Stream)
	}
	return mux
}

func (h *Handlers) HandleLayout(w http.ResponseWriter, r *http.Request) {
	payload, err := h.Executor.Layout(r.Context(), h.viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handlers) HandleTab(w http.ResponseWriter, r *http.Request) {
	tab, err := h.Executor.Tab(r.Context(), queries.TabInput{Viewer: h.viewer(r), TabCode: r.PathValue("tab")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tab)
}

func (h *Handlers) HandleFeeds(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.Executor.Feeds(r.Context(), queries.FeedStatusInput{Code: r.URL.Query().Get("code")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feeds": feeds})
}

func (h *Handlers) HandleRefreshWidget(w http.ResponseWriter, r *http.Request) {
	var payload commands.RefreshWidgetInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := h.Executor.Refresh(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleToggleModel(w http.ResponseWriter, r *http.Request) {
	input := commands.ToggleModelInput{ModelID: r.PathValue("id")}
	if err := h.Executor.ToggleModel(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleInitiateDeployment(w http.ResponseWriter, r *http.Request) {
	var payload commands.InitiateDeploymentInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if payload.ID == "" {
		payload.ID = commands.NewDeploymentID()
	}
	if err := h.Executor.InitiateDeployment(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": payload.ID})
}

func (h *Handlers) HandleStartUpload(w http.ResponseWriter, r *http.Request) {
	var payload commands.StartUploadInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if payload.ID == "" {
		payload.ID = commands.NewUploadID()
	}
	if err := h.Executor.StartUpload(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": payload.ID})
}

func (h *Handlers) HandleSavePreferences(w http.ResponseWriter, r *http.Request) {
	var payload commands.SaveLayoutPreferencesInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if payload.Viewer.UserID == "" {
		payload.Viewer = h.viewer(r)
	}
	if err := h.Executor.SavePreferences(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) viewer(r *http.Request) dashboard.ViewerContext {
	if h.Viewer != nil {
		return h.Viewer(r)
	}
	return HeaderViewer(r)
}

// HeaderViewer reads the viewer from X-User-ID and comma separated X-User-Roles headers.
func HeaderViewer(r *http.Request) dashboard.ViewerContext {
	viewer := dashboard.ViewerContext{UserID: r.Header.Get("X-User-ID")}
	for _, role := range strings.Split(r.Header.Get("X-User-Roles"), ",") {
		if role = strings.TrimSpace(role); role != "" {
			viewer.Roles = append(viewer.Roles, role)
		}
	}
	return viewer
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusCode(err), errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
