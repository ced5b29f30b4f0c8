package dashboard

import "context"

// LayoutResolver is the part of the Service the controller renders from.
type LayoutResolver interface {
	ConfigureLayout(ctx context.Context, viewer ViewerContext) (Layout, error)
	ResolveArea(ctx context.Context, viewer ViewerContext, areaCode string) (ResolvedArea, error)
	Area(code string) (WidgetAreaDefinition, bool)
	Definition(code string) (WidgetDefinition, bool)
}

// Controller shapes resolved layouts into transport payloads.
type Controller struct {
	service LayoutResolver
}

// NewController wires the service into a controller.
func NewController(service LayoutResolver) *Controller {
	return &Controller{service: service}
}

// LayoutPayload is the JSON document served for the whole dashboard.
type LayoutPayload struct {
	Tabs []TabPayload `json:"tabs"`
}

// TabPayload is one tab with its widgets.
type TabPayload struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	Widgets     []WidgetPayload `json:"widgets"`
}

// WidgetPayload is one resolved widget.
type WidgetPayload struct {
	ID         string         `json:"id"`
	Definition string         `json:"definition"`
	Name       string         `json:"name"`
	Config     map[string]any `json:"config,omitempty"`
	Data       WidgetData     `json:"data,omitempty"`
	Pending    bool           `json:"pending,omitempty"`
}

// Render resolves the layout for a viewer and returns it to the caller.
func (c *Controller) Render(ctx context.Context, viewer ViewerContext) (Layout, error) {
	if c.service == nil {
		return Layout{}, nil
	}
	return c.service.ConfigureLayout(ctx, viewer)
}

// LayoutPayload renders every tab in the viewer's order.
func (c *Controller) LayoutPayload(ctx context.Context, viewer ViewerContext) (LayoutPayload, error) {
	layout, err := c.Render(ctx, viewer)
	if err != nil {
		return LayoutPayload{}, err
	}
	payload := LayoutPayload{Tabs: make([]TabPayload, 0, len(layout.Order))}
	for _, code := range layout.Order {
		payload.Tabs = append(payload.Tabs, c.tab(code, layout.Areas[code]))
	}
	return payload, nil
}

// TabPayload renders a single tab.
func (c *Controller) TabPayload(ctx context.Context, viewer ViewerContext, code string) (TabPayload, error) {
	if c.service == nil {
		return TabPayload{}, ErrAreaNotFound
	}
	resolved, err := c.service.ResolveArea(ctx, viewer, code)
	if err != nil {
		return TabPayload{}, err
	}
	return c.tab(code, resolved.Widgets), nil
}

func (c *Controller) tab(code string, widgets []WidgetInstance) TabPayload {
	tab := TabPayload{Code: code, Name: code, Widgets: make([]WidgetPayload, 0, len(widgets))}
	if area, ok := c.service.Area(code); ok {
		tab.Name = area.Name
		tab.Description = area.Description
		tab.Icon = area.Icon
	}
	for _, inst := range widgets {
		tab.Widgets = append(tab.Widgets, c.widget(inst))
	}
	return tab
}

func (c *Controller) widget(inst WidgetInstance) WidgetPayload {
	out := WidgetPayload{
		ID:         inst.ID,
		Definition: inst.DefinitionID,
		Name:       inst.DefinitionID,
		Config:     inst.Configuration,
	}
	if def, ok := c.service.Definition(inst.DefinitionID); ok && def.Name != "" {
		out.Name = def.Name
	}
	if data, ok := inst.Metadata["data"].(WidgetData); ok {
		out.Data = data
	}
	if pending, ok := inst.Metadata["pending"].(bool); ok {
		out.Pending = pending
	}
	return out
}
