package dashboard

import (
	"context"
	"errors"
	"fmt"
)

// RegisterAreas ensures the tabs exist in the store. Nil areas means the built-in tabs.
func RegisterAreas(ctx context.Context, store WidgetStore, areas []WidgetAreaDefinition) error {
	if store == nil {
		return errors.New("dashboard: widget store is required")
	}
	if areas == nil {
		areas = DefaultAreaDefinitions()
	}
	for _, area := range areas {
		if _, err := store.EnsureArea(ctx, area); err != nil {
			return fmt.Errorf("dashboard: register area %s: %w", area.Code, err)
		}
	}
	return nil
}

// RegisterDefinitions copies every registry definition into the store.
func RegisterDefinitions(ctx context.Context, store WidgetStore, registry ProviderRegistry) error {
	if store == nil {
		return errors.New("dashboard: widget store is required")
	}
	defs := DefaultWidgetDefinitions()
	if registry != nil {
		defs = registry.Definitions()
	}
	for _, def := range defs {
		if _, err := store.EnsureDefinition(ctx, def); err != nil {
			return fmt.Errorf("dashboard: register definition %s: %w", def.Code, err)
		}
	}
	return nil
}

// SeedLayout places the given widgets, skipping any definition already present on its tab.
// Nil seeds means the built-in placements.
func SeedLayout(ctx context.Context, service *Service, seeds []AddWidgetRequest) error {
	if service == nil {
		return errors.New("dashboard: service is required to seed layout")
	}
	if seeds == nil {
		seeds = DefaultSeedWidgets()
	}
	var seedErr error
	for _, req := range seeds {
		placed, err := service.hasWidget(ctx, req.AreaCode, req.DefinitionID)
		if err != nil {
			seedErr = errors.Join(seedErr, err)
			continue
		}
		if placed {
			continue
		}
		if err := service.AddWidget(ctx, req); err != nil {
			seedErr = errors.Join(seedErr, fmt.Errorf("dashboard: seed %s on %s: %w", req.DefinitionID, req.AreaCode, err))
		}
	}
	return seedErr
}

// Bootstrap registers tabs and definitions in the service store and seeds the layout.
func Bootstrap(ctx context.Context, service *Service, seeds []AddWidgetRequest) error {
	if service == nil {
		return errors.New("dashboard: service is required to bootstrap")
	}
	if err := RegisterAreas(ctx, service.opts.WidgetStore, service.opts.Areas); err != nil {
		return err
	}
	if err := RegisterDefinitions(ctx, service.opts.WidgetStore, service.opts.Providers); err != nil {
		return err
	}
	return SeedLayout(ctx, service, seeds)
}

func (s *Service) hasWidget(ctx context.Context, area, definition string) (bool, error) {
	resolved, err := s.opts.WidgetStore.ResolveArea(ctx, ResolveAreaInput{AreaCode: area})
	if errors.Is(err, ErrAreaNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, w := range resolved.Widgets {
		if w.DefinitionID == definition {
			return true, nil
		}
	}
	return false, nil
}
