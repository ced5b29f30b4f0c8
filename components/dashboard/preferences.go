package dashboard

import (
	"context"
	"sync"
)

// InMemoryPreferenceStore keeps layout overrides per viewer in memory.
type InMemoryPreferenceStore struct {
	mu   sync.RWMutex
	data map[string]LayoutOverrides
}

// NewInMemoryPreferenceStore creates an empty preference store.
func NewInMemoryPreferenceStore() *InMemoryPreferenceStore {
	return &InMemoryPreferenceStore{
		data: make(map[string]LayoutOverrides),
	}
}

// LayoutOverrides returns stored overrides or empty defaults. Anonymous viewers always get defaults.
func (s *InMemoryPreferenceStore) LayoutOverrides(_ context.Context, viewer ViewerContext) (LayoutOverrides, error) {
	var overrides LayoutOverrides
	if viewer.UserID != "" {
		s.mu.RLock()
		overrides = cloneOverrides(s.data[viewer.UserID])
		s.mu.RUnlock()
	}
	normalizeOverrides(&overrides)
	return overrides, nil
}

// SaveLayoutOverrides replaces the overrides for a viewer.
func (s *InMemoryPreferenceStore) SaveLayoutOverrides(_ context.Context, viewer ViewerContext, overrides LayoutOverrides) error {
	if viewer.UserID == "" {
		return errMissingViewer
	}
	normalizeOverrides(&overrides)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[viewer.UserID] = cloneOverrides(overrides)
	return nil
}

func cloneOverrides(in LayoutOverrides) LayoutOverrides {
	out := LayoutOverrides{
		TabOrder: append([]string(nil), in.TabOrder...),
	}
	if in.AreaOrder != nil {
		out.AreaOrder = make(map[string][]string, len(in.AreaOrder))
		for area, ids := range in.AreaOrder {
			out.AreaOrder[area] = append([]string(nil), ids...)
		}
	}
	if in.HiddenWidgets != nil {
		out.HiddenWidgets = make(map[string]bool, len(in.HiddenWidgets))
		for id, hidden := range in.HiddenWidgets {
			if hidden {
				out.HiddenWidgets[id] = true
			}
		}
	}
	return out
}
