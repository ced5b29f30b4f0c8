package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ettle/strcase"
)

// MemoryWidgetStore is the default WidgetStore. Placements live for the lifetime of the process.
type MemoryWidgetStore struct {
	mu         sync.RWMutex
	areas      map[string]WidgetAreaDefinition
	defs       map[string]WidgetDefinition
	instances  map[string]storedInstance
	placements map[string][]string
	seq        map[string]int
}

type storedInstance struct {
	instance WidgetInstance
	roles    []string
}

// NewMemoryWidgetStore returns an empty store.
func NewMemoryWidgetStore() *MemoryWidgetStore {
	return &MemoryWidgetStore{
		areas:      map[string]WidgetAreaDefinition{},
		defs:       map[string]WidgetDefinition{},
		instances:  map[string]storedInstance{},
		placements: map[string][]string{},
		seq:        map[string]int{},
	}
}

var _ WidgetStore = (*MemoryWidgetStore)(nil)

// EnsureArea registers a tab; it reports false when the tab already existed.
func (m *MemoryWidgetStore) EnsureArea(_ context.Context, def WidgetAreaDefinition) (bool, error) {
	if def.Code == "" {
		return false, errInvalidArea
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.areas[def.Code]; ok {
		return false, nil
	}
	m.areas[def.Code] = def
	return true, nil
}

// EnsureDefinition registers a widget definition; it reports false when it already existed.
func (m *MemoryWidgetStore) EnsureDefinition(_ context.Context, def WidgetDefinition) (bool, error) {
	if def.Code == "" {
		return false, errMissingCode
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.defs[def.Code]; ok {
		return false, nil
	}
	m.defs[def.Code] = def
	return true, nil
}

// CreateInstance stores a new unplaced widget. IDs are derived from the definition code.
func (m *MemoryWidgetStore) CreateInstance(_ context.Context, input CreateWidgetInstanceInput) (WidgetInstance, error) {
	if input.DefinitionID == "" {
		return WidgetInstance{}, errInvalidDefinition
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.defs[input.DefinitionID]; !ok {
		return WidgetInstance{}, fmt.Errorf("dashboard: widget definition %s not found", input.DefinitionID)
	}
	m.seq[input.DefinitionID]++
	instance := WidgetInstance{
		ID:            fmt.Sprintf("%s-%d", instanceSlug(input.DefinitionID), m.seq[input.DefinitionID]),
		DefinitionID:  input.DefinitionID,
		Configuration: cloneMap(input.Configuration),
		Metadata:      cloneMap(input.Metadata),
	}
	m.instances[instance.ID] = storedInstance{
		instance: instance,
		roles:    append([]string(nil), input.Roles...),
	}
	return instance, nil
}

// AssignInstance places an instance on a tab, moving it if it was placed elsewhere.
func (m *MemoryWidgetStore) AssignInstance(_ context.Context, input AssignWidgetInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.areas[input.AreaCode]; !ok {
		return fmt.Errorf("%w: %s", ErrAreaNotFound, input.AreaCode)
	}
	stored, ok := m.instances[input.InstanceID]
	if !ok {
		return fmt.Errorf("dashboard: widget instance %s not found", input.InstanceID)
	}
	if stored.instance.AreaCode != "" {
		m.placements[stored.instance.AreaCode] = removeID(m.placements[stored.instance.AreaCode], input.InstanceID)
	}
	ids := m.placements[input.AreaCode]
	pos := len(ids)
	if input.Position != nil && *input.Position >= 0 && *input.Position < pos {
		pos = *input.Position
	}
	ids = append(ids, "")
	copy(ids[pos+1:], ids[pos:])
	ids[pos] = input.InstanceID
	m.placements[input.AreaCode] = ids

	stored.instance.AreaCode = input.AreaCode
	m.instances[input.InstanceID] = stored
	return nil
}

// ResolveArea returns the widgets of a tab visible to the audience, in placement order.
func (m *MemoryWidgetStore) ResolveArea(_ context.Context, input ResolveAreaInput) (ResolvedArea, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.areas[input.AreaCode]; !ok {
		return ResolvedArea{}, fmt.Errorf("%w: %s", ErrAreaNotFound, input.AreaCode)
	}
	ids := m.placements[input.AreaCode]
	resolved := ResolvedArea{AreaCode: input.AreaCode, Widgets: make([]WidgetInstance, 0, len(ids))}
	for _, id := range ids {
		stored := m.instances[id]
		if !audienceAllowed(stored.roles, input.Audience) {
			continue
		}
		inst := stored.instance
		inst.Configuration = cloneMap(inst.Configuration)
		inst.Metadata = cloneMap(inst.Metadata)
		resolved.Widgets = append(resolved.Widgets, inst)
	}
	return resolved, nil
}

// Areas returns the registered tabs.
func (m *MemoryWidgetStore) Areas() []WidgetAreaDefinition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]WidgetAreaDefinition, 0, len(m.areas))
	for _, area := range m.areas {
		out = append(out, area)
	}
	return out
}

func instanceSlug(code string) string {
	if idx := strings.LastIndex(code, "."); idx >= 0 {
		code = code[idx+1:]
	}
	return strcase.ToKebab(code)
}

func audienceAllowed(required, audience []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, role := range required {
		for _, have := range audience {
			if role == have {
				return true
			}
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
