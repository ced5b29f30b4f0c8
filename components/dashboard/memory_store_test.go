package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWidgetStorePlacement(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWidgetStore()
	created, err := store.EnsureArea(ctx, WidgetAreaDefinition{Code: TabModels, Name: "AI Models"})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = store.EnsureArea(ctx, WidgetAreaDefinition{Code: TabModels})
	require.NoError(t, err)
	assert.False(t, created)
	_, err = store.EnsureDefinition(ctx, WidgetDefinition{Code: WidgetAIModels, Name: "AI Models"})
	require.NoError(t, err)

	first, err := store.CreateInstance(ctx, CreateWidgetInstanceInput{DefinitionID: WidgetAIModels})
	require.NoError(t, err)
	second, err := store.CreateInstance(ctx, CreateWidgetInstanceInput{DefinitionID: WidgetAIModels, Roles: []string{"admin"}})
	require.NoError(t, err)
	assert.Equal(t, "ai-models-1", first.ID)
	assert.Equal(t, "ai-models-2", second.ID)

	require.NoError(t, store.AssignInstance(ctx, AssignWidgetInput{AreaCode: TabModels, InstanceID: first.ID}))
	front := 0
	require.NoError(t, store.AssignInstance(ctx, AssignWidgetInput{AreaCode: TabModels, InstanceID: second.ID, Position: &front}))

	resolved, err := store.ResolveArea(ctx, ResolveAreaInput{AreaCode: TabModels, Audience: []string{"admin"}})
	require.NoError(t, err)
	require.Len(t, resolved.Widgets, 2)
	assert.Equal(t, second.ID, resolved.Widgets[0].ID)
	assert.Equal(t, TabModels, resolved.Widgets[0].AreaCode)

	anonymous, err := store.ResolveArea(ctx, ResolveAreaInput{AreaCode: TabModels})
	require.NoError(t, err)
	require.Len(t, anonymous.Widgets, 1)
	assert.Equal(t, first.ID, anonymous.Widgets[0].ID)
}

func TestMemoryWidgetStoreMovesInstances(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWidgetStore()
	require.NoError(t, RegisterAreas(ctx, store, nil))
	_, _ = store.EnsureDefinition(ctx, WidgetDefinition{Code: WidgetSettings})
	inst, err := store.CreateInstance(ctx, CreateWidgetInstanceInput{DefinitionID: WidgetSettings})
	require.NoError(t, err)

	require.NoError(t, store.AssignInstance(ctx, AssignWidgetInput{AreaCode: TabSearch, InstanceID: inst.ID}))
	require.NoError(t, store.AssignInstance(ctx, AssignWidgetInput{AreaCode: TabSettings, InstanceID: inst.ID}))

	search, _ := store.ResolveArea(ctx, ResolveAreaInput{AreaCode: TabSearch})
	settings, _ := store.ResolveArea(ctx, ResolveAreaInput{AreaCode: TabSettings})
	assert.Empty(t, search.Widgets)
	assert.Len(t, settings.Widgets, 1)
}

func TestMemoryWidgetStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWidgetStore()

	_, err := store.EnsureArea(ctx, WidgetAreaDefinition{})
	assert.ErrorIs(t, err, errInvalidArea)
	_, err = store.CreateInstance(ctx, CreateWidgetInstanceInput{})
	assert.ErrorIs(t, err, errInvalidDefinition)
	_, err = store.CreateInstance(ctx, CreateWidgetInstanceInput{DefinitionID: "docintel.widget.unknown"})
	assert.Error(t, err)

	err = store.AssignInstance(ctx, AssignWidgetInput{AreaCode: "nowhere", InstanceID: "x"})
	assert.True(t, errors.Is(err, ErrAreaNotFound))
	_, err = store.ResolveArea(ctx, ResolveAreaInput{AreaCode: "nowhere"})
	assert.ErrorIs(t, err, ErrAreaNotFound)
}
