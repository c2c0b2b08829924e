package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/dogeterm/internal/shared/types"
)

type mockProvider struct {
	id       string
	lastTool string
}

func (m *mockProvider) Definition() types.Service {
	return types.Service{
		ID:           m.id,
		Name:         "Mock Service",
		Description:  "A mock service for testing",
		Category:     types.CategoryTerminal,
		Capabilities: []string{"shell", "pty"},
		Tools: []types.Tool{
			{ID: m.id + ".test", Name: "Test Tool", Description: "A test tool", Returns: "string"},
		},
	}
}

func (m *mockProvider) Execute(_ context.Context, toolID string, _ map[string]interface{}, _ *types.Context) (*types.Result, error) {
	m.lastTool = toolID
	return &types.Result{Success: true, Data: map[string]interface{}{"result": "success"}}, nil
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&mockProvider{id: "test"}))

	_, ok := r.Get("test")
	assert.True(t, ok)

	assert.Error(t, r.Register(&mockProvider{id: ""}))

	r.Unregister("test")
	_, ok = r.Get("test")
	assert.False(t, ok)
}

func TestList(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&mockProvider{id: "b"}))
	require.NoError(t, r.Register(&mockProvider{id: "a"}))

	services := r.List(nil)
	require.Len(t, services, 2)
	assert.Equal(t, "a", services[0].ID)

	cat := types.CategoryTerminal
	assert.Len(t, r.List(&cat), 2)

	other := types.CategorySystem
	assert.Empty(t, r.List(&other))
}

func TestDiscover(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&mockProvider{id: "terminal"}))

	results := r.Discover("open a terminal shell", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "terminal", results[0].ID)

	assert.Empty(t, r.Discover("zzz", 5))
}

func TestExecute(t *testing.T) {
	r := NewRegistry()
	p := &mockProvider{id: "terminal"}
	require.NoError(t, r.Register(p))

	result, err := r.Execute(context.Background(), "terminal.test", nil, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "terminal.test", p.lastTool)

	result, err = r.Execute(context.Background(), "missing.test", nil, nil)
	assert.Error(t, err)
	assert.False(t, result.Success)

	result, err = r.Execute(context.Background(), "nodot", nil, nil)
	assert.Error(t, err)
	require.NotNil(t, result.Error)
	assert.Equal(t, "invalid tool ID format", *result.Error)
}

func TestStats(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&mockProvider{id: "terminal"}))

	stats := r.Stats()
	assert.Equal(t, 1, stats["total_services"])
	assert.Equal(t, 1, stats["total_tools"])
}
