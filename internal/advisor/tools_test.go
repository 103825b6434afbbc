package advisor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenleaf-shop/server/internal/catalog"
)

func invoke(t *testing.T, tl tool.BaseTool, args string) string {
	t.Helper()
	inv, ok := tl.(tool.InvokableTool)
	require.True(t, ok)
	out, err := inv.InvokableRun(context.Background(), args)
	require.NoError(t, err)
	return out
}

func TestSearchPlantsTool(t *testing.T) {
	tl := newSearchPlantsTool(catalog.MustDefault())

	var out SearchPlantsOutput
	require.NoError(t, json.Unmarshal([]byte(invoke(t, tl, `{"query":"palm"}`)), &out))
	require.Equal(t, 2, out.Total)
	assert.Equal(t, "3", out.Plants[0].ID)
	assert.Equal(t, "4", out.Plants[1].ID)

	out = SearchPlantsOutput{}
	require.NoError(t, json.Unmarshal([]byte(invoke(t, tl, `{"category":"Indoor Plants","max_results":1}`)), &out))
	assert.Equal(t, 1, out.Total)

	out = SearchPlantsOutput{}
	require.NoError(t, json.Unmarshal([]byte(invoke(t, tl, `{}`)), &out))
	assert.NotEmpty(t, out.Error)
}

func TestGetPlantDetailsTool(t *testing.T) {
	tl := newGetPlantDetailsTool(catalog.MustDefault())

	var out GetPlantDetailsOutput
	require.NoError(t, json.Unmarshal([]byte(invoke(t, tl, `{"plant_id":"1"}`)), &out))
	require.NotNil(t, out.Plant)
	assert.Equal(t, "Money Plant", out.Plant.Name)
	assert.NotEmpty(t, out.Plant.Benefits)

	out = GetPlantDetailsOutput{}
	require.NoError(t, json.Unmarshal([]byte(invoke(t, tl, `{"plant_id":"404"}`)), &out))
	assert.Nil(t, out.Plant)
	assert.Contains(t, out.Error, "404")
}

func TestToolInfos(t *testing.T) {
	infos, err := ToolInfos(context.Background(), NewCatalogTools(catalog.MustDefault()))
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, ToolSearchPlants, infos[0].Name)
	assert.Equal(t, ToolGetPlantDetails, infos[1].Name)
}

func TestSanitizeToolArguments(t *testing.T) {
	got, err := sanitizeToolArguments(context.Background(), ToolSearchPlants, `{"query":"  fern ","max_results":"3"}`)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &m))
	assert.Equal(t, "fern", m["query"])
	assert.Equal(t, float64(3), m["max_results"])

	got, err = sanitizeToolArguments(context.Background(), ToolSearchPlants, `{"max_results":"many"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, got)

	got, err = sanitizeToolArguments(context.Background(), ToolSearchPlants, `not json`)
	require.NoError(t, err)
	assert.Equal(t, "not json", got)
}

func TestRenderSystemPrompt(t *testing.T) {
	out, err := RenderSystemPrompt(context.Background(), PromptConfig{
		StoreName:  "Greenleaf",
		Categories: []string{"Indoor Plants", "Gifting"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "plant advisor of Greenleaf")
	assert.Contains(t, out, "Indoor Plants, Gifting")
	assert.Contains(t, out, ToolSearchPlants)
	assert.Contains(t, out, ToolGetPlantDetails)
}

func TestComputeCost(t *testing.T) {
	in, out, total := ComputeCost(&schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000}, ResolvePricing("gemini-2.5-flash"))
	assert.InDelta(t, 0.30, in, 1e-9)
	assert.InDelta(t, 2.50, out, 1e-9)
	assert.InDelta(t, 2.80, total, 1e-9)

	_, _, total = ComputeCost(&schema.TokenUsage{PromptTokens: 10}, ResolvePricing("unknown"))
	assert.Zero(t, total)

	_, _, total = ComputeCost(nil, ResolvePricing("gemini-2.5-flash"))
	assert.Zero(t, total)
}
