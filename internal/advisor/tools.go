package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/greenleaf-shop/server/internal/catalog"
	logx "github.com/greenleaf-shop/server/pkg/logger"
)

const (
	ToolSearchPlants    = "search_plants"
	ToolGetPlantDetails = "get_plant_details"

	defaultSearchResults = 5
	maxSearchResults     = 12
)

// ===================================
// Search Plants Tool
// ===================================

type SearchPlantsInput struct {
	Query      string `json:"query"`
	Category   string `json:"category,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// PlantSummary is the compact listing returned by search_plants.
type PlantSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Price      float64 `json:"price"`
	Light      string  `json:"light"`
	Water      string  `json:"water"`
	Difficulty string  `json:"difficulty"`
	InStock    bool    `json:"in_stock"`
}

type SearchPlantsOutput struct {
	Plants []PlantSummary `json:"plants"`
	Total  int            `json:"total"`
	Error  string         `json:"error,omitempty"`
}

func newSearchPlantsTool(cat *catalog.Catalog) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearchPlants,
			Desc: "Search the plant catalog by keyword and optional category. Matches plant names, scientific names and descriptions. Use this whenever the customer describes a plant, a room, or a care requirement.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type: "string",
					Desc: "Keywords such as a plant name (money plant, palm), a scientific name, or a trait (air purifying, low light).",
				},
				"category": {
					Type: "string",
					Desc: "Optional category filter, for example Indoor Plants, Outdoor Plants, Office Plants, Gifting, XL Plants.",
				},
				"max_results": {
					Type: "number",
					Desc: "Maximum number of plants to return (default: 5, max: 12)",
				},
			}),
		},
		func(ctx context.Context, in *SearchPlantsInput) (*SearchPlantsOutput, error) {
			if strings.TrimSpace(in.Query) == "" && strings.TrimSpace(in.Category) == "" {
				return &SearchPlantsOutput{Plants: []PlantSummary{}, Error: "query or category is required"}, nil
			}
			limit := in.MaxResults
			if limit <= 0 {
				limit = defaultSearchResults
			}
			if limit > maxSearchResults {
				limit = maxSearchResults
			}

			found := cat.List(catalog.Filter{Category: in.Category, Search: in.Query})
			if len(found) > limit {
				found = found[:limit]
			}
			out := &SearchPlantsOutput{Plants: make([]PlantSummary, 0, len(found)), Total: len(found)}
			for _, p := range found {
				out.Plants = append(out.Plants, PlantSummary{
					ID:         p.ID,
					Name:       p.Name,
					Category:   p.Category,
					Price:      p.Price,
					Light:      p.Light,
					Water:      p.Water,
					Difficulty: p.Difficulty,
					InStock:    p.InStock,
				})
			}
			return out, nil
		},
	)
}

// ===================================
// Plant Details Tool
// ===================================

type GetPlantDetailsInput struct {
	PlantID string `json:"plant_id"`
}

type GetPlantDetailsOutput struct {
	Plant *catalog.Product `json:"plant,omitempty"`
	Error string           `json:"error,omitempty"`
}

func newGetPlantDetailsTool(cat *catalog.Catalog) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetPlantDetails,
			Desc: "Get the full care sheet of one plant: light, water, difficulty, benefits, price and availability. The plant_id must come from search_plants results.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"plant_id": {
					Type:     "string",
					Desc:     "Exact plant id from search_plants results.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *GetPlantDetailsInput) (*GetPlantDetailsOutput, error) {
			if strings.TrimSpace(in.PlantID) == "" {
				return &GetPlantDetailsOutput{Error: "plant_id is required"}, nil
			}
			p, err := cat.Get(in.PlantID)
			if err != nil {
				return &GetPlantDetailsOutput{Error: fmt.Sprintf("no plant with id %q", in.PlantID)}, nil
			}
			return &GetPlantDetailsOutput{Plant: &p}, nil
		},
	)
}

// NewCatalogTools returns the tools the advisor model may call.
func NewCatalogTools(cat *catalog.Catalog) []tool.BaseTool {
	return []tool.BaseTool{
		newSearchPlantsTool(cat),
		newGetPlantDetailsTool(cat),
	}
}

// ToolInfos collects the schemas of tools for binding to a chat model.
func ToolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// unknownToolResult is fed back to the model when it calls a tool that does
// not exist, so the conversation can continue.
func unknownToolResult(_ context.Context, name, input string) (string, error) {
	logx.Warn().
		Str("tool_name", name).
		Str("arguments", input).
		Msg("unknown tool call; returning fallback result")
	return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
}

// sanitizeToolArguments trims string arguments and coerces max_results to a
// number. Arguments that are not a JSON object pass through unchanged.
func sanitizeToolArguments(_ context.Context, name, arguments string) (string, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return arguments, nil
	}

	for k, v := range m {
		if s, ok := v.(string); ok {
			m[k] = strings.TrimSpace(s)
		}
	}
	if name == ToolSearchPlants {
		if s, ok := m["max_results"].(string); ok {
			if n, err := strconv.Atoi(s); err == nil {
				m["max_results"] = n
			} else {
				delete(m, "max_results")
			}
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return arguments, nil
	}
	return string(b), nil
}
