package advisor

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/system_prompt.txt
var systemPromptTemplate string

// PromptConfig carries the shop specific values of the system prompt.
type PromptConfig struct {
	StoreName  string
	Categories []string
}

// RenderSystemPrompt renders the advisor system prompt through an eino prompt
// template so prompt callbacks fire.
func RenderSystemPrompt(ctx context.Context, cfg PromptConfig) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemPromptTemplate),
	)
	vars := map[string]any{
		"StoreName":   cfg.StoreName,
		"Categories":  strings.Join(cfg.Categories, ", "),
		"SearchTool":  ToolSearchPlants,
		"DetailsTool": ToolGetPlantDetails,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("advisor prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("advisor prompt render: empty result")
	}
	return msgs[0].Content, nil
}
