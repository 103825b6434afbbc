// Package advisor answers plant questions with a tool-calling chat model that
// can search the catalog.
package advisor

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	errx "github.com/greenleaf-shop/server/internal/core/error"
	logx "github.com/greenleaf-shop/server/pkg/logger"
)

const (
	DefaultMaxToolCalls = 4
	DefaultHistoryTurns = 20
	MaxMessageLength    = 2000

	fallbackReply = "Sorry, I couldn't finish looking that up. Could you ask again in a different way?"
)

// Config tunes a chat session.
type Config struct {
	Prompt       PromptConfig
	ModelName    string
	MaxToolCalls int
	HistoryTurns int
}

// Reply is the advisor's answer to one user message.
type Reply struct {
	ConversationID string  `json:"conversationId"`
	Reply          string  `json:"reply"`
	ToolCalls      int     `json:"toolCalls"`
	CostUSD        float64 `json:"costUsd"`
}

type Advisor struct {
	model     model.BaseChatModel
	tools     *compose.ToolsNode
	history   ConversationRepository
	cfg       Config
	callbacks []einocb.Handler
}

// New wires a chat model (with tools already bound) to the tools that execute
// its calls.
func New(ctx context.Context, cm model.BaseChatModel, tools []tool.BaseTool, history ConversationRepository, cfg Config) (*Advisor, error) {
	if cfg.MaxToolCalls <= 0 {
		cfg.MaxToolCalls = DefaultMaxToolCalls
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = DefaultHistoryTurns
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:                tools,
		ExecuteSequentially:  true,
		UnknownToolsHandler:  unknownToolResult,
		ToolArgumentsHandler: sanitizeToolArguments,
	})
	if err != nil {
		return nil, fmt.Errorf("create tools node: %w", err)
	}

	return &Advisor{
		model:     cm,
		tools:     toolsNode,
		history:   history,
		cfg:       cfg,
		callbacks: []einocb.Handler{NewCallbacks()},
	}, nil
}

// Chat answers message within a conversation. An empty conversationID starts
// a new one. Only the user message and the final answer are kept in history,
// and only after the model has answered.
func (a *Advisor) Chat(ctx context.Context, conversationID, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, errx.InvalidInput("message is required")
	}
	if len(message) > MaxMessageLength {
		return Reply{}, errx.InvalidInput(fmt.Sprintf("message must be at most %d characters", MaxMessageLength))
	}
	if strings.TrimSpace(conversationID) == "" {
		conversationID = uuid.NewString()
	}

	ctx = einocb.InitCallbacks(ctx, &einocb.RunInfo{Name: "PlantAdvisor", Type: "Advisor"}, a.callbacks...)

	systemPrompt, err := RenderSystemPrompt(ctx, a.cfg.Prompt)
	if err != nil {
		return Reply{}, errx.Internal(err)
	}

	history, err := a.history.LoadHistory(ctx, conversationID)
	if err != nil {
		return Reply{}, err
	}
	userMsg := schema.UserMessage(message)

	msgs := make([]*schema.Message, 0, len(history.Messages)+2)
	msgs = append(msgs, schema.SystemMessage(systemPrompt))
	msgs = append(msgs, trimTail(history.Messages, a.cfg.HistoryTurns)...)
	msgs = append(msgs, userMsg)

	reply := Reply{ConversationID: conversationID}
	var out *schema.Message
	for {
		out, err = a.model.Generate(ctx, msgs)
		if err != nil {
			logx.Error().Err(err).Str("conversation_id", conversationID).Msg("advisor model call failed")
			return Reply{}, errx.New(err, http.StatusBadGateway, "plant advisor is unavailable")
		}
		reply.CostUSD += recordUsage(conversationID, a.cfg.ModelName, out)

		if len(out.ToolCalls) == 0 {
			break
		}
		if reply.ToolCalls >= a.cfg.MaxToolCalls {
			logx.Warn().
				Int("tool_call_count", reply.ToolCalls).
				Int("max_tool_calls", a.cfg.MaxToolCalls).
				Str("conversation_id", conversationID).
				Msg("tool call limit reached")
			break
		}

		normalizeToolCallIDs(out, reply.ToolCalls)
		reply.ToolCalls++
		msgs = append(msgs, out)

		results, err := a.tools.Invoke(ctx, out)
		if err != nil {
			logx.Error().Err(err).Str("conversation_id", conversationID).Msg("advisor tool execution failed")
			return Reply{}, errx.Internal(err)
		}
		msgs = append(msgs, results...)

		if reply.ToolCalls >= a.cfg.MaxToolCalls {
			msgs = append(msgs, schema.SystemMessage(fmt.Sprintf(
				"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
					"Answer with the information you already have and mention anything you could not check.",
				a.cfg.MaxToolCalls,
			)))
		}
	}

	reply.Reply = strings.TrimSpace(out.Content)
	if reply.Reply == "" {
		reply.Reply = fallbackReply
	}
	// History only ever holds answered turns.
	for _, m := range []*schema.Message{userMsg, schema.AssistantMessage(reply.Reply, nil)} {
		if err := a.history.AddMessage(ctx, conversationID, m); err != nil {
			logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to save advisor turn")
			break
		}
	}

	logx.Info().
		Str("conversation_id", conversationID).
		Int("tool_calls", reply.ToolCalls).
		Float64("cost_usd", reply.CostUSD).
		Msg("advisor replied")
	return reply, nil
}

// Reset forgets a conversation.
func (a *Advisor) Reset(ctx context.Context, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return errx.InvalidInput("conversationId is required")
	}
	return a.history.ClearHistory(ctx, conversationID)
}

// normalizeToolCallIDs fills in ids some providers omit; tool results are
// matched to calls by id.
func normalizeToolCallIDs(out *schema.Message, round int) {
	for i := range out.ToolCalls {
		if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
			out.ToolCalls[i].ID = fmt.Sprintf("call_%d_%d", round+1, i+1)
		}
	}
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if len(messages) > maxTurns {
		messages = messages[len(messages)-maxTurns:]
	}
	result := make([]*schema.Message, len(messages))
	copy(result, messages)
	return result
}
