package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicClient struct {
	client anthropic.Client
	model  string
}

// newAnthropicClient creates a Client using the Anthropic API. Structured
// output is obtained by forcing a single tool call whose input schema is the
// requested response schema; the tool input is the structured result.
func newAnthropicClient(cfg Config) (Client, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5-20250514"
	}

	return &anthropicClient{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

func (c *anthropicClient) Chat(ctx context.Context, req Request, result any) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	inputSchema := anthropic.ToolInputSchemaParam{
		Type: "object",
	}
	if req.Schema != nil {
		// The reflected schema is already a full object schema; lift its
		// properties into the tool input schema.
		raw, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}
		var parsed struct {
			Properties any      `json:"properties"`
			Required   []string `json:"required"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("unmarshal schema: %w", err)
		}
		inputSchema.Properties = parsed.Properties
		inputSchema.Required = parsed.Required
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(req.UserPrompt),
				},
			},
		},
		Tools: []anthropic.ToolUnionParam{
			{
				OfTool: &anthropic.ToolParam{
					Name:        req.SchemaName,
					Description: anthropic.String("Record the structured response"),
					InputSchema: inputSchema,
				},
			},
		},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.SchemaName},
		},
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}

	slog.DebugContext(ctx, "llm chat completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason)

	for _, block := range resp.Content {
		if block.Type == "tool_use" && block.Name == req.SchemaName {
			if err := json.Unmarshal(block.Input, result); err != nil {
				return nil, fmt.Errorf("unmarshal tool input: %w", err)
			}
			return &Response{
				PromptTokens:     int(resp.Usage.InputTokens),
				CompletionTokens: int(resp.Usage.OutputTokens),
			}, nil
		}
	}

	return nil, fmt.Errorf("no %s tool call in response", req.SchemaName)
}

func (c *anthropicClient) Model() string {
	return c.model
}
