package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"mailscope.app/triage/common/llm"
)

var (
	draftSchema   = llm.GenerateSchema[ThreadIssuesDraft]()
	resolveSchema = llm.GenerateSchema[ResolutionDecision]()
	summarySchema = llm.GenerateSchema[SummaryResult]()
	zeroTemp      = llm.Temp(0)
)

// Client implements the three oracle capabilities over structured-output
// LLM clients. Each capability can point at a different model.
type Client struct {
	draft   llm.Client
	resolve llm.Client
	summary llm.Client
}

func NewClient(draft, resolve, summary llm.Client) *Client {
	return &Client{draft: draft, resolve: resolve, summary: summary}
}

// Models returns the model names used for each capability, recorded in the
// report header.
func (c *Client) Models() (draft, resolve, summary string) {
	return c.draft.Model(), c.resolve.Model(), c.summary.Model()
}

const maxChatAttempts = 3

// chat invokes one oracle model, retrying transient transport failures with
// exponential backoff (1s, 2s) up to maxChatAttempts. Rate limits and server
// errors are worth a retry; client errors and cancellation are not. The
// per-call deadline set by the caller spans all attempts.
func chat(ctx context.Context, client llm.Client, req llm.Request, result any) error {
	var err error
	for attempt := 0; attempt < maxChatAttempts; attempt++ {
		_, err = client.Chat(ctx, req, result)
		if err == nil {
			return nil
		}
		if !llm.IsRetryable(ctx, err) {
			return err
		}
		slog.WarnContext(ctx, "oracle call retry",
			"model", client.Model(),
			"schema", req.SchemaName,
			"attempt", attempt+1,
			"error", err)
		if attempt < maxChatAttempts-1 {
			time.Sleep(time.Duration(1<<attempt) * time.Second)
		}
	}
	return fmt.Errorf("after %d attempts: %w", maxChatAttempts, err)
}

func (c *Client) DraftIssues(ctx context.Context, threadText string) (ThreadIssuesDraft, error) {
	var draft ThreadIssuesDraft
	err := chat(ctx, c.draft, llm.Request{
		SystemPrompt: draftSystemPrompt,
		UserPrompt:   fmt.Sprintf(draftUserPrompt, threadText),
		SchemaName:   "thread_issues_draft",
		Schema:       draftSchema,
		Temperature:  zeroTemp,
	}, &draft)
	if err != nil {
		return ThreadIssuesDraft{}, fmt.Errorf("draft issues: %w", err)
	}
	return draft, nil
}

func (c *Client) AdjudicateResolution(ctx context.Context, threadText, issueJSON string, candidateSnippets []string) (ResolutionDecision, error) {
	snippets, err := json.Marshal(candidateSnippets)
	if err != nil {
		return ResolutionDecision{}, fmt.Errorf("marshal candidate snippets: %w", err)
	}

	var decision ResolutionDecision
	err = chat(ctx, c.resolve, llm.Request{
		SystemPrompt: resolveSystemPrompt,
		UserPrompt:   fmt.Sprintf(resolveUserPrompt, threadText, issueJSON, snippets),
		SchemaName:   "resolution_decision",
		Schema:       resolveSchema,
		Temperature:  zeroTemp,
	}, &decision)
	if err != nil {
		return ResolutionDecision{}, fmt.Errorf("adjudicate resolution: %w", err)
	}
	return decision, nil
}

func (c *Client) Summarize(ctx context.Context, payloadJSON string) (SummaryResult, error) {
	var summary SummaryResult
	err := chat(ctx, c.summary, llm.Request{
		SystemPrompt: summarySystemPrompt,
		UserPrompt:   fmt.Sprintf(summaryUserPrompt, payloadJSON),
		SchemaName:   "summary_result",
		Schema:       summarySchema,
	}, &summary)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("summarize: %w", err)
	}
	return summary, nil
}
