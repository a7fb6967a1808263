package nl2sql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ToolName            = "run_sql_query"
	DefaultTimeout      = 30 * time.Second
	DefaultHistoryLimit = 10
	DefaultDialect      = "SQLite"
)

// sqlTool describes run_sql_query for the dialect the executor speaks.
func sqlTool(dialect string) llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        ToolName,
			Description: fmt.Sprintf("Run a read-only %s query against the bookstore database to answer the user's business question.", dialect),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The SQL query to execute.",
					},
					"rationale": map[string]any{
						"type":        "string",
						"description": "The reasoning behind the SQL query construction.",
					},
				},
				"required":             []string{"query", "rationale"},
				"additionalProperties": false,
			},
		},
	}
}

type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewOpenAIModel builds a chat model for any OpenAI-compatible endpoint.
func NewOpenAIModel(cfg OpenAIConfig) (llms.Model, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	opts := []openai.Option{openai.WithToken(strings.TrimSpace(cfg.APIKey))}
	if baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	if model := strings.TrimSpace(cfg.Model); model != "" {
		opts = append(opts, openai.WithModel(model))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return llm, nil
}

type ToolConfig struct {
	Temperature float64
	// Timeout bounds each model call. Zero uses DefaultTimeout.
	Timeout time.Duration
	// HistoryLimit is the number of prior turns sent with a question. Zero
	// uses DefaultHistoryLimit; a negative value sends no history.
	HistoryLimit int
}

// ToolTranslator offers the model a single SQL tool and lets it decide
// whether to call it or answer in text.
type ToolTranslator struct {
	model        llms.Model
	temperature  float64
	timeout      time.Duration
	historyLimit int
}

func NewToolTranslator(model llms.Model, cfg ToolConfig) (*ToolTranslator, error) {
	if model == nil {
		return nil, fmt.Errorf("model is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	historyLimit := cfg.HistoryLimit
	switch {
	case historyLimit == 0:
		historyLimit = DefaultHistoryLimit
	case historyLimit < 0:
		historyLimit = 0
	}
	return &ToolTranslator{
		model:        model,
		temperature:  cfg.Temperature,
		timeout:      timeout,
		historyLimit: historyLimit,
	}, nil
}

func (t *ToolTranslator) Translate(ctx context.Context, req Request) (Outcome, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("question is required")
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.model.GenerateContent(callCtx, t.buildMessages(req),
		llms.WithTools([]llms.Tool{sqlTool(dialectOf(req))}),
		llms.WithTemperature(t.temperature),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decodeResponse(resp)
}

func (t *ToolTranslator) buildMessages(req Request) []llms.MessageContent {
	history := req.History
	if len(history) > t.historyLimit {
		history = history[len(history)-t.historyLimit:]
	}

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, buildSystemPrompt(req)))
	for _, turn := range history {
		role := llms.ChatMessageTypeAI
		if turn.FromUser {
			role = llms.ChatMessageTypeHuman
		}
		messages = append(messages, llms.TextParts(role, turn.Text))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, strings.TrimSpace(req.Question)))
	return messages
}

func buildSystemPrompt(req Request) string {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	schema := req.Schema
	if strings.TrimSpace(schema) == "" {
		schema = WindforestSchema
	}
	businessContext := req.BusinessContext
	if strings.TrimSpace(businessContext) == "" {
		businessContext = WindforestContext
	}

	dialect := dialectOf(req)

	var b strings.Builder
	b.WriteString("You are an SQL expert helping business users explore a bookstore database.\n")
	fmt.Fprintf(&b, "Current date: %s\n\n", now.Format("2006-01-02"))
	b.WriteString("Database Schema:\n")
	b.WriteString(strings.TrimSpace(schema))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(businessContext))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "When the question needs data, call the %s tool with one query and your rationale.\n", ToolName)
	b.WriteString("When it does not (greetings, clarifications, questions about earlier answers), reply in plain text.\n\n")
	b.WriteString("Important:\n")
	fmt.Fprintf(&b, "- Return only valid %s syntax\n", dialect)
	b.WriteString("- Write a single read-only SELECT statement\n")
	b.WriteString("- Use appropriate JOINs for table relationships\n")
	b.WriteString("- Consider data patterns and business rules\n")
	b.WriteString("- Limit results to 5 rows unless specified otherwise\n")
	return b.String()
}

func dialectOf(req Request) string {
	if dialect := strings.TrimSpace(req.Dialect); dialect != "" {
		return dialect
	}
	return DefaultDialect
}

type toolArguments struct {
	Query     string `json:"query"`
	Rationale string `json:"rationale"`
}

func decodeResponse(resp *llms.ContentResponse) (Outcome, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, fmt.Errorf("%w: empty choices", ErrUnparseable)
	}
	choice := resp.Choices[0]

	calls := make([]*llms.FunctionCall, 0, len(choice.ToolCalls)+1)
	for _, call := range choice.ToolCalls {
		if call.FunctionCall != nil {
			calls = append(calls, call.FunctionCall)
		}
	}
	if choice.FuncCall != nil {
		calls = append(calls, choice.FuncCall)
	}
	for _, call := range calls {
		if call.Name == ToolName {
			return decodeInvocation(call.Arguments)
		}
	}
	if len(calls) > 0 {
		return nil, fmt.Errorf("%w: unknown tool %q", ErrUnparseable, calls[0].Name)
	}

	text := strings.TrimSpace(choice.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrUnparseable)
	}
	return DirectAnswer{Text: text}, nil
}

func decodeInvocation(raw string) (Outcome, error) {
	var args toolArguments
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: decode tool arguments: %v", ErrUnparseable, err)
	}
	sqlText := stripMarkdownSQL(args.Query)
	rationale := strings.TrimSpace(args.Rationale)
	if sqlText == "" || rationale == "" {
		return nil, fmt.Errorf("%w: missing query or rationale", ErrUnparseable)
	}
	return SQLInvocation{SQL: sqlText, Rationale: rationale}, nil
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```SQL")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
