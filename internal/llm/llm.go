package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/repolens/repolens/internal/models"
)

// ErrUnparseable means the model reply was not a valid summary record.
// Model output is unreliable input; callers must branch on this rather
// than assume well-formedness.
var ErrUnparseable = errors.New("model reply is not a valid summary")

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(baseURL, apiKey, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

const systemPrompt = `You are a technical analyst. Analyze the GitHub repository described by the user and respond ONLY with a valid JSON object — no extra text, no markdown, no code fences.

Respond with this exact JSON structure:
{
  "summary": "A concise human-readable summary of what the project does and who it's for.",
  "technologies": ["list", "of", "languages", "frameworks", "or", "tools", "used"],
  "structure": "A one or two sentence description of how the project's folders and files are organized."
}`

// Summarize makes a single one-shot model call and parses the reply into
// the fixed three-field record. No retry and no repair pass: an
// unparseable reply fails the request.
func (c *Client) Summarize(ctx context.Context, meta models.RepoMetadata, repoContext string) (*models.Summary, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserMessage(meta, repoContext)},
		},
		// No ResponseFormat — not all models support json_object mode.
		// The system prompt instructs the model to return pure JSON.
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM call for %s: %w", meta.Name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrUnparseable)
	}

	content := stripCodeFences(resp.Choices[0].Message.Content)

	var result models.Summary
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("%w: %v\nraw: %s", ErrUnparseable, err, content)
	}
	if result.Summary == "" {
		return nil, fmt.Errorf("%w: missing summary field\nraw: %s", ErrUnparseable, content)
	}
	if result.Technologies == nil {
		result.Technologies = []string{}
	}
	return &result, nil
}

func buildUserMessage(meta models.RepoMetadata, repoContext string) string {
	parts := []string{
		fmt.Sprintf("Repository Name: %s", meta.Name),
		fmt.Sprintf("Description: %s", orDefault(meta.Description, "No description provided")),
		fmt.Sprintf("Primary Language: %s", orDefault(meta.Language, "Unknown")),
		fmt.Sprintf("Stars: %d", meta.Stars),
		fmt.Sprintf("Forks: %d", meta.Forks),
		fmt.Sprintf("Open Issues: %d", meta.OpenIssues),
	}

	if strings.TrimSpace(repoContext) == "" {
		parts = append(parts, "File context: none available for this repository.")
	} else {
		parts = append(parts, fmt.Sprintf("File excerpts:\n%s", repoContext))
	}
	return strings.Join(parts, "\n\n")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// stripCodeFences removes markdown code fences that some models wrap around JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence (```json or ```)
		if i := strings.Index(s, "\n"); i != -1 {
			s = s[i+1:]
		}
		// Remove closing fence
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
