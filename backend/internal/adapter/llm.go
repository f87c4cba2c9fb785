package adapter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"groupme-analyzer/backend/internal/stats"
	"groupme-analyzer/backend/pkg/logger"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const recapSystemPrompt = `You write short, friendly recaps of group chat engagement statistics.
Use only the numbers you are given. Mention the most active member, the most liked member,
and anything unusual such as heavy self-liking. Keep it under 120 words.`

// maxRecapMembers bounds how many members are described to the model
const maxRecapMembers = 25

// LLMAdapter handles communication with the LLM via LiteLLM
type LLMAdapter struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewLLMAdapter creates a new LLM adapter
func NewLLMAdapter(baseURL, apiKey, modelID string) *LLMAdapter {
	// For LiteLLM, we can use a dummy API key if not provided
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"

	return &LLMAdapter{
		client: openai.NewClientWithConfig(config),
		model:  modelID,
		logger: logger.Get(),
	}
}

// Generate sends a single system+user exchange and returns the reply text
func (a *LLMAdapter) Generate(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userMsg,
			},
		},
		Temperature: 0.7,
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		a.logger.Error("LLM request failed",
			zap.Error(err),
			zap.String("model", a.model),
		)
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	a.logger.Debug("LLM response generated",
		zap.String("model", a.model),
		zap.Int("length", len(content)),
	)
	return content, nil
}

// Recap asks the model for a prose summary of a finished analysis
func (a *LLMAdapter) Recap(ctx context.Context, groupName string, s *stats.Stats) (string, error) {
	return a.Generate(ctx, recapSystemPrompt, BuildRecapPrompt(groupName, s))
}

// BuildRecapPrompt renders the statistics as a compact table, most active members first
func BuildRecapPrompt(groupName string, s *stats.Stats) string {
	members := s.Members()
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].MessagesSent > members[j].MessagesSent
	})
	if len(members) > maxRecapMembers {
		members = members[:maxRecapMembers]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Group: %s\nMessages analyzed: %d\n\n", groupName, s.MessagesProcessed())
	b.WriteString("name | messages | likes given | self-likes | likes received | avg likes/message | words\n")
	for _, m := range members {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		fmt.Fprintf(&b, "%s | %d | %d | %d | %d | %.2f | %d\n",
			name, m.MessagesSent, m.LikesGiven, m.SelfLikes, m.LikesReceived, stats.LikesPerMessage(m), m.WordsSent)
	}
	return b.String()
}
