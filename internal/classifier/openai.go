package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"newspulse/internal/model"
)

const sentimentSystemPrompt = `You are a sentiment classifier for news articles.
Given a text, respond with ONLY a JSON object of the form
{"positive": <float>, "negative": <float>, "neutral": <float>}
where the three values are in [0,1] and sum to 1. No prose, no markdown.`

// OpenAI classifies text with a chat-completion model. It is the
// optional heavyweight member of the ensemble, enabled only when an
// API key is configured.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI adapter.
func NewOpenAI(cfg model.OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	m := cfg.Model
	if m == "" {
		m = openai.GPT4oMini
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		model:  m,
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

// Classify sends the preprocessed text to the chat completions API
// and parses the JSON score triple from the response. The caller is
// expected to bound ctx with the per-adapter timeout.
func (o *OpenAI) Classify(ctx context.Context, text string) (model.ModelVerdict, error) {
	if tooShort(text) {
		return shortTextVerdict(o.Name()), nil
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: sentimentSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Preprocess(text)},
		},
		MaxTokens:   64,
		Temperature: 0,
	})
	if err != nil {
		return model.ModelVerdict{}, fmt.Errorf("openai classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.ModelVerdict{}, fmt.Errorf("openai classify: empty response")
	}

	scores, err := parseScoreJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return model.ModelVerdict{}, fmt.Errorf("openai classify: %w", err)
	}

	return model.ModelVerdict{Model: o.Name(), Scores: scores}, nil
}

// parseScoreJSON extracts and normalizes the score triple from a
// model response, tolerating surrounding prose or code fences.
func parseScoreJSON(content string) (model.Scores, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return model.Scores{}, fmt.Errorf("no JSON object in response %q", content)
	}

	var scores model.Scores
	if err := json.Unmarshal([]byte(content[start:end+1]), &scores); err != nil {
		return model.Scores{}, fmt.Errorf("parse scores: %w", err)
	}

	if scores.Positive < 0 || scores.Negative < 0 || scores.Neutral < 0 {
		return model.Scores{}, fmt.Errorf("negative score in response %q", content)
	}

	sum := scores.Sum()
	if sum <= 0 {
		return model.Scores{}, fmt.Errorf("zero-sum scores in response %q", content)
	}
	scores.Positive /= sum
	scores.Negative /= sum
	scores.Neutral /= sum

	return scores, nil
}
