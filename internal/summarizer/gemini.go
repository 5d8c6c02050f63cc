// Package summarizer generates natural-language summaries via Gemini.
package summarizer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/wellread/wellread/internal/feed"
	"github.com/wellread/wellread/internal/retry"
)

type Client struct {
	client             *genai.Client
	summarizationModel string
	digestModel        string
	retry              retry.Config
}

func NewClient(ctx context.Context, apiKey, summarizationModel, digestModel string, retryCfg retry.Config) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client:             client,
		summarizationModel: summarizationModel,
		digestModel:        digestModel,
		retry:              retryCfg,
	}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Summarize produces a short summary for one curated item.
func (c *Client) Summarize(ctx context.Context, item feed.Item, topics []string) (string, error) {
	content := item.Content
	if content == "" {
		content = item.Description
	}
	if content == "" {
		content = "No content available"
	}

	authorLine := ""
	if item.Author != "" {
		authorLine = "Author: " + item.Author + "\n"
	}

	prompt := fmt.Sprintf(`You are analyzing an RSS feed item. Here are the details:

Title: %s
Source: %s
%s
Content:
%s

Topics of interest: %s

The first line should identify the author(s) and their affiliation, if available.
Follow this with a concise summary as 3 bullet points. Keep each bullet point to one concise sentence. Be direct and professional.`,
		item.Title, item.SourceName, authorLine, clampPrompt(content), strings.Join(topics, ", "))

	return c.generate(ctx, c.summarizationModel, prompt)
}

// SummarizeDigest produces the digest-level overview across all selected items.
func (c *Client) SummarizeDigest(ctx context.Context, items []feed.Item, topics []string) (string, error) {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, item.Title, item.SourceName)
	}

	prompt := fmt.Sprintf(`Here are today's curated articles:

%s
Topics of interest: %s

Write a 2-3 sentence overview of what today's batch covers, highlighting the most notable themes. Do not enumerate every article. Be direct and professional.`,
		b.String(), strings.Join(topics, ", "))

	return c.generate(ctx, c.digestModel, prompt)
}

func (c *Client) generate(ctx context.Context, modelName, prompt string) (string, error) {
	model := c.client.GenerativeModel(modelName)

	var resp *genai.GenerateContentResponse
	err := retry.Do(ctx, c.retry, func() error {
		var genErr error
		resp, genErr = model.GenerateContent(ctx, genai.Text(prompt))
		return genErr
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini")
	}

	text := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}

// clampPrompt limits article content fed into the prompt, cutting on a rune
// boundary and preferring a sentence end.
func clampPrompt(content string) string {
	content = strings.Join(strings.Fields(content), " ")

	const maxChars = 6000
	if utf8.RuneCountInString(content) <= maxChars {
		return content
	}

	runes := []rune(content)
	trimmed := string(runes[:maxChars])
	if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed + "\n[TRUNCATED]"
}
