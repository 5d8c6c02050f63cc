// Package slack posts the digest and per-item detail threads via the Slack
// Web API.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wellread/wellread/internal/feed"
	"github.com/wellread/wellread/internal/logger"
	"github.com/wellread/wellread/internal/retry"
)

const defaultAPIURL = "https://slack.com/api/chat.postMessage"

type Client struct {
	token      string
	apiURL     string
	httpClient *http.Client
	retry      retry.Config
}

func NewClient(token string, timeout time.Duration, retryCfg retry.Config) *Client {
	return &Client{
		token:  token,
		apiURL: defaultAPIURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry: retryCfg,
	}
}

type postResponse struct {
	OK    bool   `json:"ok"`
	TS    string `json:"ts"`
	Error string `json:"error"`
}

// PostDigest posts the top-level digest message and returns its timestamp,
// which threads the per-item posts underneath.
func (c *Client) PostDigest(ctx context.Context, channel, digest string, itemCount int) (string, error) {
	today := time.Now().Format("01/02/2006")
	header := fmt.Sprintf("📰 Daily Research Digest - %s", today)

	payload := map[string]interface{}{
		"channel": channel,
		"text":    header,
		"blocks": []map[string]interface{}{
			{
				"type": "header",
				"text": map[string]interface{}{"type": "plain_text", "text": header},
			},
			{
				"type": "section",
				"text": map[string]interface{}{"type": "mrkdwn", "text": digest},
			},
			{
				"type": "context",
				"elements": []map[string]interface{}{
					{
						"type": "mrkdwn",
						"text": fmt.Sprintf("Found *%d* relevant items. Individual summaries below 👇", itemCount),
					},
				},
			},
		},
	}

	return c.postWithRetry(ctx, payload)
}

// PostItem posts one curated item as a threaded reply under the digest, then
// its AI summary threaded under the item itself.
func (c *Client) PostItem(ctx context.Context, channel, threadTS string, item feed.Item, index, total int) error {
	description := item.Description
	if description == "" {
		description = "No description available"
	}
	if len(description) > 300 {
		description = description[:300] + "..."
	}

	pubDate := "Unknown date"
	if item.PublishedAt != nil {
		pubDate = item.PublishedAt.Format("01/02/2006")
	}

	payload := map[string]interface{}{
		"channel":   channel,
		"thread_ts": threadTS,
		"text":      item.Title,
		"blocks": []map[string]interface{}{
			{
				"type": "section",
				"text": map[string]interface{}{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*%d/%d: %s*\n\n%s", index, total, item.Title, description),
				},
			},
			{
				"type": "section",
				"fields": []map[string]interface{}{
					{"type": "mrkdwn", "text": "*Source:*\n" + item.SourceName},
					{"type": "mrkdwn", "text": "*Published:*\n" + pubDate},
				},
			},
			{
				"type": "section",
				"text": map[string]interface{}{
					"type": "mrkdwn",
					"text": fmt.Sprintf("🔗 <%s|Read more>", item.Link),
				},
			},
		},
	}

	itemTS, err := c.postWithRetry(ctx, payload)
	if err != nil {
		return fmt.Errorf("post item %q: %w", item.Title, err)
	}

	summary := item.Summary
	if summary == "" {
		summary = "No summary available"
	}

	summaryPayload := map[string]interface{}{
		"channel":   channel,
		"thread_ts": itemTS,
		"text":      "📝 Summary: " + summary,
		"blocks": []map[string]interface{}{
			{
				"type": "section",
				"text": map[string]interface{}{
					"type": "mrkdwn",
					"text": "📝 *AI Summary*\n\n" + summary,
				},
			},
		},
	}

	if _, err := c.postWithRetry(ctx, summaryPayload); err != nil {
		return fmt.Errorf("post summary for %q: %w", item.Title, err)
	}
	return nil
}

func (c *Client) postWithRetry(ctx context.Context, payload map[string]interface{}) (string, error) {
	var ts string
	err := retry.Do(ctx, c.retry, func() error {
		var postErr error
		ts, postErr = c.postOnce(ctx, payload)
		if postErr != nil {
			logger.Warn("slack post failed", "error", postErr)
		}
		return postErr
	})
	return ts, err
}

func (c *Client) postOnce(ctx context.Context, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error make JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error HTTP request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn("failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("slack API error: status %d", resp.StatusCode)
	}

	var result postResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode slack response: %w", err)
	}
	if !result.OK {
		return "", fmt.Errorf("slack API error: %s", result.Error)
	}
	return result.TS, nil
}
