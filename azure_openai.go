package headlines

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const azureAPIVersion = "2024-08-01-preview"

// AzureClient posts chat completion requests to an Azure OpenAI deployment,
// retrying on 429 responses.
type AzureClient struct {
	Endpoint   string
	APIKey     string
	Deployment string

	HTTPClient *http.Client
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// NewAzureClient returns a client with the default retry configuration.
func NewAzureClient(endpoint, apiKey, deployment string) *AzureClient {
	return &AzureClient{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		Deployment: deployment,
		HTTPClient: &http.Client{Timeout: 120 * time.Second}, // Increased timeout for longer waits
		MaxRetries: 5,
		BaseDelay:  5 * time.Second,
		MaxDelay:   120 * time.Second,
	}
}

// parseRetryAfter parses the Retry-After header value and returns duration
func parseRetryAfter(retryAfter string) time.Duration {
	if retryAfter == "" {
		return 0
	}

	// Try to parse as seconds (numeric value)
	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}

	// Try to parse as HTTP date format
	if retryTime, err := time.Parse(time.RFC1123, retryAfter); err == nil {
		return time.Until(retryTime)
	}

	return 0
}

// ChatCompletion sends requestBody and returns the raw response body.
func (c *AzureClient) ChatCompletion(ctx context.Context, requestBody []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", c.Endpoint, c.Deployment, azureAPIVersion)

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("api-key", c.APIKey)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to call Azure OpenAI: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt == c.MaxRetries {
				return nil, fmt.Errorf("azure OpenAI rate limit exceeded after %d retries (status %d): %s", c.MaxRetries, resp.StatusCode, string(body))
			}

			retryAfter := resp.Header.Get("Retry-After")
			retryDelay := parseRetryAfter(retryAfter)

			// If no Retry-After header or invalid, use exponential backoff
			if retryDelay <= 0 {
				retryDelay = c.BaseDelay * time.Duration(1<<attempt) // 5s, 10s, 20s, 40s, 80s
			}
			if retryDelay > c.MaxDelay {
				retryDelay = c.MaxDelay
			}

			log.Warn().
				Int("attempt", attempt+1).
				Int("max_attempts", c.MaxRetries+1).
				Dur("delay", retryDelay).
				Str("retry_after", retryAfter).
				Msg("Rate limit hit, retrying")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("azure OpenAI error (status %d): %s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	// This should never be reached due to the loop logic
	return nil, fmt.Errorf("unexpected error in retry loop")
}
