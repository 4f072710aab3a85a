package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inbucket/html2text"

	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/pkg/retry"
)

const (
	searchEndpoint    = "https://html.duckduckgo.com/html/"
	maxResponseSize   = 1 << 20 // 1MB limit
	defaultMaxResults = 5
	searchTimeout     = 15 * time.Second
)

const webSearchSchema = `
{
  "type": "object",
  "properties": {
    "query": { "type": "string", "description": "The search query" },
    "max_results": { "type": "integer", "description": "Maximum number of results (default 5)" }
  },
  "required": ["query"]
}
`

// WebSearch queries the DuckDuckGo HTML endpoint and flattens the result
// page to text.
type WebSearch struct {
	client  *http.Client
	retrier *retry.Retrier
}

func NewWebSearch() *WebSearch {
	return &WebSearch{
		client: &http.Client{
			Timeout: searchTimeout,
		},
		retrier: retry.NewDefaultRetrier(),
	}
}

func (w *WebSearch) Search(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(input.Query) == "" {
		return "", fmt.Errorf("query is required")
	}
	if input.MaxResults <= 0 {
		input.MaxResults = defaultMaxResults
	}

	var page string
	err := w.retrier.Do(ctx, func() error {
		form := url.Values{"q": {input.Query}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchEndpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", core.AppUserAgent)

		resp, err := w.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to query search endpoint: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		}

		limitedReader := io.LimitReader(resp.Body, maxResponseSize)
		page, err = html2text.FromReader(limitedReader, html2text.Options{
			OmitLinks:    false,
			PrettyTables: true,
		})
		if err != nil {
			return fmt.Errorf("failed to read body: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	results := topResultLines(page, input.MaxResults)
	if results == "" {
		return "No search results found.", nil
	}
	return results, nil
}

// topResultLines keeps the first maxResults non-boilerplate chunks of the
// flattened results page.
func topResultLines(page string, maxResults int) string {
	var out []string
	for _, line := range strings.Split(page, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 20 {
			continue
		}
		out = append(out, fmt.Sprintf("%d. %s", len(out)+1, line))
		if len(out) == maxResults {
			break
		}
	}
	return strings.Join(out, "\n")
}

func (w *WebSearch) GetDefinitions() map[string]Definition {
	return map[string]Definition{
		"internet_search": {
			Description: "Search the internet for information about a query",
			Schema:      webSearchSchema,
			Handler:     w.Search,
		},
	}
}
