// Package gemini resolves approximate document-number queries against the
// set of known identifiers using the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bdimitrov/skladov/internal/domain/models"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	generatePath   = "/v1beta/models/gemini-1.5-pro-latest:generateContent"
	defaultTimeout = 15 * time.Second
)

// Client calls the Gemini generateContent endpoint over REST.
type Client struct {
	httpClient *resty.Client
	apiKey     string
}

// NewClient creates a configured Gemini client. A zero timeout falls back to
// the default.
func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetHeader("content-type", "application/json").
		SetTimeout(timeout)

	return &Client{httpClient: client, apiKey: apiKey}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Match asks the model which known document numbers the query most likely
// refers to and returns them ranked by confidence, best first. An empty
// candidate set short-circuits to no matches without a network call.
func (c *Client) Match(ctx context.Context, query string, candidates []string) ([]models.Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	prompt := fmt.Sprintf(`You are an assistant for a warehouse sales ledger.
A user searched for a document (invoice) number, but it did not exactly match any known number.
Decide which of the known document numbers the user most likely meant.

User query: %q

Known document numbers (one per line):
%s

RULES:
- Only return document numbers from the known list, never invent new ones.
- Rank matches by confidence, a value between 0 and 1, best first.
- Typos, missing prefixes and transposed digits are the usual causes; a completely unrelated query has no match.
- Output ONLY a JSON object with this structure:
  {"matches": [{"document_id": "...", "confidence": 0.9}]}
- If nothing plausibly matches, output {"matches": []}.`,
		query, strings.Join(candidates, "\n"))

	reqBody := generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: 0},
	}

	var respBody generateResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(reqBody).
		SetResult(&respBody).
		ForceContentType("application/json").
		Post(generatePath)

	if err != nil {
		return nil, fmt.Errorf("gemini api call: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gemini api error: %s", resp.String())
	}
	if len(respBody.Candidates) == 0 || len(respBody.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from ai")
	}

	responseText := strings.TrimSpace(respBody.Candidates[0].Content.Parts[0].Text)

	// The model sometimes wraps the JSON in a markdown code block.
	if strings.HasPrefix(responseText, "```json") {
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimSuffix(responseText, "```")
	} else if strings.HasPrefix(responseText, "```") {
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
	}
	responseText = strings.TrimSpace(responseText)

	var aiResult struct {
		Matches []models.Candidate `json:"matches"`
	}
	if err := json.Unmarshal([]byte(responseText), &aiResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ai response: %w. Response was: %s", err, responseText)
	}

	// Drop anything the model made up outside the known set.
	known := make(map[string]struct{}, len(candidates))
	for _, id := range candidates {
		known[id] = struct{}{}
	}
	var matches []models.Candidate
	for _, m := range aiResult.Matches {
		if _, ok := known[m.DocumentID]; ok {
			matches = append(matches, m)
		}
	}

	return matches, nil
}
