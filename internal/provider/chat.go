// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/idea-engine/internal/fault"
	"github.com/pdiddy/idea-engine/internal/httputil"
	"github.com/pdiddy/idea-engine/pkg/types"
)

// chatRequest is the OpenAI-compatible chat completions request body. The
// research provider accepts the same shape plus the citation fields.
type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	Temperature         float64       `json:"temperature"`
	MaxTokens           int           `json:"max_tokens,omitempty"`
	ReturnCitations     bool          `json:"return_citations,omitempty"`
	SearchRecencyFilter string        `json:"search_recency_filter,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Citations     []string `json:"citations"`
	SearchResults []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"search_results"`
}

func messages(req Request) []chatMessage {
	var msgs []chatMessage
	if req.SystemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	return append(msgs, chatMessage{Role: "user", Content: req.UserPrompt})
}

func completionsURL(base string) string {
	return strings.TrimRight(base, "/") + "/chat/completions"
}

// chatClient is the HTTP plumbing shared by the research and synthesis clients.
type chatClient struct {
	name   string
	cfg    types.ProviderConfig
	http   *http.Client
	logger *slog.Logger
}

func (c *chatClient) do(ctx context.Context, body chatRequest) (types.ProviderResponse, error) {
	start := time.Now()
	ctx, cancel := withTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var cr chatResponse
	if err := httputil.PostJSON(ctx, c.http, c.name, completionsURL(c.cfg.BaseURL), c.cfg.APIKey, body, &cr); err != nil {
		return types.ProviderResponse{}, err
	}
	if len(cr.Choices) == 0 {
		return types.ProviderResponse{}, &fault.ProviderError{Provider: c.name, Message: "response has no choices"}
	}

	model := cr.Model
	if model == "" {
		model = body.Model
	}
	resp := types.ProviderResponse{
		Content: cr.Choices[0].Message.Content,
		Model:   model,
		Usage: types.Usage{
			PromptTokens:     cr.Usage.PromptTokens,
			CompletionTokens: cr.Usage.CompletionTokens,
			TotalTokens:      cr.Usage.TotalTokens,
		},
		Citations: citations(cr),
	}
	logCall(c.logger, c.name, resp, start)
	return resp, nil
}

// citations maps the URL list to Citations, taking titles and snippets
// from search_results entries with the same URL.
func citations(cr chatResponse) []types.Citation {
	if len(cr.Citations) == 0 {
		return nil
	}
	meta := make(map[string]int, len(cr.SearchResults))
	for i, sr := range cr.SearchResults {
		meta[sr.URL] = i
	}
	out := make([]types.Citation, 0, len(cr.Citations))
	for _, u := range cr.Citations {
		c := types.Citation{URL: u}
		if i, ok := meta[u]; ok {
			c.Title = cr.SearchResults[i].Title
			c.Snippet = cr.SearchResults[i].Snippet
		}
		out = append(out, c)
	}
	return out
}

// ResearchClient calls a web-search-grounded chat model that returns citations.
type ResearchClient struct {
	chatClient
	recency string
}

// NewResearchClient returns a research client for cfg.
func NewResearchClient(cfg types.ResearchConfig, opts ...Option) *ResearchClient {
	o := buildOptions(opts)
	return &ResearchClient{
		chatClient: chatClient{name: "research", cfg: cfg.ProviderConfig, http: o.httpClient, logger: o.logger},
		recency:    cfg.RecencyFilter,
	}
}

// Invoke sends one research request. Citations are always requested.
func (c *ResearchClient) Invoke(ctx context.Context, req Request) (types.ProviderResponse, error) {
	temperature, maxTokens := resolve(c.cfg, req)
	return c.do(ctx, chatRequest{
		Model:               c.cfg.Model,
		Messages:            messages(req),
		Temperature:         temperature,
		MaxTokens:           maxTokens,
		ReturnCitations:     true,
		SearchRecencyFilter: c.recency,
	})
}

// SynthesisClient calls an OpenAI-compatible chat completions endpoint.
type SynthesisClient struct {
	chatClient
}

// NewSynthesisClient returns a synthesis client for cfg.
func NewSynthesisClient(cfg types.ProviderConfig, opts ...Option) *SynthesisClient {
	o := buildOptions(opts)
	return &SynthesisClient{
		chatClient: chatClient{name: "synthesis", cfg: cfg, http: o.httpClient, logger: o.logger},
	}
}

// Invoke sends one synthesis request.
func (c *SynthesisClient) Invoke(ctx context.Context, req Request) (types.ProviderResponse, error) {
	temperature, maxTokens := resolve(c.cfg, req)
	return c.do(ctx, chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages(req),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
}
