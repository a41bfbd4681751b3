// Package openai implements the content and image generators against an OpenAI-compatible API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	"github.com/target/pressqueue/config"
	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/domain/model"
)

const (
	chatCompletionsPath  = "/chat/completions"
	imageGenerationsPath = "/images/generations"

	bodySystemPrompt = `You are a professional blog writer. Reply with a single JSON object with the keys ` +
		`"title" (string), "body" (HTML using p, h2, h3, ul, ol, li, strong, em, a), ` +
		`"keywords" (array of 3 to 8 strings) and "image_prompt" (one sentence describing a featured image ` +
		`without any text in it). Do not wrap the JSON in markdown.`
	titleSystemPrompt = `You write blog post titles. Reply with one title only, without quotes.`
)

// APIError is a non-2xx provider response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.StatusCode, e.Body)
}

// Client talks to an OpenAI-compatible chat and image API.
type Client struct {
	cfg    config.GeneratorConfig
	http   *http.Client
	logger *slog.Logger
}

var (
	_ core.ContentGenerator = (*Client)(nil)
	_ core.ImageGenerator   = (*Client)(nil)
)

// ClientOptions configures a Client.
type ClientOptions struct {
	Config config.GeneratorConfig // Required: APIKey must be set
	// HTTPClient is the base client; the bearer token is layered on top of its transport.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient validates the configuration and builds a Client.
func NewClient(opts ClientOptions) (*Client, error) {
	cfg := opts.Config
	cfg.Sanitize()
	if !cfg.Configured() {
		return nil, errors.New("generator API key is required")
	}
	for name, expr := range map[string]string{"content path": cfg.ContentPath, "image url path": cfg.ImageURLPath} {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", name, expr, err)
		}
	}

	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{}
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIKey,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = cfg.HTTPTimeout

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger.With("component", "openai_client")}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

// GenerateBody asks the chat model for a complete post and sanitises the returned HTML.
func (c *Client) GenerateBody(ctx context.Context, req model.GenerationRequest) (*model.GeneratedContent, error) {
	text, err := c.chat(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: bodySystemPrompt},
			{Role: "user", Content: req.Prompt},
		},
		Temperature:    c.cfg.Temperature,
		MaxTokens:      c.cfg.MaxTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}

	var content model.GeneratedContent
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &content); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrMalformedContent, err)
	}
	content.Title = strings.TrimSpace(content.Title)
	content.ImagePrompt = strings.TrimSpace(content.ImagePrompt)
	content.Body, err = SanitizeHTML(content.Body)
	if err != nil {
		return nil, fmt.Errorf("sanitize body: %w", err)
	}
	content.Keywords = cleanKeywords(content.Keywords)

	c.logger.DebugContext(ctx, "generated body",
		"campaign_id", campaignID(req.Campaign),
		"content_type", req.ContentType,
		"title", content.Title,
		"body_bytes", len(content.Body),
	)
	return &content, nil
}

// GenerateTitle asks the chat model for a single candidate title.
func (c *Client) GenerateTitle(ctx context.Context, campaign *model.Campaign) (string, error) {
	if campaign == nil {
		return "", errors.New("campaign is required")
	}
	prompt := fmt.Sprintf("Suggest a blog post title about %q", campaign.Topic)
	if campaign.Audience != "" {
		prompt += fmt.Sprintf(" for %s", campaign.Audience)
	}
	if campaign.Tone != "" {
		prompt += fmt.Sprintf(" in a %s tone", campaign.Tone)
	}

	text, err := c.chat(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: titleSystemPrompt},
			{Role: "user", Content: prompt + "."},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   64,
	})
	if err != nil {
		return "", err
	}
	title := strings.Trim(strings.TrimSpace(text), `"'`)
	if title == "" {
		return "", errors.New("provider returned an empty title")
	}
	return title, nil
}

// GenerateImage requests one image and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  c.cfg.ImageModel,
		"prompt": prompt,
		"size":   c.cfg.ImageSize,
		"n":      1,
	}
	var decoded any
	if err := c.post(ctx, imageGenerationsPath, payload, &decoded); err != nil {
		return "", err
	}
	url, err := searchString(c.cfg.ImageURLPath, decoded)
	if err != nil {
		return "", fmt.Errorf("extract image url: %w", err)
	}
	return url, nil
}

func (c *Client) chat(ctx context.Context, req chatRequest) (string, error) {
	var decoded any
	if err := c.post(ctx, chatCompletionsPath, req, &decoded); err != nil {
		return "", err
	}
	text, err := searchString(c.cfg.ContentPath, decoded)
	if err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func searchString(expr string, data any) (string, error) {
	v, err := jmespath.Search(expr, data)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("no string at %q", expr)
	}
	return s, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func campaignID(c *model.Campaign) string {
	if c == nil {
		return ""
	}
	return c.ID
}
