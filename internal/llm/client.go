package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var (
	ErrInvalidResponse = errors.New("invalid llm response")
	ErrImageRequired   = errors.New("image is required")
)

type Config struct {
	VisionURL     string
	VisionAPIKey  string
	VisionTimeout time.Duration

	CompletionURL string
	APIKey        string
	Model         string
	Timeout       time.Duration

	COSSecretID     string
	COSSecretKey    string
	COSRegion       string
	COSBucketName   string
	COSPublicDomain string
}

// Client talks to the image-annotation endpoint and the generative-text
// endpoint. Both are plain JSON-over-HTTP collaborators.
type Client struct {
	visionURL     string
	visionAPIKey  string
	visionTimeout time.Duration

	completionURL string
	apiKey        string
	model         string
	timeout       time.Duration

	httpClient *http.Client

	cosSecretID     string
	cosSecretKey    string
	cosRegion       string
	cosBucketName   string
	cosPublicDomain string
}

// Feature is one annotation feature request.
type Feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

// DefaultFeatures asks for faces, labels, objects and dominant colours.
var DefaultFeatures = []Feature{
	{Type: "FACE_DETECTION", MaxResults: 10},
	{Type: "LABEL_DETECTION", MaxResults: 20},
	{Type: "OBJECT_LOCALIZATION", MaxResults: 20},
	{Type: "IMAGE_PROPERTIES"},
}

type GenerateRequest struct {
	System      string
	Text        string
	ImageBase64 string
}

func NewClient(cfg Config) (*Client, error) {
	visionURL := strings.TrimSpace(cfg.VisionURL)
	if visionURL == "" {
		visionURL = "https://vision.googleapis.com/v1/images:annotate"
	}
	completionURL := strings.TrimSpace(cfg.CompletionURL)
	if completionURL == "" {
		completionURL = "https://toolkit.rork.com/text/llm/"
	}
	if _, err := url.ParseRequestURI(visionURL); err != nil {
		return nil, fmt.Errorf("invalid vision url: %w", err)
	}
	if _, err := url.ParseRequestURI(completionURL); err != nil {
		return nil, fmt.Errorf("invalid completion url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.VisionTimeout <= 0 {
		cfg.VisionTimeout = cfg.Timeout
	}
	region := strings.TrimSpace(cfg.COSRegion)
	if region == "" {
		region = "ap-hongkong"
	}

	return &Client{
		visionURL:       visionURL,
		visionAPIKey:    strings.TrimSpace(cfg.VisionAPIKey),
		visionTimeout:   cfg.VisionTimeout,
		completionURL:   completionURL,
		apiKey:          strings.TrimSpace(cfg.APIKey),
		model:           strings.TrimSpace(cfg.Model),
		timeout:         cfg.Timeout,
		httpClient:      &http.Client{},
		cosSecretID:     strings.TrimSpace(cfg.COSSecretID),
		cosSecretKey:    strings.TrimSpace(cfg.COSSecretKey),
		cosRegion:       region,
		cosBucketName:   strings.TrimSpace(cfg.COSBucketName),
		cosPublicDomain: strings.TrimSpace(cfg.COSPublicDomain),
	}, nil
}

// Annotate submits a base64 image for feature annotation and returns the raw
// JSON response body.
func (c *Client) Annotate(ctx context.Context, imageBase64 string) ([]byte, error) {
	content := strings.TrimSpace(imageBase64)
	if content == "" {
		return nil, ErrImageRequired
	}
	ctx, cancel := context.WithTimeout(ctx, c.visionTimeout)
	defer cancel()

	body := map[string]any{
		"requests": []map[string]any{
			{
				"image":    map[string]string{"content": content},
				"features": DefaultFeatures,
			},
		},
	}
	raw, err := c.doJSON(ctx, c.annotateURL(), "", body)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: annotation body is not JSON", ErrInvalidResponse)
	}
	if msg := gjson.GetBytes(raw, "responses.0.error.message"); msg.Exists() {
		return nil, fmt.Errorf("annotation failed: %s", msg.String())
	}
	return raw, nil
}

// Generate sends a role-scoped instruction plus the image and returns the
// assistant text, which callers are expected to parse as JSON.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userContent := []map[string]any{
		{
			"type": "text",
			"text": req.Text,
		},
	}
	if image := strings.TrimSpace(req.ImageBase64); image != "" {
		userContent = append(userContent, map[string]any{
			"type":  "image",
			"image": image,
		})
	}
	body := map[string]any{
		"messages": []map[string]any{
			{
				"role":    "system",
				"content": req.System,
			},
			{
				"role":    "user",
				"content": userContent,
			},
		},
	}
	if c.model != "" {
		body["model"] = c.model
	}

	raw, err := c.doJSON(ctx, c.completionURL, c.apiKey, body)
	if err != nil {
		return "", err
	}
	return extractCompletion(raw)
}

func (c *Client) annotateURL() string {
	if c.visionAPIKey == "" {
		return c.visionURL
	}
	sep := "?"
	if strings.Contains(c.visionURL, "?") {
		sep = "&"
	}
	return c.visionURL + sep + "key=" + url.QueryEscape(c.visionAPIKey)
}

func (c *Client) doJSON(ctx context.Context, requestURL string, apiKey string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("llm request failed, status=%d body=%s", resp.StatusCode, truncateText(string(respBody), 240))
	}
	return respBody, nil
}

// extractCompletion accepts both the toolkit shape {"completion": "..."} and
// the chat-completions shape {"choices":[{"message":{"content": ...}}]}.
func extractCompletion(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", ErrInvalidResponse
	}
	if completion := gjson.GetBytes(raw, "completion"); completion.Type == gjson.String {
		if text := strings.TrimSpace(completion.String()); text != "" {
			return text, nil
		}
	}
	content := gjson.GetBytes(raw, "choices.0.message.content")
	switch {
	case content.Type == gjson.String:
		if text := strings.TrimSpace(content.String()); text != "" {
			return text, nil
		}
	case content.IsArray():
		parts := make([]string, 0, len(content.Array()))
		for _, item := range content.Array() {
			if text := item.Get("text"); text.Exists() {
				parts = append(parts, text.String())
			}
		}
		if len(parts) > 0 {
			return strings.TrimSpace(strings.Join(parts, "\n")), nil
		}
	}
	return "", ErrInvalidResponse
}

// ExtractJSONPayload strips markdown fences and surrounding prose from a
// model reply, returning the outermost JSON object.
func ExtractJSONPayload(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "{}"
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end >= start {
		return trimmed[start : end+1]
	}
	return trimmed
}

func truncateText(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
