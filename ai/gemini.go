package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client communicates with Google's Gemini AI API.
type Client struct {
	APIKey     string
	HTTPClient *http.Client
	Model      string
}

// Gemini API request/response structures
type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float32 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content struct {
		Parts []geminiPart `json:"parts"`
		Role  string       `json:"role"`
	} `json:"content"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewClient builds a client from GEMINI_API_KEY. Callers treat the
// error as "feature disabled", not as fatal.
func NewClient() (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	return &Client{
		APIKey: apiKey,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		Model: "gemini-2.0-flash", // Fast and efficient model
	}, nil
}

// generate sends a single-turn prompt to Gemini and returns the raw
// response text.
func (c *Client) generate(ctx context.Context, userMessage, systemPrompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		geminiBaseURL, c.Model, c.APIKey)

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userMessage}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.2, // classification wants stable output
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 512,
		},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("Gemini API error: %s", response.Error.Message)
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	return response.Candidates[0].Content.Parts[0].Text, nil
}

// Verdict vocabulary the model is constrained to.
const (
	VerdictSafe     = "Safe"
	VerdictHighRisk = "High Risk"
)

// TextVerdict is the structured result of a text classification.
type TextVerdict struct {
	Verdict     string `json:"verdict"`
	Explanation string `json:"explanation"`
}

// ClassifyText asks the model whether the text reads like a phishing or
// social-engineering attempt and parses its constrained JSON answer.
func (c *Client) ClassifyText(ctx context.Context, text string) (*TextVerdict, error) {
	prompt := fmt.Sprintf(ClassifyTextPrompt, text)

	raw, err := c.generate(ctx, prompt, ClassifySystemPrompt)
	if err != nil {
		return nil, err
	}
	return ParseVerdict(raw)
}

// ParseVerdict extracts the {verdict, explanation} object from a model
// response, tolerating markdown code fences around the JSON.
func ParseVerdict(raw string) (*TextVerdict, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var v TextVerdict
	if err := json.Unmarshal([]byte(clean), &v); err != nil {
		return nil, fmt.Errorf("parse verdict: %w", err)
	}
	if v.Verdict == "" {
		return nil, fmt.Errorf("verdict missing from model response")
	}
	return &v, nil
}
