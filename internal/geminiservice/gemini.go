package geminiservice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"Fitdiary/internal/apperr"
	"github.com/rs/zerolog/log"
)

// --- Gemini API Configuration ---
const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel       = "gemini-2.5-flash"
	maxRetries         = 3
	initialBackoff     = 1 * time.Second
	requestTimeout     = 30 * time.Second
	structuredMimeType = "application/json"
)

// --- Structs for Gemini API Request/Response ---

type GeminiPayload struct {
	Contents          []GeminiContent   `json:"contents"`
	SystemInstruction *GeminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiContent struct {
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type GenerationConfig struct {
	ResponseMimeType string        `json:"responseMimeType"`
	ResponseSchema   *GeminiSchema `json:"response_schema,omitempty"`
}

type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata,omitempty"`
}

// Image is sent inline next to the prompt.
type Image struct {
	Data     []byte
	MimeType string
}

// Request is one generate call.
type Request struct {
	SystemPrompt string
	Prompt       string
	Image        *Image
	// Schema switches the call to structured JSON output.
	Schema *GeminiSchema
}

// Result is the raw text of the first candidate plus token usage when the
// API reported it.
type Result struct {
	Text      string
	Model     string
	TokensIn  *int
	TokensOut *int
}

// Config configures a Client. Zero values fall back to the defaults above.
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string
	MaxRetries     int
	InitialBackoff time.Duration
	Timeout        time.Duration
}

// Client calls the generateContent endpoint with retry and exponential backoff.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = maxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = initialBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = requestTimeout
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// Model is the model name recorded in analysis logs.
func (c *Client) Model() string { return c.cfg.Model }

// Generate sends req and returns the first candidate's text. Every failure is
// an apperr.ErrExternalService error.
func (c *Client) Generate(ctx context.Context, req Request) (Result, error) {
	if c.cfg.APIKey == "" {
		log.Error().Msg("FATAL: GEMINI_API_KEY environment variable is not set.")
		return Result{}, apperr.External("AI service is not configured", nil)
	}

	payloadBytes, err := json.Marshal(buildPayload(req))
	if err != nil {
		return Result{}, apperr.External("AI request could not be built", fmt.Errorf("failed to marshal payload: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model, c.cfg.APIKey)
	var lastErr error

	// Exponential backoff retry loop
	for i := 0; i < c.cfg.MaxRetries; i++ {
		if i > 0 {
			backoff := c.cfg.InitialBackoff * time.Duration(math.Pow(2, float64(i-1)))
			select {
			case <-ctx.Done():
				return Result{}, apperr.External("AI request cancelled", ctx.Err())
			case <-time.After(backoff):
			}
		}

		log.Info().Str("model", c.cfg.Model).Msgf("Attempt %d: Calling Gemini API...", i+1)

		res, retry, err := c.do(ctx, url, payloadBytes)
		if err == nil {
			return res, nil
		}
		lastErr = err
		log.Warn().Err(err).Msgf("Attempt %d failed", i+1)
		if !retry {
			break
		}
	}

	return Result{}, apperr.External("AI service unavailable",
		fmt.Errorf("failed to call Gemini API after retries: %w", lastErr))
}

// do performs one attempt. retry reports whether another attempt may help.
func (c *Client) do(ctx context.Context, url string, payload []byte) (res Result, retry bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, false, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, ctx.Err() == nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return Result{}, retryable, fmt.Errorf("API returned non-200 status: %s, Body: %s", resp.Status, string(body))
	}

	var geminiResp GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return Result{}, false, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return Result{}, false, fmt.Errorf("no content found in Gemini response")
	}

	var text strings.Builder
	for _, p := range geminiResp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	res = Result{Text: text.String(), Model: c.cfg.Model}
	if u := geminiResp.UsageMetadata; u != nil {
		in, out := u.PromptTokenCount, u.CandidatesTokenCount
		res.TokensIn, res.TokensOut = &in, &out
	}
	return res, false, nil
}

func buildPayload(req Request) GeminiPayload {
	parts := []GeminiPart{{Text: req.Prompt}}
	if req.Image != nil && len(req.Image.Data) > 0 {
		parts = append(parts, GeminiPart{InlineData: &InlineData{
			MimeType: req.Image.MimeType,
			Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
		}})
	}

	payload := GeminiPayload{Contents: []GeminiContent{{Parts: parts}}}
	if req.SystemPrompt != "" {
		payload.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: req.SystemPrompt}}}
	}
	if req.Schema != nil {
		payload.GenerationConfig = &GenerationConfig{
			ResponseMimeType: structuredMimeType,
			ResponseSchema:   req.Schema,
		}
	}
	return payload
}
