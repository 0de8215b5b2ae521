package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/foxxcyber/aisle-list/internal/models"
)

// ErrVisionMalformed is returned when the model answer cannot be parsed or
// does not match the extraction schema
var ErrVisionMalformed = errors.New("vision response malformed")

// ErrVisionRequest is returned when the vision endpoint cannot be reached or
// answers with a non-2xx status
var ErrVisionRequest = errors.New("vision request failed")

// DefaultVisionModel is used when no model is configured
const DefaultVisionModel = "gpt-5.2"

// VisionClient calls an OpenAI-compatible Responses endpoint to read a list photo
type VisionClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	schema     *jsonschema.Schema
	logger     *zap.Logger
}

// NewVisionClient creates a vision client
func NewVisionClient(baseURL, model string, timeout time.Duration, logger *zap.Logger) (*VisionClient, error) {
	schema, err := CompileMagicSchema()
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultVisionModel
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &VisionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		schema:     schema,
		logger:     logger,
	}, nil
}

// Parse sends the image to the model and returns the validated extraction
func (c *VisionClient) Parse(ctx context.Context, image []byte, mimeType, apiKey string) (*models.MagicResponse, error) {
	rid := uuid.New().String()
	start := time.Now()

	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	body := map[string]any{
		"model": c.model,
		"input": []map[string]any{
			{
				"role": "system",
				"content": []map[string]any{
					{"type": "input_text", "text": MagicSystemPrompt},
				},
			},
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "input_text", "text": MagicUserInstructions()},
					{
						"type":      "input_image",
						"image_url": "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image),
						"detail":    "high",
					},
				},
			},
		},
		"text": map[string]any{"format": MagicOutputFormat()},
	}

	c.logger.Info("vision.parse.start",
		zap.String("req_id", rid),
		zap.String("model", c.model),
		zap.Int("image_bytes", len(image)),
	)

	raw, err := c.post(ctx, c.baseURL+"/responses", apiKey, body)
	if err != nil {
		c.logger.Error("vision.parse.http_error",
			zap.String("req_id", rid),
			zap.Error(err),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		)
		return nil, err
	}

	resp, err := c.decode(raw)
	if err != nil {
		c.logger.Error("vision.parse.malformed",
			zap.String("req_id", rid),
			zap.Error(err),
			zap.Int("raw_bytes", len(raw)),
		)
		return nil, err
	}

	c.logger.Info("vision.parse.ok",
		zap.String("req_id", rid),
		zap.Int("items", len(resp.Items)),
		zap.Int("warnings", len(resp.Warnings)),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return resp, nil
}

func (c *VisionClient) decode(raw []byte) (*models.MagicResponse, error) {
	text, err := extractOutputText(raw)
	if err != nil {
		return nil, err
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("%w: unmarshal output: %w", ErrVisionMalformed, err)
	}
	if err := c.schema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: json does not match schema: %w", ErrVisionMalformed, err)
	}

	var out models.MagicResponse
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("%w: decode extraction: %w", ErrVisionMalformed, err)
	}
	return &out, nil
}

// extractOutputText pulls the model text from a Responses API body: the
// output_text shortcut, else the first text block of the output array.
func extractOutputText(raw []byte) (string, error) {
	var body struct {
		OutputText *string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string  `json:"type"`
				Text *string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrVisionMalformed, err)
	}

	if body.OutputText != nil && strings.TrimSpace(*body.OutputText) != "" {
		return *body.OutputText, nil
	}
	for _, part := range body.Output {
		for _, block := range part.Content {
			if (block.Type == "output_text" || block.Type == "text") && block.Text != nil {
				return *block.Text, nil
			}
		}
	}
	return "", fmt.Errorf("%w: unexpected response shape", ErrVisionMalformed)
}

func (c *VisionClient) post(ctx context.Context, url, apiKey string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVisionRequest, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("vision response body close error", zap.Error(err))
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrVisionRequest, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrVisionRequest, resp.StatusCode, string(data))
	}
	return data, nil
}
