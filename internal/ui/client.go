package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cardiod/internal/heart"
)

// Client calls the Inference Service. The base URL is resolved once at
// startup from the environment and never refreshed.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// PredictionResult is the upstream's answer for one patient.
type PredictionResult struct {
	Prediction  int       `json:"prediction"`
	Probability []float64 `json:"probability"`
	Diagnosis   string    `json:"diagnosis"`
}

// UpstreamError distinguishes an API-level rejection from a transport
// failure; both are rendered, never fatal.
type UpstreamError struct {
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("api returned HTTP %d: %s", e.StatusCode, e.Detail)
}

// PredictSingle submits one validated record to /predict/single.
func (c *Client) PredictSingle(ctx context.Context, record heart.Record) (*PredictionResult, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict/single", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call inference service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var detail struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&detail)
		if detail.Detail == "" {
			detail.Detail = resp.Status
		}
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Detail: detail.Detail}
	}

	var result PredictionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	if len(result.Probability) != 2 {
		return nil, fmt.Errorf("prediction missing probability pair")
	}
	return &result, nil
}
