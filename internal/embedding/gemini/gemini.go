package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Task types the provider distinguishes between: stored corpus documents and
// search queries get different transforms.
const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

// Client is a Gemini embeddings client. It embeds documents in batches and
// queries one at a time, with bounded retries on transient failures.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	client     *http.Client
	maxRetries int
}

// Config configures the Gemini embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-embedding-001"
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = 3072
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: t},
		maxRetries: 5,
	}, nil
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int { return c.dimension }

type contentPayload struct {
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

func newContent(text string) contentPayload {
	var p contentPayload
	p.Parts = append(p.Parts, struct {
		Text string `json:"text"`
	}{Text: text})
	return p
}

type embedRequest struct {
	Model                string         `json:"model,omitempty"`
	Content              contentPayload `json:"content"`
	TaskType             string         `json:"taskType"`
	OutputDimensionality int            `json:"outputDimensionality,omitempty"`
}

// EmbedDocuments embeds a batch of corpus documents in one provider call.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	reqs := make([]embedRequest, 0, len(texts))
	for _, t := range texts {
		reqs = append(reqs, embedRequest{
			Model:                "models/" + c.model,
			Content:              newContent(t),
			TaskType:             taskDocument,
			OutputDimensionality: c.dimension,
		})
	}
	body := map[string]any{"requests": reqs}
	url := fmt.Sprintf("%s/v1beta/models/%s:batchEmbedContents", c.baseURL, c.model)

	var out struct {
		Embeddings []struct {
			Values []float64 `json:"values"`
		} `json:"embeddings"`
	}
	if err := c.doJSON(ctx, url, body, &out); err != nil {
		return nil, err
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: requested %d got %d", len(texts), len(out.Embeddings))
	}
	vectors := make([][]float64, len(out.Embeddings))
	for i, e := range out.Embeddings {
		if len(e.Values) == 0 {
			return nil, errors.New("no embedding returned")
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

// EmbedQuery embeds a single search query with the query task type.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	body := embedRequest{
		Content:              newContent(text),
		TaskType:             taskQuery,
		OutputDimensionality: c.dimension,
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:embedContent", c.baseURL, c.model)

	var out struct {
		Embedding struct {
			Values []float64 `json:"values"`
		} `json:"embedding"`
	}
	if err := c.doJSON(ctx, url, body, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding.Values) == 0 {
		return nil, errors.New("no embedding returned")
	}
	return out.Embedding.Values, nil
}

func (c *Client) doJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("gemini embeddings failed: %s", resp.Status)
			// Respect Retry-After if provided
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					_ = resp.Body.Close()
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(time.Duration(secs) * time.Second):
					}
					continue
				}
			}
			_ = resp.Body.Close()
			continue
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("gemini embeddings failed: %s", resp.Status)
		}
		if err := json.Unmarshal(payload, out); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
