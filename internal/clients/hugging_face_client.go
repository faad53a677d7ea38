package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spacesedan/reviewpulse/internal/models"
)

const probeText = "The app works."

// HuggingFaceClient runs text classification on a hosted inference endpoint.
type HuggingFaceClient struct {
	Client         *http.Client
	endpoint       string
	model          string
	token          string
	maxRetries     int
	initialBackoff time.Duration
}

func NewHuggingFaceClient(endpoint, model, token string) *HuggingFaceClient {
	var timeout time.Duration
	env := os.Getenv("APP_ENV")
	if env == "production" {
		timeout = 10 * time.Second
	} else {
		timeout = 60 * time.Second
	}

	slog.Info("[HuggingFaceClient] Initializing Client",
		slog.Duration("timeout", timeout),
		slog.String("env", env),
		slog.String("model", model))

	return &HuggingFaceClient{
		Client:         &http.Client{Timeout: timeout},
		endpoint:       strings.TrimRight(endpoint, "/"),
		model:          model,
		token:          token,
		maxRetries:     MAX_RETRIES,
		initialBackoff: INITIAL_BACKOFF,
	}
}

// WithBackoff overrides the retry policy.
func (h *HuggingFaceClient) WithBackoff(maxRetries int, initial time.Duration) *HuggingFaceClient {
	h.maxRetries = maxRetries
	h.initialBackoff = initial
	return h
}

// Probe runs one prediction so that an unreachable or unknown model fails at
// startup rather than on the first row.
func (h *HuggingFaceClient) Probe(ctx context.Context) error {
	_, _, err := h.Predict(ctx, probeText)
	return err
}

// Predict returns the highest scoring label for text.
func (h *HuggingFaceClient) Predict(ctx context.Context, text string) (string, float64, error) {
	body, err := json.Marshal(models.InferenceRequest{
		Inputs:     text,
		Parameters: models.InferenceParameters{Truncation: true, MaxLength: MAX_MODEL_TOKENS},
		Options:    models.InferenceOptions{WaitForModel: true, UseCache: true},
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal input: %w", err)
	}

	respBody, err := h.postJSON(ctx, body)
	if err != nil {
		return "", 0, err
	}

	scores, err := decodeClassification(respBody)
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed to unmarshal response",
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))
		return "", 0, err
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best.Label, best.Score, nil
}

func (h *HuggingFaceClient) Close() error {
	h.Client.CloseIdleConnections()
	return nil
}

func (h *HuggingFaceClient) url() string {
	return h.endpoint + "/" + h.model
}

// DoWithRetry retries transport errors and 5xx responses with exponential
// backoff. build is called for every attempt so the body can be replayed.
func (h *HuggingFaceClient) DoWithRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := h.initialBackoff

	for attempt := 0; attempt < h.maxRetries; attempt++ {
		req, buildErr := build()
		if buildErr != nil {
			return nil, fmt.Errorf("failed to build request: %w", buildErr)
		}

		resp, err = h.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		msg := errMsg(err, resp)
		if resp != nil {
			resp.Body.Close()
			if err == nil {
				err = fmt.Errorf("status code %d", resp.StatusCode)
			}
		}

		slog.Warn("[HuggingFaceClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", msg))

		if attempt == h.maxRetries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > MAX_BACKOFF {
			backoff = MAX_BACKOFF
		}
	}

	return nil, err
}

func (h *HuggingFaceClient) postJSON(ctx context.Context, body []byte) ([]byte, error) {
	endpoint := h.url()
	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)
		if h.token != "" {
			req.Header.Set("Authorization", "Bearer "+h.token)
		}
		return req, nil
	}

	resp, err := h.DoWithRetry(ctx, build)
	if err != nil {
		return nil, fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr models.InferenceError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("inference endpoint returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("inference endpoint returned %d", resp.StatusCode)
	}

	return respBody, nil
}

// decodeClassification accepts both the nested [[...]] and flat [...] shapes
// the endpoint returns for single inputs.
func decodeClassification(body []byte) ([]models.ClassificationScore, error) {
	var nested [][]models.ClassificationScore
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) > 0 && len(nested[0]) > 0 {
			return nested[0], nil
		}
		return nil, errors.New("empty classification response")
	}

	var flat []models.ClassificationScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(flat) == 0 {
		return nil, errors.New("empty classification response")
	}
	return flat, nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
