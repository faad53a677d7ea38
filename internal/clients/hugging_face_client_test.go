package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/reviewpulse/internal/models"
)

func newTestClient(url string) *HuggingFaceClient {
	return NewHuggingFaceClient(url, "distilbert/sst2", "secret").WithBackoff(3, time.Millisecond)
}

func TestPredict_NestedResponse(t *testing.T) {
	var gotReq models.InferenceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/distilbert/sst2", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`[[{"label":"NEGATIVE","score":0.12},{"label":"POSITIVE","score":0.88}]]`))
	}))
	defer srv.Close()

	label, score, err := newTestClient(srv.URL).Predict(context.Background(), "nice app")
	require.NoError(t, err)

	assert.Equal(t, "POSITIVE", label)
	assert.Equal(t, 0.88, score)
	assert.Equal(t, "nice app", gotReq.Inputs)
	assert.True(t, gotReq.Options.WaitForModel)
	assert.True(t, gotReq.Parameters.Truncation)
	assert.Equal(t, MAX_MODEL_TOKENS, gotReq.Parameters.MaxLength)
}

func TestPredict_FlatResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"NEGATIVE","score":0.93},{"label":"POSITIVE","score":0.07}]`))
	}))
	defer srv.Close()

	label, score, err := newTestClient(srv.URL).Predict(context.Background(), "slow")
	require.NoError(t, err)
	assert.Equal(t, "NEGATIVE", label)
	assert.Equal(t, 0.93, score)
}

func TestPredict_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[[{"label":"POSITIVE","score":0.5}]]`))
	}))
	defer srv.Close()

	label, _, err := newTestClient(srv.URL).Predict(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, "POSITIVE", label)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPredict_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL).Predict(context.Background(), "ok")
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPredict_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Input is too long"}`))
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL).Predict(context.Background(), "ok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Input is too long")
	assert.Equal(t, int32(1), calls.Load())
}

func TestPredict_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL).Predict(context.Background(), "ok")
	assert.Error(t, err)
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Model not found"}`))
	}))
	defer srv.Close()

	assert.Error(t, newTestClient(srv.URL).Probe(context.Background()))
}

func TestDecodeClassification_Empty(t *testing.T) {
	_, err := decodeClassification([]byte(`[]`))
	assert.Error(t, err)

	_, err = decodeClassification([]byte(`[[]]`))
	assert.Error(t, err)
}
