package clients

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/spacesedan/reviewpulse/internal/models"
)

const VALKEY_RESULT_TTL = 7 * 24 * time.Hour

type ValkeyOptions struct {
	Address  string
	Password string
	TLS      bool
}

// ValkeyClient caches model predictions keyed by model and text hash.
type ValkeyClient struct {
	Client valkey.Client
	ttl    time.Duration
}

func NewValkeyClient(ctx context.Context, o ValkeyOptions) (*ValkeyClient, error) {
	opts := valkey.ClientOption{
		InitAddress: []string{
			o.Address,
		},
		Password:         o.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}

	if o.TLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey",
		slog.String("address", o.Address))

	return &ValkeyClient{Client: client, ttl: VALKEY_RESULT_TTL}, nil
}

func (vc *ValkeyClient) Close() {
	if vc.Client != nil {
		vc.Client.Close()
	}
}

// Get returns the cached result for key. A missing key is not an error.
func (vc *ValkeyClient) Get(ctx context.Context, key string) (models.Result, bool, error) {
	var result models.Result

	res := vc.DoWithRetry(ctx, func() valkey.Completed {
		return vc.Client.B().Get().Key(key).Build()
	}, 3)

	raw, err := res.ToString()
	if valkey.IsValkeyNil(err) {
		return result, false, nil
	}
	if err != nil {
		return result, false, err
	}

	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, false, fmt.Errorf("[ValkeyClient] corrupt cache entry %s: %w", key, err)
	}
	return result, true, nil
}

func (vc *ValkeyClient) Set(ctx context.Context, key string, result models.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	res := vc.DoWithRetry(ctx, func() valkey.Completed {
		return vc.Client.B().Set().Key(key).Value(string(payload)).ExSeconds(int64(vc.ttl.Seconds())).Build()
	}, 3)
	return res.Error()
}

// DoWithRetry builds and runs a command up to retries times. Commands are
// rebuilt on every attempt because the client recycles them after Do.
func (vc *ValkeyClient) DoWithRetry(ctx context.Context, build func() valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		result = vc.Client.Do(ctx, build())
		if err := result.Error(); err == nil || valkey.IsValkeyNil(err) {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", result.Error().Error()))

		time.Sleep(250 * time.Millisecond)
	}

	return result
}
