package pipeline

import (
	"context"
	"log/slog"

	"github.com/spacesedan/reviewpulse/config"
	"github.com/spacesedan/reviewpulse/internal/clients"
	"github.com/spacesedan/reviewpulse/internal/db"
	"github.com/spacesedan/reviewpulse/internal/publish"
	"github.com/spacesedan/reviewpulse/internal/utils"
)

// Sinks are the optional services a run talks to besides the CSV files.
type Sinks struct {
	Cache     *clients.ValkeyClient
	Publisher *publish.Publisher
	Summaries *db.SummaryStore

	closers []func()
}

// OpenSinks connects every sink whose address is configured. A sink that
// fails to connect aborts startup.
func OpenSinks(ctx context.Context, cfg *config.Config) (*Sinks, error) {
	s, err := OpenCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.KafkaBroker != "" {
		producer, err := clients.NewKafkaProducer(cfg.KafkaBroker)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Publisher = publish.NewPublisher(producer, cfg.KafkaTopic, utils.DEFAULT_BATCH_SIZE)
		s.closers = append(s.closers, producer.Close)
	}

	if cfg.SummaryTable != "" {
		client, err := clients.NewDynamoDBClient(ctx, clients.AWSOptions{
			Region:   cfg.AWSRegion,
			Endpoint: cfg.AWSEndpoint,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Summaries = db.NewSummaryStore(client, cfg.SummaryTable)
	}

	slog.Info("[Pipeline] Sinks ready",
		slog.Bool("cache", s.Cache != nil),
		slog.Bool("kafka", s.Publisher != nil),
		slog.Bool("dynamodb", s.Summaries != nil))
	return s, nil
}

// OpenCache connects only the model result cache, for runs that neither
// publish nor record summaries.
func OpenCache(ctx context.Context, cfg *config.Config) (*Sinks, error) {
	s := &Sinks{}
	if cfg.ValkeyAddress == "" {
		return s, nil
	}

	cache, err := clients.NewValkeyClient(ctx, clients.ValkeyOptions{
		Address:  cfg.ValkeyAddress,
		Password: cfg.ValkeyPassword,
		TLS:      cfg.ValkeyTLS,
	})
	if err != nil {
		return nil, err
	}
	s.Cache = cache
	s.closers = append(s.closers, cache.Close)
	return s, nil
}

// Close releases sinks in reverse order of opening.
func (s *Sinks) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
