package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/reviewpulse/internal/dataset"
	"github.com/spacesedan/reviewpulse/internal/models"
	"github.com/spacesedan/reviewpulse/internal/sentiment"
	"github.com/spacesedan/reviewpulse/internal/utils"
)

// Producer is satisfied by clients.KafkaProducer.
type Producer interface {
	Produce(msg *kafka.Message) error
	Flush() int
}

// Publisher emits one AnalyzedReview message per analyzed row.
type Publisher struct {
	producer  Producer
	topic     string
	batchSize int
}

func NewPublisher(producer Producer, topic string, batchSize int) *Publisher {
	return &Publisher{producer: producer, topic: topic, batchSize: batchSize}
}

// PublishTable publishes every row of an analyzed table and flushes after each
// batch. Rows are keyed by run id and row index.
func (p *Publisher) PublishTable(ctx context.Context, runID string, table *dataset.Table, textColumn, groupColumn string, backends []sentiment.Backend) (int, error) {
	reviews := AnalyzedReviews(runID, table, textColumn, groupColumn, backends, time.Now().UTC())

	buffer := utils.NewBatchBuffer[*kafka.Message](p.batchSize)
	published := 0
	flush := func() error {
		if !buffer.HasData() {
			return nil
		}
		batch := buffer.GetAndClear()
		for _, msg := range batch {
			if err := p.producer.Produce(msg); err != nil {
				return fmt.Errorf("[Publisher] failed to produce %s: %w", msg.Key, err)
			}
		}
		if remaining := p.producer.Flush(); remaining > 0 {
			return fmt.Errorf("[Publisher] %d messages still queued after flush", remaining)
		}
		published += len(batch)
		return nil
	}

	for _, review := range reviews {
		if err := ctx.Err(); err != nil {
			return published, err
		}

		msg, err := p.Message(review)
		if err != nil {
			return published, err
		}
		if buffer.Add(msg) {
			buffer.LogBatchProcessing("analyzed_reviews")
			if err := flush(); err != nil {
				return published, err
			}
		}
	}
	if err := flush(); err != nil {
		return published, err
	}

	slog.Info("[Publisher] Published analyzed reviews",
		slog.String("topic", p.topic),
		slog.String("run_id", runID),
		slog.Int("count", published))
	return published, nil
}

func (p *Publisher) Message(review models.AnalyzedReview) (*kafka.Message, error) {
	payload, err := json.Marshal(review)
	if err != nil {
		return nil, fmt.Errorf("[Publisher] failed to marshal row %d: %w", review.Row, err)
	}

	topic := p.topic
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(review.RunID + ":" + strconv.Itoa(review.Row)),
		Value:          payload,
		Headers: []kafka.Header{
			{Key: "run_id", Value: []byte(review.RunID)},
		},
	}, nil
}

// AnalyzedReviews reads the label and score columns of each backend present in
// table. Backends whose columns are absent are left out of Sentiment.
func AnalyzedReviews(runID string, table *dataset.Table, textColumn, groupColumn string, backends []sentiment.Backend, ts time.Time) []models.AnalyzedReview {
	out := make([]models.AnalyzedReview, table.Len())
	for i := range out {
		review := models.AnalyzedReview{
			RunID:      runID,
			Row:        i,
			ReviewText: table.Value(i, textColumn),
			Sentiment:  make(map[string]models.Result, len(backends)),
			Timestamp:  ts,
		}
		if groupColumn != "" {
			review.BankName = table.Value(i, groupColumn)
		}

		for _, b := range backends {
			if !table.HasColumn(b.LabelColumn()) {
				continue
			}
			score, _ := strconv.ParseFloat(table.Value(i, b.ScoreColumn()), 64)
			review.Sentiment[string(b)] = models.Result{
				Label: models.Label(table.Value(i, b.LabelColumn())),
				Score: score,
			}
		}
		out[i] = review
	}
	return out
}
