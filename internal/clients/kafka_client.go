package clients

import (
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

const KAFKA_FLUSH_TIMEOUT_MS = 15_000

// KafkaProducer is an idempotent producer that reports delivery failures
// through its event loop.
type KafkaProducer struct {
	Producer *kafka.Producer
	done     chan struct{}
}

func NewKafkaProducer(broker string) (*KafkaProducer, error) {
	slog.Info("[KafkaClient] Connecting to Kafka", slog.String("broker", broker))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   broker,
		"security.protocol":   "PLAINTEXT",
		"api.version.request": "true",
		"enable.idempotence":  true,
		"acks":                "all",
		"linger.ms":           20,
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] failed to create producer: %w", err)
	}

	kp := &KafkaProducer{Producer: p, done: make(chan struct{})}
	go kp.watchEvents()

	slog.Info("[KafkaClient] Kafka Producer initialized")
	return kp, nil
}

func (kp *KafkaProducer) watchEvents() {
	defer close(kp.done)
	for e := range kp.Producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				slog.Error("[KafkaClient] Delivery failed",
					slog.String("key", string(ev.Key)),
					slog.String("error", ev.TopicPartition.Error.Error()))
			}
		case kafka.Error:
			slog.Warn("[KafkaClient] Producer error",
				slog.String("error", ev.Error()))
		}
	}
}

// Produce enqueues msg, retrying a full local queue a few times.
func (kp *KafkaProducer) Produce(msg *kafka.Message) error {
	var err error
	for i := 0; i < 3; i++ {
		err = kp.Producer.Produce(msg, nil)
		if err == nil {
			return nil
		}
		if kerr, ok := err.(kafka.Error); ok && kerr.Code() == kafka.ErrQueueFull {
			kp.Producer.Flush(1000)
		}
		slog.Warn("[KafkaClient] Failed to produce message, retrying...",
			slog.Int("attempt", i+1))
	}
	return err
}

// Flush waits for outstanding deliveries and returns how many are still queued.
func (kp *KafkaProducer) Flush() int {
	return kp.Producer.Flush(KAFKA_FLUSH_TIMEOUT_MS)
}

func (kp *KafkaProducer) Close() {
	if kp.Producer == nil {
		return
	}
	if remaining := kp.Flush(); remaining > 0 {
		slog.Warn("[KafkaClient] Messages left undelivered at shutdown",
			slog.Int("remaining", remaining))
	}
	kp.Producer.Close()
	<-kp.done
	slog.Info("[KafkaClient] Kafka producer shut down")
}
