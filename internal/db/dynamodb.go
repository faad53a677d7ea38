package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/reviewpulse/internal/models"
)

const RUN_SUMMARY_TTL = 90 * 24 * time.Hour

// DynamoAPI is the subset of the DynamoDB client the summary store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// SummaryStore keeps one item per pipeline run, keyed by run_id.
type SummaryStore struct {
	client DynamoAPI
	table  string
}

func NewSummaryStore(client DynamoAPI, table string) *SummaryStore {
	return &SummaryStore{client: client, table: table}
}

func (s *SummaryStore) PutRunSummary(ctx context.Context, summary models.RunSummary) error {
	item, err := RunSummaryItem(summary)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to store run summary: %w", err)
	}

	slog.Info("[DynamoDB] Stored run summary",
		slog.String("table", s.table),
		slog.String("run_id", summary.RunID))
	return nil
}

// RunSummaryItem marshals summary and adds the ttl attribute.
func RunSummaryItem(summary models.RunSummary) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(summary)
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] Failed to marshal run summary: %w", err)
	}

	created := summary.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	item["ttl"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", created.Add(RUN_SUMMARY_TTL).Unix())}
	return item, nil
}
