package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/branddi/taskdash/backend/internal/types"
	"github.com/rs/zerolog"
)

// batchWriteSize is the DynamoDB BatchWriteItem limit
const batchWriteSize = 25

// DynamoDBStore implements Store using AWS DynamoDB
type DynamoDBStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// For local mode, build the client directly without LoadDefaultConfig.
		// LoadDefaultConfig probes the EC2 IMDS endpoint which hangs on EC2
		// instances when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	// Create the table in local mode
	if cfg.Mode == DynamoModeLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Msg("DynamoDB store initialized")

	return store, nil
}

// SaveActivities stores a batch of rows under a period label with
// overwrite semantics: existing rows for the period are deleted first.
func (s *DynamoDBStore) SaveActivities(period string, rows []types.ActivityRow) error {
	if _, err := s.DeletePeriod(period); err != nil {
		return fmt.Errorf("failed to clear period %s: %w", period, err)
	}

	for i := 0; i < len(rows); i += batchWriteSize {
		end := i + batchWriteSize
		if end > len(rows) {
			end = len(rows)
		}

		requests := make([]dbtypes.WriteRequest, 0, end-i)
		for _, row := range rows[i:end] {
			item, err := attributevalue.MarshalMap(row)
			if err != nil {
				return fmt.Errorf("failed to marshal activity row: %w", err)
			}
			requests = append(requests, dbtypes.WriteRequest{
				PutRequest: &dbtypes.PutRequest{Item: item},
			})
		}

		_, err := s.client.BatchWriteItem(context.Background(), &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]dbtypes.WriteRequest{
				s.config.ActivitiesTable: requests,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to save activity rows: %w", err)
		}
	}

	s.logger.Info().
		Str("period", period).
		Int("rows", len(rows)).
		Msg("activities saved")
	return nil
}

// GetActivities returns all rows stored under a period label
func (s *DynamoDBStore) GetActivities(period string) ([]types.ActivityRow, error) {
	keyCond := expression.Key("Period").Equal(expression.Value(period))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	var rows []types.ActivityRow
	var lastKey map[string]dbtypes.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(s.config.ActivitiesTable),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		}
		if lastKey != nil {
			input.ExclusiveStartKey = lastKey
		}

		result, err := s.client.Query(context.Background(), input)
		if err != nil {
			return nil, fmt.Errorf("failed to query activities: %w", err)
		}

		var page []types.ActivityRow
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal activity rows: %w", err)
		}
		rows = append(rows, page...)

		lastKey = result.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}

	return rows, nil
}

// ListPeriods returns the distinct period labels, newest first.
// Uses a projected scan; fine for the dataset sizes this service sees.
func (s *DynamoDBStore) ListPeriods() ([]string, error) {
	seen := make(map[string]struct{})
	var lastKey map[string]dbtypes.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:                aws.String(s.config.ActivitiesTable),
			ProjectionExpression:     aws.String("#p"),
			ExpressionAttributeNames: map[string]string{"#p": "Period"},
		}
		if lastKey != nil {
			input.ExclusiveStartKey = lastKey
		}

		result, err := s.client.Scan(context.Background(), input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan periods: %w", err)
		}

		for _, item := range result.Items {
			var row struct {
				Period string `dynamodbav:"Period"`
			}
			if err := attributevalue.UnmarshalMap(item, &row); err != nil {
				continue
			}
			if row.Period != "" {
				seen[row.Period] = struct{}{}
			}
		}

		lastKey = result.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}

	periods := make([]string, 0, len(seen))
	for p := range seen {
		periods = append(periods, p)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	return periods, nil
}

// DeletePeriod removes all rows stored under a period label and
// returns how many were deleted.
func (s *DynamoDBStore) DeletePeriod(period string) (int, error) {
	keyCond := expression.Key("Period").Equal(expression.Value(period))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build expression: %w", err)
	}

	deleted := 0
	var lastKey map[string]dbtypes.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(s.config.ActivitiesTable),
			KeyConditionExpression:    expr.KeyCondition(),
			ProjectionExpression:      aws.String("#p, #id"),
			ExpressionAttributeNames:  mergeNames(expr.Names(), map[string]string{"#p": "Period", "#id": "ID"}),
			ExpressionAttributeValues: expr.Values(),
		}
		if lastKey != nil {
			input.ExclusiveStartKey = lastKey
		}

		result, err := s.client.Query(context.Background(), input)
		if err != nil {
			return deleted, fmt.Errorf("failed to query period keys: %w", err)
		}

		// Batch delete in groups of 25
		for i := 0; i < len(result.Items); i += batchWriteSize {
			end := i + batchWriteSize
			if end > len(result.Items) {
				end = len(result.Items)
			}

			requests := make([]dbtypes.WriteRequest, 0, end-i)
			for _, item := range result.Items[i:end] {
				requests = append(requests, dbtypes.WriteRequest{
					DeleteRequest: &dbtypes.DeleteRequest{
						Key: map[string]dbtypes.AttributeValue{
							"Period": item["Period"],
							"ID":     item["ID"],
						},
					},
				})
			}

			_, err := s.client.BatchWriteItem(context.Background(), &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]dbtypes.WriteRequest{
					s.config.ActivitiesTable: requests,
				},
			})
			if err != nil {
				return deleted, fmt.Errorf("failed to delete period rows: %w", err)
			}
			deleted += len(requests)
		}

		lastKey = result.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}

	return deleted, nil
}

// TruncateAll deletes all items from the activities table (scan + batch delete)
func (s *DynamoDBStore) TruncateAll() error {
	var lastKey map[string]dbtypes.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:            aws.String(s.config.ActivitiesTable),
			ProjectionExpression: aws.String("#pk, #sk"),
			ExpressionAttributeNames: map[string]string{
				"#pk": "Period",
				"#sk": "ID",
			},
			Limit: aws.Int32(500),
		}
		if lastKey != nil {
			input.ExclusiveStartKey = lastKey
		}

		result, err := s.client.Scan(context.Background(), input)
		if err != nil {
			return fmt.Errorf("failed to scan activities table: %w", err)
		}

		for i := 0; i < len(result.Items); i += batchWriteSize {
			end := i + batchWriteSize
			if end > len(result.Items) {
				end = len(result.Items)
			}

			requests := make([]dbtypes.WriteRequest, 0, end-i)
			for _, item := range result.Items[i:end] {
				requests = append(requests, dbtypes.WriteRequest{
					DeleteRequest: &dbtypes.DeleteRequest{
						Key: map[string]dbtypes.AttributeValue{
							"Period": item["Period"],
							"ID":     item["ID"],
						},
					},
				})
			}

			_, err := s.client.BatchWriteItem(context.Background(), &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]dbtypes.WriteRequest{
					s.config.ActivitiesTable: requests,
				},
			})
			if err != nil {
				return err
			}
		}

		lastKey = result.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}

	s.logger.Info().Str("table", s.config.ActivitiesTable).Msg("table truncated")
	return nil
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, logger zerolog.Logger) (Store, error) {
	cfg := LoadDynamoConfig()

	switch cfg.Mode {
	case DynamoModeLocal, DynamoModeAWS:
		return NewDynamoDBStore(ctx, cfg, logger)
	default:
		logger.Info().Msg("DynamoDB disabled (DYNAMO_MODE=none)")
		return NewNoopStore(), nil
	}
}

func mergeNames(maps ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}
