package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// CreateTablesIfNotExist creates the activities table for local development
func CreateTablesIfNotExist(ctx context.Context, client *dynamodb.Client, config DynamoConfig, logger zerolog.Logger) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(config.ActivitiesTable),
	})
	if err == nil {
		logger.Info().Str("table", config.ActivitiesTable).Msg("table already exists")
		return nil
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(config.ActivitiesTable),
		KeySchema: []dbtypes.KeySchemaElement{
			{AttributeName: aws.String("Period"), KeyType: dbtypes.KeyTypeHash},
			{AttributeName: aws.String("ID"), KeyType: dbtypes.KeyTypeRange},
		},
		AttributeDefinitions: []dbtypes.AttributeDefinition{
			{AttributeName: aws.String("Period"), AttributeType: dbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("ID"), AttributeType: dbtypes.ScalarAttributeTypeS},
		},
		BillingMode: dbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", config.ActivitiesTable, err)
	}
	logger.Info().Str("table", config.ActivitiesTable).Msg("table created")

	return nil
}
