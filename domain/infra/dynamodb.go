package infra

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/Pyradex/acrputilities/domain/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type DynamoDB struct {
	db *dynamodb.Client
}

var tableNamePrefix = "acrp_utilities"
var ticketLogTableName = tableNamePrefix + "_ticket_log"
var moderationTableName = tableNamePrefix + "_moderation_action"

func NewDynamoDB() (*DynamoDB, error) {
	if os.Getenv("DYNAMO_TABLE_NAME_PREFIX") != "" {
		tableNamePrefix = os.Getenv("DYNAMO_TABLE_NAME_PREFIX")
		ticketLogTableName = tableNamePrefix + "_ticket_log"
		moderationTableName = tableNamePrefix + "_moderation_action"
	}
	if os.Getenv("DYNAMO_TICKET_LOG_TABLE_NAME") != "" {
		ticketLogTableName = os.Getenv("DYNAMO_TICKET_LOG_TABLE_NAME")
	}
	if os.Getenv("DYNAMO_MODERATION_TABLE_NAME") != "" {
		moderationTableName = os.Getenv("DYNAMO_MODERATION_TABLE_NAME")
	}
	var db *dynamodb.Client
	if os.Getenv("DYNAMO_LOCAL") != "" {
		cfg, err := config.LoadDefaultConfig(context.TODO(),
			config.WithRegion("dummy"),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "dummy")),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %v", err)
		}

		db = dynamodb.NewFromConfig(cfg,
			func(o *dynamodb.Options) {
				o.BaseEndpoint = aws.String("http://localhost:8000")
			},
		)
	} else {
		cfg, err := config.LoadDefaultConfig(context.TODO())
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %v", err)
		}

		db = dynamodb.NewFromConfig(cfg)
	}
	d := &DynamoDB{
		db: db,
	}
	if os.Getenv("DYNAMO_LOCAL") != "" {
		if err := d.EnsureTable(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

const (
	waitInterval = 2 * time.Second // ポーリング間隔
	maxRetries   = 30              // 最大リトライ回数 (30回 = 約1分)
)

func (d *DynamoDB) EnsureTable() error {
	tableNames := []string{
		ticketLogTableName,
		moderationTableName,
	}

	for _, tableName := range tableNames {
		if err := d.ensureSingleTable(tableName); err != nil {
			return fmt.Errorf("failed to ensure table %s: %v", tableName, err)
		}
	}

	return nil
}

func (d *DynamoDB) ensureSingleTable(tableName string) error {
	_, err := d.db.DescribeTable(context.TODO(), &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err == nil {
		// テーブルが既に存在する
		return nil
	}

	// テーブルを作成
	err = d.createTable(tableName)
	if err != nil {
		return err
	}

	// テーブルがACTIVEになるまで待機
	for i := 0; i < maxRetries; i++ {
		out, err := d.db.DescribeTable(context.TODO(), &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		})
		if err != nil {
			return fmt.Errorf("failed to describe table %s: %v", tableName, err)
		}

		if out.Table.TableStatus == types.TableStatusActive {
			return nil
		}

		time.Sleep(waitInterval)
	}

	return fmt.Errorf("table %s creation timed out", tableName)
}

func (d *DynamoDB) createTable(tableName string) error {
	// どちらのテーブルも bot_id + created_at のキー構成
	createTableInput := &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("bot_id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("created_at"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("bot_id"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("created_at"), KeyType: types.KeyTypeRange},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(5),
			WriteCapacityUnits: aws.Int64(5),
		},
	}

	_, err := d.db.CreateTable(context.TODO(), createTableInput)
	if err != nil {
		return fmt.Errorf("failed to create table %s: %v", tableName, err)
	}

	return nil
}

func (d *DynamoDB) SaveTicketLog(log *model.TicketLog) error {
	createdAt := log.CreatedAt
	if createdAt.IsZero() {
		createdAt = timeNow()
	}
	input := &dynamodb.PutItemInput{
		TableName: aws.String(ticketLogTableName),
		Item: map[string]types.AttributeValue{
			"bot_id":         &types.AttributeValueMemberS{Value: log.BotID},
			"created_at":     &types.AttributeValueMemberS{Value: createdAt.Format(time.RFC3339Nano)},
			"channel_id":     &types.AttributeValueMemberS{Value: log.ChannelID},
			"channel_name":   &types.AttributeValueMemberS{Value: log.ChannelName},
			"opener_id":      &types.AttributeValueMemberS{Value: log.OpenerID},
			"claimed_by":     &types.AttributeValueMemberS{Value: log.ClaimedBy},
			"closed_by":      &types.AttributeValueMemberS{Value: log.ClosedBy},
			"category_label": &types.AttributeValueMemberS{Value: log.CategoryLabel},
			"summary":        &types.AttributeValueMemberS{Value: log.Summary},
			"opened_at":      &types.AttributeValueMemberS{Value: log.OpenedAt.Format(time.RFC3339)},
			"closed_at":      &types.AttributeValueMemberS{Value: log.ClosedAt.Format(time.RFC3339)},
		},
	}

	_, err := d.db.PutItem(context.TODO(), input)
	return err
}

func (d *DynamoDB) GetRecentTicketLogs(botID string) ([]model.TicketLog, error) {
	var logs []model.TicketLog

	input := &dynamodb.QueryInput{
		TableName:              aws.String(ticketLogTableName),
		KeyConditionExpression: aws.String("bot_id = :bot_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bot_id": &types.AttributeValueMemberS{Value: botID},
		},
		ScanIndexForward: aws.Bool(false), // 降順（最新の created_at から取得）
		Limit:            aws.Int32(recentTicketLogsLimit),
	}

	result, err := d.db.Query(context.TODO(), input)
	if err != nil {
		return nil, err
	}

	for _, item := range result.Items {
		openedAt, err := parseTimeValue(item, "opened_at", time.RFC3339)
		if err != nil {
			return nil, err
		}
		closedAt, err := parseTimeValue(item, "closed_at", time.RFC3339)
		if err != nil {
			return nil, err
		}
		log := model.TicketLog{
			BotID:         getStringValue(item, "bot_id"),
			ChannelID:     getStringValue(item, "channel_id"),
			ChannelName:   getStringValue(item, "channel_name"),
			OpenerID:      getStringValue(item, "opener_id"),
			ClaimedBy:     getStringValue(item, "claimed_by"),
			ClosedBy:      getStringValue(item, "closed_by"),
			CategoryLabel: getStringValue(item, "category_label"),
			Summary:       getStringValue(item, "summary"),
			OpenedAt:      openedAt,
			ClosedAt:      closedAt,
		}
		logs = append(logs, log)
	}

	// Dynamoでうまいことソートできないのでここでソート
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].ClosedAt.After(logs[j].ClosedAt)
	})
	return logs, nil
}

func (d *DynamoDB) SaveModerationAction(action *model.ModerationAction) error {
	createdAt := action.CreatedAt
	if createdAt.IsZero() {
		createdAt = timeNow()
	}
	input := &dynamodb.PutItemInput{
		TableName: aws.String(moderationTableName),
		Item: map[string]types.AttributeValue{
			"bot_id":       &types.AttributeValueMemberS{Value: action.BotID},
			"created_at":   &types.AttributeValueMemberS{Value: createdAt.Format(time.RFC3339Nano)},
			"action":       &types.AttributeValueMemberS{Value: action.Action},
			"target_id":    &types.AttributeValueMemberS{Value: action.TargetID},
			"moderator_id": &types.AttributeValueMemberS{Value: action.ModeratorID},
			"reason":       &types.AttributeValueMemberS{Value: action.Reason},
			"duration":     &types.AttributeValueMemberS{Value: action.Duration},
		},
	}

	_, err := d.db.PutItem(context.TODO(), input)
	return err
}

func getStringValue(item map[string]types.AttributeValue, key string) string {
	if v, ok := item[key].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func parseTimeValue(item map[string]types.AttributeValue, key, layout string) (time.Time, error) {
	s := getStringValue(item, key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s (%s): %v", key, s, err)
	}
	return t, nil
}
