package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/aws/aws-sdk-go/service/dynamodb/expression"

	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/model"
)

// Publisher sends an event straight to the broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// DynamoReportRepository stores each report as one item keyed by reportId.
// DynamoDB has no outbox here, so events are published right after the put;
// a failed publish is logged and the report is kept.
type DynamoReportRepository struct {
	db        dynamodbiface.DynamoDBAPI
	table     string
	publisher Publisher
	logger    *slog.Logger
}

func NewDynamoReportRepository(db dynamodbiface.DynamoDBAPI, table string, publisher Publisher, logger *slog.Logger) *DynamoReportRepository {
	return &DynamoReportRepository{db: db, table: table, publisher: publisher, logger: logger}
}

func (r *DynamoReportRepository) Create(ctx context.Context, report *model.Report, events ...model.Event) error {
	av, err := dynamodbattribute.MarshalMap(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	expr, err := newReportCondition()
	if err != nil {
		return err
	}

	_, err = r.db.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		Item:                     av,
		TableName:                aws.String(r.table),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return fmt.Errorf("put report: %w", err)
	}

	if r.publisher == nil {
		return nil
	}
	for _, ev := range events {
		if err := r.publisher.Publish(ctx, ev.RoutingKey, ev.Payload); err != nil {
			r.logger.Error("publish event", "routing_key", ev.RoutingKey, "report_id", report.ReportID, "error", err)
		}
	}
	return nil
}

// newReportCondition guards against overwriting an existing report id.
func newReportCondition() (expression.Expression, error) {
	expr, err := expression.NewBuilder().WithCondition(
		expression.AttributeNotExists(expression.Name("reportId")),
	).Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("build condition: %w", err)
	}
	return expr, nil
}

func (r *DynamoReportRepository) FindByID(ctx context.Context, id string) (*model.Report, error) {
	out, err := r.db.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]*dynamodb.AttributeValue{
			"reportId": {S: aws.String(id)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrReportNotFound
	}

	report := &model.Report{}
	if err := dynamodbattribute.UnmarshalMap(out.Item, report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return report, nil
}
