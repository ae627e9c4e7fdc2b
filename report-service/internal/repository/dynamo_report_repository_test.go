package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinittippanawar/click-clean-waste-reporting/internal/logging"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/model"
)

type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI
	items   map[string]map[string]*dynamodb.AttributeValue
	lastPut *dynamodb.PutItemInput
	putErr  error
}

func (f *fakeDynamo) PutItemWithContext(ctx aws.Context, in *dynamodb.PutItemInput, opts ...request.Option) (*dynamodb.PutItemOutput, error) {
	f.lastPut = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.items[*in.Item["reportId"].S] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItemWithContext(ctx aws.Context, in *dynamodb.GetItemInput, opts ...request.Option) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[*in.Key["reportId"].S]}, nil
}

type fakePublisher struct {
	keys []string
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	p.keys = append(p.keys, routingKey)
	return p.err
}

func sampleReport() *model.Report {
	lat := 18.52
	return &model.Report{
		ReportID:     "4a1c",
		Timestamp:    1700000000,
		Status:       model.StatusPending,
		City:         "Pune",
		Area:         "Kothrud",
		Description:  "Overflowing bin",
		WasteType:    "household",
		Urgency:      "high",
		PhotoKey:     "reports/x/bin.jpg",
		Lat:          &lat,
		ContactEmail: "me@example.com",
		Source:       model.SourceWeb,
	}
}

func TestDynamoReportRepository_CreateAndFind(t *testing.T) {
	db := &fakeDynamo{items: map[string]map[string]*dynamodb.AttributeValue{}}
	pub := &fakePublisher{}
	repo := NewDynamoReportRepository(db, "reports", pub, logging.Discard())

	report := sampleReport()
	require.NoError(t, repo.Create(context.Background(), report, model.Event{RoutingKey: "report.created", Payload: map[string]string{}}))
	assert.Equal(t, []string{"report.created"}, pub.keys)

	item := db.items["4a1c"]
	assert.Equal(t, "Pending", *item["status"].S)
	assert.NotContains(t, item, "lng")
	assert.NotContains(t, item, "contactPhone")

	assert.Contains(t, aws.StringValue(db.lastPut.ConditionExpression), "attribute_not_exists")
	var names []string
	for _, n := range db.lastPut.ExpressionAttributeNames {
		names = append(names, aws.StringValue(n))
	}
	assert.Equal(t, []string{"reportId"}, names)

	got, err := repo.FindByID(context.Background(), "4a1c")
	require.NoError(t, err)
	assert.Equal(t, report, got)

	_, err = repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestDynamoReportRepository_PublishFailureKeepsReport(t *testing.T) {
	db := &fakeDynamo{items: map[string]map[string]*dynamodb.AttributeValue{}}
	repo := NewDynamoReportRepository(db, "reports", &fakePublisher{err: errors.New("broker down")}, logging.Discard())

	require.NoError(t, repo.Create(context.Background(), sampleReport(), model.Event{RoutingKey: "report.created"}))
	assert.Contains(t, db.items, "4a1c")
}

func TestDynamoReportRepository_PutError(t *testing.T) {
	db := &fakeDynamo{putErr: errors.New("throttled")}
	pub := &fakePublisher{}
	repo := NewDynamoReportRepository(db, "reports", pub, logging.Discard())

	err := repo.Create(context.Background(), sampleReport(), model.Event{RoutingKey: "report.created"})
	assert.ErrorContains(t, err, "throttled")
	assert.Empty(t, pub.keys)
}
