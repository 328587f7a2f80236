package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/community-hub/internal/config"
	"github.com/community-hub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.ScanOutput)
	return out, args.Error(1)
}

func (m *mockAPI) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.CreateTableOutput)
	return out, args.Error(1)
}

var created = time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC)

func sampleRequest(id string, version int) *domain.ServiceRequest {
	return &domain.ServiceRequest{
		RequestID: id,
		Title:     "Leak",
		Status:    domain.StatusPending,
		StatusHistory: []domain.StatusUpdate{
			{UpdateID: "u1", Status: domain.StatusPending, Timestamp: created},
		},
		Version:   version,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func marshal(t *testing.T, v interface{}) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	return item
}

func TestRequestRepo_Get(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return *in.TableName == "requests" && *in.ConsistentRead
	})).Return(&dynamodb.GetItemOutput{Item: marshal(t, sampleRequest("r1", 2))}, nil).Once()
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil).Once()
	repo := NewRequestRepo(api, "requests")

	got, err := repo.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Leak", got.Title)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, created, got.CreatedAt)
	assert.NotNil(t, got.Comments)

	_, err = repo.Get(context.Background(), "r2")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRequestRepo_PutDuplicateIsConflict(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return *in.ConditionExpression == "attribute_not_exists(#id)"
	})).Return(nil, &types.ConditionalCheckFailedException{})
	repo := NewRequestRepo(api, "requests")

	err := repo.Put(context.Background(), sampleRequest("r1", 1))
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRequestRepo_ReplaceChecksVersion(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		v, ok := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN)
		return ok && v.Value == "1" && in.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld
	})).Return(&dynamodb.PutItemOutput{}, nil)
	repo := NewRequestRepo(api, "requests")

	require.NoError(t, repo.Replace(context.Background(), sampleRequest("r1", 2), 1))
	api.AssertExpectations(t)
}

func TestRequestRepo_ReplaceFailures(t *testing.T) {
	stale := &mockAPI{}
	stale.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Item: marshal(t, sampleRequest("r1", 5))})
	err := NewRequestRepo(stale, "requests").Replace(context.Background(), sampleRequest("r1", 2), 1)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	missing := &mockAPI{}
	missing.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})
	err = NewRequestRepo(missing, "requests").Replace(context.Background(), sampleRequest("r1", 2), 1)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	broken := &mockAPI{}
	broken.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))
	err = NewRequestRepo(broken, "requests").Replace(context.Background(), sampleRequest("r1", 2), 1)
	assert.ErrorContains(t, err, "throttled")
}

func TestRequestRepo_ScanFollowsPages(t *testing.T) {
	api := &mockAPI{}
	next := strKey(fieldRequestID, "r1")
	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool { return in.ExclusiveStartKey == nil })).
		Return(&dynamodb.ScanOutput{
			Items:            []map[string]types.AttributeValue{marshal(t, sampleRequest("r1", 1))},
			LastEvaluatedKey: next,
		}, nil).Once()
	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool { return in.ExclusiveStartKey != nil })).
		Return(&dynamodb.ScanOutput{
			Items: []map[string]types.AttributeValue{marshal(t, sampleRequest("r2", 1))},
		}, nil).Once()

	all, err := NewRequestRepo(api, "requests").Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "r1", all[0].RequestID)
	assert.Equal(t, "r2", all[1].RequestID)
	api.AssertExpectations(t)
}

func TestNotificationRepo_MarkAsRead(t *testing.T) {
	stored := domain.Notification{NotificationID: "n1", Title: "Water", Type: domain.TypeAlert, IsRead: true, CreatedAt: created}
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return *in.UpdateExpression == "SET #f0 = :v0" &&
			in.ExpressionAttributeNames["#f0"] == fieldIsRead &&
			in.ReturnValues == types.ReturnValueAllNew
	})).Return(&dynamodb.UpdateItemOutput{Attributes: marshal(t, stored)}, nil)
	repo := NewNotificationRepo(api, "notifications")

	n, err := repo.MarkAsRead(context.Background(), "n1")
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	assert.Equal(t, "Water", n.Title)
}

func TestNotificationRepo_MarkAsReadUnknown(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

	_, err := NewNotificationRepo(api, "notifications").MarkAsRead(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestNotificationRepo_PutAndGet(t *testing.T) {
	n := &domain.Notification{NotificationID: "n1", Title: "Pool", Type: domain.TypeAnnouncement, Sender: &domain.Sender{Name: "Management"}, CreatedAt: created}
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.Anything).Return(&dynamodb.PutItemOutput{}, nil)
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: marshal(t, n)}, nil)
	repo := NewNotificationRepo(api, "notifications")

	require.NoError(t, repo.Put(context.Background(), n))
	got, err := repo.Get(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestBootstrap_CreatesBothTablesAndToleratesExisting(t *testing.T) {
	api := &mockAPI{}
	api.On("CreateTable", mock.Anything, mock.MatchedBy(func(in *dynamodb.CreateTableInput) bool {
		return *in.TableName == "requests"
	})).Return(&dynamodb.CreateTableOutput{}, nil)
	api.On("CreateTable", mock.Anything, mock.MatchedBy(func(in *dynamodb.CreateTableInput) bool {
		return *in.TableName == "notifications"
	})).Return(nil, &types.ResourceInUseException{})

	Bootstrap(context.Background(), api, config.DynamoTables{Requests: "requests", Notifications: "notifications"}, zap.NewNop())
	api.AssertNumberOfCalls(t, "CreateTable", 2)
}
