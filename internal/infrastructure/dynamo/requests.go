package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/community-hub/internal/domain"
)

// RequestRepo stores service requests, history and comments included, as one
// item per request. Writes are conditional on the item's version attribute.
type RequestRepo struct {
	client    API
	tableName string
}

func NewRequestRepo(client API, tableName string) *RequestRepo {
	return &RequestRepo{client: client, tableName: tableName}
}

func (r *RequestRepo) Get(ctx context.Context, requestID string) (*domain.ServiceRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldRequestID, requestID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get service request %s: %w", requestID, err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("service request %s not found: %w", requestID, domain.ErrNotFound)
	}
	return unmarshalRequest(out.Item)
}

func (r *RequestRepo) Scan(ctx context.Context) ([]domain.ServiceRequest, error) {
	var out []domain.ServiceRequest
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:      aws.String(r.tableName),
		ConsistentRead: aws.Bool(true),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan service requests: %w", err)
		}
		for _, item := range page.Items {
			sr, err := unmarshalRequest(item)
			if err != nil {
				return nil, err
			}
			out = append(out, *sr)
		}
	}
	return out, nil
}

// Put stores a new request and fails with ErrConflict if the id is taken.
func (r *RequestRepo) Put(ctx context.Context, sr *domain.ServiceRequest) error {
	item, err := attributevalue.MarshalMap(sr)
	if err != nil {
		return fmt.Errorf("marshal service request: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldRequestID},
	})
	if _, ok := conditionFailed(err); ok {
		return fmt.Errorf("service request %s already exists: %w", sr.RequestID, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("put service request %s: %w", sr.RequestID, err)
	}
	return nil
}

// Replace overwrites the whole item if the stored version equals expectedVersion.
func (r *RequestRepo) Replace(ctx context.Context, sr *domain.ServiceRequest, expectedVersion int) error {
	item, err := attributevalue.MarshalMap(sr)
	if err != nil {
		return fmt.Errorf("marshal service request: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(#id) AND #ver = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#id":  fieldRequestID,
			"#ver": fieldVersion,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.Itoa(expectedVersion)},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if old, ok := conditionFailed(err); ok {
		if old == nil {
			return fmt.Errorf("service request %s not found: %w", sr.RequestID, domain.ErrNotFound)
		}
		return fmt.Errorf("service request %s was modified concurrently: %w", sr.RequestID, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("replace service request %s: %w", sr.RequestID, err)
	}
	return nil
}

func unmarshalRequest(item map[string]types.AttributeValue) (*domain.ServiceRequest, error) {
	var sr domain.ServiceRequest
	if err := attributevalue.UnmarshalMap(item, &sr); err != nil {
		return nil, fmt.Errorf("unmarshal service request: %w", err)
	}
	if sr.Comments == nil {
		sr.Comments = []domain.Comment{}
	}
	return &sr, nil
}
