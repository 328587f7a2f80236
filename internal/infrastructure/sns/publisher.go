package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/community-hub/internal/config"
	"github.com/community-hub/internal/domain"
)

type publishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// TopicPublisher forwards every new notification to an SNS topic so that
// downstream subscribers (SMS, push, mobile) can fan it out further.
type TopicPublisher struct {
	client   publishAPI
	topicARN string
}

func NewClient(awsCfg aws.Config, cfg *config.Config) *sns.Client {
	var clientOpts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return sns.NewFromConfig(awsCfg, clientOpts...)
}

func NewTopicPublisher(client publishAPI, topicARN string) *TopicPublisher {
	return &TopicPublisher{client: client, topicARN: topicARN}
}

// Dispatch publishes n as JSON. Type and priority travel as message attributes
// so subscriptions can filter on them.
func (p *TopicPublisher) Dispatch(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject(n)),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type":     {DataType: aws.String("String"), StringValue: aws.String(string(n.Type))},
			"priority": {DataType: aws.String("String"), StringValue: aws.String(string(n.Priority))},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// subject trims the title to the 100 characters SNS accepts.
func subject(n domain.Notification) string {
	r := []rune(n.Title)
	if len(r) > 100 {
		r = r[:100]
	}
	return string(r)
}
