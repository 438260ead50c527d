package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	logger "github.com/omniful/go_commons/log"

	"github.com/Afonso-Front-End/torre-de-controle/internal/config"
)

type SQSPublisher struct {
	client   sqsiface.SQSAPI
	queueURL string
}

var _ Publisher = (*SQSPublisher)(nil)

// NewSQSPublisher resolves the queue URL, creating the queue when it does
// not exist yet.
func NewSQSPublisher(cfg config.SQSConfig) (*SQSPublisher, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	client := sqs.New(sess)

	queueURL, err := resolveQueueURL(client, cfg.QueueName)
	if err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("SQS publisher ready with queue: %s", queueURL))
	return &SQSPublisher{client: client, queueURL: queueURL}, nil
}

func resolveQueueURL(client sqsiface.SQSAPI, name string) (string, error) {
	out, err := client.GetQueueUrl(&sqs.GetQueueUrlInput{QueueName: aws.String(name)})
	if err == nil {
		return aws.StringValue(out.QueueUrl), nil
	}
	logger.Info(fmt.Sprintf("Queue %s not found, creating it: %v", name, err))
	created, err := client.CreateQueue(&sqs.CreateQueueInput{QueueName: aws.String(name)})
	if err != nil {
		return "", fmt.Errorf("failed to create queue %s: %w", name, err)
	}
	return aws.StringValue(created.QueueUrl), nil
}

func (p *SQSPublisher) PublishImportCompleted(ctx context.Context, event *ImportCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal import event: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(EventTypeImportCompleted)},
			"collection": {DataType: aws.String("String"), StringValue: aws.String(event.Collection)},
			"user_id":    {DataType: aws.String("String"), StringValue: aws.String(event.UserID)},
		},
	}
	result, err := p.client.SendMessageWithContext(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send SQS message: %w", err)
	}
	logger.Info(fmt.Sprintf("Sent %s to %s, MessageId: %s", EventTypeImportCompleted, p.queueURL, aws.StringValue(result.MessageId)))
	return nil
}

func (p *SQSPublisher) Close() error {
	return nil
}
