// Package archive keeps a copy of every accepted upload in S3.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	logger "github.com/omniful/go_commons/log"
	commons3 "github.com/omniful/go_commons/s3"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ObjectPutter is the part of the S3 client the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *awsS3.PutObjectInput, optFns ...func(*awsS3.Options)) (*awsS3.PutObjectOutput, error)
}

type Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewArchiver(client ObjectPutter, bucket, prefix string) *Archiver {
	return &Archiver{client: client, bucket: bucket, prefix: prefix}
}

// NewS3Archiver builds an archiver on the go_commons default S3 client,
// which reads region, endpoint and credentials from the AWS_* environment.
func NewS3Archiver(bucket, prefix string) (*Archiver, error) {
	client, err := commons3.NewDefaultAWSS3Client()
	if err != nil {
		return nil, fmt.Errorf("failed to create go_commons S3 client: %w", err)
	}
	logger.Info(fmt.Sprintf("Upload archive enabled: bucket=%s prefix=%s", bucket, prefix))
	return NewArchiver(client, bucket, prefix), nil
}

// Key returns the object key of an upload:
// <prefix>/<collection>/<userId>/<importDate>/<id>.xlsx
func (a *Archiver) Key(collection, userID, importDate, id string) string {
	return path.Join(a.prefix, collection, userID, importDate, id+".xlsx")
}

// Store uploads data and returns its key. A nil archiver stores nothing.
func (a *Archiver) Store(ctx context.Context, collection, userID, importDate string, data []byte) (string, error) {
	if a == nil || a.client == nil {
		return "", nil
	}
	key := a.Key(collection, userID, importDate, uuid.NewString())

	_, err := a.client.PutObject(ctx, &awsS3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(xlsxContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	logger.Info(fmt.Sprintf("Archived upload to s3://%s/%s (%d bytes)", a.bucket, key, len(data)))
	return key, nil
}
