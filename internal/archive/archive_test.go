package archive

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	input *awsS3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *awsS3.PutObjectInput, optFns ...func(*awsS3.Options)) (*awsS3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &awsS3.PutObjectOutput{}, nil
}

func TestStoreUploadsUnderCollectionKey(t *testing.T) {
	putter := &fakePutter{}
	a := NewArchiver(putter, "bucket", "imports")

	key, err := a.Store(context.Background(), "pedidos", "u1", "2024-05-01", []byte("xlsx-bytes"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasPrefix(key, "imports/pedidos/u1/2024-05-01/") || !strings.HasSuffix(key, ".xlsx") {
		t.Errorf("key = %q", key)
	}
	if aws.ToString(putter.input.Bucket) != "bucket" || aws.ToString(putter.input.Key) != key {
		t.Errorf("input = %+v", putter.input)
	}
	if aws.ToString(putter.input.ContentType) != xlsxContentType {
		t.Errorf("content type = %q", aws.ToString(putter.input.ContentType))
	}
	if string(putter.body) != "xlsx-bytes" {
		t.Errorf("body = %q", putter.body)
	}
}

func TestStoreReturnsUploadError(t *testing.T) {
	a := NewArchiver(&fakePutter{err: errors.New("unreachable")}, "bucket", "imports")
	if _, err := a.Store(context.Background(), "sla_tabela", "u1", "2024-05-01", nil); err == nil {
		t.Error("expected error")
	}
}

func TestNilArchiverIsNoop(t *testing.T) {
	var a *Archiver
	key, err := a.Store(context.Background(), "pedidos", "u1", "2024-05-01", []byte("x"))
	if key != "" || err != nil {
		t.Errorf("key=%q err=%v", key, err)
	}
}
