package audit

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Archiver stores purged system log rows before they are deleted
type Archiver interface {
	Archive(ctx context.Context, cutoff time.Time, body []byte) error
}

// S3PutObjectAPI is the subset of the S3 client used for archiving
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver uploads NDJSON batches to an S3 bucket
type S3Archiver struct {
	client S3PutObjectAPI
	bucket string
	prefix string
}

// NewS3Archiver wraps an existing client
func NewS3Archiver(client S3PutObjectAPI, bucket, prefix string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix}
}

// NewS3ArchiverFromEnv builds a client from the default AWS credential chain
func NewS3ArchiverFromEnv(ctx context.Context, region, bucket, prefix string) (*S3Archiver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3Archiver(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// ObjectKey names the archive object for a purge run
func (a *S3Archiver) ObjectKey(cutoff time.Time) string {
	name := fmt.Sprintf("before-%s-%s.ndjson", cutoff.UTC().Format("20060102T150405Z"), uuid.NewString())
	return path.Join(a.prefix, cutoff.UTC().Format("2006/01"), name)
}

func (a *S3Archiver) Archive(ctx context.Context, cutoff time.Time, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.ObjectKey(cutoff)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(ExportFormatNDJSON.ContentType()),
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive to s3://%s: %w", a.bucket, err)
	}
	return nil
}
