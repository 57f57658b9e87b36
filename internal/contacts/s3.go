package contacts

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/warroomhq/warroom/internal/pkg/logger"
)

// S3Source loads contact CSV files dropped into a bucket, for teams that
// stage their lists in object storage instead of uploading through the UI.
type S3Source struct {
	client *s3.Client
	bucket string
}

// NewS3Source creates an S3-backed contact source. With empty credentials
// the default AWS credential chain is used.
func NewS3Source(accessKey, secretKey, region, bucket string) (*S3Source, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 contact source: bucket required")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Source{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// Fetch downloads and parses one contact file by object key.
func (s *S3Source) Fetch(ctx context.Context, key string) (*Result, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	res, err := Parse(out.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}

	logger.Info("s3 contact file loaded",
		"bucket", s.bucket, "key", key,
		"contacts", len(res.Recipients), "skipped", res.Skipped)
	return res, nil
}
