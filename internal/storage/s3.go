// Package storage builds the S3-compatible object store client used for
// research data uploads.
//
// S3_ENDPOINT_URL points the client at MinIO or another S3-compatible
// server; in that case path-style addressing is used because such servers
// rarely resolve bucket subdomains.  Static credentials are used when both
// S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are set, otherwise the default
// AWS credential chain applies.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/yanizio/research-gateway/internal/config"
)

// ErrDisabled is returned by New when USE_S3 is false.
var ErrDisabled = errors.New("storage: USE_S3 is false")

// Client wraps the S3 client and the configured bucket.
type Client struct {
	s3     *s3.Client
	bucket string
}

// New returns a client for cfg.  It performs no network I/O.
func New(ctx context.Context, cfg config.Storage) (*Client, error) {
	if !cfg.UseS3 {
		return nil, ErrDisabled
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	key, hasKey := cfg.AccessKeyID.Get()
	secret, hasSecret := cfg.SecretAccessKey.Get()
	if hasKey && hasSecret && key != "" && secret != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}

	endpoint := cfg.EndpointURL.String()
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{s3: client, bucket: cfg.BucketName}, nil
}

// Bucket is S3_BUCKET_NAME.
func (c *Client) Bucket() string { return c.bucket }

// Ping checks that the bucket exists and is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return fmt.Errorf("storage: head bucket %s: %w", c.bucket, err)
	}
	return nil
}
