// Package objectstore downloads uploaded resumes from S3-compatible storage
// such as Cloudflare R2.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config locates the bucket. AccountID selects the R2 endpoint; Endpoint
// overrides it for other S3-compatible services.
type Config struct {
	Bucket    string
	AccountID string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	MaxBytes  int64
}

// getObjectAPI is the part of *s3.Client the downloader uses.
type getObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Client downloads objects from one bucket.
type Client struct {
	api      getObjectAPI
	bucket   string
	maxBytes int64
}

// New builds an S3 client from static credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return newClient(api, cfg.Bucket, cfg.MaxBytes), nil
}

func newClient(api getObjectAPI, bucket string, maxBytes int64) *Client {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Client{api: api, bucket: bucket, maxBytes: maxBytes}
}

// Download returns the object stored under key.
func (c *Client) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting object %s: %w", key, err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(out.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", key, err)
	}
	if n > c.maxBytes {
		return nil, fmt.Errorf("object %s exceeds %d bytes", key, c.maxBytes)
	}
	return buf.Bytes(), nil
}
