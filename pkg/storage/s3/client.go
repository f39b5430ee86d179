// Package s3 provides the object storage client used for backup archives.
package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// Object describes one stored object under the backup prefix.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// api is the slice of the S3 service client the storage layer uses.
type api interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

// Client stores and retrieves backup archives in a single bucket.
type Client struct {
	api    api
	bucket string
}

// NewClient builds a client for the given bucket. When region is empty the
// SDK's own resolution chain (env, profile, IMDS) decides.
func NewClient(ctx context.Context, bucket, region string) (*Client, error) {
	var optFns []func(*awscfg.LoadOptions) error
	if region != "" {
		optFns = append(optFns, awscfg.WithRegion(region))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}

	return &Client{api: awss3.NewFromConfig(cfg), bucket: bucket}, nil
}

// Bucket returns the bucket this client operates on.
func (c *Client) Bucket() string {
	return c.bucket
}

// Upload stores body under key, attaching the given object metadata.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, metadata map[string]string) error {
	_, err := c.api.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:   aws.String(c.bucket),
		Key:      aws.String(key),
		Body:     body,
		Metadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// List returns every object under prefix, following continuation tokens.
func (c *Client) List(ctx context.Context, prefix string) ([]Object, error) {
	paginator := awss3.NewListObjectsV2Paginator(c.api, &awss3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})

	var objects []Object
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", c.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, Object{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	return objects, nil
}

// Download streams the object at key into dst and returns the number of
// bytes written.
func (c *Client) Download(ctx context.Context, key string, dst io.Writer) (int64, error) {
	out, err := c.api.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("downloading s3://%s/%s: %w", c.bucket, key, err)
	}
	defer out.Body.Close()

	written, err := io.Copy(dst, out.Body)
	if err != nil {
		return written, fmt.Errorf("writing s3://%s/%s: %w", c.bucket, key, err)
	}
	return written, nil
}
