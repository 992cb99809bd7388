// Package s3 opens a raw extract that has already been landed in an S3
// bucket.
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// API is the subset of the S3 client used here.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Object is one S3 object used as a data source.
type Object struct {
	client API
	bucket string
	key    string
}

// New returns an Object read through client.
func New(client API, bucket, key string) *Object {
	return &Object{client: client, bucket: bucket, key: key}
}

// ParseURI splits "s3://bucket/key/with/slashes".
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("s3 uri %q: missing s3:// scheme", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri %q: bucket and key are required", uri)
	}
	return bucket, key, nil
}

// NewFromURI builds an Object using the default AWS credential chain. An
// empty region falls back to the SDK's own resolution (AWS_REGION, profile).
func NewFromURI(ctx context.Context, uri, region string) (*Object, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return New(s3.NewFromConfig(awsCfg), bucket, key), nil
}

// Name returns the object's s3:// URI.
func (o *Object) Name() string { return "s3://" + o.bucket + "/" + o.key }

// Open starts the download and returns the object body.
func (o *Object) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", o.Name(), err)
	}
	return out.Body, nil
}
