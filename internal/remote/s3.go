package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds the parameters for an S3-compatible Index (AWS S3 or MinIO).
// Credentials fall back to the default AWS chain when AccessKeyID is empty.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional; set for MinIO and other S3-compatible servers
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// S3Index stores each document as one object in a single bucket.
type S3Index struct {
	client *s3.Client
	bucket string
}

// NewS3Index builds an S3Index from cfg. It does not contact the bucket.
func NewS3Index(ctx context.Context, cfg S3Config) (*S3Index, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("remote.NewS3Index: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("remote.NewS3Index: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// MinIO-style servers reject trailing checksums.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}
	})
	return &S3Index{client: client, bucket: cfg.Bucket}, nil
}

var _ Index = (*S3Index)(nil)

// Put overwrites the object at key.
func (s *S3Index) Put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("remote.S3Index.Put %s: %w", key, err)
	}
	return nil
}

// Get reads the object at key. A missing object yields ErrNoDocument.
func (s *S3Index) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("remote.S3Index.Get %s: %w", key, ErrNoDocument)
		}
		return nil, fmt.Errorf("remote.S3Index.Get %s: %w", key, err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("remote.S3Index.Get %s: read: %w", key, err)
	}
	return body, nil
}

// maxListPage is the largest page ListObjectsV2 returns.
const maxListPage = 1000

// List pages through ListObjectsV2 until the listing is complete or limit
// keys have been collected. Each page asks for no more keys than remain.
func (s *S3Index) List(ctx context.Context, prefix string, limit int) ([]string, error) {
	var (
		keys  []string
		token *string
	)
	for {
		page := maxListPage
		if limit > 0 {
			page = min(page, limit-len(keys))
		}
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
			MaxKeys:           aws.Int32(int32(page)),
		})
		if err != nil {
			return nil, fmt.Errorf("remote.S3Index.List %s: %w", prefix, err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if limit > 0 && len(keys) >= limit {
			return keys[:limit], nil
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	return keys, nil
}
