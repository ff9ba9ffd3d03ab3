package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Storage stores payloads in an S3 compatible bucket
type S3Storage struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
	cdnURL   string
}

// S3Config holds configuration for the S3 client
type S3Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS, host name for compatible providers
	CDNURL    string
}

// NewS3Storage creates a new S3 backed storage
func NewS3Storage(config S3Config) (*S3Storage, error) {
	if config.Bucket == "" || config.Region == "" {
		return nil, fmt.Errorf("S3_BUCKET and S3_REGION must be configured")
	}
	if config.AccessKey == "" || config.SecretKey == "" {
		return nil, fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must be configured")
	}

	awsConfig := &aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Region: aws.String(config.Region),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("s3.%s.amazonaws.com", config.Region)
	}

	return &S3Storage{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		endpoint: strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://"),
		cdnURL:   strings.TrimSuffix(config.CDNURL, "/"),
	}, nil
}

// Save uploads a payload to the bucket
func (s *S3Storage) Save(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(data),
		ACL:         aws.String("public-read"),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return s.URL(key), nil
}

// Delete removes a payload from the bucket
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// URL returns the CDN URL if available, otherwise the bucket URL
func (s *S3Storage) URL(key string) string {
	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", s.cdnURL, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", s.bucket, s.endpoint, key)
}
