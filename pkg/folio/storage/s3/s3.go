package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/tendant/folio-content/pkg/folio"
)

const backendName = "s3"

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	Prefix          string // Optional key prefix, e.g. "uploads/"
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)

	// Server-side encryption: "" (off), "AES256" or "aws:kms"
	SSEAlgorithm string
	SSEKMSKeyID  string

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool // Create bucket if it doesn't exist
}

// Backend is an S3-compatible implementation of the folio.BlobStore interface
type Backend struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	config   Config
}

// New creates a new S3-compatible storage backend
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(config.Region)}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		// Use provided credentials
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)

	// Custom endpoint for S3-compatible services (MinIO, etc.)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	backend := &Backend{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   config.Bucket,
		config:   config,
	}

	if config.CreateBucketIfNotExist {
		if err := backend.createBucketIfNotExists(ctx); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return backend, nil
}

// createBucketIfNotExists creates the bucket if it doesn't exist
func (b *Backend) createBucketIfNotExists(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err == nil {
		return nil
	}

	// MinIO reports a missing bucket in several ways
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) &&
		!strings.Contains(err.Error(), "BadRequest") &&
		!strings.Contains(err.Error(), "NoSuchBucket") {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(b.bucket),
	}
	if b.config.Region != "us-east-1" {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.config.Region),
		}
	}

	_, err = b.client.CreateBucket(ctx, createInput)
	if err != nil {
		var exists *types.BucketAlreadyExists
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &exists) || errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// GetObjectMeta retrieves metadata for an object in S3
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*folio.ObjectMeta, error) {
	result, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(objectKey)),
	})
	if err != nil {
		return nil, b.wrap("meta", objectKey, err)
	}

	meta := &folio.ObjectMeta{
		Key:         objectKey,
		Size:        aws.ToInt64(result.ContentLength),
		ContentType: "application/octet-stream",
		UpdatedAt:   aws.ToTime(result.LastModified),
		ETag:        strings.Trim(aws.ToString(result.ETag), "\""),
	}
	if result.ContentType != nil {
		meta.ContentType = *result.ContentType
	}
	return meta, nil
}

// Upload uploads content directly to S3
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	return b.UploadWithParams(ctx, reader, folio.UploadParams{ObjectKey: objectKey})
}

// UploadWithParams streams content through the multipart upload manager
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params folio.UploadParams) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(params.ObjectKey)),
		Body:   reader,
	}
	if params.MimeType != "" {
		input.ContentType = aws.String(params.MimeType)
	}
	b.applySSE(input)

	if _, err := b.uploader.Upload(ctx, input); err != nil {
		return b.wrap("upload", params.ObjectKey, err)
	}
	return nil
}

// Download downloads content directly from S3
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(objectKey)),
	})
	if err != nil {
		return nil, b.wrap("download", objectKey, err)
	}
	return result.Body, nil
}

func (b *Backend) key(objectKey string) string {
	return b.config.Prefix + objectKey
}

func (b *Backend) applySSE(input *s3.PutObjectInput) {
	switch b.config.SSEAlgorithm {
	case "AES256":
		input.ServerSideEncryption = types.ServerSideEncryptionAes256
	case "aws:kms":
		input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
		if b.config.SSEKMSKeyID != "" {
			input.SSEKMSKeyId = aws.String(b.config.SSEKMSKeyID)
		}
	}
}

func (b *Backend) wrap(op, objectKey string, err error) error {
	if isNotFound(err) {
		err = folio.ErrObjectNotFound
	}
	return &folio.StorageError{Backend: backendName, Key: objectKey, Op: op, Err: err}
}

// isNotFound matches both GetObject (NoSuchKey) and HeadObject (NotFound).
// Some S3-compatible servers only report the code on a generic API error.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

var _ folio.BlobStore = (*Backend)(nil)
