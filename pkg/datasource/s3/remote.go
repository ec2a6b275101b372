// Package s3 provides a Remote data source backed by an S3 bucket, storing
// each entity as a JSON object under a configurable key prefix.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	stderr "errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/syncstore/syncstore/pkg/errors"
	"github.com/syncstore/syncstore/pkg/types"
)

// Config represents S3 remote source configuration.
type Config struct {
	Bucket         string        `yaml:"bucket"`
	Prefix         string        `yaml:"prefix"`
	Region         string        `yaml:"region"`
	Endpoint       string        `yaml:"endpoint"`
	ForcePathStyle bool          `yaml:"force_path_style"`
	MaxRetries     int           `yaml:"max_retries"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Client is the subset of the S3 API the remote source uses. *s3.Client
// satisfies it; tests substitute a stub.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Remote is a Remote data source persisting entities as JSON objects in S3.
type Remote[T types.Entity] struct {
	client Client
	bucket string
	prefix string
}

// NewRemote creates an S3 remote source from the default AWS configuration.
func NewRemote[T types.Entity](ctx context.Context, cfg *Config) (*Remote[T], error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "bucket name cannot be empty")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(cfg.MaxRetries),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return NewRemoteWithClient[T](client, cfg.Bucket, cfg.Prefix), nil
}

// NewRemoteWithClient creates an S3 remote source over an existing client.
func NewRemoteWithClient[T types.Entity](client Client, bucket, prefix string) *Remote[T] {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Remote[T]{client: client, bucket: bucket, prefix: prefix}
}

// FetchAll lists every entity object under the prefix and decodes each one.
func (r *Remote[T]) FetchAll(ctx context.Context) ([]T, error) {
	keys, err := r.listKeys(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(keys))
	for _, key := range keys {
		item, err := r.getObject(ctx, key)
		if err != nil {
			// An object deleted between list and get is not a failure.
			if errors.HasCode(err, errors.ErrCodeNotFound) {
				continue
			}
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// FetchByID returns the entity with the given id, or nil when absent.
func (r *Remote[T]) FetchByID(ctx context.Context, id string) (*T, error) {
	item, err := r.getObject(ctx, r.key(id))
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

// Create stores a new entity object.
func (r *Remote[T]) Create(ctx context.Context, item T) (T, error) {
	return r.put(ctx, item, "Create")
}

// Update replaces an existing entity object.
func (r *Remote[T]) Update(ctx context.Context, item T) (T, error) {
	return r.put(ctx, item, "Update")
}

// Delete removes the entity object with the given id.
func (r *Remote[T]) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(id)),
	})
	if err != nil {
		return r.translateError(err, "Delete", id)
	}
	return nil
}

// FetchPaged returns one page of entities plus the total count. S3 offers no
// server-side offset pagination over decoded payloads, so the page is sliced
// from the sorted key listing.
func (r *Remote[T]) FetchPaged(ctx context.Context, page, size int) ([]T, int, error) {
	if page < 0 || size <= 0 {
		return nil, 0, errors.Newf(errors.ErrCodeValidationFailed, "invalid page %d size %d", page, size)
	}

	keys, err := r.listKeys(ctx)
	if err != nil {
		return nil, 0, err
	}
	total := len(keys)

	start := page * size
	if start >= total {
		return []T{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}

	items := make([]T, 0, end-start)
	for _, key := range keys[start:end] {
		item, err := r.getObject(ctx, key)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *item)
	}
	return items, total, nil
}

// key builds the object key for an entity id.
func (r *Remote[T]) key(id string) string {
	return r.prefix + id + ".json"
}

// listKeys returns all entity object keys under the prefix, sorted.
func (r *Remote[T]) listKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var continuation *string

	for {
		out, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(r.bucket),
			Prefix:            aws.String(r.prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, r.translateError(err, "FetchAll", "")
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, ".json") {
				keys = append(keys, key)
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		continuation = out.NextContinuationToken
	}

	sort.Strings(keys)
	return keys, nil
}

// getObject fetches and decodes one entity object.
func (r *Remote[T]) getObject(ctx context.Context, key string) (*T, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, r.translateError(err, "FetchByID", key)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.New(errors.ErrCodeRemoteFailed, "failed to read object body").WithCause(err)
	}

	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, errors.Newf(errors.ErrCodeValidationFailed, "malformed entity at %s", key).WithCause(err)
	}
	return &item, nil
}

// put encodes and stores one entity object.
func (r *Remote[T]) put(ctx context.Context, item T, operation string) (T, error) {
	var zero T

	id := item.EntityID()
	if id == "" {
		return zero, errors.New(errors.ErrCodeMissingID, "entity has empty id")
	}

	data, err := json.Marshal(item)
	if err != nil {
		return zero, errors.New(errors.ErrCodeValidationFailed, "entity not serializable").WithCause(err)
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key(id)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return zero, r.translateError(err, operation, id)
	}
	return item, nil
}

// translateError maps S3 failures onto the syncstore error taxonomy.
func (r *Remote[T]) translateError(err error, operation, id string) error {
	var syncErr *errors.SyncError
	switch {
	case isErrorType[*s3types.NoSuchKey](err):
		syncErr = errors.Newf(errors.ErrCodeNotFound, "no object for id %q", id)
	case isErrorType[*s3types.NoSuchBucket](err):
		syncErr = errors.Newf(errors.ErrCodeRemoteFailed, "bucket not found: %s", r.bucket)
	case stderr.Is(err, context.DeadlineExceeded):
		syncErr = errors.New(errors.ErrCodeRemoteTimeout, "request timed out")
	case stderr.Is(err, context.Canceled):
		syncErr = errors.New(errors.ErrCodeOperationCanceled, "request canceled")
	default:
		syncErr = errors.New(errors.ErrCodeRemoteUnreachable, err.Error())
	}
	return syncErr.WithComponent("s3-remote").WithOperation(operation).WithEntityID(id).WithCause(err)
}

// isErrorType checks if an error is of a specific type.
func isErrorType[T error](err error) bool {
	var target T
	return stderr.As(err, &target)
}
