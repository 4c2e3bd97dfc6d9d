package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/s3/createbucketoptions"
	"github.com/adampresley/adamgokit/s3/getoptions"
	"github.com/adampresley/adamgokit/s3/listoptions"
	"github.com/adampresley/adamgokit/s3/putoptions"
	"github.com/adampresley/adamgokit/slices"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

/*
BlobServicer stores opaque byte blobs by key. Keys are slash separated
paths such as "strips/<id>/strip.jpg".
*/
type BlobServicer interface {
	Delete(keys ...string) error
	EnsureBucket() error
	Exists(key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, string, error)
	ListKeys(prefix string, olderThan time.Time) ([]string, error)
	Put(key, contentType string, data []byte) error
	URL(key string) (string, error)
}

type BlobServiceConfig struct {
	Bucket   string
	Region   string
	S3Client s3.S3Client
}

type BlobService struct {
	bucket   string
	region   string
	s3Client s3.S3Client
}

var blobExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".zip"}

func NewBlobService(config BlobServiceConfig) BlobService {
	return BlobService{
		bucket:   config.Bucket,
		region:   config.Region,
		s3Client: config.S3Client,
	}
}

func (s BlobService) EnsureBucket() error {
	var (
		err    error
		exists bool
	)

	if exists, err = s.s3Client.BucketExists(s.bucket); err != nil {
		return fmt.Errorf("error ensuring bucket '%s' exists: %w", s.bucket, err)
	}

	if exists {
		return nil
	}

	slog.Info("creating bucket", "bucketName", s.bucket)

	err = s.s3Client.CreateBucket(
		s.bucket,
		createbucketoptions.WithRegion(s.region),
	)

	if err != nil {
		return fmt.Errorf("error creating bucket '%s': %w", s.bucket, err)
	}

	return nil
}

/*
Put streams data into the bucket under key.
*/
func (s BlobService) Put(key, contentType string, data []byte) error {
	stream, err := s.s3Client.PutStream(s.bucket, key, putoptions.WithContentType(contentType))

	if err != nil {
		return fmt.Errorf("error opening upload stream for '%s': %w", key, err)
	}

	_, copyErr := io.Copy(stream.Writer, bytes.NewReader(data))

	if err = stream.Writer.Close(); err != nil && copyErr == nil {
		copyErr = err
	}

	if _, err = stream.Wait(); err != nil {
		return fmt.Errorf("error uploading '%s': %w", key, err)
	}

	if copyErr != nil {
		return fmt.Errorf("error writing '%s': %w", key, copyErr)
	}

	return nil
}

func (s BlobService) Get(ctx context.Context, key string) ([]byte, string, error) {
	var (
		err    error
		object s3.GetObjectResponse
		body   []byte
	)

	object, err = s.s3Client.Get(
		s.bucket,
		key,
		getoptions.WithContext(ctx),
		getoptions.WithTimeout(time.Minute*5),
	)

	if err != nil {
		return nil, "", fmt.Errorf("error retrieving '%s': %w", key, err)
	}

	defer object.Body.Close()

	if body, err = io.ReadAll(object.Body); err != nil {
		return nil, "", fmt.Errorf("error reading '%s': %w", key, err)
	}

	return body, object.ContentType, nil
}

func (s BlobService) Exists(key string) (bool, error) {
	stat, err := s.s3Client.StatObject(s.bucket, key)

	if err != nil {
		return false, fmt.Errorf("error retrieving metadata for '%s': %w", key, err)
	}

	return stat != nil, nil
}

func (s BlobService) URL(key string) (string, error) {
	u, err := s.s3Client.GetUrl(s.bucket, key)

	if err != nil {
		return "", fmt.Errorf("error getting url for '%s': %w", key, err)
	}

	return u, nil
}

func (s BlobService) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if _, err := s.s3Client.Delete(s.bucket, keys); err != nil {
		return fmt.Errorf("error deleting %d object(s): %w", len(keys), err)
	}

	return nil
}

/*
ListKeys returns the keys of image and archive objects under prefix last
modified before olderThan. A zero olderThan returns every such key.
*/
func (s BlobService) ListKeys(prefix string, olderThan time.Time) ([]string, error) {
	response, err := s.s3Client.List(
		s.bucket,
		prefix,
		listoptions.WithGetAll(),
		listoptions.WithFilter(func(obj types.Object) bool {
			ext := strings.ToLower(filepath.Ext(aws.ToString(obj.Key)))

			if !slices.IsInSlice(ext, blobExtensions) {
				return false
			}

			return olderThan.IsZero() || aws.ToTime(obj.LastModified).Before(olderThan)
		}),
	)

	if err != nil {
		return nil, fmt.Errorf("error listing '%s': %w", prefix, err)
	}

	result := make([]string, 0, len(response.Objects))

	for _, obj := range response.Objects {
		result = append(result, obj.Key)
	}

	return result, nil
}
