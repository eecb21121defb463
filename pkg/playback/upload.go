package playback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// ErrUpload wraps failures while copying an export to remote storage.
var ErrUpload = errors.New("upload failed")

// Uploader copies an exported file somewhere else and returns its location.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// S3Client is the subset of the S3 API used by S3Uploader.
// The [s3.Client] type satisfies this interface.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Uploader stores exports in an S3 bucket (or any S3-compatible store)
// under an optional key prefix, keyed by file name.
type S3Uploader struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3Uploader creates an uploader. Pass "" for no prefix.
func NewS3Uploader(client S3Client, bucket, prefix string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket, prefix: prefix}
}

func (u *S3Uploader) key(name string) string {
	if u.prefix == "" {
		return name
	}
	return u.prefix + "/" + name
}

// Upload puts the file at path and returns its s3:// URI.
func (u *S3Uploader) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}
	defer f.Close()

	key := u.key(filepath.Base(path))
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("audio/wav"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUpload, key, err)
	}
	return "s3://" + u.bucket + "/" + key, nil
}

// Exists reports whether an export with this file name was uploaded.
func (u *S3Uploader) Exists(ctx context.Context, name string) (bool, error) {
	_, err := u.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(u.key(name)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

var _ Uploader = (*S3Uploader)(nil)
