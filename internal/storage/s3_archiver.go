package storage

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Archiver mirrors accepted uploads to an S3-compatible bucket and hands
// back a public URL. The URL doubles as the image reference passed to the
// vision extractor, which keeps large payloads out of the chat-completion
// request body.
type S3Archiver struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
}

// S3Config holds configuration for the archive bucket
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Region          string
}

// NewS3Archiver creates an archiver for an S3-compatible storage endpoint.
func NewS3Archiver(config *S3Config) (*S3Archiver, error) {
	if config.Endpoint == "" || config.AccessKeyID == "" || config.AccessKeySecret == "" {
		return nil, &StorageError{Op: "configure_s3", Err: fmt.Errorf("S3 configuration is incomplete")}
	}
	if config.Bucket == "" {
		return nil, &StorageError{Op: "configure_s3", Err: fmt.Errorf("S3 bucket is not configured")}
	}

	sess := session.Must(session.NewSession(&aws.Config{
		Region:           aws.String(config.Region),
		Endpoint:         aws.String(config.Endpoint + "/storage/v1/s3"),
		Credentials:      credentials.NewStaticCredentials(config.AccessKeyID, config.AccessKeySecret, ""),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(false),
	}))

	return &S3Archiver{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		endpoint: config.Endpoint,
	}, nil
}

// Archive uploads the file bytes under key and returns the public URL.
func (a *S3Archiver) Archive(data []byte, key, contentType string) (string, error) {
	_, err := a.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", &StorageError{
			Op:  "archive_upload",
			Err: fmt.Errorf("failed to upload to S3: %w", err),
		}
	}

	baseURL := strings.Replace(a.endpoint, "/storage/v1/s3", "", 1)
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", baseURL, a.bucket, key), nil
}
