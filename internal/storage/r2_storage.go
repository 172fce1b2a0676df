package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/maheshrc27/viralflow/configs"
)

var ErrEmptyKey = errors.New("empty media key")

// ObjectAPI is the subset of the S3 client the media store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// MediaStore keeps post media in an S3-compatible bucket (Cloudflare R2).
type MediaStore struct {
	client    ObjectAPI
	bucket    string
	publicURL string
}

func NewMediaStore(client ObjectAPI, bucket, publicURL string) *MediaStore {
	return &MediaStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// NewR2MediaStore builds the S3 client against the account's R2 endpoint.
func NewR2MediaStore(ctx context.Context, r2 cfg.R2) (*MediaStore, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("load r2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	})
	return NewMediaStore(client, r2.BucketName, r2.PublicURL), nil
}

func (m *MediaStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		slog.Info(err.Error(), "key", key)
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Open streams the object. The caller closes the reader.
func (m *MediaStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Info(err.Error(), "key", key)
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return out.Body, nil
}

func (m *MediaStore) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return m.publicURL + "/" + strings.TrimLeft(key, "/")
}
