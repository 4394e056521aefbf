package blobstore

import (
	"bytes"
	"context"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	cqerrors "github.com/shifthive/capturequeue/pkg/errors"
)

// S3Uploader is the production Uploader: content-addressed objects in a
// single bucket, optionally against an S3-compatible endpoint for local
// MinIO-style testing.
type S3Uploader struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

// NewS3Uploader loads the default AWS credential chain and region
// resolution, then builds an uploader scoped to bucket. endpoint overrides
// the default S3 endpoint when set, for S3-compatible local stacks.
func NewS3Uploader(ctx context.Context, bucket, endpoint string) (*S3Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, cqerrors.NewInternal("blobstore: load aws config", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
	}, nil
}

// Upload hashes content, then uploads it to bucket keyed by that hash.
// Uploading identical bytes twice is a harmless overwrite of the same key.
func (u *S3Uploader) Upload(ctx context.Context, content io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", cqerrors.NewInternal("blobstore: read content", err)
	}
	key := hashKey(data, contentType)

	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", cqerrors.NewCancelled("blobstore: upload cancelled", err)
		}
		return "", cqerrors.NewTransient("blobstore: upload", err)
	}
	return key, nil
}

var _ Uploader = (*S3Uploader)(nil)
