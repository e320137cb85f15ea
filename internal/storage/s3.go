package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// putter is the part of the transfer manager S3Uploader needs.
type putter interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Uploader stores attachments in one bucket under a fixed prefix.
type S3Uploader struct {
	up         putter
	bucket     string
	prefix     string
	publicBase string
	logger     *slog.Logger
}

// NewS3Uploader returns an uploader that sends files through the S3
// transfer manager, switching to multipart for large files.
func NewS3Uploader(client *s3.Client, bucket, prefix, publicBase string, logger *slog.Logger) *S3Uploader {
	return &S3Uploader{
		up:         manager.NewUploader(client),
		bucket:     bucket,
		prefix:     prefix,
		publicBase: publicBase,
		logger:     logger,
	}
}

// Upload implements Uploader.
func (u *S3Uploader) Upload(ctx context.Context, localPath, displayName string) (link string, err error) {
	defer func() {
		if cerr := cleanup(localPath); cerr != nil {
			u.logger.Warn("scratch cleanup failed", "path", localPath, "err", cerr)
		}
	}()

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("s3: open %s: %w", localPath, err)
	}
	defer f.Close()

	key := BuildKey(u.prefix, displayName)
	out, err := u.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        io.Reader(f),
		ContentType: aws.String(contentType(displayName)),
		Metadata:    Metadata(displayName, "survey-sync"),
	})
	if err != nil {
		return "", fmt.Errorf("s3: put %s: %w", key, err)
	}

	switch {
	case u.publicBase != "":
		link = PublicURL(u.publicBase, key)
	case out != nil && out.Location != "":
		link = out.Location
	default:
		return "", errors.New("s3: upload returned no location")
	}
	u.logger.Info("attachment stored", "bucket", u.bucket, "key", key, "link", link)
	return link, nil
}
