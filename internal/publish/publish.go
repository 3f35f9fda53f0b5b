// Package publish uploads generated reports to S3.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/logging"
)

const contentType = "text/markdown; charset=utf-8"

// Putter is the subset of the S3 client used for uploads.
type Putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// File is a local document and its key relative to the bucket prefix.
type File struct {
	Path string
	Rel  string
}

type Publisher struct {
	client Putter
	bucket string
	prefix string
	log    *slog.Logger
}

func New(client Putter, bucket, prefix string, log *slog.Logger) *Publisher {
	return &Publisher{client: client, bucket: bucket, prefix: prefix, log: logging.Component(log, "publish")}
}

// NewS3 builds a publisher on the default AWS credential chain.
func NewS3(ctx context.Context, bucket, prefix, region string, log *slog.Logger) (*Publisher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return New(s3.NewFromConfig(cfg), bucket, prefix, log), nil
}

// Key is the object key for a relative report path.
func (p *Publisher) Key(rel string) string {
	return path.Join(p.prefix, filepath.ToSlash(rel))
}

// Publish uploads every file. A failed file is logged and skipped; the
// returned error joins all failures.
func (p *Publisher) Publish(ctx context.Context, files []File) (int, error) {
	var errs []error
	uploaded := 0
	for _, f := range files {
		if err := p.put(ctx, f); err != nil {
			p.log.Warn("upload failed", "file", f.Path, "error", err)
			errs = append(errs, err)
			continue
		}
		uploaded++
	}
	p.log.Info("published", "bucket", p.bucket, "uploaded", uploaded, "failed", len(errs))
	return uploaded, errors.Join(errs...)
}

func (p *Publisher) put(ctx context.Context, f File) error {
	body, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.Path, err)
	}
	key := p.Key(f.Rel)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", p.bucket, key, err)
	}
	p.log.Debug("uploaded", "key", key, "bytes", len(body))
	return nil
}
