package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"snaps_engagement/internal/config"
	"snaps_engagement/internal/model"
)

// objectPutter is the slice of the S3 API the sink needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportSink archives reconciliation reports as JSON objects in an
// S3-compatible bucket.
type ReportSink struct {
	client objectPutter
	bucket string
	prefix string
}

// NewReportSink builds an S3 client from cfg. Static keys are used when
// given; otherwise the default AWS credential chain applies. A custom
// endpoint targets S3-compatible stores such as R2 or MinIO.
func NewReportSink(ctx context.Context, cfg config.ReportConfig) (*ReportSink, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("report bucket not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newReportSink(client, cfg.Bucket, cfg.Prefix), nil
}

func newReportSink(client objectPutter, bucket, prefix string) *ReportSink {
	return &ReportSink{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Save writes the report under <prefix>/<entity>/<id>/<timestamp>-<uuid>.json.
func (s *ReportSink) Save(ctx context.Context, report *model.ReconcileReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	key := s.key(report)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put report %s: %w", key, err)
	}
	return nil
}

func (s *ReportSink) key(report *model.ReconcileReport) string {
	name := fmt.Sprintf("%s/%d/%s-%s.json",
		report.Entity, report.ID, report.CheckedAt.UTC().Format("20060102T150405Z"), uuid.NewString())
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}
