package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/repoforge/repomaker/repomaker/schema"
	"github.com/sirupsen/logrus"
)

// S3 uploads the repo tree into a bucket, one object per file.
// A custom endpoint switches the client to path-style addressing so
// S3-compatible stores work too.
type S3 struct {
	name   string
	cfg    schema.Storage
	logger *logrus.Logger
}

func NewS3(name string, cfg schema.Storage, logger *logrus.Logger) *S3 {
	return &S3{
		name:   name,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *S3) Name() string {
	return s.name
}

func (s *S3) URL() string {
	return fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, s.cfg.Path)
}

func (s *S3) Publish(ctx context.Context, localDir string) error {
	s.logger.WithFields(logrus.Fields{
		"storage": s.name,
		"bucket":  s.cfg.Bucket,
	}).Info("Publishing to S3 bucket")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s.cfg.Region))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return filepath.Walk(localDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		key := path.Join(s.cfg.Path, filepath.ToSlash(rel))

		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", p, err)
		}
		defer f.Close()

		_, err = client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}
		return nil
	})
}
