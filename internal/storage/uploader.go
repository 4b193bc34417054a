// Package storage provides the best-effort object-storage upload used to
// ship completed segment files off the ingest host.
package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lariat-iot/audiogate/internal/logging"
)

// Provider selects how the S3 client is configured.
type Provider int

const (
	// ProviderAWS uses the default AWS credential chain and a plain region.
	ProviderAWS Provider = iota
	// ProviderS3Compatible targets a self-hosted or third-party S3-compatible
	// endpoint (e.g. MinIO) via an explicit service URL and path-style
	// addressing.
	ProviderS3Compatible
)

// Config controls whether and how uploads happen. Enabled == false yields
// an uploader whose Upload calls are no-ops.
type Config struct {
	Enabled        bool
	UploadBin      bool
	UploadWav      bool
	Prefix         string
	Provider       Provider
	Bucket         string
	Region         string
	ServiceURL     string
	ForcePathStyle bool
}

// ObjectUploader is the capability interface the rest of the ingest path
// depends on. It never returns an error to its caller: failures are logged
// internally, matching this module's UploadError disposition.
type ObjectUploader interface {
	// Upload ships the local file at path under the given object key. ext
	// identifies the file kind ("bin" or "wav") so the uploader can apply
	// the per-extension gate.
	Upload(ctx context.Context, path, key, ext string)
}

// S3Uploader uploads to S3 or an S3-compatible endpoint via aws-sdk-go-v2.
type S3Uploader struct {
	client *s3.Client
	cfg    Config
	logger logging.Logger
}

// disabledUploader is returned when uploads are turned off entirely; every
// call is a no-op.
type disabledUploader struct{}

func (disabledUploader) Upload(context.Context, string, string, string) {}

// New builds the configured ObjectUploader. When cfg.Enabled is false, it
// returns a no-op implementation rather than constructing an S3 client.
func New(ctx context.Context, cfg Config, logger logging.Logger) (ObjectUploader, error) {
	if !cfg.Enabled {
		return disabledUploader{}, nil
	}
	if logger == nil {
		logger = logging.Default{}
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Provider == ProviderS3Compatible {
			if cfg.ServiceURL != "" {
				o.BaseEndpoint = aws.String(cfg.ServiceURL)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		}
	})

	return &S3Uploader{client: client, cfg: cfg, logger: logger}, nil
}

// Upload opens the file at path and streams it to the configured bucket
// under key. A closed per-extension gate skips the upload without logging;
// an open or PutObject failure is logged and otherwise swallowed.
func (u *S3Uploader) Upload(ctx context.Context, path, key, ext string) {
	if ext == "bin" && !u.cfg.UploadBin {
		return
	}
	if ext == "wav" && !u.cfg.UploadWav {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		u.logger.Warn("UploadError: open %s: %v", path, err)
		return
	}
	defer f.Close()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		u.logger.Warn("UploadError: put %s: %v", key, err)
		return
	}
	u.logger.Info("uploaded %s to s3://%s/%s", path, u.cfg.Bucket, key)
}

// Key computes the object key for a file: {prefix}/[{hwid}/]{filename}.
// prefix is trimmed of surrounding slashes and whitespace; an empty result
// falls back to "received".
func Key(prefix, hwid, filename string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "received"
	}
	if hwid != "" {
		return fmt.Sprintf("%s/%s/%s", prefix, hwid, filename)
	}
	return fmt.Sprintf("%s/%s", prefix, filename)
}
