package archive

import (
	"context"
	"fmt"
	"log"

	"triage-flows/internal/archive/drivers"
	"triage-flows/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewFromConfig builds the archiver selected by ARCHIVE_TYPE. An empty type
// disables archiving and returns nil.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Archiver, error) {
	switch cfg.ArchiveType {
	case "":
		return nil, nil
	case "local":
		log.Printf("[Archive] Using local directory %s", cfg.ArchiveDir)
		d, err := drivers.NewLocalFSDriver(cfg.ArchiveDir)
		if err != nil {
			return nil, err
		}
		return New(d), nil
	case "s3":
		log.Printf("[Archive] Using S3 bucket %s (endpoint %q)", cfg.ArchiveS3Bucket, cfg.ArchiveS3Endpoint)
		if cfg.ArchiveS3Bucket == "" {
			return nil, fmt.Errorf("ARCHIVE_S3_BUCKET is required for s3 archive")
		}

		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.ArchiveS3Region),
		}
		if cfg.ArchiveS3AccessKey != "" && cfg.ArchiveS3SecretKey != "" {
			creds := credentials.NewStaticCredentialsProvider(cfg.ArchiveS3AccessKey, cfg.ArchiveS3SecretKey, "")
			opts = append(opts, awsconfig.WithCredentialsProvider(creds))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.ArchiveS3Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.ArchiveS3Endpoint)
			}
			o.UsePathStyle = true
		})
		return New(drivers.NewS3Driver(client, cfg.ArchiveS3Bucket)), nil
	}
	return nil, fmt.Errorf("unsupported archive type: %s", cfg.ArchiveType)
}
