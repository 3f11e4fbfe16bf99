package trello

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	log "github.com/sirupsen/logrus"
)

// S3Config locates the bucket a finished backup is copied to. Any S3-compatible service works, e.g., MinIO with
// UsePathStyle set.
type S3Config struct {
	Endpoint     string `yaml:"endpoint"`
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	Prefix       string `yaml:"prefix"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// Enabled reports whether a bucket was configured.
func (cfg *S3Config) Enabled() bool {
	return cfg != nil && cfg.Bucket != ""
}

// Mirror uploads backup trees to an S3 bucket.
type Mirror struct {
	client *s3.Client
	cfg    S3Config
}

// NewMirror builds an S3 client from cfg. Static credentials are used when an access key is given, otherwise the
// default AWS credential chain applies.
func NewMirror(ctx context.Context, cfg S3Config) (*Mirror, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("mirror: bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("mirror, load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &Mirror{client: client, cfg: cfg}, nil
}

// EnsureBucket checks that the configured bucket exists; buckets are never created.
func (m *Mirror) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := m.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(m.cfg.Bucket),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
			return fmt.Errorf("mirror: bucket %s does not exist", m.cfg.Bucket)
		}
		return fmt.Errorf("mirror, check bucket %s: %w", m.cfg.Bucket, err)
	}
	return nil
}

// Upload copies every file below the report's root to the bucket, keyed by prefix, backup directory name and
// relative path, and returns the number of objects written. Objects are tagged with the run id.
func (m *Mirror) Upload(ctx context.Context, report *Report) (int, error) {
	base := filepath.Base(report.Root)
	uploaded := 0
	err := filepath.WalkDir(report.Root, func(pathname string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(report.Root, pathname)
		if err != nil {
			return err
		}
		key := path.Join(m.cfg.Prefix, base, filepath.ToSlash(rel))
		if err := m.put(ctx, pathname, key, report.RunID); err != nil {
			return err
		}
		uploaded++
		log.WithFields(log.Fields{
			"bucket": m.cfg.Bucket,
			"key":    key,
		}).Debug("Uploaded")
		return nil
	})
	if err != nil {
		return uploaded, fmt.Errorf("mirror: %w", err)
	}
	return uploaded, nil
}

func (m *Mirror) put(ctx context.Context, pathname, key, runID string) error {
	f, err := os.Open(pathname)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.WithFields(log.Fields{
				"path":  pathname,
				"cause": err,
			}).Warning("Could not close file")
		}
	}()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(fi.Size()),
		Metadata:      map[string]string{"backup-run": runID},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
