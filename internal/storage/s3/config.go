package s3

import (
    "context"
    "fmt"

    "github.com/aws/aws-sdk-go-v2/aws"
    "github.com/aws/aws-sdk-go-v2/service/s3"

    "pcmdec/internal/storage"
)

// DefaultConfig provides default configuration values
var DefaultConfig = storage.Config{
    BucketName:     "pcmdec-video-storage",
    Region:         "us-east-1",
    VideoPrefix:    "videos/",
    MetadataPrefix: "metadata/",
    DocumentPrefix: "documents/",
}

// Folders lists the prefixes a bucket is initialised with.
func Folders(c storage.Config) []string {
    return []string{c.VideoPrefix, c.MetadataPrefix, c.DocumentPrefix}
}

// NewClient creates a new S3 client with the given configuration
func NewClient(ctx context.Context, cfg aws.Config, bucket string, opts ...func(*storage.Config)) (*Store, error) {
    client := s3.NewFromConfig(cfg)

    // Verify bucket exists and is accessible
    _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
        Bucket: aws.String(bucket),
    })
    if err != nil {
        return nil, fmt.Errorf("failed to access bucket %s: %w", bucket, err)
    }

    config := DefaultConfig
    config.BucketName = bucket
    config.Region = cfg.Region
    for _, opt := range opts {
        opt(&config)
    }

    return New(client, config), nil
}

// WithPrefix nests every object under a common prefix
func WithPrefix(prefix string) func(*storage.Config) {
    return func(c *storage.Config) {
        c.Prefix = prefix
    }
}

// WithPrefixes sets custom prefixes for different types of objects
func WithPrefixes(video, metadata, document string) func(*storage.Config) {
    return func(c *storage.Config) {
        if video != "" {
            c.VideoPrefix = video
        }
        if metadata != "" {
            c.MetadataPrefix = metadata
        }
        if document != "" {
            c.DocumentPrefix = document
        }
    }
}
