package storage

import (
    "context"
    "io"
    "time"
)

// VideoMetadata describes a published, decrypted video.
type VideoMetadata struct {
    ID           string
    VideoID      string
    OriginalName string
    ContentType  string
    Size         int64
    RunID        string
    Host         string    // protected machine id of the decrypting host
    Platform     string    // GOOS/GOARCH of the decrypting binary
    CreatedAt    time.Time
}

// Store defines the interface for storage operations
type Store interface {
    // Video operations
    StoreVideo(ctx context.Context, videoData io.Reader, metadata VideoMetadata) (VideoMetadata, error)
    GetMetadata(ctx context.Context, id string) (VideoMetadata, error)

    // Document operations: key and catalog documents grouped under a token
    GetDocument(ctx context.Context, token, name string) ([]byte, error)
    PutDocument(ctx context.Context, token, name string, data []byte) error
}

// Config holds configuration for storage services
type Config struct {
    BucketName     string
    Region         string
    Prefix         string
    VideoPrefix    string
    MetadataPrefix string
    DocumentPrefix string
}
