// pcmdec/internal/core/ports/decryption.go
package ports

import (
    "context"

    "pcmdec/internal/core/domain"
)

// Pipeline decrypts one container file into one output file.
type Pipeline interface {
    Run(ctx context.Context, inputPath, outputPath string, keys KeyResolver) (*domain.Result, error)
}

// SegmentDecryptor decrypts a single encrypted segment.
type SegmentDecryptor interface {
    DecryptSegment(data []byte, key []byte) ([]byte, error)
}

// KeyResolver maps a video id to its key string.
type KeyResolver interface {
    Lookup(videoID string) (string, bool)
}
