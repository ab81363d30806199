package service

import (
    "go.uber.org/zap"

    "pcmdec/internal/core/ports"
    "pcmdec/internal/decryption/chunking"
)

type DecryptionService struct {
    decryptor    ports.SegmentDecryptor
    bufferSize   int
    atomicOutput bool
    logger       *zap.Logger
}

type Option func(*DecryptionService)

// WithBufferSize sets the chunk size used to copy the unencrypted tail.
// Sizes outside the chunking bounds are clamped; non-positive sizes keep
// the default.
func WithBufferSize(size int) Option {
    return func(s *DecryptionService) {
        if size > 0 {
            s.bufferSize = chunking.ClampChunkSize(size)
        }
    }
}

// WithAtomicOutput writes to a temporary file next to the output and renames
// it into place only when the whole file decrypted successfully.
func WithAtomicOutput(atomic bool) Option {
    return func(s *DecryptionService) {
        s.atomicOutput = atomic
    }
}

func WithLogger(l *zap.Logger) Option {
    return func(s *DecryptionService) {
        if l != nil {
            s.logger = l
        }
    }
}

func NewService(decryptor ports.SegmentDecryptor, opts ...Option) *DecryptionService {
    s := &DecryptionService{
        decryptor:  decryptor,
        bufferSize: chunking.DefaultChunkSize,
        logger:     zap.NewNop(),
    }
    for _, opt := range opts {
        opt(s)
    }
    return s
}

var _ ports.Pipeline = (*DecryptionService)(nil)
