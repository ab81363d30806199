package chunking

import (
    "errors"
    "fmt"
    "io"

    "pcmdec/internal/core/domain"
)

const (
    DefaultChunkSize = 8 * 1024        // 8KB, the platform's copy buffer
    MinChunkSize     = 512             // 512B minimum chunk size
    MaxChunkSize     = 8 * 1024 * 1024 // 8MB maximum chunk size
)

// ChunkReader caps every Read at chunkSize bytes.
type ChunkReader struct {
    reader    io.Reader
    chunkSize int
}

func NewChunkReader(reader io.Reader, chunkSize int) (*ChunkReader, error) {
    if err := ValidateChunkSize(chunkSize); err != nil {
        return nil, err
    }

    return &ChunkReader{
        reader:    reader,
        chunkSize: chunkSize,
    }, nil
}

func (r *ChunkReader) Read(p []byte) (n int, err error) {
    if len(p) > r.chunkSize {
        p = p[:r.chunkSize]
    }
    return r.reader.Read(p)
}

func (r *ChunkReader) ChunkSize() int {
    return r.chunkSize
}

// CopyTail copies up to remaining bytes from src to dst through a buffer of
// chunkSize bytes. Running out of input before remaining bytes are copied is
// not an error; the number of bytes actually copied is returned.
func CopyTail(dst io.Writer, src io.Reader, remaining int64, chunkSize int) (int64, error) {
    if remaining <= 0 {
        return 0, nil
    }

    reader, err := NewChunkReader(src, chunkSize)
    if err != nil {
        return 0, err
    }

    buffer := make([]byte, reader.ChunkSize())
    var copied int64
    for remaining > 0 {
        toRead := int64(len(buffer))
        if remaining < toRead {
            toRead = remaining
        }

        n, err := reader.Read(buffer[:toRead])
        if n > 0 {
            if _, werr := dst.Write(buffer[:n]); werr != nil {
                return copied, fmt.Errorf("%w: failed to write tail: %v", domain.ErrIO, werr)
            }
            copied += int64(n)
            remaining -= int64(n)
        }
        if errors.Is(err, io.EOF) {
            break
        }
        if err != nil {
            return copied, fmt.Errorf("%w: failed to read tail: %v", domain.ErrIO, err)
        }
        if n == 0 {
            break
        }
    }
    return copied, nil
}

// ValidateChunkSize reports an ErrConfig for sizes outside
// [MinChunkSize, MaxChunkSize].
func ValidateChunkSize(size int) error {
    if size < MinChunkSize || size > MaxChunkSize {
        return fmt.Errorf("%w: invalid chunk size %d: must be between %d and %d bytes",
            domain.ErrConfig, size, MinChunkSize, MaxChunkSize)
    }
    return nil
}

// ClampChunkSize forces size into [MinChunkSize, MaxChunkSize].
func ClampChunkSize(size int) int {
    if size < MinChunkSize {
        return MinChunkSize
    }
    if size > MaxChunkSize {
        return MaxChunkSize
    }
    return size
}
