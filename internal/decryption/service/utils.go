package service

import (
    "bufio"
    "context"
    "fmt"
    "io"
    "os"
    "path/filepath"

    "go.uber.org/zap"

    "pcmdec/internal/core/domain"
)

// countingReader tracks how far into the container the pipeline has read.
type countingReader struct {
    r io.Reader
    n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
    n, err := c.r.Read(p)
    c.n += int64(n)
    return n, err
}

func (s *DecryptionService) decryptSegments(ctx context.Context, in *countingReader, size int64, out *bufio.Writer, header *domain.ContainerHeader, key []byte) (int64, int, error) {
    var total int64
    var segments int

    for i, length := range header.SegmentLengths {
        select {
        case <-ctx.Done():
            return total, segments, ctx.Err()
        default:
        }

        if length <= 0 {
            s.logger.Warn("skipping empty segment",
                zap.String("video_id", header.VideoID),
                zap.Int("segment", i),
                zap.Int64("length", length))
            continue
        }

        encrypted, err := readSegment(in, size, i, length)
        if err != nil {
            return total, segments, err
        }

        plain, err := s.decryptor.DecryptSegment(encrypted, key)
        if err != nil {
            return total, segments, fmt.Errorf("segment %d: %w", i, err)
        }
        if len(plain) == 0 {
            continue
        }

        if _, err := out.Write(plain); err != nil {
            return total, segments, fmt.Errorf("%w: failed to write segment %d: %v", domain.ErrIO, i, err)
        }
        if err := out.Flush(); err != nil {
            return total, segments, fmt.Errorf("%w: failed to flush segment %d: %v", domain.ErrIO, i, err)
        }
        total += int64(len(plain))
        segments++
    }
    return total, segments, nil
}

func readSegment(in *countingReader, size int64, index int, length int64) ([]byte, error) {
    if remaining := size - in.n; length > remaining {
        return nil, fmt.Errorf("%w: segment %d declares %d bytes, only %d remaining at offset %d",
            domain.ErrIO, index, length, remaining, in.n)
    }
    buf := make([]byte, length)
    if _, err := io.ReadFull(in, buf); err != nil {
        return nil, fmt.Errorf("%w: failed to read segment %d: %v", domain.ErrIO, index, err)
    }
    return buf, nil
}

func ensureParentDir(path string) error {
    dir := filepath.Dir(path)
    if err := os.MkdirAll(dir, 0755); err != nil {
        return fmt.Errorf("%w: failed to create output directory %s: %v", domain.ErrConfig, dir, err)
    }
    return nil
}

// outputMode is applied to atomic outputs, whose temporary files start
// out as 0600.
const outputMode = 0644

// outputFile is the pipeline's write handle. In atomic mode it writes to a
// temporary sibling that replaces the target on Commit.
type outputFile struct {
    *os.File
    target    string
    atomic    bool
    committed bool
    closed    bool
}

func createOutput(path string, atomic bool) (*outputFile, error) {
    if !atomic {
        f, err := os.Create(path)
        if err != nil {
            return nil, fmt.Errorf("%w: failed to create output: %v", domain.ErrIO, err)
        }
        return &outputFile{File: f, target: path}, nil
    }

    f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
    if err != nil {
        return nil, fmt.Errorf("%w: failed to create temporary output: %v", domain.ErrIO, err)
    }
    return &outputFile{File: f, target: path, atomic: true}, nil
}

func (o *outputFile) Commit() error {
    if o.atomic {
        if err := o.File.Chmod(outputMode); err != nil {
            o.closed = true
            o.File.Close()
            return fmt.Errorf("%w: failed to set output permissions: %v", domain.ErrIO, err)
        }
    }
    o.closed = true
    if err := o.File.Close(); err != nil {
        return fmt.Errorf("%w: failed to close output: %v", domain.ErrIO, err)
    }
    if o.atomic {
        if err := os.Rename(o.File.Name(), o.target); err != nil {
            return fmt.Errorf("%w: failed to move output into place: %v", domain.ErrIO, err)
        }
    }
    o.committed = true
    return nil
}

// Close releases the handle. An uncommitted temporary file is removed.
func (o *outputFile) Close() error {
    var err error
    if !o.closed {
        o.closed = true
        err = o.File.Close()
    }
    if o.atomic && !o.committed {
        os.Remove(o.File.Name())
    }
    return err
}
