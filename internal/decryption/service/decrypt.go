package service

import (
    "bufio"
    "context"
    "fmt"
    "io"
    "os"

    "go.uber.org/zap"

    "pcmdec/internal/container"
    "pcmdec/internal/core/domain"
    "pcmdec/internal/core/ports"
    "pcmdec/internal/decryption/chunking"
    "pcmdec/internal/keystore"
)

// Run decrypts the container at inputPath into outputPath. Any error is
// annotated with both paths and keeps its domain sentinel.
func (s *DecryptionService) Run(ctx context.Context, inputPath, outputPath string, keys ports.KeyResolver) (result *domain.Result, err error) {
    defer func() {
        if err != nil {
            err = fmt.Errorf("decrypt %s -> %s: %w", inputPath, outputPath, err)
        }
    }()

    info, err := os.Stat(inputPath)
    if err != nil {
        return nil, fmt.Errorf("%w: input file not accessible: %v", domain.ErrIO, err)
    }
    if info.IsDir() {
        return nil, fmt.Errorf("%w: input is a directory", domain.ErrIO)
    }
    if err := ensureParentDir(outputPath); err != nil {
        return nil, err
    }

    input, err := os.Open(inputPath)
    if err != nil {
        return nil, fmt.Errorf("%w: failed to open input: %v", domain.ErrIO, err)
    }
    defer input.Close()

    output, err := createOutput(outputPath, s.atomicOutput)
    if err != nil {
        return nil, err
    }
    defer output.Close()

    result, err = s.Process(ctx, input, info.Size(), output, keys)
    if err != nil {
        return nil, err
    }
    if err := output.Commit(); err != nil {
        return nil, err
    }

    result.InputPath = inputPath
    result.OutputPath = outputPath
    s.logger.Info("decrypted file",
        zap.String("output", outputPath),
        zap.String("video_id", result.VideoID),
        zap.Int64("bytes", result.Written()))
    return result, nil
}

// Process decrypts a container read from src, which holds size bytes, and
// writes the playable stream to dst.
func (s *DecryptionService) Process(ctx context.Context, src io.Reader, size int64, dst io.Writer, keys ports.KeyResolver) (*domain.Result, error) {
    in := &countingReader{r: src}

    header, err := container.Parse(in, size)
    if err != nil {
        return nil, err
    }
    s.logger.Debug("parsed header", zap.String("header", header.Summary()))
    for _, w := range header.Warnings {
        s.logger.Warn(w, zap.String("video_id", header.VideoID))
    }

    key, ok := keys.Lookup(header.VideoID)
    if !ok || keystore.Trim(key) == "" {
        return nil, fmt.Errorf("%w: no key for video id %q", domain.ErrMissingKey, header.VideoID)
    }

    if encrypted, remaining := header.EncryptedBytes(), size-in.n; encrypted > remaining {
        return nil, fmt.Errorf("%w: segments declare %d bytes, only %d remaining after header",
            domain.ErrIO, encrypted, remaining)
    }

    out := bufio.NewWriterSize(dst, s.bufferSize)
    result := &domain.Result{VideoID: header.VideoID}

    decrypted, segments, err := s.decryptSegments(ctx, in, size, out, header, []byte(key))
    if err != nil {
        return nil, err
    }
    result.DecryptedBytes = decrypted
    result.Segments = segments

    remaining := header.SourceFileSize - decrypted
    if remaining > 0 {
        copied, err := chunking.CopyTail(out, in, remaining, s.bufferSize)
        if err != nil {
            return nil, err
        }
        if copied < remaining {
            s.logger.Debug("tail shorter than declared",
                zap.String("video_id", header.VideoID),
                zap.Int64("declared", remaining),
                zap.Int64("copied", copied))
        }
        result.TailBytes = copied
    }

    if err := out.Flush(); err != nil {
        return nil, fmt.Errorf("%w: failed to flush output: %v", domain.ErrIO, err)
    }
    return result, nil
}
