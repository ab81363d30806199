package storage

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "go.uber.org/zap"

    "pcmdec/internal/core/domain"
    "pcmdec/internal/device"
)

// Publisher uploads decrypted outputs to a Store.
type Publisher struct {
    store  Store
    runID  string
    host   string
    logger *zap.Logger
}

func NewPublisher(store Store, runID, host string, logger *zap.Logger) *Publisher {
    if logger == nil {
        logger = zap.NewNop()
    }
    return &Publisher{store: store, runID: runID, host: host, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, result domain.Result) error {
    f, err := os.Open(result.OutputPath)
    if err != nil {
        return fmt.Errorf("failed to open output: %w", err)
    }
    defer f.Close()

    info, err := f.Stat()
    if err != nil {
        return fmt.Errorf("failed to stat output: %w", err)
    }

    meta, err := p.store.StoreVideo(ctx, f, VideoMetadata{
        VideoID:      result.VideoID,
        OriginalName: filepath.Base(result.OutputPath),
        ContentType:  "video/mp4",
        Size:         info.Size(),
        RunID:        p.runID,
        Host:         p.host,
        Platform:     device.Platform(),
        CreatedAt:    time.Now().UTC(),
    })
    if err != nil {
        return err
    }

    p.logger.Info("published video", zap.String("id", meta.ID), zap.String("output", result.OutputPath))
    return nil
}
