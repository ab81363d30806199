package main

import (
    "context"
    "fmt"
    "os"
    "path"
    "path/filepath"

    awsconfig "github.com/aws/aws-sdk-go-v2/config"
    "github.com/joho/godotenv"
    "github.com/spf13/pflag"
    "go.uber.org/zap"

    "pcmdec/internal/config"
    "pcmdec/internal/logger"
    s3store "pcmdec/internal/storage/s3"
)

const (
    keysDocument    = "keys.xml"
    catalogDocument = "list.xml"
)

func main() {
    _ = godotenv.Load()

    configPath := pflag.StringP("config", "c", "", "YAML configuration file")
    push := pflag.Bool("push", false, "upload the local documents instead of downloading them")
    pflag.Usage = func() {
        fmt.Fprintln(os.Stderr, "Usage: fetch [--push] [--config file] <token>")
        pflag.PrintDefaults()
    }
    pflag.Parse()

    if pflag.NArg() != 1 {
        pflag.Usage()
        os.Exit(2)
    }
    token := pflag.Arg(0)

    cfg := config.Default()
    if *configPath != "" {
        loaded, err := config.Load(*configPath)
        if err != nil {
            fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
            os.Exit(1)
        }
        cfg = loaded
    }
    if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
        fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
        os.Exit(1)
    }

    log := logger.Init(cfg.LogLevel)
    defer logger.Sync()

    if cfg.Storage.Bucket == "" {
        log.Fatal("no storage bucket configured", zap.String("env", config.EnvPrefix+"S3_BUCKET"))
    }

    ctx := context.Background()

    var loadOpts []func(*awsconfig.LoadOptions) error
    if cfg.Storage.Region != "" {
        loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Storage.Region))
    }
    awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
    if err != nil {
        log.Fatal("unable to load SDK config", zap.Error(err))
    }

    store, err := s3store.NewClient(ctx, awsCfg, cfg.Storage.Bucket, s3store.WithPrefix(cfg.Storage.Prefix))
    if err != nil {
        log.Fatal("failed to create storage client", zap.Error(err))
    }
    storeCfg := store.GetConfig()
    log.Debug("using document store",
        zap.String("bucket", storeCfg.BucketName),
        zap.String("documents", path.Join(storeCfg.Prefix, storeCfg.DocumentPrefix, token)))

    documents := map[string]string{
        keysDocument:    cfg.KeysFile,
        catalogDocument: cfg.CatalogFile,
    }

    for name, local := range documents {
        if *push {
            data, err := os.ReadFile(local)
            if err != nil {
                log.Fatal("failed to read document", zap.String("path", local), zap.Error(err))
            }
            if err := store.PutDocument(ctx, token, name, data); err != nil {
                log.Fatal("failed to upload document", zap.Error(err))
            }
            log.Info("uploaded document", zap.String("name", name), zap.String("from", local))
            continue
        }

        data, err := store.GetDocument(ctx, token, name)
        if err != nil {
            log.Fatal("failed to download document", zap.Error(err))
        }
        if dir := filepath.Dir(local); dir != "." {
            if err := os.MkdirAll(dir, 0755); err != nil {
                log.Fatal("failed to create directory", zap.String("dir", dir), zap.Error(err))
            }
        }
        if err := os.WriteFile(local, data, 0600); err != nil {
            log.Fatal("failed to save document", zap.String("path", local), zap.Error(err))
        }
        log.Info("saved document", zap.String("name", name), zap.String("to", local))
    }
}
