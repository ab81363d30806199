package main

import (
    "context"
    "errors"
    "fmt"
    "os"
    "os/signal"
    "path"
    "syscall"

    awsconfig "github.com/aws/aws-sdk-go-v2/config"
    "github.com/google/uuid"
    "github.com/joho/godotenv"
    "github.com/spf13/pflag"
    "go.uber.org/zap"

    "pcmdec/internal/catalog"
    "pcmdec/internal/config"
    "pcmdec/internal/decryption/service"
    "pcmdec/internal/device"
    "pcmdec/internal/keystore"
    "pcmdec/internal/logger"
    "pcmdec/internal/pkg/crypto/des"
    "pcmdec/internal/storage"
    s3store "pcmdec/internal/storage/s3"
)

type options struct {
    configPath string
    input      string
    output     string
}

func main() {
    os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
    // .env is optional; real environment variables take precedence
    _ = godotenv.Load()

    cfg, opts, err := loadConfig(args)
    if err != nil {
        if errors.Is(err, pflag.ErrHelp) {
            return 0
        }
        fmt.Fprintf(os.Stderr, "pcmdec: %v\n", err)
        return 1
    }

    log := logger.Init(cfg.LogLevel)
    defer logger.Sync()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    keys, err := keystore.Load(cfg.KeysFile, keystore.WithLogger(log))
    if err != nil {
        log.Error("failed to load keys", zap.String("path", cfg.KeysFile), zap.Error(err))
        return 1
    }

    svc := service.NewService(des.NewDecryptor(),
        service.WithBufferSize(cfg.BufferSize),
        service.WithAtomicOutput(cfg.AtomicOutput),
        service.WithLogger(log),
    )

    if opts.input != "" {
        if opts.output == "" {
            log.Error("--output is required with --input")
            return 1
        }
        result, err := svc.Run(ctx, opts.input, opts.output, keys)
        if err != nil {
            log.Error("decryption failed", zap.Error(err))
            return 1
        }
        fmt.Printf("%s -> %s (%d bytes)\n", result.InputPath, result.OutputPath, result.Written())
        return 0
    }

    if err := cfg.Validate(); err != nil {
        log.Error("invalid configuration", zap.Error(err))
        return 1
    }

    text, err := os.ReadFile(cfg.CatalogFile)
    if err != nil {
        log.Error("failed to read catalog", zap.String("path", cfg.CatalogFile), zap.Error(err))
        return 1
    }
    nodes, err := catalog.ParseDocument(string(text), log)
    if err != nil {
        log.Error("failed to parse catalog", zap.String("path", cfg.CatalogFile), zap.Error(err))
        return 1
    }
    if err := catalog.MakeDirs(nodes, cfg.DestRoot); err != nil {
        log.Error("failed to create output tree", zap.Error(err))
        return 1
    }
    jobs := catalog.Walk(nodes, cfg.SourceDir, cfg.DestRoot)

    runner := &catalog.Runner{
        Pipeline: svc,
        Keys:     keys,
        Workers:  cfg.Workers,
        Logger:   log,
        RunID:    uuid.NewString(),
    }

    if cfg.Storage.Publish {
        publisher, err := newPublisher(ctx, cfg, runner.RunID, log)
        if err != nil {
            log.Error("failed to set up publishing", zap.Error(err))
            return 1
        }
        runner.Publisher = publisher
    }

    report := runner.Run(ctx, jobs)
    fmt.Println(report.String())
    for _, f := range report.Failed {
        fmt.Fprintf(os.Stderr, "  failed: %s: %v\n", f.Job.InputPath, f.Err)
    }
    for _, j := range report.Skipped {
        fmt.Fprintf(os.Stderr, "  skipped: %s (missing)\n", j.InputPath)
    }

    if err := report.Err(); err != nil {
        return 1
    }
    return 0
}

func loadConfig(args []string) (*config.Config, options, error) {
    var opts options
    flags := pflag.NewFlagSet("pcmdec", pflag.ContinueOnError)
    flags.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
    flags.StringVarP(&opts.input, "input", "i", "", "decrypt a single .pcm file instead of the catalog")
    flags.StringVarP(&opts.output, "output", "o", "", "output path for --input")
    source := flags.String("source", "", "directory holding <videoId>.pcm files")
    dest := flags.String("dest", "", "root of the decrypted output tree")
    keysFile := flags.StringP("keys", "k", "", "key document")
    catalogFile := flags.String("catalog", "", "catalog document")
    workers := flags.IntP("workers", "w", 0, "files decrypted concurrently")
    bufferSize := flags.Int("buffer-size", 0, "tail copy chunk size in bytes")
    logLevel := flags.String("log-level", "", "debug, info, warn or error")
    atomic := flags.Bool("atomic", false, "write outputs through a temporary file")
    publish := flags.Bool("publish", false, "upload decrypted outputs to S3")

    if err := flags.Parse(args); err != nil {
        return nil, opts, err
    }

    cfg := config.Default()
    if opts.configPath != "" {
        loaded, err := config.Load(opts.configPath)
        if err != nil {
            return nil, opts, err
        }
        cfg = loaded
    }
    if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
        return nil, opts, err
    }

    if flags.Changed("source") {
        cfg.SourceDir = *source
    }
    if flags.Changed("dest") {
        cfg.DestRoot = *dest
    }
    if flags.Changed("keys") {
        cfg.KeysFile = *keysFile
    }
    if flags.Changed("catalog") {
        cfg.CatalogFile = *catalogFile
    }
    if flags.Changed("workers") {
        cfg.Workers = *workers
    }
    if flags.Changed("buffer-size") {
        cfg.BufferSize = *bufferSize
    }
    if flags.Changed("log-level") {
        cfg.LogLevel = *logLevel
    }
    if flags.Changed("atomic") {
        cfg.AtomicOutput = *atomic
    }
    if flags.Changed("publish") {
        cfg.Storage.Publish = *publish
    }
    return cfg, opts, nil
}

func newPublisher(ctx context.Context, cfg *config.Config, runID string, log *zap.Logger) (*storage.Publisher, error) {
    var loadOpts []func(*awsconfig.LoadOptions) error
    if cfg.Storage.Region != "" {
        loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Storage.Region))
    }
    awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
    if err != nil {
        return nil, fmt.Errorf("unable to load SDK config: %w", err)
    }

    store, err := s3store.NewClient(ctx, awsCfg, cfg.Storage.Bucket, s3store.WithPrefix(cfg.Storage.Prefix))
    if err != nil {
        return nil, err
    }
    storeCfg := store.GetConfig()
    log.Info("publishing outputs",
        zap.String("bucket", storeCfg.BucketName),
        zap.String("region", storeCfg.Region),
        zap.String("videos", path.Join(storeCfg.Prefix, storeCfg.VideoPrefix)))
    return storage.NewPublisher(store, runID, device.New("pcmdec").HostID(), log), nil
}
