package main

import (
    "context"
    "fmt"
    "os"
    "path"

    "github.com/aws/aws-sdk-go-v2/aws"
    awsconfig "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/service/s3"
    "github.com/aws/aws-sdk-go-v2/service/s3/types"
    "github.com/aws/aws-sdk-go-v2/service/sts"
    "github.com/joho/godotenv"
    "github.com/spf13/pflag"
    "go.uber.org/zap"

    "pcmdec/internal/config"
    "pcmdec/internal/logger"
    s3store "pcmdec/internal/storage/s3"
)

func main() {
    _ = godotenv.Load()

    configPath := pflag.StringP("config", "c", "", "YAML configuration file")
    pflag.Parse()

    cfg := config.Default()
    if *configPath != "" {
        loaded, err := config.Load(*configPath)
        if err != nil {
            fmt.Fprintf(os.Stderr, "setup: %v\n", err)
            os.Exit(1)
        }
        cfg = loaded
    }
    if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
        fmt.Fprintf(os.Stderr, "setup: %v\n", err)
        os.Exit(1)
    }

    log := logger.Init(cfg.LogLevel)
    defer logger.Sync()

    ctx := context.Background()

    var loadOpts []func(*awsconfig.LoadOptions) error
    if cfg.Storage.Region != "" {
        loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Storage.Region))
    }
    awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
    if err != nil {
        log.Fatal("unable to load SDK config", zap.Error(err))
    }

    identity, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
    if err != nil {
        log.Warn("unable to get caller identity", zap.Error(err))
    } else {
        log.Info("aws identity",
            zap.String("account", aws.ToString(identity.Account)),
            zap.String("arn", aws.ToString(identity.Arn)))
    }

    bucketName := cfg.Storage.Bucket
    if bucketName == "" {
        bucketName = s3store.DefaultConfig.BucketName
    }

    client := s3.NewFromConfig(awsCfg)

    // Check if bucket exists
    _, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
        Bucket: aws.String(bucketName),
    })
    if err != nil {
        log.Info("creating bucket", zap.String("bucket", bucketName))
        input := &s3.CreateBucketInput{
            Bucket: aws.String(bucketName),
        }

        // Only add location constraint if not in us-east-1
        if awsCfg.Region != "us-east-1" {
            input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
                LocationConstraint: types.BucketLocationConstraint(awsCfg.Region),
            }
        }

        if _, err := client.CreateBucket(ctx, input); err != nil {
            log.Fatal("unable to create bucket", zap.Error(err))
        }
    } else {
        log.Info("bucket already exists", zap.String("bucket", bucketName))
    }

    storeCfg := s3store.DefaultConfig
    s3store.WithPrefix(cfg.Storage.Prefix)(&storeCfg)

    for _, folder := range s3store.Folders(storeCfg) {
        key := path.Join(storeCfg.Prefix, folder) + "/"
        _, err := client.PutObject(ctx, &s3.PutObjectInput{
            Bucket: aws.String(bucketName),
            Key:    aws.String(key),
        })
        if err != nil {
            log.Warn("unable to create folder", zap.String("folder", key), zap.Error(err))
        } else {
            log.Info("created folder", zap.String("folder", key))
        }
    }

    fmt.Println("\nSetup completed successfully!")
    fmt.Printf("- Bucket: %s\n", bucketName)
    fmt.Printf("- Region: %s\n", awsCfg.Region)
}
