package main

import (
    "os"
    "path/filepath"
    "testing"
)

func TestLoadConfigLayering(t *testing.T) {
    path := filepath.Join(t.TempDir(), "pcmdec.yaml")
    yaml := "source_dir: from-file\nworkers: 2\nlog_level: debug\n"
    if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
        t.Fatal(err)
    }
    t.Setenv("PCMDEC_WORKERS", "3")
    t.Setenv("PCMDEC_DEST_ROOT", "from-env")

    cfg, opts, err := loadConfig([]string{"--config", path, "--workers", "5", "-i", "a.pcm", "-o", "a.mp4"})
    if err != nil {
        t.Fatalf("loadConfig failed: %v", err)
    }

    if cfg.SourceDir != "from-file" {
        t.Errorf("SourceDir = %q, want from-file", cfg.SourceDir)
    }
    if cfg.DestRoot != "from-env" {
        t.Errorf("DestRoot = %q, want from-env", cfg.DestRoot)
    }
    if cfg.Workers != 5 {
        t.Errorf("Workers = %d, want 5", cfg.Workers)
    }
    if cfg.LogLevel != "debug" {
        t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
    }
    if opts.input != "a.pcm" || opts.output != "a.mp4" {
        t.Errorf("unexpected options %+v", opts)
    }
}

func TestLoadConfigErrors(t *testing.T) {
    if _, _, err := loadConfig([]string{"--no-such-flag"}); err == nil {
        t.Error("expected error for unknown flag")
    }
    if _, _, err := loadConfig([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
        t.Error("expected error for missing config file")
    }
}
