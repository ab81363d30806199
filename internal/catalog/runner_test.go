package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"pcmdec/internal/core/domain"
	"pcmdec/internal/core/ports"
)

type fakePipeline struct {
	mu   sync.Mutex
	runs []string
	fail map[string]error
}

func (f *fakePipeline) Run(ctx context.Context, in, out string, keys ports.KeyResolver) (*domain.Result, error) {
	f.mu.Lock()
	f.runs = append(f.runs, in)
	f.mu.Unlock()
	if err := f.fail[in]; err != nil {
		return nil, err
	}
	return &domain.Result{InputPath: in, OutputPath: out, DecryptedBytes: 1}, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, r domain.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, r.OutputPath)
	return nil
}

type noKeys struct{}

func (noKeys) Lookup(string) (string, bool) { return "", false }

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRunner(t *testing.T) {
	for _, workers := range []int{0, 1, 4} {
		dir := t.TempDir()
		a := filepath.Join(dir, "a.pcm")
		b := filepath.Join(dir, "b.pcm")
		c := filepath.Join(dir, "c.pcm")
		touch(t, a)
		touch(t, b)
		touch(t, c)

		jobs := []domain.Job{
			{InputPath: a, OutputPath: filepath.Join(dir, "out", "a.mp4")},
			{InputPath: filepath.Join(dir, "missing.pcm"), OutputPath: filepath.Join(dir, "out", "missing.mp4")},
			{InputPath: b, OutputPath: filepath.Join(dir, "out", "b.mp4")},
			{InputPath: c, OutputPath: filepath.Join(dir, "out", "c.mp4")},
			{InputPath: c, OutputPath: filepath.Join(dir, "out", ".", "a.mp4")},
		}

		pipeline := &fakePipeline{fail: map[string]error{b: domain.ErrMissingKey}}
		publisher := &fakePublisher{}
		runner := &Runner{Pipeline: pipeline, Keys: noKeys{}, Workers: workers, Publisher: publisher}

		report := runner.Run(context.Background(), jobs)

		if report.RunID == "" {
			t.Error("expected a run id")
		}
		if report.Total != 5 {
			t.Errorf("Total = %d, want 5", report.Total)
		}
		if len(report.Succeeded) != 2 {
			t.Errorf("workers=%d: %d succeeded, want 2", workers, len(report.Succeeded))
		}
		if len(report.Skipped) != 1 || report.Skipped[0].InputPath != jobs[1].InputPath {
			t.Errorf("workers=%d: unexpected skipped %+v", workers, report.Skipped)
		}
		if len(report.Failed) != 2 {
			t.Fatalf("workers=%d: %d failed, want 2", workers, len(report.Failed))
		}
		if !errors.Is(report.Failed[0].Err, domain.ErrMissingKey) {
			t.Errorf("first failure = %v, want ErrMissingKey", report.Failed[0].Err)
		}
		if !errors.Is(report.Failed[1].Err, ErrDuplicateOutput) {
			t.Errorf("second failure = %v, want ErrDuplicateOutput", report.Failed[1].Err)
		}
		if len(pipeline.runs) != 3 {
			t.Errorf("pipeline ran %d times, want 3", len(pipeline.runs))
		}
		if len(publisher.published) != 2 {
			t.Errorf("published %d outputs, want 2", len(publisher.published))
		}
		if err := report.Err(); !errors.Is(err, domain.ErrMissingKey) {
			t.Errorf("Report.Err() = %v", err)
		}
	}
}

func TestRunnerPublishFailure(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.pcm")
	touch(t, in)

	publishErr := errors.New("bucket unavailable")
	runner := &Runner{
		Pipeline:  &fakePipeline{},
		Keys:      noKeys{},
		Publisher: &fakePublisher{err: publishErr},
	}
	report := runner.Run(context.Background(), []domain.Job{{InputPath: in, OutputPath: filepath.Join(dir, "a.mp4")}})
	if len(report.Failed) != 1 || !errors.Is(report.Failed[0].Err, publishErr) {
		t.Errorf("expected publish failure, got %+v", report.Failed)
	}
}

func TestRunnerCancelled(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.pcm")
	touch(t, in)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipeline := &fakePipeline{}
	runner := &Runner{Pipeline: pipeline, Keys: noKeys{}}
	report := runner.Run(ctx, []domain.Job{{InputPath: in, OutputPath: filepath.Join(dir, "a.mp4")}})

	if len(pipeline.runs) != 0 {
		t.Errorf("pipeline ran %d times after cancellation", len(pipeline.runs))
	}
	if len(report.Failed) != 1 || !errors.Is(report.Failed[0].Err, context.Canceled) {
		t.Errorf("expected cancellation failure, got %+v", report.Failed)
	}
}

func TestReportErrNil(t *testing.T) {
	r := &Report{Total: 2, Succeeded: make([]domain.Result, 2)}
	if err := r.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestRunnerKeepsRunID(t *testing.T) {
	r := &Runner{Pipeline: &fakePipeline{}, Keys: noKeys{}, RunID: "run-42"}
	report := r.Run(context.Background(), nil)
	if report.RunID != "run-42" {
		t.Errorf("RunID = %q, want run-42", report.RunID)
	}
	if report.Total != 0 || report.Err() != nil {
		t.Errorf("unexpected report %s", report)
	}
}
