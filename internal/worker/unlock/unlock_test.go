package unlock

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type mockClearer struct {
	called   bool
	now      time.Time
	unlocked int64
	err      error
}

func (m *mockClearer) ClearExpiredLocks(_ context.Context, now time.Time) (int64, error) {
	m.called = true
	m.now = now
	return m.unlocked, m.err
}

type mockRecorder struct {
	recorded int
}

func (m *mockRecorder) RecordUnlockedAccounts(count int) {
	m.recorded += count
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// 実行時に現在時刻でロック解除が呼ばれることを検証
func TestRun_ClearsExpiredLocks(t *testing.T) {
	var buf bytes.Buffer
	clearer := &mockClearer{unlocked: 3}
	recorder := &mockRecorder{}
	job := NewJob(clearer, recorder, newTestLogger(&buf))

	before := time.Now()
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !clearer.called {
		t.Fatal("expected ClearExpiredLocks to be called")
	}
	if clearer.now.Before(before) {
		t.Errorf("now = %v, want at or after %v", clearer.now, before)
	}
	if recorder.recorded != 3 {
		t.Errorf("recorded = %d, want 3", recorder.recorded)
	}
	if !strings.Contains(buf.String(), "unlocked_count") {
		t.Error("expected completion log with unlocked_count")
	}
}

// 解除対象ゼロ件が成功扱いでメトリクス未記録になることを検証
func TestRun_NoExpiredLocks(t *testing.T) {
	var buf bytes.Buffer
	recorder := &mockRecorder{}
	job := NewJob(&mockClearer{unlocked: 0}, recorder, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if recorder.recorded != 0 {
		t.Errorf("recorded = %d, want 0", recorder.recorded)
	}
}

// ストレージエラーがラップして返ることを検証
func TestRun_PropagatesError(t *testing.T) {
	var buf bytes.Buffer
	job := NewJob(&mockClearer{err: errors.New("connection refused")}, nil, newTestLogger(&buf))

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error = %v, want wrapped cause", err)
	}
}

// メトリクスがnilでも実行できることを検証
func TestRun_NilMetrics(t *testing.T) {
	var buf bytes.Buffer
	job := NewJob(&mockClearer{unlocked: 1}, nil, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

// コンテキストのキャンセルで定期実行が停止することを検証
func TestRunPeriodic_StopsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	job := NewJob(&mockClearer{}, nil, newTestLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.RunPeriodic(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunPeriodic did not stop after cancel")
	}
}
