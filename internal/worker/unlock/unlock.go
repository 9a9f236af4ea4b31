// Package unlock はアカウントロックの自動解除ジョブを提供する。
// ログイン失敗の累積でロックされたアカウントのうち、ロック期限が切れた
// ものの試行回数をリセットする定期バッチ。ログイン経路でも期限切れは
// 判定されるため、このジョブは滞留レコードの後始末にあたる。
package unlock

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// LockClearer はロック解除処理のインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type LockClearer interface {
	ClearExpiredLocks(ctx context.Context, now time.Time) (int64, error)
}

// UnlockRecorder は解除件数のメトリクス記録のインターフェース。
type UnlockRecorder interface {
	RecordUnlockedAccounts(count int)
}

// Job は期限切れアカウントロックの解除ジョブ。
// 冪等: 解除対象がない場合でもエラーにならない。
type Job struct {
	users   LockClearer
	metrics UnlockRecorder
	logger  *slog.Logger
}

// NewJob は新しいJobを生成する。metricsはnilを許容する。
func NewJob(users LockClearer, metrics UnlockRecorder, logger *slog.Logger) *Job {
	return &Job{
		users:   users,
		metrics: metrics,
		logger:  logger,
	}
}

// Run は期限の切れたアカウントロックを解除する。
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()

	unlocked, err := j.users.ClearExpiredLocks(ctx, start)
	if err != nil {
		j.logger.Error("アカウントロック解除ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to clear expired locks: %w", err)
	}

	if j.metrics != nil && unlocked > 0 {
		j.metrics.RecordUnlockedAccounts(int(unlocked))
	}

	j.logger.Info("アカウントロック解除ジョブが完了しました",
		slog.Int64("unlocked_count", unlocked),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// RunPeriodic は指定間隔でRunを繰り返し実行する。
// コンテキストのキャンセルで停止する。起動直後に1回実行する。
func (j *Job) RunPeriodic(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("初回のロック解除実行に失敗しました", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("ロック解除実行に失敗しました", slog.String("error", err.Error()))
			}
		case <-ctx.Done():
			j.logger.Info("アカウントロック解除ワーカーを停止します")
			return
		}
	}
}
