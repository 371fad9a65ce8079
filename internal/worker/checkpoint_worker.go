package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reconciler는 인덱스와 어긋난 dish_ids 스냅샷을 복구합니다.
type Reconciler interface {
	ReconcileSnapshots(ctx context.Context) (int, error)
}

// CheckpointWorker는 주기적으로 dish_ids 스냅샷을 인덱스와 맞춥니다.
type CheckpointWorker struct {
	Store    Reconciler
	Interval time.Duration
	Log      zerolog.Logger
}

func NewCheckpointWorker(store Reconciler, interval time.Duration, log zerolog.Logger) *CheckpointWorker {
	return &CheckpointWorker{
		Store:    store,
		Interval: interval,
		Log:      log,
	}
}

// Run: 컨텍스트가 취소될 때까지 Interval마다 체크포인트를 실행
func (w *CheckpointWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.Log.Info().Dur("interval", w.Interval).Msg("checkpoint worker started")

	for {
		select {
		case <-ctx.Done():
			w.Log.Info().Msg("checkpoint worker stopped")
			return
		case <-ticker.C:
			w.ProcessCheckpoint(ctx)
		}
	}
}

// ProcessCheckpoint: 한 번의 정합성 복구를 실행하고 고친 행 수를 반환
func (w *CheckpointWorker) ProcessCheckpoint(ctx context.Context) int {
	repaired, err := w.Store.ReconcileSnapshots(ctx)
	if err != nil {
		w.Log.Error().Err(err).Msg("checkpoint failed")
		return 0
	}
	if repaired > 0 {
		w.Log.Info().Int("repaired", repaired).Msg("checkpoint repaired dish_ids snapshots")
	}
	return repaired
}
