package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
)

// DepartedBookingCompleter は出発済みフライトの確定予約を完了にするインターフェース
type DepartedBookingCompleter interface {
	CompleteDepartedBookings(ctx context.Context, now time.Time) (int, error)
}

// BookingCompleter は出発済みの予約を定期的に完了状態へ移すワーカー
type BookingCompleter struct {
	bookingService DepartedBookingCompleter
	interval       time.Duration
	now            func() time.Time
	stopOnce       sync.Once
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// NewBookingCompleter は新しいワーカーを作成
func NewBookingCompleter(bs DepartedBookingCompleter, interval time.Duration) *BookingCompleter {
	return &BookingCompleter{
		bookingService: bs,
		interval:       interval,
		now:            time.Now,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start はワーカーを開始し、停止するまでブロックする
func (w *BookingCompleter) Start(ctx context.Context) {
	logger.Info("予約完了ワーカー開始", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	// 起動直後に1回実行する
	w.complete(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("予約完了ワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("予約完了ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.complete(ctx)
		}
	}
}

// Stop はワーカーを停止し、終了を待つ
func (w *BookingCompleter) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

func (w *BookingCompleter) complete(ctx context.Context) {
	log := logger.Get()

	count, err := w.bookingService.CompleteDepartedBookings(ctx, w.now())
	if err != nil {
		log.Error("出発済み予約の完了処理に失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("出発済み予約を完了", zap.Int("count", count))
	} else {
		log.Debug("完了対象の予約なし")
	}
}
