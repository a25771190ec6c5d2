package booking

import (
	"context"
	"time"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は予約と明細を作成する（トランザクション必須）
	// 予約番号が既に存在する場合は ErrReferenceConflict を返す
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetByReference は予約番号から予約を取得する
	GetByReference(ctx context.Context, reference string) (*Booking, error)

	// ListByUser はユーザーの予約を新しい順に取得する
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Booking, error)

	// UpdateStatus は保留中の予約の状態・確定日時・キャンセル情報を更新する（トランザクション必須）
	// 既に他の遷移が確定していれば ErrBookingNotPending を返す
	UpdateStatus(ctx context.Context, tx transaction.Tx, b *Booking) error

	// ReleaseLines は予約の明細を解放済みにする（トランザクション必須）
	ReleaseLines(ctx context.Context, tx transaction.Tx, bookingID string) error

	// CompleteDeparted は全フライトが出発済みの確定予約を搭乗完了にする
	CompleteDeparted(ctx context.Context, now time.Time) (int, error)
}
