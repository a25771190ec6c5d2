package seat

import (
	"context"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
)

// Filter は座席一覧の絞り込み条件
type Filter struct {
	Class         *flight.Class
	AvailableOnly bool
}

// Repository は座席リポジトリのインターフェース
type Repository interface {
	// CreateBulk は複数の座席を一括作成する（既存の座席番号は無視する）
	CreateBulk(ctx context.Context, seats []*Seat) error

	// GetByID はIDから座席を取得する
	GetByID(ctx context.Context, id string) (*Seat, error)

	// ListByFlight はフライトの座席を行・列順で取得する
	ListByFlight(ctx context.Context, flightID string, filter Filter) ([]*Seat, error)

	// CountByFlightID はフライトの座席総数を取得する
	CountByFlightID(ctx context.Context, flightID string) (int, error)

	// CountAvailable はクラスごとの空席数を取得する
	CountAvailable(ctx context.Context, flightID string, class flight.Class) (int, error)

	// CountOccupied はフライトの使用中座席数を取得する
	CountOccupied(ctx context.Context, flightID string) (int, error)

	// ReserveSeats は空席のみを使用中に更新する（トランザクション必須）
	// 更新件数が要求数に満たない場合は ErrSeatConflict を返す
	ReserveSeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error

	// ReleaseSeats は座席を空席に戻す（トランザクション必須）
	ReleaseSeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error
}
