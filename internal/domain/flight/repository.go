package flight

import (
	"context"
	"time"
)

// Repository はフライトリポジトリのインターフェース
type Repository interface {
	// Create は新しいフライトを作成する
	Create(ctx context.Context, flight *Flight) error

	// GetByID はIDからフライトを取得する
	GetByID(ctx context.Context, id string) (*Flight, error)

	// GetByIDs は複数IDのフライトを取得する
	GetByIDs(ctx context.Context, ids []string) ([]*Flight, error)

	// SearchByRoute は路線と出発日で有効なフライトを検索する
	SearchByRoute(ctx context.Context, origin, destination string, date time.Time) ([]*Flight, error)
}
