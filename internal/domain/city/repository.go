package city

import "context"

// Repository は都市リポジトリのインターフェース
type Repository interface {
	// GetByCode は空港コードから都市を取得する
	GetByCode(ctx context.Context, code string) (*City, error)

	// ListActive は有効な都市を名前順で取得する
	ListActive(ctx context.Context) ([]*City, error)
}
