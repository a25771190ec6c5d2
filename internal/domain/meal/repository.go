package meal

import "context"

// Repository は機内食リポジトリのインターフェース
type Repository interface {
	GetByID(ctx context.Context, id string) (*Meal, error)
	ListAvailable(ctx context.Context) ([]*Meal, error)
}
