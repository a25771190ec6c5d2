package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired は他の処理がロックを保持していて取得できなかったことを表す
var ErrNotAcquired = errors.New("ロックを取得できませんでした")

// Lock は取得済みの排他ロックを表すインターフェース
type Lock interface {
	Release(ctx context.Context) error
}

// Manager は排他ロックを管理するインターフェース
// ドメイン層が Redis に依存しないようにするための抽象化
type Manager interface {
	// AcquireWithRetry は retryDelay 間隔で最大 maxRetries 回ロック取得を試みる
	AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (Lock, error)
}
