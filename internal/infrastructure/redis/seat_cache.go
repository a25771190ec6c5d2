package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// SeatCache はフライト・クラスごとの空席数キャッシュを管理する
type SeatCache struct {
	client *redis.Client
}

// NewSeatCache は新しいSeatCacheインスタンスを作成する
func NewSeatCache(client *redis.Client) *SeatCache {
	return &SeatCache{client: client}
}

// GetAvailableCount は空席数をキャッシュから取得する
func (c *SeatCache) GetAvailableCount(ctx context.Context, flightID string, class flight.Class) (int, error) {
	val, err := c.client.Get(ctx, availableCountKey(flightID, class)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetAvailableCount は空席数をキャッシュに保存する
func (c *SeatCache) SetAvailableCount(ctx context.Context, flightID string, class flight.Class, count int, ttl time.Duration) error {
	if err := c.client.Set(ctx, availableCountKey(flightID, class), count, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はフライトの全クラスのキャッシュを無効化する
func (c *SeatCache) Invalidate(ctx context.Context, flightID string) error {
	keys := []string{
		availableCountKey(flightID, flight.ClassEconomy),
		availableCountKey(flightID, flight.ClassBusiness),
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func availableCountKey(flightID string, class flight.Class) string {
	return fmt.Sprintf("seats:available:%s:%s", flightID, class)
}
