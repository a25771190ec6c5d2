package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/metrics"
)

const (
	seatCacheTTL = 30 * time.Second
)

type SeatService struct {
	txManager  transaction.Manager
	seatRepo   seat.Repository
	flightRepo flight.Repository
	cache      SeatCache
	newRand    func() *rand.Rand
}

func NewSeatService(txm transaction.Manager, sr seat.Repository, fr flight.Repository, cache SeatCache) *SeatService {
	return &SeatService{txManager: txm, seatRepo: sr, flightRepo: fr, cache: cache, newRand: newLocalRand}
}

// newLocalRand は呼び出しごとの乱数源を返す（グローバルな乱数源は共有しない）
func newLocalRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// GenerateSeatMap はフライトの座席表を作成し、作成した座席数を返す
// 既に座席がある場合は何もせず0を返す
func (s *SeatService) GenerateSeatMap(ctx context.Context, flightID string) (int, error) {
	if _, err := s.flightRepo.GetByID(ctx, flightID); err != nil {
		return 0, fmt.Errorf("フライト取得に失敗: %w", err)
	}
	existing, err := s.seatRepo.CountByFlightID(ctx, flightID)
	if err != nil {
		return 0, fmt.Errorf("座席数取得に失敗: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}

	seats := seat.GenerateLayout(flightID)
	if err := s.seatRepo.CreateBulk(ctx, seats); err != nil {
		return 0, err
	}
	s.InvalidateCache(ctx, flightID)

	logger.FromContext(ctx).Info("座席表を作成しました",
		zap.String("flight_id", flightID), zap.Int("seats", len(seats)))
	return len(seats), nil
}

func (s *SeatService) GetSeat(ctx context.Context, id string) (*seat.Seat, error) {
	return s.seatRepo.GetByID(ctx, id)
}

// ListSeats はフライトの座席表を取得する
func (s *SeatService) ListSeats(ctx context.Context, flightID string, filter seat.Filter) ([]*seat.Seat, error) {
	if _, err := s.flightRepo.GetByID(ctx, flightID); err != nil {
		return nil, fmt.Errorf("フライト取得に失敗: %w", err)
	}
	return s.seatRepo.ListByFlight(ctx, flightID, filter)
}

// CountAvailable はクラスごとの空席数を返す（キャッシュ優先）
func (s *SeatService) CountAvailable(ctx context.Context, flightID string, class flight.Class) (int, error) {
	if !class.IsValid() {
		return 0, flight.ErrInvalidClass
	}

	// キャッシュから取得を試みる
	if s.cache != nil {
		count, err := s.cache.GetAvailableCount(ctx, flightID, class)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("flight_id", flightID), zap.String("class", string(class)), zap.Int("count", count))
			return count, nil
		}
		logger.Debug("キャッシュ未使用", zap.String("flight_id", flightID), zap.Error(err))
	}

	// DBから取得
	count, err := s.seatRepo.CountAvailable(ctx, flightID, class)
	if err != nil {
		return 0, err
	}

	// キャッシュに保存
	if s.cache != nil {
		if cacheErr := s.cache.SetAvailableCount(ctx, flightID, class, count, seatCacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}

	return count, nil
}

// IsAvailable は座席が存在し空席であるかを返す（存在しない座席は false）
func (s *SeatService) IsAvailable(ctx context.Context, seatID string) (bool, error) {
	se, err := s.seatRepo.GetByID(ctx, seatID)
	if err != nil {
		if errors.Is(err, seat.ErrSeatNotFound) {
			return false, nil
		}
		return false, err
	}
	return se.IsAvailable, nil
}

// HasEnoughSeats はクラスの空席数が count 以上かを返す
// 予約判定に使うためキャッシュは参照しない
func (s *SeatService) HasEnoughSeats(ctx context.Context, flightID string, class flight.Class, count int) (bool, error) {
	if !class.IsValid() {
		return false, flight.ErrInvalidClass
	}
	available, err := s.seatRepo.CountAvailable(ctx, flightID, class)
	if err != nil {
		return false, err
	}
	return available >= count, nil
}

// ReserveSeats は指定座席をすべて確保する。1席でも確保できなければ何も変更しない
func (s *SeatService) ReserveSeats(ctx context.Context, flightID string, class flight.Class, seatIDs []string) error {
	if _, err := s.loadSeats(ctx, flightID, class, seatIDs, false); err != nil {
		return err
	}

	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		return s.seatRepo.ReserveSeats(ctx, tx, seatIDs)
	})
	if err != nil {
		return err
	}

	s.InvalidateCache(ctx, flightID)
	metrics.RecordSeatsReserved(string(class), len(seatIDs))
	return nil
}

// ReleaseSeat は座席を空席に戻す。既に空席の場合も成功する
func (s *SeatService) ReleaseSeat(ctx context.Context, seatID string) error {
	se, err := s.seatRepo.GetByID(ctx, seatID)
	if err != nil {
		return err
	}

	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		return s.seatRepo.ReleaseSeats(ctx, tx, []string{seatID})
	})
	if err != nil {
		return err
	}

	if !se.IsAvailable {
		metrics.RecordSeatsReleased(1)
	}
	s.InvalidateCache(ctx, se.FlightID)
	return nil
}

// SimulateOccupancy は既存の乗客を模擬して座席の一部を使用中にし、使用中にした座席数を返す
// 既に使用中の座席があるフライトでは何もしない
func (s *SeatService) SimulateOccupancy(ctx context.Context, flightID string, economyCount, businessCount int) (int, error) {
	occupied, err := s.seatRepo.CountOccupied(ctx, flightID)
	if err != nil {
		return 0, fmt.Errorf("使用中座席数取得に失敗: %w", err)
	}
	if occupied > 0 {
		return 0, nil
	}

	rng := s.newRand()
	var ids []string
	for _, target := range []struct {
		class flight.Class
		count int
	}{
		{flight.ClassEconomy, economyCount},
		{flight.ClassBusiness, businessCount},
	} {
		if target.count <= 0 {
			continue
		}
		class := target.class
		available, err := s.seatRepo.ListByFlight(ctx, flightID, seat.Filter{Class: &class, AvailableOnly: true})
		if err != nil {
			return 0, fmt.Errorf("空席一覧取得に失敗: %w", err)
		}
		rng.Shuffle(len(available), func(i, j int) { available[i], available[j] = available[j], available[i] })
		n := target.count
		if n > len(available) {
			n = len(available)
		}
		for _, se := range available[:n] {
			ids = append(ids, se.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		return s.seatRepo.ReserveSeats(ctx, tx, ids)
	})
	if err != nil {
		return 0, err
	}
	s.InvalidateCache(ctx, flightID)
	return len(ids), nil
}

// InvalidateCache はフライトの空席数キャッシュを無効化する
func (s *SeatService) InvalidateCache(ctx context.Context, flightID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, flightID); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(err))
		}
	}
}

// loadSeats は座席IDを検証し、座席を取得する
// requireAvailable が true の場合は空席でない座席を ErrSeatNotAvailable とする
func (s *SeatService) loadSeats(ctx context.Context, flightID string, class flight.Class, seatIDs []string, requireAvailable bool) ([]*seat.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, seat.ErrSeatIDsRequired
	}
	if hasDuplicates(seatIDs) {
		return nil, seat.ErrDuplicateSeatIDs
	}
	if !class.IsValid() {
		return nil, flight.ErrInvalidClass
	}

	seats := make([]*seat.Seat, 0, len(seatIDs))
	for _, id := range seatIDs {
		se, err := s.seatRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !se.BelongsTo(flightID, class) {
			return nil, fmt.Errorf("%w: %s", seat.ErrSeatFlightMismatch, se.SeatNumber())
		}
		if requireAvailable && !se.IsAvailable {
			return nil, fmt.Errorf("%w: %s", seat.ErrSeatNotAvailable, se.SeatNumber())
		}
		seats = append(seats, se)
	}
	return seats, nil
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
