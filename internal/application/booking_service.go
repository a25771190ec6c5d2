package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/config"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/lock"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/meal"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/pricing"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/metrics"
)

const (
	defaultListLimit  = 20
	maxListLimit      = 100
	notifyTimeout     = 5 * time.Second
	notifyKindConfirm = "confirmation"
	notifyKindCancel  = "cancellation"
)

type BookingService struct {
	txManager   transaction.Manager
	bookingRepo booking.Repository
	seatRepo    seat.Repository
	flightRepo  flight.Repository
	mealRepo    meal.Repository
	seats       *SeatService
	lockManager lock.Manager
	notifier    Notifier
	cfg         config.BookingConfig
	now         func() time.Time
	newRand     func() *rand.Rand
}

func NewBookingService(
	txm transaction.Manager,
	br booking.Repository,
	sr seat.Repository,
	fr flight.Repository,
	mr meal.Repository,
	seats *SeatService,
	lm lock.Manager,
	notifier Notifier,
	cfg config.BookingConfig,
) *BookingService {
	if cfg.ReferenceAttempts < 1 {
		cfg.ReferenceAttempts = 1
	}
	return &BookingService{
		txManager: txm, bookingRepo: br, seatRepo: sr, flightRepo: fr, mealRepo: mr,
		seats: seats, lockManager: lm, notifier: notifier, cfg: cfg,
		now: time.Now, newRand: newLocalRand,
	}
}

type CreateBookingInput struct {
	UserID         string
	FlightID       string
	Class          flight.Class
	PassengerCount int
	SeatIDs        []string
	MealID         string
	Passenger      booking.Passenger
}

func (in CreateBookingInput) validate() error {
	if in.UserID == "" {
		return booking.ErrUserIDRequired
	}
	if in.PassengerCount < 1 {
		return booking.ErrInvalidPassengerCount
	}
	// 座席指定は任意だが、指定する場合は搭乗者数と一致させる
	if len(in.SeatIDs) != 0 && len(in.SeatIDs) != in.PassengerCount {
		return booking.ErrSeatCountMismatch
	}
	if hasDuplicates(in.SeatIDs) {
		return seat.ErrDuplicateSeatIDs
	}
	if !in.Class.IsValid() {
		return flight.ErrInvalidClass
	}
	return in.Passenger.Validate()
}

// CreateBooking は予約を作成し、指定座席を確保する
// 予約・明細の作成と座席の確保は1つのトランザクションで行う
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*booking.Booking, error) {
	log := logger.FromContext(ctx)

	if err := input.validate(); err != nil {
		metrics.RecordBooking("invalid")
		return nil, err
	}

	f, err := s.flightRepo.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, fmt.Errorf("フライト取得に失敗: %w", err)
	}

	var mealID *string
	if input.MealID != "" {
		m, err := s.mealRepo.GetByID(ctx, input.MealID)
		if err != nil {
			return nil, fmt.Errorf("機内食取得に失敗: %w", err)
		}
		if !m.IsAvailable {
			return nil, meal.ErrMealNotAvailable
		}
		mealID = &m.ID
	}

	enough, err := s.seats.HasEnoughSeats(ctx, f.ID, input.Class, input.PassengerCount)
	if err != nil {
		return nil, fmt.Errorf("空席確認に失敗: %w", err)
	}
	if !enough {
		metrics.RecordBooking("sold_out")
		return nil, booking.ErrNotEnoughSeats
	}

	if len(input.SeatIDs) > 0 {
		if _, err := s.seats.loadSeats(ctx, f.ID, input.Class, input.SeatIDs, true); err != nil {
			return nil, err
		}

		// 分散ロックを取得（座席IDをソートして同じ組み合わせは同じキーにする）
		l, err := s.acquireSeatLock(ctx, input.SeatIDs)
		if err != nil {
			metrics.RecordBooking("conflict")
			return nil, err
		}
		if l != nil {
			defer func() {
				if err := l.Release(ctx); err != nil {
					log.Warn("ロック解放エラー", zap.Error(err))
				}
			}()
		}
	}

	unitPrice := f.PriceFor(input.Class)
	total := pricing.Round2(unitPrice * float64(input.PassengerCount))
	b := booking.NewBooking(input.UserID, input.Passenger, buildLines(f.ID, input.Class, input.SeatIDs, mealID, unitPrice, total), total)
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if err := s.persist(ctx, b); err != nil {
		if errors.Is(err, seat.ErrSeatConflict) {
			metrics.RecordBooking("conflict")
		} else {
			metrics.RecordBooking("failed")
		}
		return nil, err
	}

	s.seats.InvalidateCache(ctx, f.ID)
	metrics.RecordBooking("success")
	metrics.RecordSeatsReserved(string(input.Class), len(input.SeatIDs))
	log.Info("予約を作成しました",
		zap.String("booking_id", b.ID),
		zap.String("reference", b.Reference),
		zap.String("flight_id", f.ID),
		zap.Int("seats", len(input.SeatIDs)),
	)

	s.notify(ctx, notifyKindConfirm, b)
	return b, nil
}

// persist は予約番号を採番し直しながら予約を保存する
func (s *BookingService) persist(ctx context.Context, b *booking.Booking) error {
	rng := s.newRand()
	seatIDs := b.SeatIDs()
	for attempt := 0; attempt < s.cfg.ReferenceAttempts; attempt++ {
		b.Reference = booking.NewReference(rng)
		err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
			if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
				return err
			}
			return s.seatRepo.ReserveSeats(ctx, tx, seatIDs)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, booking.ErrReferenceConflict) {
			return err
		}
		logger.FromContext(ctx).Debug("予約番号が重複したため再採番します", zap.Int("attempt", attempt+1))
	}
	return booking.ErrReferenceExhausted
}

func (s *BookingService) acquireSeatLock(ctx context.Context, seatIDs []string) (lock.Lock, error) {
	if s.lockManager == nil {
		return nil, nil
	}
	l, err := s.lockManager.AcquireWithRetry(ctx, seatLockKey(seatIDs), s.cfg.LockTTL, s.cfg.LockRetries, s.cfg.LockRetryDelay)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, booking.ErrSeatsBeingProcessed
		}
		// ロックは競合を減らすためだけのもので、整合性はDBの条件付き更新が保証する
		logger.FromContext(ctx).Warn("ロックなしで処理を続行します", zap.Error(err))
		return nil, nil
	}
	return l, nil
}

func seatLockKey(seatIDs []string) string {
	sorted := make([]string, len(seatIDs))
	copy(sorted, seatIDs)
	sort.Strings(sorted)
	return "seats:" + strings.Join(sorted, ",")
}

func buildLines(flightID string, class flight.Class, seatIDs []string, mealID *string, unitPrice, total float64) []booking.Line {
	if len(seatIDs) == 0 {
		return []booking.Line{{FlightID: flightID, MealID: mealID, Class: class, Price: total}}
	}
	lines := make([]booking.Line, 0, len(seatIDs))
	for i := range seatIDs {
		seatID := seatIDs[i]
		lines = append(lines, booking.Line{FlightID: flightID, SeatID: &seatID, MealID: mealID, Class: class, Price: unitPrice})
	}
	return lines
}

type CancelBookingInput struct {
	BookingID string
	UserID    string
	Reason    string
}

// CancelBooking は保留中の予約をキャンセルし、座席を解放する
// 搭乗日の7日前を過ぎた予約はキャンセルできない
func (s *BookingService) CancelBooking(ctx context.Context, input CancelBookingInput) (*booking.Booking, error) {
	b, err := s.getOwned(ctx, input.BookingID, input.UserID)
	if err != nil {
		return nil, err
	}

	travelAt, err := s.travelDate(ctx, b)
	if err != nil {
		return nil, err
	}
	if err := b.Cancel(input.Reason, travelAt, s.now()); err != nil {
		metrics.RecordCancellation("rejected")
		return nil, err
	}

	seatIDs := b.SeatIDs()
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		if err := s.bookingRepo.UpdateStatus(ctx, tx, b); err != nil {
			return err
		}
		if err := s.bookingRepo.ReleaseLines(ctx, tx, b.ID); err != nil {
			return err
		}
		return s.seatRepo.ReleaseSeats(ctx, tx, seatIDs)
	})
	if err != nil {
		metrics.RecordCancellation("failed")
		return nil, err
	}

	for _, flightID := range b.FlightIDs() {
		s.seats.InvalidateCache(ctx, flightID)
	}
	metrics.RecordCancellation("success")
	metrics.RecordSeatsReleased(len(seatIDs))
	logger.FromContext(ctx).Info("予約をキャンセルしました",
		zap.String("booking_id", b.ID), zap.String("reference", b.Reference), zap.Int("released_seats", len(seatIDs)))

	s.notify(ctx, notifyKindCancel, b)
	return b, nil
}

// travelDate は予約に含まれるフライトのうち最も早い出発日時を返す
func (s *BookingService) travelDate(ctx context.Context, b *booking.Booking) (time.Time, error) {
	flights, err := s.flightRepo.GetByIDs(ctx, b.FlightIDs())
	if err != nil {
		return time.Time{}, fmt.Errorf("フライト取得に失敗: %w", err)
	}
	if len(flights) == 0 {
		return time.Time{}, flight.ErrFlightNotFound
	}
	earliest := flights[0].DepartureAt
	for _, f := range flights[1:] {
		if f.DepartureAt.Before(earliest) {
			earliest = f.DepartureAt
		}
	}
	return earliest, nil
}

// ConfirmBooking は保留中の予約を確定する
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, userID string) (*booking.Booking, error) {
	b, err := s.getOwned(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if err := b.Confirm(); err != nil {
		return nil, err
	}
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		return s.bookingRepo.UpdateStatus(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordBooking("confirmed")
	return b, nil
}

// GetBooking は利用者自身の予約を取得する
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID string) (*booking.Booking, error) {
	return s.getOwned(ctx, bookingID, userID)
}

// GetBookingByReference は予約番号から利用者自身の予約を取得する
func (s *BookingService) GetBookingByReference(ctx context.Context, reference, userID string) (*booking.Booking, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	if !booking.IsValidReference(reference) {
		return nil, booking.ErrBookingNotFound
	}
	b, err := s.bookingRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !b.IsOwnedBy(userID) {
		return nil, booking.ErrBookingNotFound
	}
	return b, nil
}

// ListUserBookings は利用者の予約履歴を新しい順に返す
func (s *BookingService) ListUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	if userID == "" {
		return nil, booking.ErrUserIDRequired
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.ListByUser(ctx, userID, limit, offset)
}

// CompleteDepartedBookings は全フライトが出発済みの確定予約を搭乗完了にする
func (s *BookingService) CompleteDepartedBookings(ctx context.Context, now time.Time) (int, error) {
	n, err := s.bookingRepo.CompleteDeparted(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.FromContext(ctx).Info("搭乗完了にしました", zap.Int("count", n))
	}
	return n, nil
}

// getOwned は予約を取得する。他人の予約は存在しないものとして扱う
func (s *BookingService) getOwned(ctx context.Context, bookingID, userID string) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsOwnedBy(userID) {
		return nil, booking.ErrBookingNotFound
	}
	return b, nil
}

// notify は通知を送信する。失敗してもエラーは返さない
func (s *BookingService) notify(ctx context.Context, kind string, b *booking.Booking) {
	if s.notifier == nil {
		return
	}
	// リクエストのキャンセルに引きずられないようにする
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	var err error
	switch kind {
	case notifyKindConfirm:
		err = s.notifier.SendBookingConfirmation(nctx, b)
	case notifyKindCancel:
		err = s.notifier.SendBookingCancellation(nctx, b)
	}
	if err != nil {
		metrics.RecordNotification(kind, "failed")
		logger.FromContext(ctx).Warn("予約通知の送信に失敗しました",
			zap.String("kind", kind), zap.String("reference", b.Reference), zap.Error(err))
		return
	}
	metrics.RecordNotification(kind, "sent")
}
