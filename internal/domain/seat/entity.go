package seat

import (
	"fmt"
	"time"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
)

// Seat は座席エンティティを表す
// クラスと座席位置は作成後に変化しない
type Seat struct {
	ID          string
	FlightID    string
	Row         int
	Letter      string
	Class       flight.Class
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSeat は新しい空席を作成する
func NewSeat(flightID string, row int, letter string, class flight.Class) *Seat {
	now := time.Now()
	return &Seat{
		FlightID:    flightID,
		Row:         row,
		Letter:      letter,
		Class:       class,
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SeatNumber は "14C" 形式の座席番号を返す
func (s *Seat) SeatNumber() string {
	return fmt.Sprintf("%d%s", s.Row, s.Letter)
}

// IsWindow は窓側席かを返す
func (s *Seat) IsWindow() bool {
	return s.Letter == "A" || s.Letter == "F"
}

// IsAisle は通路側席かを返す
func (s *Seat) IsAisle() bool {
	return s.Letter == "C" || s.Letter == "D"
}

// Reserve は座席を使用中にする
func (s *Seat) Reserve() error {
	if !s.IsAvailable {
		return ErrSeatNotAvailable
	}
	s.IsAvailable = false
	s.UpdatedAt = time.Now()
	return nil
}

// Release は座席を空席に戻す（空席に対しては何もしない）
func (s *Seat) Release() {
	if s.IsAvailable {
		return
	}
	s.IsAvailable = true
	s.UpdatedAt = time.Now()
}

// BelongsTo は座席が指定フライト・クラスに属するかを返す
func (s *Seat) BelongsTo(flightID string, class flight.Class) bool {
	return s.FlightID == flightID && s.Class == class
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.FlightID == "" {
		return ErrFlightIDRequired
	}
	if s.Row <= 0 || s.Letter == "" {
		return ErrSeatNumberRequired
	}
	if !s.Class.IsValid() {
		return flight.ErrInvalidClass
	}
	return nil
}
