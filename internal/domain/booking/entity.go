package booking

import (
	"math/rand"
	"strings"
	"time"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
)

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

const (
	// CancellationWindow は搭乗日の何日前までキャンセルできるか
	CancellationWindow = 7 * 24 * time.Hour

	// ReferenceLength は予約番号の桁数
	ReferenceLength = 8

	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewReference は [A-Z0-9] からなる8桁の予約番号を生成する
func NewReference(rng *rand.Rand) string {
	b := make([]byte, ReferenceLength)
	for i := range b {
		b[i] = referenceAlphabet[rng.Intn(len(referenceAlphabet))]
	}
	return string(b)
}

// IsValidReference は予約番号の形式を検証する
func IsValidReference(ref string) bool {
	if len(ref) != ReferenceLength {
		return false
	}
	for i := 0; i < len(ref); i++ {
		if !strings.ContainsRune(referenceAlphabet, rune(ref[i])) {
			return false
		}
	}
	return true
}

// Passenger は搭乗者情報
type Passenger struct {
	FirstName      string
	LastName       string
	PassportNumber string
	DateOfBirth    *time.Time
	Email          string
	Phone          string
}

// Validate は搭乗者情報を検証する
func (p Passenger) Validate() error {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return ErrPassengerNameRequired
	}
	if !strings.Contains(p.Email, "@") {
		return ErrPassengerEmailRequired
	}
	return nil
}

// FullName は氏名を返す
func (p Passenger) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Line は予約とフライトを結ぶ明細（座席・機内食は任意）
type Line struct {
	ID         string
	BookingID  string
	FlightID   string
	SeatID     *string
	MealID     *string
	Class      flight.Class
	Price      float64
	ReleasedAt *time.Time
}

// Booking は予約エンティティを表す
type Booking struct {
	ID                 string
	Reference          string
	UserID             string
	Status             Status
	Passenger          Passenger
	TotalAmount        float64
	Lines              []Line
	CancellationReason string
	CancelledAt        *time.Time
	ConfirmedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewBooking は保留中の予約を作成する（予約番号は保存時に採番する）
func NewBooking(userID string, passenger Passenger, lines []Line, totalAmount float64) *Booking {
	now := time.Now()
	return &Booking{
		UserID:      userID,
		Status:      StatusPending,
		Passenger:   passenger,
		TotalAmount: totalAmount,
		Lines:       lines,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SeatIDs は明細に紐づく座席IDを返す
func (b *Booking) SeatIDs() []string {
	ids := make([]string, 0, len(b.Lines))
	for _, l := range b.Lines {
		if l.SeatID != nil {
			ids = append(ids, *l.SeatID)
		}
	}
	return ids
}

// FlightIDs は明細のフライトIDを重複なしで返す
func (b *Booking) FlightIDs() []string {
	seen := make(map[string]bool, len(b.Lines))
	ids := make([]string, 0, len(b.Lines))
	for _, l := range b.Lines {
		if !seen[l.FlightID] {
			seen[l.FlightID] = true
			ids = append(ids, l.FlightID)
		}
	}
	return ids
}

// IsOwnedBy は予約が指定ユーザーのものかを返す
func (b *Booking) IsOwnedBy(userID string) bool {
	return b.UserID == userID
}

// IsPending は予約が保留中かを返す
func (b *Booking) IsPending() bool {
	return b.Status == StatusPending
}

// Confirm は予約を確定する
func (b *Booking) Confirm() error {
	if b.Status != StatusPending {
		return ErrBookingNotPending
	}
	now := time.Now()
	b.Status = StatusConfirmed
	b.ConfirmedAt = &now
	b.UpdatedAt = now
	return nil
}

// CanCancel は搭乗日時 travelAt に対して now 時点でキャンセル可能かを返す
func (b *Booking) CanCancel(travelAt, now time.Time) error {
	if b.Status == StatusCancelled {
		return ErrBookingAlreadyCancelled
	}
	if b.Status != StatusPending {
		return ErrBookingNotPending
	}
	if travelAt.Sub(now) <= CancellationWindow {
		return ErrCancellationWindowClosed
	}
	return nil
}

// Cancel は予約をキャンセルし、明細を解放済みにする
func (b *Booking) Cancel(reason string, travelAt, now time.Time) error {
	if err := b.CanCancel(travelAt, now); err != nil {
		return err
	}
	b.Status = StatusCancelled
	b.CancellationReason = reason
	b.CancelledAt = &now
	b.UpdatedAt = now
	for i := range b.Lines {
		b.Lines[i].ReleasedAt = &now
	}
	return nil
}

// Complete は確定済み予約を搭乗完了にする
func (b *Booking) Complete() error {
	if b.Status != StatusConfirmed {
		return ErrBookingNotConfirmed
	}
	b.Status = StatusCompleted
	b.UpdatedAt = time.Now()
	return nil
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if len(b.Lines) == 0 {
		return ErrLinesRequired
	}
	if b.TotalAmount < 0 {
		return ErrInvalidAmount
	}
	return b.Passenger.Validate()
}
