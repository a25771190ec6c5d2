package flight

import (
	"strings"
	"time"
)

// Class は客室クラスを表す
type Class string

const (
	ClassEconomy  Class = "economy"
	ClassBusiness Class = "business"
)

// ParseClass は文字列から客室クラスを解釈する
func ParseClass(s string) (Class, error) {
	switch Class(strings.ToLower(strings.TrimSpace(s))) {
	case ClassEconomy:
		return ClassEconomy, nil
	case ClassBusiness:
		return ClassBusiness, nil
	}
	return "", ErrInvalidClass
}

// IsValid はクラスが定義済みかを返す
func (c Class) IsValid() bool {
	return c == ClassEconomy || c == ClassBusiness
}

// デフォルトの客室定員
const (
	DefaultEconomySeats  = 150
	DefaultBusinessSeats = 30
)

// Flight はフライトエンティティを表す
// 価格は季節調整済みの値を保持する
type Flight struct {
	ID              string
	FlightNumber    string
	OriginCode      string
	DestinationCode string
	DepartureAt     time.Time
	ArrivalAt       time.Time
	EconomyPrice    float64
	BusinessPrice   float64
	EconomySeats    int
	BusinessSeats   int
	NumberOfStops   int
	IsActive        bool
	CreatedAt       time.Time
}

// NewFlight は新しいフライトを作成する
func NewFlight(number, origin, destination string, departureAt, arrivalAt time.Time, economyPrice, businessPrice float64) *Flight {
	return &Flight{
		FlightNumber:    number,
		OriginCode:      origin,
		DestinationCode: destination,
		DepartureAt:     departureAt,
		ArrivalAt:       arrivalAt,
		EconomyPrice:    economyPrice,
		BusinessPrice:   businessPrice,
		EconomySeats:    DefaultEconomySeats,
		BusinessSeats:   DefaultBusinessSeats,
		IsActive:        true,
		CreatedAt:       time.Now(),
	}
}

// PriceFor はクラスごとの1人あたり価格を返す
func (f *Flight) PriceFor(class Class) float64 {
	if class == ClassBusiness {
		return f.BusinessPrice
	}
	return f.EconomyPrice
}

// HasDeparted は指定時刻に出発済みかを返す
func (f *Flight) HasDeparted(now time.Time) bool {
	return !f.DepartureAt.After(now)
}

// Validate はフライトの検証を行う
func (f *Flight) Validate() error {
	if f.FlightNumber == "" {
		return ErrFlightNumberRequired
	}
	if f.OriginCode == "" || f.DestinationCode == "" {
		return ErrRouteRequired
	}
	if f.OriginCode == f.DestinationCode {
		return ErrSameOriginDestination
	}
	if f.ArrivalAt.Before(f.DepartureAt) {
		return ErrInvalidSchedule
	}
	if f.EconomyPrice < 0 || f.BusinessPrice < 0 {
		return ErrInvalidPrice
	}
	return nil
}
