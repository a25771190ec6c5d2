package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
)

const flightColumns = `id, flight_number, origin_code, destination_code, departure_at, arrival_at,
	economy_price, business_price, economy_seats, business_seats, number_of_stops, is_active, created_at`

type flightRow struct {
	ID              string    `db:"id"`
	FlightNumber    string    `db:"flight_number"`
	OriginCode      string    `db:"origin_code"`
	DestinationCode string    `db:"destination_code"`
	DepartureAt     time.Time `db:"departure_at"`
	ArrivalAt       time.Time `db:"arrival_at"`
	EconomyPrice    float64   `db:"economy_price"`
	BusinessPrice   float64   `db:"business_price"`
	EconomySeats    int       `db:"economy_seats"`
	BusinessSeats   int       `db:"business_seats"`
	NumberOfStops   int       `db:"number_of_stops"`
	IsActive        bool      `db:"is_active"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r *flightRow) toEntity() *flight.Flight {
	return &flight.Flight{
		ID: r.ID, FlightNumber: r.FlightNumber,
		OriginCode: r.OriginCode, DestinationCode: r.DestinationCode,
		DepartureAt: r.DepartureAt, ArrivalAt: r.ArrivalAt,
		EconomyPrice: r.EconomyPrice, BusinessPrice: r.BusinessPrice,
		EconomySeats: r.EconomySeats, BusinessSeats: r.BusinessSeats,
		NumberOfStops: r.NumberOfStops, IsActive: r.IsActive, CreatedAt: r.CreatedAt,
	}
}

func toFlights(rows []flightRow) []*flight.Flight {
	flights := make([]*flight.Flight, len(rows))
	for i := range rows {
		flights[i] = rows[i].toEntity()
	}
	return flights
}

type FlightRepository struct{ db *sqlx.DB }

func NewFlightRepository(db *sqlx.DB) *FlightRepository { return &FlightRepository{db: db} }

func (r *FlightRepository) Create(ctx context.Context, f *flight.Flight) error {
	query := `INSERT INTO flights (flight_number, origin_code, destination_code, departure_at, arrival_at,
		economy_price, business_price, economy_seats, business_seats, number_of_stops, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		f.FlightNumber, f.OriginCode, f.DestinationCode, f.DepartureAt, f.ArrivalAt,
		f.EconomyPrice, f.BusinessPrice, f.EconomySeats, f.BusinessSeats, f.NumberOfStops, f.IsActive, f.CreatedAt,
	).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("フライト作成に失敗: %w", err)
	}
	return nil
}

func (r *FlightRepository) GetByID(ctx context.Context, id string) (*flight.Flight, error) {
	var row flightRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+flightColumns+` FROM flights WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, flight.ErrFlightNotFound
		}
		return nil, fmt.Errorf("フライト取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *FlightRepository) GetByIDs(ctx context.Context, ids []string) ([]*flight.Flight, error) {
	if len(ids) == 0 {
		return []*flight.Flight{}, nil
	}
	var rows []flightRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT `+flightColumns+` FROM flights WHERE id = ANY($1) ORDER BY departure_at`, pq.Array(ids)); err != nil {
		if isInvalidID(err) {
			return []*flight.Flight{}, nil
		}
		return nil, fmt.Errorf("フライト取得に失敗: %w", err)
	}
	return toFlights(rows), nil
}

// SearchByRoute は date の暦日（UTC）に出発する有効なフライトを返す
func (r *FlightRepository) SearchByRoute(ctx context.Context, origin, destination string, date time.Time) ([]*flight.Flight, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `SELECT ` + flightColumns + ` FROM flights
		WHERE origin_code = $1 AND destination_code = $2
		AND departure_at >= $3 AND departure_at < $4 AND is_active = TRUE
		ORDER BY departure_at`
	var rows []flightRow
	if err := r.db.SelectContext(ctx, &rows, query, origin, destination, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("フライト検索に失敗: %w", err)
	}
	return toFlights(rows), nil
}

var _ flight.Repository = (*FlightRepository)(nil)
