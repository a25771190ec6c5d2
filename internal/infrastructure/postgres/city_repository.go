package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/city"
)

type cityRow struct {
	Code        string  `db:"code"`
	Name        string  `db:"name"`
	CountryCode string  `db:"country_code"`
	Latitude    float64 `db:"latitude"`
	Longitude   float64 `db:"longitude"`
	TimeZone    string  `db:"time_zone"`
	IsActive    bool    `db:"is_active"`
}

func (r *cityRow) toEntity() *city.City {
	return &city.City{
		Code: r.Code, Name: r.Name, CountryCode: r.CountryCode,
		Latitude: r.Latitude, Longitude: r.Longitude,
		TimeZone: r.TimeZone, IsActive: r.IsActive,
	}
}

type CityRepository struct{ db *sqlx.DB }

func NewCityRepository(db *sqlx.DB) *CityRepository { return &CityRepository{db: db} }

func (r *CityRepository) GetByCode(ctx context.Context, code string) (*city.City, error) {
	var row cityRow
	query := `SELECT code, name, country_code, latitude, longitude, time_zone, is_active FROM cities WHERE code = $1`
	if err := r.db.GetContext(ctx, &row, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, city.ErrCityNotFound
		}
		return nil, fmt.Errorf("都市取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *CityRepository) ListActive(ctx context.Context) ([]*city.City, error) {
	var rows []cityRow
	query := `SELECT code, name, country_code, latitude, longitude, time_zone, is_active FROM cities WHERE is_active = TRUE ORDER BY name`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("都市一覧取得に失敗: %w", err)
	}
	cities := make([]*city.City, len(rows))
	for i := range rows {
		cities[i] = rows[i].toEntity()
	}
	return cities, nil
}

var _ city.Repository = (*CityRepository)(nil)
