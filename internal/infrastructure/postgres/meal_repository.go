package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/meal"
)

type mealRow struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Description string  `db:"description"`
	Type        string  `db:"meal_type"`
	Price       float64 `db:"price"`
	IsAvailable bool    `db:"is_available"`
}

func (r *mealRow) toEntity() *meal.Meal {
	return &meal.Meal{
		ID: r.ID, Name: r.Name, Description: r.Description,
		Type: meal.Type(r.Type), Price: r.Price, IsAvailable: r.IsAvailable,
	}
}

type MealRepository struct{ db *sqlx.DB }

func NewMealRepository(db *sqlx.DB) *MealRepository { return &MealRepository{db: db} }

func (r *MealRepository) GetByID(ctx context.Context, id string) (*meal.Meal, error) {
	var row mealRow
	query := `SELECT id, name, description, meal_type, price, is_available FROM meals WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, meal.ErrMealNotFound
		}
		return nil, fmt.Errorf("機内食取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *MealRepository) ListAvailable(ctx context.Context) ([]*meal.Meal, error) {
	var rows []mealRow
	query := `SELECT id, name, description, meal_type, price, is_available FROM meals WHERE is_available = TRUE ORDER BY name`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("機内食一覧取得に失敗: %w", err)
	}
	meals := make([]*meal.Meal, len(rows))
	for i := range rows {
		meals[i] = rows[i].toEntity()
	}
	return meals, nil
}

var _ meal.Repository = (*MealRepository)(nil)
