package meal

import "errors"

var (
	ErrMealNotFound     = errors.New("機内食が見つかりません")
	ErrMealNotAvailable = errors.New("機内食は選択できません")
)

// Type は機内食の種別
type Type string

const (
	TypeStandard      Type = "standard"
	TypeVegetarian    Type = "vegetarian"
	TypeVegan         Type = "vegan"
	TypeHalal         Type = "halal"
	TypeKosher        Type = "kosher"
	TypeGlutenFree    Type = "gluten_free"
	TypeLocalInspired Type = "local_inspired"
)

// Meal は予約明細に付与できる機内食
type Meal struct {
	ID          string
	Name        string
	Description string
	Type        Type
	Price       float64
	IsAvailable bool
}
