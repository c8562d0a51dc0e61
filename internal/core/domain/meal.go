package domain

import "slices"

// Meal is the top-level planning unit. Its identity is ID; names are not unique.
type Meal struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	DishItems []DishItem `json:"dishItems" yaml:"dishItems"`
}

// DishItem is a named, categorized component of a meal.
// It has no identity of its own and is addressed by its index in Meal.DishItems.
type DishItem struct {
	Name      string        `json:"name" yaml:"name"`
	Category  string        `json:"category" yaml:"category"`
	Groceries []GroceryLine `json:"groceries" yaml:"groceries"`
}

// GroceryLine is an ingredient of a dish item with an optional quantity.
type GroceryLine struct {
	Name     string `json:"name" yaml:"name"`
	Quantity string `json:"quantity" yaml:"quantity"`
}

// Clone returns a deep copy of the meal. Nil slices stay nil.
func (m Meal) Clone() Meal {
	out := m
	if m.DishItems != nil {
		out.DishItems = make([]DishItem, len(m.DishItems))
		for i, item := range m.DishItems {
			out.DishItems[i] = item.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the dish item.
func (d DishItem) Clone() DishItem {
	out := d
	out.Groceries = slices.Clone(d.Groceries)
	return out
}

// CloneMeals deep-copies a collection. The result is never nil.
func CloneMeals(meals []Meal) []Meal {
	out := make([]Meal, len(meals))
	for i, m := range meals {
		out[i] = m.Clone()
	}
	return out
}
