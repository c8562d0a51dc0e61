package domain

import "slices"

// Fixed dish categories, in the order they are offered to the user.
const (
	CategoryMeat      = "Meat"
	CategoryDairy     = "Dairy"
	CategoryDrink     = "Drink"
	CategoryAppetizer = "Appetizer"
	CategoryFish      = "Fish"
	CategoryDessert   = "Dessert"

	// CategoryCustom is the selection sentinel for a free-form category.
	// It is never stored on a DishItem; the custom text is stored instead.
	CategoryCustom = "Custom"
)

var categories = []string{
	CategoryMeat,
	CategoryDairy,
	CategoryDrink,
	CategoryAppetizer,
	CategoryFish,
	CategoryDessert,
	CategoryCustom,
}

// Categories returns the selectable categories, ending with the Custom sentinel.
func Categories() []string {
	return slices.Clone(categories)
}

// IsFixedCategory reports whether c is one of the enumerated categories.
// The Custom sentinel is not a fixed category.
func IsFixedCategory(c string) bool {
	return c != CategoryCustom && slices.Contains(categories, c)
}
