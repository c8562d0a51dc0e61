// Package dishedit merges composed or edited dish items into a meal's dish list.
package dishedit

import (
	"slices"
	"strings"

	"go.trai.ch/mealbook/internal/core/domain"
)

// GroceryEntry is a grocery line as entered in an edit session.
type GroceryEntry struct {
	Name     string
	Quantity string
}

// Draft is the payload of a dish edit session.
type Draft struct {
	Name           string
	Category       string
	CustomCategory string
	Groceries      []GroceryEntry
}

// NewDraft returns an empty draft with the first selectable category preselected.
func NewDraft() Draft {
	return Draft{Category: domain.Categories()[0]}
}

// AddGrocery appends a grocery with an empty quantity.
// Blank names are ignored and reported as false.
func (d *Draft) AddGrocery(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	d.Groceries = append(d.Groceries, GroceryEntry{Name: name})
	return true
}

// SetQuantity sets the quantity of the grocery at index i.
func (d *Draft) SetQuantity(i int, quantity string) bool {
	if i < 0 || i >= len(d.Groceries) {
		return false
	}
	d.Groceries[i].Quantity = quantity
	return true
}

// Build turns the draft into a DishItem.
// It reports false when the trimmed name is empty.
func Build(d Draft) (domain.DishItem, bool) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return domain.DishItem{}, false
	}

	category := d.Category
	if category == domain.CategoryCustom {
		category = strings.TrimSpace(d.CustomCategory)
	}

	groceries := make([]domain.GroceryLine, len(d.Groceries))
	for i, g := range d.Groceries {
		groceries[i] = domain.GroceryLine{Name: g.Name, Quantity: g.Quantity}
	}

	return domain.DishItem{
		Name:      name,
		Category:  category,
		Groceries: groceries,
	}, true
}

// Clean applies the naming rules of Build and AddGrocery to a dish item that
// did not come from a draft. Names are trimmed and groceries with a blank name
// are removed; the count of removed groceries is returned. It reports false
// when the item's own name is blank.
func Clean(item domain.DishItem) (domain.DishItem, int, bool) {
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return domain.DishItem{}, 0, false
	}

	groceries := make([]domain.GroceryLine, 0, len(item.Groceries))
	for _, g := range item.Groceries {
		g.Name = strings.TrimSpace(g.Name)
		if g.Name == "" {
			continue
		}
		groceries = append(groceries, g)
	}

	return domain.DishItem{
		Name:      name,
		Category:  item.Category,
		Groceries: groceries,
	}, len(item.Groceries) - len(groceries), true
}

// Apply merges the draft into meal.
// With a nil target the new item is appended; otherwise it replaces the item at
// *target and every other position is preserved. It reports false, leaving the
// meal untouched, when the draft is invalid or the target is out of range.
// meal itself is never modified.
func Apply(meal domain.Meal, d Draft, target *int) (domain.Meal, bool) {
	item, ok := Build(d)
	if !ok {
		return meal, false
	}

	out := meal.Clone()
	if target == nil {
		out.DishItems = append(out.DishItems, item)
		return out, true
	}

	if *target < 0 || *target >= len(out.DishItems) {
		return meal, false
	}
	out.DishItems[*target] = item
	return out, true
}

// Delete removes the dish item at index.
// Later items shift down by one. It reports false when index is out of range.
func Delete(meal domain.Meal, index int) (domain.Meal, bool) {
	if index < 0 || index >= len(meal.DishItems) {
		return meal, false
	}
	out := meal.Clone()
	out.DishItems = slices.Delete(out.DishItems, index, index+1)
	return out, true
}
