// Package grouping derives the sectioned view of a meal's dish items.
package grouping

import "go.trai.ch/mealbook/internal/core/domain"

// Entry is a dish item together with its index in the source slice.
// Edit and delete actions issued from a grouped view address Index.
type Entry struct {
	Item  domain.DishItem
	Index int
}

// Group holds the dish items of one category.
type Group struct {
	Category string
	Items    []Entry
}

// ByCategory partitions items by category.
// Groups appear in order of the first occurrence of their category and items keep
// their relative order. The result holds copies; items is never modified.
func ByCategory(items []domain.DishItem) []Group {
	groups := make([]Group, 0)
	positions := make(map[string]int)

	for i, item := range items {
		entry := Entry{Item: item.Clone(), Index: i}

		pos, ok := positions[item.Category]
		if !ok {
			positions[item.Category] = len(groups)
			groups = append(groups, Group{Category: item.Category, Items: []Entry{entry}})
			continue
		}
		groups[pos].Items = append(groups[pos].Items, entry)
	}

	return groups
}

// Categories returns the category of each group, in group order.
func Categories(groups []Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Category
	}
	return out
}
