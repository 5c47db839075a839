package projections

import (
	"context"
	"strings"

	"trainerdash/internal/domain/catalog"
)

// GetFoodPickerQuery carries input for the food picker.
type GetFoodPickerQuery struct {
	Search  string
	Refresh bool
}

// FoodPickerGroup is one category section of the picker.
type FoodPickerGroup struct {
	Category string    `json:"category"`
	Foods    []FoodRow `json:"foods"`
}

// QueryGetFoodPicker returns the foods matching the search, grouped by category.
// PRE: none
// POST: groups follow catalog.Categories order and empty groups are dropped
// POST: foods inside a group are sorted by name
func QueryGetFoodPicker(ctx context.Context, query GetFoodPickerQuery, deps ListDeps) ([]FoodPickerGroup, error) {
	foods, err := deps.foods(ctx, query.Refresh)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query.Search))
	matched := make([]catalog.Food, 0, len(foods))
	for _, f := range foods {
		if q == "" || strings.Contains(strings.ToLower(f.Name), q) {
			matched = append(matched, f)
		}
	}
	catalog.SortFoodsByName(matched)

	groups := catalog.GroupByCategory(matched)
	out := make([]FoodPickerGroup, 0, len(groups))
	for _, g := range groups {
		rows := make([]FoodRow, 0, len(g.Foods))
		for _, f := range g.Foods {
			rows = append(rows, foodRow(f))
		}
		out = append(out, FoodPickerGroup{Category: string(g.Category), Foods: rows})
	}
	return out, nil
}
