package catalog

import (
	"sort"
	"strconv"
	"strings"

	"trainerdash/internal/domain/validation"
)

// Category is the fixed food category enumeration.
type Category string

const (
	CategoryProtein   Category = "Protein"
	CategoryGrain     Category = "Grain"
	CategoryFruit     Category = "Fruit"
	CategoryVegetable Category = "Vegetable"
	CategoryDairy     Category = "Dairy"
	CategoryFat       Category = "Fat"
	CategorySugar     Category = "Sugar"
	CategoryBeverage  Category = "Beverage"
	CategoryOther     Category = "Other"
)

// Categories lists every category in picker order.
var Categories = []Category{
	CategoryProtein, CategoryGrain, CategoryFruit, CategoryVegetable,
	CategoryDairy, CategoryFat, CategorySugar, CategoryBeverage, CategoryOther,
}

// categoryAliases maps the labels stored upstream onto the enumeration.
var categoryAliases = map[string]Category{
	"proteína":     CategoryProtein,
	"proteina":     CategoryProtein,
	"cereal/grano": CategoryGrain,
	"cereal":       CategoryGrain,
	"grano":        CategoryGrain,
	"fruta":        CategoryFruit,
	"verdura":      CategoryVegetable,
	"lácteo":       CategoryDairy,
	"lacteo":       CategoryDairy,
	"grasa":        CategoryFat,
	"azúcar":       CategorySugar,
	"azucar":       CategorySugar,
	"bebida":       CategoryBeverage,
	"otro":         CategoryOther,
	"otros":        CategoryOther,
}

// upstreamLabels are the category labels the API stores for new foods.
var upstreamLabels = map[Category]string{
	CategoryProtein:   "Proteína",
	CategoryGrain:     "Cereal/Grano",
	CategoryFruit:     "Fruta",
	CategoryVegetable: "Verdura",
	CategoryDairy:     "Lácteo",
	CategoryFat:       "Grasa",
	CategorySugar:     "Azúcar",
	CategoryBeverage:  "Bebida",
	CategoryOther:     "Otro",
}

// UpstreamLabel returns the label the API stores for c.
func (c Category) UpstreamLabel() string {
	if l, ok := upstreamLabels[c]; ok {
		return l
	}
	return upstreamLabels[CategoryOther]
}

// ParseCategory is the strict form of NormalizeCategory used for operator input.
// POST: returns ok=false for empty or unknown labels
func ParseCategory(raw string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	for _, c := range Categories {
		if strings.ToLower(string(c)) == key {
			return c, true
		}
	}
	c, ok := categoryAliases[key]
	return c, ok
}

// NormalizeCategory maps a raw category label onto the enumeration.
// PRE: none
// POST: empty or unknown labels return CategoryOther
func NormalizeCategory(raw string) Category {
	if c, ok := ParseCategory(raw); ok {
		return c
	}
	return CategoryOther
}

// Food is catalog reference data. Plan entries point at it and never own it.
type Food struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	CaloriesPer100 Number `json:"calories_per_100g"`
	ImageURL       string `json:"image_url,omitempty"`
}

// NormalizedCategory returns the food's category bucket.
func (f Food) NormalizedCategory() Category {
	return NormalizeCategory(f.Category)
}

// FoodGroup is one category bucket of the food picker.
type FoodGroup struct {
	Category Category
	Foods    []Food
}

// GroupByCategory buckets foods by category in Categories order, dropping empty buckets.
// Foods inside a bucket keep their input order.
// PRE: none
// POST: every input food appears in exactly one group
func GroupByCategory(foods []Food) []FoodGroup {
	buckets := make(map[Category][]Food)
	for _, f := range foods {
		c := f.NormalizedCategory()
		buckets[c] = append(buckets[c], f)
	}
	groups := make([]FoodGroup, 0, len(buckets))
	for _, c := range Categories {
		if fs, ok := buckets[c]; ok {
			groups = append(groups, FoodGroup{Category: c, Foods: fs})
		}
	}
	return groups
}

// IndexFoods returns the foods keyed by id.
func IndexFoods(foods []Food) map[int64]Food {
	out := make(map[int64]Food, len(foods))
	for _, f := range foods {
		out[f.ID] = f
	}
	return out
}

// SortFoodsByName sorts foods alphabetically, case-insensitively.
func SortFoodsByName(foods []Food) {
	sort.SliceStable(foods, func(i, j int) bool {
		return strings.ToLower(foods[i].Name) < strings.ToLower(foods[j].Name)
	})
}

// FoodInput carries the editable fields of a catalog food.
type FoodInput struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	CaloriesPer100 float64 `json:"calories_per_100g"`
}

// Validate checks the food form before it is sent.
// PRE: none
// POST: returns validation.Errors naming every bad field, or nil
func (in FoodInput) Validate() error {
	var errs validation.Errors
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, validation.New("name", "name required"))
	}
	if _, ok := ParseCategory(in.Category); !ok {
		errs = append(errs, validation.New("category", "unknown food category"))
	}
	if in.CaloriesPer100 <= 0 {
		errs = append(errs, validation.New("calories_per_100g", "must be a positive number"))
	}
	return errs.OrNil()
}

// FormFields returns the multipart fields the API expects for the food.
// PRE: Validate returned nil
func (in FoodInput) FormFields() map[string]string {
	c, _ := ParseCategory(in.Category)
	return map[string]string{
		"name":              strings.TrimSpace(in.Name),
		"category":          c.UpstreamLabel(),
		"calories_per_100g": strconv.FormatFloat(in.CaloriesPer100, 'f', -1, 64),
	}
}
