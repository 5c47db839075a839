package dietplan

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/validation"
)

// Day is a day of the plan week.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// Days lists the week in order.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// MealType identifies one of the four canonical meal slots of a day.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Snack     MealType = "snack"
	Dinner    MealType = "dinner"
)

// MealTypes lists the canonical slots in day order.
var MealTypes = []MealType{Breakfast, Lunch, Snack, Dinner}

// UnitGrams is the only quantity unit the builder produces.
const UnitGrams = "g"

// DailyCalorieTarget is the reference shown next to the day total.
const DailyCalorieTarget = 2200

var (
	ErrInvalidDay           = errors.New("day must be monday through sunday")
	ErrInvalidMealType      = errors.New("meal must be breakfast, lunch, snack or dinner")
	ErrConfirmationRequired = errors.New("copying a day overwrites the whole week and must be confirmed")
)

var slotDefaults = map[MealType]struct{ label, time string }{
	Breakfast: {"Desayuno", "08:00"},
	Lunch:     {"Almuerzo", "13:00"},
	Snack:     {"Snack", "16:00"},
	Dinner:    {"Cena", "20:00"},
}

// ParseDay validates a day name, ignoring case.
func ParseDay(raw string) (Day, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, d := range Days {
		if string(d) == raw {
			return d, nil
		}
	}
	return "", ErrInvalidDay
}

// ParseMealType validates a meal type, ignoring case.
func ParseMealType(raw string) (MealType, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, m := range MealTypes {
		if string(m) == raw {
			return m, nil
		}
	}
	return "", ErrInvalidMealType
}

func dayIndex(d Day) (int, error) {
	for i, day := range Days {
		if day == d {
			return i, nil
		}
	}
	return 0, ErrInvalidDay
}

func mealIndex(m MealType) (int, error) {
	for i, mt := range MealTypes {
		if mt == m {
			return i, nil
		}
	}
	return 0, ErrInvalidMealType
}

// Quantity is an amount of food in a fixed unit.
type Quantity struct {
	Amount float64
	Unit   string
}

// ParseQuantity parses user input such as "150", "150g" or "150 g".
// PRE: none
// POST: returns a *validation.Error on field "quantity" unless the amount is a positive number
func ParseQuantity(text string) (Quantity, error) {
	s := strings.TrimSpace(strings.ToLower(text))
	s = strings.TrimSpace(strings.TrimSuffix(s, UnitGrams))
	if s == "" {
		return Quantity{}, validation.New("quantity", "required")
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Quantity{}, validation.New("quantity", "must be a number")
	}
	if amount <= 0 {
		return Quantity{}, validation.New("quantity", "must be greater than zero")
	}
	return Quantity{Amount: amount, Unit: UnitGrams}, nil
}

// String formats the quantity the way the API stores it, e.g. "150g".
func (q Quantity) String() string {
	return strconv.FormatFloat(q.Amount, 'f', -1, 64) + q.Unit
}

// Entry is a food placed in a meal slot. Calories are derived, never stored.
type Entry struct {
	Food     catalog.Food
	Quantity Quantity
}

// Calories returns round(caloriesPer100 * amount / 100).
func (e Entry) Calories() int {
	return int(math.Round(float64(e.Food.CaloriesPer100) * e.Quantity.Amount / 100))
}

// Slot is one meal of a day.
type Slot struct {
	Type    MealType
	Label   string
	Time    string
	Entries []Entry
}

// Calories sums the slot's entries.
func (s Slot) Calories() int {
	total := 0
	for _, e := range s.Entries {
		total += e.Calories()
	}
	return total
}

func emptyDay() []Slot {
	slots := make([]Slot, len(MealTypes))
	for i, m := range MealTypes {
		def := slotDefaults[m]
		slots[i] = Slot{Type: m, Label: def.label, Time: def.time}
	}
	return slots
}

func cloneDay(src []Slot) []Slot {
	out := make([]Slot, len(src))
	for i, s := range src {
		out[i] = s
		out[i].Entries = append([]Entry(nil), s.Entries...)
	}
	return out
}

// Metadata is the descriptive header of a plan.
type Metadata struct {
	Name        string `json:"name"`
	Goal        string `json:"goal"`
	Description string `json:"description"`
}

// WeeklyPlan is a diet plan draft. It is a value: every transition returns a new plan
// and leaves the receiver untouched.
// INVARIANT: every day holds the four canonical slots in MealTypes order.
type WeeklyPlan struct {
	Meta Metadata
	days [7][]Slot
}

// New creates an empty plan with 7 days of 4 empty slots.
// PRE: none
// POST: every slot is empty and carries its default time
func New(meta Metadata) WeeklyPlan {
	p := WeeklyPlan{Meta: meta}
	for i := range p.days {
		p.days[i] = emptyDay()
	}
	return p
}

// WithMeta returns a copy of the plan with new metadata.
func (p WeeklyPlan) WithMeta(meta Metadata) WeeklyPlan {
	p.Meta = meta
	return p
}

// Slots returns the slots of day d. Callers must not modify the returned slice.
func (p WeeklyPlan) Slots(d Day) []Slot {
	i, err := dayIndex(d)
	if err != nil {
		return nil
	}
	return p.days[i]
}

// Slot returns one slot of the plan.
func (p WeeklyPlan) Slot(d Day, m MealType) (Slot, error) {
	di, err := dayIndex(d)
	if err != nil {
		return Slot{}, err
	}
	mi, err := mealIndex(m)
	if err != nil {
		return Slot{}, err
	}
	return p.days[di][mi], nil
}

// withSlot replaces one slot, copying only the affected day.
func (p WeeklyPlan) withSlot(d Day, m MealType, fn func(Slot) Slot) (WeeklyPlan, error) {
	di, err := dayIndex(d)
	if err != nil {
		return p, err
	}
	mi, err := mealIndex(m)
	if err != nil {
		return p, err
	}
	day := make([]Slot, len(p.days[di]))
	copy(day, p.days[di])
	day[mi] = fn(day[mi])
	p.days[di] = day
	return p, nil
}

// AddFoodEntry appends food to the (d, m) slot.
// PRE: food comes from the catalog
// POST: only the target slot changes; the receiver is not modified
// POST: returns a *validation.Error on "quantity" when quantityText is not a positive number
func (p WeeklyPlan) AddFoodEntry(d Day, m MealType, food catalog.Food, quantityText string) (WeeklyPlan, error) {
	q, err := ParseQuantity(quantityText)
	if err != nil {
		return p, err
	}
	return p.withSlot(d, m, func(s Slot) Slot {
		entries := make([]Entry, len(s.Entries), len(s.Entries)+1)
		copy(entries, s.Entries)
		s.Entries = append(entries, Entry{Food: food, Quantity: q})
		return s
	})
}

// RemoveFoodEntry removes the entry at index from the (d, m) slot.
// An out-of-range index returns the plan unchanged.
func (p WeeklyPlan) RemoveFoodEntry(d Day, m MealType, index int) (WeeklyPlan, error) {
	s, err := p.Slot(d, m)
	if err != nil {
		return p, err
	}
	if index < 0 || index >= len(s.Entries) {
		return p, nil
	}
	return p.withSlot(d, m, func(s Slot) Slot {
		entries := make([]Entry, 0, len(s.Entries)-1)
		entries = append(entries, s.Entries[:index]...)
		s.Entries = append(entries, s.Entries[index+1:]...)
		return s
	})
}

// CopyDayToWeek overwrites every day with a deep copy of source.
// PRE: confirm is true; the overwrite is destructive
// POST: all 7 days are equal to source and independently mutable
func (p WeeklyPlan) CopyDayToWeek(source Day, confirm bool) (WeeklyPlan, error) {
	si, err := dayIndex(source)
	if err != nil {
		return p, err
	}
	if !confirm {
		return p, ErrConfirmationRequired
	}
	src := p.days[si]
	for i := range p.days {
		p.days[i] = cloneDay(src)
	}
	return p, nil
}

// SetMealTime changes the suggested time of one slot.
// POST: returns a *validation.Error on "time" unless hhmm is HH:MM
func (p WeeklyPlan) SetMealTime(d Day, m MealType, hhmm string) (WeeklyPlan, error) {
	hhmm = strings.TrimSpace(hhmm)
	if _, err := time.Parse("15:04", hhmm); err != nil {
		return p, validation.New("time", "must be HH:MM")
	}
	return p.withSlot(d, m, func(s Slot) Slot {
		s.Time = hhmm
		return s
	})
}

// RefreshFoods re-points entries at the current catalog version of each food.
// Entries whose food is no longer in the catalog keep their last known data.
func (p WeeklyPlan) RefreshFoods(byID map[int64]catalog.Food) WeeklyPlan {
	for i := range p.days {
		day := cloneDay(p.days[i])
		for si := range day {
			for ei, e := range day[si].Entries {
				if f, ok := byID[e.Food.ID]; ok {
					day[si].Entries[ei].Food = f
				}
			}
		}
		p.days[i] = day
	}
	return p
}

// SlotCalories returns the calories of one slot, or 0 for an unknown slot.
func (p WeeklyPlan) SlotCalories(d Day, m MealType) int {
	s, err := p.Slot(d, m)
	if err != nil {
		return 0
	}
	return s.Calories()
}

// DailyCalories sums every slot of day d.
func (p WeeklyPlan) DailyCalories(d Day) int {
	total := 0
	for _, s := range p.Slots(d) {
		total += s.Calories()
	}
	return total
}

// WeeklyCalories sums the whole week.
func (p WeeklyPlan) WeeklyCalories() int {
	total := 0
	for _, d := range Days {
		total += p.DailyCalories(d)
	}
	return total
}

// EntryCount returns the number of entries across the week.
func (p WeeklyPlan) EntryCount() int {
	n := 0
	for i := range p.days {
		for _, s := range p.days[i] {
			n += len(s.Entries)
		}
	}
	return n
}

// SaveRequest is the body of POST /diet-plans.
type SaveRequest struct {
	Name        string                `json:"name"`
	Goal        string                `json:"goal"`
	Description string                `json:"description"`
	Days        map[Day][]SlotPayload `json:"days"`
}

// SlotPayload is one meal slot in the saved plan.
type SlotPayload struct {
	Type  MealType      `json:"type"`
	Label string        `json:"label"`
	Time  string        `json:"time"`
	Foods []FoodPayload `json:"foods"`
}

// FoodPayload is one entry in the saved plan: the food fields plus quantity and calories.
type FoodPayload struct {
	ID                 int64          `json:"id"`
	Name               string         `json:"name"`
	Category           string         `json:"category"`
	CaloriesPer100     catalog.Number `json:"calories_per_100g"`
	Quantity           string         `json:"quantity"`
	CalculatedCalories int            `json:"calculatedCalories"`
}

// Save validates the metadata and serializes the plan into a single request.
// PRE: none
// POST: returns a *validation.Error for a blank name or unknown goal; the plan is unchanged
func (p WeeklyPlan) Save() (SaveRequest, error) {
	name := strings.TrimSpace(p.Meta.Name)
	if name == "" {
		return SaveRequest{}, validation.New("name", "name required")
	}
	goal, err := catalog.ParseGoal(p.Meta.Goal)
	if err != nil {
		return SaveRequest{}, validation.New("goal", err.Error())
	}
	req := SaveRequest{
		Name:        name,
		Goal:        string(goal),
		Description: p.Meta.Description,
		Days:        make(map[Day][]SlotPayload, len(Days)),
	}
	for i, d := range Days {
		slots := make([]SlotPayload, 0, len(p.days[i]))
		for _, s := range p.days[i] {
			foods := make([]FoodPayload, 0, len(s.Entries))
			for _, e := range s.Entries {
				foods = append(foods, FoodPayload{
					ID:                 e.Food.ID,
					Name:               e.Food.Name,
					Category:           e.Food.Category,
					CaloriesPer100:     e.Food.CaloriesPer100,
					Quantity:           e.Quantity.String(),
					CalculatedCalories: e.Calories(),
				})
			}
			slots = append(slots, SlotPayload{Type: s.Type, Label: s.Label, Time: s.Time, Foods: foods})
		}
		req.Days[d] = slots
	}
	return req, nil
}

type entryView struct {
	Food     catalog.Food `json:"food"`
	Quantity string       `json:"quantity"`
	Calories int          `json:"calories"`
}

type slotView struct {
	Type     MealType    `json:"type"`
	Label    string      `json:"label"`
	Time     string      `json:"time"`
	Calories int         `json:"calories"`
	Entries  []entryView `json:"entries"`
}

type dayView struct {
	Day      Day        `json:"day"`
	Calories int        `json:"calories"`
	Slots    []slotView `json:"slots"`
}

// MarshalJSON renders the draft with its derived calorie totals.
func (p WeeklyPlan) MarshalJSON() ([]byte, error) {
	days := make([]dayView, 0, len(Days))
	for i, d := range Days {
		dv := dayView{Day: d, Calories: p.DailyCalories(d)}
		for _, s := range p.days[i] {
			sv := slotView{Type: s.Type, Label: s.Label, Time: s.Time, Calories: s.Calories(), Entries: []entryView{}}
			for _, e := range s.Entries {
				sv.Entries = append(sv.Entries, entryView{Food: e.Food, Quantity: e.Quantity.String(), Calories: e.Calories()})
			}
			dv.Slots = append(dv.Slots, sv)
		}
		days = append(days, dv)
	}
	return json.Marshal(struct {
		Meta           Metadata  `json:"meta"`
		Days           []dayView `json:"days"`
		WeeklyCalories int       `json:"weekly_calories"`
		DailyTarget    int       `json:"daily_target"`
	}{p.Meta, days, p.WeeklyCalories(), DailyCalorieTarget})
}

// Remote is a persisted diet plan as returned by GET /diet-plans.
type Remote struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Goal        string `json:"goal"`
	Description string `json:"description"`
}
