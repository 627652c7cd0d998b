package entry

import (
	"strings"
)

// MealType is the section an entry is filed under. The empty value means unset.
type MealType string

const (
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
	Snack     MealType = "Snack"
	Other     MealType = "Other"
)

// MealOrder is the display order of sections. The last element collects
// entries whose meal type is unset or unrecognized.
var MealOrder = []MealType{Breakfast, Lunch, Dinner, Snack, Other}

// ParseMealType matches s case-insensitively against the known meal types.
// Blank input yields the unset value. ok is false for anything else.
func ParseMealType(s string) (m MealType, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	for _, known := range MealOrder {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// Macros holds the four tracked nutrient values. Calories in kcal, the rest in grams.
type Macros struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// Add returns m + o.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

// Sub returns m - o.
func (m Macros) Sub(o Macros) Macros {
	return Macros{
		Calories: m.Calories - o.Calories,
		Protein:  m.Protein - o.Protein,
		Carbs:    m.Carbs - o.Carbs,
		Fat:      m.Fat - o.Fat,
	}
}

// IsZero reports whether all four values are zero.
func (m Macros) IsZero() bool {
	return m == Macros{}
}

// Entry is one logged food item.
type Entry struct {
	// ID is a ULID assigned when the entry is added
	ID string `json:"id"`

	// Name is the trimmed food name, never blank
	Name string `json:"name"`

	Macros

	// Date is the YYYY-MM-DD day the entry belongs to
	Date string `json:"date"`

	// CreatedAt is unix milliseconds; 0 means unknown (older data)
	CreatedAt int64 `json:"created_at,omitempty"`

	// MealType may be empty
	MealType MealType `json:"meal_type,omitempty"`
}

// Sum totals the macros of entries.
func Sum(entries []Entry) Macros {
	var total Macros
	for _, e := range entries {
		total = total.Add(e.Macros)
	}
	return total
}

// CloneAll returns a copy of entries that shares no backing array.
// A nil input yields an empty, non-nil slice.
func CloneAll(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// IndexOf returns the position of id in entries, or -1.
func IndexOf(entries []Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
