// Package scale converts a per-100g nutrition baseline into the macros of
// a serving expressed in some unit and quantity.
package scale

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hpungsan/macrolog/internal/entry"
	"github.com/hpungsan/macrolog/internal/errors"
)

// Baseline is nutrition per 100 g. A nil field is unknown and stays unknown
// after scaling.
type Baseline struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
}

// Unit is a serving measure.
type Unit struct {
	Label        string  `json:"label"`
	GramsPerUnit float64 `json:"grams_per_unit"`
}

// Serving is a scaled result. Calories are whole kcal; the other macros
// carry one decimal place.
type Serving struct {
	Grams    float64  `json:"grams"`
	Calories *int     `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
}

var hundred = decimal.NewFromInt(100)

var (
	maxCalories = decimal.NewFromInt(entry.MaxCalories)
	maxGrams    = decimal.NewFromInt(entry.MaxGrams)
)

// Scale computes the serving for quantity units of u. A quantity that is
// not a positive finite number counts as 1. Rounding is half-up.
//
// Baseline values must be finite and not negative. A serving whose macros
// exceed what a single entry may hold is rejected rather than truncated.
func Scale(b Baseline, u Unit, quantity float64) (Serving, error) {
	if !validQuantity(u.GramsPerUnit) {
		return Serving{}, errors.NewInvalidRequest("unit grams_per_unit must be a positive number")
	}
	if err := b.check(); err != nil {
		return Serving{}, err
	}
	if !validQuantity(quantity) {
		quantity = 1
	}

	grams := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(u.GramsPerUnit))
	gramsF, _ := grams.Float64()
	if math.IsInf(gramsF, 0) {
		return Serving{}, errors.NewInvalidRequest("serving size is too large")
	}
	s := Serving{Grams: gramsF}

	if b.Calories != nil {
		v := per(grams, *b.Calories).Round(0)
		if v.GreaterThan(maxCalories) {
			return Serving{}, tooLarge("calories", entry.MaxCalories)
		}
		kcal := int(v.IntPart())
		s.Calories = &kcal
	}
	var err error
	if s.Protein, err = scaleOne(grams, b.Protein, "protein"); err != nil {
		return Serving{}, err
	}
	if s.Carbs, err = scaleOne(grams, b.Carbs, "carbs"); err != nil {
		return Serving{}, err
	}
	if s.Fat, err = scaleOne(grams, b.Fat, "fat"); err != nil {
		return Serving{}, err
	}
	return s, nil
}

func (b Baseline) check() error {
	fields := []struct {
		name  string
		value *float64
	}{
		{"calories", b.Calories},
		{"protein", b.Protein},
		{"carbs", b.Carbs},
		{"fat", b.Fat},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		v := *f.value
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return errors.NewInvalidRequest(f.name + " per 100 g must be a finite number, not negative")
		}
	}
	return nil
}

func tooLarge(field string, limit int) error {
	return errors.NewInvalidRequest(fmt.Sprintf("serving %s exceed the per-entry limit of %d", field, limit))
}

// per returns value * grams / 100.
func per(grams decimal.Decimal, value float64) decimal.Decimal {
	return decimal.NewFromFloat(value).Mul(grams).Div(hundred)
}

func scaleOne(grams decimal.Decimal, value *float64, field string) (*float64, error) {
	if value == nil {
		return nil, nil
	}
	v := per(grams, *value).Round(1)
	if v.GreaterThan(maxGrams) {
		return nil, tooLarge(field, entry.MaxGrams)
	}
	f, _ := v.Float64()
	return &f, nil
}

func validQuantity(q float64) bool {
	return !math.IsNaN(q) && !math.IsInf(q, 0) && q > 0
}

// ParseQuantity reads a quantity typed by a user. Anything unparseable,
// non-finite, or not positive yields 1.
func ParseQuantity(s string) float64 {
	q, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !validQuantity(q) {
		return 1
	}
	return q
}

// Macros converts a serving into the whole-number values an entry stores.
// Unknown values become 0.
func (s Serving) Macros() entry.Macros {
	var m entry.Macros
	if s.Calories != nil {
		m.Calories = *s.Calories
	}
	m.Protein = wholeGrams(s.Protein)
	m.Carbs = wholeGrams(s.Carbs)
	m.Fat = wholeGrams(s.Fat)
	return m
}

func wholeGrams(v *float64) int {
	if v == nil {
		return 0
	}
	return int(decimal.NewFromFloat(*v).Round(0).IntPart())
}
