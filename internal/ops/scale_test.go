package ops

import (
	"math"
	"testing"

	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/scale"
)

func floatPtr(v float64) *float64 { return &v }

func TestScaleServing(t *testing.T) {
	baseline := scale.Baseline{Calories: floatPtr(156), Protein: floatPtr(1), Carbs: floatPtr(42), Fat: floatPtr(0.6)}
	units := []scale.Unit{scale.Gram, scale.Ounce, {Label: "serving", GramsPerUnit: 50}}

	// Default unit is "serving"; half a serving of 50 g is 25 g.
	out, err := ScaleServing(ScaleInput{Per100g: baseline, Units: units, Quantity: "0.5"})
	if err != nil {
		t.Fatalf("ScaleServing failed: %v", err)
	}
	if out.Unit.Label != "serving" || out.Serving.Grams != 25 {
		t.Errorf("unit %q grams %v", out.Unit.Label, out.Serving.Grams)
	}
	if *out.Serving.Calories != 39 || *out.Serving.Carbs != 10.5 {
		t.Errorf("serving = cal %d carbs %v", *out.Serving.Calories, *out.Serving.Carbs)
	}
	if out.Macros.Calories != 39 || out.Macros.Carbs != 11 || out.Macros.Fat != 0 {
		t.Errorf("Macros = %+v", out.Macros)
	}
}

func TestScaleServing_OunceAndBadQuantity(t *testing.T) {
	baseline := scale.Baseline{Calories: floatPtr(52)}

	out, err := ScaleServing(ScaleInput{Per100g: baseline, Unit: "Ounce (oz)", Quantity: "2"})
	if err != nil {
		t.Fatalf("ScaleServing failed: %v", err)
	}
	if *out.Serving.Calories != 29 {
		t.Errorf("2 oz calories = %d, want 29", *out.Serving.Calories)
	}
	if out.Serving.Protein != nil {
		t.Error("unknown protein should stay unknown")
	}

	out, err = ScaleServing(ScaleInput{Per100g: baseline, Unit: "gram (g)", Quantity: "-3"})
	if err != nil {
		t.Fatalf("ScaleServing failed: %v", err)
	}
	if out.Quantity != 1 || out.Serving.Grams != 1 {
		t.Errorf("bad quantity should count as 1: %+v", out)
	}

	if _, err := ScaleServing(ScaleInput{Per100g: baseline, Unit: "cup"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("unknown unit: %v", err)
	}
}

func TestScaleServing_RejectsUnusableInput(t *testing.T) {
	tests := []struct {
		name  string
		input ScaleInput
	}{
		{"NaN calories", ScaleInput{Per100g: scale.Baseline{Calories: floatPtr(math.NaN())}}},
		{"infinite fat", ScaleInput{Per100g: scale.Baseline{Fat: floatPtr(math.Inf(1))}}},
		{"huge quantity", ScaleInput{Per100g: scale.Baseline{Calories: floatPtr(52)}, Quantity: "1e300"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ScaleServing(tt.input)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("ScaleServing() = %+v, %v; want INVALID_REQUEST", out, err)
			}
		})
	}
}

func TestScaleServing_ShortUnitNames(t *testing.T) {
	baseline := scale.Baseline{Calories: floatPtr(52)}
	for unit, want := range map[string]int{"oz": 15, "ounce": 15, "g": 1, "gram": 1} {
		out, err := ScaleServing(ScaleInput{Per100g: baseline, Unit: unit, Quantity: "1"})
		if err != nil {
			t.Fatalf("ScaleServing(unit %q) error = %v", unit, err)
		}
		if *out.Serving.Calories != want {
			t.Errorf("ScaleServing(unit %q) calories = %d, want %d", unit, *out.Serving.Calories, want)
		}
	}
}
