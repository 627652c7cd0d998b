package scale

import (
	"math"
	"testing"

	"github.com/hpungsan/macrolog/internal/entry"
	"github.com/hpungsan/macrolog/internal/errors"
)

func f(v float64) *float64 { return &v }

func appleBaseline() Baseline {
	return Baseline{Calories: f(52), Protein: f(0.3), Carbs: f(14), Fat: f(0.2)}
}

func TestScale_Grams(t *testing.T) {
	s, err := Scale(appleBaseline(), Gram, 150)
	if err != nil {
		t.Fatalf("Scale() error = %v", err)
	}
	if s.Grams != 150 {
		t.Errorf("Grams = %v, want 150", s.Grams)
	}
	if s.Calories == nil || *s.Calories != 78 {
		t.Errorf("Calories = %v, want 78", s.Calories)
	}
	if s.Protein == nil || *s.Protein != 0.5 {
		t.Errorf("Protein = %v, want 0.5", s.Protein)
	}
	if s.Carbs == nil || *s.Carbs != 21.0 {
		t.Errorf("Carbs = %v, want 21.0", s.Carbs)
	}
	if s.Fat == nil || *s.Fat != 0.3 {
		t.Errorf("Fat = %v, want 0.3", s.Fat)
	}
}

func TestScale_Ounces(t *testing.T) {
	s, err := Scale(appleBaseline(), Ounce, 2)
	if err != nil {
		t.Fatalf("Scale() error = %v", err)
	}
	if s.Grams != 56.699 {
		t.Errorf("Grams = %v, want 56.699", s.Grams)
	}
	if s.Calories == nil || *s.Calories != 29 {
		t.Errorf("Calories = %v, want 29", s.Calories)
	}
}

func TestScale_QuantityFallback(t *testing.T) {
	for _, q := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		s, err := Scale(appleBaseline(), Gram, q)
		if err != nil {
			t.Fatalf("Scale(q=%v) error = %v", q, err)
		}
		if s.Grams != 1 {
			t.Errorf("Scale(q=%v).Grams = %v, want 1", q, s.Grams)
		}
	}
}

func TestScale_AbsentStaysAbsent(t *testing.T) {
	s, err := Scale(Baseline{Protein: f(10)}, Gram, 50)
	if err != nil {
		t.Fatalf("Scale() error = %v", err)
	}
	if s.Calories != nil || s.Carbs != nil || s.Fat != nil {
		t.Errorf("absent macros became present: %+v", s)
	}
	if s.Protein == nil || *s.Protein != 5 {
		t.Errorf("Protein = %v, want 5", s.Protein)
	}
}

func TestScale_HalfUp(t *testing.T) {
	// 25 kcal/100g at 10 g = 2.5 kcal; 0.25 g/100g at 100 g = 0.25 g
	s, err := Scale(Baseline{Calories: f(25), Fat: f(0.25)}, Gram, 10)
	if err != nil {
		t.Fatalf("Scale() error = %v", err)
	}
	if *s.Calories != 3 {
		t.Errorf("Calories = %d, want 3 (half-up)", *s.Calories)
	}
	s, _ = Scale(Baseline{Fat: f(0.25)}, Gram, 100)
	if *s.Fat != 0.3 {
		t.Errorf("Fat = %v, want 0.3 (half-up)", *s.Fat)
	}
}

func TestScale_BadUnit(t *testing.T) {
	for _, g := range []float64{0, -1, math.NaN()} {
		_, err := Scale(appleBaseline(), Unit{Label: "bad", GramsPerUnit: g}, 1)
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("Scale(gramsPerUnit=%v) error = %v, want INVALID_REQUEST", g, err)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	tests := map[string]float64{
		"2":     2,
		" 1.5 ": 1.5,
		"":      1,
		"abc":   1,
		"0":     1,
		"-2":    1,
		"NaN":   1,
		"Inf":   1,
	}
	for in, want := range tests {
		if got := ParseQuantity(in); got != want {
			t.Errorf("ParseQuantity(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestServing_Macros(t *testing.T) {
	s, _ := Scale(appleBaseline(), Gram, 150)
	got := s.Macros()
	want := entry.Macros{Calories: 78, Protein: 1, Carbs: 21, Fat: 0}
	if got != want {
		t.Errorf("Macros() = %+v, want %+v", got, want)
	}

	if got := (Serving{}).Macros(); !got.IsZero() {
		t.Errorf("empty Serving.Macros() = %+v, want zero", got)
	}
}

func TestUnitsOrDefault(t *testing.T) {
	got := UnitsOrDefault(nil)
	if len(got) != 2 || got[0] != Gram || got[1] != Ounce {
		t.Errorf("UnitsOrDefault(nil) = %v, want gram and ounce", got)
	}

	got = UnitsOrDefault([]Unit{{Label: "cup", GramsPerUnit: 240}, {Label: "broken", GramsPerUnit: 0}})
	if len(got) != 1 || got[0].Label != "cup" {
		t.Errorf("UnitsOrDefault() = %v, want only cup", got)
	}

	got = UnitsOrDefault([]Unit{{Label: "broken", GramsPerUnit: -1}})
	if len(got) != 2 {
		t.Errorf("UnitsOrDefault(all invalid) = %v, want defaults", got)
	}
}

func TestDefaultUnitIndex(t *testing.T) {
	units := []Unit{Gram, Ounce, {Label: "Serving", GramsPerUnit: 30}}
	if got := DefaultUnitIndex(units); got != 2 {
		t.Errorf("DefaultUnitIndex() = %d, want 2", got)
	}
	if got := DefaultUnitIndex(DefaultUnits()); got != 0 {
		t.Errorf("DefaultUnitIndex(defaults) = %d, want 0", got)
	}
}

func TestFindUnit(t *testing.T) {
	if u, ok := FindUnit(DefaultUnits(), "OUNCE (OZ)"); !ok || u != Ounce {
		t.Errorf("FindUnit() = %v, %v", u, ok)
	}
	if _, ok := FindUnit(DefaultUnits(), "cup"); ok {
		t.Errorf("FindUnit(cup) found, want missing")
	}
}

func TestScale_BadBaseline(t *testing.T) {
	tests := []struct {
		name string
		b    Baseline
	}{
		{"NaN calories", Baseline{Calories: f(math.NaN())}},
		{"infinite protein", Baseline{Protein: f(math.Inf(1))}},
		{"negative infinite carbs", Baseline{Carbs: f(math.Inf(-1))}},
		{"negative fat", Baseline{Fat: f(-0.5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scale(tt.b, Gram, 100)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("Scale() error = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestScale_OverEntryLimits(t *testing.T) {
	tests := []struct {
		name     string
		b        Baseline
		unit     Unit
		quantity float64
	}{
		{"huge quantity", appleBaseline(), Gram, 1e300},
		{"calories over limit", Baseline{Calories: f(900)}, Gram, 600},
		{"protein over limit", Baseline{Protein: f(90)}, Gram, 1200},
		{"grams overflow", Baseline{}, Unit{Label: "tanker", GramsPerUnit: 1e300}, 1e300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Scale(tt.b, tt.unit, tt.quantity)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("Scale() = %+v, %v; want INVALID_REQUEST", s, err)
			}
		})
	}

	// Right at the limits is still fine
	s, err := Scale(Baseline{Calories: f(500), Fat: f(100)}, Gram, 1000)
	if err != nil {
		t.Fatalf("Scale() at limits error = %v", err)
	}
	if *s.Calories != entry.MaxCalories || *s.Fat != entry.MaxGrams {
		t.Errorf("Scale() at limits = %+v", s)
	}
}

func TestFindUnit_ShortNames(t *testing.T) {
	for _, label := range []string{"g", "gram", " GRAM ", "gram (g)"} {
		if u, ok := FindUnit(DefaultUnits(), label); !ok || u != Gram {
			t.Errorf("FindUnit(%q) = %v, %v; want gram", label, u, ok)
		}
	}
	for _, label := range []string{"oz", "ounce", "Ounce (oz)"} {
		if u, ok := FindUnit(DefaultUnits(), label); !ok || u != Ounce {
			t.Errorf("FindUnit(%q) = %v, %v; want ounce", label, u, ok)
		}
	}
	for _, label := range []string{"", "(", "o"} {
		if _, ok := FindUnit(DefaultUnits(), label); ok {
			t.Errorf("FindUnit(%q) found, want missing", label)
		}
	}
}
