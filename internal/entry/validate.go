package entry

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hpungsan/macrolog/internal/errors"
)

// Ceilings on a single entry.
const (
	MaxCalories = 5000
	MaxGrams    = 1000
)

// Candidate is user input for a new entry, before validation.
type Candidate struct {
	Name     string
	Macros   Macros
	MealType string
}

// macroBounds carries the per-field limits checked by the validator.
type macroBounds struct {
	Calories int `json:"calories" validate:"gte=0,lte=5000"`
	Protein  int `json:"protein" validate:"gte=0,lte=1000"`
	Carbs    int `json:"carbs" validate:"gte=0,lte=1000"`
	Fat      int `json:"fat" validate:"gte=0,lte=1000"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName trims and collapses internal whitespace. Case is kept.
func NormalizeName(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Validate checks c and returns it with the name normalized and the meal
// type canonicalized. Rules are checked in order: blank name, negative
// values, all four zero, ceilings, meal type.
func Validate(c Candidate) (Candidate, error) {
	c.Name = NormalizeName(c.Name)
	if err := ValidateMacros(c.Name, c.Macros); err != nil {
		return c, err
	}
	meal, ok := ParseMealType(c.MealType)
	if !ok {
		return c, errors.NewValidation(errors.ReasonBadMeal, "meal_type",
			fmt.Sprintf("unknown meal type %q", c.MealType))
	}
	c.MealType = string(meal)
	return c, nil
}

// ValidateMacros applies the name and macro rules shared by add and edit.
func ValidateMacros(name string, m Macros) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewValidation(errors.ReasonBlankName, "name", "food name must not be blank")
	}

	var overLimit validator.FieldError
	err := validate.Struct(macroBounds(m))
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.NewInternal(err)
		}
		for _, fe := range verrs {
			if fe.Tag() == "gte" {
				return errors.NewValidation(errors.ReasonNegative, fe.Field(),
					fmt.Sprintf("%s must not be negative", fe.Field()))
			}
			if overLimit == nil {
				overLimit = fe
			}
		}
	}

	if m.IsZero() {
		return errors.NewValidation(errors.ReasonAllZero, "", "at least one of calories, protein, carbs, fat must be non-zero")
	}

	if overLimit != nil {
		return errors.NewValidation(errors.ReasonOverLimit, overLimit.Field(),
			fmt.Sprintf("%s must be at most %s", overLimit.Field(), overLimit.Param()))
	}
	return nil
}
