package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/lookup"
	"github.com/hpungsan/macrolog/internal/scale"
)

// FoodResult is a lookup candidate ready for the scaling step.
type FoodResult struct {
	lookup.Candidate
	Name        string `json:"name"`
	DefaultUnit int    `json:"default_unit"`
}

func toFoodResult(c lookup.Candidate) FoodResult {
	c.Units = c.ScalingUnits()
	return FoodResult{
		Candidate:   c,
		Name:        c.DisplayName(),
		DefaultUnit: scale.DefaultUnitIndex(c.Units),
	}
}

// SearchFoodsInput contains parameters for the SearchFoods operation.
type SearchFoodsInput struct {
	Query string
	Limit int // default 25, max 200
}

// SearchFoodsOutput contains the result of the SearchFoods operation.
type SearchFoodsOutput struct {
	Items []FoodResult `json:"items"`
}

// SearchFoods runs a free-text food search.
func SearchFoods(ctx context.Context, env Env, input SearchFoodsInput) (*SearchFoodsOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if env.Finder == nil {
		return nil, errors.NewLookupFailed("food lookup is not configured (set lookup_url)")
	}
	found, err := env.Finder.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}
	items := make([]FoodResult, 0, len(found))
	for _, c := range found {
		items = append(items, toFoodResult(c))
	}
	return &SearchFoodsOutput{Items: items}, nil
}

// LookupBarcodeInput contains parameters for the LookupBarcode operation.
type LookupBarcodeInput struct {
	Code string
}

// LookupBarcode finds a packaged product by barcode.
func LookupBarcode(ctx context.Context, env Env, input LookupBarcodeInput) (*FoodResult, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, errors.NewInvalidRequest("barcode is required")
	}
	if env.Finder == nil {
		return nil, errors.NewLookupFailed("food lookup is not configured (set lookup_url)")
	}
	c, err := env.Finder.Barcode(ctx, code)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.NewNotFound(code)
	}
	res := toFoodResult(*c)
	return &res, nil
}
