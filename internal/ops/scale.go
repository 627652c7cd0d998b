package ops

import (
	"strings"

	"github.com/hpungsan/macrolog/internal/entry"
	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/scale"
)

// ScaleInput contains parameters for the ScaleServing operation.
type ScaleInput struct {
	Per100g scale.Baseline
	Units   []scale.Unit // optional, default gram and ounce
	Unit    string       // label from Units; empty picks the default unit
	// Quantity is the raw amount typed by the user. Anything that is not a
	// positive number counts as 1.
	Quantity string
}

// ScaleOutput contains the result of the ScaleServing operation.
type ScaleOutput struct {
	Unit     scale.Unit    `json:"unit"`
	Quantity float64       `json:"quantity"`
	Serving  scale.Serving `json:"serving"`
	// Macros are the whole-number values that would be logged.
	Macros entry.Macros `json:"macros"`
}

// ScaleServing converts a per-100 g baseline into a serving.
func ScaleServing(input ScaleInput) (*ScaleOutput, error) {
	units := scale.UnitsOrDefault(input.Units)

	var u scale.Unit
	if strings.TrimSpace(input.Unit) == "" {
		u = units[scale.DefaultUnitIndex(units)]
	} else {
		var ok bool
		u, ok = scale.FindUnit(units, input.Unit)
		if !ok {
			return nil, errors.NewInvalidRequest("unknown unit " + strings.TrimSpace(input.Unit))
		}
	}

	qty := scale.ParseQuantity(input.Quantity)
	serving, err := scale.Scale(input.Per100g, u, qty)
	if err != nil {
		return nil, err
	}
	return &ScaleOutput{
		Unit:     u,
		Quantity: qty,
		Serving:  serving,
		Macros:   serving.Macros(),
	}, nil
}
