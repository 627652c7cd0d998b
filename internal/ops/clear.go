package ops

import (
	"context"
	"fmt"
)

// ClearInput contains parameters for the ClearDay operation.
type ClearInput struct {
	Date string // optional; must be today when set
}

// ClearOutput contains the result of the ClearDay operation.
type ClearOutput struct {
	Cleared int    `json:"cleared"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

// ClearDay empties today's list.
func ClearDay(ctx context.Context, env Env, input ClearInput) (*ClearOutput, error) {
	s, err := env.openForWrite(ctx, input.Date)
	if err != nil {
		return nil, err
	}
	n, err := s.Clear(ctx)
	if err != nil {
		return nil, err
	}
	return &ClearOutput{Cleared: n, Date: s.Day(), Message: formatClearMessage(n)}, nil
}

func formatClearMessage(n int) string {
	switch n {
	case 0:
		return "Nothing to clear"
	case 1:
		return "Cleared 1 entry"
	default:
		return fmt.Sprintf("Cleared %d entries", n)
	}
}
