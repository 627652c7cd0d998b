package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/ops"
	"github.com/hpungsan/macrolog/internal/scale"
)

// Handlers holds dependencies for MCP tool handlers.
// Every tool reloads the ledger from the store, so writes are serialized
// to keep two calls from both committing over the same snapshot.
type Handlers struct {
	env ops.Env
	mu  sync.Mutex
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env ops.Env) *Handlers {
	return &Handlers{env: env}
}

// Request types for each tool

// EntryAddRequest represents the arguments for entry_add.
type EntryAddRequest struct {
	Date     string `json:"date,omitempty"`
	Name     string `json:"name"`
	Calories int    `json:"calories,omitempty"`
	Protein  int    `json:"protein,omitempty"`
	Carbs    int    `json:"carbs,omitempty"`
	Fat      int    `json:"fat,omitempty"`
	MealType string `json:"meal_type,omitempty"`
}

// EntryEditRequest represents the arguments for entry_edit.
type EntryEditRequest struct {
	Date     string  `json:"date,omitempty"`
	ID       string  `json:"id"`
	Name     *string `json:"name,omitempty"`
	Calories *int    `json:"calories,omitempty"`
	Protein  *int    `json:"protein,omitempty"`
	Carbs    *int    `json:"carbs,omitempty"`
	Fat      *int    `json:"fat,omitempty"`
}

// EntryRemoveRequest represents the arguments for entry_remove.
type EntryRemoveRequest struct {
	Date string `json:"date,omitempty"`
	ID   string `json:"id"`
}

// DayRequest represents the arguments for day_clear, day_view and day_report.
type DayRequest struct {
	Date      string   `json:"date,omitempty"`
	Offset    int      `json:"offset,omitempty"`
	Collapsed []string `json:"collapsed,omitempty"`
}

// DayListRequest represents the arguments for day_list.
type DayListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// GoalsSetRequest represents the arguments for goals_set.
type GoalsSetRequest struct {
	Calories *int `json:"calories,omitempty"`
	Protein  *int `json:"protein,omitempty"`
	Carbs    *int `json:"carbs,omitempty"`
	Fat      *int `json:"fat,omitempty"`
}

// ServingScaleRequest represents the arguments for serving_scale.
// Quantity accepts a JSON string or number.
type ServingScaleRequest struct {
	Per100g  scale.Baseline `json:"per_100g"`
	Units    []scale.Unit   `json:"units,omitempty"`
	Unit     string         `json:"unit,omitempty"`
	Quantity any            `json:"quantity,omitempty"`
}

// FoodSearchRequest represents the arguments for food_search.
type FoodSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// FoodBarcodeRequest represents the arguments for food_barcode.
type FoodBarcodeRequest struct {
	Code string `json:"code"`
}

// HistoryExportRequest represents the arguments for history_export.
type HistoryExportRequest struct {
	Path string `json:"path,omitempty"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// HistoryImportRequest represents the arguments for history_import.
type HistoryImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// HistoryPruneRequest represents the arguments for history_prune.
type HistoryPruneRequest struct {
	OlderThanDays int `json:"older_than_days"`
}

// Handler implementations

// HandleEntryAdd handles the entry_add tool call.
func (h *Handlers) HandleEntryAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EntryAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := ops.AddEntry(ctx, h.env, ops.AddInput{
		Date:     input.Date,
		Name:     input.Name,
		Calories: input.Calories,
		Protein:  input.Protein,
		Carbs:    input.Carbs,
		Fat:      input.Fat,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleEntryEdit handles the entry_edit tool call.
func (h *Handlers) HandleEntryEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EntryEditRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := ops.EditEntry(ctx, h.env, ops.EditInput{
		Date:     input.Date,
		ID:       input.ID,
		Name:     input.Name,
		Calories: input.Calories,
		Protein:  input.Protein,
		Carbs:    input.Carbs,
		Fat:      input.Fat,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleEntryRemove handles the entry_remove tool call.
func (h *Handlers) HandleEntryRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EntryRemoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := ops.RemoveEntry(ctx, h.env, ops.RemoveInput{Date: input.Date, ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDayClear handles the day_clear tool call.
func (h *Handlers) HandleDayClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DayRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := ops.ClearDay(ctx, h.env, ops.ClearInput{Date: input.Date})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDayView handles the day_view tool call.
func (h *Handlers) HandleDayView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DayRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	// Reads can roll the day over, which writes.
	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := ops.ViewDay(ctx, h.env, ops.ViewInput{
		Date:      input.Date,
		Offset:    input.Offset,
		Collapsed: input.Collapsed,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDayList handles the day_list tool call.
func (h *Handlers) HandleDayList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DayListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := ops.ListDays(ctx, h.env, ops.ListDaysInput{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDayReport handles the day_report tool call.
func (h *Handlers) HandleDayReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DayRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := ops.Report(ctx, h.env, ops.ViewInput{
		Date:      input.Date,
		Offset:    input.Offset,
		Collapsed: input.Collapsed,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGoalsGet handles the goals_get tool call.
func (h *Handlers) HandleGoalsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.GetGoals(ctx, h.env)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGoalsSet handles the goals_set tool call.
func (h *Handlers) HandleGoalsSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GoalsSetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := ops.SetGoals(ctx, h.env, ops.SetGoalsInput{
		Calories: input.Calories,
		Protein:  input.Protein,
		Carbs:    input.Carbs,
		Fat:      input.Fat,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleServingScale handles the serving_scale tool call.
func (h *Handlers) HandleServingScale(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ServingScaleRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	qty := ""
	if input.Quantity != nil {
		qty = fmt.Sprint(input.Quantity)
	}
	result, err := ops.ScaleServing(ops.ScaleInput{
		Per100g:  input.Per100g,
		Units:    input.Units,
		Unit:     input.Unit,
		Quantity: qty,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFoodSearch handles the food_search tool call.
func (h *Handlers) HandleFoodSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FoodSearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SearchFoods(ctx, h.env, ops.SearchFoodsInput{Query: input.Query, Limit: input.Limit})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFoodBarcode handles the food_barcode tool call.
func (h *Handlers) HandleFoodBarcode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FoodBarcodeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.LookupBarcode(ctx, h.env, ops.LookupBarcodeInput{Code: input.Code})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHistoryExport handles the history_export tool call.
func (h *Handlers) HandleHistoryExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := ops.ExportHistory(ctx, h.env, ops.ExportInput{
		Path: input.Path,
		From: input.From,
		To:   input.To,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHistoryImport handles the history_import tool call.
func (h *Handlers) HandleHistoryImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := ops.ImportHistory(ctx, h.env, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHistoryPrune handles the history_prune tool call.
func (h *Handlers) HandleHistoryPrune(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryPruneRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := ops.PruneHistory(ctx, h.env, ops.PruneInput{OlderThanDays: input.OlderThanDays})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// INTERNAL errors never carry details; they may hold file paths or SQL.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if macroErr, ok := errors.As(err); ok {
		msg := macroErr.Message
		// Keep context added by wrapping.
		if wrapped := err.Error(); wrapped != macroErr.Error() && macroErr.Code != errors.ErrInternal {
			msg = wrapped
		}
		errorObj := map[string]any{
			"code":    macroErr.Code,
			"message": msg,
			"status":  macroErr.Status,
		}
		if macroErr.Code != errors.ErrInternal && macroErr.Details != nil {
			errorObj["details"] = macroErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
