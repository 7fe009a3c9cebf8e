package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tftdiet/tft/internal/app"
	"github.com/tftdiet/tft/internal/errors"
	"github.com/tftdiet/tft/internal/mealform"
	"github.com/tftdiet/tft/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers. Every handler runs as
// one event under the app lock.
type Handlers struct {
	app *app.App
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(a *app.App) *Handlers {
	return &Handlers{app: a}
}

// Request types for each tool

// FoodSearchRequest represents the arguments for food_search.
type FoodSearchRequest struct {
	Query string `json:"query"`
	Sync  bool   `json:"sync,omitempty"`
}

// FoodRequest represents the arguments for draft_add_food and draft_remove_food.
type FoodRequest struct {
	FoodID string `json:"food_id"`
}

// SetQuantityRequest represents the arguments for draft_set_quantity.
type SetQuantityRequest struct {
	FoodID   string `json:"food_id"`
	Quantity *int   `json:"quantity"`
}

// SetFieldsRequest represents the arguments for draft_set_fields.
type SetFieldsRequest struct {
	Title *string `json:"title,omitempty"`
	Date  *string `json:"date,omitempty"`
}

// MealRequest represents the arguments for meal_delete.
type MealRequest struct {
	ID string `json:"id"`
}

// Handler implementations

// HandleFoodSearch handles the food_search tool call.
func (h *Handlers) HandleFoodSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FoodSearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.app.Lock()
	defer h.app.Unlock()

	if input.Sync {
		if _, err := ops.SyncFoods(ctx, h.app); err != nil {
			return errorResult(err), nil
		}
	}
	return successResult(ops.SearchFoods(h.app, input.Query))
}

// HandleDraftShow handles the draft_show tool call.
func (h *Handlers) HandleDraftShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.app.Lock()
	defer h.app.Unlock()

	return successResult(ops.ShowForm(h.app, mealform.New))
}

// HandleDraftAddFood handles the draft_add_food tool call.
func (h *Handlers) HandleDraftAddFood(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FoodRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.app.Lock()
	defer h.app.Unlock()

	result, err := ops.AddFood(h.app, ops.FoodInput{Instance: mealform.New, FoodID: input.FoodID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDraftRemoveFood handles the draft_remove_food tool call.
func (h *Handlers) HandleDraftRemoveFood(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FoodRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.app.Lock()
	defer h.app.Unlock()

	result, err := ops.RemoveFood(h.app, ops.FoodInput{Instance: mealform.New, FoodID: input.FoodID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDraftSetQuantity handles the draft_set_quantity tool call.
func (h *Handlers) HandleDraftSetQuantity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetQuantityRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Quantity == nil {
		return errorResult(errors.NewInvalidRequest("quantity is required")), nil
	}

	h.app.Lock()
	defer h.app.Unlock()

	result, err := ops.SetQuantity(h.app, ops.SetQuantityInput{
		Instance: mealform.New,
		FoodID:   input.FoodID,
		Quantity: *input.Quantity,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDraftSetFields handles the draft_set_fields tool call.
func (h *Handlers) HandleDraftSetFields(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetFieldsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.app.Lock()
	defer h.app.Unlock()

	result, err := ops.SetFields(h.app, ops.SetFieldsInput{
		Instance: mealform.New,
		Title:    input.Title,
		Date:     input.Date,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDraftClear handles the draft_clear tool call.
func (h *Handlers) HandleDraftClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.app.Lock()
	defer h.app.Unlock()

	result, err := ops.ResetForm(ctx, h.app, mealform.New)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleMealCreate handles the meal_create tool call.
func (h *Handlers) HandleMealCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.app.Lock()
	defer h.app.Unlock()

	result, err := ops.CreateMeal(ctx, h.app)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleMealList handles the meal_list tool call.
func (h *Handlers) HandleMealList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.app.Lock()
	defer h.app.Unlock()

	result, err := ops.ListMeals(ctx, h.app)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleMealDelete handles the meal_delete tool call.
func (h *Handlers) HandleMealDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MealRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.app.Lock()
	defer h.app.Unlock()

	result, err := ops.DeleteMeal(ctx, h.app, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	tErr := errors.As(err)
	errorObj := map[string]any{
		"code":    tErr.Code,
		"message": tErr.Message,
		"status":  tErr.Status,
	}
	if tErr.Code == errors.ErrInternal {
		// Internal causes may carry file paths or SQL text.
		errorObj["message"] = "an internal error occurred"
	} else if tErr.Details != nil {
		errorObj["details"] = tErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
