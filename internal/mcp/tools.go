package mcp

import "github.com/mark3labs/mcp-go/mcp"

var foodSearchToolDef = mcp.NewTool("food_search",
	mcp.WithDescription("Search the cached food catalog by name (case-insensitive substring). "+
		"Set sync to refresh the catalog from the API first."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for in food names")),
	mcp.WithBoolean("sync", mcp.Description("Refresh the catalog from the API before searching")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var draftShowToolDef = mcp.NewTool("draft_show",
	mcp.WithDescription("Show the new-meal draft: title, date, selected foods with quantities and total calories."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var draftAddFoodToolDef = mcp.NewTool("draft_add_food",
	mcp.WithDescription("Add a catalog food to the new-meal draft with quantity 0. "+
		"Adding a food already in the draft changes nothing."),
	mcp.WithString("food_id", mcp.Required(), mcp.Description("Catalog food id")),
)

var draftRemoveFoodToolDef = mcp.NewTool("draft_remove_food",
	mcp.WithDescription("Remove a food from the new-meal draft."),
	mcp.WithString("food_id", mcp.Required(), mcp.Description("Food id to remove")),
)

var draftSetQuantityToolDef = mcp.NewTool("draft_set_quantity",
	mcp.WithDescription("Set the quantity of a food already in the new-meal draft."),
	mcp.WithString("food_id", mcp.Required(), mcp.Description("Food id in the draft")),
	mcp.WithNumber("quantity", mcp.Required(), mcp.Description("Non-negative integer quantity in the food's unit")),
)

var draftSetFieldsToolDef = mcp.NewTool("draft_set_fields",
	mcp.WithDescription("Set the title and/or date of the new-meal draft. Omitted fields are kept."),
	mcp.WithString("title", mcp.Description("Meal title")),
	mcp.WithString("date", mcp.Description("Meal date, YYYY-MM-DDTHH:MM local time or RFC 3339")),
)

var draftClearToolDef = mcp.NewTool("draft_clear",
	mcp.WithDescription("Discard the new-meal draft."),
	mcp.WithDestructiveHintAnnotation(true),
)

var mealCreateToolDef = mcp.NewTool("meal_create",
	mcp.WithDescription("Submit the new-meal draft to the API. On success the draft is cleared; "+
		"on failure it is kept unchanged."),
)

var mealListToolDef = mcp.NewTool("meal_list",
	mcp.WithDescription("List recorded meals, newest first, with total calories."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var mealDeleteToolDef = mcp.NewTool("meal_delete",
	mcp.WithDescription("Delete a recorded meal by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Meal id")),
	mcp.WithDestructiveHintAnnotation(true),
)
