package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/app"
	"github.com/tftdiet/tft/internal/errors"
	"github.com/tftdiet/tft/internal/mealform"
	"github.com/tftdiet/tft/internal/ops"
	"github.com/tftdiet/tft/internal/web"
)

// Output formats accepted by --format.
const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

// newCLIApp creates the CLI application with all commands. a may be nil
// when only help or version output is needed.
func newCLIApp(a *app.App) *cli.App {
	cliApp := &cli.App{
		Name:    "tft",
		Usage:   "Meal and calorie tracker",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatJSON, Usage: "Output format: json|yaml|table"},
		},
		Commands: []*cli.Command{
			foodsCmd(a),
			draftCmd(a),
			mealsCmd(a),
			profileCmd(a),
			statsCmd(a),
			reportCmd(a),
			serveCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// action runs fn as one event under the app lock and prints its result.
func action(a *app.App, fn func(c *cli.Context) (any, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		a.Lock()
		defer a.Unlock()

		out, err := fn(c)
		if err != nil {
			return outputError(err)
		}
		return output(c, out)
	}
}

// foodsCmd creates the foods command group.
func foodsCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "foods",
		Usage: "Food catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Refresh the cached catalog from the API",
				Action: action(a, func(c *cli.Context) (any, error) {
					return ops.SyncFoods(c.Context, a)
				}),
			},
			{
				Name:      "search",
				Usage:     "Search cached foods by name",
				ArgsUsage: "<query>",
				Action: action(a, func(c *cli.Context) (any, error) {
					if c.NArg() == 0 {
						return nil, errors.NewInvalidRequest("query is required")
					}
					return ops.SearchFoods(a, strings.Join(c.Args().Slice(), " ")), nil
				}),
			},
		},
	}
}

// draftCmd creates the draft command group. It edits the persisted new-meal
// form.
func draftCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "draft",
		Usage: "Edit the new-meal draft",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the draft",
				Action: action(a, func(c *cli.Context) (any, error) {
					return ops.ShowForm(a, mealform.New), nil
				}),
			},
			{
				Name:      "add",
				Usage:     "Add a food to the draft",
				ArgsUsage: "<food-id>",
				Action: action(a, func(c *cli.Context) (any, error) {
					return ops.AddFood(a, ops.FoodInput{Instance: mealform.New, FoodID: c.Args().First()})
				}),
			},
			{
				Name:      "remove",
				Usage:     "Remove a food from the draft",
				ArgsUsage: "<food-id>",
				Action: action(a, func(c *cli.Context) (any, error) {
					return ops.RemoveFood(a, ops.FoodInput{Instance: mealform.New, FoodID: c.Args().First()})
				}),
			},
			{
				Name:      "qty",
				Usage:     "Set the quantity of a food in the draft",
				ArgsUsage: "<food-id> <quantity>",
				Action: action(a, func(c *cli.Context) (any, error) {
					if c.NArg() != 2 {
						return nil, errors.NewInvalidRequest("usage: tft draft qty <food-id> <quantity>")
					}
					qty, err := parseQuantity(c.Args().Get(1))
					if err != nil {
						return nil, err
					}
					return ops.SetQuantity(a, ops.SetQuantityInput{
						Instance: mealform.New,
						FoodID:   c.Args().First(),
						Quantity: qty,
					})
				}),
			},
			{
				Name:  "set",
				Usage: "Set the draft title and/or date",
				Flags: fieldFlags(),
				Action: action(a, func(c *cli.Context) (any, error) {
					in := ops.SetFieldsInput{Instance: mealform.New}
					in.Title, in.Date = fieldValues(c)
					return ops.SetFields(a, in)
				}),
			},
			{
				Name:  "clear",
				Usage: "Discard the draft",
				Action: action(a, func(c *cli.Context) (any, error) {
					return ops.ResetForm(c.Context, a, mealform.New)
				}),
			},
			{
				Name:  "submit",
				Usage: "Create a meal from the draft",
				Action: action(a, func(c *cli.Context) (any, error) {
					return ops.CreateMeal(c.Context, a)
				}),
			},
		},
	}
}

// mealsCmd creates the meals command group.
func mealsCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "meals",
		Usage: "Recorded meals",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List meals, newest first",
				Action: action(a, func(c *cli.Context) (any, error) {
					return ops.ListMeals(c.Context, a)
				}),
			},
			{
				Name:      "show",
				Usage:     "Show one meal as it loads into the edit form",
				ArgsUsage: "<id>",
				Action: action(a, func(c *cli.Context) (any, error) {
					return ops.EditMeal(c.Context, a, c.Args().First())
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a meal",
				ArgsUsage: "<id>",
				Action: action(a, func(c *cli.Context) (any, error) {
					return ops.DeleteMeal(c.Context, a, c.Args().First())
				}),
			},
			{
				Name:      "edit",
				Usage:     "Edit a meal and save it",
				ArgsUsage: "<id>",
				Flags: append(fieldFlags(),
					&cli.StringSliceFlag{Name: "add", Usage: "Food id to add (repeatable)"},
					&cli.StringSliceFlag{Name: "remove", Usage: "Food id to remove (repeatable)"},
					&cli.StringSliceFlag{Name: "qty", Usage: "Quantity as <food-id>=<n> (repeatable)"},
				),
				Action: action(a, func(c *cli.Context) (any, error) {
					return editMeal(c, a)
				}),
			},
		},
	}
}

// editMeal loads a meal into the edit form, applies the flags in order
// add, remove, qty, fields, then submits it.
func editMeal(c *cli.Context, a *app.App) (*ops.MutationOutput, error) {
	if _, err := ops.EditMeal(c.Context, a, c.Args().First()); err != nil {
		return nil, err
	}

	for _, id := range c.StringSlice("add") {
		if _, err := ops.AddFood(a, ops.FoodInput{Instance: mealform.Edit, FoodID: id}); err != nil {
			return nil, err
		}
	}
	for _, id := range c.StringSlice("remove") {
		if _, err := ops.RemoveFood(a, ops.FoodInput{Instance: mealform.Edit, FoodID: id}); err != nil {
			return nil, err
		}
	}
	for _, pair := range c.StringSlice("qty") {
		id, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("--qty %q: want <food-id>=<n>", pair))
		}
		qty, err := parseQuantity(raw)
		if err != nil {
			return nil, err
		}
		if _, err := ops.SetQuantity(a, ops.SetQuantityInput{Instance: mealform.Edit, FoodID: id, Quantity: qty}); err != nil {
			return nil, err
		}
	}

	in := ops.SetFieldsInput{Instance: mealform.Edit}
	in.Title, in.Date = fieldValues(c)
	if in.Title != nil || in.Date != nil {
		if _, err := ops.SetFields(a, in); err != nil {
			return nil, err
		}
	}

	return ops.UpdateMeal(c.Context, a)
}

// profileCmd creates the profile command group.
func profileCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Personal information used for the daily limit",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show saved personal information and the form options",
				Action: action(a, func(c *cli.Context) (any, error) {
					return ops.LoadProfile(c.Context, a)
				}),
			},
			{
				Name:  "set",
				Usage: "Save personal information; unset flags keep their saved value",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "age", Usage: "Age in years"},
					&cli.StringFlag{Name: "gender", Usage: "male|female"},
					&cli.Float64Flag{Name: "weight", Usage: "Weight in kg"},
					&cli.IntFlag{Name: "height", Usage: "Height in cm"},
					&cli.IntFlag{Name: "activity-level", Usage: "Activity level id"},
					&cli.IntFlag{Name: "goal", Usage: "Goal id"},
				},
				Action: action(a, func(c *cli.Context) (any, error) {
					current, err := a.API.PersonalInfo(c.Context)
					if err != nil {
						return nil, err
					}
					var info api.PersonalInfo
					if current != nil {
						info = *current
					}
					if c.IsSet("age") {
						info.Age = c.Int("age")
					}
					if c.IsSet("gender") {
						info.Gender = c.String("gender")
					}
					if c.IsSet("weight") {
						info.Weight = c.Float64("weight")
					}
					if c.IsSet("height") {
						info.Height = c.Int("height")
					}
					if c.IsSet("activity-level") {
						info.ActivityLevelID = c.Int("activity-level")
					}
					if c.IsSet("goal") {
						info.GoalID = c.Int("goal")
					}
					return ops.SaveProfile(c.Context, a, info)
				}),
			},
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Calories of the last 7 days against BMR and TDEE",
		Action: action(a, func(c *cli.Context) (any, error) {
			return ops.Chart(c.Context, a)
		}),
	}
}

// reportCmd creates the report command.
func reportCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Today's meals against the daily limit",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"m"}, Usage: "Print the report as markdown"},
		},
		Action: func(c *cli.Context) error {
			a.Lock()
			defer a.Unlock()

			report, err := ops.Report(c.Context, a)
			if err != nil {
				return outputError(err)
			}
			if c.Bool("markdown") {
				_, err := io.WriteString(c.App.Writer, report.Markdown)
				return err
			}
			return output(c, report)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8420, Usage: "Port to listen on"},
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind to"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(a, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(err)
			}
			return web.Run(c.Context, a, srv)
		},
	}
}

// Helper functions

func fieldFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Meal title"},
		&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Meal date, YYYY-MM-DDTHH:MM or RFC 3339"},
	}
}

// fieldValues returns the title and date flags, nil when not given.
func fieldValues(c *cli.Context) (title, date *string) {
	if c.IsSet("title") {
		v := c.String("title")
		title = &v
	}
	if c.IsSet("date") {
		v := c.String("date")
		date = &v
	}
	return title, date
}

// parseQuantity parses a non-negative integer quantity argument.
func parseQuantity(s string) (int, error) {
	qty, ok := mealform.ParseQuantity(s)
	if !ok {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("quantity %q must be a non-negative integer", s))
	}
	return qty, nil
}

// output writes v in the format chosen by --format.
func output(c *cli.Context, v any) error {
	switch format := strings.ToLower(c.String("format")); format {
	case "", formatJSON:
		return outputJSON(c.App.Writer, v)
	case formatYAML:
		return outputYAML(c.App.Writer, v)
	case formatTable:
		return outputTable(c.App.Writer, v)
	default:
		return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown format %q (want json, yaml or table)", format)))
	}
}

// outputJSON marshals result as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML renders v as block-style YAML. v goes through its JSON form so
// field names and order match the JSON output.
func outputYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle clears the flow and quoting styles JSON input parses with.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// outputTable renders list-shaped results as a bordered table.
func outputTable(w io.Writer, v any) error {
	var headers []string
	var rows [][]string

	switch out := v.(type) {
	case *ops.ListMealsOutput:
		headers, rows = mealRows(out.Meals)
	case *ops.MutationOutput:
		headers, rows = mealRows(out.Meals)
	case *ops.FoodSearchOutput:
		headers = []string{"ID", "Food", "Calories"}
		for _, f := range out.Foods {
			rows = append(rows, []string{string(f.ID), mealform.FoodLabel(f), api.FormatCalories(f.Calories) + " kcal"})
		}
	case *ops.FormOutput:
		headers = []string{"ID", "Food", "Quantity", "Calories"}
		for _, f := range out.Foods {
			food := api.Food{ID: f.ID, Name: f.Name, Unit: f.Unit, Calories: f.Calories}
			rows = append(rows, []string{
				string(f.ID), mealform.FoodLabel(food), strconv.Itoa(f.Quantity),
				api.FormatCalories(f.Calories*float64(f.Quantity)) + " kcal",
			})
		}
		rows = append(rows, []string{"", "Total", "", api.FormatCalories(out.TotalCalories) + " kcal"})
	default:
		return outputError(errors.NewInvalidRequest("table format is not supported by this command"))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func mealRows(meals []ops.MealSummary) ([]string, [][]string) {
	rows := make([][]string, 0, len(meals))
	for _, m := range meals {
		rows = append(rows, []string{
			string(m.ID), m.Title, m.DisplayDate, api.FormatCalories(m.TotalCalories) + " kcal",
		})
	}
	return []string{"ID", "Title", "Date", "Calories"}, rows
}

// outputError formats error for CLI.
func outputError(err error) error {
	tErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
}
