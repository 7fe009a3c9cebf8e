package ops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/app/apptest"
	"github.com/tftdiet/tft/internal/errors"
)

func TestMealRequest_TitleRequired(t *testing.T) {
	a, _ := apptest.New(t)
	a.NewForm.SetFields("   ", "2024-05-01T08:00")

	_, err := mealRequest(a, a.NewForm)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestMealRequest_EmptyDateIsNow(t *testing.T) {
	a, _ := apptest.New(t)
	a.NewForm.SetFields(" Lunch ", "")
	require.True(t, a.NewForm.Table().Add("f1"))

	req, err := mealRequest(a, a.NewForm)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", req.Title)
	assert.Equal(t, "2024-05-01T12:00:00Z", req.Date)
	assert.Equal(t, []api.SelectedFoodEntry{{FoodID: "f1"}}, req.Foods)
}

func TestMealRequest_DateSentAsUTC(t *testing.T) {
	a, _ := apptest.New(t)
	a.Location = time.FixedZone("BRT", -3*3600)
	a.NewForm.SetFields("Dinner", "2024-05-01T19:00")

	req, err := mealRequest(a, a.NewForm)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T22:00:00Z", req.Date)
}

func TestMealRequest_BadDate(t *testing.T) {
	a, _ := apptest.New(t)
	a.NewForm.SetFields("Dinner", "tonight")

	_, err := mealRequest(a, a.NewForm)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestFormatFormDate(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	utc := time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-01T19:00", FormatFormDate(utc, brt))
	assert.Equal(t, "2024-05-01T22:00", FormatFormDate(utc, time.UTC))
}
