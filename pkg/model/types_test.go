package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ogulcanaydogan/wattsense/pkg/model"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestEndOfDay(t *testing.T) {
	got := model.EndOfDay(time.Date(2024, 1, 31, 8, 15, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999_000_000, time.UTC), got)
}

func TestBudgetWindow_InclusiveEnd(t *testing.T) {
	w := model.BudgetWindow(date(2024, 1, 1), date(2024, 1, 31))

	assert.True(t, w.Contains(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)))
}

func TestBudgetWindow_Unbounded(t *testing.T) {
	w := model.BudgetWindow(nil, nil)
	assert.True(t, w.Unbounded())
	assert.True(t, w.Contains(time.Unix(0, 0)))

	open := model.BudgetWindow(date(2024, 3, 1), nil)
	assert.False(t, open.Unbounded())
	assert.True(t, open.End.IsZero())
	assert.True(t, open.Contains(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPreviousMonth(t *testing.T) {
	w := model.PreviousMonth(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999_000_000, time.UTC), w.End)

	jan := model.PreviousMonth(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), jan.Start)
}

func TestSeriesLabel(t *testing.T) {
	assert.Equal(t, "PZEM A", model.SeriesA.Label())
	assert.Equal(t, "PZEM B", model.SeriesB.Label())
	assert.Len(t, model.AllSeries, 2)
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Customer", model.User{}.DisplayName())
	assert.Equal(t, "Ayu", model.User{Name: "Ayu"}.DisplayName())
}
