package pgdb

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/krolist-app/go-backend/internal/domain"
)

func TestWeekKey_CalendarDateOnly(t *testing.T) {
	assert.Equal(t, "2024-01-07", weekKey(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)))
}

func TestWeekKey_ZoneIndependent(t *testing.T) {
	// Полночь воскресенья в MSK — это ещё суббота в UTC; ключ бакета
	// обязан остаться календарной датой начала недели, а не сдвинуться
	msk := time.FixedZone("MSK", 3*60*60)
	weekStart := domain.WeekStart(time.Date(2024, 1, 10, 1, 0, 0, 0, msk))

	assert.Equal(t, "2024-01-07", weekKey(weekStart))
	assert.Equal(t, "2024-01-06", weekStart.UTC().Format("2006-01-02"))
}
