package domain

import "time"

// RefreshQuotaBucket — счётчик автоматических обновлений цен
// за календарную неделю (неделя начинается с воскресенья 00:00).
// Инкрементируется внешней функцией обновления; здесь только читается.
type RefreshQuotaBucket struct {
	WeekStart    time.Time
	RefreshCount int
}

// WeekStart возвращает начало недельного бакета: ближайшее прошедшее
// воскресенье, 00:00 в часовом поясе now.
func WeekStart(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, -int(now.Weekday()))
}

// NextWeekStart возвращает начало следующего недельного бакета.
func NextWeekStart(now time.Time) time.Time {
	return WeekStart(now).AddDate(0, 0, 7)
}
