package domain

// AvailabilityStatus — статус наличия товара в магазине.
type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "available"
	StatusUnavailable AvailabilityStatus = "currently_unavailable"
	StatusRanOut      AvailabilityStatus = "ran_out"
)

// ValidStatus сообщает, является ли строка известным статусом наличия.
func ValidStatus(s string) bool {
	switch AvailabilityStatus(s) {
	case StatusAvailable, StatusUnavailable, StatusRanOut:
		return true
	default:
		return false
	}
}
