package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Внутренние ошибки воркфлоу массового обновления цен
	ErrRunInFlight  = fmt.Errorf("price update run already in flight")
	ErrEmptyEditSet = fmt.Errorf("no valid price changes to save")

	// 400 Bad Request
	ErrProductTitleRequired = fmt.Errorf("product title is required")
	ErrCollectionRequired   = fmt.Errorf("at least one collection is required")
	ErrPriceMustBePositive  = fmt.Errorf("price must be positive")
	ErrInvalidPrice         = fmt.Errorf("invalid price format")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrUnknownStatus        = fmt.Errorf("unknown availability status")
	ErrMissingFields        = fmt.Errorf("missing required fields")
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")
	ErrFileTooLarge         = fmt.Errorf("file too large")

	// 404 Not Found
	ErrRunNotFound = fmt.Errorf("run not found")

	// 429 Too Many Requests
	ErrRefreshLimitReached = fmt.Errorf("weekly refresh limit reached")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")

	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
