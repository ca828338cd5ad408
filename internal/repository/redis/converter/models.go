package converter

import "time"

// RunProgressRedisModel — сериализуемое представление прогресса запуска.
type RunProgressRedisModel struct {
	RunID     string `json:"run_id"`
	State     string `json:"state"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
}

// ProductInfoRedisModel — сериализуемое представление товара в кэше.
type ProductInfoRedisModel struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Store         string     `json:"store"`
	Collection    string     `json:"collection"`
	CurrentPrice  int64      `json:"current_price"`
	OriginalPrice int64      `json:"original_price"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	ImageURL      string     `json:"image_url"`
	ProductURL    string     `json:"product_url"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
}
