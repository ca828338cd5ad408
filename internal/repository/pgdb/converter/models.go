package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID            int64      `db:"id"`
	Title         string     `db:"title"`
	Store         string     `db:"store"`
	Collection    string     `db:"collection"`
	CurrentPrice  int64      `db:"current_price"`
	OriginalPrice int64      `db:"original_price"`
	Currency      string     `db:"currency"`
	Status        string     `db:"status"`
	ImageURL      string     `db:"image_url"`
	ProductURL    string     `db:"product_url"`
	LastCheckedAt *time.Time `db:"last_checked_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	ProductID   int64      `db:"product_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}

// PriceHistoryModel представляет запись таблицы price_history в PostgreSQL.
type PriceHistoryModel struct {
	ID            int64     `db:"id"`
	ProductID     int64     `db:"product_id"`
	Price         int64     `db:"price"`
	OriginalPrice int64     `db:"original_price"`
	Currency      string    `db:"currency"`
	RecordedAt    time.Time `db:"recorded_at"`
}
