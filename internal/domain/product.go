package domain

import "time"

// Product описывает товар, отслеживаемый в каталоге.
// Один и тот же товар может существовать в нескольких коллекциях —
// такие строки независимы и различаются только Collection и ID.
type Product struct {
	ID            int64
	Title         string
	Store         string
	Collection    string
	CurrentPrice  int64 // Цена хранится в минорных единицах валюты
	OriginalPrice int64
	Currency      string
	Status        AvailabilityStatus
	ImageURL      string
	ProductURL    string
	LastCheckedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

func NewProduct(title, store, collection string, price int64, currency string) *Product {
	return &Product{
		Title:         title,
		Store:         store,
		Collection:    collection,
		CurrentPrice:  price,
		OriginalPrice: price,
		Currency:      currency,
		Status:        StatusAvailable,
	}
}
