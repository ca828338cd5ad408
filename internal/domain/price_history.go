package domain

import "time"

// PriceHistoryRecord — запись журнала цен. Журнал append-only:
// записи создаются ровно один раз при фактическом изменении цены
// и никогда не изменяются и не удаляются.
type PriceHistoryRecord struct {
	ID            int64
	ProductID     int64
	Price         int64
	OriginalPrice int64
	Currency      string
	RecordedAt    time.Time
}

func NewPriceHistoryRecord(productID, price, originalPrice int64, currency string) *PriceHistoryRecord {
	return &PriceHistoryRecord{
		ProductID:     productID,
		Price:         price,
		OriginalPrice: originalPrice,
		Currency:      currency,
	}
}
