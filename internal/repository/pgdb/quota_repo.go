package pgdb

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/krolist-app/go-backend/pkg/e"
)

// QuotaRepo читает недельные счётчики автоматических обновлений цен.
// Инкремент счётчика выполняет внешняя функция обновления; отсюда бакеты
// только читаются.
type QuotaRepo struct {
	pool *pgxpool.Pool
}

func NewQuotaRepo(pool *pgxpool.Pool) *QuotaRepo {
	return &QuotaRepo{pool: pool}
}

// GetRefreshCount возвращает счётчик бакета с указанным началом недели.
// Отсутствие строки бакета — не ошибка: возвращается 0.
func (q *QuotaRepo) GetRefreshCount(ctx context.Context, weekStart time.Time) (int, error) {
	query := `SELECT refresh_count FROM refresh_quota WHERE week_start = $1::date`

	var count int
	err := q.pool.QueryRow(ctx, query, weekKey(weekStart)).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return count, nil
}

// weekKey приводит начало недельного бакета к календарной дате.
// Сравнение с колонкой DATE не должно зависеть ни от часового пояса
// приложения, ни от часового пояса сессии PostgreSQL.
func weekKey(weekStart time.Time) string {
	return weekStart.Format("2006-01-02")
}
