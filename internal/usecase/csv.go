package usecase

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// utf8BOM добавляется к экспортируемому файлу для совместимости
// с табличными редакторами.
const utf8BOM = "\ufeff"

// Колонки экспорта фиксированы; импорт позиционный: колонка 1 — заголовок,
// колонка 3 — цена.
var priceListHeader = []string{
	"Product Title",
	"Store",
	"Current Price",
	"Currency",
	"Product URL",
	"Collections",
	"Number of Copies",
	"Last Updated",
	"Image URL",
}

// BuildPriceListCSV строит CSV прайс-листа: одна строка на отличный
// заголовок товара, коллекции дубликатов агрегируются. Все поля
// экранируются двойными кавычками.
func BuildPriceListCSV(products []ProductInfo) []byte {
	type group struct {
		first       ProductInfo
		collections []string
		copies      int
	}

	order := make([]string, 0, len(products))
	groups := make(map[string]*group, len(products))
	for _, product := range products {
		g, ok := groups[product.Title]
		if !ok {
			g = &group{first: product}
			groups[product.Title] = g
			order = append(order, product.Title)
		}
		g.collections = append(g.collections, product.Collection)
		g.copies++
	}

	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	writeCSVRow(&buf, priceListHeader)

	for _, title := range order {
		g := groups[title]

		lastUpdated := ""
		if g.first.LastCheckedAt != nil {
			lastUpdated = g.first.LastCheckedAt.Format(time.RFC3339)
		}

		writeCSVRow(&buf, []string{
			g.first.Title,
			g.first.Store,
			FormatPriceCents(g.first.CurrentPrice),
			g.first.Currency,
			g.first.ProductURL,
			strings.Join(g.collections, "; "),
			strconv.Itoa(g.copies),
			lastUpdated,
			g.first.ImageURL,
		})
	}

	return buf.Bytes()
}

// ParsePriceListCSV разбирает прайс-лист: колонка 1 — заголовок,
// колонка 3 — цена. Терпим к BOM, кавычкам с запятыми внутри и
// удвоенным кавычкам; строка заголовка пропускается.
func ParsePriceListCSV(r io.Reader) ([]BulkEditEntry, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1

	entries := make([]BulkEditEntry, 0)
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(record) < 3 {
			continue
		}

		title := strings.TrimSpace(record[0])
		price := strings.TrimSpace(record[2])

		// Первая строка без числовой цены — заголовок таблицы
		if first {
			first = false
			if _, err := decimal.NewFromString(price); err != nil {
				continue
			}
		}

		if title == "" {
			continue
		}

		entries = append(entries, BulkEditEntry{Title: title, Price: price})
	}

	return entries, nil
}

// FormatPriceCents форматирует цену из минорных единиц с двумя знаками.
func FormatPriceCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// skipBOM снимает ведущий UTF-8 BOM до того, как его увидит csv.Reader.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == utf8BOM {
		br.Discard(len(utf8BOM))
	}
	return br
}

// writeCSVRow пишет строку, принудительно экранируя каждое поле кавычками.
func writeCSVRow(buf *bytes.Buffer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}
