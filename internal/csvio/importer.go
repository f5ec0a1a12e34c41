// Package csvio parses and renders the CSV formats the back office exchanges
// with the point-of-sale export tooling.
package csvio

import (
	"encoding/csv"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"scottys/backend/internal/domain"
)

// importDateFormat is the sale date format used by the POS export (M/d/yyyy,
// no zero padding).
const importDateFormat = "1/2/2006"

const notAssigned = "Not Assigned"

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// stripBOM drops a UTF-8 byte order mark from the first field of the first
// record. Excel prepends one.
func stripBOM(field string) string {
	return strings.TrimPrefix(field, "\ufeff")
}

func parseMoney(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(raw, "$", "")), 64)
}

// ParseProducts reads the product master export. Expected columns per row:
// category, item number, label, subcategory, three unused tax columns, cost
// price (with optional $ prefix). Rows with too few columns or a malformed
// number are skipped and counted, not fatal.
func ParseProducts(r io.Reader) ([]domain.Product, int, error) {
	reader := newReader(r)

	products := make([]domain.Product, 0)
	skipped := 0
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		if first {
			first = false
			continue
		}
		if len(record) < 8 {
			log.Printf("[csv] skipping product row with %d columns", len(record))
			skipped++
			continue
		}

		itemNumber, err := strconv.Atoi(strings.TrimSpace(stripBOM(record[1])))
		if err != nil {
			log.Printf("[csv] skipping product row: bad item number %q", record[1])
			skipped++
			continue
		}
		price, err := parseMoney(record[7])
		if err != nil {
			log.Printf("[csv] skipping product row %d: bad price %q", itemNumber, record[7])
			skipped++
			continue
		}

		subcategory := strings.TrimSpace(record[3])
		if strings.EqualFold(subcategory, notAssigned) {
			subcategory = "N/A"
		}

		products = append(products, domain.Product{
			ItemNumber:  itemNumber,
			Label:       strings.TrimSpace(record[2]),
			Category:    strings.TrimSpace(stripBOM(record[0])),
			Subcategory: subcategory,
			Price:       price,
			RecStatus:   domain.RecStatusActive,
		})
	}
	return products, skipped, nil
}

// ParseSales reads the sales export. Columns: item number, quantity, retail
// price (optional $ prefix), from date, to date. Dates are M/d/yyyy. Bad rows
// are skipped and counted.
func ParseSales(r io.Reader) ([]domain.Sale, int, error) {
	reader := newReader(r)

	sales := make([]domain.Sale, 0)
	skipped := 0
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		if first {
			first = false
			continue
		}
		if len(record) < 5 {
			log.Printf("[csv] skipping sale row with %d columns", len(record))
			skipped++
			continue
		}

		itemNumber, err := strconv.Atoi(strings.TrimSpace(stripBOM(record[0])))
		if err != nil {
			log.Printf("[csv] skipping sale row: bad item number %q", record[0])
			skipped++
			continue
		}
		quantity, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			log.Printf("[csv] skipping sale row %d: bad quantity %q", itemNumber, record[1])
			skipped++
			continue
		}
		price, err := parseMoney(record[2])
		if err != nil {
			log.Printf("[csv] skipping sale row %d: bad price %q", itemNumber, record[2])
			skipped++
			continue
		}
		fromDate, err := time.Parse(importDateFormat, strings.TrimSpace(record[3]))
		if err != nil {
			log.Printf("[csv] skipping sale row %d: bad from date %q", itemNumber, record[3])
			skipped++
			continue
		}
		toDate, err := time.Parse(importDateFormat, strings.TrimSpace(record[4]))
		if err != nil {
			log.Printf("[csv] skipping sale row %d: bad to date %q", itemNumber, record[4])
			skipped++
			continue
		}

		sales = append(sales, domain.Sale{
			ItemNumber: itemNumber,
			Quantity:   quantity,
			Price:      price,
			FromDate:   fromDate,
			ToDate:     toDate,
		})
	}
	return sales, skipped, nil
}

// ParseCategories reads the category list. One or two columns per row: a
// lone value registers (value, value); two columns register (category,
// subcategory).
func ParseCategories(r io.Reader) ([]domain.CategoryRequest, int, error) {
	reader := newReader(r)

	categories := make([]domain.CategoryRequest, 0)
	skipped := 0
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		if first {
			first = false
			continue
		}
		if len(record) == 0 {
			skipped++
			continue
		}

		category := strings.TrimSpace(stripBOM(record[0]))
		if category == "" {
			skipped++
			continue
		}
		subcategory := category
		if len(record) > 1 && strings.TrimSpace(record[1]) != "" {
			subcategory = strings.TrimSpace(record[1])
		}

		categories = append(categories, domain.CategoryRequest{Category: category, Subcategory: subcategory})
	}
	return categories, skipped, nil
}
