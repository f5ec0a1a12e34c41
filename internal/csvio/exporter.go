package csvio

import (
	"fmt"
	"io"
	"strings"

	"scottys/backend/internal/domain"
)

// bom is written first so Excel detects UTF-8.
const bom = "\ufeff"

// quote escapes and wraps one field. Every exported field is quoted; the
// downstream spreadsheet tooling expects it.
func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func writeRecord(w io.Writer, fields ...string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quote(f)
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	return err
}

// WriteReport renders the item+subtotal report. The category column carries
// the "Category - Subcategory" pair; the cost and sales columns are priced at
// unit retail.
func WriteReport(w io.Writer, rows []domain.AnalyticsRow) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}
	if err := writeRecord(w, "Item Number", "Label", "Category", "Cost", "Quantity", "Sales"); err != nil {
		return err
	}

	for _, row := range rows {
		err := writeRecord(w,
			fmt.Sprintf("%d", row.ItemNumber),
			row.Label,
			row.Category+" - "+row.Subcategory,
			fmt.Sprintf("%.2f", row.UnitRetail),
			fmt.Sprintf("%d", row.TotalQuantity),
			fmt.Sprintf("%.2f", row.UnitRetail*float64(row.TotalQuantity)),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteWeeklyReport renders the weekly allocation report. The header spans
// three cells per week bucket; a second header row labels the Price, Quantity
// and Sales columns inside each span.
func WriteWeeklyReport(w io.Writer, weeks []string, rows []domain.WeeklyRow) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}

	header := []string{"Item Number", "Label", "Category"}
	for _, week := range weeks {
		header = append(header, week, "", "")
	}
	if err := writeRecord(w, header...); err != nil {
		return err
	}

	subheader := []string{"", "", ""}
	for range weeks {
		subheader = append(subheader, "Price", "Quantity", "Sales")
	}
	if err := writeRecord(w, subheader...); err != nil {
		return err
	}

	for _, row := range rows {
		fields := []string{
			fmt.Sprintf("%d", row.ItemNumber),
			row.Label,
			row.Category + " - " + row.Subcategory,
		}
		for _, week := range weeks {
			quantity, ok := row.WeeklySales[week]
			if !ok {
				fields = append(fields, "0.00", "0", "0.00")
				continue
			}
			fields = append(fields,
				fmt.Sprintf("%.2f", row.UnitRetail),
				fmt.Sprintf("%d", quantity),
				fmt.Sprintf("%.2f", row.UnitRetail*float64(quantity)),
			)
		}
		if err := writeRecord(w, fields...); err != nil {
			return err
		}
	}
	return nil
}
