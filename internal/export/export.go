// Package export renders service history and inventory as CSV.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/ukydev/garage-ops/internal/models"
)

const (
	dateLayout    = "2006-01-02"
	listSeparator = " | "
)

// ServicesCSV writes the service history of v, one row per record, in stored order.
func ServicesCSV(w io.Writer, v *models.Vehicle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"vehicle", "plate", "date", "type", "status", "mileage_km", "cost", "parts", "notes"}); err != nil {
		return err
	}
	if v != nil {
		name := v.DisplayName()
		for _, s := range v.Services {
			date := ""
			if !s.Date.IsZero() {
				date = s.Date.Format(dateLayout)
			}
			rec := []string{
				cell(name),
				cell(v.Plate),
				date,
				string(s.Type),
				string(s.Status),
				strconv.Itoa(s.MileageAtService),
				formatMoney(s.Cost),
				cell(strings.Join(s.Parts, listSeparator)),
				cell(s.Notes),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// PartsCSV writes the inventory with its stock value.
func PartsCSV(w io.Writer, parts []models.Part) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sku", "name", "category", "stock", "unit_cost", "stock_value"}); err != nil {
		return err
	}
	for _, p := range parts {
		rec := []string{
			cell(p.SKU),
			cell(p.Name),
			cell(p.Category),
			strconv.Itoa(p.Stock),
			formatMoney(p.UnitCost),
			formatMoney(p.UnitCost * float64(p.Stock)),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// cell prefixes free text that a spreadsheet would evaluate as a formula.
func cell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
