// Package csvexport renders export rows as CSV.
package csvexport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
	"github.com/kailas-cloud/techsearch/internal/domain/search/result"
)

// FilenamePrefix starts every generated export filename.
const FilenamePrefix = "company-search-export"

// Columns is the CSV column order. Headers are the catalogue labels.
var Columns = []string{
	field.CompanyName, field.RootDomain, field.CompanyCategory, field.Country, field.City,
	field.State, field.PostalCode, field.Spend, field.TechName, field.TechCategory,
	field.ParentTechName, field.Premium, field.FirstIndexed, field.LastIndexed, field.Description,
}

// Write writes a header row and one record per row. Missing and NULL
// values are written as empty cells.
func Write(w io.Writer, columns []string, rows []result.Row) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c
		if f, ok := field.Lookup(c); ok {
			header[i] = f.Label()
		}
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(columns))
	for n, row := range rows {
		for i, c := range columns {
			record[i] = cell(row[c])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", n, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Render returns the CSV document as a string.
func Render(columns []string, rows []result.Row) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, columns, rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Filename returns "company-search-export-<UTC timestamp>.csv".
func Filename(now time.Time) string {
	return FilenamePrefix + "-" + now.UTC().Format("2006-01-02T15-04-05") + ".csv"
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprint(x)
	}
}
