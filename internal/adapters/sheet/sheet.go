// Package sheet reads and writes customer rosters as xlsx and csv.
// Cell values are copied verbatim in both directions.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/booklibrary/internal/domain"
)

const rosterSheet = "customers"

var Header = []string{"name", "city", "age", "pesel", "street", "app_no"}

var ErrMissingColumn = errors.New("missing column")

func record(c domain.Customer) []string {
	return []string{c.Name, c.City, strconv.Itoa(c.Age), c.Pesel, c.Street, c.AppNo}
}

func WriteXLSX(w io.Writer, customers []domain.Customer) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), rosterSheet); err != nil {
		return err
	}
	head := make([]interface{}, len(Header))
	for i, h := range Header {
		head[i] = h
	}
	if err := f.SetSheetRow(rosterSheet, "A1", &head); err != nil {
		return err
	}
	for i, c := range customers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{c.Name, c.City, c.Age, c.Pesel, c.Street, c.AppNo}
		if err := f.SetSheetRow(rosterSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func WriteCSV(w io.Writer, customers []domain.Customer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, c := range customers {
		if err := cw.Write(record(c)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row is one data line of an imported roster. Line is 1-based and counts
// the header.
type Row struct {
	Line     int
	Customer domain.Customer
	// AgeText is the raw age cell when it did not parse as an integer.
	AgeText string
}

// ReadXLSX reads the first sheet. Columns are matched by header name, in any
// order; blank lines are skipped.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx := map[string]int{}
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range Header {
		if _, ok := idx[h]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, h)
		}
	}

	out := make([]Row, 0, len(rows)-1)
	for n, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		get := func(col string) string {
			i := idx[col]
			if i < len(cells) {
				return cells[i]
			}
			return ""
		}
		row := Row{Line: n + 2}
		row.Customer = domain.Customer{
			Name:   get("name"),
			City:   get("city"),
			Pesel:  get("pesel"),
			Street: get("street"),
			AppNo:  get("app_no"),
		}
		if raw := get("age"); raw != "" {
			age, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				row.AgeText = raw
			} else {
				row.Customer.Age = age
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
