// Package sheets holds the spreadsheet row layout shared by the export
// adapters.
package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// Columns of an exported transaction row, A to G.
const (
	ColDate = iota
	ColKind
	ColAccount
	ColCategory
	ColAmount
	ColNotes
	ColID

	NumColumns
)

// Header is the first row of an export sheet.
var Header = []any{"Date", "Kind", "Account", "Category", "Amount", "Notes", "ID"}

// EncodeRow renders t in column order.
func EncodeRow(t core.Transaction) []any {
	return []any{
		t.Date.String(),
		string(t.Kind),
		string(t.Account),
		t.Category,
		t.Amount.Euros(),
		t.Notes,
		t.ID,
	}
}

// RowID reads the transaction ID column. Headers, blank and cleared rows
// report false.
func RowID(row []any) (int64, bool) {
	if len(row) <= ColID {
		return 0, false
	}
	s := strings.TrimSpace(fmt.Sprint(row[ColID]))
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Sheets may hand numbers back as floats.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, false
		}
		id = int64(f)
	}
	return id, id > 0
}

// FindRow returns the zero-based index of the row holding id, or -1.
func FindRow(rows [][]any, id int64) int {
	for i, row := range rows {
		if got, ok := RowID(row); ok && got == id {
			return i
		}
	}
	return -1
}
