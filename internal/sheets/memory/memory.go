// Package memory is an in-process export sheet for tests and local runs.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/sheets"
)

// Sheet keeps exported rows in insertion order, header first.
type Sheet struct {
	mu   sync.Mutex
	rows [][]any
}

var _ ports.Exporter = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{rows: [][]any{sheets.Header}}
}

// UpsertTransaction rewrites the row holding t.ID, or appends one.
func (s *Sheet) UpsertTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row := sheets.EncodeRow(t)
	if i := sheets.FindRow(s.rows, t.ID); i >= 0 {
		s.rows[i] = row
		return nil
	}
	s.rows = append(s.rows, row)
	return nil
}

// DeleteTransaction blanks the row holding id. Unknown ids are ignored.
func (s *Sheet) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := sheets.FindRow(s.rows, id); i >= 0 {
		s.rows[i] = make([]any, sheets.NumColumns)
	}
	return nil
}

// Rows returns a copy of the sheet contents.
func (s *Sheet) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// IDs lists the transaction IDs currently exported, in row order.
func (s *Sheet) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, r := range s.rows {
		if id, ok := sheets.RowID(r); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
