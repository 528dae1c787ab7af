package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/parquet-go/parquet-go"
)

// parquetRow mirrors Columns for the on-disk representation.
type parquetRow struct {
	ProductType string `parquet:"productType"`
	Color       string `parquet:"color"`
	Brand       string `parquet:"brand"`
	Description string `parquet:"description"`
	ImageURL    string `parquet:"imageURL"`
	RequestID   string `parquet:"requestId"`
	Timestamp   string `parquet:"timestamp"`
}

// ParquetWriter keeps the catalog in a local Parquet file. Each append
// rewrites the file through a temp-and-rename, so readers never observe a
// partial row. The mutex serializes appends within this process; the file is
// not meant to be shared between concurrently writing processes.
type ParquetWriter struct {
	path string
	mu   sync.Mutex
}

// NewParquetWriter creates a writer backed by the Parquet file at path. The
// file is created on first append.
func NewParquetWriter(path string) *ParquetWriter {
	return &ParquetWriter{path: path}
}

// Append writes rec unless a row with its request ID already exists, in which
// case the existing row ID is returned. Row IDs are 1-based row positions.
func (w *ParquetWriter) Append(ctx context.Context, rec Record) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", &StoreError{Reason: Unavailable, Err: err}
	}

	rows, err := w.readAll()
	if err != nil {
		return "", err
	}

	for i, row := range rows {
		if row.RequestID == rec.RequestID {
			slog.Info("Catalog row already exists, skipping append", "request_id", rec.RequestID, "row_id", i+1)
			return strconv.Itoa(i + 1), nil
		}
	}

	cells := rec.Row()
	rows = append(rows, parquetRow{
		ProductType: cells[0],
		Color:       cells[1],
		Brand:       cells[2],
		Description: cells[3],
		ImageURL:    cells[4],
		RequestID:   cells[5],
		Timestamp:   cells[6],
	})

	if err := w.writeAll(rows); err != nil {
		return "", err
	}

	rowID := strconv.Itoa(len(rows))
	slog.Info("Catalog row appended", "request_id", rec.RequestID, "row_id", rowID, "path", w.path)
	return rowID, nil
}

// Find returns the row ID holding requestID, if any.
func (w *ParquetWriter) Find(ctx context.Context, requestID string) (string, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", false, &StoreError{Reason: Unavailable, Err: err}
	}

	rows, err := w.readAll()
	if err != nil {
		return "", false, err
	}
	for i, row := range rows {
		if row.RequestID == requestID {
			return strconv.Itoa(i + 1), true, nil
		}
	}
	return "", false, nil
}

// EnsureHeaders creates an empty catalog file carrying the schema if none
// exists. Parquet files are self-describing, so there is no header row to
// write beyond the schema itself.
func (w *ParquetWriter) EnsureHeaders(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := os.Stat(w.path); err == nil {
		_, err := w.readAll() // surfaces SchemaMismatch on a foreign file
		return err
	} else if !os.IsNotExist(err) {
		return &StoreError{Reason: Unavailable, Err: err}
	}
	return w.writeAll(nil)
}

// Count returns the number of catalog rows.
func (w *ParquetWriter) Count(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.readAll()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (w *ParquetWriter) readAll() ([]parquetRow, error) {
	f, err := os.Open(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StoreError{Reason: Unavailable, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &StoreError{Reason: Unavailable, Err: err}
	}
	if info.Size() == 0 {
		return nil, nil
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, &StoreError{Reason: Unavailable, Err: fmt.Errorf("failed to open parquet file: %w", err)}
	}

	if err := checkParquetSchema(pf); err != nil {
		return nil, err
	}

	reader := parquet.NewGenericReader[parquetRow](pf)
	defer reader.Close()

	var rows []parquetRow
	buf := make([]parquetRow, 128)
	for {
		n, err := reader.Read(buf)
		rows = append(rows, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &StoreError{Reason: Unavailable, Err: fmt.Errorf("failed to read parquet rows: %w", err)}
		}
	}
	return rows, nil
}

func (w *ParquetWriter) writeAll(rows []parquetRow) error {
	tmp := w.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return &StoreError{Reason: Unavailable, Err: err}
	}

	pw := parquet.NewGenericWriter[parquetRow](f)
	if len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			f.Close()
			os.Remove(tmp)
			return &StoreError{Reason: Unavailable, Err: fmt.Errorf("failed to write parquet rows: %w", err)}
		}
	}
	if err := pw.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return &StoreError{Reason: Unavailable, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &StoreError{Reason: Unavailable, Err: err}
	}

	if err := os.Rename(tmp, w.path); err != nil {
		os.Remove(tmp)
		return &StoreError{Reason: Unavailable, Err: err}
	}
	return nil
}

func checkParquetSchema(pf *parquet.File) error {
	fields := pf.Schema().Fields()
	if len(fields) != len(Columns) {
		return &StoreError{
			Reason: SchemaMismatch,
			Err:    fmt.Errorf("catalog file has %d columns, expected %d", len(fields), len(Columns)),
		}
	}
	names := make(map[string]bool, len(fields))
	for _, field := range fields {
		names[field.Name()] = true
	}
	for _, col := range Columns {
		if !names[col] {
			return &StoreError{
				Reason: SchemaMismatch,
				Err:    fmt.Errorf("catalog file is missing column %q", col),
			}
		}
	}
	return nil
}
