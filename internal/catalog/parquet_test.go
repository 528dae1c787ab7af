package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
)

// writeForeignSchema overwrites path with a parquet file whose columns do not
// match the catalog schema.
func writeForeignSchema(t *testing.T, path string) {
	t.Helper()

	type foreignRow struct {
		Barcode string `parquet:"barcode"`
		Title   string `parquet:"title"`
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	pw := parquet.NewGenericWriter[foreignRow](f)
	if _, err := pw.Write([]foreignRow{{Barcode: "b1", Title: "t1"}}); err != nil {
		t.Fatal(err)
	}
	if err := pw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func testRecord(requestID string) Record {
	return Record{
		ProductType: "shirt",
		Color:       "blue",
		Brand:       "Acme",
		Description: "Cotton shirt with button collar",
		ImageURL:    "http://example.com/uploads/" + requestID + ".jpg",
		RequestID:   requestID,
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestParquetAppendAndFind(t *testing.T) {
	w := NewParquetWriter(filepath.Join(t.TempDir(), "catalog.parquet"))
	ctx := context.Background()

	rowID, err := w.Append(ctx, testRecord("req-1"))
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if rowID != "1" {
		t.Errorf("rowID = %q, want 1", rowID)
	}

	got, found, err := w.Find(ctx, "req-1")
	if err != nil || !found {
		t.Fatalf("Find() = (%q, %v, %v), want found", got, found, err)
	}
	if got != rowID {
		t.Errorf("Find rowID = %q, want %q", got, rowID)
	}

	if _, found, _ := w.Find(ctx, "req-missing"); found {
		t.Error("Find() reported a row for an unknown request ID")
	}
}

func TestParquetAppendIsIdempotent(t *testing.T) {
	w := NewParquetWriter(filepath.Join(t.TempDir(), "catalog.parquet"))
	ctx := context.Background()

	first, err := w.Append(ctx, testRecord("req-dup"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := w.Append(ctx, testRecord("req-dup"))
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Errorf("duplicate append returned different row IDs: %q vs %q", first, second)
	}

	count, err := w.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want exactly one row", count)
	}
}

func TestParquetSequentialRowIDs(t *testing.T) {
	w := NewParquetWriter(filepath.Join(t.TempDir(), "catalog.parquet"))
	ctx := context.Background()

	for i, want := range []string{"1", "2", "3"} {
		rowID, err := w.Append(ctx, testRecord("req-"+want))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if rowID != want {
			t.Errorf("append %d rowID = %q, want %q", i, rowID, want)
		}
	}
}

func TestParquetEnsureHeadersAndCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.parquet")
	w := NewParquetWriter(path)
	ctx := context.Background()

	if err := w.EnsureHeaders(ctx); err != nil {
		t.Fatalf("EnsureHeaders() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("catalog file not created: %v", err)
	}

	count, err := w.Count(ctx)
	if err != nil || count != 0 {
		t.Errorf("Count() = (%d, %v), want (0, nil)", count, err)
	}

	// Idempotent against an existing, well-formed file.
	if err := w.EnsureHeaders(ctx); err != nil {
		t.Errorf("second EnsureHeaders() error: %v", err)
	}
}

func TestParquetSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign.parquet")

	// A file written with a different schema must be refused, not misread.
	writeForeignSchema(t, path)

	w := NewParquetWriter(path)
	_, err := w.Append(context.Background(), testRecord("req-1"))

	var se *StoreError
	if !errors.As(err, &se) || se.Reason != SchemaMismatch {
		t.Errorf("Append on foreign schema = %v, want StoreError(SchemaMismatch)", err)
	}
}

func TestParquetCancelledContext(t *testing.T) {
	w := NewParquetWriter(filepath.Join(t.TempDir(), "catalog.parquet"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := w.Append(ctx, testRecord("req-1")); err == nil {
		t.Error("expected error appending with cancelled context")
	}
}
