package importer

// batch.go owns the insert-or-update semantics.
//
// A batchWriter accumulates projected records up to a fixed chunk size and
// flushes them as a single multi-row INSERT ... ON CONFLICT DO UPDATE, one
// round trip per flush. On conflict only the mutable columns are overwritten;
// the generated id and created_at of the existing row stay untouched.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the storage interface the writer needs.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DefaultChunkSize is the number of buffered records per flush.
const DefaultChunkSize = 1000

// upsertSpec describes the flush statement for one target table.
type upsertSpec struct {
	table           string
	columns         []string
	conflictColumns []string
	updateColumns   []string
}

var productUpsert = upsertSpec{
	table:           "products",
	columns:         []string{"id", "handle", "name", "description", "brand", "created_at", "updated_at"},
	conflictColumns: []string{"handle"},
	updateColumns:   []string{"name", "brand", "updated_at"},
}

// Variant conflicts key on (product_id, sku), backed by a unique index, so
// re-importing the same file updates variants in place instead of stacking
// duplicates under fresh ids.
var variantUpsert = upsertSpec{
	table:           "variants",
	columns:         []string{"id", "sku", "product_id", "quantity", "price", "barcode", "status", "created_at", "updated_at"},
	conflictColumns: []string{"product_id", "sku"},
	updateColumns:   []string{"quantity", "price", "status", "updated_at"},
}

// buildUpsertSQL constructs one multi-row upsert statement and its args.
// Pure and deterministic so placeholder numbering and the conflict clause are
// unit-testable without a database.
func buildUpsertSQL(spec upsertSpec, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(spec.table)
	b.WriteString(" (")
	b.WriteString(strings.Join(spec.columns, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(spec.columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range spec.columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteByte(')')
	}

	b.WriteString(" ON CONFLICT (")
	b.WriteString(strings.Join(spec.conflictColumns, ", "))
	b.WriteString(") DO UPDATE SET ")
	for i, c := range spec.updateColumns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c)
		b.WriteString(" = EXCLUDED.")
		b.WriteString(c)
	}

	return b.String(), args
}

// batchWriter buffers projected records for one table and flushes them in
// chunks. Not safe for concurrent use; each run owns its writers exclusively.
type batchWriter struct {
	db      DBTX
	spec    upsertSpec
	size    int
	rows    [][]any
	written int
	log     *slog.Logger
}

func newBatchWriter(db DBTX, spec upsertSpec, size int, log *slog.Logger) *batchWriter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &batchWriter{
		db:   db,
		spec: spec,
		size: size,
		rows: make([][]any, 0, size),
		log:  log,
	}
}

// Enqueue buffers one projected record, flushing first if the buffer is full.
// A record that does not project onto the statement's column set poisons the
// whole batch: the error is fatal for the run.
func (w *batchWriter) Enqueue(ctx context.Context, row []any) error {
	if len(row) != len(w.spec.columns) {
		return fmt.Errorf("%w: %s row has %d values, statement has %d columns",
			ErrMalformedRecord, w.spec.table, len(row), len(w.spec.columns))
	}
	if len(w.rows) >= w.size {
		if err := w.Flush(ctx); err != nil {
			return err
		}
	}
	w.rows = append(w.rows, row)
	return nil
}

// Flush writes all buffered rows in one statement and empties the buffer.
// Flushing an empty buffer is a no-op.
func (w *batchWriter) Flush(ctx context.Context) error {
	if len(w.rows) == 0 {
		return nil
	}

	sql, args := buildUpsertSQL(w.spec, w.rows)
	tag, err := w.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%w: flush %d %s rows: %w", ErrStorageWrite, len(w.rows), w.spec.table, err)
	}

	// An upsert whose rows all match existing identical data can affect
	// zero rows. Worth noticing, not worth failing the run.
	if tag.RowsAffected() == 0 {
		w.log.Warn("flush affected no rows", "table", w.spec.table, "buffered", len(w.rows))
	} else {
		w.log.Debug("flushed batch", "table", w.spec.table, "rows", len(w.rows), "affected", tag.RowsAffected())
	}

	w.written += len(w.rows)
	w.rows = w.rows[:0]
	return nil
}

// Written reports the total number of records flushed so far.
func (w *batchWriter) Written() int { return w.written }
