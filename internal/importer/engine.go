package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// contextCheckInterval is how often (in rows) the read loop checks for
// context cancellation.
const contextCheckInterval = 1000

// Stats are the run counters returned to the caller. They are meaningful
// only when the import returns a nil error; on the failure path every write
// has been rolled back and the counters must not be trusted.
type Stats struct {
	CorruptedRows    int
	ProductsImported int
	VariantsImported int
}

// TxBeginner starts transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Engine runs catalog imports. An Engine holds no per-run state and is safe
// for concurrent use; each call to Import owns its own buffers, id map, and
// counters for the duration of the run.
type Engine struct {
	db        TxBeginner
	chunkSize int
	log       *slog.Logger
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithChunkSize overrides the batch flush threshold.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithLogger sets the logger used for flush outcomes and run summaries.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithClock fixes the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an import engine backed by db.
func New(db TxBeginner, opts ...Option) *Engine {
	e := &Engine{
		db:        db,
		chunkSize: DefaultChunkSize,
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Import runs a full import of the catalog file at path.
// The file handle is closed on every exit path, independent of the
// transaction outcome.
func (e *Engine) Import(ctx context.Context, path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Stats{}, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return Stats{}, fmt.Errorf("%w: open %s: %w", ErrSourceUnreadable, path, err)
	}
	defer f.Close()

	return e.ImportReader(ctx, f)
}

// ImportReader runs a full import of the catalog rows in r.
//
// The whole run executes inside one transaction: either every accepted row is
// durable when ImportReader returns nil, or none are. The header is checked
// before the transaction begins, so a malformed header has no side effects
// at all.
func (e *Engine) ImportReader(ctx context.Context, r io.Reader) (Stats, error) {
	counting := &countingReader{r: newBOMSkippingReader(r)}
	cr := csv.NewReader(counting)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return Stats{}, fmt.Errorf("%w: read header: %w", ErrInvalidHeader, err)
	}
	if len(header) != ExpectedColumnCount {
		return Stats{}, fmt.Errorf("%w: expected %d columns, got %d",
			ErrInvalidHeader, ExpectedColumnCount, len(header))
	}
	header = append([]string(nil), header...) // cr.Read reuses its record slice

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stats, err := e.run(ctx, tx, cr, header)
	if err != nil {
		e.log.Error("import failed", "error", err, "bytes_read", counting.BytesRead())
		return Stats{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Stats{}, fmt.Errorf("%w: commit import: %w", ErrStorageWrite, err)
	}

	e.log.Info("import committed",
		"corrupted_rows", stats.CorruptedRows,
		"products_imported", stats.ProductsImported,
		"variants_imported", stats.VariantsImported,
		"bytes_read", counting.BytesRead(),
	)
	return stats, nil
}

// pendingVariant holds the parts of an accepted row needed to build a variant
// once the owning product's persisted id is known. The candidate product id
// is deliberately absent here: it may lose to an id already in storage.
type pendingVariant struct {
	handle  string
	sku     string
	qty     int
	price   pgtype.Numeric
	barcode string
}

// run drives the two-phase pass inside an open transaction: read and validate
// every row while flushing product chunks, then resolve persisted product ids
// and write variants. The caller commits on success and rolls back on error.
func (e *Engine) run(ctx context.Context, tx pgx.Tx, cr *csv.Reader, header []string) (Stats, error) {
	var stats Stats
	now := e.now().UTC()
	validator := NewRowValidator(header)
	products := newBatchWriter(tx, productUpsert, e.chunkSize, e.log)

	seen := make(map[string]struct{})
	var pending []pendingVariant

	line := 1 // header consumed
	for {
		raw, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("%w: read row: %w", ErrSourceUnreadable, err)
		}
		line++

		if line%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return stats, fmt.Errorf("import cancelled: %w", err)
			}
		}

		res := validator.Validate(raw)
		if !res.OK() {
			stats.CorruptedRows++
			e.log.Warn("row rejected", "line", line, "reason", res.Reason.String(), "field_errors", len(res.Fields))
			continue
		}

		handle := res.Values[colHandle]
		if _, ok := seen[handle]; !ok {
			// First sight of this handle wins for title and vendor
			// within the run; the storage upsert still refreshes
			// them on re-imports across runs.
			seen[handle] = struct{}{}
			p := NewProductRecord(handle, res.Values[colTitle], res.Values[colVendor], now)
			if err := products.Enqueue(ctx, p.columnValues()); err != nil {
				return stats, err
			}
		}

		qty, _ := strconv.Atoi(res.Values[colQty]) // validated above
		pending = append(pending, pendingVariant{
			handle:  handle,
			sku:     res.Values[colSKU],
			qty:     qty,
			price:   toNumeric(res.Values[colPrice]),
			barcode: res.Values[colBarcode],
		})
	}

	if err := products.Flush(ctx); err != nil {
		return stats, err
	}
	stats.ProductsImported = products.Written()

	idByHandle, err := resolveProductIDs(ctx, tx, seen)
	if err != nil {
		return stats, err
	}
	if len(idByHandle) == 0 {
		return stats, ErrNoProductsResolved
	}

	variants := newBatchWriter(tx, variantUpsert, e.chunkSize, e.log)
	for _, pv := range pending {
		productID, ok := idByHandle[pv.handle]
		if !ok {
			// Every accepted handle was written in this transaction,
			// so a miss here means the store dropped a row under us.
			return stats, fmt.Errorf("%w: no persisted id for handle %q", ErrStorageWrite, pv.handle)
		}
		v := NewVariantRecord(pv.sku, productID, pv.qty, pv.price, pv.barcode, now)
		if err := variants.Enqueue(ctx, v.columnValues()); err != nil {
			return stats, err
		}
	}
	if err := variants.Flush(ctx); err != nil {
		return stats, err
	}
	stats.VariantsImported = variants.Written()

	return stats, nil
}

// resolveProductIDs rebuilds the handle-to-id map from storage after the
// product phase. The map must come from the store, never from the candidates:
// a handle imported in an earlier run keeps its original id and this run's
// candidate is discarded by the upsert.
func resolveProductIDs(ctx context.Context, db DBTX, handles map[string]struct{}) (map[string]uuid.UUID, error) {
	if len(handles) == 0 {
		return nil, nil
	}

	list := make([]string, 0, len(handles))
	for h := range handles {
		list = append(list, h)
	}

	rows, err := db.Query(ctx, `SELECT id, handle FROM products WHERE handle = ANY($1)`, list)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve product ids: %w", ErrStorageWrite, err)
	}
	defer rows.Close()

	ids := make(map[string]uuid.UUID, len(list))
	for rows.Next() {
		var (
			id     uuid.UUID
			handle string
		)
		if err := rows.Scan(&id, &handle); err != nil {
			return nil, fmt.Errorf("%w: scan product id: %w", ErrStorageWrite, err)
		}
		ids[handle] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: resolve product ids: %w", ErrStorageWrite, err)
	}
	return ids, nil
}
