// Package importer implements the catalog bulk import engine.
//
// The engine ingests a delimited product catalog export and materializes it
// into the products and variants tables with idempotent upsert semantics.
// A run is a single pass over the source: each raw row is validated against
// the declared column table, accepted rows produce a product candidate (once
// per handle) and a pending variant, and records are persisted in two strictly
// ordered phases inside one transaction. Variants are written only after the
// product phase is durable and every handle's authoritative id has been
// re-read from storage, because a freshly generated candidate id loses to the
// id already stored for a previously imported handle.
//
// Row-level validation failures are absorbed: the row is counted as corrupted
// and skipped. Everything else is fatal and rolls back the whole run.
package importer
