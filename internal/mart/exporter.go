// Package mart exports a loaded dataset as a self-contained SQLite
// star-schema database: four dimension tables, one fact table and a
// metadata table identifying the export. The file is immutable once
// written, so downstream tools can query it without coordination.
package mart

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/brewline/brewline/internal/dataset"
)

// ExportInfo contains metadata about a created export.
type ExportInfo struct {
	ExportID  string
	LoadID    string
	Path      string
	RowCount  int64
	SizeBytes int64
	CreatedAt time.Time
}

// Exporter writes star-schema SQLite exports.
type Exporter struct {
	outputDir string
}

// NewExporter creates a new exporter writing into outputDir.
func NewExporter(outputDir string) *Exporter {
	return &Exporter{outputDir: outputDir}
}

// Export writes the dataset into a new SQLite file and returns its
// metadata. The dataset must be valid; an empty dataset is an error.
func (e *Exporter) Export(ctx context.Context, ds *dataset.Dataset) (*ExportInfo, error) {
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("mart: refusing to export invalid dataset: %w", err)
	}

	exportID := uuid.New().String()
	createdAt := time.Now().UTC()

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("mart: failed to create output directory: %w", err)
	}

	path := filepath.Clean(filepath.Join(e.outputDir, fmt.Sprintf("mart-%s.db", exportID[:8])))

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("mart: failed to create SQLite database: %w", err)
	}
	defer db.Close()

	// WAL during the build, DELETE afterwards so the file ships alone
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("mart: failed to set journal mode: %w", err)
	}

	if err := createSchema(ctx, db); err != nil {
		return nil, err
	}
	if err := insertDimensions(ctx, db, ds); err != nil {
		return nil, err
	}
	if err := insertFacts(ctx, db, ds); err != nil {
		return nil, err
	}
	if err := insertMeta(ctx, db, exportID, ds, createdAt); err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("mart: failed to checkpoint WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=DELETE"); err != nil {
		return nil, fmt.Errorf("mart: failed to set journal mode to DELETE: %w", err)
	}
	if err := db.Close(); err != nil {
		return nil, fmt.Errorf("mart: failed to close database: %w", err)
	}

	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("mart: failed to stat export file: %w", err)
	}

	return &ExportInfo{
		ExportID:  exportID,
		LoadID:    ds.LoadID,
		Path:      path,
		RowCount:  int64(ds.RowCount()),
		SizeBytes: fileInfo.Size(),
		CreatedAt: createdAt,
	}, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE dim_date (
			date_key INTEGER PRIMARY KEY,
			year INTEGER NOT NULL,
			quarter INTEGER NOT NULL,
			month INTEGER NOT NULL,
			day INTEGER NOT NULL
		) WITHOUT ROWID`,
		`CREATE TABLE dim_time (
			time_key INTEGER PRIMARY KEY,
			label TEXT NOT NULL,
			part_of_day TEXT NOT NULL
		) WITHOUT ROWID`,
		`CREATE TABLE dim_product (
			product_key INTEGER PRIMARY KEY,
			category TEXT NOT NULL,
			type TEXT NOT NULL,
			detail TEXT NOT NULL
		) WITHOUT ROWID`,
		`CREATE TABLE dim_store (
			store_key INTEGER PRIMARY KEY,
			location TEXT NOT NULL
		) WITHOUT ROWID`,
		`CREATE TABLE fact_sales (
			transaction_id INTEGER NOT NULL,
			date_key INTEGER NOT NULL REFERENCES dim_date(date_key),
			time_key INTEGER NOT NULL REFERENCES dim_time(time_key),
			product_key INTEGER NOT NULL REFERENCES dim_product(product_key),
			store_key INTEGER NOT NULL REFERENCES dim_store(store_key),
			quantity INTEGER NOT NULL,
			unit_price REAL NOT NULL
		)`,
		"CREATE INDEX idx_fact_date ON fact_sales(date_key)",
		"CREATE INDEX idx_fact_product ON fact_sales(product_key)",
		"CREATE INDEX idx_fact_store ON fact_sales(store_key)",
		`CREATE TABLE _brewline_meta (
			export_id TEXT NOT NULL,
			load_id TEXT NOT NULL,
			fact_rows INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mart: failed to create schema: %w", err)
		}
	}
	return nil
}

func insertDimensions(ctx context.Context, db *sql.DB, ds *dataset.Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mart: failed to begin dimension transaction: %w", err)
	}
	defer tx.Rollback()

	for key, row := range ds.Dates {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO dim_date (date_key, year, quarter, month, day) VALUES (?, ?, ?, ?, ?)",
			key, row.Year, row.Quarter, row.Month, row.Day); err != nil {
			return fmt.Errorf("mart: failed to insert date row: %w", err)
		}
	}
	for key, row := range ds.Times {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO dim_time (time_key, label, part_of_day) VALUES (?, ?, ?)",
			key, row.Label, string(row.PartOfDay)); err != nil {
			return fmt.Errorf("mart: failed to insert time row: %w", err)
		}
	}
	for key, row := range ds.Products {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO dim_product (product_key, category, type, detail) VALUES (?, ?, ?, ?)",
			key, row.Category, row.Type, row.Detail); err != nil {
			return fmt.Errorf("mart: failed to insert product row: %w", err)
		}
	}
	for key, row := range ds.Stores {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO dim_store (store_key, location) VALUES (?, ?)",
			key, row.Location); err != nil {
			return fmt.Errorf("mart: failed to insert store row: %w", err)
		}
	}

	return tx.Commit()
}

func insertFacts(ctx context.Context, db *sql.DB, ds *dataset.Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mart: failed to begin fact transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO fact_sales (transaction_id, date_key, time_key, product_key, store_key, quantity, unit_price)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("mart: failed to prepare fact insert: %w", err)
	}
	defer stmt.Close()

	for _, fact := range ds.Facts {
		if _, err := stmt.ExecContext(ctx,
			fact.TransactionID, fact.DateKey, fact.TimeKey,
			fact.ProductKey, fact.StoreKey, fact.Quantity, fact.UnitPrice); err != nil {
			return fmt.Errorf("mart: failed to insert fact row: %w", err)
		}
	}

	return tx.Commit()
}

func insertMeta(ctx context.Context, db *sql.DB, exportID string, ds *dataset.Dataset, createdAt time.Time) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO _brewline_meta (export_id, load_id, fact_rows, created_at) VALUES (?, ?, ?, ?)",
		exportID, ds.LoadID, ds.RowCount(), createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("mart: failed to insert metadata: %w", err)
	}
	return nil
}

// Verify reads an export back and checks it against the dataset it was
// built from: fact row count and total sales must agree.
func Verify(ctx context.Context, path string, ds *dataset.Dataset) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("mart: failed to open export: %w", err)
	}
	defer db.Close()

	var rows int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fact_sales").Scan(&rows); err != nil {
		return fmt.Errorf("mart: failed to count fact rows: %w", err)
	}
	if rows != int64(ds.RowCount()) {
		return fmt.Errorf("mart: export has %d fact rows, dataset has %d", rows, ds.RowCount())
	}

	var exported float64
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(SUM(quantity * unit_price), 0) FROM fact_sales").Scan(&exported); err != nil {
		return fmt.Errorf("mart: failed to sum exported sales: %w", err)
	}
	expected := 0.0
	for _, fact := range ds.Facts {
		expected += fact.Sales()
	}
	if diff := exported - expected; diff > 1e-6 || diff < -1e-6 {
		return fmt.Errorf("mart: exported sales %.6f do not match dataset sales %.6f", exported, expected)
	}

	return nil
}
