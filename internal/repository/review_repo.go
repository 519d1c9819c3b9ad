package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"review-sentiment/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrMalformedRow is returned when a stored row cannot be decoded.
var ErrMalformedRow = errors.New("malformed stored review")

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// reviewRecord mirrors one row of the reviews table.
type reviewRecord struct {
	ReviewID string         `db:"review_id"`
	Date     sql.NullString `db:"date"`
	Product  sql.NullString `db:"product"`
	Stars    sql.NullInt64  `db:"stars"`
	Text     string         `db:"text"`
	Label    sql.NullString `db:"label"`
}

const upsertQuery = `
	INSERT INTO reviews (review_id, date, product, stars, text, label)
	VALUES (:review_id, :date, :product, :stars, :text, :label)
	ON CONFLICT(review_id) DO UPDATE SET
		date = excluded.date,
		product = excluded.product,
		stars = excluded.stars,
		text = excluded.text,
		label = excluded.label
`

const selectColumns = `SELECT review_id, date, product, stars, text, label FROM reviews`

// ReviewRepository handles review storage. It holds no open connection: every
// operation opens the database, does its work and closes it again.
type ReviewRepository struct {
	path   string
	logger *zap.Logger
}

// NewReviewRepository creates a repository for the SQLite file at dbPath.
func NewReviewRepository(dbPath string, logger *zap.Logger) *ReviewRepository {
	return &ReviewRepository{
		path:   dbPath,
		logger: logger,
	}
}

// Path returns the database file path.
func (r *ReviewRepository) Path() string {
	return r.path
}

// Exists reports whether the database file is present.
func (r *ReviewRepository) Exists() bool {
	_, err := os.Stat(r.path)
	return err == nil
}

func (r *ReviewRepository) open(ctx context.Context) (*sqlx.DB, error) {
	dsn := r.path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// EnsureSchema applies the DDL script at schemaPath. The script must be
// idempotent (CREATE ... IF NOT EXISTS); running it against an existing
// database changes nothing.
func (r *ReviewRepository) EnsureSchema(ctx context.Context, schemaPath string) error {
	ddl, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	r.logger.Debug("Schema applied", zap.String("db_path", r.path), zap.String("schema", schemaPath))
	return nil
}

// Upsert replaces every review by review_id inside a single transaction.
// Either all rows are written or none are. Returns the number of rows processed.
func (r *ReviewRepository) Upsert(ctx context.Context, reviews []models.Review) (int, error) {
	db, err := r.open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, upsertQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range reviews {
		if _, err := stmt.ExecContext(ctx, toRecord(&reviews[i])); err != nil {
			return 0, fmt.Errorf("failed to upsert review %q: %w", reviews[i].ReviewID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}

	r.logger.Info("Reviews upserted", zap.Int("count", len(reviews)), zap.String("db_path", r.path))
	return len(reviews), nil
}

// LoadAll returns every stored review. A missing database file yields an
// empty corpus, not an error.
func (r *ReviewRepository) LoadAll(ctx context.Context) ([]models.Review, error) {
	return r.load(ctx, selectColumns+` ORDER BY rowid`)
}

// LoadLabeled returns only reviews with a non-null label.
func (r *ReviewRepository) LoadLabeled(ctx context.Context) ([]models.Review, error) {
	return r.load(ctx, selectColumns+` WHERE label IS NOT NULL ORDER BY rowid`)
}

func (r *ReviewRepository) load(ctx context.Context, query string) ([]models.Review, error) {
	if !r.Exists() {
		r.logger.Debug("Database file not found, treating corpus as empty", zap.String("db_path", r.path))
		return nil, nil
	}

	db, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var records []reviewRecord
	if err := db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}

	reviews := make([]models.Review, 0, len(records))
	for i := range records {
		review, err := fromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

// Stats summarizes the stored corpus.
type Stats struct {
	Total     int            `json:"total"`
	Labeled   int            `json:"labeled"`
	Unlabeled int            `json:"unlabeled"`
	ByLabel   map[string]int `json:"by_label"`
	ByProduct map[string]int `json:"by_product"`
}

// GetStats returns statistics about stored reviews
func (r *ReviewRepository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByLabel:   make(map[string]int),
		ByProduct: make(map[string]int),
	}
	if !r.Exists() {
		return stats, nil
	}

	db, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(label) FROM reviews").Scan(&stats.Total, &stats.Labeled)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}
	stats.Unlabeled = stats.Total - stats.Labeled

	type group struct {
		Name  string `db:"name"`
		Count int    `db:"n"`
	}

	var byLabel []group
	if err := db.SelectContext(ctx, &byLabel,
		"SELECT label AS name, COUNT(*) AS n FROM reviews WHERE label IS NOT NULL GROUP BY label"); err != nil {
		return nil, fmt.Errorf("failed to group by label: %w", err)
	}
	for _, g := range byLabel {
		stats.ByLabel[g.Name] = g.Count
	}

	var byProduct []group
	if err := db.SelectContext(ctx, &byProduct,
		"SELECT COALESCE(product, '') AS name, COUNT(*) AS n FROM reviews GROUP BY COALESCE(product, '')"); err != nil {
		return nil, fmt.Errorf("failed to group by product: %w", err)
	}
	for _, g := range byProduct {
		stats.ByProduct[g.Name] = g.Count
	}

	return stats, nil
}

func toRecord(review *models.Review) reviewRecord {
	rec := reviewRecord{
		ReviewID: review.ReviewID,
		Text:     review.Text,
	}
	if review.Date != nil {
		rec.Date = sql.NullString{String: review.Date.Format(models.DateLayout), Valid: true}
	}
	if review.Product != nil {
		rec.Product = sql.NullString{String: *review.Product, Valid: true}
	}
	if review.Stars != nil {
		rec.Stars = sql.NullInt64{Int64: int64(*review.Stars), Valid: true}
	}
	if review.Label != nil {
		rec.Label = sql.NullString{String: *review.Label, Valid: true}
	}
	return rec
}

func fromRecord(rec *reviewRecord) (models.Review, error) {
	review := models.Review{
		ReviewID: rec.ReviewID,
		Text:     rec.Text,
	}
	if rec.Date.Valid && rec.Date.String != "" {
		d, err := models.ParseDate(rec.Date.String)
		if err != nil {
			return models.Review{}, fmt.Errorf("%w %q: %v", ErrMalformedRow, rec.ReviewID, err)
		}
		review.Date = &d
	}
	if rec.Product.Valid {
		product := rec.Product.String
		review.Product = &product
	}
	if rec.Stars.Valid {
		stars := int(rec.Stars.Int64)
		review.Stars = &stars
	}
	if rec.Label.Valid {
		label := rec.Label.String
		review.Label = &label
	}
	return review, nil
}
