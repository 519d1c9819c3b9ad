package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"review-sentiment/internal/models"

	"go.uber.org/zap"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS reviews (
    review_id TEXT PRIMARY KEY,
    date      TEXT,
    product   TEXT,
    stars     INTEGER,
    text      TEXT NOT NULL CHECK (length(text) > 0),
    label     TEXT
);
CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product);
`

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func newTestRepo(t *testing.T) (*ReviewRepository, string) {
	t.Helper()
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.sql")
	if err := os.WriteFile(schema, []byte(testSchema), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	repo := NewReviewRepository(filepath.Join(dir, "nested", "reviews.db"), zap.NewNop())
	if err := repo.EnsureSchema(context.Background(), schema); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return repo, schema
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	repo, schema := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, []models.Review{{ReviewID: "1", Text: "kept"}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.EnsureSchema(ctx, schema); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
	all, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("schema re-run lost data: %d rows", len(all))
	}
}

func TestEnsureSchemaMissingScript(t *testing.T) {
	repo := NewReviewRepository(filepath.Join(t.TempDir(), "reviews.db"), zap.NewNop())
	if err := repo.EnsureSchema(context.Background(), filepath.Join(t.TempDir(), "nope.sql")); err == nil {
		t.Fatal("expected error for missing schema file")
	}
}

func TestUpsertReplacesByKey(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	n, err := repo.Upsert(ctx, []models.Review{
		{ReviewID: "1", Text: "first", Label: strPtr("positive")},
		{ReviewID: "2", Text: "other"},
	})
	if err != nil || n != 2 {
		t.Fatalf("Upsert = %d, %v", n, err)
	}

	n, err = repo.Upsert(ctx, []models.Review{{ReviewID: "1", Text: "second", Label: strPtr("negative")}})
	if err != nil || n != 1 {
		t.Fatalf("Upsert = %d, %v", n, err)
	}

	all, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d rows, want 2", len(all))
	}
	for _, r := range all {
		if r.ReviewID == "1" {
			if r.Text != "second" || *r.Label != "negative" {
				t.Fatalf("row 1 not replaced: %+v", r)
			}
		}
	}
}

func TestUpsertRowCountNeverExceedsDistinctIDs(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	batches := [][]string{{"a", "b"}, {"b", "c"}, {"a", "a", "d"}, {"c"}}
	distinct := map[string]struct{}{}
	for i, ids := range batches {
		var reviews []models.Review
		for _, id := range ids {
			distinct[id] = struct{}{}
			reviews = append(reviews, models.Review{ReviewID: id, Text: "batch " + string(rune('0'+i))})
		}
		if _, err := repo.Upsert(ctx, reviews); err != nil {
			t.Fatalf("Upsert batch %d: %v", i, err)
		}

		all, err := repo.LoadAll(ctx)
		if err != nil {
			t.Fatalf("LoadAll: %v", err)
		}
		if len(all) > len(distinct) {
			t.Fatalf("after batch %d: %d rows > %d distinct ids", i, len(all), len(distinct))
		}
	}
}

func TestUpsertRoundTripsOptionalFields(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	d := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)
	in := models.Review{
		ReviewID: "x",
		Date:     &d,
		Product:  strPtr("Phone"),
		Stars:    intPtr(4),
		Text:     "Solid phone",
		Label:    strPtr("POS"),
	}
	if _, err := repo.Upsert(ctx, []models.Review{in, {ReviewID: "y", Text: "bare"}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	all, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	got := all[0]
	if got.Date == nil || !got.Date.Equal(d) {
		t.Errorf("date = %v, want %v", got.Date, d)
	}
	if got.ProductName() != "Phone" || got.Stars == nil || *got.Stars != 4 || *got.Label != "POS" {
		t.Errorf("optional fields lost: %+v", got)
	}

	bare := all[1]
	if bare.Date != nil || bare.Product != nil || bare.Stars != nil || bare.Label != nil {
		t.Errorf("nulls not preserved: %+v", bare)
	}
}

func TestUpsertAllOrNothing(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, []models.Review{{ReviewID: "1", Text: "original"}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// The second row violates the table's CHECK constraint after the first
	// row has already been written inside the transaction.
	_, err := repo.Upsert(ctx, []models.Review{
		{ReviewID: "1", Text: "changed"},
		{ReviewID: "2", Text: ""},
	})
	if err == nil {
		t.Fatal("expected constraint violation")
	}

	all, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 1 || all[0].Text != "original" {
		t.Fatalf("partial write leaked: %+v", all)
	}
}

func TestLoadLabeled(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, []models.Review{
		{ReviewID: "1", Text: "good", Label: strPtr("positive")},
		{ReviewID: "2", Text: "unlabeled"},
		{ReviewID: "3", Text: "bad", Label: strPtr("negative")},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	labeled, err := repo.LoadLabeled(ctx)
	if err != nil {
		t.Fatalf("LoadLabeled: %v", err)
	}
	if len(labeled) != 2 {
		t.Fatalf("got %d labeled rows, want 2", len(labeled))
	}
	for _, r := range labeled {
		if !r.IsLabeled() {
			t.Errorf("unlabeled row returned: %+v", r)
		}
	}
}

func TestMissingDatabaseIsEmptyCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.db")
	repo := NewReviewRepository(path, zap.NewNop())
	ctx := context.Background()

	all, err := repo.LoadAll(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("LoadAll = %v, %v", all, err)
	}
	labeled, err := repo.LoadLabeled(ctx)
	if err != nil || len(labeled) != 0 {
		t.Fatalf("LoadLabeled = %v, %v", labeled, err)
	}
	stats, err := repo.GetStats(ctx)
	if err != nil || stats.Total != 0 {
		t.Fatalf("GetStats = %+v, %v", stats, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("read path created the database file")
	}
}

func TestGetStats(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, []models.Review{
		{ReviewID: "1", Text: "a", Product: strPtr("A"), Label: strPtr("POS")},
		{ReviewID: "2", Text: "b", Product: strPtr("A"), Label: strPtr("NEG")},
		{ReviewID: "3", Text: "c", Product: strPtr("B"), Label: strPtr("POS")},
		{ReviewID: "4", Text: "d"},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	stats, err := repo.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Total != 4 || stats.Labeled != 3 || stats.Unlabeled != 1 {
		t.Errorf("counts wrong: %+v", stats)
	}
	if stats.ByLabel["POS"] != 2 || stats.ByLabel["NEG"] != 1 {
		t.Errorf("by label wrong: %v", stats.ByLabel)
	}
	if stats.ByProduct["A"] != 2 || stats.ByProduct["B"] != 1 || stats.ByProduct[""] != 1 {
		t.Errorf("by product wrong: %v", stats.ByProduct)
	}
}
