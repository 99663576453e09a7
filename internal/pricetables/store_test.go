package pricetables

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/Simplici0/hagaki/internal/db"
	"github.com/Simplici0/hagaki/internal/migrations"
	"github.com/Simplici0/hagaki/internal/pricing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if _, err := migrations.Up(ctx, database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return NewStore(database)
}

func TestLatestOnEmptyStore(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Latest(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestImportThenLoadNewest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Import(ctx, pricing.DefaultTableYAML, "initial"); err != nil {
		t.Fatalf("import default: %v", err)
	}
	revised := strings.Replace(string(pricing.DefaultTableYAML), "postcard_unit_price: 85", "postcard_unit_price: 90", 1)
	id, err := store.Import(ctx, []byte(revised), "postage revision")
	if err != nil {
		t.Fatalf("import revision: %v", err)
	}

	table, rev, err := store.LoadTable(ctx)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if rev.ID != id || rev.Note != "postage revision" {
		t.Fatalf("unexpected revision: %+v", rev)
	}
	if table.PostcardUnitPrice != 90 {
		t.Fatalf("PostcardUnitPrice = %d, want 90", table.PostcardUnitPrice)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != id {
		t.Fatalf("expected newest first, got %+v", list)
	}
}

func TestImportRejectsInvalidTable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	broken := strings.Replace(string(pricing.DefaultTableYAML), "step_size: 10", "step_size: 0", 1)
	if _, err := store.Import(ctx, []byte(broken), ""); !errors.Is(err, pricing.ErrInvalidTable) {
		t.Fatalf("expected ErrInvalidTable, got %v", err)
	}

	assertRevisionCount(t, store.db, 0)
}

func assertRevisionCount(t *testing.T, database *sql.DB, expected int) {
	t.Helper()

	var count int
	if err := database.QueryRow(`SELECT COUNT(*) FROM price_tables`).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
