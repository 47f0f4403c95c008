package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	var mode string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	if err != nil {
		t.Fatalf("Failed to query journal_mode: %v", err)
	}
	if mode != "delete" {
		t.Errorf("Expected journal_mode delete, got %s", mode)
	}
}

func TestMigrate(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	schema := `
	CREATE TABLE test (
		id INTEGER PRIMARY KEY,
		name TEXT
	);
	`
	ctx := context.Background()
	if err := db.Migrate(ctx, schema); err != nil {
		t.Fatalf("Migration failed: %v", err)
	}

	_, err = db.Exec("INSERT INTO test (name) VALUES (?)", "foo")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	var name string
	err = db.QueryRow("SELECT name FROM test WHERE id = 1").Scan(&name)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if name != "foo" {
		t.Errorf("Expected foo, got %s", name)
	}
}

func TestInit(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	ok, err := db.HasSchema(ctx)
	if err != nil {
		t.Fatalf("HasSchema failed: %v", err)
	}
	if ok {
		t.Fatalf("Expected no schema before Init")
	}

	if err := db.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	// Init must be repeatable.
	if err := db.Init(ctx); err != nil {
		t.Fatalf("Second Init failed: %v", err)
	}

	ok, _ = db.HasSchema(ctx)
	if !ok {
		t.Fatalf("Expected tasks table after Init")
	}

	var format string
	if err := db.QueryRow("SELECT value FROM meta WHERE key = 'format'").Scan(&format); err != nil {
		t.Fatalf("Failed to read meta: %v", err)
	}
	if format != "todo-sqlite" {
		t.Errorf("Expected format todo-sqlite, got %s", format)
	}
}
