package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		if got := userVersion(t, s.db); got != currentSchemaVersion {
			t.Errorf("iteration %d: user_version = %d, want %d", i, got, currentSchemaVersion)
		}
		s.Close()
	}

	s := createTestStoreAt(t, path)
	for _, table := range []string{"sessions", "steps"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after repeated opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	if _, err := Open("/nonexistent/dir/journal.db"); err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.BeginSession(ctx, testSession("mem")); err != nil {
		t.Fatalf("BeginSession() failed: %v", err)
	}
	// A second pooled connection would see an empty database.
	if _, err := s.ReadSession(ctx, "mem"); err != nil {
		t.Errorf("ReadSession() on in-memory journal failed: %v", err)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	_ = s.Close()
}

func TestQuery(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := s.BeginSession(ctx, testSession("sess-1")); err != nil {
		t.Fatalf("BeginSession() failed: %v", err)
	}

	rows, err := s.Query(ctx, "SELECT model_path FROM sessions WHERE id = ?", "sess-1")
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	defer rows.Close()

	if !rows.Next() {
		t.Fatal("Query() returned no rows")
	}
	var model string
	if err := rows.Scan(&model); err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	if model != "/models/pond.inp" {
		t.Errorf("model_path = %q, want /models/pond.inp", model)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	for _, p := range pragmas {
		t.Run(p.name, func(t *testing.T) {
			got, err := s.pragmaValue(p.name)
			if err != nil {
				t.Fatal(err)
			}
			if got != p.want {
				t.Errorf("%s = %q, want %q", p.name, got, p.want)
			}
		})
	}
}

func TestSchema_Columns(t *testing.T) {
	s := createTestStore(t)

	tests := map[string][]string{
		"sessions": {"id", "seq", "fingerprint", "model_path", "input_count", "output_count", "end_reason"},
		"steps":    {"session_id", "step", "phase", "elapsed", "inputs", "outputs"},
	}
	for table, want := range tests {
		columns := getTableColumns(t, s.db, table)
		for _, col := range want {
			if !slices.Contains(columns, col) {
				t.Errorf("%s table missing column %q", table, col)
			}
		}
	}
}

func TestConstraint_ForeignKeyStepToSession(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO steps (session_id, step, phase, elapsed, inputs, outputs)
		VALUES ('missing', 1, 'first', 0, '[]', '[]')
	`)
	if err == nil {
		t.Error("expected foreign key violation for step without session")
	}
}

func TestConstraint_SessionIDUnique(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.BeginSession(ctx, testSession("sess-1")); err != nil {
		t.Fatalf("BeginSession() failed: %v", err)
	}
	if err := s.BeginSession(ctx, testSession("sess-1")); err == nil {
		t.Error("expected error for duplicate session id")
	}
}

func TestMigration_PhaseIndexExists(t *testing.T) {
	s := createTestStore(t)

	if indexes := getTableIndexes(t, s.db, "steps"); !slices.Contains(indexes, "idx_steps_phase") {
		t.Errorf("steps table missing idx_steps_phase, indexes: %v", indexes)
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	db.Close()

	s := createTestStoreAt(t, path)
	if got := userVersion(t, s.db); got != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d after migration", got, currentSchemaVersion)
	}
	if !slices.Contains(getTableIndexes(t, s.db, "steps"), "idx_steps_phase") {
		t.Error("expected idx_steps_phase after migration")
	}
}

func TestMigrations_Ordered(t *testing.T) {
	for i, m := range migrations {
		if m.version != i+1 {
			t.Errorf("migrations[%d].version = %d, want %d", i, m.version, i+1)
		}
	}
}

func userVersion(t *testing.T, db *sql.DB) int {
	t.Helper()
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	return version
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}
