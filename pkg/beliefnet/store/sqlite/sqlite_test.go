package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cognicore/beliefnet/pkg/beliefnet/store"
)

// TestSQLiteFactsRoundTrip tests fact recording and retrieval
func TestSQLiteFactsRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer st.Close()

	facts := []store.Fact{
		{Key: "Inteligencia", Value: 1},
		{Key: "Asistencia", Value: 1},
		{Key: "Inteligencia", Value: 0},
	}
	for _, f := range facts {
		if err := st.AppendFact(ctx, f); err != nil {
			t.Fatalf("AppendFact %q: %v", f.Key, err)
		}
	}

	got, err := st.Facts(ctx)
	if err != nil {
		t.Fatalf("Facts: %v", err)
	}

	if len(got) != len(facts) {
		t.Fatalf("Expected %d facts, got %d", len(facts), len(got))
	}
	for i, f := range got {
		if f.Key != facts[i].Key || f.Value != facts[i].Value {
			t.Errorf("Fact %d mismatch: got %q=%d, want %q=%d",
				i, f.Key, f.Value, facts[i].Key, facts[i].Value)
		}
		if f.ID == 0 {
			t.Errorf("Fact %d should have a non-zero ID", i)
		}
	}

	// Duplicate keys are append-only history, not upserts
	if got[0].Key != got[2].Key {
		t.Fatal("Test setup should repeat a key")
	}
	if got[0].Value == got[2].Value {
		t.Error("Repeated key should keep both recorded values")
	}
}

// TestSQLiteResultsRoundTrip tests posterior recording and retrieval
func TestSQLiteResultsRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer st.Close()

	posteriors := []float64{0.52, 0.2428, 0.0}
	for _, p := range posteriors {
		if err := st.AppendResult(ctx, store.Result{Posterior: p}); err != nil {
			t.Fatalf("AppendResult %v: %v", p, err)
		}
	}

	got, err := st.Results(ctx)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}

	if len(got) != len(posteriors) {
		t.Fatalf("Expected %d results, got %d", len(posteriors), len(got))
	}
	for i, r := range got {
		if r.Posterior != posteriors[i] {
			t.Errorf("Result %d mismatch: got %v, want %v", i, r.Posterior, posteriors[i])
		}
	}
}

// TestSQLiteEmptyStore tests reads against a fresh database
func TestSQLiteEmptyStore(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer st.Close()

	facts, err := st.Facts(ctx)
	if err != nil {
		t.Fatalf("Facts: %v", err)
	}
	if len(facts) != 0 {
		t.Errorf("Expected no facts in fresh store, got %d", len(facts))
	}

	results, err := st.Results(ctx)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results in fresh store, got %d", len(results))
	}
}

// TestSQLitePersistsAcrossReopen tests that data survives close and reopen
func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	if err := st.AppendFact(ctx, store.Fact{Key: "Nota", Value: 1}); err != nil {
		t.Fatalf("AppendFact: %v", err)
	}
	if err := st.AppendResult(ctx, store.Result{Posterior: 0.52}); err != nil {
		t.Fatalf("AppendResult: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("Reopen OpenSQLite: %v", err)
	}
	defer st.Close()

	facts, err := st.Facts(ctx)
	if err != nil {
		t.Fatalf("Facts after reopen: %v", err)
	}
	if len(facts) != 1 || facts[0].Key != "Nota" || facts[0].Value != 1 {
		t.Errorf("Expected persisted fact Nota=1, got %v", facts)
	}

	results, err := st.Results(ctx)
	if err != nil {
		t.Fatalf("Results after reopen: %v", err)
	}
	if len(results) != 1 || results[0].Posterior != 0.52 {
		t.Errorf("Expected persisted result 0.52, got %v", results)
	}
}

// TestSQLiteSchemaExists verifies the schema bootstrap
func TestSQLiteSchemaExists(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer st.Close()

	s := st.(*sqliteStore)
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatalf("Query sqlite_master: %v", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("Scan table name: %v", err)
		}
		tables = append(tables, name)
	}

	expectedTables := []string{"facts", "results"}
	if len(tables) != len(expectedTables) {
		t.Fatalf("Expected %d tables, got %d: %v", len(expectedTables), len(tables), tables)
	}
	for i, expected := range expectedTables {
		if tables[i] != expected {
			t.Errorf("Table %d: got %q, want %q", i, tables[i], expected)
		}
	}
}
