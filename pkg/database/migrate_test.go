package database

import "testing"

func TestMigrationNames_SortedAndEmbedded(t *testing.T) {
	names, err := migrationNames()
	if err != nil {
		t.Fatalf("migrationNames() error = %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no embedded migrations")
	}
	if names[0] != "001_schema.sql" {
		t.Errorf("first migration = %s, want 001_schema.sql", names[0])
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("migrations not sorted: %s before %s", names[i-1], names[i])
		}
	}
}
