package migrations

import "testing"

func TestNames_SortedAndEmbedded(t *testing.T) {
	names := Names()
	if len(names) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
	if names[0] != "001_init.sql" {
		t.Errorf("first migration = %q, want 001_init.sql", names[0])
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("migrations not sorted: %q before %q", names[i-1], names[i])
		}
	}
}
