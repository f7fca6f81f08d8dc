package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFixture(t *testing.T) {
	builtin, err := loadFixture("")
	if err != nil {
		t.Fatalf("built-in fixture: %v", err)
	}
	if len(builtin.Locations) == 0 {
		t.Fatalf("built-in fixture has no locations")
	}

	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	if err := os.WriteFile(good, []byte(`{"locations": [{"city": "Boise", "state": "ID", "country": "USA"}]}`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	custom, err := loadFixture(good)
	if err != nil {
		t.Fatalf("custom fixture: %v", err)
	}
	if len(custom.Locations) != 1 || custom.Locations[0].City != "Boise" {
		t.Fatalf("custom fixture = %+v", custom)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"locations": [{"city": "Boise"}]}`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := loadFixture(bad); err == nil {
		t.Fatalf("expected schema error")
	}
	if _, err := loadFixture(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected read error")
	}
}
