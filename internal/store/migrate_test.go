package store

import (
	"io/fs"
	"testing"
)

func TestMigrateUpAndVersion(t *testing.T) {
	s := newTestStore(t)

	if err := s.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}

	version, dirty, err := s.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion: %v", err)
	}
	if dirty {
		t.Error("expected clean migration state")
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}

	// Running again is a no-op.
	if err := s.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp (again): %v", err)
	}
}

func TestMigrateVersionBeforeMigrations(t *testing.T) {
	s := newTestStore(t)

	version, dirty, err := s.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("version=%d dirty=%v, want 0 and clean before any migration", version, dirty)
	}
}

func TestMigrationsFS(t *testing.T) {
	entries, err := fs.Glob(MigrationsFS(), "*.up.sql")
	if err != nil {
		t.Fatalf("glob embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one embedded up migration")
	}
}
