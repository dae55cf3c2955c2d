package shared

import (
	"strings"
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.Up == "" {
				t.Errorf("migration version %d missing up SQL", m.Version)
			}
			if m.Down == "" {
				t.Errorf("migration version %d missing down SQL", m.Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		if count == 0 {
			t.Error("expected at least one migration to be applied")
		}

		_, err = db.Exec("SELECT 1 FROM artists LIMIT 1")
		if err != nil {
			t.Errorf("artists table should exist after migrations: %v", err)
		}

		_, err = db.Exec("SELECT 1 FROM playlist_tracks LIMIT 1")
		if err != nil {
			t.Errorf("playlist_tracks table should exist after migrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		var newCount int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&newCount)
		if err != nil {
			t.Fatalf("failed to query schema_migrations after rollback: %v", err)
		}
		if newCount >= count {
			t.Errorf("expected migration count to decrease after rollback, got %d (was %d)", newCount, count)
		}
	})

	t.Run("Comments With Semicolons", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := createMigrationsTable(db); err != nil {
			t.Fatalf("failed to create migrations table: %v", err)
		}

		migration := Migration{
			Version: 99,
			Up: `-- one table; seeded below
CREATE TABLE nums (n INTEGER);
-- seed data; a single row
INSERT INTO nums VALUES (1);`,
			Down: "DROP TABLE nums;",
		}

		if err := applyMigration(db, migration); err != nil {
			t.Fatalf("failed to apply migration with commented semicolons: %v", err)
		}

		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM nums").Scan(&n); err != nil {
			t.Fatalf("failed to query seeded table: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 seeded row, got %d", n)
		}
	})

	t.Run("Statement Splitting", func(t *testing.T) {
		script := "-- comment; with a semicolon\nCREATE TABLE a (x INTEGER);\nCREATE TABLE b (y INTEGER); -- trailing; note"
		statements := splitStatements(script)
		if len(statements) != 2 {
			t.Fatalf("expected 2 statements, got %d: %q", len(statements), statements)
		}
		for _, stmt := range statements {
			if strings.Contains(stmt, "--") {
				t.Errorf("statement still contains a comment: %q", stmt)
			}
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})
}
