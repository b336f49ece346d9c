package db

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrSchemaAhead is returned when the database records a migration this
// build does not ship, i.e. it was migrated by a newer rehab360.
var ErrSchemaAhead = errors.New("database schema is newer than this build")

var (
	errMigrationGap      = errors.New("migration versions are not contiguous")
	errEmptyMigration    = errors.New("migration has no statements")
	migrationFilePattern = regexp.MustCompile(`^(\d+)_[a-z0-9_]+\.sql$`)
)

type migration struct {
	version    int
	name       string
	statements []string
}

// schemaMigration is one row of the applied-migrations ledger.
type schemaMigration struct {
	Version   int       `gorm:"column:version;primaryKey;autoIncrement:false"`
	Name      string    `gorm:"column:name;not null"`
	AppliedAt time.Time `gorm:"column:applied_at;not null"`
}

func (schemaMigration) TableName() string {
	return "schema_migrations"
}

// migrate applies every migration in source that the ledger does not list
// yet, each in its own transaction, and returns the applied file names.
func migrate(database *gorm.DB, source fs.FS) ([]string, error) {
	migrations, err := loadMigrations(source)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(&schemaMigration{}); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var ledger []schemaMigration
	if err := database.Order("version").Find(&ledger).Error; err != nil {
		return nil, fmt.Errorf("load schema_migrations: %w", err)
	}
	done := make(map[int]bool, len(ledger))
	for _, row := range ledger {
		if row.Version > len(migrations) {
			return nil, fmt.Errorf("%w: version %d (%s)", ErrSchemaAhead, row.Version, row.Name)
		}
		done[row.Version] = true
	}

	applied := make([]string, 0, len(migrations))
	for _, pending := range migrations {
		if done[pending.version] {
			continue
		}
		if err := applyMigration(database, pending); err != nil {
			return applied, err
		}
		applied = append(applied, pending.name)
	}
	return applied, nil
}

// loadMigrations reads NNN_name.sql files from source. Versions must run
// 1..n without gaps so the ledger can be compared against the build.
func loadMigrations(source fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	migrations := make([]migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := migrationFilePattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("parse migration version of %s: %w", entry.Name(), err)
		}
		raw, err := fs.ReadFile(source, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		statements := splitSQLStatements(string(raw))
		if len(statements) == 0 {
			return nil, fmt.Errorf("%w: %s", errEmptyMigration, entry.Name())
		}
		migrations = append(migrations, migration{
			version:    version,
			name:       entry.Name(),
			statements: statements,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	for index, loaded := range migrations {
		if loaded.version != index+1 {
			return nil, fmt.Errorf("%w: expected version %d, found %s", errMigrationGap, index+1, loaded.name)
		}
	}
	return migrations, nil
}

func applyMigration(database *gorm.DB, pending migration) error {
	return database.Transaction(func(tx *gorm.DB) error {
		for _, statement := range pending.statements {
			if err := tx.Exec(statement).Error; err != nil {
				return fmt.Errorf("migration %s: %w", pending.name, err)
			}
		}
		record := schemaMigration{
			Version:   pending.version,
			Name:      pending.name,
			AppliedAt: time.Now().UTC(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", pending.name, err)
		}
		return nil
	})
}

func splitSQLStatements(sqlText string) []string {
	parts := strings.Split(sqlText, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		if statement := strings.TrimSpace(part); statement != "" {
			statements = append(statements, statement)
		}
	}
	return statements
}
