package db

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/glebarez/sqlite"
	embeddedmigrations "github.com/terraincognita07/rehab360/migrations"
	"gorm.io/gorm"
)

func TestOpenSQLiteAppliesEmbeddedMigrationsOnCleanDatabase(t *testing.T) {
	databasePath := filepath.Join(t.TempDir(), "rehab360-clean.db")
	database := openSQLiteForMigrationBootstrapTest(t, databasePath)

	assertUsersSchemaReconciled(t, database)
	assertDailyLogsSchemaReconciled(t, database)
	assertNormalizedEmailIndexExists(t, database)
	assertAllEmbeddedMigrationsApplied(t, database)
}

func TestOpenSQLiteMigrationBootstrapIsIdempotent(t *testing.T) {
	databasePath := filepath.Join(t.TempDir(), "rehab360-idempotent.db")

	firstOpen, err := OpenSQLite(databasePath, nil)
	if err != nil {
		t.Fatalf("first open sqlite: %v", err)
	}
	firstRecords := loadMigrationRecords(t, firstOpen)

	firstSQLDB, err := firstOpen.DB()
	if err != nil {
		t.Fatalf("first open sql db: %v", err)
	}
	if err := firstSQLDB.Close(); err != nil {
		t.Fatalf("close first sql db: %v", err)
	}

	secondOpen := openSQLiteForMigrationBootstrapTest(t, databasePath)
	secondRecords := loadMigrationRecords(t, secondOpen)

	if len(firstRecords) != len(secondRecords) {
		t.Fatalf("expected migration records to remain unchanged between boots, before=%v after=%v", firstRecords, secondRecords)
	}
	for index := range firstRecords {
		before, after := firstRecords[index], secondRecords[index]
		if before.Version != after.Version || before.Name != after.Name || !before.AppliedAt.Equal(after.AppliedAt) {
			t.Fatalf("expected migration record %d to remain unchanged, before=%+v after=%+v", index, before, after)
		}
	}
}

func TestSplitSQLStatementsDropsBlankStatements(t *testing.T) {
	t.Parallel()

	statements := splitSQLStatements("CREATE TABLE a (id TEXT);\n\n ;CREATE INDEX b ON a(id);  ")
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(statements), statements)
	}
	if statements[1] != "CREATE INDEX b ON a(id)" {
		t.Fatalf("unexpected second statement %q", statements[1])
	}
}

func TestOpenSQLiteRejectsSchemaFromNewerBuild(t *testing.T) {
	databasePath := filepath.Join(t.TempDir(), "rehab360-ahead.db")
	database := openSQLiteForMigrationBootstrapTest(t, databasePath)

	future := schemaMigration{Version: 99, Name: "099_future.sql", AppliedAt: time.Now().UTC()}
	if err := database.Create(&future).Error; err != nil {
		t.Fatalf("record future migration: %v", err)
	}

	_, err := OpenSQLite(databasePath, nil)
	if !errors.Is(err, ErrSchemaAhead) {
		t.Fatalf("expected ErrSchemaAhead, got %v", err)
	}
}

func TestLoadMigrationsOrdersByVersionAndIgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	source := fstest.MapFS{
		"002_second.sql": {Data: []byte("CREATE INDEX b ON a(id);")},
		"001_first.sql":  {Data: []byte("CREATE TABLE a (id TEXT);")},
		"README.md":      {Data: []byte("notes")},
		"embed.go":       {Data: []byte("package migrations")},
	}

	migrations, err := loadMigrations(source)
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if len(migrations) != 2 || migrations[0].name != "001_first.sql" || migrations[1].name != "002_second.sql" {
		t.Fatalf("unexpected migrations %+v", migrations)
	}
}

func TestLoadMigrationsRejectsGapsAndEmptyFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source fstest.MapFS
		want   error
	}{
		{
			name: "gap",
			source: fstest.MapFS{
				"001_first.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
				"003_third.sql": {Data: []byte("CREATE TABLE c (id TEXT);")},
			},
			want: errMigrationGap,
		},
		{
			name: "duplicate version",
			source: fstest.MapFS{
				"001_first.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
				"001_other.sql": {Data: []byte("CREATE TABLE b (id TEXT);")},
			},
			want: errMigrationGap,
		},
		{
			name: "empty",
			source: fstest.MapFS{
				"001_first.sql": {Data: []byte(" ;\n")},
			},
			want: errEmptyMigration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadMigrations(tt.source); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMigrateRollsBackFailedMigration(t *testing.T) {
	databasePath := filepath.Join(t.TempDir(), "rehab360-rollback.db")
	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	source := fstest.MapFS{
		"001_first.sql":  {Data: []byte("CREATE TABLE a (id TEXT);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE b (id TEXT); INSERT INTO missing VALUES (1);")},
	}

	applied, err := migrate(database, source)
	if err == nil {
		t.Fatal("expected broken migration to fail")
	}
	if !reflect.DeepEqual(applied, []string{"001_first.sql"}) {
		t.Fatalf("expected only the first migration applied, got %v", applied)
	}
	if database.Migrator().HasTable("b") {
		t.Fatal("expected failed migration to roll back its statements")
	}
	records := loadMigrationRecords(t, database)
	if len(records) != 1 || records[0].Version != 1 {
		t.Fatalf("expected only version 1 recorded, got %+v", records)
	}
}

func openSQLiteForMigrationBootstrapTest(t *testing.T, databasePath string) *gorm.DB {
	t.Helper()

	database, err := OpenSQLite(databasePath, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return database
}

func assertUsersSchemaReconciled(t *testing.T, database *gorm.DB) {
	t.Helper()

	columns := loadTableColumns(t, database, "users")
	for _, column := range []string{"id", "email", "password_hash", "must_change_password", "created_at"} {
		if _, exists := columns[column]; !exists {
			t.Fatalf("expected users.%s column to exist after migrations", column)
		}
	}
}

func assertDailyLogsSchemaReconciled(t *testing.T, database *gorm.DB) {
	t.Helper()

	columns := loadTableColumns(t, database, "daily_logs")
	for _, column := range dailyLogDataColumns {
		if _, exists := columns[column]; !exists {
			t.Fatalf("expected daily_logs.%s column to exist after migrations", column)
		}
	}

	notNullFlags := loadTableColumnNotNullFlags(t, database, "daily_logs")
	for _, optional := range []string{"sleep_hours", "sleep_quality", "craving_intensity", "mood_tag", "notes"} {
		if notNullFlags[optional] {
			t.Fatalf("expected daily_logs.%s to remain nullable", optional)
		}
	}

	indexSQL := loadSQLiteObjectSQL(t, database, "index", "uidx_daily_logs_user_date")
	definition := strings.ToLower(strings.Join(strings.Fields(indexSQL), ""))
	if !strings.Contains(definition, "unique") || !strings.Contains(definition, "(user_id,log_date)") {
		t.Fatalf("expected unique (user_id, log_date) index, got %q", indexSQL)
	}
}

func assertNormalizedEmailIndexExists(t *testing.T, database *gorm.DB) {
	t.Helper()

	indexSQL := loadSQLiteObjectSQL(t, database, "index", "idx_users_email_normalized")
	definition := strings.ToLower(strings.Join(strings.Fields(indexSQL), ""))
	if definition == "" {
		t.Fatal("expected normalized email index definition to exist")
	}
	if !strings.Contains(definition, "lower(trim(email))") {
		t.Fatalf("expected normalized email index to use lower(trim(email)), got %q", indexSQL)
	}
}

func assertAllEmbeddedMigrationsApplied(t *testing.T, database *gorm.DB) {
	t.Helper()

	expectedVersions := embeddedMigrationVersionsForTest(t)
	actualVersions := make([]int, 0)

	for _, row := range loadMigrationRecords(t, database) {
		actualVersions = append(actualVersions, row.Version)
	}

	if !reflect.DeepEqual(expectedVersions, actualVersions) {
		t.Fatalf("unexpected applied migration versions: expected=%v actual=%v", expectedVersions, actualVersions)
	}
}

func loadMigrationRecords(t *testing.T, database *gorm.DB) []schemaMigration {
	t.Helper()

	records := make([]schemaMigration, 0)
	if err := database.Order("version").Find(&records).Error; err != nil {
		t.Fatalf("load migration records: %v", err)
	}
	return records
}

func loadTableColumns(t *testing.T, database *gorm.DB, tableName string) map[string]struct{} {
	t.Helper()

	escapedTable := strings.ReplaceAll(tableName, `"`, `""`)
	query := fmt.Sprintf(`PRAGMA table_info("%s")`, escapedTable)

	var rows []struct {
		Name string `gorm:"column:name"`
	}
	if err := database.Raw(query).Scan(&rows).Error; err != nil {
		t.Fatalf("load table columns for %s: %v", tableName, err)
	}

	columns := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		columns[strings.ToLower(strings.TrimSpace(row.Name))] = struct{}{}
	}
	return columns
}

func loadTableColumnNotNullFlags(t *testing.T, database *gorm.DB, tableName string) map[string]bool {
	t.Helper()

	escapedTable := strings.ReplaceAll(tableName, `"`, `""`)
	query := fmt.Sprintf(`PRAGMA table_info("%s")`, escapedTable)

	var rows []struct {
		Name    string `gorm:"column:name"`
		NotNull int    `gorm:"column:notnull"`
	}
	if err := database.Raw(query).Scan(&rows).Error; err != nil {
		t.Fatalf("load table nullability for %s: %v", tableName, err)
	}

	flags := make(map[string]bool, len(rows))
	for _, row := range rows {
		flags[strings.ToLower(strings.TrimSpace(row.Name))] = row.NotNull == 1
	}
	return flags
}

func loadSQLiteObjectSQL(t *testing.T, database *gorm.DB, objectType string, objectName string) string {
	t.Helper()

	var row struct {
		SQL string `gorm:"column:sql"`
	}
	if err := database.Raw(
		`SELECT sql FROM sqlite_master WHERE type = ? AND name = ?`,
		objectType,
		objectName,
	).Scan(&row).Error; err != nil {
		t.Fatalf("load sqlite master sql for %s %s: %v", objectType, objectName, err)
	}
	return row.SQL
}

func embeddedMigrationVersionsForTest(t *testing.T) []int {
	t.Helper()

	migrations, err := loadMigrations(embeddedmigrations.Files)
	if err != nil {
		t.Fatalf("load embedded migrations: %v", err)
	}

	versions := make([]int, 0, len(migrations))
	for _, migration := range migrations {
		versions = append(versions, migration.version)
	}
	return versions
}
