// Package dbtest opens isolated in-memory sqlite databases for repository tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoparts-backend/pkg/db"
)

// Open returns a fresh in-memory database with the given DDL applied. Each call
// gets its own database so tests in the same package never share rows.
func Open(t testing.TB, ddl ...string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", strings.ReplaceAll(uuid.NewString(), "-", ""))
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// A single connection keeps the shared-cache database alive and avoids
	// SQLITE_LOCKED between concurrent statements in the same test.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range ddl {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply ddl %q: %v", firstLine(stmt), err)
		}
	}
	return conn
}

func firstLine(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if idx := strings.IndexByte(stmt, '\n'); idx > 0 {
		return stmt[:idx]
	}
	return stmt
}
