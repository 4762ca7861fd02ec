package testdb

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/selivandex/portfolio-digest/internal/adapters/database"
	"github.com/selivandex/portfolio-digest/pkg/logger"
)

// TestDB wraps a migrated test database that is wiped after each test
type TestDB struct {
	DB *database.DB
}

// MigrationsPath returns the repository migrations directory
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// Setup connects to TEST_DATABASE_URL, applies migrations and registers cleanup.
// The test is skipped when the variable is not set.
func Setup(t *testing.T) *TestDB {
	t.Helper()
	logger.InitNop()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres test")
	}

	conn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db := database.Wrap(conn)
	if err := database.RunMigrations(db.Conn(), MigrationsPath()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	tdb := &TestDB{DB: db}
	tdb.truncate(t)

	t.Cleanup(func() {
		tdb.Teardown(t)
	})

	return tdb
}

func (tdb *TestDB) truncate(t *testing.T) {
	t.Helper()
	tdb.Exec(t, `TRUNCATE delivery_logs, holdings, subscribers CASCADE`)
}

// Teardown wipes data and closes connection
func (tdb *TestDB) Teardown(t *testing.T) {
	t.Helper()

	tdb.truncate(t)
	if err := tdb.DB.Close(); err != nil {
		t.Logf("warning: failed to close database: %v", err)
	}
}

// Exec executes SQL against the test database
func (tdb *TestDB) Exec(t *testing.T, query string, args ...interface{}) {
	t.Helper()

	if _, err := tdb.DB.DB().Exec(query, args...); err != nil {
		t.Fatalf("failed to execute query: %v\nQuery: %s", err, query)
	}
}

// CreateTestSubscriber inserts a subscriber and returns its id
func (tdb *TestDB) CreateTestSubscriber(t *testing.T, email string, active, urgent bool) string {
	t.Helper()

	var id string
	err := tdb.DB.DB().QueryRow(`
		INSERT INTO subscribers (email, is_active, wants_urgent_alerts, timezone)
		VALUES ($1, $2, $3, 'America/Chicago')
		RETURNING id
	`, email, active, urgent).Scan(&id)
	if err != nil {
		t.Fatalf("failed to create test subscriber: %v", err)
	}

	return id
}

// AssertDeliveryCount checks delivery log rows for a subscriber
func (tdb *TestDB) AssertDeliveryCount(t *testing.T, subscriberID string, expected int) {
	t.Helper()

	var count int
	err := tdb.DB.DB().Get(&count, "SELECT COUNT(*) FROM delivery_logs WHERE subscriber_id = $1", subscriberID)
	if err != nil {
		t.Fatalf("failed to count deliveries: %v", err)
	}

	if count != expected {
		t.Errorf("expected %d deliveries, got %d", expected, count)
	}
}
