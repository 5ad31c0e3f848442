package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// driverName maps a dialect to its database/sql driver.
func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite", nil
	case DialectMySQL:
		return "mysql", nil
	case DialectPostgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", d)
	}
}

// PoolOptions tune the connection pool. Zero values select defaults.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SQLStore persists keyword profiles and search history in a relational
// database. One implementation serves SQLite, MySQL and PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Open connects to the database, verifies the connection and creates any
// missing tables.
func Open(ctx context.Context, dialect Dialect, dsn string, pool PoolOptions) (*SQLStore, error) {
	driver, err := dialect.driverName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// A single writer avoids SQLITE_BUSY under concurrent reindexing.
		db.SetMaxOpenConns(1)
	} else {
		maxOpen := pool.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 50
		}
		maxIdle := pool.MaxIdleConns
		if maxIdle <= 0 {
			maxIdle = 10
		}
		lifetime := pool.ConnMaxLifetime
		if lifetime <= 0 {
			lifetime = time.Hour
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxIdle)
		db.SetConnMaxLifetime(lifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s db: %w", dialect, err)
	}

	s := &SQLStore{db: db, dialect: dialect, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	return Open(context.Background(), DialectSQLite, dbPath, PoolOptions{})
}

// SetClock overrides the time source used for row timestamps.
func (s *SQLStore) SetClock(now func() time.Time) {
	s.now = now
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("running migration %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// schema returns the DDL for the current dialect. Timestamps are unix millis.
func (s *SQLStore) schema() []string {
	text := "TEXT"
	if s.dialect == DialectMySQL {
		text = "MEDIUMTEXT"
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS keyword_profiles (
			owner_type     VARCHAR(32)  NOT NULL,
			owner_id       VARCHAR(191) NOT NULL,
			org_id         VARCHAR(191) NOT NULL DEFAULT '',
			keywords       ` + text + ` NOT NULL,
			total_keywords INTEGER      NOT NULL DEFAULT 0,
			updated_at     BIGINT       NOT NULL,
			PRIMARY KEY (owner_type, owner_id)
		)`,
		`CREATE TABLE IF NOT EXISTS profile_attributes (
			owner_type         VARCHAR(32)  NOT NULL,
			owner_id           VARCHAR(191) NOT NULL,
			location           VARCHAR(255) NOT NULL DEFAULT '',
			bio                ` + text + `,
			is_premium         INTEGER      NOT NULL DEFAULT 0,
			premium_expires_at BIGINT,
			PRIMARY KEY (owner_type, owner_id)
		)`,
		`CREATE TABLE IF NOT EXISTS profile_sources (
			owner_type  VARCHAR(32)  NOT NULL,
			owner_id    VARCHAR(191) NOT NULL,
			org_id      VARCHAR(191) NOT NULL DEFAULT '',
			source_type VARCHAR(32)  NOT NULL,
			body        ` + text + ` NOT NULL,
			updated_at  BIGINT       NOT NULL,
			PRIMARY KEY (owner_type, owner_id, source_type)
		)`,
		`CREATE TABLE IF NOT EXISTS search_records (
			id              VARCHAR(64)  NOT NULL PRIMARY KEY,
			organization_id VARCHAR(191) NOT NULL,
			query_text      ` + text + ` NOT NULL,
			query_keywords  ` + text + ` NOT NULL,
			filters         ` + text + ` NOT NULL,
			results_count   INTEGER      NOT NULL DEFAULT 0,
			is_saved        INTEGER      NOT NULL DEFAULT 0,
			name            VARCHAR(255) NOT NULL DEFAULT '',
			created_by      VARCHAR(191) NOT NULL,
			created_at      BIGINT       NOT NULL
		)`,
	}

	if s.dialect == DialectMySQL {
		// MySQL has no CREATE INDEX IF NOT EXISTS; the primary keys cover the
		// profile lookups and search listing filters on organization_id.
		return tables
	}
	return append(tables,
		`CREATE INDEX IF NOT EXISTS idx_keyword_profiles_org ON keyword_profiles (owner_type, org_id)`,
		`CREATE INDEX IF NOT EXISTS idx_search_records_org ON search_records (organization_id, created_at)`,
	)
}

// rebind converts ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// upsert builds an insert-or-replace statement keyed on keyCols.
func (s *SQLStore) upsert(table string, cols, keyCols []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders)

	isKey := make(map[string]bool, len(keyCols))
	for _, k := range keyCols {
		isKey[k] = true
	}
	var sets []string
	for _, c := range cols {
		if isKey[c] {
			continue
		}
		if s.dialect == DialectMySQL {
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
		} else {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}

	if s.dialect == DialectMySQL {
		return s.rebind(insert + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", "))
	}
	return s.rebind(fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s", insert, strings.Join(keyCols, ", "), strings.Join(sets, ", ")))
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
